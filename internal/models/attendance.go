package models

import "time"

// Legacy wire formats for the absensi table.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// AttendanceRecord is one visit in the ledger. At most one exists per (StudentID, Date).
type AttendanceRecord struct {
	ID        int64      `db:"id" json:"id"`
	StudentID int64      `db:"anak_id" json:"student_id"`
	Date      string     `db:"tanggal" json:"date"`
	Time      string     `db:"waktu" json:"time"`
	CreatedAt *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// RecentVisit is a ledger row joined with the visiting student.
type RecentVisit struct {
	StudentID int64  `db:"anak_id" json:"student_id"`
	Name      string `db:"nama" json:"name"`
	Class     string `db:"kelas" json:"class"`
	Date      string `db:"tanggal" json:"date"`
	Time      string `db:"waktu" json:"time"`
}
