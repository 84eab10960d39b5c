package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/absensi-api/internal/models"
)

const uniqueViolation = "23505"

// UnknownStudentsError reports submitted ids that have no registry entry.
type UnknownStudentsError struct {
	IDs []int64
}

func (e *UnknownStudentsError) Error() string {
	return fmt.Sprintf("unknown student ids: %v", e.IDs)
}

// CheckinBatch is one submission to the ledger. StudentIDs must already be de-duplicated.
type CheckinBatch struct {
	StudentIDs []int64
	Date       string
	Time       string
	CreatedAt  time.Time
}

// AttendanceRepository is the append-only visit ledger (legacy table absensi).
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Record inserts one visit per student for the batch date inside a single transaction.
// Rows that already exist for (student, date) are skipped by the unique index and are
// absent from the returned slice, which follows the submission order of StudentIDs.
func (r *AttendanceRepository) Record(ctx context.Context, batch CheckinBatch) ([]models.AttendanceRecord, error) {
	if len(batch.StudentIDs) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record attendance: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	var found []int64
	if err := tx.SelectContext(ctx, &found, "SELECT id FROM anak WHERE id = ANY($1)", pq.Array(batch.StudentIDs)); err != nil {
		return nil, fmt.Errorf("check students: %w", err)
	}
	if missing := missingIDs(batch.StudentIDs, found); len(missing) > 0 {
		return nil, &UnknownStudentsError{IDs: missing}
	}

	query := `INSERT INTO absensi (anak_id, tanggal, waktu, created_at)
SELECT t.anak_id, $2::varchar, $3::varchar, $4::timestamp
FROM unnest($1::int[]) WITH ORDINALITY AS t(anak_id, ord)
ORDER BY t.ord
ON CONFLICT (anak_id, tanggal) DO NOTHING
RETURNING id, anak_id, tanggal, waktu, created_at`
	var inserted []models.AttendanceRecord
	if err := tx.SelectContext(ctx, &inserted, query, pq.Array(batch.StudentIDs), batch.Date, batch.Time, batch.CreatedAt); err != nil {
		if constraint := violatedConstraint(err); constraint != "" {
			return nil, fmt.Errorf("insert attendance: constraint %s: %w", constraint, err)
		}
		return nil, fmt.Errorf("insert attendance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record attendance: %w", err)
	}
	commit = true

	return inSubmissionOrder(batch.StudentIDs, inserted), nil
}

// Recent lists the newest visits joined with the visiting student.
func (r *AttendanceRepository) Recent(ctx context.Context, limit int) ([]models.RecentVisit, error) {
	query := `SELECT v.anak_id, a.nama, a.kelas, v.tanggal, v.waktu
FROM absensi v
JOIN anak a ON a.id = v.anak_id
ORDER BY v.tanggal DESC, v.waktu DESC, v.id DESC
LIMIT $1`
	visits := make([]models.RecentVisit, 0)
	if err := r.db.SelectContext(ctx, &visits, query, limit); err != nil {
		return nil, fmt.Errorf("recent visits: %w", err)
	}
	return visits, nil
}

func missingIDs(requested, found []int64) []int64 {
	known := make(map[int64]struct{}, len(found))
	for _, id := range found {
		known[id] = struct{}{}
	}
	var missing []int64
	for _, id := range requested {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

func inSubmissionOrder(ids []int64, records []models.AttendanceRecord) []models.AttendanceRecord {
	position := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, seen := position[id]; !seen {
			position[id] = i
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return position[records[i].StudentID] < position[records[j].StudentID]
	})
	return records
}

// violatedConstraint names the unique index behind a 23505 error. The ON CONFLICT
// clause already absorbs (anak_id, tanggal) duplicates, so any violation reaching
// here is a storage fault.
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
