package models

// Student is a registry entry. The core reads students but never mutates them.
type Student struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"nama" json:"name"`
	Class  string `db:"kelas" json:"class"`
	Level  int    `db:"tingkatan" json:"level"`
	CardID string `db:"kartu_id" json:"card_id"`
}

// StudentFilter narrows registry listings.
type StudentFilter struct {
	Search string
	Class  string
	Level  *int
}
