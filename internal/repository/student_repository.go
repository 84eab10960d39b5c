package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/absensi-api/internal/models"
)

const studentColumns = "a.id, a.nama, a.kelas, a.tingkatan, a.kartu_id"

// likeEscaper makes user input match literally under LIKE's default backslash escape.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// StudentRepository reads the student registry (legacy table anak).
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters ordered by class then name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Class != "" {
		where = append(where, fmt.Sprintf("a.kelas = $%d", len(args)+1))
		args = append(args, filter.Class)
	}
	if filter.Level != nil {
		where = append(where, fmt.Sprintf("a.tingkatan = $%d", len(args)+1))
		args = append(args, *filter.Level)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		where = append(where, fmt.Sprintf("(LOWER(a.nama) LIKE $%d OR LOWER(a.kelas) LIKE $%d OR LOWER(a.kartu_id) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(filter.Search))+"%")
	}

	query := fmt.Sprintf("SELECT %s FROM anak a WHERE %s ORDER BY a.kelas, a.nama, a.id", studentColumns, strings.Join(where, " AND "))

	students := make([]models.Student, 0)
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByCardID fetches a student by scanner card id. Returns sql.ErrNoRows when absent.
func (r *StudentRepository) FindByCardID(ctx context.Context, cardID string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM anak a WHERE a.kartu_id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, cardID); err != nil {
		return nil, err
	}
	return &student, nil
}
