package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/absensi-api/internal/models"
)

// StatisticsRepository runs the read-only visit aggregations over the ledger and registry.
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository constructs the repository.
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// Aggregate returns student and visit totals per scope group. Global scope yields exactly one row.
func (r *StatisticsRepository) Aggregate(ctx context.Context, scope models.Scope, filter models.VisitFilter) ([]models.VisitAggregate, error) {
	column, err := scopeColumn(scope)
	if err != nil {
		return nil, err
	}
	pred := buildVisitPredicate(filter)

	selectGroup := "NULL::varchar AS kelas, NULL::int AS tingkatan"
	tail := ""
	switch column {
	case "kelas":
		selectGroup = "kelas, NULL::int AS tingkatan"
		tail = " GROUP BY kelas ORDER BY kelas"
	case "tingkatan":
		selectGroup = "NULL::varchar AS kelas, tingkatan"
		tail = " GROUP BY tingkatan ORDER BY tingkatan"
	}

	query := fmt.Sprintf(`WITH per_student AS (
    SELECT a.id, a.kelas, a.tingkatan, COUNT(v.id) AS visits
    FROM anak a
    LEFT JOIN absensi v ON %s
    WHERE %s
    GROUP BY a.id, a.kelas, a.tingkatan
)
SELECT %s, COUNT(*) AS total_students, COALESCE(SUM(visits), 0)::bigint AS total_visits
FROM per_student%s`, pred.join, pred.where, selectGroup, tail)

	rows := make([]models.VisitAggregate, 0)
	if err := r.db.SelectContext(ctx, &rows, query, pred.args...); err != nil {
		return nil, fmt.Errorf("aggregate visits: %w", err)
	}
	return rows, nil
}

// TopVisitors ranks students by visit count, restarting the ranking inside each scope group.
// Ties break by ascending student id.
func (r *StatisticsRepository) TopVisitors(ctx context.Context, scope models.Scope, filter models.VisitFilter, limit int) ([]models.RankedVisitor, error) {
	column, err := scopeColumn(scope)
	if err != nil {
		return nil, err
	}
	pred := buildVisitPredicate(filter)

	partition := ""
	order := "rank"
	if column != "" {
		partition = "PARTITION BY " + column + " "
		order = column + ", rank"
	}

	args := append(pred.args, limit)
	query := fmt.Sprintf(`WITH counts AS (
    SELECT a.id, a.nama, a.kelas, a.tingkatan, COUNT(v.id) AS visit_count, MAX(v.tanggal) AS last_visit
    FROM anak a
    LEFT JOIN absensi v ON %s
    WHERE %s
    GROUP BY a.id, a.nama, a.kelas, a.tingkatan
), ranked AS (
    SELECT counts.*, ROW_NUMBER() OVER (%sORDER BY visit_count DESC, id ASC) AS rank
    FROM counts
)
SELECT rank, id, nama, kelas, tingkatan, visit_count, last_visit
FROM ranked
WHERE rank <= $%d
ORDER BY %s`, pred.join, pred.where, partition, len(args), order)

	visitors := make([]models.RankedVisitor, 0)
	if err := r.db.SelectContext(ctx, &visitors, query, args...); err != nil {
		return nil, fmt.Errorf("top visitors: %w", err)
	}
	return visitors, nil
}
