package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/absensi-api/internal/models"
)

func juneFilter(t *testing.T) models.VisitFilter {
	rng, err := models.MonthOf(2024, time.June).Resolve(time.Now())
	require.NoError(t, err)
	return models.VisitFilter{Range: rng}
}

func TestStatisticsRepositoryAggregateGlobal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN absensi v ON v.anak_id = a.id AND v.tanggal >= $1 AND v.tanggal <= $2")).
		WithArgs("2024-06-01", "2024-06-30").
		WillReturnRows(sqlmock.NewRows([]string{"kelas", "tingkatan", "total_students", "total_visits"}).
			AddRow(nil, nil, 2, 3))

	rows, err := repo.Aggregate(context.Background(), models.ScopeGlobal, juneFilter(t))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Class)
	assert.Equal(t, 2, rows[0].TotalStudents)
	assert.Equal(t, 3, rows[0].TotalVisits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepositoryAggregateByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT kelas, NULL::int AS tingkatan, COUNT(*) AS total_students")).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"kelas", "tingkatan", "total_students", "total_visits"}).
			AddRow("1A", nil, 1, 2).
			AddRow("1B", nil, 1, 1))

	rows, err := repo.Aggregate(context.Background(), models.ScopeClass, models.VisitFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Class)
	assert.Equal(t, "1A", *rows[0].Class)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepositoryAggregateRejectsUnknownScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	_, err := repo.Aggregate(context.Background(), models.Scope("school"), models.VisitFilter{})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepositoryTopVisitorsPerLevel(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	level := 1
	filter := juneFilter(t)
	filter.Level = &level

	mock.ExpectQuery(regexp.QuoteMeta("ROW_NUMBER() OVER (PARTITION BY tingkatan ORDER BY visit_count DESC, id ASC)")).
		WithArgs("2024-06-01", "2024-06-30", 1, 5).
		WillReturnRows(sqlmock.NewRows([]string{"rank", "id", "nama", "kelas", "tingkatan", "visit_count", "last_visit"}).
			AddRow(1, 1, "Ani", "1A", 1, 2, "2024-06-02").
			AddRow(2, 2, "Budi", "1B", 1, 0, nil))

	visitors, err := repo.TopVisitors(context.Background(), models.ScopeLevel, filter, 5)
	require.NoError(t, err)
	require.Len(t, visitors, 2)
	assert.Equal(t, 1, visitors[0].Rank)
	require.NotNil(t, visitors[0].LastVisit)
	assert.Nil(t, visitors[1].LastVisit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatisticsRepositoryTopVisitorsGlobalOrdering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStatisticsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ROW_NUMBER() OVER (ORDER BY visit_count DESC, id ASC) AS rank")).
		WithArgs(1).
		WillReturnError(errors.New("boom"))

	_, err := repo.TopVisitors(context.Background(), models.ScopeGlobal, models.VisitFilter{}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top visitors")
	assert.NoError(t, mock.ExpectationsWereMet())
}
