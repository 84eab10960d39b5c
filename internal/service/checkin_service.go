package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/absensi-api/internal/models"
	"github.com/noah-isme/absensi-api/internal/repository"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
	statsCachePattern  = statsCachePrefix + "*"
)

type attendanceLedger interface {
	Record(ctx context.Context, batch repository.CheckinBatch) ([]models.AttendanceRecord, error)
	Recent(ctx context.Context, limit int) ([]models.RecentVisit, error)
}

type cardResolver interface {
	FindByCard(ctx context.Context, cardID string) (*models.Student, error)
}

// CheckinResult describes the outcome of one batch. AllAlreadyRecorded is an
// expected outcome and is never reported through the error return.
type CheckinResult struct {
	Student            *models.Student           `json:"student,omitempty"`
	Date               string                    `json:"date"`
	Inserted           []models.AttendanceRecord `json:"inserted"`
	Skipped            []int64                   `json:"skipped"`
	AllAlreadyRecorded bool                      `json:"all_already_recorded"`
}

// CheckinServiceConfig carries the clock settings of the check-in processor.
type CheckinServiceConfig struct {
	Location    *time.Location
	RecentLimit int
}

// CheckinService records visits in the ledger.
type CheckinService struct {
	ledger   attendanceLedger
	students cardResolver
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      CheckinServiceConfig
	now      func() time.Time
}

// NewCheckinService constructs the check-in processor.
func NewCheckinService(ledger attendanceLedger, students cardResolver, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg CheckinServiceConfig) *CheckinService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	return &CheckinService{
		ledger:   ledger,
		students: students,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Submit records a visit for every distinct id on the calendar day of asOf in the
// school timezone. Ids already recorded for that day are skipped.
func (s *CheckinService) Submit(ctx context.Context, studentIDs []int64, asOf time.Time) (*CheckinResult, error) {
	if len(studentIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one student id is required")
	}
	var invalid []int64
	for _, id := range studentIDs {
		if id <= 0 {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "student ids must be positive"), map[string]interface{}{"invalid_ids": invalid})
	}
	ids := uniqueIDs(studentIDs)
	// anak.id is int4; larger ids cannot be registered.
	var outOfRange []int64
	for _, id := range ids {
		if id > math.MaxInt32 {
			outOfRange = append(outOfRange, id)
		}
	}
	if len(outOfRange) > 0 {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown student ids"), map[string]interface{}{"unknown_ids": outOfRange})
	}

	local := asOf.In(s.cfg.Location)
	batch := repository.CheckinBatch{
		StudentIDs: ids,
		Date:       local.Format(models.DateLayout),
		Time:       local.Format(models.TimeLayout),
		CreatedAt:  asOf.UTC(),
	}

	start := time.Now()
	inserted, err := s.ledger.Record(ctx, batch)
	s.metrics.ObserveDBQuery("checkin_record", time.Since(start))
	if err != nil {
		var unknown *repository.UnknownStudentsError
		if errors.As(err, &unknown) {
			return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown student ids"), map[string]interface{}{"unknown_ids": unknown.IDs})
		}
		s.logger.Error("record checkins",
			zap.String("operation", "checkin_submit"),
			zap.String("date", batch.Date),
			zap.Int("batch_size", len(ids)),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	if inserted == nil {
		inserted = []models.AttendanceRecord{}
	}

	result := &CheckinResult{
		Date:               batch.Date,
		Inserted:           inserted,
		Skipped:            skippedIDs(ids, inserted),
		AllAlreadyRecorded: len(inserted) == 0,
	}

	s.metrics.ObserveCheckins(len(result.Inserted), len(result.Skipped))
	if !result.AllAlreadyRecorded {
		s.cache.Advance(ctx, statsGenerationKey)
		s.cache.Invalidate(ctx, statsCachePattern)
	}
	s.logger.Info("checkin batch processed",
		zap.String("date", batch.Date),
		zap.Int("submitted", len(studentIDs)),
		zap.Int("inserted", len(result.Inserted)),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}

// SubmitNow stamps the batch with the current time.
func (s *CheckinService) SubmitNow(ctx context.Context, studentIDs []int64) (*CheckinResult, error) {
	return s.Submit(ctx, studentIDs, s.now())
}

// CheckinByCard records a visit for the student owning cardID.
func (s *CheckinService) CheckinByCard(ctx context.Context, cardID string) (*CheckinResult, error) {
	student, err := s.students.FindByCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	result, err := s.SubmitNow(ctx, []int64{student.ID})
	if err != nil {
		return nil, err
	}
	result.Student = student
	return result, nil
}

// Recent lists the newest visits. A zero limit uses the configured default.
func (s *CheckinService) Recent(ctx context.Context, limit int) ([]models.RecentVisit, error) {
	switch {
	case limit < 0:
		return nil, appErrors.Clone(appErrors.ErrValidation, "limit must be positive")
	case limit == 0:
		limit = s.cfg.RecentLimit
	case limit > maxRecentLimit:
		limit = maxRecentLimit
	}
	visits, err := s.ledger.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("recent visits", zap.Int("limit", limit), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent visits")
	}
	return visits, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

func skippedIDs(ids []int64, inserted []models.AttendanceRecord) []int64 {
	recorded := make(map[int64]struct{}, len(inserted))
	for _, rec := range inserted {
		recorded[rec.StudentID] = struct{}{}
	}
	skipped := make([]int64, 0)
	for _, id := range ids {
		if _, ok := recorded[id]; !ok {
			skipped = append(skipped, id)
		}
	}
	return skipped
}
