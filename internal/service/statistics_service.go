package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/absensi-api/internal/models"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

const (
	statsCachePrefix = "stats:"
	// statsGenerationKey sits outside statsCachePrefix so pattern deletes keep it.
	statsGenerationKey = "generation:stats"
)

type statisticsRepository interface {
	Aggregate(ctx context.Context, scope models.Scope, filter models.VisitFilter) ([]models.VisitAggregate, error)
	TopVisitors(ctx context.Context, scope models.Scope, filter models.VisitFilter, limit int) ([]models.RankedVisitor, error)
}

type recentVisitSource interface {
	Recent(ctx context.Context, limit int) ([]models.RecentVisit, error)
}

// VisitorGroup optionally restricts a ranking to one class or grade level.
type VisitorGroup struct {
	Class *string
	Level *int
}

// StatisticsServiceConfig tunes ranking limits and the clock used for relative windows.
type StatisticsServiceConfig struct {
	Location     *time.Location
	DefaultLimit int
	MaxLimit     int
	RecentLimit  int
	CacheTTL     time.Duration
}

// StatisticsService aggregates visit counts per scope and window.
type StatisticsService struct {
	repo    statisticsRepository
	recent  recentVisitSource
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     StatisticsServiceConfig
	now     func() time.Time
}

// NewStatisticsService constructs the aggregator.
func NewStatisticsService(repo statisticsRepository, recent recentVisitSource, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg StatisticsServiceConfig) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 5
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = 50
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	return &StatisticsService{
		repo:    repo,
		recent:  recent,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Compute returns the average visit count per scope group over window, optionally
// restricted to one class or level. The boolean reports whether the result came from cache.
func (s *StatisticsService) Compute(ctx context.Context, scope models.Scope, window models.Window, group VisitorGroup) (*models.StatisticsResult, bool, error) {
	if !scope.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "scope must be one of global, class, level")
	}
	rng, err := s.resolve(window)
	if err != nil {
		return nil, false, err
	}

	gen, cacheable := s.cache.Generation(ctx, statsGenerationKey)
	key := statsKey(gen, "summary", scope, window, rng, groupKey(group))
	var cached models.StatisticsResult
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	rows, err := s.repo.Aggregate(ctx, scope, models.VisitFilter{Range: rng, Class: group.Class, Level: group.Level})
	s.metrics.ObserveDBQuery("statistics_aggregate", time.Since(start))
	if err != nil {
		s.logFault("statistics_compute", scope, window, rng, err)
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}

	groups := make([]models.ScopeStatistic, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, models.ScopeStatistic{
			Class:         row.Class,
			Level:         row.Level,
			TotalStudents: row.TotalStudents,
			TotalVisits:   row.TotalVisits,
			AverageVisits: averageVisits(row.TotalVisits, row.TotalStudents),
		})
	}
	if scope == models.ScopeGlobal && len(groups) == 0 {
		groups = append(groups, models.ScopeStatistic{})
	}

	result := &models.StatisticsResult{
		Scope:  scope,
		Window: window.Summary(rng),
		Groups: groups,
	}
	if cacheable {
		s.cache.Set(ctx, key, result, s.cfg.CacheTTL)
	}
	return result, false, nil
}

// TopVisitors ranks students by visits in window. Rankings restart inside every
// class or level group; ties break by ascending student id.
func (s *StatisticsService) TopVisitors(ctx context.Context, scope models.Scope, window models.Window, limit int, group VisitorGroup) ([]models.RankedVisitor, bool, error) {
	if !scope.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "scope must be one of global, class, level")
	}
	limit, err := s.clampLimit(limit)
	if err != nil {
		return nil, false, err
	}
	rng, err := s.resolve(window)
	if err != nil {
		return nil, false, err
	}

	gen, cacheable := s.cache.Generation(ctx, statsGenerationKey)
	key := statsKey(gen, "top", scope, window, rng, strconv.Itoa(limit), groupKey(group))
	var cached []models.RankedVisitor
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	start := time.Now()
	visitors, err := s.repo.TopVisitors(ctx, scope, models.VisitFilter{Range: rng, Class: group.Class, Level: group.Level}, limit)
	s.metrics.ObserveDBQuery("statistics_top_visitors", time.Since(start))
	if err != nil {
		s.logFault("statistics_top_visitors", scope, window, rng, err)
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rank visitors")
	}

	ranked := rankVisitors(scope, visitors, limit)
	if cacheable {
		s.cache.Set(ctx, key, ranked, s.cfg.CacheTTL)
	}
	return ranked, false, nil
}

// Overview loads the statistics page reports concurrently. The first failure cancels the rest.
func (s *StatisticsService) Overview(ctx context.Context, scope models.Scope, window models.Window, limit int) (*models.StatisticsOverview, error) {
	overview := &models.StatisticsOverview{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, _, err := s.Compute(gctx, scope, window, VisitorGroup{})
		if err != nil {
			return err
		}
		overview.Statistics = result
		return nil
	})
	g.Go(func() error {
		visitors, _, err := s.TopVisitors(gctx, scope, window, limit, VisitorGroup{})
		if err != nil {
			return err
		}
		overview.TopVisitors = visitors
		return nil
	})
	g.Go(func() error {
		visits, err := s.recent.Recent(gctx, s.cfg.RecentLimit)
		if err != nil {
			s.logger.Error("overview recent visits", zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent visits")
		}
		overview.Recent = visits
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

func (s *StatisticsService) resolve(window models.Window) (models.DateRange, error) {
	rng, err := window.Resolve(s.now().In(s.cfg.Location))
	if err != nil {
		if errors.Is(err, models.ErrWindowInverted) {
			return models.DateRange{}, appErrors.Clone(appErrors.ErrValidation, "window end precedes its start")
		}
		return models.DateRange{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window")
	}
	return rng, nil
}

func (s *StatisticsService) clampLimit(limit int) (int, error) {
	switch {
	case limit < 0:
		return 0, appErrors.Clone(appErrors.ErrValidation, "limit must be positive")
	case limit == 0:
		return s.cfg.DefaultLimit, nil
	case limit > s.cfg.MaxLimit:
		return s.cfg.MaxLimit, nil
	default:
		return limit, nil
	}
}

func (s *StatisticsService) logFault(operation string, scope models.Scope, window models.Window, rng models.DateRange, err error) {
	s.logger.Error("statistics query failed",
		zap.String("operation", operation),
		zap.String("scope", string(scope)),
		zap.String("window", window.Label(rng)),
		zap.Error(err),
	)
}

func averageVisits(visits, students int) float64 {
	if students <= 0 {
		return 0
	}
	return math.Round(float64(visits)/float64(students)*100) / 100
}

// rankVisitors orders by group, descending visits and ascending id, then
// renumbers ranks per group and keeps at most limit entries in each.
func rankVisitors(scope models.Scope, visitors []models.RankedVisitor, limit int) []models.RankedVisitor {
	sameGroup := func(a, b models.RankedVisitor) bool {
		switch scope {
		case models.ScopeClass:
			return a.Class == b.Class
		case models.ScopeLevel:
			return a.Level == b.Level
		default:
			return true
		}
	}
	sort.SliceStable(visitors, func(i, j int) bool {
		a, b := visitors[i], visitors[j]
		if !sameGroup(a, b) {
			if scope == models.ScopeClass {
				return a.Class < b.Class
			}
			return a.Level < b.Level
		}
		if a.VisitCount != b.VisitCount {
			return a.VisitCount > b.VisitCount
		}
		return a.StudentID < b.StudentID
	})

	ranked := make([]models.RankedVisitor, 0, len(visitors))
	rank := 0
	for i, v := range visitors {
		if i == 0 || !sameGroup(visitors[i-1], v) {
			rank = 0
		}
		rank++
		if rank > limit {
			continue
		}
		v.Rank = rank
		ranked = append(ranked, v)
	}
	return ranked
}

// statsKey renders stats:{generation}:{kind}:{scope}:{window}:{from}:{to}[:extra...].
func statsKey(gen int64, kind string, scope models.Scope, window models.Window, rng models.DateRange, extra ...string) string {
	key := fmt.Sprintf("%s%d:%s:%s:%s:%s:%s", statsCachePrefix, gen, kind, scope, window.Kind(), orDash(rng.FromString()), orDash(rng.ToString()))
	for _, part := range extra {
		key += ":" + orDash(part)
	}
	return key
}

func groupKey(group VisitorGroup) string {
	switch {
	case group.Class != nil && group.Level != nil:
		return "class=" + *group.Class + ",level=" + strconv.Itoa(*group.Level)
	case group.Class != nil:
		return "class=" + *group.Class
	case group.Level != nil:
		return "level=" + strconv.Itoa(*group.Level)
	default:
		return ""
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
