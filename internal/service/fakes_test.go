package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/absensi-api/internal/models"
	"github.com/noah-isme/absensi-api/internal/repository"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

// memoryStore mimics the registry, ledger and statistics queries over slices.
type memoryStore struct {
	mu       sync.Mutex
	students []models.Student
	records  []models.AttendanceRecord
	nextID   int64

	recordErr    error
	aggregateErr error
	topErr       error
	recentErr    error

	aggregateCalls int
	topCalls       int
}

func newMemoryStore(students ...models.Student) *memoryStore {
	return &memoryStore{students: students}
}

func (m *memoryStore) Record(_ context.Context, batch repository.CheckinBatch) ([]models.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return nil, m.recordErr
	}

	var unknown []int64
	for _, id := range batch.StudentIDs {
		if m.student(id) == nil {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return nil, &repository.UnknownStudentsError{IDs: unknown}
	}

	inserted := make([]models.AttendanceRecord, 0)
	for _, id := range batch.StudentIDs {
		if m.hasRecord(id, batch.Date) {
			continue
		}
		m.nextID++
		created := batch.CreatedAt
		rec := models.AttendanceRecord{ID: m.nextID, StudentID: id, Date: batch.Date, Time: batch.Time, CreatedAt: &created}
		m.records = append(m.records, rec)
		inserted = append(inserted, rec)
	}
	return inserted, nil
}

func (m *memoryStore) Recent(_ context.Context, limit int) ([]models.RecentVisit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	records := append([]models.AttendanceRecord(nil), m.records...)
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].ID > records[j].ID
	})
	visits := make([]models.RecentVisit, 0, limit)
	for _, rec := range records {
		if len(visits) == limit {
			break
		}
		st := m.student(rec.StudentID)
		visits = append(visits, models.RecentVisit{StudentID: rec.StudentID, Name: st.Name, Class: st.Class, Date: rec.Date, Time: rec.Time})
	}
	return visits, nil
}

func (m *memoryStore) FindByCard(_ context.Context, cardID string) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.students {
		if m.students[i].CardID == cardID {
			st := m.students[i]
			return &st, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "card not registered")
}

func (m *memoryStore) Aggregate(_ context.Context, scope models.Scope, filter models.VisitFilter) ([]models.VisitAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aggregateCalls++
	if m.aggregateErr != nil {
		return nil, m.aggregateErr
	}

	type bucket struct {
		agg models.VisitAggregate
		key string
	}
	buckets := map[string]*bucket{}
	if scope == models.ScopeGlobal {
		buckets[""] = &bucket{}
	}
	for _, st := range m.students {
		if !matchesGroup(st, filter) {
			continue
		}
		key := ""
		switch scope {
		case models.ScopeClass:
			key = st.Class
		case models.ScopeLevel:
			key = strconv.Itoa(st.Level)
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			switch scope {
			case models.ScopeClass:
				class := st.Class
				b.agg.Class = &class
			case models.ScopeLevel:
				level := st.Level
				b.agg.Level = &level
			}
			buckets[key] = b
		}
		b.agg.TotalStudents++
		b.agg.TotalVisits += m.visits(st.ID, filter.Range)
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]models.VisitAggregate, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, buckets[k].agg)
	}
	return rows, nil
}

// TopVisitors returns every matching student unranked and in reverse id order
// so the service has to establish the ordering itself.
func (m *memoryStore) TopVisitors(_ context.Context, _ models.Scope, filter models.VisitFilter, _ int) ([]models.RankedVisitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topCalls++
	if m.topErr != nil {
		return nil, m.topErr
	}
	visitors := make([]models.RankedVisitor, 0, len(m.students))
	for i := len(m.students) - 1; i >= 0; i-- {
		st := m.students[i]
		if !matchesGroup(st, filter) {
			continue
		}
		visitors = append(visitors, models.RankedVisitor{
			StudentID:  st.ID,
			Name:       st.Name,
			Class:      st.Class,
			Level:      st.Level,
			VisitCount: m.visits(st.ID, filter.Range),
		})
	}
	return visitors, nil
}

func (m *memoryStore) ledgerSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memoryStore) student(id int64) *models.Student {
	for i := range m.students {
		if m.students[i].ID == id {
			return &m.students[i]
		}
	}
	return nil
}

func (m *memoryStore) hasRecord(id int64, date string) bool {
	for _, rec := range m.records {
		if rec.StudentID == id && rec.Date == date {
			return true
		}
	}
	return false
}

func (m *memoryStore) visits(id int64, rng models.DateRange) int {
	from, to := rng.FromString(), rng.ToString()
	count := 0
	for _, rec := range m.records {
		if rec.StudentID != id {
			continue
		}
		if from != "" && strings.Compare(rec.Date, from) < 0 {
			continue
		}
		if to != "" && strings.Compare(rec.Date, to) > 0 {
			continue
		}
		count++
	}
	return count
}

func matchesGroup(st models.Student, filter models.VisitFilter) bool {
	if filter.Class != nil && st.Class != *filter.Class {
		return false
	}
	if filter.Level != nil && st.Level != *filter.Level {
		return false
	}
	return true
}

type stubCacheRepo struct {
	mu       sync.Mutex
	store    map[string][]byte
	counters map[string]int64
	patterns []string
}

func (s *stubCacheRepo) Counter(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[key], nil
}

func (s *stubCacheRepo) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters == nil {
		s.counters = make(map[string]int64)
	}
	s.counters[key]++
	return s.counters[key], nil
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	deleted := 0
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
			deleted++
		}
	}
	return deleted, nil
}

// gatedAggregates snapshots the first aggregate, then holds it until release is
// closed, so a check-in can commit while the query result is still in flight.
type gatedAggregates struct {
	*memoryStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func newGatedAggregates(store *memoryStore) *gatedAggregates {
	return &gatedAggregates{memoryStore: store, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedAggregates) Aggregate(ctx context.Context, scope models.Scope, filter models.VisitFilter) ([]models.VisitAggregate, error) {
	rows, err := g.memoryStore.Aggregate(ctx, scope, filter)
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return rows, err
}

type fakeStudentRepo struct {
	students []models.Student
	err      error
	filter   models.StudentFilter
}

func (f *fakeStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.students, nil
}

func (f *fakeStudentRepo) FindByCardID(_ context.Context, cardID string) (*models.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.students {
		if f.students[i].CardID == cardID {
			return &f.students[i], nil
		}
	}
	return nil, sql.ErrNoRows
}
