package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/absensi-api/internal/models"
	"github.com/noah-isme/absensi-api/internal/service"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

type fakeStudentSrv struct {
	students []models.Student
	err      error
	filter   models.StudentFilter
}

func (f *fakeStudentSrv) List(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	f.filter = filter
	return f.students, f.err
}

func (f *fakeStudentSrv) FindByCard(_ context.Context, cardID string) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].CardID == cardID {
			return &f.students[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "card not registered")
}

type fakeCheckinSrv struct {
	result    *service.CheckinResult
	err       error
	submitted []int64
	card      string
	limit     int
}

func (f *fakeCheckinSrv) SubmitNow(_ context.Context, ids []int64) (*service.CheckinResult, error) {
	f.submitted = ids
	return f.result, f.err
}

func (f *fakeCheckinSrv) CheckinByCard(_ context.Context, cardID string) (*service.CheckinResult, error) {
	f.card = cardID
	return f.result, f.err
}

func (f *fakeCheckinSrv) Recent(_ context.Context, limit int) ([]models.RecentVisit, error) {
	f.limit = limit
	return []models.RecentVisit{{StudentID: 1, Name: "Ani"}}, f.err
}

type fakeStatisticsSrv struct {
	result   *models.StatisticsResult
	visitors []models.RankedVisitor
	hit      bool
	err      error

	scope  models.Scope
	window models.Window
	limit  int
	group  service.VisitorGroup
}

func (f *fakeStatisticsSrv) Compute(_ context.Context, scope models.Scope, window models.Window, group service.VisitorGroup) (*models.StatisticsResult, bool, error) {
	f.scope, f.window, f.group = scope, window, group
	return f.result, f.hit, f.err
}

func (f *fakeStatisticsSrv) TopVisitors(_ context.Context, scope models.Scope, window models.Window, limit int, group service.VisitorGroup) ([]models.RankedVisitor, bool, error) {
	f.scope, f.window, f.limit, f.group = scope, window, limit, group
	return f.visitors, f.hit, f.err
}

func (f *fakeStatisticsSrv) Overview(_ context.Context, scope models.Scope, window models.Window, limit int) (*models.StatisticsOverview, error) {
	f.scope, f.window, f.limit = scope, window, limit
	if f.err != nil {
		return nil, f.err
	}
	return &models.StatisticsOverview{Statistics: f.result, TopVisitors: f.visitors}, nil
}

func TestStudentHandlerListAcceptsLegacyFilters(t *testing.T) {
	srv := &fakeStudentSrv{students: []models.Student{{ID: 1, Name: "Ani", Class: "1A", Level: 1}}}
	h := NewStudentHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/students?kelas=1A&tingkatan=1&search=an", "")

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1A", srv.filter.Class)
	require.NotNil(t, srv.filter.Level)
	assert.Equal(t, 1, *srv.filter.Level)
	assert.Equal(t, "an", srv.filter.Search)
	assert.Equal(t, float64(1), decodeEnvelope(t, rec).Meta["total"])
}

func TestStudentHandlerListStorageFault(t *testing.T) {
	h := NewStudentHandler(&fakeStudentSrv{err: appErrors.Wrap(errors.New("pq: connection refused"), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")})
	c, rec := newTestContext(http.MethodGet, "/students", "")

	h.List(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestAttendanceHandlerSubmit(t *testing.T) {
	srv := &fakeCheckinSrv{result: &service.CheckinResult{
		Date:     "2024-06-01",
		Inserted: []models.AttendanceRecord{{ID: 1, StudentID: 2, Date: "2024-06-01", Time: "07:00"}},
		Skipped:  []int64{1},
	}}
	h := NewAttendanceHandler(srv, nil)
	c, rec := newTestContext(http.MethodPost, "/attendance", `[{"studentId":2},{"id":1}]`)

	h.Submit(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []int64{2, 1}, srv.submitted)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{float64(1)}, envelope.Meta["skipped"])
	var inserted []models.AttendanceRecord
	require.NoError(t, json.Unmarshal(envelope.Data, &inserted))
	assert.Len(t, inserted, 1)
}

func TestAttendanceHandlerSubmitAllAlreadyRecorded(t *testing.T) {
	srv := &fakeCheckinSrv{result: &service.CheckinResult{Date: "2024-06-01", Inserted: []models.AttendanceRecord{}, Skipped: []int64{1}, AllAlreadyRecorded: true}}
	h := NewAttendanceHandler(srv, nil)
	c, rec := newTestContext(http.MethodPost, "/attendance", `[{"studentId":1}]`)

	h.Submit(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ALREADY_CHECKED_IN", envelope.Error.Code)
}

func TestAttendanceHandlerSubmitRejectsBadPayload(t *testing.T) {
	srv := &fakeCheckinSrv{}
	h := NewAttendanceHandler(srv, nil)
	c, rec := newTestContext(http.MethodPost, "/attendance", `{"studentId":"abc"}`)

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, srv.submitted)
}

func TestAttendanceHandlerScan(t *testing.T) {
	student := &models.Student{ID: 3, Name: "Citra", CardID: "CARD-3"}
	srv := &fakeCheckinSrv{result: &service.CheckinResult{Student: student, Date: "2024-06-01", Inserted: []models.AttendanceRecord{{ID: 9, StudentID: 3}}, Skipped: []int64{}}}
	h := NewAttendanceHandler(srv, nil)

	c, rec := newTestContext(http.MethodPost, "/attendance/scan", `{"cardId":"CARD-3"}`)
	h.Scan(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "CARD-3", srv.card)
	assert.Contains(t, decodeEnvelope(t, rec).Meta, "student")

	c, rec = newTestContext(http.MethodPost, "/attendance/scan", `{"cardId":""}`)
	h.Scan(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceHandlerRecentValidatesLimit(t *testing.T) {
	srv := &fakeCheckinSrv{}
	h := NewAttendanceHandler(srv, nil)

	c, rec := newTestContext(http.MethodGet, "/attendance/recent?limit=5", "")
	h.Recent(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, srv.limit)

	c, rec = newTestContext(http.MethodGet, "/attendance/recent?limit=500", "")
	h.Recent(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func globalResult() *models.StatisticsResult {
	days := 30
	return &models.StatisticsResult{
		Scope:  models.ScopeGlobal,
		Window: models.WindowSummary{Kind: models.WindowMonth, Period: "Bulan 2024-06", From: "2024-06-01", To: "2024-06-30", DaysInWindow: &days},
		Groups: []models.ScopeStatistic{{TotalStudents: 2, TotalVisits: 3, AverageVisits: 1.5}},
	}
}

func TestStatisticsHandlerGlobalReturnsObject(t *testing.T) {
	srv := &fakeStatisticsSrv{result: globalResult(), hit: true}
	h := NewStatisticsHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/statistics?scope=global&bulan=2024-06&tahun=2023", "")

	h.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.WindowMonth, srv.window.Kind())
	envelope := decodeEnvelope(t, rec)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, 1.5, data["average_visits"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Equal(t, "Bulan 2024-06", envelope.Meta["periode"])
	assert.Equal(t, float64(30), envelope.Meta["days_in_window"])
}

func TestStatisticsHandlerGroupedReturnsArray(t *testing.T) {
	class1, class2 := "1A", "1B"
	srv := &fakeStatisticsSrv{result: &models.StatisticsResult{
		Scope:  models.ScopeClass,
		Window: models.WindowSummary{Kind: models.WindowAllTime, Period: "Semua Waktu"},
		Groups: []models.ScopeStatistic{{Class: &class1, TotalStudents: 1, AverageVisits: 2}, {Class: &class2, TotalStudents: 1, AverageVisits: 1}},
	}}
	h := NewStatisticsHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/statistics?scope=kelas", "")

	h.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ScopeClass, srv.scope)
	var groups []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &groups))
	assert.Len(t, groups, 2)
}

func TestStatisticsHandlerPassesGroupFilter(t *testing.T) {
	class := "4A"
	srv := &fakeStatisticsSrv{result: &models.StatisticsResult{
		Scope:  models.ScopeClass,
		Window: models.WindowSummary{Kind: models.WindowAllTime, Period: "Semua Waktu"},
		Groups: []models.ScopeStatistic{{Class: &class, TotalStudents: 2, TotalVisits: 3, AverageVisits: 1.5}},
	}}
	h := NewStatisticsHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/statistics?scope=kelas&kelas=4A&tingkatan=4", "")

	h.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.group.Class)
	assert.Equal(t, "4A", *srv.group.Class)
	require.NotNil(t, srv.group.Level)
	assert.Equal(t, 4, *srv.group.Level)
	var groups []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, "4A", groups[0]["class"])
}

func TestStatisticsHandlerRejectsBadQuery(t *testing.T) {
	h := NewStatisticsHandler(&fakeStatisticsSrv{result: globalResult()})

	for _, target := range []string{
		"/statistics?scope=school",
		"/statistics?startDate=2024-02-01&endDate=2024-01-01",
		"/statistics?bulan=June",
		"/statistics/top-visitors?limit=0",
		"/statistics/top-visitors?level=first",
	} {
		c, rec := newTestContext(http.MethodGet, target, "")
		if strings.HasPrefix(target, "/statistics/top-visitors") {
			h.TopVisitors(c)
		} else {
			h.Get(c)
		}
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestStatisticsHandlerTopVisitors(t *testing.T) {
	srv := &fakeStatisticsSrv{visitors: []models.RankedVisitor{{Rank: 1, StudentID: 1, VisitCount: 2}}}
	h := NewStatisticsHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/statistics/top-visitors?scope=level&tingkatan=2&limit=3&tahun=2024", "")

	h.TopVisitors(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ScopeLevel, srv.scope)
	assert.Equal(t, 3, srv.limit)
	require.NotNil(t, srv.group.Level)
	assert.Equal(t, 2, *srv.group.Level)
	assert.Equal(t, models.WindowYear, srv.window.Kind())
}

func TestStatisticsHandlerOverview(t *testing.T) {
	srv := &fakeStatisticsSrv{result: globalResult()}
	h := NewStatisticsHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/statistics/overview?period=month", "")

	h.Overview(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.WindowCurrentMonth, srv.window.Kind())

	srv.err = appErrors.Clone(appErrors.ErrInternal, "failed to rank visitors")
	c, rec = newTestContext(http.MethodGet, "/statistics/overview", "")
	h.Overview(c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthHandlerReady(t *testing.T) {
	h := NewHealthHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	c, rec := newTestContext(http.MethodGet, "/ready", "")

	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, map[string]interface{}{"database": "ok", "cache": "unavailable"}, body["checks"])
}
