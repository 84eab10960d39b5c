package models

import "strings"

// Scope selects the grouping dimension for visit statistics.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeClass  Scope = "class"
	ScopeLevel  Scope = "level"
)

// ParseScope accepts the canonical names plus the legacy kelas/tingkatan aliases.
// An empty value defaults to global.
func ParseScope(raw string) (Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "global":
		return ScopeGlobal, true
	case "class", "kelas":
		return ScopeClass, true
	case "level", "tingkatan":
		return ScopeLevel, true
	default:
		return "", false
	}
}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeGlobal, ScopeClass, ScopeLevel:
		return true
	default:
		return false
	}
}

// VisitAggregate is the per-group visit total produced by the ledger/registry join.
// Class is set for ScopeClass rows and Level for ScopeLevel rows; both are nil for ScopeGlobal.
type VisitAggregate struct {
	Class         *string `db:"kelas"`
	Level         *int    `db:"tingkatan"`
	TotalStudents int     `db:"total_students"`
	TotalVisits   int     `db:"total_visits"`
}

// ScopeStatistic reports the average visit count of one group.
type ScopeStatistic struct {
	Class         *string `json:"class,omitempty"`
	Level         *int    `json:"level,omitempty"`
	TotalStudents int     `json:"total_students"`
	TotalVisits   int     `json:"total_visits"`
	AverageVisits float64 `json:"average_visits"`
}

// WindowSummary describes the resolved window a statistic was computed over.
type WindowSummary struct {
	Kind         WindowKind `json:"kind"`
	Period       string     `json:"period"`
	From         string     `json:"from,omitempty"`
	To           string     `json:"to,omitempty"`
	DaysInWindow *int       `json:"days_in_window,omitempty"`
}

// StatisticsResult is the aggregator output for one scope and window.
type StatisticsResult struct {
	Scope  Scope            `json:"scope"`
	Window WindowSummary    `json:"window"`
	Groups []ScopeStatistic `json:"groups"`
}

// VisitFilter narrows the statistics queries to a date range and optionally one group.
type VisitFilter struct {
	Range DateRange
	Class *string
	Level *int
}

// RankedVisitor is a student's position in a visit ranking.
type RankedVisitor struct {
	Rank       int     `db:"rank" json:"rank"`
	StudentID  int64   `db:"id" json:"student_id"`
	Name       string  `db:"nama" json:"name"`
	Class      string  `db:"kelas" json:"class"`
	Level      int     `db:"tingkatan" json:"level"`
	VisitCount int     `db:"visit_count" json:"visit_count"`
	LastVisit  *string `db:"last_visit" json:"last_visit,omitempty"`
}

// StatisticsOverview bundles the reports shown on the statistics page.
type StatisticsOverview struct {
	Statistics  *StatisticsResult `json:"statistics"`
	TopVisitors []RankedVisitor   `json:"top_visitors"`
	Recent      []RecentVisit     `json:"recent_visits"`
}
