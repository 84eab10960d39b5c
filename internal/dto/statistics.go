package dto

// WindowParams are the raw window selectors accepted by the statistics endpoints.
type WindowParams struct {
	Month     string `form:"bulan"`
	Year      string `form:"tahun"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Period    string `form:"period"`
}

// StatisticsQuery is the query string of GET /statistics and its siblings.
// The class and level group filters are read separately because they have legacy aliases.
type StatisticsQuery struct {
	WindowParams
	Scope string `form:"scope"`
	Limit string `form:"limit"`
}
