package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/absensi-api/internal/dto"
	"github.com/noah-isme/absensi-api/internal/models"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

const monthLayout = "2006-01"

// ParseWindow picks exactly one window from the raw selectors. Priority:
// month, year, start+end, open-ended start or end, relative period, all time.
func ParseWindow(params dto.WindowParams) (models.Window, error) {
	month := strings.TrimSpace(params.Month)
	year := strings.TrimSpace(params.Year)
	start := strings.TrimSpace(params.StartDate)
	end := strings.TrimSpace(params.EndDate)

	switch {
	case month != "" && len(month) <= 2:
		return legacyMonth(month, year)
	case month != "":
		t, err := time.Parse(monthLayout, month)
		if err != nil {
			return models.Window{}, appErrors.Clone(appErrors.ErrValidation, "bulan must be formatted as YYYY-MM")
		}
		return models.MonthOf(t.Year(), t.Month()), nil
	case year != "":
		y, err := parseYear(year)
		if err != nil {
			return models.Window{}, err
		}
		return models.YearOf(y), nil
	case start != "" || end != "":
		from, err := parseDay(start, "startDate")
		if err != nil {
			return models.Window{}, err
		}
		to, err := parseDay(end, "endDate")
		if err != nil {
			return models.Window{}, err
		}
		if !from.IsZero() && !to.IsZero() && to.Before(from) {
			return models.Window{}, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
		}
		return models.Between(from, to), nil
	}

	switch strings.ToLower(strings.TrimSpace(params.Period)) {
	case "", "all":
		return models.AllTime(), nil
	case "month":
		return models.CurrentMonth(), nil
	case "year":
		return models.CurrentYear(), nil
	default:
		return models.Window{}, appErrors.Clone(appErrors.ErrValidation, "period must be one of month, year, all")
	}
}

// legacyMonth accepts the old bulan=3&tahun=2025 form.
func legacyMonth(month, year string) (models.Window, error) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return models.Window{}, appErrors.Clone(appErrors.ErrValidation, "bulan must be formatted as YYYY-MM")
	}
	if year == "" {
		return models.Window{}, appErrors.Clone(appErrors.ErrValidation, "bulan as a month number requires tahun")
	}
	y, err := parseYear(year)
	if err != nil {
		return models.Window{}, err
	}
	return models.MonthOf(y, time.Month(m)), nil
}

func parseYear(raw string) (int, error) {
	y, err := strconv.Atoi(raw)
	if err != nil || len(raw) != 4 || y < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "tahun must be formatted as YYYY")
	}
	return y, nil
}

func parseDay(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, field+" must be formatted as YYYY-MM-DD")
	}
	return t, nil
}
