package repository

import (
	"fmt"
	"strings"

	"github.com/noah-isme/absensi-api/internal/models"
)

// visitPredicate is the SQL rendering of a models.VisitFilter. The window
// condition belongs to the outer join so students without visits stay counted.
type visitPredicate struct {
	join  string
	where string
	args  []interface{}
}

func buildVisitPredicate(filter models.VisitFilter) visitPredicate {
	join := []string{"v.anak_id = a.id"}
	where := []string{"1=1"}
	args := []interface{}{}

	if from := filter.Range.FromString(); from != "" {
		join = append(join, fmt.Sprintf("v.tanggal >= $%d", len(args)+1))
		args = append(args, from)
	}
	if to := filter.Range.ToString(); to != "" {
		join = append(join, fmt.Sprintf("v.tanggal <= $%d", len(args)+1))
		args = append(args, to)
	}
	if filter.Class != nil {
		where = append(where, fmt.Sprintf("a.kelas = $%d", len(args)+1))
		args = append(args, *filter.Class)
	}
	if filter.Level != nil {
		where = append(where, fmt.Sprintf("a.tingkatan = $%d", len(args)+1))
		args = append(args, *filter.Level)
	}

	return visitPredicate{
		join:  strings.Join(join, " AND "),
		where: strings.Join(where, " AND "),
		args:  args,
	}
}

// scopeColumn maps a scope to its grouping column, or "" for global.
func scopeColumn(scope models.Scope) (string, error) {
	switch scope {
	case models.ScopeGlobal:
		return "", nil
	case models.ScopeClass:
		return "kelas", nil
	case models.ScopeLevel:
		return "tingkatan", nil
	default:
		return "", fmt.Errorf("unsupported scope %q", scope)
	}
}
