package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

// firstQuery returns the first non-empty query value among keys, so legacy names keep working.
func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}

func optionalInt(raw, field string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, field+" must be an integer")
	}
	return &value, nil
}

// positiveLimit parses an optional limit; absent yields 0 so the service applies its default.
func positiveLimit(raw string) (int, error) {
	value, err := optionalInt(raw, "limit")
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, nil
	}
	if *value <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer")
	}
	return *value, nil
}
