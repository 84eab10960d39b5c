package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/absensi-api/internal/models"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
	"github.com/noah-isme/absensi-api/pkg/response"
)

// ContextDeviceKey stores the authenticated device claims.
const ContextDeviceKey = "device"

type deviceTokenValidator interface {
	Validate(token string) (*models.DeviceClaims, error)
}

// DeviceAuth requires a scanner device bearer token.
func DeviceAuth(validator deviceTokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			return
		}

		claims, err := validator.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextDeviceKey, claims)
		c.Next()
	}
}

// DeviceFromContext returns the device claims attached by DeviceAuth.
func DeviceFromContext(c *gin.Context) (*models.DeviceClaims, bool) {
	value, ok := c.Get(ContextDeviceKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*models.DeviceClaims)
	return claims, ok
}
