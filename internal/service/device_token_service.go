package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/absensi-api/internal/models"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

// DeviceTokenConfig holds the signing settings for scanner device tokens.
type DeviceTokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// DeviceTokenService issues and validates HS256 tokens for check-in devices.
type DeviceTokenService struct {
	cfg DeviceTokenConfig
	now func() time.Time
}

// NewDeviceTokenService constructs the token service.
func NewDeviceTokenService(cfg DeviceTokenConfig) *DeviceTokenService {
	return &DeviceTokenService{cfg: cfg, now: time.Now}
}

// Issue signs a token for deviceID. A non-positive TTL issues a token without expiry.
func (s *DeviceTokenService) Issue(deviceID string) (string, *time.Time, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "device id is required")
	}
	if s.cfg.Secret == "" {
		return "", nil, appErrors.Clone(appErrors.ErrInternal, "device signing secret is not configured")
	}

	now := s.now()
	claims := models.DeviceClaims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   s.cfg.Issuer,
			Subject:  deviceID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var expiresAt *time.Time
	if s.cfg.TTL > 0 {
		exp := now.Add(s.cfg.TTL)
		expiresAt = &exp
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign device token")
	}
	return signed, expiresAt, nil
}

// Validate parses token and checks signature, expiry and issuer.
func (s *DeviceTokenService) Validate(token string) (*models.DeviceClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &models.DeviceClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid device token")
	}

	claims, ok := parsed.Claims.(*models.DeviceClaims)
	if !ok || !parsed.Valid || claims.DeviceID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid device token claims")
	}
	if s.cfg.Issuer != "" && claims.Issuer != s.cfg.Issuer {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "device token issuer mismatch")
	}
	return claims, nil
}
