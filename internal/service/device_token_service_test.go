package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
)

func TestDeviceTokenServiceRoundTrip(t *testing.T) {
	svc := NewDeviceTokenService(DeviceTokenConfig{Secret: "secret", Issuer: "absensi-api", TTL: time.Hour})

	token, exp, err := svc.Issue("scanner-lib-1")
	require.NoError(t, err)
	require.NotNil(t, exp)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "scanner-lib-1", claims.DeviceID)
}

func TestDeviceTokenServiceRejects(t *testing.T) {
	issued := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	svc := NewDeviceTokenService(DeviceTokenConfig{Secret: "secret", Issuer: "absensi-api", TTL: time.Hour})
	svc.now = func() time.Time { return issued }
	token, _, err := svc.Issue("scanner-lib-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewDeviceTokenService(DeviceTokenConfig{Secret: "other", Issuer: "absensi-api"})
	other.now = func() time.Time { return issued }
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := NewDeviceTokenService(DeviceTokenConfig{Secret: "secret", Issuer: "someone-else"})
	foreign.now = func() time.Time { return issued }
	_, err = foreign.Validate(token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, _, err = svc.Issue(" ")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
