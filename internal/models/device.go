package models

import "github.com/golang-jwt/jwt/v5"

// DeviceClaims identifies a registered scanner device.
type DeviceClaims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}
