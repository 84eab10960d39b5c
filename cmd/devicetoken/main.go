// Command devicetoken issues bearer tokens for library card scanners.
//
//	devicetoken -device scanner-lib-1 [-ttl 720h]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/absensi-api/internal/service"
	"github.com/noah-isme/absensi-api/pkg/config"
)

func main() {
	deviceID := flag.String("device", "", "device identifier embedded in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to DEVICE_TOKEN_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lifetime := cfg.DeviceAuth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	tokens := service.NewDeviceTokenService(service.DeviceTokenConfig{
		Secret: cfg.DeviceAuth.Secret,
		Issuer: cfg.DeviceAuth.Issuer,
		TTL:    lifetime,
	})
	token, expiresAt, err := tokens.Issue(*deviceID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println(token)
	if expiresAt != nil {
		fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
	}
}
