package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carebridge/visits-service/internal/constants"
	"github.com/carebridge/visits-service/internal/utils"
)

const AppName = "visits-service"

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string

	// Database
	DBUrl string

	// Twilio / SendGrid for coordinator notifications
	TwilioAccountSID     string
	TwilioAuthToken      string
	SendGridAPIKey       string
	TwilioFromPhone      string
	SendgridFromEmail    string
	SendgridSandboxMode  bool

	// Auth: this service only validates tokens issued elsewhere.
	RSAPublicKey *rsa.PublicKey

	// EVV / lifecycle policy
	GeofenceRadiusMiles  float64
	ClockInEarlyWindow   time.Duration
	DefaultFallbackUnits float64
}

func LoadConfig() *Config {
	utils.Logger.Info("Loading config for app: ", AppName)

	orgName := os.Getenv("ORGANIZATION_NAME")
	if orgName == "" {
		orgName = "CareBridge"
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := os.Getenv("APP_URL")
	if appUrl == "" {
		utils.Logger.Fatal("APP_URL env var is missing")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		utils.Logger.Fatal("DB_URL env var is missing")
	}

	// Twilio
	twilioSID := os.Getenv("TWILIO_ACCOUNT_SID")
	if twilioSID == "" {
		utils.Logger.Fatal("TWILIO_ACCOUNT_SID env var is missing")
	}
	twilioToken := os.Getenv("TWILIO_AUTH_TOKEN")
	if twilioToken == "" {
		utils.Logger.Fatal("TWILIO_AUTH_TOKEN env var is missing")
	}
	twilioFrom := os.Getenv("TWILIO_FROM_PHONE")
	if twilioFrom == "" {
		utils.Logger.Warn("TWILIO_FROM_PHONE is empty, defaulting to +10005550006")
		twilioFrom = "+10005550006"
	}

	// SendGrid
	sgAPIKey := os.Getenv("SENDGRID_API_KEY")
	if sgAPIKey == "" {
		utils.Logger.Fatal("SENDGRID_API_KEY env var is missing")
	}
	sgFrom := os.Getenv("SENDGRID_FROM_EMAIL")
	if sgFrom == "" {
		utils.Logger.Warn("SENDGRID_FROM_EMAIL is empty, defaulting to no-reply@carebridge.app")
		sgFrom = "no-reply@carebridge.app"
	}
	sgSandbox := envBool("SENDGRID_SANDBOX_MODE", false)

	// Auth public key
	pubB64 := os.Getenv("RSA_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("RSA_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubPEM, _ := base64.StdEncoding.DecodeString(pubB64)
	if block, _ := pem.Decode(pubPEM); block == nil {
		utils.Logger.Fatal("Failed to decode PEM block for public key")
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	// Policy knobs, all with product defaults
	radius := envFloat("GEOFENCE_RADIUS_MILES", constants.DefaultGeofenceRadiusMiles)
	if radius <= 0 {
		utils.Logger.Fatalf("GEOFENCE_RADIUS_MILES must be positive, got %v", radius)
	}
	earlyWindow := envDuration("CLOCK_IN_EARLY_WINDOW", constants.DefaultClockInEarlyWindow)
	fallbackUnits := envFloat("DEFAULT_FALLBACK_UNITS", constants.DefaultFallbackUnits)

	return &Config{
		OrganizationName:     orgName,
		AppName:              AppName,
		AppPort:              appPort,
		AppUrl:               appUrl,
		DBUrl:                dbURL,
		TwilioAccountSID:     twilioSID,
		TwilioAuthToken:      twilioToken,
		SendGridAPIKey:       sgAPIKey,
		TwilioFromPhone:      twilioFrom,
		SendgridFromEmail:    sgFrom,
		SendgridSandboxMode:  sgSandbox,
		RSAPublicKey:         pubKey,
		GeofenceRadiusMiles:  radius,
		ClockInEarlyWindow:   earlyWindow,
		DefaultFallbackUnits: fallbackUnits,
	}
}

func (c *Config) Close() {}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be a boolean, got %q", key, v)
	}
	return b
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		utils.Logger.Fatalf("%s must be a number, got %q", key, v)
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Fatalf("%s must be a duration (e.g. 2h), got %q", key, v)
	}
	return d
}
