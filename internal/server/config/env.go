package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/BharathKumarMurugan/cloud-drive/internal/timex"
)

// envConfig is a DTO for the environment overlay. All fields are pointers so
// that variables absent from the environment leave the already-loaded Config
// values untouched.
type envConfig struct {
	EndpointAddrHTTP        *string `env:"CLOUD_DRIVE_ADDR"`
	DatabaseDSN             *string `env:"CLOUD_DRIVE_DATABASE_DSN"`
	SecretKey               *string `env:"CLOUD_DRIVE_SECRET_KEY"`
	SessionValidityDuration *string `env:"CLOUD_DRIVE_SESSION_VALIDITY"`
	OtpValidityDuration     *string `env:"CLOUD_DRIVE_OTP_VALIDITY"`
	S3RootUser              *string `env:"CLOUD_DRIVE_S3_USER"`
	S3RootPassword          *string `env:"CLOUD_DRIVE_S3_PASSWORD"`
	S3Bucket                *string `env:"CLOUD_DRIVE_S3_BUCKET"`
	S3Region                *string `env:"CLOUD_DRIVE_S3_REGION"`
	S3BaseEndpoint          *string `env:"CLOUD_DRIVE_S3_ENDPOINT"`
	SMTPAddr                *string `env:"CLOUD_DRIVE_SMTP_ADDR"`
	SMTPFrom                *string `env:"CLOUD_DRIVE_SMTP_FROM"`
	CookieSecure            *bool   `env:"CLOUD_DRIVE_COOKIE_SECURE"`
}

// parseEnv overlays configuration from the process environment. A local
// .env file, if present, is loaded first. Duration variables accept the
// time.ParseDuration syntax ("10m", "24h"). Malformed values panic, matching
// the JSON overlay policy.
func parseEnv(config *Config) {

	_ = godotenv.Load()

	e := &envConfig{}
	if err := env.Parse(e); err != nil {
		panic(err)
	}

	setIfPresent := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	setIfPresent(&config.EndpointAddrHTTP, e.EndpointAddrHTTP)
	setIfPresent(&config.DatabaseDSN, e.DatabaseDSN)
	setIfPresent(&config.SecretKey, e.SecretKey)
	setIfPresent(&config.S3RootUser, e.S3RootUser)
	setIfPresent(&config.S3RootPassword, e.S3RootPassword)
	setIfPresent(&config.S3Bucket, e.S3Bucket)
	setIfPresent(&config.S3Region, e.S3Region)
	setIfPresent(&config.S3BaseEndpoint, e.S3BaseEndpoint)
	setIfPresent(&config.SMTPAddr, e.SMTPAddr)
	setIfPresent(&config.SMTPFrom, e.SMTPFrom)

	if e.SessionValidityDuration != nil {
		config.SessionValidityDuration = mustParseDuration(*e.SessionValidityDuration)
	}
	if e.OtpValidityDuration != nil {
		config.OtpValidityDuration = mustParseDuration(*e.OtpValidityDuration)
	}
	if e.CookieSecure != nil {
		config.CookieSecure = *e.CookieSecure
	}
}

func mustParseDuration(s string) time.Duration {
	d := &timex.Duration{}
	if err := d.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		panic(err)
	}
	return d.Duration
}
