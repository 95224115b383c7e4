package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	os.Args = append([]string{orig[0]}, args...)
	t.Cleanup(func() { os.Args = orig })
}

func TestParseJson(t *testing.T) {

	t.Run("no config flag leaves values unchanged", func(t *testing.T) {
		withArgs(t)

		var c Config
		c.LoadDefaults()
		before := c
		parseJson(&c)
		assert.Equal(t, before, c)
	})

	t.Run("overlays values from file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.json")
		body := `{
			"endpoint_addr_http": ":9999",
			"database_dsn": "postgres://u:p@h:5432/d",
			"secret_key": "sk",
			"session_validity_duration": "2h",
			"otp_validity_duration": "5m",
			"s3_root_user": "root",
			"s3_root_password": "pw",
			"s3_bucket": "b",
			"s3_region": "r",
			"s3_base_endpoint": "http://s3:9000/",
			"smtp_addr": "mail:25",
			"smtp_from": "otp@example.com",
			"cookie_secure": true
		}`
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		withArgs(t, "-c", path)

		var c Config
		c.LoadDefaults()
		parseJson(&c)

		assert.Equal(t, ":9999", c.EndpointAddrHTTP)
		assert.Equal(t, "postgres://u:p@h:5432/d", c.DatabaseDSN)
		assert.Equal(t, "sk", c.SecretKey)
		assert.Equal(t, 2*time.Hour, c.SessionValidityDuration)
		assert.Equal(t, 5*time.Minute, c.OtpValidityDuration)
		assert.Equal(t, "root", c.S3RootUser)
		assert.Equal(t, "mail:25", c.SMTPAddr)
		assert.Equal(t, "otp@example.com", c.SMTPFrom)
		assert.True(t, c.CookieSecure)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		withArgs(t, "-c", path)

		var c Config
		c.LoadDefaults()
		assert.Panics(t, func() { parseJson(&c) })
	})
}
