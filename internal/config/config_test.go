package config

import (
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		AppEnv:         "development",
		Port:           "5000",
		DBDriver:       "sqlite",
		JWTSecret:      strings.Repeat("s", 32),
		AllowedOrigins: []string{"http://localhost:5173"},
		StorageDriver:  "s3",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Port = "" }, errMsg: "PORT"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, errMsg: "JWT_SECRET"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, errMsg: "DB_DRIVER"},
		{name: "mongo driver", mutate: func(c *Config) { c.DBDriver = "mongo" }},
		{name: "unknown storage", mutate: func(c *Config) { c.StorageDriver = "disk" }, errMsg: "STORAGE_DRIVER"},
		{name: "memory storage in development", mutate: func(c *Config) { c.StorageDriver = "memory" }},
		{name: "short secret in development", mutate: func(c *Config) { c.JWTSecret = "dev" }},
		{
			name: "memory storage in production",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.StorageDriver = "memory"
			},
			errMsg: "not allowed in production",
		},
		{
			name: "short secret in production",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.JWTSecret = "short"
			},
			errMsg: "at least 32",
		},
		{
			name: "default secret in production",
			mutate: func(c *Config) {
				c.AppEnv = "prod"
				c.JWTSecret = defaultJWTSecret
			},
			errMsg: "JWT_SECRET",
		},
		{
			name: "wildcard origin in production",
			mutate: func(c *Config) {
				c.AppEnv = "production"
				c.AllowedOrigins = []string{"https://app.example.com", "*"}
			},
			errMsg: "ALLOWED_ORIGINS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "many")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_LIST", " a, ,b ,c")

	assert.Equal(t, 42, envInt("TEST_INT", 1))
	assert.Equal(t, 1, envInt("TEST_BAD_INT", 1))
	assert.Equal(t, 7, envInt("TEST_MISSING", 7))
	assert.Equal(t, 90*time.Second, envDuration("TEST_DURATION", time.Second))
	assert.True(t, envBool("TEST_BOOL", false))
	assert.Equal(t, []string{"a", "b", "c"}, envList("TEST_LIST", ""))
	assert.Equal(t, "fallback", envString("TEST_MISSING", "fallback"))
}

func TestEnvironmentPredicates(t *testing.T) {
	c := &Config{AppEnv: "prod", DBDriver: "mongo"}

	assert.True(t, c.IsProduction())
	assert.False(t, c.IsDevelopment())
	assert.True(t, c.UsesMongo())
}

func TestLoad_EmailDevModeFollowsEnvironment(t *testing.T) {
	tests := []struct {
		appEnv string
		want   bool
	}{
		{appEnv: "development", want: true},
		{appEnv: "test", want: true},
		{appEnv: "production", want: false},
		{appEnv: "prod", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.appEnv, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
			t.Setenv("STORAGE_DRIVER", "s3")
			t.Setenv("DB_DRIVER", "sqlite")
			t.Setenv("PORT", "5000")
			t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")
			t.Setenv("EMAIL_DEV_MODE", "")
			t.Setenv("TRUSTED_PROXIES", "")

			cfg := Load()

			assert.Equal(t, tt.want, cfg.EmailDevMode)
			assert.Equal(t, !tt.want, cfg.IsProduction())
		})
	}
}

func TestLoad_TrustedProxies(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PORT", "5000")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.10")

	cfg := Load()

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
	}, cfg.TrustedProxies)
}

func TestParsePrefixes(t *testing.T) {
	got, err := parsePrefixes([]string{"10.1.2.3/8", "::1", "::ffff:192.0.2.1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
		netip.MustParsePrefix("192.0.2.1/32"),
	}, got)

	none, err := parsePrefixes(nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = parsePrefixes([]string{"10.0.0.0/8", "proxy.internal"})
	assert.ErrorContains(t, err, "proxy.internal")
}
