package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.True(t, cfg.Database.IsEmbedded())
	require.Equal(t, bcrypt.DefaultCost, cfg.Auth.BcryptCost)
	require.False(t, cfg.Cache.Enabled)
	require.Equal(t, 30*time.Second, cfg.Cache.TTL)
	require.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
database:
  driver: memory
auth:
  bcrypt_cost: 6
cache:
  enabled: true
  ttl: 1m
`), 0o600))

	t.Setenv("WARDEN_SERVER_PORT", "9000")
	t.Setenv("WARDEN_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.Equal(t, 6, cfg.Auth.BcryptCost)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, time.Minute, cfg.Cache.TTL)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 5000},
			Database: DatabaseConfig{Driver: "sqlite", Path: "users.db"},
			Auth:     AuthConfig{BcryptCost: bcrypt.MinCost},
			Logging:  LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"postgres without host", func(c *Config) { c.Database.Driver = "postgres" }, true},
		{"memory", func(c *Config) { c.Database.Driver = "memory"; c.Database.Path = "" }, false},
		{"cost too low", func(c *Config) { c.Auth.BcryptCost = 1 }, true},
		{"cost too high", func(c *Config) { c.Auth.BcryptCost = 40 }, true},
		{"cache without ttl", func(c *Config) { c.Cache.Enabled = true }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "warden", Password: "pw", Database: "warden", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=warden password=pw dbname=warden sslmode=disable", c.DSN())
	require.False(t, DatabaseConfig{Driver: "postgres"}.IsEmbedded())
}
