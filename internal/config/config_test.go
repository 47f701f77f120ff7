package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  cache_seconds: 60
gateway:
  timeout: 3s
sources:
  - key: a
    name: Site A
    api: http://a.example/api.php/provide/vod/
    rate_limit: 2.5
  - key: b
    name: Site B
    api: http://b.example/api.php/provide/vod/
    disabled: true
loader:
  page_size: 24
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Server.CacheSeconds)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 24, cfg.Loader.PageSize)
	assert.Equal(t, 8, cfg.Loader.HomeLimit)
	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, 2.5, cfg.Sources[0].RateLimit)

	enabled := cfg.EnabledSources()
	require.Len(t, enabled, 1)
	assert.Equal(t, "a", enabled[0].Key)
	assert.Equal(t, "6", cfg.Feed.CategoryMap["喜剧"])

	sites := cfg.SourceSites()
	require.Len(t, sites, 2)
	assert.Equal(t, "Site A", sites[0].Name)
	assert.Equal(t, 2.5, sites[0].RateLimit)
	assert.True(t, sites[1].Disabled)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Loader.PageSize)
	assert.Equal(t, 10*time.Second, cfg.Loader.FetchTimeout)
	assert.Equal(t, 3, cfg.Loader.HomeSources)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	require.NotEmpty(t, cfg.Sources)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "ok",
			cfg:  Config{Sources: []SourceConfig{{Key: "a", API: "http://a"}}, Loader: LoaderConfig{PageSize: 20}},
		},
		{
			name:    "missing key",
			cfg:     Config{Sources: []SourceConfig{{API: "http://a"}}, Loader: LoaderConfig{PageSize: 20}},
			wantErr: true,
		},
		{
			name:    "duplicate key",
			cfg:     Config{Sources: []SourceConfig{{Key: "a", API: "x"}, {Key: "a", API: "y"}}, Loader: LoaderConfig{PageSize: 20}},
			wantErr: true,
		},
		{
			name:    "page size out of range",
			cfg:     Config{Loader: LoaderConfig{PageSize: 101}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.db"}
	assert.Equal(t, "./data/x.db", sqlite.DSN())

	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", DBName: "vod", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=vod sslmode=disable", pg.DSN())
}
