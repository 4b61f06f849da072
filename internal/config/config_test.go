package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "yesterday", cfg.Harvest.Mode)
	assert.Equal(t, "stahování", cfg.Harvest.Source)
	assert.Equal(t, 60, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
	assert.Equal(t, 30, cfg.HTTP.RetryDelaySeconds)
	assert.Equal(t, 2000, cfg.HTTP.PauseMinMs)
	assert.Equal(t, 4000, cfg.HTTP.PauseMaxMs)
	assert.Equal(t, "sqlfile", cfg.Records.Backend)

	jmk, err := cfg.Site("jmk")
	require.NoError(t, err)
	assert.Equal(t, "https://eud.jmk.cz/Gordic/Ginis/App/UDE01/", jmk.BaseURL)
	assert.Equal(t, "soubory_z_jihomoravskeho_kraje", jmk.Table)
	assert.False(t, jmk.InsecureSkipVerify)

	brno, err := cfg.Site("brno")
	require.NoError(t, err)
	assert.Equal(t, 25, brno.PageSize)
	assert.True(t, brno.InsecureSkipVerify)

	_, err = cfg.Site("praha")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
harvest:
  mode: range
  from: "2024-05-01"
  to: "2024-05-03"
  download_dir: /var/edeska
ftp:
  host: ftp.example.cz
  user: edeska
  password: tajne
records:
  backend: postgres
  dsn: postgres://edeska@localhost/archiv
sites:
  brno:
    remote_files_dir: /www/edeska/stazene_soubory/magistrat_mesta_brna
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "range", cfg.Harvest.Mode)
	assert.Equal(t, "/var/edeska", cfg.Harvest.DownloadDir)
	assert.Equal(t, "ftp.example.cz", cfg.FTP.Host)
	assert.Equal(t, "postgres", cfg.Records.Backend)

	brno, err := cfg.Site("brno")
	require.NoError(t, err)
	assert.Equal(t, "/www/edeska/stazene_soubory/magistrat_mesta_brna", brno.RemoteFilesDir)
	assert.Equal(t, "https://edeska.brno.cz/eDeska/", brno.BaseURL)

	window := cfg.Window(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), window.From)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), window.To)
}

func TestWindowYesterday(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	window := cfg.Window(time.Date(2024, 5, 4, 9, 15, 0, 0, time.UTC))
	yesterday := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, yesterday, window.From)
	assert.Equal(t, yesterday, window.To)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "bad mode",
			mutate: func(c *Config) { c.Harvest.Mode = "all" },
			errMsg: "harvest.mode",
		},
		{
			name: "range without dates",
			mutate: func(c *Config) {
				c.Harvest.Mode = "range"
			},
			errMsg: "harvest.from",
		},
		{
			name: "range inverted",
			mutate: func(c *Config) {
				c.Harvest.Mode = "range"
				c.Harvest.From = "2024-05-03"
				c.Harvest.To = "2024-05-01"
			},
			errMsg: "precedes",
		},
		{
			name:   "postgres without dsn",
			mutate: func(c *Config) { c.Records.Backend = "postgres" },
			errMsg: "records.dsn",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Records.Backend = "mysql" },
			errMsg: "records.backend",
		},
		{
			name: "pause bounds inverted",
			mutate: func(c *Config) {
				c.HTTP.PauseMinMs = 2000
				c.HTTP.PauseMaxMs = 500
			},
			errMsg: "pause_max_ms",
		},
		{
			name: "site without base url",
			mutate: func(c *Config) {
				site := c.Sites["jmk"]
				site.BaseURL = ""
				c.Sites["jmk"] = site
			},
			errMsg: "base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFetchConfigCarriesSiteTLS(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	brno, err := cfg.Site("brno")
	require.NoError(t, err)

	fc := cfg.FetchConfig(brno)
	assert.Equal(t, 60*time.Second, fc.Timeout)
	assert.Equal(t, 120*time.Second, fc.DownloadTimeout)
	assert.Equal(t, 30*time.Second, fc.RetryDelay)
	assert.True(t, fc.InsecureSkipVerify)
}
