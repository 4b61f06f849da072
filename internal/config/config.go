// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/chudst/edeska-harvester/internal/fetch"
	"github.com/chudst/edeska-harvester/internal/harvest"
	"github.com/chudst/edeska-harvester/internal/textutil"
)

// Config captures all harvester configuration knobs loaded via Viper.
type Config struct {
	Harvest HarvestConfig         `mapstructure:"harvest"`
	HTTP    HTTPConfig            `mapstructure:"http"`
	FTP     FTPConfig             `mapstructure:"ftp"`
	Records RecordsConfig         `mapstructure:"records"`
	Metrics MetricsConfig         `mapstructure:"metrics"`
	Logging LoggingConfig         `mapstructure:"logging"`
	Sites   map[string]SiteConfig `mapstructure:"sites"`
}

// HarvestConfig selects the harvest window and local paths.
type HarvestConfig struct {
	// Mode is "yesterday" (the cron setting) or "range" with explicit
	// From/To dates.
	Mode        string `mapstructure:"mode"`
	From        string `mapstructure:"from"`
	To          string `mapstructure:"to"`
	DownloadDir string `mapstructure:"download_dir"`
	LogDir      string `mapstructure:"log_dir"`
	// Source is the "zdroj" label written into the downstream log table.
	Source string `mapstructure:"source"`
}

// HTTPConfig configures fetch timeouts, retries and politeness pauses.
type HTTPConfig struct {
	TimeoutSeconds         int    `mapstructure:"timeout_seconds"`
	DownloadTimeoutSeconds int    `mapstructure:"download_timeout_seconds"`
	MaxRetries             int    `mapstructure:"max_retries"`
	RetryDelaySeconds      int    `mapstructure:"retry_delay_seconds"`
	PauseMinMs             int    `mapstructure:"pause_min_ms"`
	PauseMaxMs             int    `mapstructure:"pause_max_ms"`
	UserAgent              string `mapstructure:"user_agent"`
}

// FTPConfig holds the archive host credentials. Leaving it empty disables
// publishing.
type FTPConfig struct {
	Host           string `mapstructure:"host"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// RecordsConfig selects the record-sink backend.
type RecordsConfig struct {
	// Backend is "sqlfile" (render .sql scripts for the archive) or
	// "postgres" (write rows directly).
	Backend   string `mapstructure:"backend"`
	OutputDir string `mapstructure:"output_dir"`
	DSN       string `mapstructure:"dsn"`
}

// MetricsConfig points at an optional Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// SiteConfig describes one bulletin board.
type SiteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Table is the downstream import table for this board.
	Table    string `mapstructure:"table"`
	PageSize int    `mapstructure:"page_size"`
	// InsecureSkipVerify disables TLS verification; the Brno board serves
	// an incomplete certificate chain.
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
	RemoteFilesDir     string `mapstructure:"remote_files_dir"`
	RemoteLogsDir      string `mapstructure:"remote_logs_dir"`
	RemoteSQLDir       string `mapstructure:"remote_sql_dir"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EDESKA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("harvest.mode", "yesterday")
	v.SetDefault("harvest.download_dir", "stazene_soubory")
	v.SetDefault("harvest.log_dir", "logy")
	v.SetDefault("harvest.source", "stahování")
	v.SetDefault("http.timeout_seconds", 60)
	v.SetDefault("http.download_timeout_seconds", 120)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.retry_delay_seconds", 30)
	v.SetDefault("http.pause_min_ms", 2000)
	v.SetDefault("http.pause_max_ms", 4000)
	v.SetDefault("http.user_agent", "edeska-harvester/1.0")
	v.SetDefault("ftp.timeout_seconds", 30)
	v.SetDefault("records.backend", "sqlfile")
	v.SetDefault("records.output_dir", ".")
	v.SetDefault("logging.development", false)
	v.SetDefault("sites.jmk.base_url", "https://eud.jmk.cz/Gordic/Ginis/App/UDE01/")
	v.SetDefault("sites.jmk.table", "soubory_z_jihomoravskeho_kraje")
	v.SetDefault("sites.brno.base_url", "https://edeska.brno.cz/eDeska/")
	v.SetDefault("sites.brno.table", "soubory_magistrat_mesta_brna")
	v.SetDefault("sites.brno.page_size", 25)
	v.SetDefault("sites.brno.insecure_skip_verify", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	switch c.Harvest.Mode {
	case "yesterday":
	case "range":
		from, err := time.Parse(textutil.ISODateLayout, c.Harvest.From)
		if err != nil {
			return fmt.Errorf("harvest.from must be a %s date: %w", textutil.ISODateLayout, err)
		}
		to, err := time.Parse(textutil.ISODateLayout, c.Harvest.To)
		if err != nil {
			return fmt.Errorf("harvest.to must be a %s date: %w", textutil.ISODateLayout, err)
		}
		if to.Before(from) {
			return fmt.Errorf("harvest.to precedes harvest.from")
		}
	default:
		return fmt.Errorf("harvest.mode must be yesterday or range, got %q", c.Harvest.Mode)
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.DownloadTimeoutSeconds <= 0 {
		return fmt.Errorf("http.download_timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.HTTP.PauseMaxMs < c.HTTP.PauseMinMs {
		return fmt.Errorf("http.pause_max_ms must be >= http.pause_min_ms")
	}

	switch c.Records.Backend {
	case "sqlfile":
	case "postgres":
		if c.Records.DSN == "" {
			return fmt.Errorf("records.dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("records.backend must be sqlfile or postgres, got %q", c.Records.Backend)
	}

	for name, site := range c.Sites {
		if site.BaseURL == "" {
			return fmt.Errorf("sites.%s.base_url is required", name)
		}
		if site.Table == "" {
			return fmt.Errorf("sites.%s.table is required", name)
		}
	}

	return nil
}

// Site looks up one board's config.
func (c Config) Site(name string) (SiteConfig, error) {
	site, ok := c.Sites[name]
	if !ok {
		return SiteConfig{}, fmt.Errorf("unknown site %q", name)
	}
	return site, nil
}

// Window resolves the harvest date window against now.
func (c Config) Window(now time.Time) harvest.DateRange {
	if c.Harvest.Mode == "range" {
		from, _ := time.Parse(textutil.ISODateLayout, c.Harvest.From)
		to, _ := time.Parse(textutil.ISODateLayout, c.Harvest.To)
		return harvest.DateRange{From: from, To: to}
	}
	y := now.AddDate(0, 0, -1)
	yesterday := time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
	return harvest.DateRange{From: yesterday, To: yesterday}
}

// FetchConfig converts the HTTP section for a site into the fetcher config.
func (c Config) FetchConfig(site SiteConfig) fetch.Config {
	return fetch.Config{
		Timeout:            time.Duration(c.HTTP.TimeoutSeconds) * time.Second,
		DownloadTimeout:    time.Duration(c.HTTP.DownloadTimeoutSeconds) * time.Second,
		Retries:            c.HTTP.MaxRetries,
		RetryDelay:         time.Duration(c.HTTP.RetryDelaySeconds) * time.Second,
		UserAgent:          c.HTTP.UserAgent,
		InsecureSkipVerify: site.InsecureSkipVerify,
	}
}

// PauseBounds returns the politeness pause interval.
func (c Config) PauseBounds() (time.Duration, time.Duration) {
	return time.Duration(c.HTTP.PauseMinMs) * time.Millisecond,
		time.Duration(c.HTTP.PauseMaxMs) * time.Millisecond
}
