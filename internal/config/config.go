package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/timmy/vodhub/internal/domain"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Sources  []SourceConfig `mapstructure:"sources"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Session  SessionConfig  `mapstructure:"session"`
	Feed     FeedConfig     `mapstructure:"feed"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
	// CacheSeconds drives the Cache-Control headers on catalog routes.
	CacheSeconds int `mapstructure:"cache_seconds"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DatabaseConfig selects the library store backend ("sqlite" or "postgres").
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

// GatewayConfig controls outbound calls to upstream video API sites.
type GatewayConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryCount int           `mapstructure:"retry_count"`
	UserAgent  string        `mapstructure:"user_agent"`
}

// SourceConfig describes one upstream CMS video API site.
type SourceConfig struct {
	Key      string `mapstructure:"key"`
	Name     string `mapstructure:"name"`
	API      string `mapstructure:"api"`
	Detail   string `mapstructure:"detail"`
	Disabled bool   `mapstructure:"disabled"`
	// RateLimit is requests per second against this site; 0 means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`
}

type LoaderConfig struct {
	PageSize     int           `mapstructure:"page_size"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	// HomeLimit is the number of items per source shelf on the home page.
	HomeLimit int `mapstructure:"home_limit"`
	// HomeSources caps the number of home shelves; 0 means every enabled source.
	HomeSources int `mapstructure:"home_sources"`
}

type SessionConfig struct {
	MaxSessions   int           `mapstructure:"max_sessions"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// FeedConfig configures the tag feed (kind/category/type browsing).
type FeedConfig struct {
	// Source is the site key the feed reads from; empty means the first enabled source.
	Source string `mapstructure:"source"`
	// CategoryMap maps a category display name to an upstream type id.
	CategoryMap map[string]string `mapstructure:"category_map"`
}

// EnabledSources returns the sources that are not disabled, in configured order.
func (c *Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}

// SourceSites converts every configured source, disabled ones included,
// to the gateway's site type.
func (c *Config) SourceSites() []domain.SourceSite {
	return lo.Map(c.Sources, func(s SourceConfig, _ int) domain.SourceSite {
		return domain.SourceSite{
			Key:       s.Key,
			Name:      s.Name,
			API:       s.API,
			Detail:    s.Detail,
			Disabled:  s.Disabled,
			RateLimit: s.RateLimit,
		}
	})
}

// Validate reports configuration that would make the server unusable.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Sources))
	for i, s := range c.Sources {
		if s.Key == "" {
			return fmt.Errorf("sources[%d]: key is required", i)
		}
		if s.API == "" {
			return fmt.Errorf("sources[%d] (%s): api is required", i, s.Key)
		}
		if seen[s.Key] {
			return fmt.Errorf("sources[%d]: duplicate key %q", i, s.Key)
		}
		seen[s.Key] = true
	}
	if c.Loader.PageSize < 1 || c.Loader.PageSize > 100 {
		return fmt.Errorf("loader.page_size must be within 1..100, got %d", c.Loader.PageSize)
	}
	return nil
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("server.cache_seconds", 7200)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/vodhub.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("gateway.retry_count", 0)
	v.SetDefault("gateway.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36")
	v.SetDefault("sources", []map[string]interface{}{
		{"key": "aiopen", "name": "AI Open", "api": "https://aiopen.qzz.io/api.php/provide/vod/"},
	})
	v.SetDefault("loader.page_size", 20)
	v.SetDefault("loader.fetch_timeout", 10*time.Second)
	v.SetDefault("loader.home_limit", 8)
	v.SetDefault("loader.home_sources", 3)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.idle_ttl", 30*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("feed.category_map", map[string]string{
		"喜剧": "6",
		"爱情": "7",
		"恐怖": "8",
		"动作": "9",
		"科幻": "10",
	})

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("server.port", "PORT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
