package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`
	Feed   FeedConfig   `mapstructure:"feed"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Ingest IngestConfig `mapstructure:"ingest"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Poll    string `mapstructure:"poll"`
}

// FeedConfig describes the Nitter-style RSS mirror the ingester polls.
// Sources are author handles including the leading "@".
type FeedConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Sources []string      `mapstructure:"sources"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LLMConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type IngestConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	Concurrency    int  `mapstructure:"concurrency"`
	FailureCap     int  `mapstructure:"failure_cap"`
	MinBodyLength  int  `mapstructure:"min_body_length"`
	RunOnStart     bool `mapstructure:"run_on_start"`
	MaxPerSource   int  `mapstructure:"max_per_source"`
	StoreNonEvents bool `mapstructure:"store_non_events"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8081")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.poll", "@every 15m")
	v.SetDefault("feed.base_url", "http://localhost:8080")
	v.SetDefault("feed.sources", []string{
		"@GeoConfirmed",
		"@sentdefender",
		"@OSINTWarfare",
		"@Osinttechnical",
		"@Conflict_Radar",
		"@WarMonitor3",
	})
	v.SetDefault("feed.timeout", "20s")
	v.SetDefault("llm.base_url", "http://localhost:11434/v1")
	v.SetDefault("llm.model", "qwen3:14b")
	v.SetDefault("llm.timeout", "90s")
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("ingest.enabled", true)
	v.SetDefault("ingest.concurrency", 1)
	v.SetDefault("ingest.failure_cap", 5)
	v.SetDefault("ingest.min_body_length", 50)
	v.SetDefault("ingest.run_on_start", false)
	v.SetDefault("ingest.max_per_source", 0)
	v.SetDefault("ingest.store_non_events", true)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
