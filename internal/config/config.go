package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Exports   ExportsConfig   `yaml:"exports" mapstructure:"exports"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// WarehouseConfig configures the event-warehouse backend.
type WarehouseConfig struct {
	Driver      string  `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string  `yaml:"database_url" mapstructure:"database_url"`
	EventsTable string  `yaml:"events_table" mapstructure:"events_table"`
	QueryQPS    float64 `yaml:"query_qps" mapstructure:"query_qps"`
}

// ReportConfig configures the report window, target filters, and caching.
type ReportConfig struct {
	TargetPhrase string   `yaml:"target_phrase" mapstructure:"target_phrase"`
	ColorTokens  []string `yaml:"color_tokens" mapstructure:"color_tokens"`
	MinDate      string   `yaml:"min_date" mapstructure:"min_date"`
	MaxDate      string   `yaml:"max_date" mapstructure:"max_date"`
	DefaultStart string   `yaml:"default_start" mapstructure:"default_start"`
	DefaultEnd   string   `yaml:"default_end" mapstructure:"default_end"`
	WeekStart    string   `yaml:"week_start" mapstructure:"week_start"`
	CacheTTLSecs int      `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	TopN         int      `yaml:"top_n" mapstructure:"top_n"`
}

// ExportsConfig configures the per-property organic-search export
// directories and the well-known file names inside them.
type ExportsConfig struct {
	ChartFile   string           `yaml:"chart_file" mapstructure:"chart_file"`
	QueriesFile string           `yaml:"queries_file" mapstructure:"queries_file"`
	PagesFile   string           `yaml:"pages_file" mapstructure:"pages_file"`
	Properties  []PropertyConfig `yaml:"properties" mapstructure:"properties"`
}

// PropertyConfig names one export property and where its files live.
type PropertyConfig struct {
	Label string `yaml:"label" mapstructure:"label"`
	Dir   string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// CacheTTL returns the configured cache validity as a duration.
func (r ReportConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSecs) * time.Second
}

// Bounds parses the configured reportable date range.
func (r ReportConfig) Bounds() (time.Time, time.Time, error) {
	min, err := time.ParseInLocation(time.DateOnly, r.MinDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "config: parse min_date")
	}
	max, err := time.ParseInLocation(time.DateOnly, r.MaxDate, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrap(err, "config: parse max_date")
	}
	return min, max, nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRENDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("warehouse.driver", "postgres")
	v.SetDefault("warehouse.events_table", "events")
	v.SetDefault("warehouse.query_qps", 5.0)
	v.SetDefault("report.target_phrase", "pulex bucket")
	v.SetDefault("report.color_tokens", []string{"Red", "Blue", "Green", "Gray"})
	v.SetDefault("report.min_date", "2023-01-01")
	v.SetDefault("report.max_date", "2026-12-31")
	v.SetDefault("report.default_start", "2024-01-01")
	v.SetDefault("report.default_end", "2026-02-01")
	v.SetDefault("report.week_start", "monday")
	v.SetDefault("report.cache_ttl_secs", 3600)
	v.SetDefault("report.top_n", 10)
	v.SetDefault("exports.chart_file", "Chart.csv")
	v.SetDefault("exports.queries_file", "Queries.csv")
	v.SetDefault("exports.pages_file", "Pages.csv")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
