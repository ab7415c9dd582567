package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/backsim/internal/domain"
)

// Config is the full backsim configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Market  MarketConfig  `yaml:"market"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// ActorConfig declares one simulated participant.
type ActorConfig struct {
	Name     string                `yaml:"name"`
	Cash     float64               `yaml:"cash"`
	Strategy domain.StrategyConfig `yaml:"strategy"`
}

// EngineConfig controls the backtest run.
type EngineConfig struct {
	SessionName string        `yaml:"session_name"`
	Actors      []ActorConfig `yaml:"actors"`
	RangeStart  string        `yaml:"range_start"` // YYYY-MM-DD, empty = live mode
	RangeEnd    string        `yaml:"range_end"`
	TickStepMin int           `yaml:"tick_step_minutes"` // simulated time per tick
	MaxTicks    int           `yaml:"max_ticks"`         // safety bound for -run
}

// TickStep returns the simulated time per tick as a time.Duration.
func (c *EngineConfig) TickStep() time.Duration {
	return time.Duration(c.TickStepMin) * time.Minute
}

// MarketConfig holds the upstream data source endpoints.
type MarketConfig struct {
	BaseURL        string `yaml:"base_url"`
	QuoteRatePS    int    `yaml:"quote_rate_per_sec"`
	HistoryRatePS  int    `yaml:"history_rate_per_sec"`
	AnalysisRatePS int    `yaml:"analysis_rate_per_sec"`
}

// StorageConfig controls where state is persisted.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present. Environment
// variables override the YAML values for the keys they cover.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Range parses the configured historical window. ok is false in live mode.
func (c *Config) Range() (start, end time.Time, ok bool, err error) {
	if c.Engine.RangeStart == "" || c.Engine.RangeEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	start, err = time.ParseInLocation("2006-01-02", c.Engine.RangeStart, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("config.Range: range_start: %w", err)
	}
	end, err = time.ParseInLocation("2006-01-02", c.Engine.RangeEnd, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("config.Range: range_end: %w", err)
	}
	return start, end.Add(24*time.Hour - time.Second), true, nil
}

func (c *Config) validate() error {
	for i, a := range c.Engine.Actors {
		if a.Name == "" {
			return fmt.Errorf("actor %d: name is required: %w", i, domain.ErrConfiguration)
		}
		if len(domain.NormalizeSymbols(a.Strategy.SymbolPool)) == 0 {
			return fmt.Errorf("actor %q: empty symbol pool: %w", a.Name, domain.ErrConfiguration)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BACKSIM_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("MARKET_BASE_URL"); v != "" {
		cfg.Market.BaseURL = v
	}
}

func setDefaults(cfg *Config) {
	if cfg.Engine.TickStepMin <= 0 {
		cfg.Engine.TickStepMin = 60
	}
	if cfg.Engine.MaxTicks <= 0 {
		cfg.Engine.MaxTicks = 500
	}
	if cfg.Engine.SessionName == "" {
		cfg.Engine.SessionName = "backtest"
	}
	if cfg.Market.QuoteRatePS <= 0 {
		cfg.Market.QuoteRatePS = 10
	}
	if cfg.Market.HistoryRatePS <= 0 {
		cfg.Market.HistoryRatePS = 2
	}
	if cfg.Market.AnalysisRatePS <= 0 {
		cfg.Market.AnalysisRatePS = 2
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "backsim.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	for i := range cfg.Engine.Actors {
		if cfg.Engine.Actors[i].Cash <= 0 {
			cfg.Engine.Actors[i].Cash = domain.DefaultInitialCapital
		}
	}
}
