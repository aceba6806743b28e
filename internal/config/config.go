package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrNoConfig is returned by ResolveConfigPath when no config file exists
// in any of the searched locations.
var ErrNoConfig = errors.New("no config file found")

// EpochLayout is the format of aggregate.epoch_start.
const EpochLayout = "2006-01-02"

type Config struct {
	Input     Input     `yaml:"input"`
	Output    Output    `yaml:"output"`
	Enrich    Enrich    `yaml:"enrich"`
	Country   Country   `yaml:"country"`
	Aggregate Aggregate `yaml:"aggregate"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Input struct {
	// RawCSV is the scraper's output file.
	RawCSV string `yaml:"raw_csv"`
	// CountryList overrides the embedded country reference list.
	CountryList string `yaml:"country_list"`
	// RawOnly ignores derived columns in the input so every field is
	// re-derived.
	RawOnly bool `yaml:"raw_only"`
}

type Output struct {
	DataDir     string `yaml:"data_dir"`
	Database    string `yaml:"database"`
	EnrichedCSV string `yaml:"enriched_csv"`
	DailyCSV    string `yaml:"daily_csv"`
	MonthlyCSV  string `yaml:"monthly_csv"`
}

type Enrich struct {
	Workers   int `yaml:"workers"`
	CacheSize int `yaml:"cache_size"`
}

type Country struct {
	Fuzzy          bool `yaml:"fuzzy"`
	FuzzyThreshold int  `yaml:"fuzzy_threshold"`
	FuzzyMaxInput  int  `yaml:"fuzzy_max_input"`
}

type Aggregate struct {
	EpochStart string `yaml:"epoch_start"`
	// HorizonDays caps the calendar this many days after the run date.
	// 0 leaves it unbounded.
	HorizonDays int `yaml:"horizon_days"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for unrestwatch.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "unrestwatch")
}

// DataDir returns the XDG data directory for unrestwatch.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "unrestwatch")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/unrestwatch/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"%w; searched:\n  %s\n  ./config.yaml\n\nRun 'unrestwatch init' to create a default config",
		ErrNoConfig, xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults, and validates
// the result.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Input: Input{RawCSV: "osac.csv"},
		Output: Output{
			Database:    "unrestwatch.db",
			EnrichedCSV: "parsed.csv",
			DailyCSV:    "daily.csv",
			MonthlyCSV:  "monthly.csv",
		},
		Enrich:    Enrich{CacheSize: 10000},
		Country:   Country{Fuzzy: true, FuzzyThreshold: 75, FuzzyMaxInput: 64},
		Aggregate: Aggregate{EpochStart: "2024-01-01"},
		Server:    Server{Port: 8000},
		Logging:   Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Epoch(); err != nil {
		return err
	}
	if c.Country.FuzzyThreshold <= 0 || c.Country.FuzzyThreshold > 100 {
		return fmt.Errorf("country.fuzzy_threshold must be in 1..100, got %d", c.Country.FuzzyThreshold)
	}
	if c.Country.FuzzyMaxInput <= 0 {
		return fmt.Errorf("country.fuzzy_max_input must be positive, got %d", c.Country.FuzzyMaxInput)
	}
	if c.Enrich.CacheSize <= 0 {
		return fmt.Errorf("enrich.cache_size must be positive, got %d", c.Enrich.CacheSize)
	}
	if c.Aggregate.HorizonDays < 0 {
		return fmt.Errorf("aggregate.horizon_days must not be negative, got %d", c.Aggregate.HorizonDays)
	}
	if c.Enrich.Workers < 0 {
		return fmt.Errorf("enrich.workers must not be negative, got %d", c.Enrich.Workers)
	}
	return nil
}

// Epoch parses aggregate.epoch_start.
func (c *Config) Epoch() (time.Time, error) {
	t, err := time.Parse(EpochLayout, c.Aggregate.EpochStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("aggregate.epoch_start %q: %w", c.Aggregate.EpochStart, err)
	}
	return t, nil
}

// Horizon returns the last day the calendar may reach for a run at now, or
// the zero time when unbounded.
func (c *Config) Horizon(now time.Time) time.Time {
	if c.Aggregate.HorizonDays == 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, c.Aggregate.HorizonDays)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DataPath joins name onto the data directory unless it is already absolute.
func (c *Config) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataDir(), name)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
