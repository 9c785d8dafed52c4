// Package config exposes strongly typed application configuration structs loaded from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds understood by the exchange package.
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
	SourceSocket    = "socket"
)

// App captures process-wide runtime settings such as name, environment, metrics, and logging levels.
type App struct {
	Name        string `yaml:"name"`
	Env         string `yaml:"env"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"` // json|console
}

// Source selects and tunes the observation producer.
type Source struct {
	Kind                string  `yaml:"kind"`
	Symbol              string  `yaml:"symbol"`
	IntervalMs          int     `yaml:"interval_ms"`
	BasePrice           float64 `yaml:"base_price"`
	Path                string  `yaml:"path"`
	URI                 string  `yaml:"uri"`
	ReconnectIntervalMs int     `yaml:"reconnect_interval_ms"`
}

// Engine sizes the rolling history kept by the orchestrator.
type Engine struct {
	MaxHistory int `yaml:"max_history"`
}

// StrategyParams groups tunable knobs for a strategy implementation. Levels are pointers so an
// omitted key selects the strategy default while an explicit 0 is kept.
type StrategyParams struct {
	ShortWindow int      `yaml:"short_window,omitempty"`
	LongWindow  int      `yaml:"long_window,omitempty"`
	Period      int      `yaml:"period,omitempty"`
	Oversold    *float64 `yaml:"oversold,omitempty"`
	Overbought  *float64 `yaml:"overbought,omitempty"`
	Lookback    int      `yaml:"lookback,omitempty"`
	Threshold   *float64 `yaml:"threshold,omitempty"`
}

// Level returns a pointer to v for StrategyParams literals.
func Level(v float64) *float64 { return &v }

// String lists the parameters that are set, for menus and logs.
func (p StrategyParams) String() string {
	var parts []string
	add := func(name string, v int) {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, v))
		}
	}
	addLevel := func(name string, v *float64) {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%g", name, *v))
		}
	}
	add("short_window", p.ShortWindow)
	add("long_window", p.LongWindow)
	add("period", p.Period)
	addLevel("oversold", p.Oversold)
	addLevel("overbought", p.Overbought)
	add("lookback", p.Lookback)
	addLevel("threshold", p.Threshold)
	if len(parts) == 0 {
		return "defaults"
	}
	return strings.Join(parts, " ")
}

// Strategy specifies one registered strategy along with its parameter bundle.
type Strategy struct {
	Mode   string         `yaml:"mode"`
	Params StrategyParams `yaml:"params"`
}

// Journal points the signal journal at a JSON-lines file; empty disables it.
type Journal struct {
	Path string `yaml:"path"`
}

// Kafka configures the optional signal publisher.
type Kafka struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Report schedules periodic stats log lines using cron syntax ("@every 30s"); empty disables it.
type Report struct {
	Schedule string `yaml:"schedule"`
}

// Config collects every configuration leaf for easy marshaling from YAML.
type Config struct {
	App        App        `yaml:"app"`
	Source     Source     `yaml:"source"`
	Engine     Engine     `yaml:"engine"`
	Strategies []Strategy `yaml:"strategies"`
	Journal    Journal    `yaml:"journal"`
	Kafka      Kafka      `yaml:"kafka"`
	Report     Report     `yaml:"report"`
}

var knownModes = map[string]bool{
	"ma": true, "sma": true, "ma_crossover": true, "moving_average": true,
	"rsi": true, "momentum": true,
}

// Default mirrors the stock demo: a synthetic BTC-USD walk evaluated by all three strategies.
func Default() *Config {
	return &Config{
		App: App{
			Name:        "vibe-trader",
			Env:         "local",
			MetricsAddr: ":9102",
			LogLevel:    "info",
			LogFormat:   "json",
		},
		Source: Source{
			Kind:                SourceSynthetic,
			Symbol:              "BTC-USD",
			IntervalMs:          2000,
			BasePrice:           50000,
			Path:                "sample_data.json",
			ReconnectIntervalMs: 5000,
		},
		Engine: Engine{MaxHistory: 100},
		Strategies: []Strategy{
			{Mode: "ma", Params: StrategyParams{ShortWindow: 5, LongWindow: 20}},
			{Mode: "rsi", Params: StrategyParams{Period: 14, Oversold: Level(30), Overbought: Level(70)}},
			{Mode: "momentum", Params: StrategyParams{Lookback: 10, Threshold: Level(0.015)}},
		},
		Kafka:  Kafka{Topic: "trading.signals"},
		Report: Report{Schedule: "@every 30s"},
	}
}

// Load reads a YAML file from disk and hydrates a Config struct on top of Default.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	config := Default()
	config.Strategies = nil
	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(config.Strategies) == 0 {
		config.Strategies = Default().Strategies
	}
	return config, nil
}

// LoadOrDefault behaves like Load but returns Default when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save persists a Config struct to disk as YAML.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate reports the first configuration fault that would prevent a run.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Source.Kind)) {
	case "", SourceSynthetic:
		if c.Source.IntervalMs <= 0 {
			return fmt.Errorf("source.interval_ms must be positive")
		}
		if c.Source.BasePrice <= 0 {
			return fmt.Errorf("source.base_price must be positive")
		}
	case SourceReplay:
		if strings.TrimSpace(c.Source.Path) == "" {
			return fmt.Errorf("source.path is required for replay")
		}
		if c.Source.IntervalMs <= 0 {
			return fmt.Errorf("source.interval_ms must be positive")
		}
	case SourceSocket:
		if strings.TrimSpace(c.Source.URI) == "" {
			return fmt.Errorf("source.uri is required for socket")
		}
		if c.Source.ReconnectIntervalMs <= 0 {
			return fmt.Errorf("source.reconnect_interval_ms must be positive")
		}
	default:
		return fmt.Errorf("unknown source kind %q", c.Source.Kind)
	}
	if c.Engine.MaxHistory <= 0 {
		return fmt.Errorf("engine.max_history must be positive")
	}
	for i, s := range c.Strategies {
		if !knownModes[strings.ToLower(strings.TrimSpace(s.Mode))] {
			return fmt.Errorf("strategies[%d]: unknown mode %q", i, s.Mode)
		}
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka requires brokers and topic when enabled")
	}
	return nil
}
