package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"scrollwatch/internal/domain"
	"scrollwatch/internal/eventbus"
)

// FileName is the name of the config file looked up next to the working directory
const FileName = ".scrollwatch.toml"

// Config represents the application configuration
type Config struct {
	Version    int              `toml:"version"`
	Tracking   TrackingSettings `toml:"tracking"`
	Feed       FeedSettings     `toml:"feed"`
	UISettings UISettings       `toml:"ui"`
	Log        LogSettings      `toml:"log"`
}

// TrackingSettings control the velocity estimator
type TrackingSettings struct {
	WindowMS         int64 `toml:"window_ms" env:"SCROLLWATCH_WINDOW_MS"`
	SampleIntervalMS int64 `toml:"sample_interval_ms" env:"SCROLLWATCH_SAMPLE_INTERVAL_MS"`
	HistoryLimit     int   `toml:"history_limit" env:"SCROLLWATCH_HISTORY_LIMIT"` // 0 keeps history unbounded
}

// FeedSettings configure the websocket state feed
type FeedSettings struct {
	Addr string `toml:"addr" env:"SCROLLWATCH_FEED_ADDR"` // empty disables the feed
	Path string `toml:"path" env:"SCROLLWATCH_FEED_PATH"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	WheelStep      int  `toml:"wheel_step" env:"SCROLLWATCH_WHEEL_STEP"`
	HorizontalStep int  `toml:"horizontal_step" env:"SCROLLWATCH_HORIZONTAL_STEP"`
	DocumentLines  int  `toml:"document_lines" env:"SCROLLWATCH_DOCUMENT_LINES"`
	ShowHistory    bool `toml:"show_history" env:"SCROLLWATCH_SHOW_HISTORY"`
}

// LogSettings configure the log file
type LogSettings struct {
	File string `toml:"file" env:"SCROLLWATCH_LOG_FILE"`
}

// Window returns the velocity window as a duration
func (c *Config) Window() time.Duration {
	return time.Duration(c.Tracking.WindowMS) * time.Millisecond
}

// SampleInterval returns the idle sampling interval as a duration
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.Tracking.SampleIntervalMS) * time.Millisecond
}

// Settings returns the tracking parameters in domain form
func (c *Config) Settings() domain.Settings {
	return domain.Settings{
		Window:         c.Window(),
		SampleInterval: c.SampleInterval(),
		HistoryLimit:   c.Tracking.HistoryLimit,
	}
}

// Validate rejects values the estimator would turn into meaningless numbers
func (c *Config) Validate() error {
	var errs []error
	if c.Tracking.WindowMS <= 0 {
		errs = append(errs, fmt.Errorf("tracking.window_ms must be positive, got %d", c.Tracking.WindowMS))
	}
	if c.Tracking.SampleIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("tracking.sample_interval_ms must be positive, got %d", c.Tracking.SampleIntervalMS))
	}
	if c.Tracking.HistoryLimit < 0 {
		errs = append(errs, fmt.Errorf("tracking.history_limit must not be negative, got %d", c.Tracking.HistoryLimit))
	}
	if c.UISettings.WheelStep <= 0 {
		errs = append(errs, fmt.Errorf("ui.wheel_step must be positive, got %d", c.UISettings.WheelStep))
	}
	if c.UISettings.HorizontalStep <= 0 {
		errs = append(errs, fmt.Errorf("ui.horizontal_step must be positive, got %d", c.UISettings.HorizontalStep))
	}
	if c.UISettings.DocumentLines <= 0 {
		errs = append(errs, fmt.Errorf("ui.document_lines must be positive, got %d", c.UISettings.DocumentLines))
	}
	return errors.Join(errs...)
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	return &configService{
		filePath: filepath.Join(configDir, "scrollwatch", "config.toml"),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

// Load loads the configuration from the user config directory
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := ApplyEnv(cfg); err != nil {
			return nil, err
		}
		cs.publishLoaded(cs.filePath, cfg)
		return cfg, nil
	}

	cfg, err := cs.LoadFromPath(cs.filePath)
	if err != nil {
		return nil, err
	}
	cs.publishLoaded(cs.filePath, cfg)
	return cfg, nil
}

// Save saves the configuration to the user config directory
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path. Missing keys keep their
// defaults and SCROLLWATCH_* environment variables override the file.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrCreate loads the config at path, writing the defaults there first if the
// file does not exist yet. Environment overrides apply to the returned config only
// and are never written to the file. The bool reports whether the file existed.
func LoadOrCreate(svc ConfigService, path string) (*Config, bool, error) {
	existed := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		existed = false
		if err := svc.SaveToPath(DefaultConfig(), path); err != nil {
			return nil, false, err
		}
	}

	cfg, err := svc.LoadFromPath(path)
	if err != nil {
		return nil, existed, err
	}
	return cfg, existed, nil
}

func (cs *configService) publishLoaded(path string, cfg *Config) {
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{
			Path:     path,
			Settings: cfg.Settings(),
		})
	}
}

// ApplyEnv overrides config values from SCROLLWATCH_* environment variables
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Tracking: TrackingSettings{
			WindowMS:         1000,
			SampleIntervalMS: 100,
		},
		Feed: FeedSettings{
			Path: "/ws/state",
		},
		UISettings: UISettings{
			WheelStep:      3,
			HorizontalStep: 4,
			DocumentLines:  400,
		},
		Log: LogSettings{
			File: "scrollwatch.log",
		},
	}
}
