package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/connoisseur/noisseur/internal/caption"
	"github.com/connoisseur/noisseur/internal/imaging"
	"github.com/connoisseur/noisseur/internal/recognize"
	"github.com/connoisseur/noisseur/internal/template"
)

// EnvPrefix prefixes every environment override, e.g. NOISSEUR_HTTP_ADDR.
const EnvPrefix = "NOISSEUR"

// Config is the complete noisseur configuration.
type Config struct {
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	OCR       OCRConfig       `mapstructure:"ocr" yaml:"ocr"`
	Recognize RecognizeConfig `mapstructure:"recognize" yaml:"recognize"`
	Caption   CaptionConfig   `mapstructure:"caption" yaml:"caption"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// TemplatesConfig locates the template files.
type TemplatesConfig struct {
	// Root is the directory relative sources are resolved against.
	Root string `mapstructure:"root" yaml:"root"`
	// Sources are loaded in order; the order is the match order. Empty means
	// every template file directly under Root, sorted by name.
	Sources []string `mapstructure:"sources" yaml:"sources"`
	// Watch reloads templates when their files change.
	Watch bool `mapstructure:"watch" yaml:"watch"`
}

// OCRConfig configures Tesseract.
type OCRConfig struct {
	Language string `mapstructure:"language" yaml:"language"`
	// Tessdata overrides the directory holding the language data.
	Tessdata string `mapstructure:"tessdata" yaml:"tessdata,omitempty"`
}

// RecognizeConfig holds the request defaults.
type RecognizeConfig struct {
	Pipeline string  `mapstructure:"pipeline" yaml:"pipeline"`
	Scale    float64 `mapstructure:"scale" yaml:"scale"`
}

// CaptionConfig configures the title bar locator.
type CaptionConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	MinColor string `mapstructure:"min_color" yaml:"min_color"`
	MaxColor string `mapstructure:"max_color" yaml:"max_color"`
	Padding  int    `mapstructure:"padding" yaml:"padding"`
	Pipeline string `mapstructure:"pipeline" yaml:"pipeline"`
}

// HTTPConfig configures the HTTP API.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Templates: TemplatesConfig{
			Root:    "templates",
			Sources: []string{},
		},
		OCR: OCRConfig{
			Language: "eng",
		},
		Recognize: RecognizeConfig{
			Pipeline: recognize.DefaultPipeline,
			Scale:    recognize.DefaultScale,
		},
		Caption: CaptionConfig{
			Enabled:  true,
			MinColor: "#000079",
			MaxColor: "#000081",
			Padding:  50,
			Pipeline: "bw",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
//
// Parameters:
//   - cfgFile: Explicit config file. Empty searches for config.yaml in the
//     working directory and in $HOME/.noisseur; a missing file is not an
//     error.
//
// Returns:
//   - *Manager: The loaded manager.
//   - error: Non-nil if the config file cannot be read or decoded, or the
//     result fails Validate.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v

	// Leaf defaults, so that every key is also reachable from the environment.
	d := DefaultConfig()
	v.SetDefault("templates.root", d.Templates.Root)
	v.SetDefault("templates.sources", d.Templates.Sources)
	v.SetDefault("templates.watch", d.Templates.Watch)
	v.SetDefault("ocr.language", d.OCR.Language)
	v.SetDefault("ocr.tessdata", d.OCR.Tessdata)
	v.SetDefault("recognize.pipeline", d.Recognize.Pipeline)
	v.SetDefault("recognize.scale", d.Recognize.Scale)
	v.SetDefault("caption.enabled", d.Caption.Enabled)
	v.SetDefault("caption.min_color", d.Caption.MinColor)
	v.SetDefault("caption.max_color", d.Caption.MaxColor)
	v.SetDefault("caption.padding", d.Caption.Padding)
	v.SetDefault("caption.pipeline", d.Caption.Pipeline)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	// Environment variables with NOISSEUR_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.noisseur")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the config file that was read, or "".
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. A changed file that
// fails to load or validate is ignored and the previous config stays current.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// Validate checks values that would otherwise fail late, at the first
// recognition.
func (c *Config) Validate() error {
	if _, err := imaging.ParsePipeline(c.Recognize.Pipeline); err != nil {
		return fmt.Errorf("recognize.pipeline: %w", err)
	}
	if c.Recognize.Scale < 0 {
		return fmt.Errorf("recognize.scale must not be negative, got %g", c.Recognize.Scale)
	}
	if c.Caption.Enabled {
		if _, err := c.CaptionConfig(); err != nil {
			return err
		}
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}

// CaptionConfig converts the caption section for the locator. It returns
// nil when the locator is disabled.
func (c *Config) CaptionConfig() (*caption.Config, error) {
	if !c.Caption.Enabled {
		return nil, nil
	}
	colors, err := imaging.ParseColorRange(c.Caption.MinColor, c.Caption.MaxColor)
	if err != nil {
		return nil, fmt.Errorf("caption colors: %w", err)
	}
	if c.Caption.Padding < 0 {
		return nil, fmt.Errorf("caption.padding must not be negative, got %d", c.Caption.Padding)
	}
	p, err := imaging.ParsePipeline(c.Caption.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("caption.pipeline: %w", err)
	}
	if !p.PreservesGeometry() {
		return nil, fmt.Errorf("caption.pipeline %q must preserve the band geometry", c.Caption.Pipeline)
	}
	return &caption.Config{
		Colors:   colors,
		Padding:  c.Caption.Padding,
		Pipeline: c.Caption.Pipeline,
	}, nil
}

// RecognizeConfig builds the recognizer configuration.
func (c *Config) RecognizeConfig() (recognize.Config, error) {
	cc, err := c.CaptionConfig()
	if err != nil {
		return recognize.Config{}, err
	}
	return recognize.Config{
		Pipeline: c.Recognize.Pipeline,
		Scale:    c.Recognize.Scale,
		Caption:  cc,
	}, nil
}

// TemplateSources returns the configured source list, discovering the
// template files under the root when none are listed.
func (c *Config) TemplateSources() ([]string, error) {
	if len(c.Templates.Sources) > 0 {
		return append([]string(nil), c.Templates.Sources...), nil
	}
	return template.Discover(c.Templates.Root)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# noisseur configuration
# Every key can be overridden from the environment, e.g. NOISSEUR_HTTP_ADDR=:9090

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
