package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/semhash/core/storage"
)

const envPrefix = "SEMHASH_"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type Manager struct {
	config      atomic.Pointer[Config]
	dirs        *storage.Dirs
	projectRoot string
	explicit    string
	watchers    []func(*Config)
	watcherMu   sync.RWMutex
	stopWatch   chan struct{}
	watchOnce   sync.Once
}

type Config struct {
	Search SearchConfig `yaml:"search"`
	Tags   TagsConfig   `yaml:"tags"`
	Cache  CacheConfig  `yaml:"cache"`
	Corpus CorpusConfig `yaml:"corpus"`
	Log    LogConfig    `yaml:"log"`
}

type SearchConfig struct {
	DefaultTop  int     `yaml:"default_top"`
	HybridAlpha float64 `yaml:"hybrid_alpha"`
}

type TagsConfig struct {
	Max int `yaml:"max"`
}

type CacheConfig struct {
	QueryVectors   int           `yaml:"query_vectors"`
	ResultsMaxCost int64         `yaml:"results_max_cost"`
	ResultsTTL     time.Duration `yaml:"results_ttl"`
}

type CorpusConfig struct {
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	MaxFileSize int64    `yaml:"max_file_size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// NewManager returns a manager holding DefaultConfig. Call Load to apply
// config files and the environment.
func NewManager(dirs *storage.Dirs) *Manager {
	m := &Manager{
		dirs:        dirs,
		projectRoot: ".",
		stopWatch:   make(chan struct{}),
	}
	m.config.Store(DefaultConfig())
	return m
}

// WithProjectRoot sets the directory searched for .semhash/config.yaml.
func (m *Manager) WithProjectRoot(root string) *Manager {
	m.projectRoot = root
	return m
}

// WithFile adds an explicit config file applied after the user and project
// files. Unlike those, it must exist.
func (m *Manager) WithFile(path string) *Manager {
	m.explicit = path
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultTop:  5,
			HybridAlpha: 0.6,
		},
		Tags: TagsConfig{
			Max: 8,
		},
		Cache: CacheConfig{
			QueryVectors:   1024,
			ResultsMaxCost: 4096,
			ResultsTTL:     5 * time.Minute,
		},
		Corpus: CorpusConfig{
			Include:     []string{},
			Exclude:     []string{},
			MaxFileSize: 1 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (m *Manager) Get() *Config {
	return m.config.Load()
}

// Load rebuilds the config from defaults, the user file, the project file,
// the explicit file and SEMHASH_* variables, in that order.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if err := loadYAMLFile(m.userPath(), cfg, false); err != nil {
		return fmt.Errorf("user config: %w", err)
	}
	if err := loadYAMLFile(m.projectPath(), cfg, false); err != nil {
		return fmt.Errorf("project config: %w", err)
	}
	if m.explicit != "" {
		if err := loadYAMLFile(m.explicit, cfg, true); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.config.Store(cfg)
	m.notifyWatchers(cfg)
	return nil
}

// Paths lists the config files Load reads, in precedence order.
func (m *Manager) Paths() []string {
	paths := []string{m.userPath(), m.projectPath()}
	if m.explicit != "" {
		paths = append(paths, m.explicit)
	}
	return paths
}

func (m *Manager) userPath() string {
	return m.dirs.ConfigDir("config.yaml")
}

func (m *Manager) projectPath() string {
	return storage.ResolveProjectDirs(m.projectRoot).Config
}

func loadYAMLFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func applyEnvironment(cfg *Config) error {
	var errs []error
	envInt := func(key string, dst *int) {
		if v := os.Getenv(envPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	envInt("SEARCH_TOP", &cfg.Search.DefaultTop)
	envInt("TAGS_MAX", &cfg.Tags.Max)
	envInt("CACHE_QUERY_VECTORS", &cfg.Cache.QueryVectors)

	if v := os.Getenv(envPrefix + "HYBRID_ALPHA"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sHYBRID_ALPHA: %w", envPrefix, err))
		} else {
			cfg.Search.HybridAlpha = f
		}
	}
	if v := os.Getenv(envPrefix + "CACHE_RESULTS_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sCACHE_RESULTS_TTL: %w", envPrefix, err))
		} else {
			cfg.Cache.ResultsTTL = d
		}
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}

	return errors.Join(errs...)
}

// Validate reports every out-of-range setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Search.DefaultTop <= 0 {
		errs = append(errs, fmt.Errorf("%w: search.default_top must be positive, got %d", ErrInvalidConfig, c.Search.DefaultTop))
	}
	if c.Search.HybridAlpha < 0 || c.Search.HybridAlpha > 1 {
		errs = append(errs, fmt.Errorf("%w: search.hybrid_alpha must be within [0,1], got %v", ErrInvalidConfig, c.Search.HybridAlpha))
	}
	if c.Tags.Max <= 0 {
		errs = append(errs, fmt.Errorf("%w: tags.max must be positive, got %d", ErrInvalidConfig, c.Tags.Max))
	}
	if c.Cache.ResultsMaxCost < 0 {
		errs = append(errs, fmt.Errorf("%w: cache.results_max_cost must not be negative", ErrInvalidConfig))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level as debug, info, warn or error.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

func (m *Manager) Close() error {
	m.watchOnce.Do(func() {
		close(m.stopWatch)
	})
	return nil
}
