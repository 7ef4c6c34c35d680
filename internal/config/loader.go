package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "ROSTERTAG"

// Sentinel errors returned (wrapped) by Load.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

var (
	globalMu  sync.RWMutex
	globalCfg *Config
)

// Get returns the Config stored by the most recent successful Load, or nil.
func Get() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCfg
}

func setGlobal(cfg *Config) {
	globalMu.Lock()
	globalCfg = cfg
	globalMu.Unlock()
}

// ─────────────────────────────────────────────────────────────────────────────
// Loader options
// ─────────────────────────────────────────────────────────────────────────────

type loaderOptions struct {
	configPath  string
	searchPaths []string
	envFiles    []string
	overrides   map[string]interface{}
}

// LoaderOption customises Load.
type LoaderOption func(*loaderOptions)

// WithConfigPath reads exactly this file.
func WithConfigPath(path string) LoaderOption {
	return func(o *loaderOptions) { o.configPath = path }
}

// WithSearchPaths looks for config.yaml in each directory in turn.
func WithSearchPaths(dirs ...string) LoaderOption {
	return func(o *loaderOptions) { o.searchPaths = append(o.searchPaths, dirs...) }
}

// WithEnvFile loads KEY=VALUE files into the process environment before the
// ROSTERTAG_* variables are read.  Variables already set are not overwritten.
// A missing file named here is an error; without this option ".env" is
// loaded if it exists.
func WithEnvFile(paths ...string) LoaderOption {
	return func(o *loaderOptions) { o.envFiles = append(o.envFiles, paths...) }
}

// WithOverrides sets keys ("extraction.num_max_len") with the highest
// precedence, above file and environment.
func WithOverrides(values map[string]interface{}) LoaderOption {
	return func(o *loaderOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]interface{}, len(values))
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// newViper builds a Viper instance with the standard settings: YAML file
// type, ROSTERTAG_ env prefix, automatic env binding and a "." → "_" key
// replacer so "extraction.num_max_len" resolves to
// ROSTERTAG_EXTRACTION_NUM_MAX_LEN.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Load
// ─────────────────────────────────────────────────────────────────────────────

// Load merges defaults, the optional config file, ROSTERTAG_* environment
// variables and explicit overrides, applies defaults for unset fields and
// validates the result.
func Load(opts ...LoaderOption) (*Config, error) {
	o := &loaderOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if err := loadEnvFiles(o.envFiles); err != nil {
		return nil, err
	}

	v := newViper()
	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}
	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}
	setGlobal(cfg)
	return cfg, nil
}

// LoadFromFile is Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config from defaults and ROSTERTAG_* environment
// variables only.
//
//	ROSTERTAG_<SECTION>_<FIELD>   e.g.  ROSTERTAG_REDIS_ADDR, ROSTERTAG_EXTRACTION_NUM_MAX_LEN
func LoadFromEnv() (*Config, error) {
	return Load()
}

// MustLoad is Load that panics on error.  For use in main().
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		// optional; absent .env is the common case
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
		}
		return fmt.Errorf("%w: env file: %v", ErrConfigParseError, err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, o *loaderOptions) error {
	switch {
	case o.configPath != "":
		v.SetConfigFile(o.configPath)
	case len(o.searchPaths) > 0:
		v.SetConfigName("config")
		for _, dir := range o.searchPaths {
			v.AddConfigPath(dir)
		}
	default:
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	return nil
}

// unmarshalAndFinalize unmarshals viper state into a Config, applies
// defaults and validates.
func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// Watch re-reads configPath whenever it changes on disk and passes the new
// Config to onChange.  A change that fails to parse or validate goes to
// onError instead (when non-nil) and the previous Config stays in force.
// Only settings that are safe to swap at runtime (log level, extraction
// knobs for subsequent runs) should be applied by onChange.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigFileNotFound, err)
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		setGlobal(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

//Personal.AI order the ending
