package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader that reads an explicit config file instead
// of searching .etgx/ under the root.
func NewFileLoader(rootDir, configFile string) Loader {
	return &loader{
		rootDir:    rootDir,
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (ETGX_*)
// 2. Config file (.etgx/config.yml or .etgx/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".etgx"))
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("ETGX")
	v.AutomaticEnv()
	// Replace . and - with _ in env var names (e.g., ETGX_POLICIES_SPRITE_COLLECTIONS)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.BindEnv("assets.root")
	v.BindEnv("assets.meta_ext")
	v.BindEnv("cache.dir")
	v.BindEnv("resolver.max_depth")
	v.BindEnv("resolver.lru_size")
	v.BindEnv("watch.debounce_ms")
	v.BindEnv("export.path")
	v.BindEnv("workers")
	for _, repo := range RepoNames {
		v.BindEnv("policies." + repo)
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values. Map sections are set
// per key so a config file can override one repository without dropping
// the defaults of the others.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("assets.root", defaults.Assets.Root)
	v.SetDefault("assets.meta_ext", defaults.Assets.MetaExt)
	v.SetDefault("assets.ignore", defaults.Assets.Ignore)

	v.SetDefault("cache.dir", defaults.Cache.Dir)

	for repo, patterns := range defaults.Sources {
		v.SetDefault("sources."+repo, patterns)
	}
	for repo, policy := range defaults.Policies {
		v.SetDefault("policies."+repo, policy)
	}

	v.SetDefault("resolver.max_depth", defaults.Resolver.MaxDepth)
	v.SetDefault("resolver.lru_size", defaults.Resolver.LRUSize)
	v.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMS)
	v.SetDefault("export.path", defaults.Export.Path)
	v.SetDefault("workers", defaults.Workers)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
