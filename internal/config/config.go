// Package config loads etgx configuration from .etgx/config.yml with
// environment variable overrides (ETGX_*).
package config

import "strings"

// Repository names. Each is also the cache table key of that repository.
const (
	RepoTranslations      = "translations"
	RepoProjectiles       = "projectiles"
	RepoVolleys           = "volleys"
	RepoPlayers           = "players"
	RepoSpriteCollections = "sprite-collections"
	RepoSpriteAnimations  = "sprite-animations"
	RepoEncounters        = "encounters"
	RepoGuns              = "guns"
)

// RepoNames lists every repository in load order.
var RepoNames = []string{
	RepoTranslations,
	RepoProjectiles,
	RepoSpriteCollections,
	RepoSpriteAnimations,
	RepoPlayers,
	RepoVolleys,
	RepoEncounters,
	RepoGuns,
}

// Config represents the complete etgx configuration.
type Config struct {
	Assets   AssetsConfig        `yaml:"assets" mapstructure:"assets"`
	Cache    CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Sources  map[string][]string `yaml:"sources" mapstructure:"sources"`   // candidate globs per repository
	Policies map[string]string   `yaml:"policies" mapstructure:"policies"` // "skip" or "abort" per repository
	Resolver ResolverConfig      `yaml:"resolver" mapstructure:"resolver"`
	Watch    WatchConfig         `yaml:"watch" mapstructure:"watch"`
	Export   ExportConfig        `yaml:"export" mapstructure:"export"`
	Workers  int                 `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
}

// AssetsConfig locates the exported game assets.
type AssetsConfig struct {
	Root    string   `yaml:"root" mapstructure:"root"`         // asset root directory
	MetaExt string   `yaml:"meta_ext" mapstructure:"meta_ext"` // sidecar extension, e.g. ".meta"
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`     // glob patterns to ignore
}

// CacheConfig defines where extracted tables are persisted.
type CacheConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // Empty means cache.DefaultRoot()
}

// ResolverConfig bounds cross-file reference resolution.
type ResolverConfig struct {
	MaxDepth int `yaml:"max_depth" mapstructure:"max_depth"` // longest followed reference chain
	LRUSize  int `yaml:"lru_size" mapstructure:"lru_size"`   // parsed files kept in memory
}

// WatchConfig configures `etgx extract --watch`.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// ExportConfig configures `etgx export`.
type ExportConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // SQLite database file
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Root:    "assets/ExportedProject/Assets",
			MetaExt: ".meta",
			Ignore: []string{
				"Editor/**",
				"Plugins/**",
			},
		},
		Cache: CacheConfig{
			Dir: "",
		},
		Sources: map[string][]string{
			RepoTranslations:      {"**/strings/english/*.txt"},
			RepoProjectiles:       {"**/*.prefab"},
			RepoVolleys:           {"**/*.asset"},
			RepoPlayers:           {"**/Player*.prefab"},
			RepoSpriteCollections: {"**/*.prefab"},
			RepoSpriteAnimations:  {"**/*.prefab"},
			RepoEncounters:        {"**/EncounterDatabase.asset"},
			RepoGuns:              {"**/*.prefab"},
		},
		Policies: map[string]string{
			RepoTranslations:      "abort",
			RepoProjectiles:       "skip",
			RepoVolleys:           "skip",
			RepoPlayers:           "abort",
			RepoSpriteCollections: "skip",
			RepoSpriteAnimations:  "skip",
			RepoEncounters:        "abort",
			RepoGuns:              "skip",
		},
		Resolver: ResolverConfig{
			MaxDepth: 8,
			LRUSize:  512,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Export: ExportConfig{
			Path: "etgx.db",
		},
		Workers: 0,
	}
}

// SourcePatterns returns the candidate globs for a repository.
func (c *Config) SourcePatterns(repo string) []string {
	if patterns := c.Sources[repo]; len(patterns) > 0 {
		return patterns
	}
	return Default().Sources[repo]
}

// Policy returns the validation failure policy for a repository.
func (c *Config) Policy(repo string) string {
	if p := c.Policies[repo]; p != "" {
		return strings.ToLower(p)
	}
	return Default().Policies[repo]
}

// IsRepo reports whether name is a known repository.
func IsRepo(name string) bool {
	for _, r := range RepoNames {
		if r == name {
			return true
		}
	}
	return false
}
