package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrEmptyAssetRoot indicates a missing asset root
	ErrEmptyAssetRoot = errors.New("empty asset root")

	// ErrInvalidMetaExt indicates a sidecar extension without a leading dot
	ErrInvalidMetaExt = errors.New("invalid meta extension")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrUnknownRepository indicates a sources/policies key that names no repository
	ErrUnknownRepository = errors.New("unknown repository")

	// ErrInvalidPolicy indicates a policy other than skip or abort
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidResolverSettings indicates non-positive resolver bounds
	ErrInvalidResolverSettings = errors.New("invalid resolver settings")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid workers")

	// ErrInvalidWatchSettings indicates a negative debounce
	ErrInvalidWatchSettings = errors.New("invalid watch settings")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateAssets(&cfg.Assets); err != nil {
		errs = append(errs, err)
	}

	if err := validateRepositories(cfg); err != nil {
		errs = append(errs, err)
	}

	if err := validateResolver(&cfg.Resolver); err != nil {
		errs = append(errs, err)
	}

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if cfg.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidWatchSettings, cfg.Watch.DebounceMS))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateAssets(cfg *AssetsConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Root) == "" {
		errs = append(errs, fmt.Errorf("%w: assets.root is required", ErrEmptyAssetRoot))
	}

	if !strings.HasPrefix(cfg.MetaExt, ".") || len(cfg.MetaExt) < 2 {
		errs = append(errs, fmt.Errorf("%w: must start with '.', got '%s'", ErrInvalidMetaExt, cfg.MetaExt))
	}

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: assets.ignore '%s': %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateRepositories(cfg *Config) error {
	var errs []error

	for _, repo := range sortedKeys(cfg.Sources) {
		if !IsRepo(repo) {
			errs = append(errs, fmt.Errorf("%w: sources.%s (valid: %s)", ErrUnknownRepository, repo, strings.Join(RepoNames, ", ")))
			continue
		}
		for _, pattern := range cfg.Sources[repo] {
			if _, err := glob.Compile(pattern, '/'); err != nil {
				errs = append(errs, fmt.Errorf("%w: sources.%s '%s': %v", ErrInvalidPattern, repo, pattern, err))
			}
		}
	}

	for _, repo := range sortedKeys(cfg.Policies) {
		if !IsRepo(repo) {
			errs = append(errs, fmt.Errorf("%w: policies.%s (valid: %s)", ErrUnknownRepository, repo, strings.Join(RepoNames, ", ")))
			continue
		}
		switch policy := strings.ToLower(cfg.Policies[repo]); policy {
		case "skip", "abort":
		default:
			errs = append(errs, fmt.Errorf("%w: policies.%s must be 'skip' or 'abort', got '%s'", ErrInvalidPolicy, repo, cfg.Policies[repo]))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateResolver(cfg *ResolverConfig) error {
	var errs []error

	if cfg.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_depth must be positive, got %d", ErrInvalidResolverSettings, cfg.MaxDepth))
	}

	if cfg.LRUSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: lru_size must be positive, got %d", ErrInvalidResolverSettings, cfg.LRUSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
