package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/catalog"
	"github.com/mvp-joe/etg-extract/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "etgx",
	Short: "etgx - extract game data from exported Unity assets",
	Long: `etgx reads an exported Unity project (.meta sidecars plus prefab and
asset YAML files), resolves cross-file references by GUID and builds typed
tables of guns, projectiles, volleys, players, sprites and pickups.

Tables are cached as JSON under the cache directory and reused until
rebuilt with --force or removed with 'etgx cache clean'.

Configuration is read from .etgx/config.yml in the working directory and
ETGX_* environment variables.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .etgx/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration from --config or from .etgx/ in the
// working directory.
func loadConfig() (*config.Config, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	var loader config.Loader
	if cfgFile != "" {
		loader = config.NewFileLoader(rootDir, cfgFile)
	} else {
		loader = config.NewLoader(rootDir)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Asset root: %s\n", cfg.Assets.Root)
	}
	return cfg, nil
}

// openService loads the configuration and opens the catalog with the given
// repositories selected. An empty selection loads everything.
func openService(ctx context.Context, only ...string) (*catalog.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	svc, err := catalog.Open(ctx, cfg, catalog.Options{Only: only})
	if err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}
	return svc, nil
}

// signalContext returns a context cancelled on Ctrl+C or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
