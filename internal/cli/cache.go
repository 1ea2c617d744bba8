package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/cache"
	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/guidindex"
)

var cleanAllFlag bool

// cacheCmd represents the cache command group
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the extracted table cache",
	Long: `Manage the JSON tables cached by 'etgx extract'.

Cached tables are never invalidated automatically. Remove them (or run
'etgx extract --force') after the assets change.

Available commands:
  info   - Show cache location and per-table stats
  clean  - Remove cached tables`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and per-table stats",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [repo...]",
	Short: "Remove cached tables",
	Long: `Clean removes cached tables so the next extract rebuilds them.

Examples:
  # Remove the guns and volleys tables
  etgx cache clean guns volleys

  # Remove every table, including the GUID index
  etgx cache clean --all
`,
	RunE: runCacheClean,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCleanCmd.Flags().BoolVarP(&cleanAllFlag, "all", "a", false, "Remove every cached table")
}

func openStore() (*cache.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewStore(cfg.Cache.Dir), nil
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	infos, err := store.Info()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache Location: %s\n", store.Root())
	if len(infos) == 0 {
		fmt.Fprintln(out, "No cached tables")
		return nil
	}

	var totalMB float64
	fmt.Fprintln(out)
	for _, info := range infos {
		fmt.Fprintf(out, "  %-20s %10s entries  %8.2f MB\n", info.Key, formatNumber(info.Entries), info.SizeMB)
		totalMB += info.SizeMB
	}
	fmt.Fprintf(out, "\nTotal Size: %.2f MB in %d tables\n", totalMB, len(infos))
	return nil
}

func runCacheClean(cmd *cobra.Command, args []string) error {
	if cleanAllFlag && len(args) > 0 {
		return fmt.Errorf("--all cannot be combined with repository names")
	}
	if !cleanAllFlag && len(args) == 0 {
		return fmt.Errorf("specify repositories to clean or --all")
	}

	keys := args
	for _, key := range keys {
		if key != guidindex.CacheKey && !config.IsRepo(key) {
			return fmt.Errorf("%w: %s", config.ErrUnknownRepository, key)
		}
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	if cleanAllFlag {
		if keys, err = store.Keys(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, key := range keys {
		if err := store.Remove(key); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(out, "  - %s\n", key)
		}
	}
	fmt.Fprintf(out, "✓ Removed %d cached table(s)\n", len(keys))
	return nil
}
