package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/catalog"
	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/watcher"
)

var (
	forceFlag bool
	quietFlag bool
	watchFlag bool
	onlyFlag  []string
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Build the GUID index and every repository",
	Long: `Extract scans the asset root for .meta sidecars, builds the GUID index
and loads every repository, reusing cached tables when present.

Repositories load in dependency stages: volleys need projectiles, guns need
projectiles and volleys, encounters need translations. --only selects
repositories together with everything they depend on.

Examples:
  # Extract everything, reusing caches
  etgx extract

  # Ignore caches and rebuild from the assets
  etgx extract --force

  # Only guns (loads projectiles and volleys too)
  etgx extract --only guns

  # Keep running and rebuild whenever assets change
  etgx extract --watch
`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Ignore cached tables and rebuild from the assets")
	extractCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	extractCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the asset root and rebuild on changes")
	extractCmd.Flags().StringSliceVar(&onlyFlag, "only", nil, "Repositories to extract (comma separated)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	progress := NewCLIProgressReporter(quietFlag)
	svc, err := catalog.Open(ctx, cfg, catalog.Options{
		Force:         forceFlag,
		Only:          onlyFlag,
		Progress:      progress,
		IndexProgress: progress.OnIndexProgress,
	})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("extraction cancelled")
		}
		return fmt.Errorf("extraction failed: %w", err)
	}

	rows := summarize(svc)
	if quietFlag {
		total := 0
		for _, r := range rows {
			total += r.entries
		}
		fmt.Printf("Extraction complete: %d records in %d repositories\n", total, len(rows))
	} else {
		progress.Summary(rows)
	}

	if !watchFlag {
		return nil
	}
	return runWatch(ctx, cfg, svc)
}

func summarize(svc *catalog.Service) []summaryRow {
	var rows []summaryRow
	for _, name := range svc.Selected() {
		t, err := svc.Table(name)
		if err != nil {
			continue
		}
		rows = append(rows, summaryRow{name: name, entries: t.Len(), stats: t.Stats()})
	}
	return rows
}

// runWatch rebuilds the selected repositories whenever assets change. It
// blocks until ctx is cancelled.
func runWatch(ctx context.Context, cfg *config.Config, svc *catalog.Service) error {
	fw, err := watcher.NewFileWatcher(svc.Root(), watcher.Options{
		Suffixes: watchSuffixes(cfg),
		Ignore:   cfg.Assets.Ignore,
		Debounce: time.Duration(cfg.Watch.DebounceMS) * time.Millisecond,
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	coord := watcher.NewCoordinator(fw, svc, func(files []string, err error, took time.Duration) {
		if err != nil || quietFlag {
			return
		}
		for _, r := range summarize(svc) {
			log.Printf("[%s] %s records", r.name, formatNumber(r.entries))
		}
	})

	if !quietFlag {
		log.Printf("Watching %s for changes (Ctrl+C to stop)...", svc.Root())
	}
	if err := coord.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch mode failed: %w", err)
	}
	if !quietFlag {
		log.Println("Watch mode stopped")
	}
	return nil
}

// watchSuffixes swaps the configured sidecar extension into the default
// watched suffixes.
func watchSuffixes(cfg *config.Config) []string {
	suffixes := make([]string, 0, len(watcher.DefaultSuffixes))
	for _, s := range watcher.DefaultSuffixes {
		if s == ".meta" {
			s = cfg.Assets.MetaExt
		}
		suffixes = append(suffixes, s)
	}
	return suffixes
}
