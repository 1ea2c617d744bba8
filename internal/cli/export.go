package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/storage"
)

var exportOutFlag string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every repository to a SQLite database",
	Long: `Export loads every repository (from cache when possible) and writes it
to a SQLite database: one row per record in the records table, holding the
record as JSON, plus per-repository stats in the repositories table.

Re-exporting into the same file replaces each repository's rows.

Examples:
  etgx export --out etgx.db
  sqlite3 etgx.db "SELECT json_extract(data, '$.name') FROM records WHERE repo = 'guns'"
`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutFlag, "out", "o", "", "Database file (default export.path from config)")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := exportOutFlag
	if out == "" {
		out = cfg.Export.Path
	}

	svc, err := openService(ctx)
	if err != nil {
		return err
	}

	w, err := storage.NewWriter(out)
	if err != nil {
		return err
	}
	defer w.Close()

	written, err := w.WriteTables(ctx, svc.Tables())
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	total := 0
	for _, n := range written {
		total += n
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s records from %d repositories to %s\n", formatNumber(total), len(written), out)
	return nil
}
