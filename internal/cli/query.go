package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/config"
)

// ErrRecordNotFound is returned by `etgx get` for a missing key.
var ErrRecordNotFound = errors.New("record not found")

var getCmd = &cobra.Command{
	Use:   "get <repo> <key>",
	Short: "Print one record as JSON",
	Long: `Get loads a repository (from cache when possible) and prints one record
as indented JSON. Guns and encounters are keyed by pickup id, translations by
#KEY, everything else by asset path relative to the asset root.

Examples:
  etgx get guns 4
  etgx get translations '#PISTOL_ENCNAME'
  etgx get projectiles Guns/Bullet.prefab
`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

var listCmd = &cobra.Command{
	Use:   "list <repo>",
	Short: "List the keys of a repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
}

func checkRepo(name string) error {
	if !config.IsRepo(name) {
		return fmt.Errorf("%w: %s (known: %v)", config.ErrUnknownRepository, name, config.RepoNames)
	}
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	repo, key := args[0], args[1]
	if err := checkRepo(repo); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, repo)
	if err != nil {
		return err
	}
	table, err := svc.Table(repo)
	if err != nil {
		return err
	}

	record, ok := table.Record(key)
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrRecordNotFound, repo, key)
	}
	return writeJSON(cmd.OutOrStdout(), record)
}

func runList(cmd *cobra.Command, args []string) error {
	repo := args[0]
	if err := checkRepo(repo); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := openService(ctx, repo)
	if err != nil {
		return err
	}
	table, err := svc.Table(repo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, key := range table.Keys() {
		fmt.Fprintln(out, key)
	}
	return nil
}
