package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/etg-extract/internal/catalog"
	"github.com/mvp-joe/etg-extract/internal/legacyid"
	"github.com/mvp-joe/etg-extract/internal/unityasset"
)

var noExponentFloatsFlag bool

var dumpCmd = &cobra.Command{
	Use:   "dump <asset-file>",
	Short: "Parse one asset file and print its blocks as JSON",
	Long: `Dump tokenizes and parses a single prefab/asset file, resolves every
{guid: ...} reference through the GUID index and prints the blocks as JSON.
Resolved references carry a resolvedPath field.

The path may be relative to the working directory or to the asset root.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

var decodeIDsCmd = &cobra.Command{
	Use:   "decode-ids <hex>",
	Short: "Decode a packed little-endian id string",
	Long: `Decode-ids decodes the packed id strings used for fields such as
startingGunIds: 8 hex digits per little-endian uint32, with the exporter's
punctuation corruption ('(' for '8' and so on) undone.

Example:
  etgx decode-ids 04000000(c000000`,
	Args: cobra.ExactArgs(1),
	RunE: runDecodeIDs,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(decodeIDsCmd)
	dumpCmd.Flags().BoolVar(&noExponentFloatsFlag, "no-exponent-floats", false, "Keep exponent notation scalars as strings")
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := catalog.New(cfg, catalog.Options{})
	if err != nil {
		return err
	}
	if err := svc.LoadIndex(ctx, false); err != nil {
		return err
	}

	path := args[0]
	if _, err := os.Stat(path); err == nil {
		if path, err = filepath.Abs(path); err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
	}

	blocks, err := svc.Resolver().ParseFileWith(path, unityasset.ParseOptions{NoExponentFloats: noExponentFloatsFlag})
	if err != nil {
		return err
	}

	data, err := unityasset.MarshalBlocks(blocks)
	if err != nil {
		return fmt.Errorf("failed to encode blocks: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func runDecodeIDs(cmd *cobra.Command, args []string) error {
	ids, err := legacyid.DecodeInts(strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), ids)
}
