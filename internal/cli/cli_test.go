package cli

// Test Plan for CLI commands:
// - version prints the version string
// - decode-ids prints decoded ids as JSON and rejects invalid characters
// - list and get read a repository through the catalog, using --config
// - get reports unknown repositories and missing keys
// - cache info lists tables written by a previous command
// - cache clean removes named tables, all tables with --all, and rejects bad arguments
// - export writes a SQLite database readable by storage.Reader
// - search finds pickups by translated name
// - formatNumber and formatDuration render human readable values
//
// Commands share package-level flag variables, so these tests do not run in
// parallel.

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/etg-extract/internal/config"
	"github.com/mvp-joe/etg-extract/internal/storage"
)

const testStrings = `#PISTOL_ENCNAME
Rusty Sidearm
#PISTOL_SHORTDESC
Still Works
`

// writeProject creates an asset root with one string table and a config
// file pointing at it. Returns the config path and the cache directory.
func writeProject(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "Assets")
	cacheDir := filepath.Join(dir, "cache")

	stringsDir := filepath.Join(root, "Resources", "strings", "english")
	require.NoError(t, os.MkdirAll(stringsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(stringsDir, "items.txt"), []byte(testStrings), 0644))

	cfgPath := filepath.Join(dir, "config.yml")
	cfg := "assets:\n  root: " + root + "\ncache:\n  dir: " + cacheDir + "\nexport:\n  path: " + filepath.Join(dir, "etgx.db") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))
	return cfgPath, cacheDir
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags() {
	cfgFile, verbose = "", false
	forceFlag, quietFlag, watchFlag, onlyFlag = false, false, false, nil
	cleanAllFlag = false
	exportOutFlag = ""
	searchLimitFlag, searchJSONFlag = 15, false
	noExponentFloatsFlag = false
	if f := cacheCleanCmd.Flags().Lookup("all"); f != nil {
		f.Changed = false
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "etgx "+Version)
}

func TestDecodeIDs(t *testing.T) {
	out, err := execute(t, "decode-ids", "04000000(c000000")
	require.NoError(t, err)
	assert.JSONEq(t, `[4, 140]`, out)

	_, err = execute(t, "decode-ids", "zz")
	assert.Error(t, err)
}

func TestListAndGet(t *testing.T) {
	cfgPath, _ := writeProject(t)

	out, err := execute(t, "--config", cfgPath, "list", config.RepoTranslations)
	require.NoError(t, err)
	assert.Equal(t, []string{"#PISTOL_ENCNAME", "#PISTOL_SHORTDESC"}, strings.Fields(out))

	out, err = execute(t, "--config", cfgPath, "get", config.RepoTranslations, "#PISTOL_ENCNAME")
	require.NoError(t, err)
	assert.JSONEq(t, `["Rusty Sidearm"]`, out)
}

func TestGet_Errors(t *testing.T) {
	cfgPath, _ := writeProject(t)

	_, err := execute(t, "--config", cfgPath, "get", "weapons", "4")
	assert.ErrorIs(t, err, config.ErrUnknownRepository)

	_, err = execute(t, "--config", cfgPath, "get", config.RepoTranslations, "#MISSING")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCacheInfoAndClean(t *testing.T) {
	cfgPath, cacheDir := writeProject(t)

	_, err := execute(t, "--config", cfgPath, "list", config.RepoTranslations)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cacheDir, config.RepoTranslations+".json"))

	out, err := execute(t, "--config", cfgPath, "cache", "info")
	require.NoError(t, err)
	assert.Contains(t, out, cacheDir)
	assert.Contains(t, out, config.RepoTranslations)
	assert.Contains(t, out, "guid-index")

	out, err = execute(t, "--config", cfgPath, "cache", "clean", config.RepoTranslations)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1")
	assert.NoFileExists(t, filepath.Join(cacheDir, config.RepoTranslations+".json"))
	assert.FileExists(t, filepath.Join(cacheDir, "guid-index.json"))

	out, err = execute(t, "--config", cfgPath, "cache", "clean", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1")
	assert.NoFileExists(t, filepath.Join(cacheDir, "guid-index.json"))
}

func TestCacheClean_Arguments(t *testing.T) {
	cfgPath, _ := writeProject(t)

	_, err := execute(t, "--config", cfgPath, "cache", "clean")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "cache", "clean", "--all", "guns")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfgPath, "cache", "clean", "weapons")
	assert.ErrorIs(t, err, config.ErrUnknownRepository)
}

func TestExport(t *testing.T) {
	cfgPath, _ := writeProject(t)
	dbPath := filepath.Join(t.TempDir(), "out.db")

	out, err := execute(t, "--config", cfgPath, "export", "--out", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 records")

	r, err := storage.NewReader(dbPath)
	require.NoError(t, err)
	defer r.Close()

	data, ok, err := r.Record(config.RepoTranslations, "#PISTOL_SHORTDESC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["Still Works"]`, string(data))

	infos, err := r.Repositories()
	require.NoError(t, err)
	assert.Len(t, infos, len(config.RepoNames))
}

func TestSearch_NoPickups(t *testing.T) {
	cfgPath, _ := writeProject(t)

	out, err := execute(t, "--config", cfgPath, "search", "pistol")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches")
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1,000", formatNumber(1000))
	assert.Equal(t, "1,234,567", formatNumber(1234567))
	assert.Equal(t, "-12,345", formatNumber(-12345))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "2.5s", formatDuration(2500*time.Millisecond))
	assert.Equal(t, "1m 30s", formatDuration(90*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
	assert.Equal(t, "1h 5m", formatDuration(65*time.Minute))
}
