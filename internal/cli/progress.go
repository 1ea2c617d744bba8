package cli

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/etg-extract/internal/repository"
)

// CLIProgressReporter renders extraction progress with progress bars.
// Repositories of one stage load concurrently, so their candidates share a
// single bar whose total grows as each discovery completes.
type CLIProgressReporter struct {
	quiet     bool
	mu        sync.Mutex
	indexBar  *progressbar.ProgressBar
	fileBar   *progressbar.ProgressBar
	total     int
	startTime time.Time
}

var _ repository.ProgressReporter = (*CLIProgressReporter)(nil)

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func newBar(total int, description, its string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(its),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

// OnIndexProgress is passed as catalog.Options.IndexProgress.
func (c *CLIProgressReporter) OnIndexProgress(processed, total int) {
	if c.quiet || total == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexBar == nil {
		c.indexBar = newBar(total, "Indexing .meta files", "files/s")
	}
	c.indexBar.Set(processed)
	if processed == total {
		c.indexBar.Finish()
		c.indexBar = nil
	}
}

func (c *CLIProgressReporter) OnCacheHit(repo string, entries int) {
	if c.quiet {
		return
	}
	log.Printf("[%s] restored %s records from cache", repo, formatNumber(entries))
}

func (c *CLIProgressReporter) OnDiscoveryComplete(repo string, candidates int) {
	if c.quiet || candidates == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fileBar != nil && c.fileBar.IsFinished() {
		c.fileBar = nil
	}
	if c.fileBar == nil {
		c.total = 0
		c.fileBar = newBar(candidates, "Extracting assets", "files/s")
	}
	c.total += candidates
	c.fileBar.ChangeMax(c.total)
}

func (c *CLIProgressReporter) OnFileProcessed(repo string, fileName string) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fileBar != nil {
		c.fileBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(repo string, stats repository.Stats) {
	if c.quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fileBar != nil && c.fileBar.IsFinished() {
		c.fileBar = nil
	}
	if stats.FromCache {
		return
	}
	log.Printf("[%s] %s records from %s candidates (%d skipped, %d duplicates) in %s",
		repo, formatNumber(stats.Entries), formatNumber(stats.Candidates),
		stats.Skipped, stats.Duplicates, formatDuration(stats.Duration))
}

// Summary prints the final per-repository counts.
func (c *CLIProgressReporter) Summary(rows []summaryRow) {
	fmt.Println()
	fmt.Printf("✓ Extraction complete in %s\n", formatDuration(time.Since(c.startTime)))
	for _, r := range rows {
		source := "parsed"
		if r.stats.FromCache {
			source = "cached"
		}
		fmt.Printf("  %-20s %8s  (%s)\n", r.name, formatNumber(r.entries), source)
	}
}

type summaryRow struct {
	name    string
	entries int
	stats   repository.Stats
}

// formatNumber renders n with thousands separators.
func formatNumber(n int) string {
	if n < 1000 && n > -1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	sign := ""
	if str[0] == '-' {
		sign, str = "-", str[1:]
	}
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return sign + result
}

// formatDuration renders short durations with millisecond precision and
// long ones in the largest two units.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	seconds := int(d.Seconds())
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if secs > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%dm", minutes)
}
