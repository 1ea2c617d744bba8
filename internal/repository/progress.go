package repository

// ProgressReporter provides callbacks for reporting repository load progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks may arrive from worker goroutines.
type ProgressReporter interface {
	// OnCacheHit is called when a repository adopts its cached table.
	OnCacheHit(repo string, entries int)

	// OnDiscoveryComplete is called when candidate discovery finishes.
	OnDiscoveryComplete(repo string, candidates int)

	// OnFileProcessed is called after each candidate file is handled.
	OnFileProcessed(repo string, fileName string)

	// OnComplete is called when a load completes successfully.
	OnComplete(repo string, stats Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnCacheHit(repo string, entries int)             {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(repo string, candidates int) {}
func (n *NoOpProgressReporter) OnFileProcessed(repo string, fileName string)    {}
func (n *NoOpProgressReporter) OnComplete(repo string, stats Stats)             {}
