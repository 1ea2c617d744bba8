package watcher

import (
	"context"
	"log"
	"sync"
	"time"
)

// RefreshFunc observes each finished refresh.
type RefreshFunc func(files []string, err error, took time.Duration)

// Coordinator routes debounced asset changes to a Refresher. The file
// watcher is paused while a refresh runs; changes made meanwhile fire once
// it resumes.
type Coordinator struct {
	files     FileWatcher
	target    Refresher
	onRefresh RefreshFunc

	mu  sync.Mutex
	ctx context.Context
}

// NewCoordinator creates a coordinator. onRefresh may be nil.
func NewCoordinator(files FileWatcher, target Refresher, onRefresh RefreshFunc) *Coordinator {
	return &Coordinator{
		files:     files,
		target:    target,
		onRefresh: onRefresh,
	}
}

// Start begins watching and blocks until ctx is cancelled or the file
// watcher fails to start.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	filesErr := make(chan error, 1)
	go func() {
		if err := c.files.Start(ctx, c.handleFileChange); err != nil {
			filesErr <- err
		}
	}()

	select {
	case err := <-filesErr:
		c.cleanup()
		return err
	case <-ctx.Done():
		c.cleanup()
		return ctx.Err()
	}
}

func (c *Coordinator) cleanup() {
	if err := c.files.Stop(); err != nil {
		log.Printf("Warning: file watcher stop failed: %v", err)
	}
}

func (c *Coordinator) handleFileChange(files []string) {
	if len(files) == 0 {
		return
	}

	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	c.files.Pause()
	defer c.files.Resume()

	log.Printf("Processing %d asset change(s)...", len(files))
	start := time.Now()
	err := c.target.Refresh(ctx)
	took := time.Since(start)
	if err != nil {
		log.Printf("Error: refresh failed: %v", err)
	} else {
		log.Printf("✓ Refreshed after %d change(s) in %.1fs", len(files), took.Seconds())
	}

	if c.onRefresh != nil {
		c.onRefresh(files, err, took)
	}
}
