package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Coordinator:
// - Start blocks until the context is cancelled, then stops the file watcher
// - A file change pauses the watcher, refreshes, resumes and reports the result
// - Refresh errors are reported and do not stop the coordinator
// - An empty change list does not refresh
// - A file watcher start error is returned

type mockFileWatcher struct {
	mu          sync.Mutex
	startErr    error
	stopErr     error
	callback    func(files []string)
	calls       []string
	stopCalled  bool
	started     chan struct{}
	startedOnce sync.Once
}

func newMockFileWatcher() *mockFileWatcher {
	return &mockFileWatcher{started: make(chan struct{})}
}

func (m *mockFileWatcher) Start(ctx context.Context, callback func(files []string)) error {
	m.mu.Lock()
	m.callback = callback
	startErr := m.startErr
	m.mu.Unlock()
	m.startedOnce.Do(func() { close(m.started) })

	if startErr != nil {
		return startErr
	}
	<-ctx.Done()
	return nil
}

func (m *mockFileWatcher) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return m.stopErr
}

func (m *mockFileWatcher) Pause() { m.record("pause") }

func (m *mockFileWatcher) Resume() { m.record("resume") }

func (m *mockFileWatcher) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockFileWatcher) trigger(files []string) {
	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	if cb != nil {
		cb(files)
	}
}

type mockRefresher struct {
	files *mockFileWatcher
	err   error
	calls int
	mu    sync.Mutex
}

func (m *mockRefresher) Refresh(ctx context.Context) error {
	m.files.record("refresh")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.err
}

func (m *mockRefresher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type refreshReport struct {
	files []string
	err   error
}

func startCoordinator(t *testing.T, refreshErr error) (*mockFileWatcher, *mockRefresher, chan refreshReport, context.CancelFunc, chan error) {
	t.Helper()
	files := newMockFileWatcher()
	target := &mockRefresher{files: files, err: refreshErr}
	reports := make(chan refreshReport, 4)

	coord := NewCoordinator(files, target, func(changed []string, err error, took time.Duration) {
		reports <- refreshReport{files: changed, err: err}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- coord.Start(ctx) }()

	select {
	case <-files.started:
	case <-time.After(time.Second):
		t.Fatal("file watcher not started")
	}
	return files, target, reports, cancel, done
}

func TestCoordinator_StopsOnCancel(t *testing.T) {
	t.Parallel()

	files, _, _, cancel, done := startCoordinator(t, nil)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("coordinator did not stop")
	}

	files.mu.Lock()
	defer files.mu.Unlock()
	assert.True(t, files.stopCalled)
}

func TestCoordinator_FileChangeRefreshes(t *testing.T) {
	t.Parallel()

	files, target, reports, cancel, _ := startCoordinator(t, nil)
	defer cancel()

	files.trigger([]string{"Guns/Pistol.prefab"})

	report := <-reports
	assert.NoError(t, report.err)
	assert.Equal(t, []string{"Guns/Pistol.prefab"}, report.files)
	assert.Equal(t, 1, target.count())

	files.mu.Lock()
	defer files.mu.Unlock()
	assert.Equal(t, []string{"pause", "refresh", "resume"}, files.calls)
}

func TestCoordinator_RefreshErrorIsReported(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	files, target, reports, cancel, _ := startCoordinator(t, boom)
	defer cancel()

	files.trigger([]string{"a.prefab"})
	assert.ErrorIs(t, (<-reports).err, boom)

	files.trigger([]string{"b.prefab"})
	assert.ErrorIs(t, (<-reports).err, boom)
	assert.Equal(t, 2, target.count())
}

func TestCoordinator_EmptyChangeList(t *testing.T) {
	t.Parallel()

	files, target, _, cancel, _ := startCoordinator(t, nil)
	defer cancel()

	files.trigger(nil)
	assert.Zero(t, target.count())
}

func TestCoordinator_StartError(t *testing.T) {
	t.Parallel()

	files := newMockFileWatcher()
	files.startErr = errors.New("no inotify")
	coord := NewCoordinator(files, &mockRefresher{files: files}, nil)

	err := coord.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, "no inotify", err.Error())
}
