package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradeops/masterdata/internal/domain/masterdata"
)

// replaceFile swaps content in the way editors save: write a temp file,
// rename it over the original. Avoids the truncate-then-write window.
func replaceFile(t *testing.T, path, content string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func startWatcher(t *testing.T, cfg Config, datasets ...masterdata.Dataset) *Watcher {
	t.Helper()
	w := New(cfg, datasets, zap.NewNop())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = w.Stop(stopCtx)
	})
	return w
}

func waitEvent(w *Watcher, timeout time.Duration) (Event, bool) {
	select {
	case e := <-w.Events():
		return e, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestWatcher_EmitsOnContentChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tariff.csv")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	ds := masterdata.Dataset{Key: "tariff_rates", Path: path}
	w := startWatcher(t, Config{Debounce: 30 * time.Millisecond, PollInterval: 100 * time.Millisecond}, ds)

	replaceFile(t, path, "new content")

	ev, ok := waitEvent(w, 3*time.Second)
	require.True(t, ok, "expected a change event")
	assert.Equal(t, "tariff_rates", ev.DatasetKey)
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, masterdata.FingerprintBytes([]byte("new content")), ev.Fingerprint)
	assert.False(t, ev.At.IsZero())
}

func TestWatcher_IgnoresIdenticalRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hs.csv")
	require.NoError(t, os.WriteFile(path, []byte("same"), 0o644))

	ds := masterdata.Dataset{Key: "hs_codes", Path: path}
	w := startWatcher(t, Config{Debounce: 30 * time.Millisecond, PollInterval: 50 * time.Millisecond}, ds)

	replaceFile(t, path, "same")

	_, ok := waitEvent(w, 300*time.Millisecond)
	assert.False(t, ok, "identical content must not produce an event")
}

func TestWatcher_CoalescesEventBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fta.csv")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	ds := masterdata.Dataset{Key: "fta_rates", Path: path}
	// Polling effectively off so only the debounced native path fires.
	w := startWatcher(t, Config{Debounce: 150 * time.Millisecond, PollInterval: time.Hour}, ds)

	replaceFile(t, path, "v1")
	replaceFile(t, path, "v2")
	replaceFile(t, path, "v3")

	ev, ok := waitEvent(w, 3*time.Second)
	require.True(t, ok, "expected one coalesced event")
	assert.Equal(t, masterdata.FingerprintBytes([]byte("v3")), ev.Fingerprint)

	_, again := waitEvent(w, 300*time.Millisecond)
	assert.False(t, again, "burst must collapse into a single event")
}

func TestWatcher_ToleratesTransientAbsence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "items.csv")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	ds := masterdata.Dataset{Key: "trade_items", Path: path}
	w := startWatcher(t, Config{Debounce: 30 * time.Millisecond, PollInterval: 50 * time.Millisecond}, ds)

	require.NoError(t, os.Remove(path))
	_, ok := waitEvent(w, 300*time.Millisecond)
	assert.False(t, ok, "absence alone must not produce an event")

	// Reappearing with the same content is not a change either.
	replaceFile(t, path, "content")
	_, ok = waitEvent(w, 300*time.Millisecond)
	assert.False(t, ok)

	replaceFile(t, path, "fresh content")
	ev, ok := waitEvent(w, 3*time.Second)
	require.True(t, ok)
	assert.Equal(t, masterdata.FingerprintBytes([]byte("fresh content")), ev.Fingerprint)
}

func TestWatcher_ReportsFileAppearingLater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.csv")

	ds := masterdata.Dataset{Key: "hs_codes", Path: path}
	w := startWatcher(t, Config{Debounce: 30 * time.Millisecond, PollInterval: 50 * time.Millisecond}, ds)

	replaceFile(t, path, "arrived")

	ev, ok := waitEvent(w, 3*time.Second)
	require.True(t, ok, "a file appearing with content is a change")
	assert.Equal(t, masterdata.FingerprintBytes([]byte("arrived")), ev.Fingerprint)
}

func TestWatcher_IgnoresUntrackedSiblings(t *testing.T) {
	dir := t.TempDir()
	tracked := filepath.Join(dir, "tracked.csv")
	sibling := filepath.Join(dir, "sibling.csv")
	require.NoError(t, os.WriteFile(tracked, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(sibling, []byte("b"), 0o644))

	ds := masterdata.Dataset{Key: "hs_codes", Path: tracked}
	w := startWatcher(t, Config{Debounce: 30 * time.Millisecond, PollInterval: 50 * time.Millisecond}, ds)

	replaceFile(t, sibling, "changed")

	_, ok := waitEvent(w, 300*time.Millisecond)
	assert.False(t, ok, "untracked files must not produce events")
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w := New(DefaultConfig(), []masterdata.Dataset{{Key: "hs_codes", Path: path}}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	require.NoError(t, w.Stop(stopCtx))
}

func TestConfig_Defaults(t *testing.T) {
	w := New(Config{}, nil, zap.NewNop())
	assert.Equal(t, 2*time.Second, w.config.Debounce)
	assert.Equal(t, 10*time.Second, w.config.PollInterval)
}
