package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResilient(t *testing.T) (*Resilient, *[]time.Duration, *monitoring.Metrics) {
	t.Helper()
	var slept []time.Duration
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	r := NewResilient(DefaultRetryStart, DefaultRetrySteps, metrics, logging.NewNop())
	r.Sleep = func(d time.Duration) { slept = append(slept, d) }
	return r, &slept, metrics
}

func TestResilientRetriesLockedUntilScheduleExhausted(t *testing.T) {
	r, slept, metrics := newTestResilient(t)
	calls := 0

	err := r.do("rename", "/addons/AddonX", func() error {
		calls++
		return &os.PathError{Op: "rename", Path: "/addons/AddonX", Err: fs.ErrPermission}
	})

	var fsErr *types.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, "rename", fsErr.Op)
	assert.Equal(t, 22, fsErr.Attempts)
	assert.Equal(t, 22, calls)
	assert.Len(t, *slept, 21)
	assert.Equal(t, 28656*time.Millisecond, resilience.Total(*slept))
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, 21.0, testutil.ToFloat64(metrics.FilesystemRetries.WithLabelValues("rename")))
}

func TestResilientReturnsOtherErrorsImmediately(t *testing.T) {
	r, slept, _ := newTestResilient(t)

	err := r.Remove(filepath.Join(t.TempDir(), "missing"))

	var fsErr *types.FilesystemError
	require.ErrorAs(t, err, &fsErr)
	assert.Equal(t, 1, fsErr.Attempts)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, *slept)
}

func TestResilientSucceedsOnceUnlocked(t *testing.T) {
	r, slept, _ := newTestResilient(t)
	calls := 0

	err := r.do("remove", "x", func() error {
		calls++
		if calls < 4 {
			return fs.ErrPermission
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond, 2 * time.Millisecond}, *slept)
}

func TestRenameAndRemoveAll(t *testing.T) {
	dir := t.TempDir()
	from := filepath.Join(dir, "a")
	to := filepath.Join(dir, "b")
	require.NoError(t, os.MkdirAll(filepath.Join(from, "nested"), 0o755))

	require.NoError(t, Rename(from, to))
	assert.NoDirExists(t, from)
	assert.DirExists(t, filepath.Join(to, "nested"))

	require.NoError(t, RemoveAll(to))
	assert.NoDirExists(t, to)

	// Removing an absent tree is not an error
	require.NoError(t, RemoveAll(to))
}

func TestIsLocked(t *testing.T) {
	assert.True(t, IsLocked(fs.ErrPermission))
	assert.True(t, IsLocked(&os.PathError{Op: "open", Err: fs.ErrPermission}))
	assert.False(t, IsLocked(fs.ErrNotExist))
	assert.False(t, IsLocked(errors.New("disk full")))
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "addons.yml")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
