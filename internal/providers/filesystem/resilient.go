package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/GriffinCanCode/chmon/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/chmon/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/chmon/internal/logging"
	"github.com/GriffinCanCode/chmon/internal/shared/types"
	"go.uber.org/zap"
)

// Default lock-retry schedule: Fibonacci from 1ms over 21 steps, about 28.7s.
const (
	DefaultRetryStart = time.Millisecond
	DefaultRetrySteps = 21
)

// Resilient performs destructive filesystem operations that may briefly fail
// while another process (antivirus, indexer, the game) holds the target.
type Resilient struct {
	Delays  []time.Duration
	Sleep   resilience.Sleeper
	Metrics *monitoring.Metrics
	Logger  *logging.Logger
}

// NewResilient builds a Resilient with the given schedule.
func NewResilient(start time.Duration, steps int, metrics *monitoring.Metrics, logger *logging.Logger) *Resilient {
	return &Resilient{
		Delays:  resilience.Fibonacci(start, steps),
		Sleep:   time.Sleep,
		Metrics: metrics,
		Logger:  logger.Component("fs"),
	}
}

var defaultResilient = NewResilient(DefaultRetryStart, DefaultRetrySteps, nil, nil)

// Rename moves from to to with the default schedule.
func Rename(from, to string) error { return defaultResilient.Rename(from, to) }

// Remove deletes a file or empty directory with the default schedule.
func Remove(path string) error { return defaultResilient.Remove(path) }

// RemoveAll deletes a directory tree with the default schedule.
func RemoveAll(path string) error { return defaultResilient.RemoveAll(path) }

// Rename moves from to to, retrying while the target is locked.
func (r *Resilient) Rename(from, to string) error {
	return r.do("rename", from, func() error { return os.Rename(from, to) })
}

// Remove deletes path, retrying while it is locked.
func (r *Resilient) Remove(path string) error {
	return r.do("remove", path, func() error { return os.Remove(path) })
}

// RemoveAll deletes path and everything below it, retrying while locked.
func (r *Resilient) RemoveAll(path string) error {
	return r.do("remove_all", path, func() error { return os.RemoveAll(path) })
}

func (r *Resilient) do(op, path string, fn func() error) error {
	attempts, err := resilience.Retry(resilience.Policy{
		Delays:    r.Delays,
		Retryable: IsLocked,
		Sleep:     r.Sleep,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			r.Metrics.IncFilesystemRetry(op)
			if r.Logger != nil {
				r.Logger.Debug("path locked, retrying",
					zap.String("op", op),
					zap.String("path", path),
					zap.Int("attempt", attempt),
					zap.Duration("delay", delay),
					zap.Error(err))
			}
		},
	}, fn)
	if err != nil {
		return &types.FilesystemError{Op: op, Path: path, Attempts: attempts, Err: err}
	}
	return nil
}

// IsLocked reports whether err means another process holds the file.
func IsLocked(err error) bool {
	return errors.Is(err, fs.ErrPermission) || isSharingViolation(err)
}
