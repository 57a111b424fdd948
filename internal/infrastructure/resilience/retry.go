package resilience

import "time"

// Sleeper pauses between attempts. Tests replace it to avoid real waits.
type Sleeper func(time.Duration)

// Policy describes a bounded retry schedule.
type Policy struct {
	// Delays are slept, in order, before each retry. The operation runs at
	// most len(Delays)+1 times.
	Delays []time.Duration
	// Retryable reports whether a failed attempt may be retried.
	Retryable func(err error) bool
	// Sleep defaults to time.Sleep.
	Sleep Sleeper
	// OnRetry is called before each sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Fibonacci returns n delays growing as a Fibonacci sequence from start:
// start, start, 2*start, 3*start, 5*start, ...
func Fibonacci(start time.Duration, n int) []time.Duration {
	delays := make([]time.Duration, 0, n)
	curr, next := start, start
	for i := 0; i < n; i++ {
		delays = append(delays, curr)
		curr, next = next, curr+next
	}
	return delays
}

// Total returns the sum of the delays.
func Total(delays []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range delays {
		total += d
	}
	return total
}

// Retry runs op until it succeeds, fails with a non-retryable error, or the
// schedule is exhausted. It returns the last error and the number of attempts.
func Retry(policy Policy, op func() error) (int, error) {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	attempt := 0
	for {
		attempt++
		err := op()
		if err == nil {
			return attempt, nil
		}
		if policy.Retryable != nil && !policy.Retryable(err) {
			return attempt, err
		}
		if attempt > len(policy.Delays) {
			return attempt, err
		}

		delay := policy.Delays[attempt-1]
		if policy.OnRetry != nil {
			policy.OnRetry(attempt, delay, err)
		}
		sleep(delay)
	}
}
