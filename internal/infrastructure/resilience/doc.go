/*
Package resilience provides the failure-handling primitives used by the addon engine.

# Overview

Two independent tools live here:

  - Breaker: a circuit breaker placed in front of each remote repository host so
    that an unreachable source fails fast instead of stalling a refresh.
  - Retry: a bounded retry loop driven by an explicit delay schedule, used by the
    filesystem layer to wait out antivirus scanners holding file locks.

# Breaker

	breaker := resilience.New("curse", resilience.Settings{
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: func(err error) bool {
			return err != nil && !types.IsNotFound(err)
		},
	})

	err := breaker.Do(func() error {
		return fetch(ctx)
	})

States:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           v
	                                         Open

# Retry

	attempts, err := resilience.Retry(resilience.Policy{
		Delays:    resilience.Fibonacci(time.Millisecond, 21),
		Retryable: isLocked,
	}, func() error {
		return os.Rename(from, to)
	})

Fibonacci(1ms, 21) sums to roughly 28.7 seconds, one initial attempt plus 21 retries.
*/
package resilience
