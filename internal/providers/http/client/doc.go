// Package client provides the HTTP transport used by remote addon repositories.
//
// Built on go-resty/resty over a go-retryablehttp client:
//   - Connection errors, 429 and 5xx answers are retried with backoff
//   - A token bucket limiter throttles outgoing requests
//   - Each host gets its own circuit breaker; 4xx answers do not trip it
//   - JSON bodies are encoded and decoded with sonic
//
// Non-2xx answers surface as *StatusError so callers can tell a missing
// package from an outage:
//
//	var pkgs []curseAddon
//	err := c.PostJSON(ctx, base+"/addon", ids, &pkgs)
//	if client.IsStatus(err, http.StatusNotFound) {
//		...
//	}
//
// Download writes archives under a random name, checks that the result
// really is a zip archive, then moves it into place with a resilient rename.
package client
