package config

import "time"

// WatcherBuilderOption is a functional option applied to a Watcher during construction.
type WatcherBuilderOption func(*watcherImpl)

// WithOnChange registers a callback run with a snapshot of every reloaded
// settings document. Callbacks run on the watcher goroutine.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - WatcherBuilderOption: a function that applies the callback option
func WithOnChange(fn func(Settings)) WatcherBuilderOption {
	return func(w *watcherImpl) {
		if fn != nil {
			w.onChange = append(w.onChange, fn)
		}
	}
}

// WithRetry sets how long a truncated or missing file is retried.
//
// Parameters:
//   - interval: the first retry delay
//   - maxElapsed: the total retry budget
//
// Returns:
//   - WatcherBuilderOption: a function that applies the retry option
func WithRetry(interval, maxElapsed time.Duration) WatcherBuilderOption {
	return func(w *watcherImpl) {
		if interval > 0 {
			w.retryInterval = interval
		}
		if maxElapsed > 0 {
			w.retryMaxElapsed = maxElapsed
		}
	}
}
