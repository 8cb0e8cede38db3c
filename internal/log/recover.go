// Package log holds small logging helpers shared across polyls's background
// goroutines.
package log

import "log/slog"

// RecoverPanic recovers a panic in the calling goroutine, logs it tagged
// with name, and invokes onPanic so the caller can mark whatever state the
// goroutine was serving as unhealthy. It must be called with defer.
func RecoverPanic(name string, onPanic func()) {
	if r := recover(); r != nil {
		slog.Error("recovered from panic", "goroutine", name, "panic", r)
		if onPanic != nil {
			onPanic()
		}
	}
}
