package otel

import (
	"os"
	"strings"
	"sync/atomic"
)

// traceOn is read on every UI message, so it is a single atomic load.
var traceOn atomic.Bool

func init() {
	traceOn.Store(truthy(os.Getenv("STRATEGIST_TRACE")))
}

// truthy treats anything but empty, 0, false, no and off as enabled.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}

// TraceEnabled reports whether STRATEGIST_TRACE asked for per-message
// trace events.
func TraceEnabled() bool {
	return traceOn.Load()
}

func setTraceEnabled(v bool) {
	traceOn.Store(v)
}
