// Package otel is strategist's event log: one JSON object per line,
// written off the caller's goroutine. The newest events can also be kept
// in memory for the debug overlay.
package otel

import (
	"encoding/json"
	"time"
)

// Level is an event's severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names what happened, as "<area>.<action>".
type EventKind string

const (
	// Project lifecycle
	KindProjectList   EventKind = "project.list"
	KindProjectCreate EventKind = "project.create"
	KindProjectSwitch EventKind = "project.switch"

	// Article list and navigation
	KindArticlesLoad EventKind = "article.load"
	KindArticleMove  EventKind = "article.move"

	// Analysis requests
	KindAnalysisStart    EventKind = "analysis.start"
	KindAnalysisComplete EventKind = "analysis.complete"
	KindAnalysisError    EventKind = "analysis.error"
	KindAnalysisRejected EventKind = "analysis.rejected"
	KindAnalysisStale    EventKind = "analysis.stale"

	// Stored analysis lookups
	KindStoredFetch EventKind = "stored.fetch"
	KindStoredMiss  EventKind = "stored.miss"

	// Upload and export
	KindUploadComplete EventKind = "upload.complete"
	KindUploadEmpty    EventKind = "upload.empty"
	KindUploadError    EventKind = "upload.error"
	KindExportComplete EventKind = "export.complete"
	KindExportError    EventKind = "export.error"

	// Remote calls
	KindGatewayRequest EventKind = "gateway.request"
	KindGatewayError   EventKind = "gateway.error"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"

	// Trace events, only emitted when STRATEGIST_TRACE is set
	KindMsgReceived EventKind = "trace.msg_received"
)

// Event is one structured record. Only Kind is required; Time is filled
// by the Logger when left zero.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "session", "gateway", "ui" or "server"
	SessionID string         `json:"session_id,omitempty"`
	ProjectID string         `json:"project_id,omitempty"`
	ArticleID string         `json:"article_id,omitempty"`
	Dur       time.Duration  `json:"-"`
	Count     int            `json:"count,omitempty"`
	Status    int            `json:"status,omitempty"` // HTTP status of a gateway call
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON writes Dur as fractional milliseconds under dur_ms.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	var wire struct {
		plain
		DurMs float64 `json:"dur_ms,omitempty"`
	}
	wire.plain = plain(e)
	if e.Dur > 0 {
		wire.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(wire)
}
