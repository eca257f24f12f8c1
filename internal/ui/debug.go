package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/strategist/internal/otel"
)

const (
	// debugPanelChrome is the border plus vertical padding of DebugPanel.
	debugPanelChrome = 4
	debugRecent      = 20
	debugMaxWidth    = 96
)

// statRow is one labelled line of the overlay's summary.
type statRow struct {
	label  string
	format string
	args   func(kinds map[otel.EventKind]int, levels map[otel.Level]int) []any
}

var debugStatRows = []statRow{
	{"Analyses", "%d started, %d complete, %d errors, %d rejected, %d stale", func(k map[otel.EventKind]int, _ map[otel.Level]int) []any {
		return []any{k[otel.KindAnalysisStart], k[otel.KindAnalysisComplete], k[otel.KindAnalysisError], k[otel.KindAnalysisRejected], k[otel.KindAnalysisStale]}
	}},
	{"Stored", "%d fetched, %d missing", func(k map[otel.EventKind]int, _ map[otel.Level]int) []any {
		return []any{k[otel.KindStoredFetch], k[otel.KindStoredMiss]}
	}},
	{"Gateway", "%d requests, %d errors", func(k map[otel.EventKind]int, _ map[otel.Level]int) []any {
		return []any{k[otel.KindGatewayRequest], k[otel.KindGatewayError]}
	}},
	{"Files", "%d uploads, %d exports", func(k map[otel.EventKind]int, _ map[otel.Level]int) []any {
		return []any{k[otel.KindUploadComplete], k[otel.KindExportComplete]}
	}},
	{"Levels", "%d warn, %d error", func(_ map[otel.EventKind]int, l map[otel.Level]int) []any {
		return []any{l[otel.LevelWarn], l[otel.LevelError]}
	}},
}

// debugOverlay draws counters and the latest events from ring. Empty when
// there is no ring.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}
	kinds, levels := ring.Stats(), ring.LevelCounts()

	lines := []string{DebugHeaderStyle.Render("Session Stats")}
	for _, row := range debugStatRows {
		lines = append(lines, fmt.Sprintf("  %-11s %s", row.label+":", fmt.Sprintf(row.format, row.args(kinds, levels)...)))
	}
	lines = append(lines,
		fmt.Sprintf("  %-11s %d / %d events", "Buffer:", ring.Len(), ring.Cap()),
		"",
		DebugHeaderStyle.Render("Recent Events"),
	)
	now := time.Now()
	for _, e := range ring.Last(debugRecent) {
		lines = append(lines, eventLine(e, now))
	}

	if limit := max(1, height-debugPanelChrome); len(lines) > limit {
		lines = lines[:limit]
	}
	w := max(20, min(debugMaxWidth, width-4))
	return DebugPanel.Width(w).Render(strings.Join(lines, "\n"))
}

func eventLine(e otel.Event, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %6s  %-18s", formatAge(now.Sub(e.Time)), e.Kind)
	if e.ArticleID != "" {
		b.WriteString("  art:" + truncateRunes(e.ArticleID, 8))
	}
	if e.Msg != "" {
		b.WriteString("  " + truncateRunes(e.Msg, 40))
	}
	if e.Err != "" {
		b.WriteString("  ERR:" + truncateRunes(e.Err, 30))
	}
	return b.String()
}

// formatAge is a compact age: milliseconds, tenths of seconds, then whole
// minutes. Negative ages from clock skew read as 0ms.
func formatAge(d time.Duration) string {
	switch {
	case d < 0:
		return "0ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.0fm", d.Minutes())
}

func debugStatusBar(width int) string {
	return StatusBar.Width(width).Render("  [EVENTS]  " + StatusBarKey.Render("?") + StatusBarText.Render(":close"))
}
