package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/strategist/internal/otel"
	"github.com/abelbrown/strategist/internal/session"
)

func ringOf(size int, evs ...otel.Event) *otel.RingBuffer {
	r := otel.NewRingBuffer(size)
	now := time.Now()
	for _, e := range evs {
		if e.Time.IsZero() {
			e.Time = now
		}
		r.Push(e)
	}
	return r
}

func TestDebugOverlayWithoutRing(t *testing.T) {
	if got := debugOverlay(nil, 80, 24); got != "" {
		t.Errorf("expected nothing without a ring, got %q", got)
	}
}

func TestDebugOverlayContent(t *testing.T) {
	ring := ringOf(64,
		otel.Event{Kind: otel.KindAnalysisStart},
		otel.Event{Kind: otel.KindAnalysisStart, ArticleID: "abcdef1234567890"},
		otel.Event{Kind: otel.KindAnalysisComplete, Msg: "hello world"},
		otel.Event{Kind: otel.KindAnalysisError, Level: otel.LevelError, Err: "timeout"},
		otel.Event{Kind: otel.KindStoredMiss, Level: otel.LevelWarn},
	)
	out := debugOverlay(ring, 200, 40)

	for _, want := range []string{
		"Session Stats",
		"2 started, 1 complete, 1 errors, 0 rejected, 0 stale",
		"0 fetched, 1 missing",
		"1 warn, 1 error",
		"5 / 64 events",
		"Recent Events",
		"art:abcdef1…",
		"hello world",
		"ERR:timeout",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("overlay missing %q:\n%s", want, out)
		}
	}
}

func TestDebugOverlayFitsHeight(t *testing.T) {
	var evs []otel.Event
	for i := 0; i < 30; i++ {
		evs = append(evs, otel.Event{Kind: otel.KindGatewayRequest})
	}
	out := debugOverlay(ringOf(64, evs...), 80, 10)

	// 6 content lines plus chrome
	if n := strings.Count(out, "\n") + 1; n > 10 {
		t.Errorf("overlay is %d lines tall at height 10:\n%s", n, out)
	}
	if strings.Contains(out, "Recent Events") {
		t.Error("recent events should be cut at this height")
	}
}

func TestEventLineAge(t *testing.T) {
	now := time.Now()
	line := eventLine(otel.Event{Kind: otel.KindExportComplete, Time: now.Add(-1500 * time.Millisecond)}, now)
	if !strings.Contains(line, "1.5s") || !strings.Contains(line, "export.complete") {
		t.Errorf("unexpected line %q", line)
	}
}

func TestDebugToggle(t *testing.T) {
	sess := session.New(newStub(), session.Config{})
	app := NewAppWithConfig(AppConfig{Session: sess, Ring: otel.NewRingBuffer(16)})
	app.ready = true
	app.width, app.height = 100, 30

	toggle := func(a App) App {
		m, _ := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
		return m.(App)
	}

	app = toggle(app)
	if !app.showDebug {
		t.Fatal("? should open the overlay")
	}
	if !strings.Contains(app.View(), "[EVENTS]") {
		t.Errorf("overlay status bar missing:\n%s", app.View())
	}
	if app = toggle(app); app.showDebug {
		t.Error("second ? should close the overlay")
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{-5 * time.Second, "0ms"},
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{999 * time.Millisecond, "999ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "2m"},
		{5 * time.Minute, "5m"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.in); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
