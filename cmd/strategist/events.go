package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/strategist/internal/config"
)

// eventRecord mirrors otel.Event for JSON decoding, so old log lines still
// decode when the event schema grows.
type eventRecord struct {
	Time      time.Time `json:"t"`
	Level     string    `json:"level"`
	Kind      string    `json:"kind"`
	Comp      string    `json:"comp"`
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	ArticleID string    `json:"article_id"`
	DurMs     float64   `json:"dur_ms"`
	Count     int       `json:"count"`
	Status    int       `json:"status"`
	Err       string    `json:"err"`
	Msg       string    `json:"msg"`
}

// eventFilter selects log lines. Zero values match everything.
type eventFilter struct {
	kind    string // prefix
	level   string // minimum
	comp    string
	article string
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.article != "" && ev.ArticleID != f.article {
		return false
	}
	return true
}

var (
	flagTail    int
	flagFollow  bool
	flagFilter  eventFilter
	flagRawJSON bool
	flagLogPath string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the JSONL event log",
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVar(&flagTail, "tail", 50, "number of recent lines to show")
	f.BoolVarP(&flagFollow, "follow", "f", false, "keep printing new events")
	f.StringVar(&flagFilter.kind, "kind", "", "filter by event kind prefix (e.g. 'analysis')")
	f.StringVar(&flagFilter.level, "level", "", "minimum level: debug, info, warn, error")
	f.StringVar(&flagFilter.comp, "comp", "", "filter by component name")
	f.StringVar(&flagFilter.article, "article", "", "filter by article ID")
	f.BoolVar(&flagRawJSON, "json", false, "output raw JSON lines")
	f.StringVar(&flagLogPath, "file", "", "event log path (default: state dir)")
}

// levelRank orders levels for filtering, higher is more severe.
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

func runEvents(cmd *cobra.Command, args []string) error {
	path := flagLogPath
	if path == "" {
		path = config.EventsPath()
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run strategist first): %w", path, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	for _, l := range readTailLines(f, flagTail, flagFilter.match) {
		fmt.Fprintln(out, formatEvent(l.ev, l.raw, flagRawJSON))
	}
	if !flagFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return follow(ctx, f, out)
}

// follow polls r for appended lines until ctx is done.
func follow(ctx context.Context, r io.Reader, out io.Writer) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if flagFilter.match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, flagRawJSON))
		}
	}
}

func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-7s] %-18s", ev.Time.Local().Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Status > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", ev.Status))
	}
	if ev.ProjectID != "" {
		parts = append(parts, "proj="+ev.ProjectID)
	}
	if ev.ArticleID != "" {
		parts = append(parts, "art="+ev.ArticleID)
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines returns the last n lines of r that decode and match.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	if n <= 0 {
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil || !match(ev) {
			continue
		}
		// Scanner reuses its buffer
		line := parsedLine{ev: ev, raw: append([]byte(nil), raw...)}
		if len(ring) < n {
			ring = append(ring, line)
		} else {
			copy(ring, ring[1:])
			ring[n-1] = line
		}
	}
	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
