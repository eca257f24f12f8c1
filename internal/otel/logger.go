package otel

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// queueSize bounds the events waiting for the writer. Emit never blocks;
// events beyond this are counted as lost.
const queueSize = 4096

// Logger writes events as JSON lines from a single background goroutine
// and mirrors them into an optional RingBuffer. Safe for concurrent use.
// A nil *Logger discards everything, so components can take an optional
// logger without guarding each call.
type Logger struct {
	session string
	out     io.Writer
	queue   chan Event
	ring    atomic.Pointer[RingBuffer]
	lost    atomic.Uint64
	done    chan struct{}

	// mu orders sends on queue against Close closing it
	mu      sync.RWMutex
	stopped bool
}

// NewLogger starts a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session: newSessionID(),
		out:     w,
		queue:   make(chan Event, queueSize),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// NewNullLogger returns a Logger whose output is discarded. The ring
// buffer, if attached, still fills.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

func newSessionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// run encodes and writes queued events until the queue is closed.
func (l *Logger) run() {
	defer close(l.done)
	enc := json.NewEncoder(l.out)
	for e := range l.queue {
		// Encode appends the newline
		if err := enc.Encode(e); err != nil {
			l.lost.Add(1)
		}
		if rb := l.ring.Load(); rb != nil {
			rb.Push(e)
		}
	}
}

// Emit queues e. Time defaults to now and SessionID is always set.
// When the queue is full or the logger is closed the event is lost.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.stopped {
		l.lost.Add(1)
		return
	}
	select {
	case l.queue <- e:
	default:
		l.lost.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp string, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is recorded as empty.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: errString(err)})
}

// Article emits an event scoped to one article. A non-nil err promotes the
// level to error.
func (l *Logger) Article(kind EventKind, comp, articleID string, dur time.Duration, err error) {
	lvl := LevelInfo
	if err != nil {
		lvl = LevelError
	}
	l.Emit(Event{Level: lvl, Kind: kind, Comp: comp, ArticleID: articleID, Dur: dur, Err: errString(err)})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// SetRingBuffer mirrors subsequent events into buf. Nil detaches.
func (l *Logger) SetRingBuffer(buf *RingBuffer) {
	if l == nil {
		return
	}
	l.ring.Store(buf)
}

// Dropped reports how many events were lost to a full queue, a closed
// logger or a failed write.
func (l *Logger) Dropped() uint64 {
	if l == nil {
		return 0
	}
	return l.lost.Load()
}

// Close flushes queued events and stops the writer. Later Emit calls are
// counted as lost. Losses are reported on stderr. Idempotent.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done
	if n := l.lost.Load(); n > 0 {
		fmt.Fprintf(os.Stderr, "strategist: %d events lost in session %s\n", n, l.session)
	}
}
