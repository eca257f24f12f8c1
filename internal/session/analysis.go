package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/abelbrown/strategist/internal/logging"
	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/otel"
)

// Bounds for Options.Count.
const (
	MinOpportunities = 1
	MaxOpportunities = 5
)

// analysisRemote is the part of the gateway the controller needs.
type analysisRemote interface {
	Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.AnalysisResult, error)
	FetchArticle(ctx context.Context, articleID string) (*model.ArticleDetail, error)
}

// Options tune one analysis request.
type Options struct {
	// Free-form guidance appended to the prompt; trimmed, otherwise unchecked
	Instruction string
	// Opportunities to request. Nil defers to the server default.
	Count *int
}

func (o Options) validate() error {
	if o.Count != nil && (*o.Count < MinOpportunities || *o.Count > MaxOpportunities) {
		return fmt.Errorf("%w (got %d)", ErrCountOutOfRange, *o.Count)
	}
	return nil
}

// entry is the controller's state for one article.
type entry struct {
	result  *model.AnalysisResult
	ticket  uint64 // non-zero while a request is outstanding
	version uint64 // bumped whenever result changes
}

// Controller caches analysis results per article and allows at most one
// outstanding analysis request per article.
//
// Goroutine-safe: requests complete on command goroutines while the UI
// reads results from its own.
type Controller struct {
	remote analysisRemote
	events *otel.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64
	epoch   uint64
}

// NewController creates a Controller. events may be nil.
func NewController(remote analysisRemote, events *otel.Logger) *Controller {
	return &Controller{
		remote:  remote,
		events:  events,
		entries: make(map[string]*entry),
	}
}

// Call is a reserved analysis request. Run it exactly once.
type Call struct {
	c      *Controller
	ticket uint64
	req    model.AnalyzeRequest
}

// ArticleID is the article the call was reserved for.
func (call *Call) ArticleID() string { return call.req.ArticleID }

// Begin validates a request and reserves the article. It fails without any
// network traffic when content is blank, when the count is out of range or
// when the article already has a request outstanding.
func (c *Controller) Begin(articleID, content string, opts Options) (*Call, error) {
	var ticket uint64
	err := c.check(content, opts)
	if err == nil {
		c.mu.Lock()
		e := c.entries[articleID]
		if e != nil && e.ticket != 0 {
			err = ErrAnalysisInFlight
		} else {
			if e == nil {
				e = &entry{}
				c.entries[articleID] = e
			}
			c.seq++
			e.ticket = c.seq
			ticket = e.ticket
		}
		c.mu.Unlock()
	}
	if err != nil {
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindAnalysisRejected, Comp: "session", ArticleID: articleID, Err: err.Error()})
		return nil, err
	}

	c.events.Article(otel.KindAnalysisStart, "session", articleID, 0, nil)
	return &Call{
		c:      c,
		ticket: ticket,
		req: model.AnalyzeRequest{
			ArticleID:        articleID,
			Content:          content,
			Instruction:      strings.TrimSpace(opts.Instruction),
			OpportunityCount: opts.Count,
		},
	}, nil
}

func (c *Controller) check(content string, opts Options) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	return opts.validate()
}

// Run sends the request and records the outcome. On success the result
// replaces whatever was cached. On failure the cached value is untouched.
// If the entry was invalidated meanwhile, the outcome is dropped and
// ErrSuperseded is returned.
func (call *Call) Run(ctx context.Context) (*model.AnalysisResult, error) {
	c := call.c
	id := call.req.ArticleID

	start := time.Now()
	res, err := c.remote.Analyze(ctx, call.req)
	dur := time.Since(start)
	if err == nil && res == nil {
		err = fmt.Errorf("analyze: empty response")
	}

	c.mu.Lock()
	e := c.entries[id]
	current := e != nil && e.ticket == call.ticket
	if current {
		e.ticket = 0
		if err == nil {
			e.result = res
			e.version++
		} else if e.result == nil {
			delete(c.entries, id)
		}
	}
	c.mu.Unlock()

	switch {
	case !current:
		logging.Debug("analysis result dropped", "article", id)
		c.events.Article(otel.KindAnalysisStale, "session", id, dur, nil)
		return nil, ErrSuperseded
	case err != nil:
		logging.Warn("analysis failed", "article", id, "err", err)
		c.events.Article(otel.KindAnalysisError, "session", id, dur, err)
		return nil, err
	}
	logging.Info("analysis complete", "article", id, "opportunities", len(res.Opportunities), "dur", dur)
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindAnalysisComplete, Comp: "session", ArticleID: id, Dur: dur, Count: len(res.Opportunities)})
	return res, nil
}

// RequestAnalysis is Begin followed by Run.
func (c *Controller) RequestAnalysis(ctx context.Context, articleID, content string, opts Options) (*model.AnalysisResult, error) {
	call, err := c.Begin(articleID, content, opts)
	if err != nil {
		return nil, err
	}
	return call.Run(ctx)
}

// FetchStored loads the analysis the server has stored for an article.
// It returns (nil, nil) when the server has none, leaving the entry absent.
// A request that completed while the fetch was outstanding wins over the
// fetched value.
func (c *Controller) FetchStored(ctx context.Context, articleID string) (*model.AnalysisResult, error) {
	c.mu.RLock()
	epoch := c.epoch
	var version uint64
	if e := c.entries[articleID]; e != nil {
		version = e.version
	}
	c.mu.RUnlock()

	start := time.Now()
	detail, err := c.remote.FetchArticle(ctx, articleID)
	dur := time.Since(start)
	if err != nil {
		c.events.Article(otel.KindStoredFetch, "session", articleID, dur, err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return nil, ErrSuperseded
	}
	e := c.entries[articleID]
	if e != nil && e.version != version {
		return e.result, nil
	}

	if detail.Analysis == nil {
		if e != nil {
			e.result = nil
			e.version++
			if e.ticket == 0 {
				delete(c.entries, articleID)
			}
		}
		c.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindStoredMiss, Comp: "session", ArticleID: articleID, Dur: dur})
		return nil, nil
	}

	if e == nil {
		e = &entry{}
		c.entries[articleID] = e
	}
	e.result = detail.Analysis
	e.version++
	c.events.Article(otel.KindStoredFetch, "session", articleID, dur, nil)
	return detail.Analysis, nil
}

// Invalidate drops everything known about an article, including an
// outstanding request, whose result will be discarded on arrival.
func (c *Controller) Invalidate(articleID string) {
	c.mu.Lock()
	delete(c.entries, articleID)
	c.mu.Unlock()
}

// Reset drops all entries. Requests and fetches started before the reset
// are discarded on arrival.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.epoch++
	c.mu.Unlock()
}

// Result returns the cached result for an article, or nil.
func (c *Controller) Result(articleID string) *model.AnalysisResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e := c.entries[articleID]; e != nil {
		return e.result
	}
	return nil
}

// InFlight reports whether an article has a request outstanding.
func (c *Controller) InFlight(articleID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e := c.entries[articleID]
	return e != nil && e.ticket != 0
}

// Pending counts outstanding requests.
func (c *Controller) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if e.ticket != 0 {
			n++
		}
	}
	return n
}
