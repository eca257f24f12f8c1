package session

import "github.com/abelbrown/strategist/internal/model"

// Direction is a cursor step.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

type invalidator interface {
	Invalidate(articleID string)
}

// Transition is the result of the navigator changing its current article.
// The session turns it into display changes; see Session.enter.
type Transition struct {
	From    model.Article // zero when there was no previous article
	To      model.Article
	FromSet bool
}

// Navigator owns the ordered article list of the active project, the cursor
// into it and the content staged for the current article.
//
// Every change of current article goes through a method that clears the
// staged content, so content pasted for one article can never be submitted
// for another.
type Navigator struct {
	articles []model.Article
	cursor   int
	staged   string
	loaded   bool
	cache    invalidator
}

// NewNavigator creates an unloaded navigator. cache is told to drop the
// previous current article whenever the list is replaced.
func NewNavigator(cache invalidator) *Navigator {
	return &Navigator{cache: cache}
}

// SetList replaces the sequence and moves the cursor to the first article.
// It reports the new current article, or false for an empty list.
func (n *Navigator) SetList(articles []model.Article) (Transition, bool) {
	prev, hadPrev := n.Current()
	if hadPrev && n.cache != nil {
		n.cache.Invalidate(prev.ID)
	}

	n.articles = append([]model.Article(nil), articles...)
	n.cursor = 0
	n.staged = ""
	n.loaded = true

	next, ok := n.Current()
	if !ok {
		return Transition{}, false
	}
	return Transition{From: prev, FromSet: hadPrev, To: next}, true
}

// Move steps the cursor. At either end of the list, or on an empty list, it
// does nothing and reports false. The list never wraps.
func (n *Navigator) Move(dir Direction) (Transition, bool) {
	target := n.cursor + int(dir)
	if len(n.articles) == 0 || target < 0 || target >= len(n.articles) {
		return Transition{}, false
	}
	from := n.articles[n.cursor]
	n.cursor = target
	n.staged = ""
	return Transition{From: from, FromSet: true, To: n.articles[target]}, true
}

// Current returns the article under the cursor.
func (n *Navigator) Current() (model.Article, bool) {
	if len(n.articles) == 0 {
		return model.Article{}, false
	}
	if n.cursor < 0 || n.cursor >= len(n.articles) {
		n.cursor = clamp(n.cursor, 0, len(n.articles)-1)
	}
	return n.articles[n.cursor], true
}

// ApplyLocalCompletion marks an article completed with an analysis after a
// successful request, without reloading the list. Unknown ids are ignored.
func (n *Navigator) ApplyLocalCompletion(articleID string) bool {
	return n.update(articleID, func(a *model.Article) {
		a.Status = model.StatusCompleted
		a.HasAnalysis = true
	})
}

// ClearHint drops the has-analysis hint after the server reported that no
// stored analysis exists.
func (n *Navigator) ClearHint(articleID string) bool {
	return n.update(articleID, func(a *model.Article) { a.HasAnalysis = false })
}

func (n *Navigator) update(articleID string, fn func(*model.Article)) bool {
	for i := range n.articles {
		if n.articles[i].ID == articleID {
			fn(&n.articles[i])
			return true
		}
	}
	return false
}

// Stage records content pasted for the current article.
func (n *Navigator) Stage(content string) { n.staged = content }

// Staged returns the content staged for the current article.
func (n *Navigator) Staged() string { return n.staged }

// Reset returns the navigator to its unloaded state.
func (n *Navigator) Reset() {
	n.articles = nil
	n.cursor = 0
	n.staged = ""
	n.loaded = false
}

// Loaded reports whether a list has been set since the last Reset.
func (n *Navigator) Loaded() bool { return n.loaded }

// Empty reports the loaded-but-empty state.
func (n *Navigator) Empty() bool { return n.loaded && len(n.articles) == 0 }

// Index is the cursor position.
func (n *Navigator) Index() int { return n.cursor }

// Len is the number of articles.
func (n *Navigator) Len() int { return len(n.articles) }

// Articles returns a copy of the list.
func (n *Navigator) Articles() []model.Article {
	return append([]model.Article(nil), n.articles...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
