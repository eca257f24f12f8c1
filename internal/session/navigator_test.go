package session

import (
	"testing"

	"github.com/abelbrown/strategist/internal/model"
)

type recordingInvalidator struct{ ids []string }

func (r *recordingInvalidator) Invalidate(id string) { r.ids = append(r.ids, id) }

func threeArticles() []model.Article {
	return []model.Article{
		{ID: "a", FromURL: "https://x/a", Status: model.StatusPending},
		{ID: "b", FromURL: "https://x/b", Status: model.StatusPending},
		{ID: "c", FromURL: "https://x/c", Status: model.StatusPending},
	}
}

func TestNavigatorMoveClamps(t *testing.T) {
	n := NewNavigator(nil)
	n.SetList(threeArticles())

	for i := 0; i < 5; i++ {
		n.Move(Next)
	}
	if n.Index() != 2 {
		t.Errorf("after 5 nexts index = %d, want 2", n.Index())
	}
	if _, ok := n.Move(Next); ok {
		t.Error("Move past the end should report false")
	}

	for i := 0; i < 5; i++ {
		n.Move(Prev)
	}
	if n.Index() != 0 {
		t.Errorf("after 5 prevs index = %d, want 0", n.Index())
	}
	if _, ok := n.Move(Prev); ok {
		t.Error("Move before the start should report false")
	}
}

func TestNavigatorEmptyState(t *testing.T) {
	n := NewNavigator(nil)
	if n.Loaded() || n.Empty() {
		t.Error("fresh navigator should be unloaded, not empty")
	}

	if _, ok := n.SetList(nil); ok {
		t.Error("SetList(nil) should report no current article")
	}
	if !n.Empty() {
		t.Error("navigator should be in the empty state")
	}
	if _, ok := n.Current(); ok {
		t.Error("Current on empty list should report none")
	}
	if _, ok := n.Move(Next); ok {
		t.Error("Move on empty list should be a no-op")
	}
	if _, ok := n.Move(Prev); ok {
		t.Error("Move on empty list should be a no-op")
	}
}

func TestNavigatorMoveClearsStaged(t *testing.T) {
	n := NewNavigator(nil)
	n.SetList(threeArticles())

	n.Stage("<p>draft</p>")
	if _, ok := n.Move(Prev); ok {
		t.Fatal("expected boundary no-op")
	}
	if n.Staged() != "<p>draft</p>" {
		t.Error("a no-op move must not clear staged content")
	}

	tr, ok := n.Move(Next)
	if !ok {
		t.Fatal("expected move")
	}
	if tr.From.ID != "a" || tr.To.ID != "b" {
		t.Errorf("transition = %s -> %s", tr.From.ID, tr.To.ID)
	}
	if n.Staged() != "" {
		t.Errorf("staged = %q, want empty after move", n.Staged())
	}
}

func TestNavigatorSetListResets(t *testing.T) {
	inv := &recordingInvalidator{}
	n := NewNavigator(inv)
	n.SetList(threeArticles())
	n.Move(Next)
	n.Stage("content")

	tr, ok := n.SetList([]model.Article{{ID: "z"}, {ID: "y"}})
	if !ok || tr.To.ID != "z" {
		t.Fatalf("SetList transition = %+v, %v", tr, ok)
	}
	if n.Index() != 0 {
		t.Errorf("index = %d, want 0", n.Index())
	}
	if n.Staged() != "" {
		t.Error("SetList should clear staged content")
	}
	if len(inv.ids) != 1 || inv.ids[0] != "b" {
		t.Errorf("invalidated %v, want [b]", inv.ids)
	}
}

func TestNavigatorSetListCopies(t *testing.T) {
	n := NewNavigator(nil)
	in := threeArticles()
	n.SetList(in)
	in[0].ID = "mutated"

	cur, _ := n.Current()
	if cur.ID != "a" {
		t.Errorf("navigator aliased the caller's slice: %q", cur.ID)
	}
}

func TestApplyLocalCompletion(t *testing.T) {
	n := NewNavigator(nil)
	n.SetList(threeArticles())

	if !n.ApplyLocalCompletion("b") {
		t.Fatal("expected b to be found")
	}
	for _, a := range n.Articles() {
		switch a.ID {
		case "b":
			if a.Status != model.StatusCompleted || !a.HasAnalysis {
				t.Errorf("b = %+v", a)
			}
		default:
			if a.Status != model.StatusPending || a.HasAnalysis {
				t.Errorf("%s should be untouched: %+v", a.ID, a)
			}
		}
	}
	if n.ApplyLocalCompletion("missing") {
		t.Error("unknown id should report false")
	}
}

func TestClearHint(t *testing.T) {
	n := NewNavigator(nil)
	n.SetList([]model.Article{{ID: "a", HasAnalysis: true}})
	n.ClearHint("a")
	cur, _ := n.Current()
	if cur.HasAnalysis {
		t.Error("hint should be cleared")
	}
}

func TestNavigatorReset(t *testing.T) {
	n := NewNavigator(nil)
	n.SetList(threeArticles())
	n.Move(Next)
	n.Stage("x")
	n.Reset()

	if n.Loaded() || n.Len() != 0 || n.Index() != 0 || n.Staged() != "" {
		t.Errorf("Reset left state behind: loaded=%v len=%d idx=%d staged=%q", n.Loaded(), n.Len(), n.Index(), n.Staged())
	}
}
