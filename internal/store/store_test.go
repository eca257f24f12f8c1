package store

import (
	"errors"
	"testing"
	"time"

	"github.com/abelbrown/strategist/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seed(t *testing.T, st *Store, n int) (model.Project, []model.Article) {
	t.Helper()
	p, err := st.CreateProject("Spring links")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	rows := make([]NewArticle, n)
	for i := range rows {
		rows[i] = NewArticle{
			FromURL:  "https://example.com/from/" + string(rune('a'+i)),
			ToURL:    "https://example.com/to",
			Keywords: "garden, soil",
		}
	}
	if _, err := st.AddArticles(p.ID, rows); err != nil {
		t.Fatalf("AddArticles: %v", err)
	}
	articles, err := st.ListArticles(p.ID)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	return p, articles
}

func result(ratings ...int) *model.AnalysisResult {
	r := &model.AnalysisResult{ProcessingTime: 1.5, ArticleType: "guide"}
	for i, rating := range ratings {
		r.Opportunities = append(r.Opportunities, model.Opportunity{
			ID:       i + 1,
			Rating:   rating,
			Location: "intro",
			OldText:  "old",
			NewText:  "new",
		})
	}
	return r
}

func TestOpen(t *testing.T) {
	st := openTest(t)

	for _, table := range []string{"projects", "articles"} {
		var name string
		err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("%s table not created: %v", table, err)
		}
	}
}

func TestCreateAndListProjects(t *testing.T) {
	st := openTest(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	st.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}

	first, err := st.CreateProject("first")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if first.ID == "" || first.Status != model.ProjectCreated {
		t.Errorf("unexpected project %+v", first)
	}
	if _, err := st.CreateProject("second"); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	projects, err := st.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].Name != "second" {
		t.Errorf("expected newest first, got %q", projects[0].Name)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	st := openTest(t)
	if _, err := st.GetProject("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAddArticlesOrdersAndCounts(t *testing.T) {
	st := openTest(t)
	p, articles := seed(t, st, 3)

	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}
	for i, a := range articles {
		if a.OrderIndex != i {
			t.Errorf("article %d: order_index %d", i, a.OrderIndex)
		}
		if a.Status != model.StatusPending || a.HasContent || a.HasAnalysis {
			t.Errorf("article %d: unexpected state %+v", i, a)
		}
	}

	// A second upload continues the numbering
	if _, err := st.AddArticles(p.ID, []NewArticle{{FromURL: "https://example.com/x", ToURL: "https://example.com/y"}}); err != nil {
		t.Fatalf("AddArticles: %v", err)
	}
	articles, _ = st.ListArticles(p.ID)
	if got := articles[len(articles)-1].OrderIndex; got != 3 {
		t.Errorf("expected order_index 3, got %d", got)
	}

	got, err := st.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if got.TotalArticles != 4 || got.CompletedArticles != 0 || got.Status != model.ProjectReady {
		t.Errorf("unexpected project %+v", got)
	}
}

func TestAddArticlesUnknownProject(t *testing.T) {
	st := openTest(t)
	_, err := st.AddArticles("missing", []NewArticle{{FromURL: "a", ToURL: "b"}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalysisLifecycle(t *testing.T) {
	st := openTest(t)
	p, articles := seed(t, st, 2)
	id := articles[0].ID

	if err := st.MarkAnalyzing(id, "<p>Body</p>"); err != nil {
		t.Fatalf("MarkAnalyzing: %v", err)
	}
	d, err := st.GetArticle(id)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if d.Status != model.StatusAnalyzing || d.Content != "<p>Body</p>" || !d.HasContent {
		t.Errorf("unexpected detail %+v", d)
	}
	if d.Analysis != nil {
		t.Error("expected no analysis yet")
	}

	if err := st.SaveAnalysis(id, result(9, 6)); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	d, _ = st.GetArticle(id)
	if d.Status != model.StatusCompleted || !d.HasAnalysis {
		t.Errorf("unexpected detail %+v", d)
	}
	if d.Analysis == nil || len(d.Analysis.Opportunities) != 2 || d.Analysis.Opportunities[0].Rating != 9 {
		t.Fatalf("analysis not round-tripped: %+v", d.Analysis)
	}
	if d.ProcessingTime != 1.5 {
		t.Errorf("processing time %v", d.ProcessingTime)
	}

	proj, _ := st.GetProject(p.ID)
	if proj.Status != model.ProjectProcessing || proj.CompletedArticles != 1 {
		t.Errorf("expected processing 1/2, got %+v", proj)
	}

	if err := st.SaveAnalysis(articles[1].ID, result(7)); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	proj, _ = st.GetProject(p.ID)
	if proj.Status != model.ProjectCompleted {
		t.Errorf("expected completed, got %s", proj.Status)
	}
}

func TestMarkFailedKeepsPreviousAnalysis(t *testing.T) {
	st := openTest(t)
	_, articles := seed(t, st, 1)
	id := articles[0].ID

	if err := st.SaveAnalysis(id, result(8)); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	if err := st.MarkFailed(id); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	d, _ := st.GetArticle(id)
	if d.Status != model.StatusError {
		t.Errorf("expected error status, got %s", d.Status)
	}
	if d.Analysis == nil {
		t.Error("expected earlier analysis to survive")
	}
}

func TestArticleNotFound(t *testing.T) {
	st := openTest(t)
	if _, err := st.GetArticle("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetArticle: expected ErrNotFound, got %v", err)
	}
	if err := st.MarkFailed("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkFailed: expected ErrNotFound, got %v", err)
	}
	if err := st.SaveAnalysis("missing", result(5)); !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveAnalysis: expected ErrNotFound, got %v", err)
	}
	if _, err := st.ProjectOf("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ProjectOf: expected ErrNotFound, got %v", err)
	}
}

func TestExportRows(t *testing.T) {
	st := openTest(t)
	p, articles := seed(t, st, 3)

	// Only completed articles export, in order index order
	if err := st.SaveAnalysis(articles[2].ID, result(9)); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveAnalysis(articles[0].ID, result(7, 4)); err != nil {
		t.Fatal(err)
	}

	rows, err := st.ExportRows(p.ID)
	if err != nil {
		t.Fatalf("ExportRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].FromURL != articles[0].FromURL || rows[0].Rating != 7 || rows[1].Rating != 4 {
		t.Errorf("unexpected leading rows %+v", rows[:2])
	}
	if rows[2].FromURL != articles[2].FromURL || rows[2].Keyword != "garden, soil" {
		t.Errorf("unexpected last row %+v", rows[2])
	}
}

func TestExportRowsEmptyProject(t *testing.T) {
	st := openTest(t)
	p, err := st.CreateProject("empty")
	if err != nil {
		t.Fatal(err)
	}
	rows, err := st.ExportRows(p.ID)
	if err != nil {
		t.Fatalf("ExportRows: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}
