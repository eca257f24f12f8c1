package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abelbrown/strategist/internal/model"
)

// fakeGateway is an in-memory gateway. Analyze blocks on block when set and
// signals entered first.
type fakeGateway struct {
	mu sync.Mutex

	projects []model.Project
	articles map[string][]model.Article
	stored   map[string]*model.AnalysisResult
	results  map[string]*model.AnalysisResult

	analyzeErr error
	fetchErr   error
	listErr    error
	upload     model.UploadSummary
	uploadAdds map[string][]model.Article
	exportRows []model.ExportRow

	block   chan struct{}
	entered chan struct{}

	calls       map[string]int
	created     []string
	analyzeReqs []model.AnalyzeRequest
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		articles:   make(map[string][]model.Article),
		stored:     make(map[string]*model.AnalysisResult),
		results:    make(map[string]*model.AnalysisResult),
		uploadAdds: make(map[string][]model.Article),
		calls:      make(map[string]int),
	}
}

func (f *fakeGateway) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeGateway) ListProjects(ctx context.Context) ([]model.Project, error) {
	f.hit("projects")
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Project(nil), f.projects...), nil
}

func (f *fakeGateway) CreateProject(ctx context.Context, name string) (model.Project, error) {
	f.hit("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, name)
	p := model.Project{ID: "new-" + name, Name: name, Status: model.ProjectCreated}
	f.projects = append([]model.Project{p}, f.projects...)
	return p, nil
}

func (f *fakeGateway) Upload(ctx context.Context, projectID, filename string, data []byte) (model.UploadSummary, error) {
	f.hit("upload")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles[projectID] = append(f.articles[projectID], f.uploadAdds[projectID]...)
	return f.upload, nil
}

func (f *fakeGateway) ListArticles(ctx context.Context, projectID string) ([]model.Article, error) {
	f.hit("articles")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Article(nil), f.articles[projectID]...), nil
}

func (f *fakeGateway) Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.AnalysisResult, error) {
	f.hit("analyze")
	f.mu.Lock()
	f.analyzeReqs = append(f.analyzeReqs, req)
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return nil, f.analyzeErr
	}
	if r, ok := f.results[req.ArticleID]; ok {
		return r, nil
	}
	return nil, errors.New("no scripted result")
}

func (f *fakeGateway) FetchArticle(ctx context.Context, articleID string) (*model.ArticleDetail, error) {
	f.hit("fetch")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &model.ArticleDetail{
		Article:  model.Article{ID: articleID},
		Analysis: f.stored[articleID],
	}, nil
}

func (f *fakeGateway) Export(ctx context.Context, projectID string) (model.Export, error) {
	f.hit("export")
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.Export{Results: f.exportRows, TotalOpportunities: len(f.exportRows)}, nil
}

// result builds an AnalysisResult with n opportunities rated from 10 down.
func result(n int, strategy string) *model.AnalysisResult {
	r := &model.AnalysisResult{Strategy: strategy, ProcessingTime: 1}
	for i := 0; i < n; i++ {
		r.Opportunities = append(r.Opportunities, model.Opportunity{ID: i + 1, Rating: 10 - i, Location: strategy})
	}
	return r
}

func intp(n int) *int { return &n }

// drive runs a task and every follow-up to completion.
func drive(t *testing.T, s *Session, task Task) {
	t.Helper()
	queue := []Task{task}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		queue = append(queue, s.Apply(next(context.Background()))...)
	}
}
