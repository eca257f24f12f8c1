// Package session is the client's state machine: which project is active,
// which article is current, what analysis is displayed and which
// opportunity is selected.
//
// A Session is owned by a single goroutine (the UI's update loop). Methods
// that need the network return a Task instead of blocking; the owner runs
// the Task elsewhere and hands its Outcome back through Apply.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/strategist/internal/export"
	"github.com/abelbrown/strategist/internal/gateway"
	"github.com/abelbrown/strategist/internal/logging"
	"github.com/abelbrown/strategist/internal/model"
	"github.com/abelbrown/strategist/internal/otel"
)

// Mode is the screen the session is in.
type Mode int

const (
	ModeProjects Mode = iota // choosing or creating a project
	ModeUpload               // the project needs a spreadsheet
	ModeNavigate             // walking the project's articles
)

func (m Mode) String() string {
	switch m {
	case ModeUpload:
		return "upload"
	case ModeNavigate:
		return "navigate"
	default:
		return "projects"
	}
}

// emptyUploadNotice is shown when an upload produced no articles.
const emptyUploadNotice = "No articles found in file. Expected columns: From, To, Main KW"

// Task is deferred remote work. It must not touch Session state other than
// through the goroutine-safe Controller.
type Task func(ctx context.Context) Outcome

// Outcome is the result of a Task, applied with Session.Apply.
type Outcome interface{ outcome() }

// ProjectsLoaded carries the project list.
type ProjectsLoaded struct {
	Projects []model.Project
	Err      error
}

// ProjectCreated carries a newly created project.
type ProjectCreated struct {
	Project model.Project
	Err     error
}

// ArticlesLoaded carries a project's article list.
type ArticlesLoaded struct {
	ProjectID string
	Articles  []model.Article
	Err       error
}

// Uploaded carries the upload summary and, when articles were created, the
// refreshed projects and articles. RefreshErr is set when the upload
// succeeded but the refresh did not.
type Uploaded struct {
	ProjectID  string
	Summary    model.UploadSummary
	Projects   []model.Project
	Articles   []model.Article
	Err        error
	RefreshErr error
}

// AnalysisDone carries the result of an analysis request.
type AnalysisDone struct {
	ArticleID string
	Result    *model.AnalysisResult
	Err       error
}

// StoredLoaded carries a stored analysis lookup. Result is nil when the
// server has none.
type StoredLoaded struct {
	ArticleID string
	Result    *model.AnalysisResult
	Err       error
}

// Exported carries the path of a written export.
type Exported struct {
	ProjectID string
	Path      string
	Rows      int
	Err       error
}

func (ProjectsLoaded) outcome() {}
func (ProjectCreated) outcome() {}
func (ArticlesLoaded) outcome() {}
func (Uploaded) outcome()       {}
func (AnalysisDone) outcome()   {}
func (StoredLoaded) outcome()   {}
func (Exported) outcome()       {}

// Config configures a Session.
type Config struct {
	ExportDir string
	Events    *otel.Logger
	// Defaults for each analysis request
	Options Options
	// Clock for export file names; time.Now when nil
	Now func() time.Time
}

// Session composes the navigator, the analysis controller and the
// opportunity paginator for the active project.
type Session struct {
	gw     gateway.Gateway
	events *otel.Logger
	cfg    Config

	mode     Mode
	projects []model.Project
	project  *model.Project

	nav      *Navigator
	analyses *Controller
	pager    Paginator

	displayed     *model.AnalysisResult
	loadingStored bool
	options       Options

	loadingProjects bool
	loadingArticles bool
	uploading       bool
	exporting       bool

	notice string
	err    error
}

// New creates a Session in project selection mode.
func New(gw gateway.Gateway, cfg Config) *Session {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	s := &Session{
		gw:       gw,
		events:   cfg.Events,
		cfg:      cfg,
		analyses: NewController(gw, cfg.Events),
		options:  cfg.Options,
	}
	s.nav = NewNavigator(s.analyses)
	return s
}

// LoadProjects fetches the project list.
func (s *Session) LoadProjects() Task {
	s.loadingProjects = true
	return func(ctx context.Context) Outcome {
		projects, err := s.gw.ListProjects(ctx)
		return ProjectsLoaded{Projects: projects, Err: err}
	}
}

// CreateProject creates a project named name, trimmed. Blank names are
// rejected without a remote call.
func (s *Session) CreateProject(name string) (Task, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyProjectName
	}
	return func(ctx context.Context) Outcome {
		p, err := s.gw.CreateProject(ctx, name)
		return ProjectCreated{Project: p, Err: err}
	}, nil
}

// SelectProject makes a project active. All state from the previous project
// is discarded before its articles are requested.
func (s *Session) SelectProject(id string) (Task, error) {
	var chosen *model.Project
	for i := range s.projects {
		if s.projects[i].ID == id {
			p := s.projects[i]
			chosen = &p
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, id)
	}

	s.activate(chosen)
	s.mode = ModeNavigate
	return s.loadArticles(), nil
}

// activate switches the active project and discards per-project state.
func (s *Session) activate(p *model.Project) {
	s.project = p
	s.nav.Reset()
	s.analyses.Reset()
	s.show(nil)
	s.loadingStored = false
	s.loadingArticles = false
	s.notice = ""
	logging.Info("project switched", "project", p.ID, "name", p.Name)
	s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindProjectSwitch, Comp: "session", ProjectID: p.ID, Msg: p.Name})
}

func (s *Session) loadArticles() Task {
	projectID := s.project.ID
	s.loadingArticles = true
	return func(ctx context.Context) Outcome {
		articles, err := s.gw.ListArticles(ctx, projectID)
		return ArticlesLoaded{ProjectID: projectID, Articles: articles, Err: err}
	}
}

// ReloadArticles refetches the active project's articles.
func (s *Session) ReloadArticles() (Task, error) {
	if s.project == nil {
		return nil, ErrNoProject
	}
	return s.loadArticles(), nil
}

// ShowUpload switches to upload mode for the active project.
func (s *Session) ShowUpload() error {
	if s.project == nil {
		return ErrNoProject
	}
	s.mode = ModeUpload
	s.notice = ""
	return nil
}

// Back leaves the current screen: upload returns to the article list when
// there is one, everything else returns to project selection.
func (s *Session) Back() {
	if s.mode == ModeUpload && s.nav.Len() > 0 {
		s.mode = ModeNavigate
		return
	}
	s.mode = ModeProjects
}

// Upload sends the spreadsheet at path to the active project.
func (s *Session) Upload(path string) (Task, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyUploadPath
	}
	if s.project == nil {
		return nil, ErrNoProject
	}
	projectID := s.project.ID
	s.uploading = true
	s.notice = ""
	return func(ctx context.Context) Outcome {
		return s.upload(ctx, projectID, path)
	}, nil
}

func (s *Session) upload(ctx context.Context, projectID, path string) Outcome {
	out := Uploaded{ProjectID: projectID}

	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		out.Err = fmt.Errorf("read upload: %w", err)
		return out
	}
	out.Summary, out.Err = s.gw.Upload(ctx, projectID, filepath.Base(path), data)
	if out.Err != nil || out.Summary.TotalArticles == 0 {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		articles, err := s.gw.ListArticles(gctx, projectID)
		out.Articles = articles
		return err
	})
	g.Go(func() error {
		projects, err := s.gw.ListProjects(gctx)
		out.Projects = projects
		return err
	})
	out.RefreshErr = g.Wait()
	return out
}

// Stage records pasted content for the current article.
func (s *Session) Stage(content string) { s.nav.Stage(content) }

// SetInstruction sets the free-form guidance for the next requests.
func (s *Session) SetInstruction(text string) { s.options.Instruction = text }

// SetCount sets the requested opportunity count. Nil defers to the server.
// Out-of-range values are accepted here and rejected by Analyze.
func (s *Session) SetCount(n *int) { s.options.Count = n }

// Analyze requests an analysis of the current article with the staged
// content. Validation failures are returned immediately.
func (s *Session) Analyze() (Task, error) {
	a, ok := s.nav.Current()
	if !ok {
		return nil, ErrNoArticle
	}
	call, err := s.analyses.Begin(a.ID, s.nav.Staged(), s.options)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) Outcome {
		res, err := call.Run(ctx)
		return AnalysisDone{ArticleID: call.ArticleID(), Result: res, Err: err}
	}, nil
}

// NextArticle moves to the next article. The returned Task, when non-nil,
// loads the new article's stored analysis.
func (s *Session) NextArticle() Task { return s.move(Next) }

// PrevArticle moves to the previous article.
func (s *Session) PrevArticle() Task { return s.move(Prev) }

func (s *Session) move(dir Direction) Task {
	t, ok := s.nav.Move(dir)
	if !ok {
		return nil
	}
	s.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindArticleMove, Comp: "session", ArticleID: t.To.ID, Count: s.nav.Index()})
	return s.enter(t.To)
}

// enter decides what to display for a newly current article: its cached
// result, its stored result once fetched, or nothing.
func (s *Session) enter(a model.Article) Task {
	s.loadingStored = false
	if r := s.analyses.Result(a.ID); r != nil {
		s.show(r)
		return nil
	}
	s.show(nil)
	if !a.HasAnalysis {
		return nil
	}
	s.loadingStored = true
	id := a.ID
	return func(ctx context.Context) Outcome {
		res, err := s.analyses.FetchStored(ctx, id)
		return StoredLoaded{ArticleID: id, Result: res, Err: err}
	}
}

func (s *Session) show(r *model.AnalysisResult) {
	s.displayed = r
	s.pager.Bind(r)
}

// NextOpportunity moves the opportunity cursor forward.
func (s *Session) NextOpportunity() bool { return s.pager.Move(Next) }

// PrevOpportunity moves the opportunity cursor back.
func (s *Session) PrevOpportunity() bool { return s.pager.Move(Prev) }

// Export writes the active project's results to a CSV file.
func (s *Session) Export() (Task, error) {
	if s.project == nil {
		return nil, ErrNoProject
	}
	p := *s.project
	dir := s.cfg.ExportDir
	now := s.cfg.Now()
	s.exporting = true
	return func(ctx context.Context) Outcome {
		exp, err := s.gw.Export(ctx, p.ID)
		if err != nil {
			return Exported{ProjectID: p.ID, Err: err}
		}
		path, err := export.WriteFile(dir, p.Name, exp.Results, now)
		return Exported{ProjectID: p.ID, Path: path, Rows: len(exp.Results), Err: err}
	}, nil
}

// Apply folds an Outcome into the session and returns follow-up tasks.
func (s *Session) Apply(o Outcome) []Task {
	switch o := o.(type) {
	case ProjectsLoaded:
		s.loadingProjects = false
		if o.Err != nil {
			s.fail("load projects", o.Err)
			return nil
		}
		s.setProjects(o.Projects)
		s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindProjectList, Comp: "session", Count: len(o.Projects)})

	case ProjectCreated:
		if o.Err != nil {
			s.fail("create project", o.Err)
			return nil
		}
		s.projects = append([]model.Project{o.Project}, s.projects...)
		p := o.Project
		s.activate(&p)
		s.nav.SetList(nil)
		s.mode = ModeUpload
		s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindProjectCreate, Comp: "session", ProjectID: p.ID, Msg: p.Name})

	case ArticlesLoaded:
		if !s.isActive(o.ProjectID) {
			return nil
		}
		s.loadingArticles = false
		if o.Err != nil {
			s.fail("load articles", o.Err)
			// Nothing to navigate: go back to the project list
			if !s.nav.Loaded() && s.mode == ModeNavigate {
				s.mode = ModeProjects
			}
			return nil
		}
		s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindArticlesLoad, Comp: "session", ProjectID: o.ProjectID, Count: len(o.Articles)})
		if t := s.setArticles(o.Articles); t != nil {
			return []Task{t}
		}

	case Uploaded:
		return s.applyUpload(o)

	case AnalysisDone:
		return s.applyAnalysis(o)

	case StoredLoaded:
		cur, ok := s.nav.Current()
		isCurrent := ok && cur.ID == o.ArticleID
		if isCurrent {
			s.loadingStored = false
		}
		switch {
		case errors.Is(o.Err, ErrSuperseded):
		case o.Err != nil:
			s.fail("load stored analysis", o.Err)
		case o.Result == nil:
			s.nav.ClearHint(o.ArticleID)
			if isCurrent {
				s.notice = "No stored analysis for this article"
			}
		case isCurrent:
			s.show(o.Result)
		}

	case Exported:
		s.exporting = false
		if o.Err != nil {
			s.events.Error(otel.KindExportError, "session", o.Err)
			s.fail("export", o.Err)
			return nil
		}
		s.notice = fmt.Sprintf("Exported %d opportunities to %s", o.Rows, o.Path)
		s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindExportComplete, Comp: "session", ProjectID: o.ProjectID, Count: o.Rows, Msg: o.Path})
	}
	return nil
}

func (s *Session) applyUpload(o Uploaded) []Task {
	s.uploading = false
	if o.Err != nil {
		s.events.Error(otel.KindUploadError, "session", o.Err)
		s.fail("upload", o.Err)
		return nil
	}
	if o.Summary.TotalArticles == 0 {
		s.notice = emptyUploadNotice
		s.events.Warn(otel.KindUploadEmpty, "session", o.Summary.Message)
		return nil
	}
	s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindUploadComplete, Comp: "session", ProjectID: o.ProjectID, Count: o.Summary.TotalArticles})
	if o.RefreshErr != nil {
		s.fail("reload after upload", o.RefreshErr)
		return nil
	}

	if o.Projects != nil {
		s.setProjects(o.Projects)
	}
	if !s.isActive(o.ProjectID) {
		return nil
	}
	s.notice = o.Summary.Message
	if t := s.setArticles(o.Articles); t != nil {
		return []Task{t}
	}
	return nil
}

func (s *Session) applyAnalysis(o AnalysisDone) []Task {
	if errors.Is(o.Err, ErrSuperseded) {
		return nil
	}
	if o.Err != nil {
		s.fail("analyze", o.Err)
		return nil
	}
	s.nav.ApplyLocalCompletion(o.ArticleID)
	if cur, ok := s.nav.Current(); ok && cur.ID == o.ArticleID {
		s.loadingStored = false
		s.show(o.Result)
	}
	return nil
}

// setArticles installs a fresh list and picks the mode from its size.
func (s *Session) setArticles(articles []model.Article) Task {
	t, ok := s.nav.SetList(articles)
	if !ok {
		s.show(nil)
		s.mode = ModeUpload
		return nil
	}
	s.mode = ModeNavigate
	return s.enter(t.To)
}

func (s *Session) setProjects(projects []model.Project) {
	s.projects = projects
	if s.project == nil {
		return
	}
	for i := range projects {
		if projects[i].ID == s.project.ID {
			p := projects[i]
			s.project = &p
			return
		}
	}
}

func (s *Session) isActive(projectID string) bool {
	return s.project != nil && s.project.ID == projectID
}

func (s *Session) fail(op string, err error) {
	logging.Warn("session operation failed", "op", op, "err", err)
	s.err = fmt.Errorf("%s: %w", op, err)
}

// Fail records a locally detected error for display.
func (s *Session) Fail(err error) { s.err = err }

// DismissMessages clears the error and notice.
func (s *Session) DismissMessages() {
	s.err = nil
	s.notice = ""
}

// Mode returns the current screen.
func (s *Session) Mode() Mode { return s.mode }

// Projects returns the known projects, newest first.
func (s *Session) Projects() []model.Project { return s.projects }

// Project returns the active project.
func (s *Session) Project() (model.Project, bool) {
	if s.project == nil {
		return model.Project{}, false
	}
	return *s.project, true
}

// Navigator exposes the article list for rendering.
func (s *Session) Navigator() *Navigator { return s.nav }

// CurrentArticle returns the current article.
func (s *Session) CurrentArticle() (model.Article, bool) { return s.nav.Current() }

// ArticleStatus is the status to display for an article, which reads
// "analyzing" while a request is outstanding.
func (s *Session) ArticleStatus(a model.Article) model.ArticleStatus {
	if s.analyses.InFlight(a.ID) {
		return model.StatusAnalyzing
	}
	return a.Status
}

// Analyzing reports whether the current article has a request outstanding.
func (s *Session) Analyzing() bool {
	a, ok := s.nav.Current()
	return ok && s.analyses.InFlight(a.ID)
}

// PendingAnalyses counts outstanding analysis requests across articles.
func (s *Session) PendingAnalyses() int { return s.analyses.Pending() }

// Displayed returns the displayed result, or nil.
func (s *Session) Displayed() *model.AnalysisResult { return s.displayed }

// Opportunity returns the selected opportunity with its index and the
// total count.
func (s *Session) Opportunity() (model.Opportunity, int, int, bool) {
	o, ok := s.pager.Current()
	return o, s.pager.Index(), s.pager.Len(), ok
}

// Options returns the options for the next request.
func (s *Session) Options() Options { return s.options }

// Staged returns content staged for the current article.
func (s *Session) Staged() string { return s.nav.Staged() }

// Busy describes the outstanding non-analysis work, or "".
func (s *Session) Busy() string {
	switch {
	case s.uploading:
		return "uploading"
	case s.exporting:
		return "exporting"
	case s.loadingArticles:
		return "loading articles"
	case s.loadingProjects:
		return "loading projects"
	case s.loadingStored:
		return "loading stored analysis"
	}
	return ""
}

// Notice returns the latest informational message.
func (s *Session) Notice() string { return s.notice }

// Err returns the latest error.
func (s *Session) Err() error { return s.err }

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
