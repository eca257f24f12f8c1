// Package store provides SQLite persistence for the link analysis server.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/strategist/internal/model"
)

// ErrNotFound is returned for unknown project or article ids.
var ErrNotFound = errors.New("not found")

// Store is the server's SQLite database of projects and articles. Writes
// are serialized through mu; reads may overlap.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// NewArticle is one spreadsheet row to insert.
type NewArticle struct {
	FromURL  string
	ToURL    string
	Keywords string
}

const memoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'created',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS articles (
	id               TEXT PRIMARY KEY,
	project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	from_url         TEXT NOT NULL,
	to_url           TEXT NOT NULL,
	main_kw          TEXT NOT NULL DEFAULT '',
	html_content     TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'pending',
	analysis_results TEXT,
	processing_time  REAL NOT NULL DEFAULT 0,
	order_index      INTEGER NOT NULL,
	created_at       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_articles_project ON articles(project_id, order_index);
`

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database, used by tests.
func Open(path string) (*Store, error) {
	pragmas := []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == memoryPath {
		// Every connection to :memory: is a separate database, so keep one
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
		pragmas = pragmas[1:]
	}

	fail := func(step string, err error) (*Store, error) {
		db.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := db.Ping(); err != nil {
		return fail("ping database", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fail(p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return fail("create schema", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const projectColumns = `
	p.id, p.name, p.status, p.created_at,
	(SELECT COUNT(*) FROM articles a WHERE a.project_id = p.id),
	(SELECT COUNT(*) FROM articles a WHERE a.project_id = p.id AND a.status = 'completed')`

// CreateProject inserts an empty project.
func (s *Store) CreateProject(name string) (model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Project{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    model.ProjectCreated,
		CreatedAt: s.now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO projects (id, name, status, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Status), p.CreatedAt)
	if err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, newest first.
func (s *Store) ListProjects() ([]model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT ` + projectColumns + ` FROM projects p ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetProject returns one project.
func (s *Store) GetProject(id string) (model.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getProject(id)
}

func (s *Store) getProject(id string) (model.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(sc scanner) (model.Project, error) {
	var p model.Project
	var status string
	if err := sc.Scan(&p.ID, &p.Name, &status, &p.CreatedAt, &p.TotalArticles, &p.CompletedArticles); err != nil {
		return model.Project{}, err
	}
	p.Status = model.ProjectStatus(status)
	return p, nil
}

// AddArticles appends rows to a project, numbering them after the
// project's existing articles, and marks the project ready.
func (s *Store) AddArticles(projectID string, rows []NewArticle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getProject(projectID); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(order_index) + 1, 0) FROM articles WHERE project_id = ?`, projectID).Scan(&next); err != nil {
		return 0, fmt.Errorf("next order index: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, project_id, from_url, to_url, main_kw, status, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?, ?)
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := s.now().UTC()
	for i, r := range rows {
		if _, err := stmt.Exec(uuid.NewString(), projectID, r.FromURL, r.ToURL, r.Keywords, next+i, now); err != nil {
			return 0, fmt.Errorf("insert article %d: %w", i, err)
		}
	}
	if _, err := tx.Exec(`UPDATE projects SET status = ? WHERE id = ?`, string(model.ProjectReady), projectID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}

const articleColumns = `id, from_url, to_url, main_kw, status, order_index,
	html_content != '', analysis_results IS NOT NULL`

// ListArticles returns a project's articles by order index.
func (s *Store) ListArticles(projectID string) ([]model.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getProject(projectID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT `+articleColumns+` FROM articles WHERE project_id = ? ORDER BY order_index`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []model.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(sc scanner, extra ...any) (model.Article, error) {
	var a model.Article
	var status string
	dest := append([]any{&a.ID, &a.FromURL, &a.ToURL, &a.Keywords, &status, &a.OrderIndex, &a.HasContent, &a.HasAnalysis}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return model.Article{}, err
	}
	a.Status = model.ArticleStatus(status)
	return a, nil
}

// GetArticle returns one article with its content and stored analysis.
func (s *Store) GetArticle(id string) (model.ArticleDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d model.ArticleDetail
	var analysis sql.NullString
	row := s.db.QueryRow(`SELECT `+articleColumns+`, html_content, processing_time, analysis_results FROM articles WHERE id = ?`, id)
	a, err := scanArticle(row, &d.Content, &d.ProcessingTime, &analysis)
	if errors.Is(err, sql.ErrNoRows) {
		return d, fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return d, err
	}
	d.Article = a

	if analysis.Valid {
		var r model.AnalysisResult
		if err := json.Unmarshal([]byte(analysis.String), &r); err != nil {
			return d, fmt.Errorf("decode analysis for %s: %w", id, err)
		}
		d.Analysis = &r
	}
	return d, nil
}

// ProjectOf returns the project id of an article.
func (s *Store) ProjectOf(articleID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pid string
	err := s.db.QueryRow(`SELECT project_id FROM articles WHERE id = ?`, articleID).Scan(&pid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("article %s: %w", articleID, ErrNotFound)
	}
	return pid, err
}

// MarkAnalyzing stores the submitted content and flags the article.
func (s *Store) MarkAnalyzing(id, content string) error {
	return s.updateArticle(id, `UPDATE articles SET status = 'analyzing', html_content = ? WHERE id = ?`, content, id)
}

// MarkFailed flags an article whose analysis failed. Any earlier analysis
// is kept.
func (s *Store) MarkFailed(id string) error {
	return s.updateArticle(id, `UPDATE articles SET status = 'error' WHERE id = ?`, id)
}

// SaveAnalysis stores a result, completes the article and updates the
// project status.
func (s *Store) SaveAnalysis(id string, r *model.AnalysisResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE articles SET status = 'completed', analysis_results = ?, processing_time = ? WHERE id = ?`,
		string(data), r.ProcessingTime, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}

	_, err = tx.Exec(`
		UPDATE projects SET status = CASE
			WHEN (SELECT COUNT(*) FROM articles WHERE project_id = projects.id AND status != 'completed') = 0 THEN 'completed'
			ELSE 'processing'
		END
		WHERE id = (SELECT project_id FROM articles WHERE id = ?)
	`, id)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return tx.Commit()
}

func (s *Store) updateArticle(id, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("article %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExportRows flattens the opportunities of a project's completed articles
// in order index order.
func (s *Store) ExportRows(projectID string) ([]model.ExportRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getProject(projectID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT from_url, to_url, main_kw, analysis_results
		FROM articles
		WHERE project_id = ? AND status = 'completed' AND analysis_results IS NOT NULL
		ORDER BY order_index
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ExportRow{}
	for rows.Next() {
		var from, to, kw, data string
		if err := rows.Scan(&from, &to, &kw, &data); err != nil {
			return nil, err
		}
		var r model.AnalysisResult
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		for _, o := range r.Opportunities {
			out = append(out, model.ExportRow{
				FromURL:   from,
				ToURL:     to,
				Keyword:   kw,
				Rating:    o.Rating,
				Location:  o.Location,
				OldText:   o.OldText,
				NewText:   o.NewText,
				Reasoning: o.Reasoning,
			})
		}
	}
	return out, rows.Err()
}
