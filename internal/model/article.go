package model

import "strings"

// ArticleStatus is the lifecycle state of one article.
type ArticleStatus string

const (
	StatusPending   ArticleStatus = "pending"
	StatusAnalyzing ArticleStatus = "analyzing"
	StatusCompleted ArticleStatus = "completed"
	StatusSkipped   ArticleStatus = "skipped"
	StatusError     ArticleStatus = "error"
)

// Article is one row of an uploaded project: a page (FromURL) that should
// link to a target (ToURL) using one of Keywords.
//
// OrderIndex is the row position assigned by the server. The client never
// sorts on it; the list order is whatever the server returned.
type Article struct {
	ID          string        `json:"id"`
	FromURL     string        `json:"from_url"`
	ToURL       string        `json:"to_url"`
	Keywords    string        `json:"main_kw"`
	Status      ArticleStatus `json:"status"`
	OrderIndex  int           `json:"order_index"`
	HasContent  bool          `json:"has_html"`
	HasAnalysis bool          `json:"has_analysis"`
}

// KeywordList splits the comma-separated keyword field.
func (a Article) KeywordList() []string {
	var out []string
	for _, kw := range strings.Split(a.Keywords, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

// ArticleDetail is the single-article view, optionally carrying the stored
// analysis.
type ArticleDetail struct {
	Article
	Content        string          `json:"html_content,omitempty"`
	ProcessingTime float64         `json:"processing_time,omitempty"`
	Analysis       *AnalysisResult `json:"analysis,omitempty"`
}
