// Package gateway talks to the link analysis API.
//
// Gateway is the seam between the interactive session and the network: the
// session only ever sees this interface, and tests substitute fakes for it.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/abelbrown/strategist/internal/model"
)

// Gateway is the remote API. Implementations are stateless and safe for
// concurrent use. Every method may fail with a transport error or a
// *RemoteError.
type Gateway interface {
	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, name string) (model.Project, error)
	Upload(ctx context.Context, projectID, filename string, data []byte) (model.UploadSummary, error)
	ListArticles(ctx context.Context, projectID string) ([]model.Article, error)
	Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.AnalysisResult, error)
	FetchArticle(ctx context.Context, articleID string) (*model.ArticleDetail, error)
	Export(ctx context.Context, projectID string) (model.Export, error)
}

// RemoteError is a non-2xx answer from the server.
type RemoteError struct {
	Op     string
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Detail)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == 404
}
