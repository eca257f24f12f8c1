package session

import "errors"

// Validation errors. These are reported before any remote call is made.
var (
	ErrEmptyContent     = errors.New("article content is empty")
	ErrCountOutOfRange  = errors.New("opportunity count must be between 1 and 5")
	ErrAnalysisInFlight = errors.New("an analysis is already running for this article")
	ErrEmptyProjectName = errors.New("project name is empty")
	ErrUnknownProject   = errors.New("unknown project")
	ErrNoProject        = errors.New("no project selected")
	ErrNoArticle        = errors.New("no article selected")
	ErrEmptyUploadPath  = errors.New("upload path is empty")
)

// ErrSuperseded is returned by a request whose cache entry was invalidated
// or reset while it was outstanding. Its result was dropped.
var ErrSuperseded = errors.New("result superseded")

var validationErrs = []error{
	ErrEmptyContent,
	ErrCountOutOfRange,
	ErrAnalysisInFlight,
	ErrEmptyProjectName,
	ErrUnknownProject,
	ErrNoProject,
	ErrNoArticle,
	ErrEmptyUploadPath,
}

// IsValidation reports whether err was raised locally, without contacting
// the server.
func IsValidation(err error) bool {
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
