package brain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/abelbrown/strategist/internal/model"
)

// DefaultCount is used when the caller does not ask for a number of
// opportunities.
const DefaultCount = 3

// ErrBadReply is returned when the model's reply is not a usable analysis.
var ErrBadReply = errors.New("unusable analysis reply")

// Input is one article to analyze.
type Input struct {
	Content     string
	FromURL     string
	ToURL       string
	Keywords    string
	Count       int
	Instruction string
}

// LinkAnalyzer turns article content into rated link placement
// opportunities.
type LinkAnalyzer struct {
	provider     Provider
	maxTokens    int
	contentLimit int
	now          func() time.Time
}

// NewLinkAnalyzer creates an analyzer. contentLimit caps the characters of
// article content sent to the model; 0 means no cap.
func NewLinkAnalyzer(p Provider, maxTokens, contentLimit int) *LinkAnalyzer {
	return &LinkAnalyzer{
		provider:     p,
		maxTokens:    maxTokens,
		contentLimit: contentLimit,
		now:          time.Now,
	}
}

// Available reports whether the underlying provider can take requests.
func (a *LinkAnalyzer) Available() bool {
	return a.provider != nil && a.provider.Available()
}

// Analyze prompts the model and parses its reply. ProcessingTime on the
// result is the measured wall time in seconds.
func (a *LinkAnalyzer) Analyze(ctx context.Context, in Input) (*model.AnalysisResult, error) {
	if !a.Available() {
		return nil, ErrNotConfigured
	}
	if in.Count <= 0 {
		in.Count = DefaultCount
	}
	in.Content = truncate(in.Content, a.contentLimit)

	start := a.now()
	resp, err := a.provider.Generate(ctx, Request{
		UserPrompt: buildPrompt(in),
		MaxTokens:  a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.provider.Name(), err)
	}

	result, err := parseReply(resp.Content)
	if err != nil {
		return nil, err
	}
	result.ProcessingTime = a.now().Sub(start).Seconds()
	return result, nil
}

// truncate cuts s to at most limit runes.
func truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

func buildPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert SEO and content strategist. Analyze this HTML article content and find the best opportunities to place a link to %q using keywords related to %q.\n\n", in.ToURL, in.Keywords)
	if in.FromURL != "" {
		fmt.Fprintf(&b, "Article URL: %s\n", in.FromURL)
	}
	fmt.Fprintf(&b, "HTML Content:\n%s\n\n", in.Content)
	fmt.Fprintf(&b, "Target URL: %s\nMain Keywords: %s\n\n", in.ToURL, in.Keywords)

	b.WriteString(`Requirements:
1. If no 10/10 opportunity exists naturally in the content, create one by suggesting a strategic text addition or modification.
2. Aim for at least one opportunity rated 9 or 10.
3. "new_text" must contain the complete HTML element (full <p>, <div>, <h2>) with the link integrated.
4. "location" must say precisely where in the article the content belongs.
5. Reference real content from the HTML when modifying existing text.

Prefer enhancing existing text. Create new content only when existing opportunities are weak. Links should help the reader and never read as promotional.

`)
	fmt.Fprintf(&b, "Find exactly %d link placement opportunities and rate each from 1 to 10. For each provide: id, rating, location, context, old_text (may be empty for new content), new_text, reasoning, user_value.\n\n", in.Count)

	if in.Instruction != "" {
		fmt.Fprintf(&b, "Additional instructions:\n%s\n\n", in.Instruction)
	}

	fmt.Fprintf(&b, `Respond ONLY with valid JSON in this format:
{
  "opportunities": [
    {
      "id": 1,
      "rating": 10,
      "location": "After the comparison table in the main section",
      "context": "Reader has just reviewed the data and wants more depth",
      "old_text": "These results show the difference.",
      "new_text": "<p>These results show the difference. For a full breakdown see our <a href='%s'>%s</a> guide.</p>",
      "reasoning": "Readers examining data want deeper resources",
      "user_value": "Direct access to the detailed breakdown"
    }
  ],
  "article_type": "Technical Comparison Article",
  "reader_intent": "Research and analysis",
  "best_strategy": "Post-data placement with value-added resources"
}`, in.ToURL, firstKeyword(in.Keywords))
	return b.String()
}

func firstKeyword(kw string) string {
	first, _, _ := strings.Cut(kw, ",")
	return strings.TrimSpace(first)
}

// parseReply decodes the model's JSON, tolerating a markdown code fence or
// prose around the object.
func parseReply(text string) (*model.AnalysisResult, error) {
	body := stripFence(text)
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		body = body[i : j+1]
	}

	var r model.AnalysisResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	if len(r.Opportunities) == 0 {
		return nil, fmt.Errorf("%w: no opportunities", ErrBadReply)
	}
	for i, o := range r.Opportunities {
		if o.Rating < model.MinRating || o.Rating > model.MaxRating {
			return nil, fmt.Errorf("%w: opportunity %d rated %d", ErrBadReply, i+1, o.Rating)
		}
		// Model-supplied ids are not trusted to be unique
		r.Opportunities[i].ID = i + 1
	}
	if r.ArticleType == "" {
		r.ArticleType = "Article"
	}
	return &r, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
