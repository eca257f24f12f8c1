package model

// Tier buckets an opportunity rating for presentation.
type Tier int

const (
	TierWeak Tier = iota
	TierModerate
	TierStrong
)

func (t Tier) String() string {
	switch t {
	case TierStrong:
		return "strong"
	case TierModerate:
		return "moderate"
	default:
		return "weak"
	}
}

// MinRating and MaxRating bound Opportunity.Rating.
const (
	MinRating = 1
	MaxRating = 10
)

// Opportunity is one suggested rewrite that places the target link.
// NewText carries inline markup and must go through the richtext package
// before display.
type Opportunity struct {
	ID        int    `json:"id"`
	Rating    int    `json:"rating"`
	Location  string `json:"location"`
	Context   string `json:"context"`
	OldText   string `json:"old_text"`
	NewText   string `json:"new_text"`
	Reasoning string `json:"reasoning"`
	UserValue string `json:"user_value"`
}

// Tier maps the rating: 9 and up is strong, 7-8 moderate, the rest weak.
func (o Opportunity) Tier() Tier {
	switch {
	case o.Rating >= 9:
		return TierStrong
	case o.Rating >= 7:
		return TierModerate
	default:
		return TierWeak
	}
}

// AnalysisResult is what one analysis request produces for one article.
type AnalysisResult struct {
	Opportunities  []Opportunity `json:"opportunities"`
	ProcessingTime float64       `json:"processing_time"`
	ArticleType    string        `json:"article_type"`
	ReaderIntent   string        `json:"reader_intent"`
	Strategy       string        `json:"best_strategy"`
}

// AnalyzeRequest is the body of an analysis call. OpportunityCount nil lets
// the server pick its default.
type AnalyzeRequest struct {
	ArticleID        string `json:"article_id"`
	Content          string `json:"html_content"`
	Instruction      string `json:"custom_prompt,omitempty"`
	OpportunityCount *int   `json:"opportunity_count,omitempty"`
}

// ExportRow is one opportunity flattened with its article's URLs.
type ExportRow struct {
	FromURL   string `json:"from_url"`
	ToURL     string `json:"to_url"`
	Keyword   string `json:"main_kw"`
	Rating    int    `json:"rating"`
	Location  string `json:"location"`
	OldText   string `json:"old_text"`
	NewText   string `json:"new_text"`
	Reasoning string `json:"reasoning"`
}

// Export is the server's export payload.
type Export struct {
	Results            []ExportRow `json:"results"`
	TotalOpportunities int         `json:"total_opportunities"`
}

// UploadSummary is returned by an upload.
type UploadSummary struct {
	Message       string `json:"message"`
	TotalArticles int    `json:"total_articles"`
}
