package session

import "github.com/abelbrown/strategist/internal/model"

// Paginator is a cursor over the opportunities of the displayed result.
// Binding a different result resets it to the first opportunity.
type Paginator struct {
	bound  *model.AnalysisResult
	cursor int
}

// Bind attaches r. The cursor resets only when r is a different result
// from the one already bound.
func (p *Paginator) Bind(r *model.AnalysisResult) {
	if r == p.bound {
		return
	}
	p.bound = r
	p.cursor = 0
}

// Move steps the cursor, doing nothing at either end.
func (p *Paginator) Move(dir Direction) bool {
	target := p.cursor + int(dir)
	if target < 0 || target >= p.Len() {
		return false
	}
	p.cursor = target
	return true
}

// Current returns the opportunity under the cursor.
func (p *Paginator) Current() (model.Opportunity, bool) {
	if p.Len() == 0 {
		return model.Opportunity{}, false
	}
	return p.bound.Opportunities[clamp(p.cursor, 0, p.Len()-1)], true
}

// Index is the cursor position.
func (p *Paginator) Index() int { return p.cursor }

// Len is the number of opportunities in the bound result.
func (p *Paginator) Len() int {
	if p.bound == nil {
		return 0
	}
	return len(p.bound.Opportunities)
}
