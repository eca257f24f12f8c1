package model

import "testing"

func TestOpportunityTier(t *testing.T) {
	tests := []struct {
		rating int
		want   Tier
	}{
		{10, TierStrong},
		{9, TierStrong},
		{8, TierModerate},
		{7, TierModerate},
		{6, TierWeak},
		{1, TierWeak},
	}
	for _, tt := range tests {
		got := Opportunity{Rating: tt.rating}.Tier()
		if got != tt.want {
			t.Errorf("rating %d: got %s, want %s", tt.rating, got, tt.want)
		}
	}
}

func TestKeywordList(t *testing.T) {
	a := Article{Keywords: " seo audit, ,link building ,"}
	got := a.KeywordList()
	if len(got) != 2 || got[0] != "seo audit" || got[1] != "link building" {
		t.Errorf("KeywordList() = %q", got)
	}
	if (Article{}).KeywordList() != nil {
		t.Error("empty keywords should give nil")
	}
}
