package nlp_test

import (
	"testing"

	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/nlp"
)

func TestExtractParameters(t *testing.T) {
	params := nlp.ExtractParameters("Show team meetings in London tomorrow", fixedNow)

	if params.DateRange.Kind != models.DateRangeTomorrow {
		t.Errorf("Expected tomorrow range, got %s", params.DateRange.Kind)
	}
	if params.Category != models.CategoryTeam {
		t.Errorf("Expected team category, got %s", params.Category)
	}
	if params.Location != "london" {
		t.Errorf("Expected location london, got %q", params.Location)
	}
	if params.Limit != models.DefaultQueryLimit {
		t.Errorf("Expected default limit %d, got %d", models.DefaultQueryLimit, params.Limit)
	}
}

func TestExtractParametersDefaults(t *testing.T) {
	params := nlp.ExtractParameters("show meetings", fixedNow)

	if params.DateRange.Kind != models.DateRangeAll {
		t.Errorf("Expected unbounded range, got %s", params.DateRange.Kind)
	}
	if params.Category != models.CategoryAny {
		t.Errorf("Expected any category, got %s", params.Category)
	}
	if params.Location != "" {
		t.Errorf("Expected empty location, got %q", params.Location)
	}
}

// Review wins over team when both keywords appear.
func TestExtractCategoryPriority(t *testing.T) {
	params := nlp.ExtractParameters("team review meetings this week", fixedNow)

	if params.Category != models.CategoryReview {
		t.Errorf("Expected review category, got %s", params.Category)
	}
}

func TestExtractParametersClientCategory(t *testing.T) {
	params := nlp.ExtractParameters("how many client calls in Chennai", fixedNow)

	if params.Category != models.CategoryClient {
		t.Errorf("Expected client category, got %s", params.Category)
	}
	if params.Location != "chennai" {
		t.Errorf("Expected location chennai, got %q", params.Location)
	}
}

func TestParseQueryKind(t *testing.T) {
	cases := []struct {
		message string
		want    models.QueryKind
	}{
		{"show my meetings today", models.QueryKindGet},
		{"list all team meetings", models.QueryKindGet},
		{"how many meetings this week", models.QueryKindCount},
		{"number of client meetings", models.QueryKindCount},
		{"do we have any meetings tomorrow", models.QueryKindCheck},
		{"is there a meeting in London", models.QueryKindCheck},
		{"hello there", models.QueryKindUnknown},
	}

	for _, tc := range cases {
		if got := nlp.ParseQueryKind(tc.message); got != tc.want {
			t.Errorf("ParseQueryKind(%q) = %s, want %s", tc.message, got, tc.want)
		}
	}
}

// Get verbs take precedence over check and count phrasing.
func TestParseQueryKindPrecedence(t *testing.T) {
	if got := nlp.ParseQueryKind("show me how many meetings we have"); got != models.QueryKindGet {
		t.Errorf("Expected get to win, got %s", got)
	}
	if got := nlp.ParseQueryKind("check how many meetings"); got != models.QueryKindCheck {
		t.Errorf("Expected check to win over count, got %s", got)
	}
}
