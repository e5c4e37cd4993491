package nlp

import (
	"regexp"
	"strings"
	"time"

	"agentic-chatbot/internal/models"
)

// categoryPatterns is tested in priority order; the first match wins and the
// default is CategoryAny.
var categoryPatterns = []struct {
	category models.CategoryFilter
	pattern  *regexp.Regexp
}{
	{models.CategoryReview, regexp.MustCompile(`\b(review|retrospective|check-in|status)\b`)},
	{models.CategoryTeam, regexp.MustCompile(`\b(team|group|department|all hands)\b`)},
	{models.CategoryClient, regexp.MustCompile(`\b(client|customer|partner|external)\b`)},
}

// gazetteer is the fixed set of city names the extractor recognizes.
var gazetteer = []string{"chennai", "bengaluru", "mumbai", "delhi", "london", "new york", "paris"}

var (
	getPattern   = regexp.MustCompile(`\b(show|list|display|get|find)\b`)
	checkPattern = regexp.MustCompile(`\b(do we have|is there|any meeting|check|verify)\b`)
	countPattern = regexp.MustCompile(`\b(how many|count|number of)\b`)
)

// ExtractParameters builds the structured filter set for a message. The clock
// is injected and forwarded to the date resolver.
func ExtractParameters(text string, now time.Time) models.QueryParameters {
	lower := strings.ToLower(text)

	return models.QueryParameters{
		DateRange: ResolveDateRange(lower, now),
		Category:  extractCategory(lower),
		Location:  extractLocation(lower),
		Limit:     models.DefaultQueryLimit,
	}
}

// ParseQueryKind decides which read operation a database-query message asks
// for. Absence of a match is a normal outcome, not a failure.
func ParseQueryKind(text string) models.QueryKind {
	lower := strings.ToLower(text)

	switch {
	case getPattern.MatchString(lower):
		return models.QueryKindGet
	case checkPattern.MatchString(lower):
		return models.QueryKindCheck
	case countPattern.MatchString(lower):
		return models.QueryKindCount
	default:
		return models.QueryKindUnknown
	}
}

func extractCategory(lower string) models.CategoryFilter {
	for _, candidate := range categoryPatterns {
		if candidate.pattern.MatchString(lower) {
			return candidate.category
		}
	}
	return models.CategoryAny
}

func extractLocation(lower string) string {
	for _, city := range gazetteer {
		if strings.Contains(lower, city) {
			return city
		}
	}
	return ""
}
