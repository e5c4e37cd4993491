package nlp

import (
	"regexp"
	"strings"

	"agentic-chatbot/internal/models"
)

// intentPatterns is evaluated in order; the first intent with at least one
// matching group wins. Overlapping keywords across intents are resolved by
// this priority, not by scoring.
var intentPatterns = []struct {
	intent models.Intent
	groups []*regexp.Regexp
}{
	{
		intent: models.IntentWeather,
		groups: compileGroups(
			`\b(weather|temperature|forecast|rain|raining|sunny|cloudy|humidity|windy)\b`,
			`\b(chennai|bengaluru|mumbai|delhi|london|new york|paris)\b`,
		),
	},
	{
		intent: models.IntentDocument,
		groups: compileGroups(
			`\b(resume|document|upload|policy|leave|ceo|file|pdf|txt|handbook)\b`,
			`\b(what is|who is)\b`,
		),
	},
	{
		intent: models.IntentScheduling,
		groups: compileGroups(
			`\b(schedule|book|arrange|plan)\b`,
			`\b(create|verify|set up)\b[^.?!]*\b(meeting|call|appointment)\b`,
		),
	},
	{
		intent: models.IntentDatabaseQuery,
		groups: compileGroups(
			`\b(show|list|display|get|find|search)\b`,
			`\b(how many|count|number of)\b`,
			`\b(do we have|is there|any meeting)\b`,
			`\b(meeting|meetings|appointment|appointments|scheduled|planned)\b`,
		),
	},
}

func compileGroups(patterns ...string) []*regexp.Regexp {
	groups := make([]*regexp.Regexp, len(patterns))
	for i, pattern := range patterns {
		groups[i] = regexp.MustCompile(pattern)
	}
	return groups
}

// ClassifyIntent maps raw message text to an intent. The returned confidence
// is the fraction of the winning intent's pattern groups that matched; an
// unmatched or empty message is IntentUnknown with confidence 0, never an
// error.
func ClassifyIntent(text string) (models.Intent, float64) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return models.IntentUnknown, 0
	}

	for _, candidate := range intentPatterns {
		matched := 0
		for _, group := range candidate.groups {
			if group.MatchString(lower) {
				matched++
			}
		}
		if matched > 0 {
			return candidate.intent, float64(matched) / float64(len(candidate.groups))
		}
	}

	return models.IntentUnknown, 0
}
