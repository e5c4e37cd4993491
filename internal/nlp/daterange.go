package nlp

import (
	"regexp"
	"strings"
	"time"

	"agentic-chatbot/internal/models"
)

var (
	todayPattern     = regexp.MustCompile(`\b(today|now|current day)\b`)
	tomorrowPattern  = regexp.MustCompile(`\b(tomorrow|next day|day after)\b`)
	yesterdayPattern = regexp.MustCompile(`\b(yesterday|previous day|day before)\b`)
	weekPattern      = regexp.MustCompile(`\b(week|next week|this week|weekly)\b`)
)

// ResolveDateRange maps a free-text time phrase to an inclusive range relative
// to now. Rules are tested in order and the first match wins; no marker means
// no bound. The clock is injected so classification stays deterministic.
func ResolveDateRange(text string, now time.Time) models.DateRange {
	lower := strings.ToLower(text)

	switch {
	case todayPattern.MatchString(lower):
		return dayRange(models.DateRangeToday, now)
	case tomorrowPattern.MatchString(lower):
		return dayRange(models.DateRangeTomorrow, now.AddDate(0, 0, 1))
	case yesterdayPattern.MatchString(lower):
		return dayRange(models.DateRangeYesterday, now.AddDate(0, 0, -1))
	case weekPattern.MatchString(lower):
		return models.DateRange{
			Kind:  models.DateRangeWeek,
			Start: startOfDay(now),
			End:   endOfDay(now.AddDate(0, 0, 7)),
		}
	default:
		return models.DateRange{Kind: models.DateRangeAll}
	}
}

// ResolveExplicitDate handles the out-of-band date string the scheduling
// endpoint accepts: a day keyword, or an ISO calendar date. An unparseable
// value falls back to tomorrow's range with Defaulted set instead of failing;
// that fallback is load-bearing for the scheduling path and must stay.
func ResolveExplicitDate(value string, now time.Time) models.DateRange {
	trimmed := strings.TrimSpace(value)

	if inferred := ResolveDateRange(trimmed, now); inferred.Kind != models.DateRangeAll {
		return inferred
	}

	parsed, err := time.ParseInLocation("2006-01-02", trimmed, now.Location())
	if err != nil {
		fallback := dayRange(models.DateRangeTomorrow, now.AddDate(0, 0, 1))
		fallback.Defaulted = true
		return fallback
	}

	return dayRange(models.DateRangeExplicit, parsed)
}

func dayRange(kind models.DateRangeKind, day time.Time) models.DateRange {
	return models.DateRange{
		Kind:  kind,
		Start: startOfDay(day),
		End:   endOfDay(day),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
