package models

import "time"

type Intent string

const (
	IntentWeather       Intent = "weather"
	IntentDocument      Intent = "document"
	IntentScheduling    Intent = "scheduling"
	IntentDatabaseQuery Intent = "database_query"
	IntentUnknown       Intent = "unknown"
)

type DateRangeKind string

const (
	DateRangeToday     DateRangeKind = "today"
	DateRangeTomorrow  DateRangeKind = "tomorrow"
	DateRangeYesterday DateRangeKind = "yesterday"
	DateRangeWeek      DateRangeKind = "week"
	DateRangeAll       DateRangeKind = "all"
	DateRangeExplicit  DateRangeKind = "explicit"
)

// DateRange is an inclusive time window resolved from a natural-language
// phrase. When Kind is DateRangeAll no bound applies and Start/End are zero.
type DateRange struct {
	Kind  DateRangeKind `json:"kind"`
	Start time.Time     `json:"start,omitempty"`
	End   time.Time     `json:"end,omitempty"`

	// Defaulted marks an explicit date string that failed to parse and fell
	// back to tomorrow's range. Kept for behavioral parity with the
	// scheduling endpoint; callers may surface it later.
	Defaulted bool `json:"defaulted,omitempty"`
}

func (r DateRange) Bounded() bool {
	return r.Kind != DateRangeAll
}

type CategoryFilter string

const (
	CategoryReview CategoryFilter = "review"
	CategoryTeam   CategoryFilter = "team"
	CategoryClient CategoryFilter = "client"
	CategoryAny    CategoryFilter = "any"
)

// QueryParameters is the structured filter set extracted from one message.
// Constructed once per request, immutable afterwards.
type QueryParameters struct {
	DateRange DateRange      `json:"date_range"`
	Category  CategoryFilter `json:"category"`
	Location  string         `json:"location,omitempty"`
	Limit     int            `json:"limit"`
}

const DefaultQueryLimit = 10

type QueryKind string

const (
	QueryKindGet     QueryKind = "get_meetings"
	QueryKindCount   QueryKind = "count_meetings"
	QueryKindCheck   QueryKind = "check_meeting"
	QueryKindUnknown QueryKind = "unknown"
)

// FilterDescriptor echoes which filters were applied, for count/get payloads.
type FilterDescriptor struct {
	DateRange string `json:"date_range"`
	Category  string `json:"category"`
	Location  string `json:"location"`
}

func DescribeFilters(params QueryParameters) FilterDescriptor {
	location := params.Location
	if location == "" {
		location = "all"
	}
	return FilterDescriptor{
		DateRange: string(params.DateRange.Kind),
		Category:  string(params.Category),
		Location:  location,
	}
}

type MeetingsResult struct {
	Count          int              `json:"count"`
	Meetings       []Meeting        `json:"meetings"`
	FiltersApplied FilterDescriptor `json:"filters_applied"`
}

type CountResult struct {
	Count    int    `json:"count"`
	Period   string `json:"period"`
	Category string `json:"category"`
	Location string `json:"location"`
}

type CheckResult struct {
	Exists   bool      `json:"exists"`
	Count    int       `json:"count"`
	Meetings []Meeting `json:"meetings"`
	Message  string    `json:"message"`
}

// ErrorResult is the degraded payload carried inside a normal envelope when a
// collaborator fails. The user-facing path never raises.
type ErrorResult struct {
	Source     string `json:"source"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}
