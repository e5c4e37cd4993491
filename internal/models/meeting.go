package models

import "time"

const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusCancelled = "cancelled"
	MeetingStatusCompleted = "completed"
)

type Meeting struct {
	ID                int64            `json:"id"`
	Title             string           `json:"title"`
	Location          string           `json:"location"`
	ScheduledAt       time.Time        `json:"scheduled_at"`
	Participants      []string         `json:"participants"`
	WeatherConditions *WeatherSnapshot `json:"weather_conditions,omitempty"`
	WeatherDecision   string           `json:"weather_decision,omitempty"` // "good" or "bad"
	Status            string           `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// WeatherSnapshot is the normalized view of one weather observation or
// forecast, shared by the weather and scheduling agents.
type WeatherSnapshot struct {
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like,omitempty"`
	TempMin     float64 `json:"temp_min,omitempty"`
	TempMax     float64 `json:"temp_max,omitempty"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	Conditions  string  `json:"conditions"`
	Main        string  `json:"main"`
	Icon        string  `json:"icon,omitempty"`
	POP         float64 `json:"pop,omitempty"` // probability of precipitation
	Source      string  `json:"source"`
	Note        string  `json:"note,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusCancelled = "cancelled"
	ScheduleStatusExists    = "exists"
	ScheduleStatusError     = "error"
)

type ScheduleResult struct {
	Status          string           `json:"status"`
	Message         string           `json:"message"`
	MeetingID       int64            `json:"meeting_id,omitempty"`
	WeatherDecision string           `json:"weather_decision,omitempty"`
	Weather         *WeatherSnapshot `json:"weather_data,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}

type DocumentAnswer struct {
	Source     string  `json:"source"` // "document", "llm" or "error"
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Document   string  `json:"document,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// ConversationExchange is one recorded user/agent turn. Persistence of the
// history is the conversation log's concern, never the router's.
type ConversationExchange struct {
	ConversationID string    `json:"conversation_id"`
	UserMessage    string    `json:"user_message"`
	AgentResponse  string    `json:"agent_response"`
	AgentType      Intent    `json:"agent_type"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
}
