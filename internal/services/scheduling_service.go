package services

import (
	"context"
	"fmt"
	"time"

	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/nlp"
	"agentic-chatbot/internal/pkg/logger"
	"agentic-chatbot/internal/store"
)

const defaultMeetingTitle = "Team Meeting"

// SchedulingService creates meetings only when the forecast allows it.
// Every outcome is a ScheduleResult; the scheduling path never raises.
type SchedulingService struct {
	store   store.MeetingStore
	weather WeatherProvider
	logger  *logger.Logger
}

func NewSchedulingService(meetingStore store.MeetingStore, weather WeatherProvider, log *logger.Logger) *SchedulingService {
	return &SchedulingService{store: meetingStore, weather: weather, logger: log}
}

// ScheduleMeeting checks the weather for the requested day, refuses to book
// on a bad forecast and deduplicates on title+location+day. The date string
// accepts day keywords or YYYY-MM-DD; anything unparseable books for tomorrow.
func (service *SchedulingService) ScheduleMeeting(ctx context.Context, req models.ScheduleRequest, now time.Time) *models.ScheduleResult {
	startTime := time.Now()

	title := req.Title
	if title == "" {
		title = defaultMeetingTitle
	}

	dateRange := nlp.ResolveExplicitDate(req.Date, now)
	if dateRange.Defaulted {
		service.logger.Warn("Unparseable meeting date, defaulting to tomorrow",
			"requested_date", req.Date)
	}

	snapshot, err := service.weather.GetWeather(ctx, req.Location, weatherKeyword(dateRange.Kind))
	if err != nil {
		return &models.ScheduleResult{
			Status:  models.ScheduleStatusError,
			Message: fmt.Sprintf("Could not get weather data: %v", err),
		}
	}

	isGood := service.weather.IsGoodWeather(snapshot)
	decision := "good"
	if !isGood {
		decision = "bad"
	}

	existing, err := service.store.FindScheduled(ctx, title, req.Location, dateRange.Start, dateRange.End)
	if err != nil {
		return &models.ScheduleResult{
			Status:  models.ScheduleStatusError,
			Message: fmt.Sprintf("Could not check existing meetings: %v", err),
		}
	}

	if existing != nil {
		return &models.ScheduleResult{
			Status: models.ScheduleStatusExists,
			Message: fmt.Sprintf("A meeting '%s' is already scheduled for %s in %s.",
				title, dateRange.Start.Format("2006-01-02"), req.Location),
			MeetingID:       existing.ID,
			WeatherDecision: decision,
			Weather:         snapshot,
		}
	}

	if !isGood {
		service.logger.LogAgent("", "scheduling", "schedule_meeting", time.Since(startTime), map[string]interface{}{
			"location": req.Location,
			"decision": "cancelled",
		}, nil)

		return &models.ScheduleResult{
			Status: models.ScheduleStatusCancelled,
			Message: fmt.Sprintf("Meeting not scheduled due to bad weather in %s on %s.",
				req.Location, dateRange.Start.Format("2006-01-02")),
			WeatherDecision: "bad",
			Weather:         snapshot,
			Reason:          service.weather.BadWeatherReason(snapshot),
		}
	}

	participants := req.Participants
	if participants == nil {
		participants = []string{}
	}

	meeting, err := service.store.Create(ctx, &models.Meeting{
		Title:             title,
		Location:          req.Location,
		ScheduledAt:       dateRange.Start,
		Participants:      participants,
		WeatherConditions: snapshot,
		WeatherDecision:   "good",
		Status:            models.MeetingStatusScheduled,
	})
	if err != nil {
		return &models.ScheduleResult{
			Status:  models.ScheduleStatusError,
			Message: fmt.Sprintf("Error scheduling meeting: %v", err),
		}
	}

	service.logger.LogAgent("", "scheduling", "schedule_meeting", time.Since(startTime), map[string]interface{}{
		"location":   req.Location,
		"meeting_id": meeting.ID,
		"decision":   "scheduled",
	}, nil)

	return &models.ScheduleResult{
		Status: models.ScheduleStatusScheduled,
		Message: fmt.Sprintf("Meeting '%s' scheduled for %s in %s.",
			title, dateRange.Start.Format("2006-01-02"), req.Location),
		MeetingID:       meeting.ID,
		WeatherDecision: "good",
		Weather:         snapshot,
	}
}

// weatherKeyword maps a resolved range kind onto the keyword the weather
// provider understands; explicit dates use the current conditions.
func weatherKeyword(kind models.DateRangeKind) string {
	switch kind {
	case models.DateRangeToday:
		return "today"
	case models.DateRangeTomorrow:
		return "tomorrow"
	case models.DateRangeYesterday:
		return "yesterday"
	default:
		return ""
	}
}
