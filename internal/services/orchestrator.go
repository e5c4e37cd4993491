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

// WeatherProvider is the weather agent surface the router and the scheduling
// service depend on.
type WeatherProvider interface {
	GetWeather(ctx context.Context, location, dateKeyword string) (*models.WeatherSnapshot, error)
	IsGoodWeather(snapshot *models.WeatherSnapshot) bool
	BadWeatherReason(snapshot *models.WeatherSnapshot) string
	Status() string
	HealthCheck(ctx context.Context) error
}

// DocumentProvider answers questions over the uploaded document.
type DocumentProvider interface {
	ProcessDocument(content []byte, filename string) (int, error)
	Query(ctx context.Context, question string) *models.DocumentAnswer
	HasDocument() bool
	HealthCheck(ctx context.Context) error
}

// ConversationLog records routed exchanges. Write failures are logged and
// swallowed by the router.
type ConversationLog interface {
	RecordExchange(ctx context.Context, exchange models.ConversationExchange) error
	GetRecentExchanges(ctx context.Context, conversationID string, limit int) ([]models.ConversationExchange, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// Orchestrator routes each chat message to exactly one agent and normalizes
// whatever comes back into a ChatResponse. Routing itself never fails: agent
// and store errors become degraded result payloads.
type Orchestrator struct {
	store        store.MeetingStore
	queryService *MeetingQueryService
	scheduler    *SchedulingService
	weather      WeatherProvider
	documents    DocumentProvider
	conversation ConversationLog
	logger       *logger.Logger

	startedAt time.Time
	now       func() time.Time
}

func NewOrchestrator(
	meetingStore store.MeetingStore,
	weather WeatherProvider,
	documents DocumentProvider,
	conversation ConversationLog,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:        meetingStore,
		queryService: NewMeetingQueryService(meetingStore, log),
		scheduler:    NewSchedulingService(meetingStore, weather, log),
		weather:      weather,
		documents:    documents,
		conversation: conversation,
		logger:       log,
		startedAt:    time.Now(),
		now:          time.Now,
	}
}

// WithClock replaces the time source. Tests inject a fixed clock so resolved
// date bounds are deterministic.
func (orchestrator *Orchestrator) WithClock(clock func() time.Time) *Orchestrator {
	orchestrator.now = clock
	return orchestrator
}

// Route classifies the message, dispatches it to the matching agent and
// records the exchange. The returned envelope always carries the detected
// intent, confidence and original message.
func (orchestrator *Orchestrator) Route(ctx context.Context, message, conversationID string) *models.ChatResponse {
	startTime := time.Now()
	now := orchestrator.now()

	if conversationID == "" {
		conversationID = models.GenerateConversationID()
	}

	intent, confidence := nlp.ClassifyIntent(message)

	response := models.NewChatResponse(intent, message, conversationID, now)
	response.Confidence = confidence

	switch intent {
	case models.IntentWeather:
		orchestrator.routeWeather(ctx, message, now, response)
	case models.IntentDocument:
		orchestrator.routeDocument(ctx, message, response)
	case models.IntentScheduling:
		orchestrator.routeScheduling(ctx, message, now, response)
	case models.IntentDatabaseQuery:
		orchestrator.routeDatabaseQuery(ctx, message, now, response)
	default:
		response.Response = "I could not understand your request. Try asking about the weather, your documents, or your meetings."
		response.Result = &models.ErrorResult{
			Source:     "router",
			Code:       "UNKNOWN_INTENT",
			Message:    "Could not determine what you are asking for",
			Suggestion: "Ask about weather, documents, scheduling or meetings.",
		}
	}

	orchestrator.logger.LogAgent(conversationID, "orchestrator", "route", time.Since(startTime), map[string]interface{}{
		"intent":     string(intent),
		"confidence": confidence,
	}, nil)

	orchestrator.recordExchange(ctx, conversationID, message, response)

	return response
}

func (orchestrator *Orchestrator) routeWeather(ctx context.Context, message string, now time.Time, response *models.ChatResponse) {
	params := nlp.ExtractParameters(message, now)
	response.Parameters = &params

	if params.Location == "" {
		response.Response = "Which city do you want the weather for?"
		response.Result = &models.ErrorResult{
			Source:     "weather",
			Code:       "LOCATION_REQUIRED",
			Message:    "No known location found in the message",
			Suggestion: "Mention a city, for example 'weather in Chennai tomorrow'.",
		}
		return
	}

	snapshot, err := orchestrator.weather.GetWeather(ctx, params.Location, weatherKeyword(params.DateRange.Kind))
	if err != nil {
		response.Response = fmt.Sprintf("Could not get weather for %s.", params.Location)
		response.Result = errorResult("weather", err)
		return
	}

	response.Response = fmt.Sprintf("Weather in %s (%s): %s, %.1f°C, humidity %d%%, wind %.1f m/s.",
		snapshot.Location, snapshot.Date, snapshot.Conditions, snapshot.Temperature, snapshot.Humidity, snapshot.WindSpeed)
	response.Result = snapshot
}

func (orchestrator *Orchestrator) routeDocument(ctx context.Context, message string, response *models.ChatResponse) {
	answer := orchestrator.documents.Query(ctx, message)
	response.Response = answer.Answer
	response.Result = answer
}

func (orchestrator *Orchestrator) routeScheduling(ctx context.Context, message string, now time.Time, response *models.ChatResponse) {
	params := nlp.ExtractParameters(message, now)
	response.Parameters = &params

	if params.Location == "" {
		response.Response = "Where should the meeting take place? Mention a city so I can check the weather."
		response.Result = &models.ErrorResult{
			Source:     "scheduling",
			Code:       "LOCATION_REQUIRED",
			Message:    "Scheduling needs a location for the weather check",
			Suggestion: "For example 'schedule a meeting in London tomorrow'.",
		}
		return
	}

	date := weatherKeyword(params.DateRange.Kind)
	if date == "" && params.DateRange.Bounded() {
		date = params.DateRange.Start.Format("2006-01-02")
	}
	if date == "" {
		date = "tomorrow"
	}

	result := orchestrator.scheduler.ScheduleMeeting(ctx, models.ScheduleRequest{
		Location: params.Location,
		Date:     date,
	}, now)

	response.Response = result.Message
	response.Result = result
}

func (orchestrator *Orchestrator) routeDatabaseQuery(ctx context.Context, message string, now time.Time, response *models.ChatResponse) {
	params := nlp.ExtractParameters(message, now)
	response.Parameters = &params

	kind := nlp.ParseQueryKind(message)

	result, err := orchestrator.queryService.Execute(ctx, kind, params)
	if err != nil {
		response.Response = "Could not query your meetings right now."
		response.Result = errorResult("store_error", err)
		return
	}

	response.Response = describeQueryResult(kind, result)
	response.Result = result
}

func describeQueryResult(kind models.QueryKind, result interface{}) string {
	switch payload := result.(type) {
	case *models.MeetingsResult:
		if payload.Count == 0 {
			return "No meetings found for those filters."
		}
		return fmt.Sprintf("Found %d meeting(s).", payload.Count)
	case *models.CountResult:
		return fmt.Sprintf("You have %d meeting(s) (%s, %s, %s).",
			payload.Count, payload.Period, payload.Category, payload.Location)
	case *models.CheckResult:
		return payload.Message
	case *models.ErrorResult:
		return payload.Message
	default:
		return fmt.Sprintf("Query %s completed.", kind)
	}
}

// errorResult turns an agent or store failure into a degraded payload so the
// envelope stays uniform.
func errorResult(source string, err error) *models.ErrorResult {
	result := &models.ErrorResult{
		Source:  source,
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
	}
	if agentErr, ok := models.AsAgentError(err); ok {
		result.Code = agentErr.Code
		result.Message = agentErr.Message
	}
	return result
}

func (orchestrator *Orchestrator) recordExchange(ctx context.Context, conversationID, message string, response *models.ChatResponse) {
	if orchestrator.conversation == nil {
		return
	}

	err := orchestrator.conversation.RecordExchange(ctx, models.ConversationExchange{
		ConversationID: conversationID,
		UserMessage:    message,
		AgentResponse:  response.Response,
		AgentType:      response.Intent,
		Confidence:     response.Confidence,
		Timestamp:      response.Timestamp,
	})
	if err != nil {
		orchestrator.logger.WithError(err).Warn("Failed to record conversation exchange",
			"conversation_id", conversationID)
	}
}

// ScheduleMeeting exposes the scheduling agent for the direct REST endpoint.
func (orchestrator *Orchestrator) ScheduleMeeting(ctx context.Context, req models.ScheduleRequest) *models.ScheduleResult {
	return orchestrator.scheduler.ScheduleMeeting(ctx, req, orchestrator.now())
}

// GetMeetings lists stored meetings, optionally narrowed by a date keyword or
// an explicit YYYY-MM-DD date, and by location.
func (orchestrator *Orchestrator) GetMeetings(ctx context.Context, dateKeyword, location string) ([]models.Meeting, error) {
	var dateRange *models.DateRange
	if dateKeyword != "" {
		resolved := nlp.ResolveExplicitDate(dateKeyword, orchestrator.now())
		// A value that is neither a keyword nor a calendar date means no date
		// filter here, not the resolver's tomorrow fallback.
		if resolved.Bounded() && !resolved.Defaulted {
			dateRange = &resolved
		}
	}
	return orchestrator.store.List(ctx, dateRange, location)
}

// ExecuteQuery runs one structured meeting query, as used by the REST query
// endpoint. The message goes through the same extraction as chat routing.
func (orchestrator *Orchestrator) ExecuteQuery(ctx context.Context, message string) *models.ChatResponse {
	now := orchestrator.now()
	response := models.NewChatResponse(models.IntentDatabaseQuery, message, "", now)
	_, response.Confidence = nlp.ClassifyIntent(message)
	orchestrator.routeDatabaseQuery(ctx, message, now, response)
	return response
}

// GetWeather exposes the weather agent for the direct REST endpoint.
func (orchestrator *Orchestrator) GetWeather(ctx context.Context, location, dateKeyword string) (*models.WeatherSnapshot, error) {
	return orchestrator.weather.GetWeather(ctx, location, dateKeyword)
}

// UploadDocument replaces the active document and returns the chunk count.
func (orchestrator *Orchestrator) UploadDocument(content []byte, filename string) (int, error) {
	return orchestrator.documents.ProcessDocument(content, filename)
}

// GetConversationHistory returns the recorded turns of one conversation.
func (orchestrator *Orchestrator) GetConversationHistory(ctx context.Context, conversationID string, limit int) ([]models.ConversationExchange, error) {
	if orchestrator.conversation == nil {
		return []models.ConversationExchange{}, nil
	}
	return orchestrator.conversation.GetRecentExchanges(ctx, conversationID, limit)
}

// HealthCheck reports per-component health. The store is the only component
// whose failure marks the whole service unhealthy.
func (orchestrator *Orchestrator) HealthCheck(ctx context.Context) (map[string]string, bool) {
	components := map[string]string{}
	healthy := true

	if err := orchestrator.store.HealthCheck(ctx); err != nil {
		components["store"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		components["store"] = "healthy"
	}

	components["weather"] = orchestrator.weather.Status()
	if err := orchestrator.weather.HealthCheck(ctx); err != nil {
		components["weather"] = "unhealthy: " + err.Error()
	}

	if orchestrator.documents.HasDocument() {
		components["documents"] = "document_loaded"
	} else {
		components["documents"] = "no_document"
	}

	if orchestrator.conversation != nil {
		if err := orchestrator.conversation.HealthCheck(ctx); err != nil {
			components["conversation_log"] = "unhealthy: " + err.Error()
		} else {
			components["conversation_log"] = "healthy"
		}
	} else {
		components["conversation_log"] = "disabled"
	}

	return components, healthy
}

// GetStats returns router uptime and component status for the health endpoint.
func (orchestrator *Orchestrator) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"uptime_seconds": time.Since(orchestrator.startedAt).Seconds(),
		"weather_status": orchestrator.weather.Status(),
		"has_document":   orchestrator.documents.HasDocument(),
	}
}

func (orchestrator *Orchestrator) Close() error {
	orchestrator.logger.Info("Shutting down orchestrator")

	var firstErr error
	if orchestrator.conversation != nil {
		if err := orchestrator.conversation.Close(); err != nil {
			firstErr = err
		}
	}
	if err := orchestrator.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
