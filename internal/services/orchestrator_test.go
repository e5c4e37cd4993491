package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"agentic-chatbot/internal/config"
	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
	"agentic-chatbot/internal/services"
)

type MockStore struct {
	meetings   []models.Meeting
	findErr    error
	findCalls  int
	lastParams models.QueryParameters

	created   []*models.Meeting
	createErr error
	existing  *models.Meeting

	listRange    *models.DateRange
	listLocation string
}

func (m *MockStore) Find(ctx context.Context, params models.QueryParameters) ([]models.Meeting, error) {
	m.findCalls++
	m.lastParams = params
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.meetings, nil
}

func (m *MockStore) Create(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	meeting.ID = int64(len(m.created) + 1)
	m.created = append(m.created, meeting)
	return meeting, nil
}

func (m *MockStore) FindScheduled(ctx context.Context, title, location string, start, end time.Time) (*models.Meeting, error) {
	return m.existing, nil
}

func (m *MockStore) List(ctx context.Context, dateRange *models.DateRange, location string) ([]models.Meeting, error) {
	m.listRange = dateRange
	m.listLocation = location
	return m.meetings, nil
}

func (m *MockStore) HealthCheck(ctx context.Context) error { return nil }

func (m *MockStore) Close() error { return nil }

type MockWeather struct {
	snapshot *models.WeatherSnapshot
	err      error
	good     bool

	lastLocation string
	lastKeyword  string
}

func (m *MockWeather) GetWeather(ctx context.Context, location, dateKeyword string) (*models.WeatherSnapshot, error) {
	m.lastLocation = location
	m.lastKeyword = dateKeyword
	if m.err != nil {
		return nil, m.err
	}
	return m.snapshot, nil
}

func (m *MockWeather) IsGoodWeather(snapshot *models.WeatherSnapshot) bool { return m.good }

func (m *MockWeather) BadWeatherReason(snapshot *models.WeatherSnapshot) string {
	return "Rain expected"
}

func (m *MockWeather) Status() string { return "mock_mode" }

func (m *MockWeather) HealthCheck(ctx context.Context) error { return nil }

type MockDocuments struct {
	answer *models.DocumentAnswer
}

func (m *MockDocuments) ProcessDocument(content []byte, filename string) (int, error) {
	return 3, nil
}

func (m *MockDocuments) Query(ctx context.Context, question string) *models.DocumentAnswer {
	return m.answer
}

func (m *MockDocuments) HasDocument() bool { return m.answer != nil }

func (m *MockDocuments) HealthCheck(ctx context.Context) error { return nil }

type MockConversationLog struct {
	exchanges []models.ConversationExchange
	recordErr error
}

func (m *MockConversationLog) RecordExchange(ctx context.Context, exchange models.ConversationExchange) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.exchanges = append(m.exchanges, exchange)
	return nil
}

func (m *MockConversationLog) GetRecentExchanges(ctx context.Context, conversationID string, limit int) ([]models.ConversationExchange, error) {
	return m.exchanges, nil
}

func (m *MockConversationLog) HealthCheck(ctx context.Context) error { return nil }

func (m *MockConversationLog) Close() error { return nil }

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	testLogger, err := logger.New(config.LogConfig{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("Failed to create test logger: %v", err)
	}
	return testLogger
}

func goodSnapshot(location string) *models.WeatherSnapshot {
	return &models.WeatherSnapshot{
		Location:    location,
		Date:        "2025-03-11",
		Temperature: 22.0,
		Humidity:    60,
		WindSpeed:   4.0,
		Conditions:  "clear sky",
		Main:        "Clear",
		Source:      "mock",
	}
}

func newTestOrchestrator(t *testing.T, store *MockStore, weather *MockWeather, documents *MockDocuments, conversation *MockConversationLog) *services.Orchestrator {
	t.Helper()

	var log services.ConversationLog
	if conversation != nil {
		log = conversation
	}
	return services.NewOrchestrator(store, weather, documents, log, newTestLogger(t))
}

func TestRouteDatabaseQueryGet(t *testing.T) {
	store := &MockStore{meetings: []models.Meeting{
		{ID: 1, Title: "Team Review", Location: "London"},
	}}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "show team meetings tomorrow", "conv-1")

	if response.Intent != models.IntentDatabaseQuery {
		t.Fatalf("Expected database_query intent, got %s", response.Intent)
	}
	if response.Parameters == nil {
		t.Fatal("Expected extracted parameters on the envelope")
	}
	if response.Parameters.Category != models.CategoryTeam {
		t.Errorf("Expected team category, got %s", response.Parameters.Category)
	}
	if response.Parameters.DateRange.Kind != models.DateRangeTomorrow {
		t.Errorf("Expected tomorrow range, got %s", response.Parameters.DateRange.Kind)
	}

	result, ok := response.Result.(*models.MeetingsResult)
	if !ok {
		t.Fatalf("Expected MeetingsResult, got %T", response.Result)
	}
	if result.Count != 1 || len(result.Meetings) != 1 {
		t.Errorf("Expected one meeting, got count=%d len=%d", result.Count, len(result.Meetings))
	}
	if store.lastParams.Limit != models.DefaultQueryLimit {
		t.Errorf("Expected default limit %d, got %d", models.DefaultQueryLimit, store.lastParams.Limit)
	}
}

// Count answers must agree with what a get over the same filters returns.
func TestRouteCountConsistentWithGet(t *testing.T) {
	store := &MockStore{meetings: []models.Meeting{
		{ID: 1, Title: "Team Review", Location: "London"},
		{ID: 2, Title: "Team Standup", Location: "London"},
	}}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	getResponse := orchestrator.Route(context.Background(), "show team meetings tomorrow", "conv-1")
	countResponse := orchestrator.Route(context.Background(), "how many team meetings tomorrow", "conv-1")

	getResult, ok := getResponse.Result.(*models.MeetingsResult)
	if !ok {
		t.Fatalf("Expected MeetingsResult, got %T", getResponse.Result)
	}
	countResult, ok := countResponse.Result.(*models.CountResult)
	if !ok {
		t.Fatalf("Expected CountResult, got %T", countResponse.Result)
	}

	if countResult.Count != len(getResult.Meetings) {
		t.Errorf("Count %d disagrees with get length %d", countResult.Count, len(getResult.Meetings))
	}
	if countResult.Period != string(models.DateRangeTomorrow) {
		t.Errorf("Expected period tomorrow, got %s", countResult.Period)
	}
}

func TestRouteCheckMeeting(t *testing.T) {
	store := &MockStore{meetings: []models.Meeting{{ID: 1, Title: "Sync"}}}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "do we have any meetings today", "conv-1")

	result, ok := response.Result.(*models.CheckResult)
	if !ok {
		t.Fatalf("Expected CheckResult, got %T", response.Result)
	}
	if !result.Exists || result.Count != 1 {
		t.Errorf("Expected exists with count 1, got exists=%v count=%d", result.Exists, result.Count)
	}
}

// A database message without a get/count/check verb is answered with a
// degraded payload, not an error, and never reaches the store.
func TestRouteUnrecognizedQueryKind(t *testing.T) {
	store := &MockStore{}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "meetings tomorrow", "conv-1")

	if response.Intent != models.IntentDatabaseQuery {
		t.Fatalf("Expected database_query intent, got %s", response.Intent)
	}
	result, ok := response.Result.(*models.ErrorResult)
	if !ok {
		t.Fatalf("Expected ErrorResult, got %T", response.Result)
	}
	if result.Code != "UNRECOGNIZED_QUERY" {
		t.Errorf("Expected UNRECOGNIZED_QUERY, got %s", result.Code)
	}
	if store.findCalls != 0 {
		t.Errorf("Expected no store calls, got %d", store.findCalls)
	}
}

// A store failure becomes a degraded payload inside a normal envelope; the
// extracted parameters stay on the response.
func TestRouteStoreErrorWrapped(t *testing.T) {
	store := &MockStore{findErr: models.NewExternalError("STORE_QUERY_FAILED", "Failed to query meetings").WithCause(errors.New("disk io"))}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "show meetings today", "conv-1")

	result, ok := response.Result.(*models.ErrorResult)
	if !ok {
		t.Fatalf("Expected ErrorResult, got %T", response.Result)
	}
	if result.Source != "store_error" {
		t.Errorf("Expected source store_error, got %s", result.Source)
	}
	if result.Code != "STORE_QUERY_FAILED" {
		t.Errorf("Expected code STORE_QUERY_FAILED, got %s", result.Code)
	}
	if response.Parameters == nil {
		t.Error("Expected parameters to survive a store failure")
	}
}

// An unknown intent never touches the store.
func TestRouteUnknownIntent(t *testing.T) {
	store := &MockStore{}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "asdf qwerty zxcv", "conv-1")

	if response.Intent != models.IntentUnknown {
		t.Fatalf("Expected unknown intent, got %s", response.Intent)
	}
	if response.Confidence != 0 {
		t.Errorf("Expected confidence 0, got %f", response.Confidence)
	}
	if _, ok := response.Result.(*models.ErrorResult); !ok {
		t.Fatalf("Expected ErrorResult, got %T", response.Result)
	}
	if store.findCalls != 0 {
		t.Errorf("Expected no store calls, got %d", store.findCalls)
	}
}

func TestRouteWeather(t *testing.T) {
	weather := &MockWeather{snapshot: goodSnapshot("london"), good: true}
	orchestrator := newTestOrchestrator(t, &MockStore{}, weather, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "what's the weather in London tomorrow", "conv-1")

	if response.Intent != models.IntentWeather {
		t.Fatalf("Expected weather intent, got %s", response.Intent)
	}
	if weather.lastLocation != "london" {
		t.Errorf("Expected location london, got %q", weather.lastLocation)
	}
	if weather.lastKeyword != "tomorrow" {
		t.Errorf("Expected date keyword tomorrow, got %q", weather.lastKeyword)
	}
	if _, ok := response.Result.(*models.WeatherSnapshot); !ok {
		t.Fatalf("Expected WeatherSnapshot, got %T", response.Result)
	}
}

func TestRouteWeatherWithoutLocation(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "how is the weather", "conv-1")

	result, ok := response.Result.(*models.ErrorResult)
	if !ok {
		t.Fatalf("Expected ErrorResult, got %T", response.Result)
	}
	if result.Code != "LOCATION_REQUIRED" {
		t.Errorf("Expected LOCATION_REQUIRED, got %s", result.Code)
	}
}

func TestRouteDocument(t *testing.T) {
	documents := &MockDocuments{answer: &models.DocumentAnswer{
		Source:     "document",
		Answer:     "Employees get 20 days of leave.",
		Confidence: 0.8,
		Document:   "policy.txt",
	}}
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{}, documents, nil)

	response := orchestrator.Route(context.Background(), "what is the leave policy", "conv-1")

	if response.Intent != models.IntentDocument {
		t.Fatalf("Expected document intent, got %s", response.Intent)
	}
	if response.Response != "Employees get 20 days of leave." {
		t.Errorf("Unexpected response text: %q", response.Response)
	}
}

// A scheduling message without a recognized city cannot run the weather
// gate; the router asks for one instead of guessing.
func TestRouteSchedulingWithoutLocation(t *testing.T) {
	store := &MockStore{}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "schedule a team review meeting tomorrow", "conv-1")

	if response.Intent != models.IntentScheduling {
		t.Fatalf("Expected scheduling intent, got %s", response.Intent)
	}
	result, ok := response.Result.(*models.ErrorResult)
	if !ok {
		t.Fatalf("Expected ErrorResult, got %T", response.Result)
	}
	if result.Code != "LOCATION_REQUIRED" {
		t.Errorf("Expected LOCATION_REQUIRED, got %s", result.Code)
	}
	if len(store.created) != 0 {
		t.Errorf("Expected no created meeting, got %d", len(store.created))
	}
}

func TestScheduleMeetingCreates(t *testing.T) {
	store := &MockStore{}
	weather := &MockWeather{snapshot: goodSnapshot("london"), good: true}
	orchestrator := newTestOrchestrator(t, store, weather, &MockDocuments{}, nil)

	result := orchestrator.ScheduleMeeting(context.Background(), models.ScheduleRequest{
		Location: "London",
		Date:     "tomorrow",
		Title:    "Planning Session",
	})

	if result.Status != models.ScheduleStatusScheduled {
		t.Fatalf("Expected scheduled status, got %s: %s", result.Status, result.Message)
	}
	if len(store.created) != 1 {
		t.Fatalf("Expected one created meeting, got %d", len(store.created))
	}
	if store.created[0].Title != "Planning Session" {
		t.Errorf("Expected requested title, got %s", store.created[0].Title)
	}
	if store.created[0].WeatherDecision != "good" {
		t.Errorf("Expected good weather decision, got %s", store.created[0].WeatherDecision)
	}
}

func TestScheduleMeetingBadWeather(t *testing.T) {
	store := &MockStore{}
	weather := &MockWeather{snapshot: goodSnapshot("london"), good: false}
	orchestrator := newTestOrchestrator(t, store, weather, &MockDocuments{}, nil)

	result := orchestrator.ScheduleMeeting(context.Background(), models.ScheduleRequest{
		Location: "London",
		Date:     "tomorrow",
	})

	if result.Status != models.ScheduleStatusCancelled {
		t.Errorf("Expected cancelled status, got %s", result.Status)
	}
	if result.Reason == "" {
		t.Error("Expected a reason for the cancellation")
	}
	if len(store.created) != 0 {
		t.Errorf("Expected no created meeting, got %d", len(store.created))
	}
}

func TestScheduleMeetingDuplicate(t *testing.T) {
	store := &MockStore{existing: &models.Meeting{ID: 7, Title: "Team Meeting", Location: "London"}}
	weather := &MockWeather{snapshot: goodSnapshot("london"), good: true}
	orchestrator := newTestOrchestrator(t, store, weather, &MockDocuments{}, nil)

	result := orchestrator.ScheduleMeeting(context.Background(), models.ScheduleRequest{
		Location: "London",
		Date:     "tomorrow",
	})

	if result.Status != models.ScheduleStatusExists {
		t.Fatalf("Expected exists status, got %s", result.Status)
	}
	if result.MeetingID != 7 {
		t.Errorf("Expected meeting id 7, got %d", result.MeetingID)
	}
	if len(store.created) != 0 {
		t.Errorf("Expected no created meeting, got %d", len(store.created))
	}
}

func TestScheduleMeetingWeatherFailure(t *testing.T) {
	weather := &MockWeather{err: models.NewNotFoundError("LOCATION_NOT_FOUND", "Unknown location")}
	orchestrator := newTestOrchestrator(t, &MockStore{}, weather, &MockDocuments{}, nil)

	result := orchestrator.ScheduleMeeting(context.Background(), models.ScheduleRequest{
		Location: "Atlantis",
		Date:     "tomorrow",
	})

	if result.Status != models.ScheduleStatusError {
		t.Fatalf("Expected error status, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "weather") {
		t.Errorf("Expected weather failure message, got %q", result.Message)
	}
}

func TestRouteRecordsExchange(t *testing.T) {
	conversation := &MockConversationLog{}
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{snapshot: goodSnapshot("london"), good: true}, &MockDocuments{}, conversation)

	response := orchestrator.Route(context.Background(), "weather in London", "conv-42")

	if len(conversation.exchanges) != 1 {
		t.Fatalf("Expected one recorded exchange, got %d", len(conversation.exchanges))
	}
	exchange := conversation.exchanges[0]
	if exchange.ConversationID != "conv-42" {
		t.Errorf("Expected conversation id conv-42, got %s", exchange.ConversationID)
	}
	if exchange.AgentType != models.IntentWeather {
		t.Errorf("Expected weather agent type, got %s", exchange.AgentType)
	}
	if exchange.AgentResponse != response.Response {
		t.Error("Recorded response does not match the envelope")
	}
}

// A failing conversation log never fails the routed request.
func TestRouteSwallowsRecordErrors(t *testing.T) {
	conversation := &MockConversationLog{recordErr: errors.New("redis down")}
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{snapshot: goodSnapshot("london"), good: true}, &MockDocuments{}, conversation)

	response := orchestrator.Route(context.Background(), "weather in London", "conv-1")

	if response == nil || response.Intent != models.IntentWeather {
		t.Fatal("Expected a normal response despite the log failure")
	}
}

func TestRouteGeneratesConversationID(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{snapshot: goodSnapshot("london"), good: true}, &MockDocuments{}, nil)

	response := orchestrator.Route(context.Background(), "weather in London", "")

	if response.ConversationID == "" {
		t.Error("Expected a generated conversation id")
	}
}

var frozenClock = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)

// An explicit YYYY-MM-DD date on the listing path bounds the query to that
// calendar day instead of being dropped.
func TestGetMeetingsExplicitDate(t *testing.T) {
	store := &MockStore{}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil).
		WithClock(func() time.Time { return frozenClock })

	_, err := orchestrator.GetMeetings(context.Background(), "2025-04-01", "london")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if store.listRange == nil {
		t.Fatal("Expected a bounded date range for an explicit date")
	}
	wantStart := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !store.listRange.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, store.listRange.Start)
	}
	if store.listRange.End.Day() != 1 || store.listRange.End.Month() != time.April || store.listRange.End.Hour() != 23 {
		t.Errorf("Expected end of April 1st, got %v", store.listRange.End)
	}
	if store.listLocation != "london" {
		t.Errorf("Expected location london, got %q", store.listLocation)
	}
}

func TestGetMeetingsKeywordDate(t *testing.T) {
	store := &MockStore{}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil).
		WithClock(func() time.Time { return frozenClock })

	if _, err := orchestrator.GetMeetings(context.Background(), "tomorrow", ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if store.listRange == nil {
		t.Fatal("Expected a bounded date range for a keyword date")
	}
	wantStart := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !store.listRange.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, store.listRange.Start)
	}
}

// An unrecognized date value means no date filter, never the resolver's
// tomorrow fallback.
func TestGetMeetingsUnrecognizedDateUnfiltered(t *testing.T) {
	store := &MockStore{}
	orchestrator := newTestOrchestrator(t, store, &MockWeather{}, &MockDocuments{}, nil)

	if _, err := orchestrator.GetMeetings(context.Background(), "next sprint", ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if store.listRange != nil {
		t.Errorf("Expected unbounded listing, got range %+v", store.listRange)
	}
}

// With an injected clock the routed parameters carry exact day bounds, not
// just a range kind.
func TestRouteResolvesBoundsFromInjectedClock(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{}, &MockDocuments{}, nil).
		WithClock(func() time.Time { return frozenClock })

	response := orchestrator.Route(context.Background(), "show meetings tomorrow", "conv-1")

	if response.Parameters == nil {
		t.Fatal("Expected extracted parameters")
	}
	wantStart := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !response.Parameters.DateRange.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, response.Parameters.DateRange.Start)
	}
	if !response.Timestamp.Equal(frozenClock) {
		t.Errorf("Expected envelope timestamp %v, got %v", frozenClock, response.Timestamp)
	}
}

func TestHealthCheckAggregates(t *testing.T) {
	orchestrator := newTestOrchestrator(t, &MockStore{}, &MockWeather{}, &MockDocuments{}, &MockConversationLog{})

	components, healthy := orchestrator.HealthCheck(context.Background())

	if !healthy {
		t.Error("Expected healthy aggregate")
	}
	if components["store"] != "healthy" {
		t.Errorf("Expected healthy store, got %s", components["store"])
	}
	if components["conversation_log"] != "healthy" {
		t.Errorf("Expected healthy conversation log, got %s", components["conversation_log"])
	}
}
