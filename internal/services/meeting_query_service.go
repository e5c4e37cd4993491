package services

import (
	"context"
	"fmt"
	"time"

	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
	"agentic-chatbot/internal/store"
)

// MeetingQueryService executes the read operations of the database agent.
// Count and check are derived from a single get so the numbers can never
// disagree with the returned records.
type MeetingQueryService struct {
	store  store.MeetingStore
	logger *logger.Logger
}

func NewMeetingQueryService(meetingStore store.MeetingStore, log *logger.Logger) *MeetingQueryService {
	return &MeetingQueryService{store: meetingStore, logger: log}
}

// Execute runs one query kind against the store and shapes the result. The
// only error it returns is a store failure; an unrecognized kind is a normal
// degraded payload.
func (service *MeetingQueryService) Execute(ctx context.Context, kind models.QueryKind, params models.QueryParameters) (interface{}, error) {
	startTime := time.Now()

	if kind == models.QueryKindUnknown {
		return &models.ErrorResult{
			Source:     "database",
			Code:       "UNRECOGNIZED_QUERY",
			Message:    "Could not understand the query type",
			Suggestion: "Try asking to show, count or check meetings.",
		}, nil
	}

	getResult, err := service.getMeetings(ctx, params)
	if err != nil {
		return nil, err
	}

	service.logger.LogAgent("", "database", string(kind), time.Since(startTime), map[string]interface{}{
		"count":      getResult.Count,
		"date_range": string(params.DateRange.Kind),
		"category":   string(params.Category),
	}, nil)

	switch kind {
	case models.QueryKindCount:
		filters := getResult.FiltersApplied
		return &models.CountResult{
			Count:    getResult.Count,
			Period:   filters.DateRange,
			Category: filters.Category,
			Location: filters.Location,
		}, nil

	case models.QueryKindCheck:
		message := "No meetings found"
		if getResult.Count > 0 {
			message = fmt.Sprintf("%d meeting(s) found", getResult.Count)
		}
		return &models.CheckResult{
			Exists:   getResult.Count > 0,
			Count:    getResult.Count,
			Meetings: getResult.Meetings,
			Message:  message,
		}, nil

	default:
		return getResult, nil
	}
}

func (service *MeetingQueryService) getMeetings(ctx context.Context, params models.QueryParameters) (*models.MeetingsResult, error) {
	meetings, err := service.store.Find(ctx, params)
	if err != nil {
		return nil, err
	}

	return &models.MeetingsResult{
		Count:          len(meetings),
		Meetings:       meetings,
		FiltersApplied: models.DescribeFilters(params),
	}, nil
}
