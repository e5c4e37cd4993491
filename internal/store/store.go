package store

import (
	"context"
	"time"

	"agentic-chatbot/internal/models"
)

// MeetingStore is the persistence collaborator for meeting records. All
// read/write coordination lives behind this interface; the routing core issues
// at most one logical write per Create call and never retries.
type MeetingStore interface {
	// Find returns meetings matching the conjunction of the given filters,
	// ordered by scheduled time ascending (ties by id), limited to
	// params.Limit.
	Find(ctx context.Context, params models.QueryParameters) ([]models.Meeting, error)

	// Create persists a new meeting and returns it with its assigned id.
	Create(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error)

	// FindScheduled looks up an existing meeting with the same title and
	// location inside the given window. Returns nil when none exists.
	FindScheduled(ctx context.Context, title, location string, start, end time.Time) (*models.Meeting, error)

	// List returns meetings for the REST listing endpoint, optionally
	// bounded by a date range and location substring.
	List(ctx context.Context, dateRange *models.DateRange, location string) ([]models.Meeting, error)

	HealthCheck(ctx context.Context) error
	Close() error
}
