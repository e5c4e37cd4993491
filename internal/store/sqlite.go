package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"agentic-chatbot/internal/config"
	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
)

const meetingsSchema = `
CREATE TABLE IF NOT EXISTS meetings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL DEFAULT 'Team Meeting',
	location TEXT NOT NULL DEFAULT 'Office',
	scheduled_at INTEGER NOT NULL,
	participants TEXT NOT NULL DEFAULT '[]',
	weather_conditions TEXT,
	weather_decision TEXT,
	status TEXT NOT NULL DEFAULT 'scheduled',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_meetings_scheduled_at ON meetings(scheduled_at);
`

const meetingColumns = "id, title, location, scheduled_at, participants, weather_conditions, weather_decision, status, created_at, updated_at"

// SQLiteStore implements MeetingStore on an embedded SQLite database.
// Timestamps are stored as unix milliseconds so range filters compare
// correctly regardless of timezone.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

func NewSQLiteStore(cfg config.DatabaseConfig, log *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(meetingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize meetings schema: %w", err)
	}

	log.Info("Meeting store initialized", "driver", "sqlite", "dsn", cfg.DSN)

	return &SQLiteStore{db: db, logger: log}, nil
}

func (s *SQLiteStore) Find(ctx context.Context, params models.QueryParameters) ([]models.Meeting, error) {
	startTime := time.Now()

	var conditions []string
	var args []interface{}

	if params.DateRange.Bounded() {
		conditions = append(conditions, "scheduled_at >= ? AND scheduled_at <= ?")
		args = append(args, params.DateRange.Start.UnixMilli(), params.DateRange.End.UnixMilli())
	}

	switch params.Category {
	case models.CategoryReview, models.CategoryClient:
		conditions = append(conditions, "lower(title) LIKE ?")
		args = append(args, "%"+string(params.Category)+"%")
	case models.CategoryTeam:
		// Title match ORed with a non-empty participant list. Over-broad on
		// purpose; see the query parameter contract.
		conditions = append(conditions, "(lower(title) LIKE ? OR (participants != '' AND participants != '[]'))")
		args = append(args, "%team%")
	}

	if params.Location != "" {
		conditions = append(conditions, "lower(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(params.Location)+"%")
	}

	query := "SELECT " + meetingColumns + " FROM meetings"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scheduled_at ASC, id ASC LIMIT ?"
	args = append(args, params.Limit)

	meetings, err := s.queryMeetings(ctx, query, args...)
	if err != nil {
		s.logger.LogService("store", "find_meetings", time.Since(startTime), map[string]interface{}{
			"date_range": string(params.DateRange.Kind),
			"category":   string(params.Category),
			"location":   params.Location,
		}, err)
		return nil, models.NewExternalError("STORE_QUERY_FAILED", "Failed to query meetings").WithCause(err)
	}

	s.logger.LogService("store", "find_meetings", time.Since(startTime), map[string]interface{}{
		"matched": len(meetings),
	}, nil)

	return meetings, nil
}

func (s *SQLiteStore) Create(ctx context.Context, meeting *models.Meeting) (*models.Meeting, error) {
	startTime := time.Now()

	participantsJSON, err := json.Marshal(meeting.Participants)
	if err != nil {
		return nil, models.NewInternalError("SERIALIZATION_FAILED", "Failed to serialize participants").WithCause(err)
	}

	var weatherJSON sql.NullString
	if meeting.WeatherConditions != nil {
		encoded, err := json.Marshal(meeting.WeatherConditions)
		if err != nil {
			return nil, models.NewInternalError("SERIALIZATION_FAILED", "Failed to serialize weather conditions").WithCause(err)
		}
		weatherJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	now := time.Now()
	if meeting.Status == "" {
		meeting.Status = models.MeetingStatusScheduled
	}
	meeting.CreatedAt = now
	meeting.UpdatedAt = now

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (title, location, scheduled_at, participants, weather_conditions, weather_decision, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meeting.Title, meeting.Location, meeting.ScheduledAt.UnixMilli(), string(participantsJSON),
		weatherJSON, meeting.WeatherDecision, meeting.Status, now.UnixMilli(), now.UnixMilli())
	if err != nil {
		s.logger.LogService("store", "create_meeting", time.Since(startTime), map[string]interface{}{
			"title":    meeting.Title,
			"location": meeting.Location,
		}, err)
		return nil, models.NewExternalError("STORE_CREATE_FAILED", "Failed to create meeting").WithCause(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, models.NewExternalError("STORE_CREATE_FAILED", "Failed to read created meeting id").WithCause(err)
	}
	meeting.ID = id

	s.logger.LogService("store", "create_meeting", time.Since(startTime), map[string]interface{}{
		"meeting_id": id,
	}, nil)

	return meeting, nil
}

func (s *SQLiteStore) FindScheduled(ctx context.Context, title, location string, start, end time.Time) (*models.Meeting, error) {
	query := "SELECT " + meetingColumns + ` FROM meetings
		WHERE title = ? AND location = ? AND scheduled_at >= ? AND scheduled_at <= ?
		ORDER BY id ASC LIMIT 1`

	meetings, err := s.queryMeetings(ctx, query, title, location, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, models.NewExternalError("STORE_QUERY_FAILED", "Failed to check existing meeting").WithCause(err)
	}
	if len(meetings) == 0 {
		return nil, nil
	}
	return &meetings[0], nil
}

func (s *SQLiteStore) List(ctx context.Context, dateRange *models.DateRange, location string) ([]models.Meeting, error) {
	var conditions []string
	var args []interface{}

	if dateRange != nil && dateRange.Bounded() {
		conditions = append(conditions, "scheduled_at >= ? AND scheduled_at <= ?")
		args = append(args, dateRange.Start.UnixMilli(), dateRange.End.UnixMilli())
	}
	if location != "" {
		conditions = append(conditions, "lower(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(location)+"%")
	}

	query := "SELECT " + meetingColumns + " FROM meetings"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scheduled_at ASC, id ASC"

	meetings, err := s.queryMeetings(ctx, query, args...)
	if err != nil {
		return nil, models.NewExternalError("STORE_QUERY_FAILED", "Failed to list meetings").WithCause(err)
	}
	return meetings, nil
}

func (s *SQLiteStore) queryMeetings(ctx context.Context, query string, args ...interface{}) ([]models.Meeting, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meetings := []models.Meeting{}
	for rows.Next() {
		var meeting models.Meeting
		var scheduledAt, createdAt, updatedAt int64
		var participantsJSON string
		var weatherJSON, weatherDecision sql.NullString

		if err := rows.Scan(&meeting.ID, &meeting.Title, &meeting.Location, &scheduledAt,
			&participantsJSON, &weatherJSON, &weatherDecision, &meeting.Status,
			&createdAt, &updatedAt); err != nil {
			return nil, err
		}

		meeting.ScheduledAt = time.UnixMilli(scheduledAt)
		meeting.CreatedAt = time.UnixMilli(createdAt)
		meeting.UpdatedAt = time.UnixMilli(updatedAt)
		meeting.WeatherDecision = weatherDecision.String

		meeting.Participants = []string{}
		if participantsJSON != "" {
			if err := json.Unmarshal([]byte(participantsJSON), &meeting.Participants); err != nil {
				s.logger.WithError(err).Warn("Failed to decode participants", "meeting_id", meeting.ID)
			}
		}

		if weatherJSON.Valid && weatherJSON.String != "" {
			var snapshot models.WeatherSnapshot
			if err := json.Unmarshal([]byte(weatherJSON.String), &snapshot); err == nil {
				meeting.WeatherConditions = &snapshot
			}
		}

		meetings = append(meetings, meeting)
	}

	return meetings, rows.Err()
}

func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("meeting store unhealthy: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("Closing meeting store")
	return s.db.Close()
}
