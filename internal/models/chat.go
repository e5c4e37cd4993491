package models

import (
	"time"

	"github.com/google/uuid"
)

type ChatRequest struct {
	Message        string `json:"message" binding:"required"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type ScheduleRequest struct {
	Location     string   `json:"location" binding:"required"`
	Date         string   `json:"date" binding:"required"`
	Title        string   `json:"title,omitempty"`
	Participants []string `json:"participants,omitempty"`
}

// ChatResponse is the uniform envelope returned for every routed message.
// Created fresh per request and never mutated after construction.
type ChatResponse struct {
	Intent          Intent           `json:"intent"`
	Confidence      float64          `json:"confidence"`
	Response        string           `json:"response"`
	Parameters      *QueryParameters `json:"parameters,omitempty"`
	Result          interface{}      `json:"result,omitempty"`
	ConversationID  string           `json:"conversation_id,omitempty"`
	OriginalMessage string           `json:"original_message"`
	Timestamp       time.Time        `json:"timestamp"`
}

func NewChatResponse(intent Intent, message, conversationID string, now time.Time) *ChatResponse {
	return &ChatResponse{
		Intent:          intent,
		ConversationID:  conversationID,
		OriginalMessage: message,
		Timestamp:       now,
	}
}

func GenerateConversationID() string {
	return uuid.New().String()
}
