package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
)

// ChatOrchestrator is the routing surface the HTTP layer depends on.
type ChatOrchestrator interface {
	Route(ctx context.Context, message, conversationID string) *models.ChatResponse
	ScheduleMeeting(ctx context.Context, req models.ScheduleRequest) *models.ScheduleResult
	GetMeetings(ctx context.Context, dateKeyword, location string) ([]models.Meeting, error)
	ExecuteQuery(ctx context.Context, message string) *models.ChatResponse
	GetWeather(ctx context.Context, location, dateKeyword string) (*models.WeatherSnapshot, error)
	UploadDocument(content []byte, filename string) (int, error)
	GetConversationHistory(ctx context.Context, conversationID string, limit int) ([]models.ConversationExchange, error)
	HealthCheck(ctx context.Context) (map[string]string, bool)
	GetStats() map[string]interface{}
}

const maxUploadBytes = 5 << 20

type ChatHandler struct {
	orchestrator ChatOrchestrator
	logger       *logger.Logger
}

func NewChatHandler(orchestrator ChatOrchestrator, log *logger.Logger) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, logger: log}
}

// RegisterRoutes wires every endpoint onto the engine.
func (handler *ChatHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", handler.Index)
	router.GET("/health", handler.Health)

	api := router.Group("/api")
	{
		api.POST("/chat", handler.Chat)
		api.POST("/schedule", handler.Schedule)
		api.GET("/meetings", handler.GetMeetings)
		api.GET("/query", handler.Query)
		api.GET("/weather/:location", handler.Weather)
		api.POST("/upload", handler.Upload)
		api.GET("/conversations/:id", handler.ConversationHistory)
		api.GET("/endpoints", func(c *gin.Context) { handler.Endpoints(c, router) })
	}
}

// Index is the landing page: what the service is and where to start.
func (handler *ChatHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "Agentic AI Chatbot API",
		"description": "Multi-agent chat backend: weather, documents, scheduling and meeting queries",
		"agents":      []string{"weather", "document", "scheduling", "database"},
		"links": gin.H{
			"health":    "/health",
			"endpoints": "/api/endpoints",
			"chat":      "/api/chat",
		},
	})
}

// Endpoints lists every registered route.
func (handler *ChatHandler) Endpoints(c *gin.Context, router *gin.Engine) {
	routes := router.Routes()

	endpoints := make([]gin.H, 0, len(routes))
	for _, route := range routes {
		endpoints = append(endpoints, gin.H{
			"method": route.Method,
			"path":   route.Path,
		})
	}

	c.JSON(http.StatusOK, gin.H{"endpoints": endpoints})
}

// Chat routes a natural-language message through the orchestrator.
func (handler *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	response := handler.orchestrator.Route(c.Request.Context(), req.Message, req.ConversationID)
	c.JSON(http.StatusOK, response)
}

// Schedule books a meeting directly, bypassing intent detection.
func (handler *ChatHandler) Schedule(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request",
			"details": err.Error(),
		})
		return
	}

	result := handler.orchestrator.ScheduleMeeting(c.Request.Context(), req)

	status := http.StatusOK
	if result.Status == models.ScheduleStatusError {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

// GetMeetings lists stored meetings filtered by optional date and location
// query parameters.
func (handler *ChatHandler) GetMeetings(c *gin.Context) {
	dateKeyword := c.Query("date")
	location := c.Query("location")

	meetings, err := handler.orchestrator.GetMeetings(c.Request.Context(), dateKeyword, location)
	if err != nil {
		handler.logger.WithError(err).Error("Failed to list meetings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list meetings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(meetings),
		"meetings": meetings,
	})
}

// Query runs one natural-language meeting query without touching conversation
// state.
func (handler *ChatHandler) Query(c *gin.Context) {
	message := c.Query("q")
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	response := handler.orchestrator.ExecuteQuery(c.Request.Context(), message)
	c.JSON(http.StatusOK, response)
}

// Weather returns conditions for one location; ?date=tomorrow selects the
// forecast.
func (handler *ChatHandler) Weather(c *gin.Context) {
	location := c.Param("location")
	dateKeyword := c.DefaultQuery("date", "today")

	snapshot, err := handler.orchestrator.GetWeather(c.Request.Context(), location, dateKeyword)
	if err != nil {
		status := http.StatusBadGateway
		if agentErr, ok := models.AsAgentError(err); ok && agentErr.Kind == models.ErrorKindNotFound {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Upload ingests a document for the document agent.
func (handler *ChatHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 5MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	chunks, err := handler.orchestrator.UploadDocument(content, fileHeader.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if agentErr, ok := models.AsAgentError(err); ok && agentErr.Kind == models.ErrorKindValidation {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "processed",
		"filename": fileHeader.Filename,
		"chunks":   chunks,
	})
}

// ConversationHistory returns the recorded turns of one conversation.
func (handler *ChatHandler) ConversationHistory(c *gin.Context) {
	conversationID := c.Param("id")

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	exchanges, err := handler.orchestrator.GetConversationHistory(c.Request.Context(), conversationID, limit)
	if err != nil {
		handler.logger.WithError(err).Error("Failed to load conversation history",
			"conversation_id", conversationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"count":           len(exchanges),
		"exchanges":       exchanges,
	})
}

// Health reports aggregate and per-component health.
func (handler *ChatHandler) Health(c *gin.Context) {
	components, healthy := handler.orchestrator.HealthCheck(c.Request.Context())

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":     status,
		"components": components,
		"stats":      handler.orchestrator.GetStats(),
		"timestamp":  time.Now().UTC(),
	})
}
