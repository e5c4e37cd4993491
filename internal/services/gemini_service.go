package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"agentic-chatbot/internal/config"
	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
)

// GeminiService wraps the Gemini API for the document agent's answer
// synthesis. It is optional: callers must handle a nil service and fall back
// to extractive answers.
type GeminiService struct {
	client *genai.Client
	config config.GeminiConfig
	logger *logger.Logger
}

type GenerationRequest struct {
	Prompt      string
	SystemRole  string
	Context     string
	MaxTokens   int32
	Temperature *float32
}

type GenerationResponse struct {
	Content        string
	TokensUsed     int
	FinishReason   string
	ProcessingTime time.Duration
}

func NewGeminiService(cfg config.GeminiConfig, log *logger.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("Gemini API key required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	service := &GeminiService{
		client: client,
		config: cfg,
		logger: log,
	}

	log.Info("Gemini service initialized",
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
		"temperature", cfg.Temperature)

	return service, nil
}

func (service *GeminiService) GenerateContent(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()

	var response *GenerationResponse
	var err error

	for attempt := 1; attempt <= service.config.MaxRetries; attempt++ {
		response, err = service.makeGenerationRequest(ctx, request)
		if err == nil {
			break
		}

		if attempt < service.config.MaxRetries {
			service.logger.WithFields(logger.Fields{
				"attempt":     attempt,
				"max_retries": service.config.MaxRetries,
				"error":       err,
			}).Warn("Content generation failed, retrying")

			select {
			case <-time.After(service.config.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, models.NewTimeoutError("GEMINI_TIMEOUT", "Content generation timed out").WithCause(ctx.Err())
			}
		}
	}

	if err != nil {
		service.logger.LogService("gemini", "generate_content", time.Since(startTime), map[string]interface{}{
			"prompt_length": len(request.Prompt),
			"attempts":      service.config.MaxRetries,
		}, err)
		return nil, models.WrapExternalError("GEMINI", err)
	}

	response.ProcessingTime = time.Since(startTime)

	service.logger.LogService("gemini", "generate_content", response.ProcessingTime, map[string]interface{}{
		"prompt_length":   len(request.Prompt),
		"response_length": len(response.Content),
		"finish_reason":   response.FinishReason,
	}, nil)

	return response, nil
}

func (service *GeminiService) makeGenerationRequest(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	genCtx, cancel := context.WithTimeout(ctx, service.config.Timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{}

	if req.SystemRole != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemRole, genai.RoleUser)
	}

	if req.Temperature != nil {
		genConfig.Temperature = req.Temperature
	} else {
		temp := float32(service.config.Temperature)
		genConfig.Temperature = &temp
	}

	if req.MaxTokens != 0 {
		genConfig.MaxOutputTokens = req.MaxTokens
	} else {
		genConfig.MaxOutputTokens = int32(service.config.MaxTokens)
	}

	var content []*genai.Content
	if req.Context != "" {
		parts := []*genai.Part{
			genai.NewPartFromText(fmt.Sprintf("Context: %s\n\n", req.Context)),
			genai.NewPartFromText(req.Prompt),
		}
		content = []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	} else {
		content = genai.Text(req.Prompt)
	}

	result, err := service.client.Models.GenerateContent(genCtx, service.config.Model, content, genConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no response candidates generated")
	}

	candidate := result.Candidates[0]
	text := ""
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
	}

	return &GenerationResponse{
		Content:      strings.TrimSpace(text),
		TokensUsed:   len(req.Prompt)/4 + len(text)/4,
		FinishReason: string(candidate.FinishReason),
	}, nil
}

// AnswerFromContext asks the model to answer strictly from retrieved document
// chunks.
func (service *GeminiService) AnswerFromContext(ctx context.Context, question string, chunks []string) (string, error) {
	prompt := fmt.Sprintf(`Answer the question using only the provided document excerpts.
If the excerpts do not contain the answer, reply exactly: NOT_IN_DOCUMENT

Question: %s`, question)

	req := &GenerationRequest{
		Prompt:      prompt,
		SystemRole:  "You are a precise document question answering assistant.",
		Context:     strings.Join(chunks, "\n---\n"),
		MaxTokens:   400,
		Temperature: &[]float32{0.2}[0],
	}

	resp, err := service.GenerateContent(ctx, req)
	if err != nil {
		return "", err
	}

	return resp.Content, nil
}

func (service *GeminiService) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, service.config.Timeout)
	defer cancel()

	result, err := service.client.Models.GenerateContent(checkCtx, service.config.Model, genai.Text("ping"), nil)
	if err != nil {
		return fmt.Errorf("gemini health check failed: %w", err)
	}
	if len(result.Candidates) == 0 {
		return fmt.Errorf("gemini health check returned no candidates")
	}
	return nil
}
