package services

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
)

const (
	documentChunkSize    = 500
	documentChunkOverlap = 50
	retrievedChunkCount  = 3
	answerConfidenceBar  = 0.3
)

var supportedDocumentExtensions = map[string]bool{
	".txt": true,
	".md":  true,
}

var wordPattern = regexp.MustCompile(`[a-z0-9]+`)

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "was": true,
	"what": true, "who": true, "how": true, "when": true, "where": true,
	"this": true, "that": true, "with": true, "from": true, "does": true,
	"have": true, "has": true, "can": true, "about": true,
}

// DocumentService answers questions over the most recently uploaded document.
// Retrieval is keyword overlap over fixed-size chunks; answer synthesis goes
// through Gemini when configured and degrades to the best chunk otherwise.
type DocumentService struct {
	mu           sync.RWMutex
	documentName string
	chunks       []string

	gemini *GeminiService // nil means extractive answers only
	logger *logger.Logger
}

func NewDocumentService(gemini *GeminiService, log *logger.Logger) *DocumentService {
	mode := "extractive"
	if gemini != nil {
		mode = "llm"
	}
	log.Info("Document service initialized", "answer_mode", mode)

	return &DocumentService{gemini: gemini, logger: log}
}

// ProcessDocument ingests an uploaded file, replacing any previous document.
func (service *DocumentService) ProcessDocument(content []byte, filename string) (int, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedDocumentExtensions[ext] {
		return 0, models.NewValidationError("UNSUPPORTED_FILE_TYPE",
			fmt.Sprintf("Unsupported file type %q, upload .txt or .md", ext))
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return 0, models.NewValidationError("EMPTY_DOCUMENT", "Uploaded document is empty")
	}

	chunks := chunkText(text, documentChunkSize, documentChunkOverlap)

	service.mu.Lock()
	service.documentName = filename
	service.chunks = chunks
	service.mu.Unlock()

	service.logger.Info("Document processed", "filename", filename, "chunks", len(chunks))

	return len(chunks), nil
}

// Query answers a question against the current document. Failures degrade to
// fields inside the answer payload; this method never returns an error.
func (service *DocumentService) Query(ctx context.Context, question string) *models.DocumentAnswer {
	startTime := time.Now()

	service.mu.RLock()
	documentName := service.documentName
	chunks := service.chunks
	service.mu.RUnlock()

	if len(chunks) == 0 {
		return &models.DocumentAnswer{
			Source:     "error",
			Answer:     "No document uploaded. Please upload a document first.",
			Confidence: 0,
		}
	}

	retrieved, confidence := retrieveChunks(question, chunks, retrievedChunkCount)

	if confidence <= answerConfidenceBar {
		answer := &models.DocumentAnswer{
			Source:     "document",
			Answer:     "This information is not clearly mentioned in the document.",
			Confidence: confidence,
			Document:   documentName,
			Suggestion: "Try rephrasing the question or upload a more relevant document.",
		}
		service.logger.LogAgent("", "document", "query_document", time.Since(startTime), map[string]interface{}{
			"document":   documentName,
			"confidence": confidence,
		}, nil)
		return answer
	}

	answerText, source := service.synthesizeAnswer(ctx, question, retrieved)

	service.logger.LogAgent("", "document", "query_document", time.Since(startTime), map[string]interface{}{
		"document":   documentName,
		"confidence": confidence,
		"source":     source,
	}, nil)

	return &models.DocumentAnswer{
		Source:     source,
		Answer:     answerText,
		Confidence: confidence,
		Document:   documentName,
	}
}

func (service *DocumentService) synthesizeAnswer(ctx context.Context, question string, retrieved []string) (string, string) {
	if service.gemini != nil {
		answer, err := service.gemini.AnswerFromContext(ctx, question, retrieved)
		if err != nil {
			service.logger.WithError(err).Warn("LLM answer failed, using extractive fallback")
		} else if answer == "NOT_IN_DOCUMENT" {
			return "This information is not clearly mentioned in the document.", "llm"
		} else if answer != "" {
			return answer, "llm"
		}
	}

	return retrieved[0], "document"
}

func (service *DocumentService) HasDocument() bool {
	service.mu.RLock()
	defer service.mu.RUnlock()
	return len(service.chunks) > 0
}

func (service *DocumentService) DocumentName() string {
	service.mu.RLock()
	defer service.mu.RUnlock()
	return service.documentName
}

func (service *DocumentService) HealthCheck(ctx context.Context) error {
	return nil
}

func chunkText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// retrieveChunks scores chunks by question keyword overlap and returns the
// top n plus the best score as a confidence proxy.
func retrieveChunks(question string, chunks []string, n int) ([]string, float64) {
	keywords := extractKeywords(question)
	if len(keywords) == 0 {
		return chunks[:min(n, len(chunks))], 0
	}

	type scored struct {
		index int
		score float64
	}

	ranked := make([]scored, 0, len(chunks))
	for i, chunk := range chunks {
		lower := strings.ToLower(chunk)
		matched := 0
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				matched++
			}
		}
		ranked = append(ranked, scored{index: i, score: float64(matched) / float64(len(keywords))})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	count := min(n, len(ranked))
	retrieved := make([]string, count)
	for i := 0; i < count; i++ {
		retrieved[i] = chunks[ranked[i].index]
	}

	return retrieved, ranked[0].score
}

func extractKeywords(question string) []string {
	words := wordPattern.FindAllString(strings.ToLower(question), -1)

	var keywords []string
	for _, word := range words {
		if len(word) > 2 && !stopwords[word] {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
