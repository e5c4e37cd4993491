package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agentic-chatbot/internal/config"
	"agentic-chatbot/internal/models"
	"agentic-chatbot/internal/pkg/logger"
)

// RedisService is the conversation log. Its failures are reported as typed
// errors and the router swallows them; losing an exchange never affects the
// primary response.
type RedisService struct {
	client *redis.Client
	logger *logger.Logger
	config config.RedisConfig
}

func NewRedisService(cfg config.RedisConfig, log *logger.Logger) (*RedisService, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	opt.PoolSize = cfg.PoolSize
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout

	service := &RedisService{
		client: redis.NewClient(opt),
		logger: log,
		config: cfg,
	}

	if err := service.testConnection(); err != nil {
		return nil, fmt.Errorf("connection to Redis failed: %w", err)
	}

	log.Info("Redis conversation log initialized",
		"url", cfg.URL,
		"pool_size", cfg.PoolSize,
		"history_ttl", cfg.HistoryTTL.String())

	return service, nil
}

func (service *RedisService) testConnection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return service.client.Ping(ctx).Err()
}

func historyKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:history", conversationID)
}

// RecordExchange appends one user/agent turn to the conversation history.
func (service *RedisService) RecordExchange(ctx context.Context, exchange models.ConversationExchange) error {
	startTime := time.Now()
	key := historyKey(exchange.ConversationID)

	payload, err := json.Marshal(exchange)
	if err != nil {
		return models.NewInternalError("SERIALIZATION_FAILED", "Failed to serialize conversation exchange").WithCause(err)
	}

	pipe := service.client.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-service.config.HistoryLimit), -1)
	pipe.Expire(ctx, key, service.config.HistoryTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		service.logger.LogService("redis", "record_exchange", time.Since(startTime), map[string]interface{}{
			"conversation_id": exchange.ConversationID,
			"key":             key,
		}, err)
		return models.NewExternalError("REDIS_RECORD_FAILED", "Failed to record conversation exchange").WithCause(err)
	}

	service.logger.LogService("redis", "record_exchange", time.Since(startTime), map[string]interface{}{
		"conversation_id": exchange.ConversationID,
		"agent_type":      string(exchange.AgentType),
	}, nil)

	return nil
}

// GetRecentExchanges returns up to limit most recent turns, oldest first.
func (service *RedisService) GetRecentExchanges(ctx context.Context, conversationID string, limit int) ([]models.ConversationExchange, error) {
	startTime := time.Now()
	key := historyKey(conversationID)

	entries, err := service.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		service.logger.LogService("redis", "get_recent_exchanges", time.Since(startTime), map[string]interface{}{
			"conversation_id": conversationID,
			"key":             key,
		}, err)
		return nil, models.NewExternalError("REDIS_GET_FAILED", "Failed to get conversation history").WithCause(err)
	}

	exchanges := make([]models.ConversationExchange, 0, len(entries))
	for _, entry := range entries {
		var exchange models.ConversationExchange
		if err := json.Unmarshal([]byte(entry), &exchange); err != nil {
			service.logger.WithError(err).Warn("Skipping undecodable conversation entry", "key", key)
			continue
		}
		exchanges = append(exchanges, exchange)
	}

	service.logger.LogService("redis", "get_recent_exchanges", time.Since(startTime), map[string]interface{}{
		"conversation_id": conversationID,
		"exchanges":       len(exchanges),
	}, nil)

	return exchanges, nil
}

func (service *RedisService) HealthCheck(ctx context.Context) error {
	if err := service.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("conversation log unhealthy: %w", err)
	}
	return nil
}

func (service *RedisService) Close() error {
	service.logger.Info("Closing Redis conversation log")
	return service.client.Close()
}
