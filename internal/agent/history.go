package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/assortclinic/clinic-mate/internal/extract"
)

const historyTTL = 24 * time.Hour

// HistoryStore persists a call's conversation turns so operators can review
// calls after the fact and the extraction fallback can recover fields from
// anything the caller said.
type HistoryStore interface {
	Save(ctx context.Context, callID string, turns []extract.Turn) error
	Load(ctx context.Context, callID string) ([]extract.Turn, error)
}

type redisHistoryStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisHistoryStore builds a HistoryStore backed by Redis with a retention
// TTL. A zero ttl uses the 24-hour default.
func NewRedisHistoryStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) HistoryStore {
	if client == nil {
		panic("agent: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = historyTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("clinicmate.internal.agent.history")
	}
	return &redisHistoryStore{redis: client, ttl: ttl, tracer: tracer}
}

func (s *redisHistoryStore) Save(ctx context.Context, callID string, turns []extract.Turn) error {
	ctx, span := s.tracer.Start(ctx, "agent.save_history")
	defer span.End()

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("agent: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, historyKey(callID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("agent: failed to persist history: %w", err)
	}
	return nil
}

func (s *redisHistoryStore) Load(ctx context.Context, callID string) ([]extract.Turn, error) {
	ctx, span := s.tracer.Start(ctx, "agent.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, historyKey(callID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("agent: failed to load history: %w", err)
	}

	var turns []extract.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("agent: failed to decode history: %w", err)
	}
	return turns, nil
}

func historyKey(callID string) string {
	return fmt.Sprintf("call_history:%s", callID)
}

// memoryHistoryStore backs deployments without Redis.
type memoryHistoryStore struct {
	mu    sync.Mutex
	turns map[string][]extract.Turn
}

// NewMemoryHistoryStore builds an in-process HistoryStore with no retention
// policy.
func NewMemoryHistoryStore() HistoryStore {
	return &memoryHistoryStore{turns: make(map[string][]extract.Turn)}
}

func (s *memoryHistoryStore) Save(_ context.Context, callID string, turns []extract.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]extract.Turn, len(turns))
	copy(copied, turns)
	s.turns[callID] = copied
	return nil
}

func (s *memoryHistoryStore) Load(_ context.Context, callID string) ([]extract.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns[callID], nil
}
