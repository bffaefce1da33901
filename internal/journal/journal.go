// internal/journal/journal.go
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup;
// when it stays nil the journal is disabled and every publish is a no-op.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name relay events are pushed to.
var DefaultQueueName = "arena_events"

// MatchEventRecord holds the minimal info the historian service needs to
// persist one relayed event. Payload is the opaque puzzle state, if any.
type MatchEventRecord struct {
	RoomID    string          `json:"room_id"`
	ConnID    uuid.UUID       `json:"conn_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Connect initializes the global Redis client from environment variables:
//   - REDIS_ADDR (unset disables the journal entirely)
//   - REDIS_DB (optional, default 0)
func Connect() error {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return nil
	}
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// Enabled reports whether the journal has a live client.
func Enabled() bool {
	return Rdb != nil
}

// Publish serializes the record to JSON and pushes it onto the Redis queue.
// A quick network send at most; room operations never block on it.
func Publish(ctx context.Context, record MatchEventRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MatchEventRecord: %w", err)
	}

	queueName := getEnv("JOURNAL_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
