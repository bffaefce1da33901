// cmd/historian/main.go is an asynchronous historian service that pops relay
// event records from the Redis journal queue and persists them to PostgreSQL.
// Room state on the relay itself stays ephemeral; this only captures the
// traffic that passed through.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sudoku-arena/arena/internal/database"
	"github.com/sudoku-arena/arena/internal/journal"
)

// HistorianService encapsulates the Redis + DB logic for capturing relay
// events and marking matches abandoned after a period of inactivity.
type HistorianService struct {
	redisClient  *redis.Client
	batchSize    int
	flushDelay   time.Duration
	inactivity   time.Duration // duration until a match is marked "abandoned"
	lastActivity sync.Map      // map[string]time.Time keyed by room id

	batchMu  sync.Mutex
	batch    []journal.MatchEventRecord
	ctx      context.Context
	cancelFn context.CancelFunc

	// persist writes one drained batch; defaults to the DB transaction and
	// is swapped out in tests.
	persist func(ctx context.Context, batch []journal.MatchEventRecord) error
}

// NewHistorianService constructs a HistorianService from environment
// variables or defaults.
func NewHistorianService() *HistorianService {
	batchSize := getEnvInt("HISTORIAN_BATCH_SIZE", 20)
	flushMs := getEnvInt("HISTORIAN_FLUSH_MS", 500)
	inactivitySec := getEnvInt("MATCH_INACTIVITY_TIMEOUT_SEC", 600) // default 10 min

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	hs := &HistorianService{
		redisClient: rdb,
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		inactivity:  time.Duration(inactivitySec) * time.Second,
		batch:       make([]journal.MatchEventRecord, 0, batchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
	hs.persist = hs.persistBatch
	return hs
}

// Run starts the two main loops: one draining the Redis queue into batched
// DB flushes, and a periodic inactivity check.
func (hs *HistorianService) Run() {
	database.Connect()

	go hs.readRedisLoop()
	go hs.inactivityLoop()

	log.Println("arena-historian service started.")
	<-hs.ctx.Done()
	log.Println("arena-historian shutting down.")
}

// readRedisLoop continuously uses BLPop to retrieve records from the journal queue.
func (hs *HistorianService) readRedisLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()

	queueName := getEnv("JOURNAL_QUEUE_NAME", journal.DefaultQueueName)

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			hs.flushBatchToDB()

		default:
			// BLPop with a 3-second timeout so context cancellation is handled.
			res, err := hs.redisClient.BLPop(hs.ctx, 3*time.Second, queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				log.Printf("[ERROR] BLPop: %v\n", err)
				continue
			}
			if len(res) < 2 {
				// No record popped.
				continue
			}

			// res[0] is the queue name and res[1] the payload.
			var record journal.MatchEventRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Printf("invalid match event record: %v\n", err)
				continue
			}

			hs.lastActivity.Store(record.RoomID, time.Now())
			hs.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record to the in-memory batch and flushes if the
// threshold is reached.
func (hs *HistorianService) appendToBatch(record journal.MatchEventRecord) {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()

	hs.batch = append(hs.batch, record)
	if len(hs.batch) >= hs.batchSize {
		hs.flushLocked()
	}
}

// flushBatchToDB flushes the current batch to the database in a single transaction.
func (hs *HistorianService) flushBatchToDB() {
	hs.batchMu.Lock()
	defer hs.batchMu.Unlock()
	hs.flushLocked()
}

// flushLocked drains the batch and persists it. Caller must hold batchMu.
func (hs *HistorianService) flushLocked() {
	if len(hs.batch) == 0 {
		return
	}
	batchCopy := make([]journal.MatchEventRecord, len(hs.batch))
	copy(batchCopy, hs.batch)
	hs.batch = hs.batch[:0]

	if err := hs.persist(context.Background(), batchCopy); err != nil {
		log.Printf("[ERROR] flush batch: %v\n", err)
	} else {
		log.Printf("Flushed %d events to DB.\n", len(batchCopy))
	}
}

// persistBatch writes a drained batch to the database in a single transaction.
func (hs *HistorianService) persistBatch(ctx context.Context, batch []journal.MatchEventRecord) error {
	return beginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range batch {
			if err := insertMatchEventTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insertMatchEventTx: %w", err)
			}
		}
		return nil
	})
}

// inactivityLoop periodically marks matches inactive beyond the configured
// threshold as abandoned.
func (hs *HistorianService) inactivityLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-hs.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			hs.lastActivity.Range(func(key, val interface{}) bool {
				roomID, ok1 := key.(string)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > hs.inactivity {
					hs.markMatchAbandoned(roomID)
					hs.lastActivity.Delete(roomID)
				}
				return true
			})
		}
	}
}

// markMatchAbandoned marks a match as 'abandoned' if it was still 'in_progress'.
func (hs *HistorianService) markMatchAbandoned(roomID string) {
	ctx := context.Background()
	err := beginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			UPDATE matches
			SET status = 'abandoned', end_time = NOW()
			WHERE room_id = $1 AND status = 'in_progress'
		`
		_, e := tx.Exec(ctx, q, roomID)
		return e
	})
	if err != nil {
		log.Printf("failed to mark match %v abandoned: %v", roomID, err)
	} else {
		log.Printf("Marked match %v as 'abandoned' due to inactivity.", roomID)
	}
}

// insertMatchEventTx inserts a single event record into match_events and
// upserts the match row. A game_over event finalizes the match.
func insertMatchEventTx(ctx context.Context, tx pgx.Tx, rec journal.MatchEventRecord) error {
	upsertMatchQ := `
		INSERT INTO matches (room_id, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (room_id)
		DO UPDATE SET status = 'in_progress'
	`
	_, err := tx.Exec(ctx, upsertMatchQ, rec.RoomID)
	if err != nil {
		return err
	}

	eventInsertQ := `
		INSERT INTO match_events (
			room_id, conn_id, event_type, payload, event_time
		) VALUES ($1, $2, $3, $4, to_timestamp($5 / 1000.0))
	`
	_, err = tx.Exec(ctx, eventInsertQ,
		rec.RoomID, rec.ConnID, rec.EventType, []byte(rec.Payload), rec.Timestamp,
	)
	if err != nil {
		return err
	}

	if rec.EventType == "game_over" {
		finalizeQ := `
			UPDATE matches
			SET status = 'completed', end_time = NOW()
			WHERE room_id = $1 AND status = 'in_progress'
		`
		_, err = tx.Exec(ctx, finalizeQ, rec.RoomID)
		if err != nil {
			return err
		}
	}
	return nil
}

// beginTxFunc starts a transaction on the pool, calls f with it, and commits
// or rolls back as needed.
func beginTxFunc(ctx context.Context, pool *pgxpool.Pool, txOptions pgx.TxOptions, f func(tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit(ctx)
}

// Stop gracefully stops the historian service.
func (hs *HistorianService) Stop() {
	hs.cancelFn()
}

func main() {
	hs := NewHistorianService()
	go hs.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	hs.Stop()
	log.Println("Historian shutdown complete.")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer value from an environment variable or returns a default value.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
