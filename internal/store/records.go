// Package store persists generator records and sync-run bookkeeping in
// a key-value store. The catalog itself lives remotely; this is only
// the local memory of what was generated and when it last synced.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/schemacat/schemacat/internal/syncer"
)

const keyPrefix = "schemacat:"

// ErrNoRecord is returned when a requested record does not exist.
var ErrNoRecord = errors.New("no record")

// GeneratorRecord tracks the last generation outcome for one owner
// type.
type GeneratorRecord struct {
	Owner           string    `json:"owner"`
	Module          string    `json:"module"`
	DescriptorCount int       `json:"descriptor_count"`
	Status          string    `json:"status"` // "active" or "error"
	Error           string    `json:"error,omitempty"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// RecordStore is a Redis-backed record store.
type RecordStore struct {
	client *redis.Client
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// DefaultConfig returns a localhost Redis configuration.
func DefaultConfig() Config {
	return Config{Addr: "localhost:6379"}
}

// New connects to Redis and verifies the connection.
func New(config Config) (*RecordStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to record store: %w", err)
	}

	return &RecordStore{client: client}, nil
}

// NewWithClient wraps an existing Redis client, used in tests.
func NewWithClient(client *redis.Client) *RecordStore {
	return &RecordStore{client: client}
}

// Close releases the underlying connection.
func (s *RecordStore) Close() error {
	return s.client.Close()
}

// SaveGeneratorRecord upserts the generation outcome for one owner.
func (s *RecordStore) SaveGeneratorRecord(ctx context.Context, rec GeneratorRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, keyPrefix+"generators", rec.Owner, data).Err()
}

// GeneratorRecords returns every stored generator record.
func (s *RecordStore) GeneratorRecords(ctx context.Context) ([]GeneratorRecord, error) {
	values, err := s.client.HGetAll(ctx, keyPrefix+"generators").Result()
	if err != nil {
		return nil, err
	}
	records := make([]GeneratorRecord, 0, len(values))
	for _, raw := range values {
		var rec GeneratorRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("corrupt generator record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// GeneratorRecord returns one owner's record.
func (s *RecordStore) GeneratorRecord(ctx context.Context, owner string) (GeneratorRecord, error) {
	raw, err := s.client.HGet(ctx, keyPrefix+"generators", owner).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return GeneratorRecord{}, ErrNoRecord
		}
		return GeneratorRecord{}, err
	}
	var rec GeneratorRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return GeneratorRecord{}, fmt.Errorf("corrupt generator record: %w", err)
	}
	return rec, nil
}

// SaveRun records a finished sync run and advances the last-sync
// timestamp.
func (s *RecordStore) SaveRun(ctx context.Context, report *syncer.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyPrefix+"last_run", data, 0)
	pipe.Set(ctx, keyPrefix+"last_sync", report.FinishedAt.Format(time.RFC3339), 0)
	_, err = pipe.Exec(ctx)
	return err
}

// LastRun returns the most recent sync report.
func (s *RecordStore) LastRun(ctx context.Context) (*syncer.Report, error) {
	raw, err := s.client.Get(ctx, keyPrefix+"last_run").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	var report syncer.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("corrupt run record: %w", err)
	}
	return &report, nil
}

// LastSync returns when the last successful run finished.
func (s *RecordStore) LastSync(ctx context.Context) (time.Time, error) {
	raw, err := s.client.Get(ctx, keyPrefix+"last_sync").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, ErrNoRecord
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}
