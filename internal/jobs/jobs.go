// Package jobs records the status of export jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

const ttl = 24 * time.Hour

var ErrUnknownJob = errors.New("unknown job")

// Job is the state reported to clients.
type Job struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Result string `json:"result,omitempty"`
}

type Tracker interface {
	SetStatus(ctx context.Context, id string, status Status) error
	Status(ctx context.Context, id string) (Job, error)
	// SaveResult stores the result location and marks the job completed.
	SaveResult(ctx context.Context, id, result string) error
}

func NewID() string {
	return uuid.NewString()
}

// RedisTracker keeps job state under "job:<id>" and "result:<id>".
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

// Dial connects to redis and checks the connection.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

func (t *RedisTracker) SetStatus(ctx context.Context, id string, status Status) error {
	return t.client.Set(ctx, "job:"+id, string(status), ttl).Err()
}

func (t *RedisTracker) Status(ctx context.Context, id string) (Job, error) {
	status, err := t.client.Get(ctx, "job:"+id).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	if err != nil {
		return Job{}, err
	}
	job := Job{ID: id, Status: Status(status)}

	result, err := t.client.Get(ctx, "result:"+id).Result()
	switch {
	case err == nil:
		job.Result = result
	case !errors.Is(err, redis.Nil):
		return Job{}, err
	}
	return job, nil
}

func (t *RedisTracker) SaveResult(ctx context.Context, id, result string) error {
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, "result:"+id, result, ttl)
		pipe.Set(ctx, "job:"+id, string(StatusCompleted), ttl)
		return nil
	})
	return err
}

// MemoryTracker is a Tracker for single-process deployments and tests.
// Entries never expire.
type MemoryTracker struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{jobs: make(map[string]Job)}
}

func (t *MemoryTracker) SetStatus(_ context.Context, id string, status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job := t.jobs[id]
	job.ID = id
	job.Status = status
	t.jobs[id] = job
	return nil
}

func (t *MemoryTracker) Status(_ context.Context, id string) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return job, nil
}

func (t *MemoryTracker) SaveResult(_ context.Context, id, result string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[id] = Job{ID: id, Status: StatusCompleted, Result: result}
	return nil
}
