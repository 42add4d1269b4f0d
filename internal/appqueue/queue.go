package appqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Frankanator8/jobfinder/internal/telemetry"
)

const (
	pendingKey    = "appqueue:pending"
	recordPrefix  = "appqueue:record:"
	statusChannel = "appqueue:status"
)

// ErrNotFound is returned when a tracking handle is unknown or already
// cleaned up.
var ErrNotFound = fmt.Errorf("submission not found")

// Record is the status snapshot published for one submission.
type Record struct {
	Handle      string    `json:"handle"`
	JobID       string    `json:"jobId"`
	ActorID     string    `json:"actorId"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Queue is the Redis-backed submission queue. Each submission gets an opaque
// uuid tracking handle; status updates are published on a pub/sub channel
// for subscribers, and terminal records expire after cleanupDelay.
type Queue struct {
	rdb          *redis.Client
	cleanupDelay time.Duration
	now          func() time.Time
}

// NewQueue constructs a Queue. cleanupDelay bounds how long a terminal
// record stays queryable.
func NewQueue(rdb *redis.Client, cleanupDelay time.Duration) *Queue {
	if cleanupDelay <= 0 {
		cleanupDelay = time.Minute
	}
	return &Queue{rdb: rdb, cleanupDelay: cleanupDelay, now: time.Now}
}

func recordKey(handle string) string { return recordPrefix + handle }

// Submit enqueues one accepted job for processing and returns its tracking
// handle. The record starts at PENDING.
func (q *Queue) Submit(ctx context.Context, jobID, actorID string) (string, error) {
	handle := uuid.NewString()
	now := q.now().UTC()

	pipe := q.rdb.TxPipeline()
	pipe.HSet(ctx, recordKey(handle), map[string]any{
		"jobId":       jobID,
		"actorId":     actorID,
		"status":      string(StatusPending),
		"error":       "",
		"submittedAt": now.Format(time.RFC3339Nano),
		"updatedAt":   now.Format(time.RFC3339Nano),
	})
	pipe.RPush(ctx, pendingKey, handle)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("submit %s: %w", jobID, err)
	}

	telemetry.SubmissionStatus.WithLabelValues(string(StatusPending)).Inc()
	telemetry.QueueDepthGauge.Inc()
	q.publish(ctx, Record{
		Handle: handle, JobID: jobID, ActorID: actorID,
		Status: StatusPending, SubmittedAt: now, UpdatedAt: now,
	})
	return handle, nil
}

// Status returns the current record for a handle.
func (q *Queue) Status(ctx context.Context, handle string) (Record, error) {
	fields, err := q.rdb.HGetAll(ctx, recordKey(handle)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("status %s: %w", handle, err)
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}
	return recordFromFields(handle, fields)
}

// Depth returns the number of submissions waiting for a worker.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, pendingKey).Result()
}

// Lease pops the oldest pending submission and marks it PROCESSING. The
// second return is false when the queue is empty.
func (q *Queue) Lease(ctx context.Context) (Record, bool, error) {
	handle, err := q.rdb.LPop(ctx, pendingKey).Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lease: %w", err)
	}
	telemetry.QueueDepthGauge.Dec()

	rec, err := q.setStatus(ctx, handle, StatusProcessing, "")
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Complete marks a leased submission COMPLETED and schedules its cleanup.
func (q *Queue) Complete(ctx context.Context, handle string) error {
	_, err := q.setStatus(ctx, handle, StatusCompleted, "")
	return err
}

// Fail marks a leased submission FAILED with a reason and schedules its
// cleanup.
func (q *Queue) Fail(ctx context.Context, handle, reason string) error {
	_, err := q.setStatus(ctx, handle, StatusFailed, reason)
	return err
}

// setStatus validates and applies one state-machine transition, publishes
// the new record, and starts the post-terminal expiry clock.
func (q *Queue) setStatus(ctx context.Context, handle string, to Status, errMsg string) (Record, error) {
	currentStr, err := q.rdb.HGet(ctx, recordKey(handle), "status").Result()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read status %s: %w", handle, err)
	}
	current, err := ParseStatus(currentStr)
	if err != nil {
		return Record{}, err
	}
	if !IsTransitionAllowed(current, to) {
		return Record{}, fmt.Errorf("transition %s → %s is not allowed", current, to)
	}

	now := q.now().UTC()
	if err := q.rdb.HSet(ctx, recordKey(handle), map[string]any{
		"status":    string(to),
		"error":     errMsg,
		"updatedAt": now.Format(time.RFC3339Nano),
	}).Err(); err != nil {
		return Record{}, fmt.Errorf("write status %s: %w", handle, err)
	}
	if IsTerminal(to) {
		if err := q.rdb.PExpire(ctx, recordKey(handle), q.cleanupDelay).Err(); err != nil {
			log.Printf("[appqueue] schedule cleanup for %s: %v", handle, err)
		}
	}

	telemetry.SubmissionStatus.WithLabelValues(string(to)).Inc()

	fields, err := q.rdb.HGetAll(ctx, recordKey(handle)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("reread %s: %w", handle, err)
	}
	rec, err := recordFromFields(handle, fields)
	if err != nil {
		return Record{}, err
	}
	q.publish(ctx, rec)
	return rec, nil
}

// publish pushes a status record to subscribers. Non-fatal on error — the
// record itself is already durable.
func (q *Queue) publish(ctx context.Context, rec Record) {
	payload, _ := json.Marshal(rec)
	if err := q.rdb.Publish(ctx, statusChannel, payload).Err(); err != nil {
		log.Printf("[appqueue] publish status for %s: %v", rec.Handle, err)
	}
}

// Subscribe yields every status record published after the call. The
// returned stop function closes the subscription and the channel.
func (q *Queue) Subscribe(ctx context.Context) (<-chan Record, func() error) {
	pubsub := q.rdb.Subscribe(ctx, statusChannel)
	out := make(chan Record)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var rec Record
			if err := json.Unmarshal([]byte(msg.Payload), &rec); err != nil {
				log.Printf("[appqueue] bad status payload: %v", err)
				continue
			}
			select {
			case out <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close
}

// Handler processes one leased submission. A nil return completes it, any
// error fails it with the error text.
type Handler func(ctx context.Context, rec Record) error

// RunWorker polls the pending queue until ctx is cancelled, driving each
// leased submission through the handler to a terminal status.
func (q *Queue) RunWorker(ctx context.Context, pollInterval time.Duration, handler Handler) {
	log.Printf("[appqueue] worker started — poll interval %s", pollInterval)
	for {
		rec, ok, err := q.Lease(ctx)
		if err != nil {
			log.Printf("[appqueue] lease error: %v", err)
		}
		if ok {
			if err := handler(ctx, rec); err != nil {
				if ferr := q.Fail(ctx, rec.Handle, err.Error()); ferr != nil {
					log.Printf("[appqueue] fail %s: %v", rec.Handle, ferr)
				}
			} else if cerr := q.Complete(ctx, rec.Handle); cerr != nil {
				log.Printf("[appqueue] complete %s: %v", rec.Handle, cerr)
			}
			continue
		}
		select {
		case <-ctx.Done():
			log.Println("[appqueue] worker stopped")
			return
		case <-time.After(pollInterval):
		}
	}
}

func recordFromFields(handle string, fields map[string]string) (Record, error) {
	status, err := ParseStatus(fields["status"])
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Handle:  handle,
		JobID:   fields["jobId"],
		ActorID: fields["actorId"],
		Status:  status,
		Error:   fields["error"],
	}
	if v := fields["submittedAt"]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.SubmittedAt = ts
		}
	}
	if v := fields["updatedAt"]; v != "" {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.UpdatedAt = ts
		}
	}
	return rec, nil
}
