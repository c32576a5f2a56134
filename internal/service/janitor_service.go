package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/peermarking/peermark-api/internal/observability"
)

const (
	janitorMaxAttempts = 5
	janitorRetryDelay  = 30 * time.Second
)

// StorageJanitor retries blob deletions that failed inline. Tasks travel
// through NATS so any API node can pick them up, and a deletion that fails
// again is re-enqueued with an incremented attempt counter until the cap.
type StorageJanitor interface {
	CleanupQueue
	Start(ctx context.Context)
}

type storageJanitor struct {
	store      BlobStore
	nats       *nats.Conn
	subject    string
	retryDelay time.Duration
	logger     zerolog.Logger
}

type cleanupTask struct {
	Paths   []string `json:"paths"`
	Reason  string   `json:"reason"`
	Attempt int      `json:"attempt"`
}

// NewStorageJanitor constructs a janitor publishing to the given NATS subject.
func NewStorageJanitor(store BlobStore, natsConn *nats.Conn, subject string, logger zerolog.Logger) StorageJanitor {
	return &storageJanitor{
		store:      store,
		nats:       natsConn,
		subject:    subject,
		retryDelay: janitorRetryDelay,
		logger:     logger.With().Str("component", "storage_janitor").Logger(),
	}
}

func (j *storageJanitor) Enqueue(ctx context.Context, paths []string, reason string) {
	if len(paths) == 0 {
		return
	}

	task := cleanupTask{Paths: paths, Reason: reason, Attempt: 1}
	if err := j.publish(task); err != nil {
		j.logger.Error().Err(err).Strs("paths", paths).Str("reason", reason).
			Msg("failed to enqueue blob cleanup, orphans remain")
	}
}

func (j *storageJanitor) Start(ctx context.Context) {
	if j.nats == nil || j.subject == "" {
		j.logger.Warn().Msg("storage janitor disabled, no nats connection")
		return
	}

	sub, err := j.nats.QueueSubscribe(j.subject, "peermark-janitor", func(msg *nats.Msg) {
		j.handle(ctx, msg.Data)
	})
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to subscribe to cleanup subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			j.logger.Warn().Err(err).Msg("failed to drain cleanup subscription")
		}
	}()
}

func (j *storageJanitor) handle(ctx context.Context, payload []byte) {
	var task cleanupTask
	if err := json.Unmarshal(payload, &task); err != nil {
		j.logger.Warn().Err(err).Msg("invalid cleanup task payload")
		return
	}

	var failed []string
	for _, path := range task.Paths {
		if err := j.store.Delete(ctx, path); err != nil {
			j.logger.Warn().Err(err).Str("path", path).Int("attempt", task.Attempt).
				Msg("blob cleanup attempt failed")
			failed = append(failed, path)
			continue
		}
		observability.BlobsCleaned().Inc()
	}

	if len(failed) == 0 {
		return
	}

	if task.Attempt >= janitorMaxAttempts {
		j.logger.Error().Strs("paths", failed).Str("reason", task.Reason).
			Msg("giving up on blob cleanup after max attempts")
		return
	}

	observability.CleanupRetries().Inc()
	retry := cleanupTask{Paths: failed, Reason: task.Reason, Attempt: task.Attempt + 1}
	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(j.retryDelay):
			if err := j.publish(retry); err != nil {
				j.logger.Error().Err(err).Strs("paths", retry.Paths).
					Msg("failed to re-enqueue blob cleanup")
			}
		}
	}()
}

func (j *storageJanitor) publish(task cleanupTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	if j.nats == nil || j.subject == "" {
		return nats.ErrConnectionClosed
	}

	return j.nats.Publish(j.subject, payload)
}
