// Package notify publishes after-commit domain notifications.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/paulexconde/eventmatch/internal/metrics"
	"github.com/paulexconde/eventmatch/internal/pkg/workerpool"
)

type Kind string

const (
	ParticipantRegistered Kind = "participant.registered"
	ParticipantWaitlisted Kind = "participant.waitlisted"
	EventCreated          Kind = "event.created"
	QuestionSubmitted     Kind = "question.submitted"
)

type Notification struct {
	Kind          Kind      `json:"kind"`
	EventID       int64     `json:"event_id"`
	ParticipantID int64     `json:"participant_id,omitempty"`
	QuestionID    int64     `json:"question_id,omitempty"`
	Email         string    `json:"email,omitempty"`
	Status        string    `json:"status,omitempty"`
	At            time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close() error
}

// NATS publishes each notification as JSON on <prefix>.<kind>.
type NATS struct {
	conn   *nats.Conn
	prefix string
}

func NewNATS(url, prefix string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("eventmatch"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATS{conn: conn, prefix: prefix}, nil
}

func (n *NATS) Subject(kind Kind) string {
	if n.prefix == "" {
		return string(kind)
	}
	return n.prefix + "." + string(kind)
}

func (n *NATS) Notify(_ context.Context, msg Notification) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.conn.Publish(n.Subject(msg.Kind), data); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Kind, err)
	}
	return nil
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}

// Log writes notifications to a logger. Used when no broker is configured.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, n Notification) error {
	l.logger.InfoContext(ctx, "notification",
		"kind", n.Kind,
		"event_id", n.EventID,
		"participant_id", n.ParticipantID,
		"question_id", n.QuestionID,
		"status", n.Status,
	)
	return nil
}

func (l *Log) Close() error { return nil }

// Dispatcher hands notifications to a worker pool so that request paths
// never wait on the broker.
type Dispatcher struct {
	notifier Notifier
	pool     *workerpool.WorkerPool
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewDispatcher(notifier Notifier, pool *workerpool.WorkerPool, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		notifier: notifier,
		pool:     pool,
		logger:   logger,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch queues n. A nil Dispatcher drops it.
func (d *Dispatcher) Dispatch(n Notification) {
	if d == nil {
		return
	}
	if n.At.IsZero() {
		n.At = d.now()
	}

	d.pool.Submit(workerpool.WithRetry(d.logger, 3, 500*time.Millisecond, func(ctx context.Context) error {
		err := d.notifier.Notify(ctx, n)
		d.metrics.Notification(string(n.Kind), err)
		return err
	}))
}
