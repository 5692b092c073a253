package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/assess-go-api/internal/observability"
)

// Lifecycle event names published to the message broker.
const (
	EventSubmissionStarted   = "submission.started"
	EventSubmissionSubmitted = "submission.submitted"
	EventSubmissionGraded    = "submission.graded"
)

// SubmissionEvent is the payload broadcast when a submission changes state.
type SubmissionEvent struct {
	Event        string    `json:"event"`
	SubmissionID uint      `json:"submission_id"`
	AssignmentID uint      `json:"assignment_id"`
	StudentID    uint      `json:"student_id"`
	Status       string    `json:"status"`
	TotalScore   *float64  `json:"total_score,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher broadcasts submission lifecycle events. Publishing is
// fire-and-forget: failures are logged, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event SubmissionEvent)
}

type natsEventPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewEventPublisher constructs a NATS-backed publisher. A nil connection
// yields a no-op publisher so tests and minimal deployments need no broker.
func NewEventPublisher(conn *nats.Conn, subjectBase string, logger zerolog.Logger) EventPublisher {
	if subjectBase == "" {
		subjectBase = "assess"
	}

	return &natsEventPublisher{
		conn:    conn,
		subject: subjectBase + ".submissions",
		logger:  logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(_ context.Context, event SubmissionEvent) {
	if p.conn == nil {
		return
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn().Err(err).Str("event", event.Event).Msg("failed to encode submission event")
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("event", event.Event).Msg("failed to publish submission event")
		return
	}

	observability.SubmissionEventsPublished().WithLabelValues(event.Event).Inc()
}
