package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and persists them. Sink
// failures are logged and the event dropped; the trail is best-effort and
// must never take the service down.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action, "subject_id", event.SubjectID, "error", err)
			}
		}
	}
}
