package notify

import (
	"context"
	"log/slog"
)

// Sink decouples event emission from delivery. Services call Send, which
// never blocks: if the buffer is full the event is dropped and counted
// against best-effort semantics rather than stalling a registry operation.
type Sink struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewSink constructs a sink with the given buffer size.
func NewSink(buffer int, logger *slog.Logger) *Sink {
	return &Sink{inbox: make(chan Event, buffer), logger: logger}
}

// Send enqueues an event for delivery.
func (s *Sink) Send(ctx context.Context, event Event) {
	select {
	case s.inbox <- event:
	default:
		s.logger.WarnContext(ctx, "event buffer full, dropping",
			"event", event.Name(),
			"key", event.Key(),
		)
	}
}

// Worker consumes events from a sink and hands them to the publisher. It
// keeps background delivery testable without wiring a broker.
type Worker struct {
	publisher Publisher
	inbox     <-chan Event
}

// NewWorker constructs a worker draining the sink into the publisher.
func NewWorker(publisher Publisher, sink *Sink) *Worker {
	return &Worker{publisher: publisher, inbox: sink.inbox}
}

// Run delivers events until the context is cancelled, then drains whatever
// is still buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case event := <-w.inbox:
					w.publisher.Publish(context.Background(), event)
				default:
					return nil
				}
			}
		case event := <-w.inbox:
			w.publisher.Publish(ctx, event)
		}
	}
}
