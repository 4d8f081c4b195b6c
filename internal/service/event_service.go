package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendsense/internal/domain"
)

type EventType string

const (
	EventSignalsComputed          EventType = "signals.computed"
	EventPersonaAssigned          EventType = "persona.assigned"
	EventRecommendationsGenerated EventType = "recommendations.generated"
	EventRunFailed                EventType = "run.failed"
)

type StageEvent struct {
	Type      EventType
	UserID    string
	Detail    map[string]string
	Timestamp time.Time
}

// EventSink receives stage events for downstream collaborators (storage
// refresh hooks, schedulers, dashboards).
type EventSink interface {
	Publish(event StageEvent) error
}

// EventService fans pipeline stage events out to the configured sinks on
// a small worker pool so publishing never blocks a run's caller.
type EventService struct {
	sinks        []EventSink
	eventQueue   chan StageEvent
	workers      int
	shutdownChan chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

func NewEventService(sinks []EventSink, workers int, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}

	service := &EventService{
		sinks:        sinks,
		eventQueue:   make(chan StageEvent, 1000),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger,
	}

	service.startWorkers()

	return service
}

// EmitRunCompleted publishes the stage events for a finished run, in
// pipeline stage order.
func (s *EventService) EmitRunCompleted(ctx context.Context, bundle *domain.InsightBundle) error {
	events := []StageEvent{
		{
			Type:   EventSignalsComputed,
			UserID: bundle.UserID,
			Detail: map[string]string{"windows": fmt.Sprintf("%d", len(bundle.Signals))},
		},
		{
			Type:   EventPersonaAssigned,
			UserID: bundle.UserID,
			Detail: map[string]string{
				"persona": string(bundle.Personas[bundle.PrimaryWindow].Persona),
				"window":  bundle.PrimaryWindow.Label(),
			},
		},
		{
			Type:   EventRecommendationsGenerated,
			UserID: bundle.UserID,
			Detail: map[string]string{"count": fmt.Sprintf("%d", len(bundle.Recommendations))},
		},
	}

	for _, event := range events {
		event.Timestamp = bundle.AsOf
		if err := s.enqueue(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *EventService) EmitRunFailed(ctx context.Context, userID, reason string) error {
	return s.enqueue(ctx, StageEvent{
		Type:      EventRunFailed,
		UserID:    userID,
		Detail:    map[string]string{"reason": reason},
		Timestamp: time.Now().UTC(),
	})
}

func (s *EventService) enqueue(ctx context.Context, event StageEvent) error {
	select {
	case s.eventQueue <- event:
		s.logger.Info("Stage event queued",
			slog.String("type", string(event.Type)),
			slog.String("user_id", event.UserID))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EventService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *EventService) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.eventQueue:
			s.publish(event, id)
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *EventService) publish(event StageEvent, workerID int) {
	for _, sink := range s.sinks {
		if err := sink.Publish(event); err != nil {
			// A sink failure never fails the run that produced the
			// event; it is logged and the remaining sinks still fire.
			s.logger.Error("Failed to publish stage event",
				slog.String("type", string(event.Type)),
				slog.String("user_id", event.UserID),
				slog.String("error", err.Error()),
				slog.Int("worker_id", workerID))
		}
	}
}

func (s *EventService) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Event service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSink writes stage events to the structured log, the default sink
// when no external collaborator is wired.
type LogSink struct {
	Logger *slog.Logger
}

func (l *LogSink) Publish(event StageEvent) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Stage event",
		slog.String("type", string(event.Type)),
		slog.String("user_id", event.UserID),
		slog.Any("detail", event.Detail))
	return nil
}

// MockSink records published events for tests.
type MockSink struct {
	mu     sync.Mutex
	Events []StageEvent
}

func (m *MockSink) Publish(event StageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockSink) Published() []StageEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StageEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
