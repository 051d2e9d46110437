package app

import (
	"context"
	"errors"
	"log"

	"sweepDeskApp/internal/app/dto"
	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/useCases"
)

// ErrContextCancelled is returned when the context is cancelled during processing
var ErrContextCancelled = errors.New("context cancelled during processing")

// EventAcker acknowledges a refresh event back to its source once it has
// been handled, so the source can commit the offset.
type EventAcker interface {
	Commit(ctx context.Context, event *dto.SessionEvent) error
}

// EventProcessor consumes session refresh events from a channel, applies
// them as triggers to the validation controller, and broadcasts the fresh
// validation to dashboard clients.
type EventProcessor struct {
	EventCh     chan *dto.SessionEvent
	Validation  useCases.Validation
	Broadcaster useCases.Broadcaster
	Acker       EventAcker          // optional; set when events come from a committable source
	DedupCache  map[string]struct{} // simple in-memory deduplication, replace with Redis for HA
}

func NewEventProcessor(eventCh chan *dto.SessionEvent, validation useCases.Validation, broadcaster useCases.Broadcaster) *EventProcessor {
	return &EventProcessor{
		EventCh:     eventCh,
		Validation:  validation,
		Broadcaster: broadcaster,
		DedupCache:  make(map[string]struct{}),
	}
}

func (p *EventProcessor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-p.EventCh:
			if err := p.processEvent(ctx, event); err != nil {
				if errors.Is(err, ErrContextCancelled) {
					log.Println("Context cancelled, stopping event processor")
					return ctx.Err()
				}
				// Other errors are just logged but processing continues;
				// the event stays unacked so the source can redeliver it
				log.Printf("Error processing session event: %v", err)
				continue
			}
			p.ack(ctx, event)
		}
	}
}

// processEvent handles a single refresh trigger with context cancellation checks
func (p *EventProcessor) processEvent(ctx context.Context, event *dto.SessionEvent) error {
	if ctx.Err() != nil {
		return ErrContextCancelled
	}
	if event == nil {
		return nil
	}

	// Deduplication (replace with Redis for distributed setup)
	if event.ID != "" {
		if _, exists := p.DedupCache[event.ID]; exists {
			return nil
		}
		p.DedupCache[event.ID] = struct{}{}
	}

	var (
		validation model.SessionValidation
		ok         bool
	)
	switch event.Type {
	case dto.EventSessionRegistered:
		validation = p.Validation.RegisterSession(event.Session())
		ok = true
	case dto.EventBalanceChanged:
		validation, ok = p.Validation.BalanceChanged(event.SessionID, event.Balance)
	case dto.EventPauseChanged:
		validation, ok = p.Validation.PauseFlagChanged(event.SessionID, event.IsPaused)
	default:
		log.Printf("Unknown session event type %q for session %s", event.Type, event.SessionID)
		return nil
	}

	if !ok {
		log.Printf("Dropped %s trigger for untracked session %s", event.Type, event.SessionID)
		return nil
	}

	if ctx.Err() != nil {
		return ErrContextCancelled
	}

	if p.Broadcaster != nil {
		p.Broadcaster.BroadcastValidation(&validation)
	}
	return nil
}

// ack commits a handled event. Dropped and deduplicated events are handled
// too: they must not be redelivered.
func (p *EventProcessor) ack(ctx context.Context, event *dto.SessionEvent) {
	if p.Acker == nil || event == nil {
		return
	}
	if err := p.Acker.Commit(ctx, event); err != nil {
		log.Printf("Failed to commit event %s: %v", event.ID, err)
	}
}
