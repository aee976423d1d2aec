package event

import (
	"context"
	"errors"
	"testing"

	"github.com/osse101/StakeBot_Go/internal/domain"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus()
	handled := false

	bus.Subscribe(NotableStake, func(ctx context.Context, event Event) error {
		if event.Type != NotableStake {
			t.Errorf("Expected event type %s, got %s", NotableStake, event.Type)
		}
		payload := event.Payload.(domain.NotableStakePayload)
		if payload.Amount != 750 {
			t.Errorf("Expected amount 750, got %d", payload.Amount)
		}
		handled = true
		return nil
	})

	err := bus.Publish(context.Background(), Event{
		Version: EventSchemaVersion,
		Type:    NotableStake,
		Payload: domain.NotableStakePayload{Amount: 750},
	})

	if err != nil {
		t.Errorf("Publish returned error: %v", err)
	}

	if !handled {
		t.Error("Handler was not called")
	}
}

func TestMemoryBus_PublishMultipleHandlers(t *testing.T) {
	bus := NewMemoryBus()
	count := 0

	handler := func(ctx context.Context, event Event) error {
		count++
		return nil
	}

	bus.Subscribe(BetComplete, handler)
	bus.Subscribe(BetComplete, handler)

	err := bus.Publish(context.Background(), Event{Version: EventSchemaVersion, Type: BetComplete})
	if err != nil {
		t.Errorf("Publish returned error: %v", err)
	}

	if count != 2 {
		t.Errorf("Expected 2 handlers to be called, got %d", count)
	}
}

func TestMemoryBus_PublishNoSubscribers(t *testing.T) {
	bus := NewMemoryBus()

	err := bus.Publish(context.Background(), Event{Version: EventSchemaVersion, Type: NewBet})
	if err != nil {
		t.Errorf("Publish with no subscribers returned error: %v", err)
	}
}

func TestMemoryBus_PublishError(t *testing.T) {
	bus := NewMemoryBus()

	bus.Subscribe(NewBet, func(ctx context.Context, event Event) error {
		return errors.New("handler error")
	})
	bus.Subscribe(NewBet, func(ctx context.Context, event Event) error {
		return nil
	})

	err := bus.Publish(context.Background(), Event{Version: EventSchemaVersion, Type: NewBet})
	if err == nil {
		t.Error("Expected error from Publish, got nil")
	}
}
