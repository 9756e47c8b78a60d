package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
)

func TestSubscribeRejectsNilHandler(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	if err := svc.Subscribe(interfaces.EventWaterLevelTick, nil); err == nil {
		t.Fatal("Expected error subscribing nil handler")
	}
}

func TestPublishSyncWaitsForHandlers(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	var calls int32
	for i := 0; i < 3; i++ {
		err := svc.Subscribe(interfaces.EventAidRecordCreated, func(ctx context.Context, event interfaces.Event) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
		if err != nil {
			t.Fatalf("Failed to subscribe: %v", err)
		}
	}

	err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventAidRecordCreated})
	if err != nil {
		t.Fatalf("PublishSync failed: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 handler calls, got %d", got)
	}
}

func TestPublishSyncCollectsHandlerErrors(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	svc.Subscribe(interfaces.EventSessionSettled, func(ctx context.Context, event interfaces.Event) error {
		return fmt.Errorf("handler failed")
	})

	if err := svc.PublishSync(context.Background(), interfaces.Event{Type: interfaces.EventSessionSettled}); err == nil {
		t.Fatal("Expected aggregated handler error")
	}
}

func TestPublishIsAsync(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	done := make(chan struct{})
	svc.Subscribe(interfaces.EventWaterLevelTick, func(ctx context.Context, event interfaces.Event) error {
		close(done)
		return nil
	})

	if err := svc.Publish(context.Background(), interfaces.Event{Type: interfaces.EventWaterLevelTick}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Handler was never invoked")
	}
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	svc := NewService(arbor.NewLogger())
	if err := svc.Publish(context.Background(), interfaces.Event{Type: "unknown"}); err != nil {
		t.Fatalf("Publish to empty topic failed: %v", err)
	}
}
