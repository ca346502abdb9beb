package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/duskward/loomkeeper/internal/eventbus"
	"github.com/duskward/loomkeeper/internal/ids"
	"github.com/duskward/loomkeeper/internal/llmtypes"
	"github.com/duskward/loomkeeper/internal/queue"
)

type countingBus struct {
	*eventbus.Bus
	count int
}

func newCountingBus() *countingBus {
	cb := &countingBus{Bus: eventbus.New()}
	cb.Subscribe(eventbus.NpcDialogueApproved, func(context.Context, any) { cb.count++ })
	return cb
}

type capturingBus struct {
	*eventbus.Bus
}

func newCapturingBus(out *string) *capturingBus {
	b := eventbus.New()
	b.Subscribe(eventbus.NpcDialogueApproved, func(_ context.Context, payload any) {
		*out = payload.(DialogueApprovedEvent).Text
	})
	return &capturingBus{Bus: b}
}

func mustItem(t *testing.T, payload any) *queue.Item {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &queue.Item{Payload: b}
}

func TestLoop_ProcessSuccessCompletesItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{}
	q := queue.New("t", queue.NewMemStore())
	id, _ := q.Enqueue(ctx, "k", []byte("x"))

	var processed atomic.Int32
	done := make(chan struct{})
	go func() {
		s.loop(ctx, q, func(_ context.Context, it *queue.Item) error {
			processed.Add(1)
			if it.ID == id {
				cancel()
			}
			return nil
		})
		close(done)
	}()

	<-ctx.Done()
	<-done

	got, err := q.Store().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != queue.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if processed.Load() == 0 {
		t.Error("expected process to be called")
	}
}

func TestLoop_ProcessErrorRetriesItem(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{}
	q := queue.New("t", queue.NewMemStore())
	id, _ := q.Enqueue(ctx, "k", []byte("x"))

	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		s.loop(ctx, q, func(_ context.Context, it *queue.Item) error {
			n := calls.Add(1)
			if n == 1 {
				return errors.New("transient")
			}
			cancel()
			return nil
		})
		close(done)
	}()

	<-ctx.Done()
	<-done

	got, err := q.Store().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != queue.StatusCompleted {
		t.Errorf("status = %q, want completed after retry", got.Status)
	}
	if calls.Load() < 2 {
		t.Errorf("calls = %d, want at least 2 (one retry)", calls.Load())
	}
}

func TestCleanupOnce_PurgesEveryQueue(t *testing.T) {
	ctx := context.Background()
	pipeline := queue.NewPipeline()
	completed := make(map[string]ids.QueueItemID)
	for _, q := range pipeline.All() {
		id, _ := q.Enqueue(ctx, "k", nil)
		q.Store().NextForProcessing(ctx, time.Minute)
		q.Store().Complete(ctx, id)
		completed[q.Name] = id
	}

	s := &Supervisor{Pipeline: pipeline}
	s.cleanupOnce(ctx)

	for _, q := range pipeline.All() {
		n, err := q.Store().PendingCount(ctx)
		if err != nil {
			t.Fatalf("PendingCount: %v", err)
		}
		if n != 0 {
			t.Errorf("queue %s: pending count = %d, want 0", q.Name, n)
		}
		if _, err := q.Store().Get(ctx, completed[q.Name]); !errors.Is(err, queue.ErrNotFound) {
			t.Errorf("queue %s: completed item still present after cleanup (err = %v)", q.Name, err)
		}
	}
}

func TestSummarizeSheet(t *testing.T) {
	if got := summarizeSheet(nil); got != "" {
		t.Errorf("summarizeSheet(nil) = %q, want empty", got)
	}
	got := summarizeSheet(map[string]any{"class": "rogue"})
	if got == "" {
		t.Error("expected non-empty summary for non-empty sheet")
	}
}

func TestProcessDMAction_RejectPublishesNothing(t *testing.T) {
	ctx := context.Background()
	bus := newCountingBus()
	s := &Supervisor{Bus: bus.Bus}
	payload := queue.DMActionPayload{Decision: queue.DMReject}
	item := mustItem(t, payload)

	if err := s.processDMAction(ctx, item); err != nil {
		t.Fatalf("processDMAction: %v", err)
	}
	if bus.count > 0 {
		t.Errorf("expected no publish on reject, got %d", bus.count)
	}
}

func TestProcessDMAction_ApprovePublishesApproved(t *testing.T) {
	ctx := context.Background()
	bus := newCountingBus()
	s := &Supervisor{Bus: bus.Bus}
	payload := queue.DMActionPayload{
		Decision: queue.DMApprove,
		Approval: queue.DMApprovalPayload{ProposedText: "hello"},
	}
	item := mustItem(t, payload)

	if err := s.processDMAction(ctx, item); err != nil {
		t.Fatalf("processDMAction: %v", err)
	}
	if bus.count != 1 {
		t.Errorf("expected 1 publish on approve, got %d", bus.count)
	}
}

func TestProcessDMAction_EditUsesEditedContent(t *testing.T) {
	ctx := context.Background()
	var gotText string
	bus := newCapturingBus(&gotText)
	s := &Supervisor{Bus: bus.Bus}
	payload := queue.DMActionPayload{
		Decision:      queue.DMEdit,
		EditedContent: "edited version",
		Approval:      queue.DMApprovalPayload{ProposedText: "original"},
	}
	item := mustItem(t, payload)

	if err := s.processDMAction(ctx, item); err != nil {
		t.Fatalf("processDMAction: %v", err)
	}
	if gotText != "edited version" {
		t.Errorf("published text = %q, want edited content", gotText)
	}
}

func TestExecuteTools_NilHostIsNoop(t *testing.T) {
	s := &Supervisor{}
	if err := s.executeTools(context.Background(), []llmtypes.ToolCall{{Name: "x"}}); err != nil {
		t.Errorf("executeTools with nil host: %v", err)
	}
}
