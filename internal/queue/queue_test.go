package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemStore_EnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	id, err := s.Enqueue(ctx, "player-action", []byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	it, err := s.NextForProcessing(ctx, time.Minute)
	if err != nil {
		t.Fatalf("NextForProcessing: %v", err)
	}
	if it == nil || it.ID != id {
		t.Fatalf("NextForProcessing returned %+v, want item %s", it, id)
	}
	if it.Status != StatusProcessing {
		t.Errorf("status = %q, want processing", it.Status)
	}
	if it.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", it.Attempts)
	}

	if err := s.Complete(ctx, id); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.CompletedAt.IsZero() {
		t.Error("CompletedAt not set")
	}
}

func TestMemStore_FailRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	id, _ := s.Enqueue(ctx, "llm", nil)

	for i := 0; i < 2; i++ {
		it, err := s.NextForProcessing(ctx, time.Minute)
		if err != nil || it == nil {
			t.Fatalf("NextForProcessing attempt %d: %v, %+v", i, err, it)
		}
		terminal, err := s.Fail(ctx, id, 3, errors.New("boom"))
		if err != nil {
			t.Fatalf("Fail: %v", err)
		}
		if terminal {
			t.Fatalf("attempt %d: unexpectedly terminal", i)
		}
		got, _ := s.Get(ctx, id)
		if got.Status != StatusQueued {
			t.Fatalf("attempt %d: status = %q, want queued", i, got.Status)
		}
	}

	// Third attempt exhausts max_retries = 3.
	it, err := s.NextForProcessing(ctx, time.Minute)
	if err != nil || it == nil {
		t.Fatalf("NextForProcessing final: %v, %+v", err, it)
	}
	terminal, err := s.Fail(ctx, id, 3, errors.New("boom"))
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !terminal {
		t.Fatal("expected terminal failure at max attempts")
	}
	got, _ := s.Get(ctx, id)
	if got.Status != StatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
}

func TestMemStore_PoisonousFailureIsImmediatelyTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	id, _ := s.Enqueue(ctx, "llm", nil)
	s.NextForProcessing(ctx, time.Minute)

	terminal, err := s.Fail(ctx, id, 0, errors.New("bad payload"))
	if err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !terminal {
		t.Fatal("expected poisonous failure (maxAttempts<=0) to be immediately terminal")
	}
}

func TestMemStore_LeaseRecovery(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	id, _ := s.Enqueue(ctx, "llm", nil)

	first, err := s.NextForProcessing(ctx, 1*time.Millisecond)
	if err != nil || first == nil {
		t.Fatalf("first NextForProcessing: %v, %+v", err, first)
	}
	time.Sleep(5 * time.Millisecond)

	second, err := s.NextForProcessing(ctx, time.Minute)
	if err != nil || second == nil {
		t.Fatalf("recovery NextForProcessing: %v, %+v", err, second)
	}
	if second.ID != id {
		t.Fatalf("recovered item = %s, want %s", second.ID, id)
	}
	if second.Attempts != 2 {
		t.Errorf("attempts after recovery = %d, want 2", second.Attempts)
	}
}

func TestMemStore_FIFOOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	first, _ := s.Enqueue(ctx, "k", []byte("1"))
	second, _ := s.Enqueue(ctx, "k", []byte("2"))

	it1, _ := s.NextForProcessing(ctx, time.Minute)
	s.Complete(ctx, it1.ID)
	it2, _ := s.NextForProcessing(ctx, time.Minute)

	if it1.ID != first || it2.ID != second {
		t.Errorf("processed order = [%s, %s], want [%s, %s]", it1.ID, it2.ID, first, second)
	}
}

func TestMemStore_Cleanup(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	id, _ := s.Enqueue(ctx, "k", nil)
	s.NextForProcessing(ctx, time.Minute)
	s.Complete(ctx, id)

	// Not yet old enough.
	removed, err := s.Cleanup(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}

	removed, err = s.Cleanup(ctx, 0)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := s.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after cleanup: %v, want ErrNotFound", err)
	}
}

func TestQueue_EnqueueWakesWaiter(t *testing.T) {
	ctx := context.Background()
	q := New("player-action", NewMemStore())

	done := make(chan struct{})
	go func() {
		q.Wait(ctx, time.Second)
		close(done)
	}()

	if _, err := q.Enqueue(ctx, "k", nil); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return promptly after Enqueue")
	}
}
