// Package eventbus implements the in-process publish/subscribe bus used for
// fan-out, unordered delivery of domain events to the broadcast layer. Use
// queues (internal/queue) where failure must not be lost; use this bus
// where a transient listener translates a domain event into a wire message.
package eventbus

import (
	"context"
	"sync"
)

// Topic names the domain events carried on the bus.
type Topic string

const (
	NarrativeTriggered      Topic = "narrative_triggered"
	SceneChanged            Topic = "scene_changed"
	TimeAdvanced            Topic = "time_advanced"
	StagingApproved         Topic = "staging_approved"
	GenerationCompleted     Topic = "generation_completed"
	StagingPending          Topic = "staging_pending"
	StagingApprovalRequired Topic = "staging_approval_required"
	NpcDialogueApproved     Topic = "npc_dialogue_approved"
	ActionQueued            Topic = "action_queued"
	TimeSuggested           Topic = "time_suggested"
)

// Handler receives a published event. It must not block for long; slow
// consumers should hand off to their own goroutine.
type Handler func(ctx context.Context, payload any)

// Bus is an in-process, unordered, fan-out publish/subscribe bus. Safe for
// concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]Handler)}
}

// Subscribe registers h to be called for every event published on topic.
// Returns an unsubscribe function.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = append(b.subs[topic], h)
	idx := len(b.subs[topic]) - 1
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		handlers := b.subs[topic]
		if idx >= len(handlers) {
			return
		}
		b.subs[topic] = append(handlers[:idx], handlers[idx+1:]...)
	}
}

// Publish fans payload out to every subscriber of topic synchronously, in
// registration order. Delivery is best-effort and unordered across topics;
// a panicking handler is not recovered — callers that need isolation should
// run Publish in its own goroutine per subscriber set.
func (b *Bus) Publish(ctx context.Context, topic Topic, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[topic]))
	copy(handlers, b.subs[topic])
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, payload)
	}
}
