package services

import (
	"context"
	"sync"
)

// SearchTracker tags searches per session with an increasing sequence number
// so that only the most recent one is allowed to deliver a result.
type SearchTracker struct {
	mu       sync.Mutex
	next     uint64
	sessions map[string]searchSlot
}

type searchSlot struct {
	seq    uint64
	cancel context.CancelFunc
}

type Ticket struct {
	key string
	seq uint64
}

func NewSearchTracker() *SearchTracker {
	return &SearchTracker{sessions: make(map[string]searchSlot)}
}

// Begin registers a new search for key, cancelling the previous one.
func (t *SearchTracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.sessions[key]; ok {
		prev.cancel()
	}
	t.next++
	t.sessions[key] = searchSlot{seq: t.next, cancel: cancel}

	return ctx, Ticket{key: key, seq: t.next}
}

func (t *SearchTracker) IsLatest(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.sessions[ticket.key]
	return ok && slot.seq == ticket.seq
}

// Done releases the ticket. The session slot is dropped only if no newer
// search replaced it.
func (t *SearchTracker) Done(ticket Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, ok := t.sessions[ticket.key]
	if !ok || slot.seq != ticket.seq {
		return
	}
	slot.cancel()
	delete(t.sessions, ticket.key)
}

// Active returns the number of sessions with a search in flight.
func (t *SearchTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
