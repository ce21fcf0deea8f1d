package room

import (
	"context"
	"sync"
	"time"
)

// scheduler runs delayed callbacks scoped to a room. Cancelling a room
// stops its pending timers, so a room deleted or reset mid-timer never
// fires stale broadcasts into a new game.
type scheduler struct {
	mu    sync.Mutex
	rooms map[string]context.CancelFunc
	ctxs  map[string]context.Context
}

func newScheduler() *scheduler {
	return &scheduler{
		rooms: make(map[string]context.CancelFunc),
		ctxs:  make(map[string]context.Context),
	}
}

// After runs fn after d unless the room is cancelled first.
func (s *scheduler) After(roomKey string, d time.Duration, fn func()) {
	s.mu.Lock()
	ctx, ok := s.ctxs[roomKey]
	if !ok {
		ctx2, cancel := context.WithCancel(context.Background())
		s.ctxs[roomKey] = ctx2
		s.rooms[roomKey] = cancel
		ctx = ctx2
	}
	s.mu.Unlock()

	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			fn()
		}
	}()
}

// CancelRoom stops all pending timers for a room.
func (s *scheduler) CancelRoom(roomKey string) {
	s.mu.Lock()
	cancel, ok := s.rooms[roomKey]
	delete(s.rooms, roomKey)
	delete(s.ctxs, roomKey)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}
