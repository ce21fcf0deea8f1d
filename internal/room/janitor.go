package room

import (
	"context"
	"log/slog"
	"time"
)

// Janitor deletes abandoned rooms on a fixed interval. Rooms with no
// players go immediately; rooms where everyone is offline get an
// empty-since stamp and are deleted once past the grace window.
type Janitor struct {
	manager  *Manager
	interval time.Duration
	grace    time.Duration
}

// NewJanitor creates a janitor sweeping the manager's store.
func NewJanitor(m *Manager, interval, grace time.Duration) *Janitor {
	return &Janitor{manager: m, interval: interval, grace: grace}
}

// Run sweeps until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over all rooms.
func (j *Janitor) Sweep(ctx context.Context) {
	rooms, err := j.manager.store.List(ctx)
	if err != nil {
		slog.Error("janitor list failed", "error", err)
		return
	}

	now := time.Now()
	for _, r := range rooms {
		j.sweepRoom(ctx, r.Key, now)
	}
}

// sweepRoom re-examines one room under its lock; the listed snapshot may
// be stale by the time we get here.
func (j *Janitor) sweepRoom(ctx context.Context, roomKey string, now time.Time) {
	m := j.manager
	unlock := m.locks.Lock(roomKey)

	r, err := m.store.Load(ctx, roomKey)
	if err != nil || r == nil {
		unlock()
		return
	}

	switch {
	case len(r.Players) == 0:
		j.delete(ctx, roomKey, "no players")
		unlock()
		m.locks.Forget(roomKey)
		return

	case r.OnlineCount() == 0:
		if r.EmptySince == nil {
			stamp := now
			r.EmptySince = &stamp
			if err := m.store.Save(ctx, r); err != nil {
				slog.Error("janitor save failed", "room", roomKey, "error", err)
			}
		} else if now.Sub(*r.EmptySince) > j.grace {
			j.delete(ctx, roomKey, "grace expired")
			unlock()
			m.locks.Forget(roomKey)
			return
		}

	case r.EmptySince != nil:
		r.EmptySince = nil
		if err := m.store.Save(ctx, r); err != nil {
			slog.Error("janitor save failed", "room", roomKey, "error", err)
		}
	}
	unlock()
}

// delete removes the room and cancels its timers. No broadcast: nobody
// is listening. Caller holds the room lock.
func (j *Janitor) delete(ctx context.Context, roomKey, reason string) {
	j.manager.sched.CancelRoom(roomKey)
	if err := j.manager.store.Delete(ctx, roomKey); err != nil {
		slog.Error("janitor delete failed", "room", roomKey, "error", err)
		return
	}
	slog.Info("room swept", "room", roomKey, "reason", reason)
}
