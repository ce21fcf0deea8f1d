package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/seojin-dev/avalon-server/internal/game"
)

// MemoryStore implements RoomStore in process memory. It backs tests and
// deployments without a database; rooms do not survive a restart.
type MemoryStore struct {
	rooms map[string][]byte // room key -> JSON document
	codes map[string]string // join code -> room key
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string][]byte),
		codes: make(map[string]string),
	}
}

// Load returns the room for a key, or nil if none exists.
func (s *MemoryStore) Load(_ context.Context, roomKey string) (*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return decode(s.rooms[roomKey])
}

// FindByJoinCode returns the room for a join code, or nil if none exists.
func (s *MemoryStore) FindByJoinCode(_ context.Context, joinCode string) (*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.codes[joinCode]
	if !ok {
		return nil, nil
	}
	return decode(s.rooms[key])
}

// Save upserts a room document.
func (s *MemoryStore) Save(_ context.Context, room *game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, err := decode(s.rooms[room.Key]); err == nil && old != nil && old.JoinCode != room.JoinCode {
		delete(s.codes, old.JoinCode)
	}
	s.rooms[room.Key] = data
	s.codes[room.JoinCode] = room.Key
	return nil
}

// Delete removes a room document.
func (s *MemoryStore) Delete(_ context.Context, roomKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, err := decode(s.rooms[roomKey]); err == nil && room != nil {
		delete(s.codes, room.JoinCode)
	}
	delete(s.rooms, roomKey)
	return nil
}

// List returns all stored rooms.
func (s *MemoryStore) List(_ context.Context) ([]*game.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*game.Room, 0, len(s.rooms))
	for _, data := range s.rooms {
		room, err := decode(data)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

// decode unmarshals a stored document into a fresh Room so callers never
// alias state still held by the store.
func decode(data []byte) (*game.Room, error) {
	if data == nil {
		return nil, nil
	}
	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
