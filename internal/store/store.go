package store

import (
	"context"

	"github.com/seojin-dev/avalon-server/internal/game"
)

// RoomStore defines the interface for persistent room storage. Documents
// are ACID per room but carry no optimistic locking; callers serialize
// concurrent access per room themselves.
type RoomStore interface {
	// Load returns the room for a key, or nil if none exists.
	Load(ctx context.Context, roomKey string) (*game.Room, error)
	// FindByJoinCode returns the room for a join code, or nil if none exists.
	FindByJoinCode(ctx context.Context, joinCode string) (*game.Room, error)
	// Save upserts a room document.
	Save(ctx context.Context, room *game.Room) error
	// Delete removes a room document. Deleting a missing room is not an error.
	Delete(ctx context.Context, roomKey string) error
	// List returns all stored rooms.
	List(ctx context.Context) ([]*game.Room, error)
	// Close releases storage resources.
	Close() error
}
