package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seojin-dev/avalon-server/internal/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
    room_key TEXT PRIMARY KEY,
    join_code TEXT NOT NULL,
    data JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_join_code ON rooms(join_code);
`

// PostgresStore implements RoomStore using PostgreSQL, one JSONB document
// per room.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Load returns the room for a key, or nil if none exists.
func (s *PostgresStore) Load(ctx context.Context, roomKey string) (*game.Room, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data FROM rooms WHERE room_key = $1`, roomKey)
	return scanRoom(row)
}

// FindByJoinCode returns the room for a join code, or nil if none exists.
func (s *PostgresStore) FindByJoinCode(ctx context.Context, joinCode string) (*game.Room, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data FROM rooms WHERE join_code = $1`, joinCode)
	return scanRoom(row)
}

// Save upserts a room document.
func (s *PostgresStore) Save(ctx context.Context, room *game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO rooms (room_key, join_code, data, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (room_key)
		 DO UPDATE SET join_code = $2, data = $3, updated_at = $4`,
		room.Key, room.JoinCode, data, time.Now())
	return err
}

// Delete removes a room document.
func (s *PostgresStore) Delete(ctx context.Context, roomKey string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE room_key = $1`, roomKey)
	return err
}

// List returns all stored rooms.
func (s *PostgresStore) List(ctx context.Context) ([]*game.Room, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM rooms`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []*game.Room
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var room game.Room
		if err := json.Unmarshal(data, &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanRoom(row pgx.Row) (*game.Room, error) {
	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room game.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}
