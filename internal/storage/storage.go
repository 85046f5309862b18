// Package storage holds the player persistence layer: an in-process memory
// store, a SQL store, and the hybrid store that composes them.
package storage

import (
	"context"
	"errors"

	"github.com/user/friction-ultimate/internal/types"
)

var (
	// ErrNotFound is returned when no player exists for a key
	ErrNotFound = errors.New("player not found")

	// ErrAlreadyExists is returned when creating a player whose key is taken
	ErrAlreadyExists = errors.New("player already registered")

	// ErrKeyConflict is returned by a durable update when the key is saved
	// under another player id
	ErrKeyConflict = errors.New("player key saved under another id")

	// ErrStorageUnavailable is returned by a create when no store at all is configured
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// PlayerStore is the player CRUD contract shared by every backend
type PlayerStore interface {
	GetByKey(ctx context.Context, playerKey string) (*types.Player, error)
	Create(ctx context.Context, player *types.Player) (*types.Player, error)
	Update(ctx context.Context, player *types.Player) (*types.Player, error)
	Delete(ctx context.Context, playerKey string) error
	ListAll(ctx context.Context) ([]*types.Player, error)
}

// RecordStore covers the append-only tables attached to a player
type RecordStore interface {
	AddInventoryItem(ctx context.Context, item *types.InventoryItem) error
	ListInventory(ctx context.Context, playerID int64) ([]types.InventoryItem, error)
	AppendCombatLog(ctx context.Context, entry *types.CombatLog) error
	ListCombatLogs(ctx context.Context, playerID int64) ([]types.CombatLog, error)
	LinkSession(ctx context.Context, playerID int64, groupChatID string) error
	ListSessions(ctx context.Context, playerID int64) ([]types.GameSession, error)
}

// Store is a full backend
type Store interface {
	PlayerStore
	RecordStore
}
