package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/user/friction-ultimate/internal/types"
)

// MemoryStore keeps every record in process memory. It never rejects a write.
type MemoryStore struct {
	mu         sync.RWMutex
	players    map[string]*types.Player
	inventory  map[int64][]types.InventoryItem
	combatLogs map[int64][]types.CombatLog
	sessions   map[int64][]types.GameSession
	lastID     int64
	lastRecord int64
	now        func() time.Time
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:    make(map[string]*types.Player),
		inventory:  make(map[int64][]types.InventoryItem),
		combatLogs: make(map[int64][]types.CombatLog),
		sessions:   make(map[int64][]types.GameSession),
		now:        time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// nextID hands out millisecond timestamps, bumped to stay strictly increasing
func (ms *MemoryStore) nextID() int64 {
	id := ms.now().UnixMilli()
	if id <= ms.lastID {
		id = ms.lastID + 1
	}
	ms.lastID = id
	return id
}

func (ms *MemoryStore) nextRecordID() int64 {
	ms.lastRecord++
	return ms.lastRecord
}

// GetByKey returns a copy of the player stored under the key
func (ms *MemoryStore) GetByKey(_ context.Context, playerKey string) (*types.Player, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	player, exists := ms.players[playerKey]
	if !exists {
		return nil, ErrNotFound
	}
	return player.Clone(), nil
}

// Create stores a new player, assigning its id and timestamps
func (ms *MemoryStore) Create(_ context.Context, player *types.Player) (*types.Player, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.players[player.PlayerKey]; exists {
		return nil, ErrAlreadyExists
	}

	stored := player.Clone()
	if stored.ID == 0 {
		stored.ID = ms.nextID()
	} else if stored.ID > ms.lastID {
		ms.lastID = stored.ID
	}
	now := ms.now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	ms.players[stored.PlayerKey] = stored
	return stored.Clone(), nil
}

// Update replaces the stored player and touches UpdatedAt. A missing key is
// inserted rather than rejected.
func (ms *MemoryStore) Update(_ context.Context, player *types.Player) (*types.Player, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := player.Clone()
	if existing, exists := ms.players[stored.PlayerKey]; exists {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else if stored.ID == 0 {
		stored.ID = ms.nextID()
	}
	stored.UpdatedAt = ms.now()

	ms.players[stored.PlayerKey] = stored
	return stored.Clone(), nil
}

// Put caches a player read from another store without touching its timestamps
func (ms *MemoryStore) Put(player *types.Player) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if player.ID > ms.lastID {
		ms.lastID = player.ID
	}
	ms.players[player.PlayerKey] = player.Clone()
}

// Delete removes the player and its records
func (ms *MemoryStore) Delete(_ context.Context, playerKey string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if player, exists := ms.players[playerKey]; exists {
		delete(ms.inventory, player.ID)
		delete(ms.combatLogs, player.ID)
		delete(ms.sessions, player.ID)
	}
	delete(ms.players, playerKey)
	return nil
}

// ListAll returns a snapshot of every player ordered by id
func (ms *MemoryStore) ListAll(_ context.Context) ([]*types.Player, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	players := make([]*types.Player, 0, len(ms.players))
	for _, player := range ms.players {
		players = append(players, player.Clone())
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players, nil
}

// AddInventoryItem appends an item to the player's inventory
func (ms *MemoryStore) AddInventoryItem(_ context.Context, item *types.InventoryItem) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *item
	stored.ID = ms.nextRecordID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = ms.now()
	}
	ms.inventory[stored.PlayerID] = append(ms.inventory[stored.PlayerID], stored)
	return nil
}

// ListInventory returns the player's items in insertion order
func (ms *MemoryStore) ListInventory(_ context.Context, playerID int64) ([]types.InventoryItem, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return append([]types.InventoryItem(nil), ms.inventory[playerID]...), nil
}

// AppendCombatLog records a combat event
func (ms *MemoryStore) AppendCombatLog(_ context.Context, entry *types.CombatLog) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored := *entry
	stored.ID = ms.nextRecordID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = ms.now()
	}
	ms.combatLogs[stored.PlayerID] = append(ms.combatLogs[stored.PlayerID], stored)
	return nil
}

// ListCombatLogs returns the player's combat events in insertion order
func (ms *MemoryStore) ListCombatLogs(_ context.Context, playerID int64) ([]types.CombatLog, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return append([]types.CombatLog(nil), ms.combatLogs[playerID]...), nil
}

// LinkSession associates the player with a group chat, touching the existing
// association if there is one
func (ms *MemoryStore) LinkSession(_ context.Context, playerID int64, groupChatID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	sessions := ms.sessions[playerID]
	for i := range sessions {
		if sessions[i].GroupChatID == groupChatID {
			sessions[i].UpdatedAt = now
			return nil
		}
	}
	ms.sessions[playerID] = append(sessions, types.GameSession{
		ID:          ms.nextRecordID(),
		PlayerID:    playerID,
		GroupChatID: groupChatID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return nil
}

// ListSessions returns the group chats the player is linked to
func (ms *MemoryStore) ListSessions(_ context.Context, playerID int64) ([]types.GameSession, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return append([]types.GameSession(nil), ms.sessions[playerID]...), nil
}
