package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/friction-ultimate/internal/types"
)

// HybridStore composes an always-available memory store with an optional
// durable store. Writes land in memory first and the memory result is what the
// caller gets back; durable failures are logged and never returned. Keys whose
// durable write failed stay pending until a later flush succeeds, and reads of
// a pending key are served from memory so a stale durable row never wins.
// Every durable call is bounded by the query timeout.
type HybridStore struct {
	memory  *MemoryStore
	durable Store
	timeout time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

var _ Store = (*HybridStore)(nil)

// NewHybridStore creates a hybrid store. durable may be nil for memory-only.
// A zero timeout leaves durable calls bounded by the caller's context only.
func NewHybridStore(durable Store, timeout time.Duration, logger *zap.Logger) *HybridStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HybridStore{
		memory:  NewMemoryStore(),
		durable: durable,
		timeout: timeout,
		logger:  logger,
		pending: make(map[string]struct{}),
	}
}

// durableCtx derives the context of one durable call
func (h *HybridStore) durableCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.timeout)
}

// Durable reports whether a durable store is configured
func (h *HybridStore) Durable() bool {
	return h.durable != nil
}

func (h *HybridStore) markPending(playerKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		h.pending = make(map[string]struct{})
	}
	h.pending[playerKey] = struct{}{}
}

func (h *HybridStore) clearPending(playerKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.pending, playerKey)
}

func (h *HybridStore) isPending(playerKey string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.pending[playerKey]
	return ok
}

// Pending returns the keys waiting for a durable flush
func (h *HybridStore) Pending() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	keys := make([]string, 0, len(h.pending))
	for key := range h.pending {
		keys = append(keys, key)
	}
	return keys
}

// flush replays the memory state of a pending key into the durable store.
// When durable holds the key under another id, the durable row is adopted.
func (h *HybridStore) flush(ctx context.Context, playerKey string) error {
	player, err := h.memory.GetByKey(ctx, playerKey)
	switch {
	case errors.Is(err, ErrNotFound):
		dctx, cancel := h.durableCtx(ctx)
		err = h.durable.Delete(dctx, playerKey)
		cancel()
	case err == nil:
		dctx, cancel := h.durableCtx(ctx)
		_, err = h.durable.Update(dctx, player)
		cancel()
		if errors.Is(err, ErrKeyConflict) {
			_, err = h.adoptDurable(ctx, playerKey)
		}
	}
	if err != nil {
		return err
	}
	h.clearPending(playerKey)
	return nil
}

// adoptDurable replaces the memory row of a key with the durable one
func (h *HybridStore) adoptDurable(ctx context.Context, playerKey string) (*types.Player, error) {
	dctx, cancel := h.durableCtx(ctx)
	defer cancel()

	player, err := h.durable.GetByKey(dctx, playerKey)
	if err != nil {
		return nil, err
	}
	if err := h.memory.Delete(ctx, playerKey); err != nil {
		return nil, err
	}
	h.memory.Put(player)
	h.clearPending(playerKey)

	h.logger.Warn("Durable row kept over memory row",
		zap.String("player_key", playerKey),
		zap.Int64("player_id", player.ID))
	return player, nil
}

// Reconcile flushes every pending key and returns how many are still pending
func (h *HybridStore) Reconcile(ctx context.Context) int {
	if h.durable == nil {
		return 0
	}

	remaining := 0
	for _, key := range h.Pending() {
		if err := h.flush(ctx, key); err != nil {
			remaining++
			h.logger.Warn("Durable flush failed",
				zap.String("player_key", key),
				zap.Error(err))
		}
	}
	return remaining
}

// GetByKey reads durable first unless the key has unflushed writes, falling
// back to memory on absence or failure
func (h *HybridStore) GetByKey(ctx context.Context, playerKey string) (*types.Player, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}
	if h.durable == nil {
		return h.memory.GetByKey(ctx, playerKey)
	}

	if h.isPending(playerKey) {
		if err := h.flush(ctx, playerKey); err != nil {
			h.logger.Debug("Pending key still not flushed",
				zap.String("player_key", playerKey),
				zap.Error(err))
		}
		return h.memory.GetByKey(ctx, playerKey)
	}

	dctx, cancel := h.durableCtx(ctx)
	player, err := h.durable.GetByKey(dctx, playerKey)
	cancel()
	if err == nil {
		h.memory.Put(player)
		return player, nil
	}
	if !errors.Is(err, ErrNotFound) {
		h.logger.Warn("Durable read failed, using memory",
			zap.String("player_key", playerKey),
			zap.Error(err))
	}
	return h.memory.GetByKey(ctx, playerKey)
}

// Create writes to memory, then durable. A duplicate key is rejected by memory.
// A key durable already holds is rejected too and the durable row replaces
// the memory one, so a missed read never leads to overwriting a saved player.
func (h *HybridStore) Create(ctx context.Context, player *types.Player) (*types.Player, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}

	created, err := h.memory.Create(ctx, player)
	if err != nil {
		return nil, err
	}

	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		_, err := h.durable.Create(dctx, created)
		cancel()
		if errors.Is(err, ErrAlreadyExists) {
			if _, adoptErr := h.adoptDurable(ctx, created.PlayerKey); adoptErr != nil {
				h.memory.Delete(ctx, created.PlayerKey)
				h.logger.Warn("Failed to load existing durable player",
					zap.String("player_key", created.PlayerKey),
					zap.Error(adoptErr))
			}
			return nil, ErrAlreadyExists
		}
		if err != nil {
			h.markPending(created.PlayerKey)
			h.logger.Warn("Durable create failed, kept in memory",
				zap.String("player_key", created.PlayerKey),
				zap.Error(err))
		}
	}
	return created, nil
}

// Update writes to memory, then durable
func (h *HybridStore) Update(ctx context.Context, player *types.Player) (*types.Player, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}

	updated, err := h.memory.Update(ctx, player)
	if err != nil {
		return nil, err
	}

	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		_, err := h.durable.Update(dctx, updated)
		cancel()
		if errors.Is(err, ErrKeyConflict) {
			if adopted, adoptErr := h.adoptDurable(ctx, updated.PlayerKey); adoptErr == nil {
				return adopted, nil
			}
		}
		if err != nil {
			h.markPending(updated.PlayerKey)
			h.logger.Warn("Durable update failed, kept in memory",
				zap.String("player_key", updated.PlayerKey),
				zap.Error(err))
		} else {
			h.clearPending(updated.PlayerKey)
		}
	}
	return updated, nil
}

// Delete removes from memory, then durable
func (h *HybridStore) Delete(ctx context.Context, playerKey string) error {
	if h.memory == nil {
		return ErrStorageUnavailable
	}

	if err := h.memory.Delete(ctx, playerKey); err != nil {
		return err
	}

	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		err := h.durable.Delete(dctx, playerKey)
		cancel()
		if err != nil {
			h.markPending(playerKey)
			h.logger.Warn("Durable delete failed",
				zap.String("player_key", playerKey),
				zap.Error(err))
		} else {
			h.clearPending(playerKey)
		}
	}
	return nil
}

// ListAll returns the durable listing when it is non-empty, otherwise the
// memory snapshot
func (h *HybridStore) ListAll(ctx context.Context) ([]*types.Player, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}

	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		players, err := h.durable.ListAll(dctx)
		cancel()
		if err == nil && len(players) > 0 {
			return h.overlayPending(ctx, players), nil
		}
		if err != nil {
			h.logger.Warn("Durable listing failed, using memory", zap.Error(err))
		}
	}
	return h.memory.ListAll(ctx)
}

// overlayPending swaps in the memory version of keys the durable listing is behind on
func (h *HybridStore) overlayPending(ctx context.Context, players []*types.Player) []*types.Player {
	pending := h.Pending()
	if len(pending) == 0 {
		return players
	}

	byKey := make(map[string]*types.Player, len(players))
	for _, player := range players {
		byKey[player.PlayerKey] = player
	}
	for _, key := range pending {
		player, err := h.memory.GetByKey(ctx, key)
		if err != nil {
			delete(byKey, key)
			continue
		}
		byKey[key] = player
	}

	merged := make([]*types.Player, 0, len(byKey))
	for _, player := range byKey {
		merged = append(merged, player)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged
}

// AddInventoryItem appends to memory, then durable
func (h *HybridStore) AddInventoryItem(ctx context.Context, item *types.InventoryItem) error {
	if h.memory == nil {
		return ErrStorageUnavailable
	}
	if err := h.memory.AddInventoryItem(ctx, item); err != nil {
		return err
	}
	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		err := h.durable.AddInventoryItem(dctx, item)
		cancel()
		if err != nil {
			h.logger.Warn("Durable inventory write failed",
				zap.Int64("player_id", item.PlayerID),
				zap.Error(err))
		}
	}
	return nil
}

// ListInventory prefers durable rows, falling back to memory
func (h *HybridStore) ListInventory(ctx context.Context, playerID int64) ([]types.InventoryItem, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}
	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		items, err := h.durable.ListInventory(dctx, playerID)
		cancel()
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			h.logger.Warn("Durable inventory read failed", zap.Error(err))
		}
	}
	return h.memory.ListInventory(ctx, playerID)
}

// AppendCombatLog appends to memory, then durable
func (h *HybridStore) AppendCombatLog(ctx context.Context, entry *types.CombatLog) error {
	if h.memory == nil {
		return ErrStorageUnavailable
	}
	if err := h.memory.AppendCombatLog(ctx, entry); err != nil {
		return err
	}
	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		err := h.durable.AppendCombatLog(dctx, entry)
		cancel()
		if err != nil {
			h.logger.Warn("Durable combat log write failed",
				zap.Int64("player_id", entry.PlayerID),
				zap.Error(err))
		}
	}
	return nil
}

// ListCombatLogs prefers durable rows, falling back to memory
func (h *HybridStore) ListCombatLogs(ctx context.Context, playerID int64) ([]types.CombatLog, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}
	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		logs, err := h.durable.ListCombatLogs(dctx, playerID)
		cancel()
		if err == nil && len(logs) > 0 {
			return logs, nil
		}
		if err != nil {
			h.logger.Warn("Durable combat log read failed", zap.Error(err))
		}
	}
	return h.memory.ListCombatLogs(ctx, playerID)
}

// LinkSession records the group chat in memory, then durable
func (h *HybridStore) LinkSession(ctx context.Context, playerID int64, groupChatID string) error {
	if h.memory == nil {
		return ErrStorageUnavailable
	}
	if err := h.memory.LinkSession(ctx, playerID, groupChatID); err != nil {
		return err
	}
	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		err := h.durable.LinkSession(dctx, playerID, groupChatID)
		cancel()
		if err != nil {
			h.logger.Warn("Durable session link failed",
				zap.Int64("player_id", playerID),
				zap.String("group_chat_id", groupChatID),
				zap.Error(err))
		}
	}
	return nil
}

// ListSessions prefers durable rows, falling back to memory
func (h *HybridStore) ListSessions(ctx context.Context, playerID int64) ([]types.GameSession, error) {
	if h.memory == nil {
		return nil, ErrStorageUnavailable
	}
	if h.durable != nil {
		dctx, cancel := h.durableCtx(ctx)
		sessions, err := h.durable.ListSessions(dctx, playerID)
		cancel()
		if err == nil && len(sessions) > 0 {
			return sessions, nil
		}
		if err != nil {
			h.logger.Warn("Durable session read failed", zap.Error(err))
		}
	}
	return h.memory.ListSessions(ctx, playerID)
}
