package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/user/friction-ultimate/config"
	"github.com/user/friction-ultimate/internal/interfaces"
	"github.com/user/friction-ultimate/internal/storage"
	"github.com/user/friction-ultimate/internal/types"
)

// ErrPlayerNotFound is returned for keys that never registered
var ErrPlayerNotFound = storage.ErrNotFound

const (
	startingLevel  = 1
	startingVitals = 100
	startingGold   = 100
)

// GameManager runs the action pipeline on top of the player store
type GameManager struct {
	config     config.Config
	store      storage.Store
	classifier *Classifier
	master     *GameMaster
	scenarios  *ScenarioStore
	rng        RandomSource
	Logger     *zap.Logger
	locks      *keyedMutex
}

// Ensure GameManager satisfies the interfaces.GameManager interface
var _ interfaces.GameManager = (*GameManager)(nil)

// NewGameManager creates a game manager. narrator may be nil, in which case
// every narration is a fallback text. A nil store runs memory-only.
func NewGameManager(cfg config.Config, store storage.Store, narrator interfaces.Narrator, logger *zap.Logger) *GameManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = storage.NewHybridStore(nil, 0, logger)
	}

	rng := NewDiceRoller(cfg.Game.DiceSeed)
	scenarios := NewScenarioStore(cfg.Game.ScenarioTTL(), logger)

	return &GameManager{
		config:     cfg,
		store:      store,
		classifier: DefaultClassifier(),
		master:     NewGameMaster(narrator, scenarios, rng, cfg.Narration.Timeout(), logger),
		scenarios:  scenarios,
		rng:        rng,
		Logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// SetRandomSource replaces the dice used for consequences, combat and quests
func (gm *GameManager) SetRandomSource(rng RandomSource) {
	gm.rng = rng
	gm.master.rng = rng
}

// Scenarios exposes the scenario store
func (gm *GameManager) Scenarios() *ScenarioStore {
	return gm.scenarios
}

// StartScenarioSweeper starts the background removal of stale scenarios
func (gm *GameManager) StartScenarioSweeper() {
	gm.scenarios.Start(gm.config.Game.SweepInterval())
}

// StopScenarioSweeper stops the background sweeper
func (gm *GameManager) StopScenarioSweeper() {
	gm.scenarios.Stop()
}

// lock serializes operations on one player when configured to
func (gm *GameManager) lock(playerKey string) func() {
	if !gm.config.Game.SerializeActions {
		return func() {}
	}
	return gm.locks.Lock(playerKey)
}

// RegisterPlayer creates a character with the fixed starting stats and
// hands out the starting inventory
func (gm *GameManager) RegisterPlayer(ctx context.Context, playerKey, name string) (*types.Player, error) {
	name, err := ValidateName(name)
	if err != nil {
		return nil, err
	}

	unlock := gm.lock(playerKey)
	defer unlock()

	if _, err := gm.store.GetByKey(ctx, playerKey); err == nil {
		return nil, storage.ErrAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check player: %w", err)
	}

	player, err := gm.store.Create(ctx, &types.Player{
		PlayerKey:     playerKey,
		CharacterName: name,
		Level:         startingLevel,
		Health:        startingVitals,
		MaxHealth:     startingVitals,
		Energy:        startingVitals,
		MaxEnergy:     startingVitals,
		PowerRank:     types.RankG,
		Kingdom:       types.KingdomAegyria,
		Order:         types.OrderNeutral,
		Gold:          startingGold,
		Location:      gm.config.Game.StartingLocation,
	})
	if err != nil {
		return nil, err
	}

	for _, item := range StartingItems {
		if err := gm.store.AddInventoryItem(ctx, &types.InventoryItem{
			PlayerID: player.ID,
			Name:     item.Name,
			Type:     item.Type,
			Quantity: item.Quantity,
		}); err != nil {
			gm.Logger.Warn("Failed to add starting item",
				zap.String("player_key", playerKey),
				zap.String("item", item.Name),
				zap.Error(err))
		}
	}

	gm.Logger.Info("Player registered",
		zap.String("player_key", playerKey),
		zap.String("name", name),
		zap.Int64("player_id", player.ID))
	return player, nil
}

// GetPlayer retrieves a player by key
func (gm *GameManager) GetPlayer(ctx context.Context, playerKey string) (*types.Player, error) {
	return gm.store.GetByKey(ctx, playerKey)
}

// Customize changes one appearance, equipment or allegiance field
func (gm *GameManager) Customize(ctx context.Context, playerKey, kind, value string) (*types.Player, error) {
	unlock := gm.lock(playerKey)
	defer unlock()

	player, err := gm.store.GetByKey(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	if err := ApplyCustomization(player, kind, value); err != nil {
		return nil, err
	}
	return gm.store.Update(ctx, player)
}

// Spawn moves the player to their kingdom's spawn point and opens a new
// scenario there. Empty equipment slots get the kingdom's starting gear.
func (gm *GameManager) Spawn(ctx context.Context, playerKey string) (*types.ActionResult, error) {
	unlock := gm.lock(playerKey)
	defer unlock()

	player, err := gm.store.GetByKey(ctx, playerKey)
	if err != nil {
		return nil, err
	}

	player.Location = KingdomDetails(player.Kingdom).Spawn
	weapon, armor := StartingEquipment(player.Kingdom, player.CharacterData.WithDefaults().Style)
	if player.CharacterData.Weapon == types.WeaponNone {
		player.CharacterData.Weapon = weapon
	}
	if player.CharacterData.Armor == types.ArmorNone {
		player.CharacterData.Armor = armor
	}
	saved, err := gm.store.Update(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to save spawn location: %w", err)
	}

	return &types.ActionResult{
		Player:    saved,
		Narration: gm.master.SpawnScenario(ctx, saved),
	}, nil
}

// ResolveAction runs one free-text action through classification, consequence
// resolution and progression, persists the player and narrates the outcome.
// A defeated player is respawned instead and the action is not resolved.
func (gm *GameManager) ResolveAction(ctx context.Context, playerKey, text, groupChatID string) (*types.ActionResult, error) {
	unlock := gm.lock(playerKey)
	defer unlock()

	player, err := gm.store.GetByKey(ctx, playerKey)
	if err != nil {
		return nil, err
	}

	if groupChatID != "" {
		if err := gm.store.LinkSession(ctx, player.ID, groupChatID); err != nil {
			gm.Logger.Warn("Failed to link game session",
				zap.String("player_key", playerKey),
				zap.String("group", groupChatID),
				zap.Error(err))
		}
	}

	if IsDefeated(player) {
		return gm.respawn(ctx, player)
	}

	classification := gm.classifier.Classify(text)
	delta := Resolve(classification, gm.rng)

	experience := player.Experience
	ApplyDelta(player, delta)

	result := &types.ActionResult{
		Delta:   delta,
		Tags:    classification.Strings(),
		Precise: classification.Precise,
	}
	if player.Experience > experience {
		result.LevelUp = CheckLevelUp(player)
	}
	if classification.Has(TagCombat) {
		result.Combat = gm.combatRound(ctx, player, text, classification.Precise, delta)
	}

	saved, err := gm.store.Update(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to save action outcome: %w", err)
	}
	result.Player = saved

	if result.LevelUp != nil {
		gm.Logger.Info("Player leveled up",
			zap.String("player_key", playerKey),
			zap.Int("level", result.LevelUp.Level),
			zap.String("rank", string(result.LevelUp.PowerRank)))
	}

	result.Narration = gm.master.NarrateAction(ctx, saved, text, result)
	return result, nil
}

func (gm *GameManager) respawn(ctx context.Context, player *types.Player) (*types.ActionResult, error) {
	respawn := Respawn(player, gm.config.Game.RespawnLocation)
	gm.scenarios.Clear(player.PlayerKey)

	saved, err := gm.store.Update(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed to save respawn: %w", err)
	}

	gm.Logger.Info("Player respawned",
		zap.String("player_key", player.PlayerKey),
		zap.Int("gold_lost", respawn.GoldLost),
		zap.String("location", respawn.Location))
	return &types.ActionResult{Player: saved, Respawn: respawn}, nil
}

// combatRound strikes the enemy of an active combat scenario. It returns nil
// when the player is not fighting anyone.
func (gm *GameManager) combatRound(ctx context.Context, player *types.Player, action string, precise bool, delta types.Delta) *types.CombatRound {
	scenario, ok := gm.scenarios.Get(player.PlayerKey)
	if !ok || scenario.Kind != ScenarioCombat || scenario.Enemy == nil {
		return nil
	}

	enemy := *scenario.Enemy
	damage := CombatDamage(player.Level, enemy.Level, precise, gm.rng)
	enemy.Health = max(0, enemy.Health-damage)

	round := &types.CombatRound{
		Enemy:       enemy.Name,
		DamageDealt: damage,
		EnemyHealth: enemy.Health,
		Victory:     enemy.Health == 0,
	}

	outcome := "ongoing"
	if round.Victory {
		outcome = "victory"
		scenario.Kind = ScenarioAction
		scenario.Enemy = nil
	} else {
		scenario.Enemy = &enemy
	}
	gm.scenarios.Set(player.PlayerKey, scenario)

	if err := gm.store.AppendCombatLog(ctx, &types.CombatLog{
		PlayerID:         player.ID,
		EnemyName:        enemy.Name,
		ActionTaken:      action,
		DamageDealt:      damage,
		DamageReceived:   max(0, -delta.Health),
		Result:           outcome,
		ExperienceGained: max(0, delta.Experience),
	}); err != nil {
		gm.Logger.Warn("Failed to append combat log",
			zap.String("player_key", player.PlayerKey),
			zap.Error(err))
	}
	return round
}

// StartCombat puts the player in front of a new enemy
func (gm *GameManager) StartCombat(ctx context.Context, playerKey, enemyType string) (*types.Enemy, string, error) {
	unlock := gm.lock(playerKey)
	defer unlock()

	player, err := gm.store.GetByKey(ctx, playerKey)
	if err != nil {
		return nil, "", err
	}

	enemy, text := gm.master.CombatScenario(player, enemyType)
	return &enemy, text, nil
}

// QuestHook offers the player a quest fitting their rank
func (gm *GameManager) QuestHook(ctx context.Context, playerKey string) (*types.Quest, error) {
	player, err := gm.store.GetByKey(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	return gm.master.QuestHook(ctx, player)
}

// Inventory lists the player's items
func (gm *GameManager) Inventory(ctx context.Context, playerKey string) ([]types.InventoryItem, error) {
	player, err := gm.store.GetByKey(ctx, playerKey)
	if err != nil {
		return nil, err
	}
	return gm.store.ListInventory(ctx, player.ID)
}

// keyedMutex hands out one mutex per key and forgets it once unused
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until the key is free and returns its unlock function
func (km *keyedMutex) Lock(key string) func() {
	km.mu.Lock()
	kl, ok := km.locks[key]
	if !ok {
		kl = &keyLock{}
		km.locks[key] = kl
	}
	kl.refs++
	km.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()

		km.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}

// held returns the number of keys currently locked or waited on
func (km *keyedMutex) held() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.locks)
}
