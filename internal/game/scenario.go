package game

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/friction-ultimate/internal/types"
)

// DefaultScenarioTTL is how long an untouched scenario survives
const DefaultScenarioTTL = time.Hour

// ScenarioKind is what produced the current scenario
type ScenarioKind string

const (
	ScenarioSpawn  ScenarioKind = "spawn"
	ScenarioAction ScenarioKind = "action"
	ScenarioCombat ScenarioKind = "combat"
)

// Scenario is the short-lived narrative context of one player
type Scenario struct {
	Kind      ScenarioKind
	Location  string
	Text      string
	Enemy     *types.Enemy
	UpdatedAt time.Time
}

func (s Scenario) clone() Scenario {
	if s.Enemy != nil {
		enemy := *s.Enemy
		s.Enemy = &enemy
	}
	return s
}

// ScenarioStore keeps scenarios in memory, keyed by player key. It is not
// persisted and not transactional with player writes.
type ScenarioStore struct {
	mu        sync.RWMutex
	scenarios map[string]Scenario
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger

	ticker   *time.Ticker
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewScenarioStore creates an empty store. A non-positive ttl uses the default.
func NewScenarioStore(ttl time.Duration, logger *zap.Logger) *ScenarioStore {
	if ttl <= 0 {
		ttl = DefaultScenarioTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioStore{
		scenarios: make(map[string]Scenario),
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Put records narrative text for the player, keeping the kind, location and
// enemy of an existing scenario
func (ss *ScenarioStore) Put(playerKey, text string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	scenario, exists := ss.scenarios[playerKey]
	if !exists {
		scenario = Scenario{Kind: ScenarioAction}
	}
	scenario.Text = text
	scenario.UpdatedAt = ss.now()
	ss.scenarios[playerKey] = scenario
}

// Set replaces the player's scenario
func (ss *ScenarioStore) Set(playerKey string, scenario Scenario) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	scenario = scenario.clone()
	scenario.UpdatedAt = ss.now()
	ss.scenarios[playerKey] = scenario
}

// Get returns a copy of the player's scenario
func (ss *ScenarioStore) Get(playerKey string) (Scenario, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	scenario, exists := ss.scenarios[playerKey]
	if !exists {
		return Scenario{}, false
	}
	return scenario.clone(), true
}

// Clear forgets the player's scenario
func (ss *ScenarioStore) Clear(playerKey string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.scenarios, playerKey)
}

// Len returns the number of live scenarios
func (ss *ScenarioStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.scenarios)
}

// Sweep removes scenarios untouched for longer than the ttl and returns how
// many were removed
func (ss *ScenarioStore) Sweep(now time.Time) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	removed := 0
	for key, scenario := range ss.scenarios {
		if now.Sub(scenario.UpdatedAt) > ss.ttl {
			delete(ss.scenarios, key)
			removed++
		}
	}
	return removed
}

// Start sweeps on the given interval until Stop is called
func (ss *ScenarioStore) Start(interval time.Duration) {
	if interval <= 0 {
		interval = ss.ttl
	}
	ss.ticker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ss.ticker.C:
				if removed := ss.Sweep(ss.now()); removed > 0 {
					ss.logger.Info("Swept stale scenarios", zap.Int("removed", removed))
				}
			case <-ss.stopChan:
				ss.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the sweeper
func (ss *ScenarioStore) Stop() {
	ss.stopOnce.Do(func() {
		close(ss.stopChan)
	})
}
