package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/friction-ultimate/internal/types"
)

// MockNarrator is a mock implementation of interfaces.Narrator
type MockNarrator struct {
	mock.Mock
}

func (m *MockNarrator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestPromptsRender(t *testing.T) {
	player := freshPlayer()
	player.CharacterName = "Aldric"
	enemy := NewEnemy("guard", player)

	for name, data := range map[string]any{
		"spawn.tmpl": struct {
			Player   *types.Player
			Location string
			Details  string
			Friction types.PowerRank
		}{player, "Tour Crépusculaire", "Une tour de magie", types.RankE},
		"action.tmpl": struct {
			Player   *types.Player
			Action   string
			Precise  bool
			Delta    types.Delta
			Combat   *types.CombatRound
			Scenario string
			Friction types.PowerRank
		}{player, "J'attaque", true, types.Delta{Energy: -10}, &types.CombatRound{Enemy: enemy.Name, DamageDealt: 7, EnemyHealth: 93}, "", types.RankG},
		"combat.tmpl": struct {
			Player *types.Player
			Enemy  types.Enemy
		}{player, enemy},
		"quest.tmpl": struct {
			Player   *types.Player
			Template QuestTemplate
		}{player, QuestTemplates[0]},
	} {
		text, err := render(name, data)
		require.NoError(t, err, name)
		assert.Contains(t, text, "Aldric", name)
	}
}

func TestNarrateFallbacks(t *testing.T) {
	// Setup
	core, logs := observer.New(zap.WarnLevel)
	narrator := new(MockNarrator)
	scenarios := NewScenarioStore(0, nil)
	gm := NewGameMaster(narrator, scenarios, &fixedRandom{}, 0, zap.New(core))
	player := freshPlayer()
	result := &types.ActionResult{}

	// Test case 1: narrator answers
	narrator.On("Generate", mock.Anything, mock.Anything).Return("  Le garde vous dévisage.  ", nil).Once()
	assert.Equal(t, "Le garde vous dévisage.", gm.NarrateAction(context.Background(), player, "Je marche", result))

	// Test case 2: narrator fails
	narrator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()
	assert.Equal(t, actionFallback, gm.NarrateAction(context.Background(), player, "Je marche", result))
	assert.Equal(t, 1, logs.FilterMessage("Narration failed, using fallback").Len())

	// Test case 3: narrator answers with nothing
	narrator.On("Generate", mock.Anything, mock.Anything).Return("", nil).Once()
	assert.Equal(t, actionFallback, gm.NarrateAction(context.Background(), player, "Je marche", result))

	scenario, ok := scenarios.Get(player.PlayerKey)
	require.True(t, ok)
	assert.Equal(t, actionFallback, scenario.Text)
	narrator.AssertExpectations(t)

	// Test case 4: no narrator at all
	silent := NewGameMaster(nil, scenarios, &fixedRandom{}, 0, nil)
	assert.Equal(t, actionFallback, silent.NarrateAction(context.Background(), player, "Je marche", result))
}

func TestSpawnScenario(t *testing.T) {
	scenarios := NewScenarioStore(0, nil)
	gm := NewGameMaster(nil, scenarios, &fixedRandom{}, 0, nil)
	player := freshPlayer()
	player.CharacterName = "Mira"
	player.Kingdom = types.KingdomEclypsia

	text := gm.SpawnScenario(context.Background(), player)
	assert.Contains(t, text, "Mira se réveille dans Tour Crépusculaire")

	scenario, ok := scenarios.Get(player.PlayerKey)
	require.True(t, ok)
	assert.Equal(t, ScenarioSpawn, scenario.Kind)
	assert.Equal(t, "Tour Crépusculaire", scenario.Location)
	assert.Equal(t, text, scenario.Text)
}

func TestNewEnemy(t *testing.T) {
	player := freshPlayer()
	player.Level = 3
	player.PowerRank = types.RankF

	monster := NewEnemy("monster", player)
	assert.Equal(t, "Créature des ombres", monster.Name)
	assert.Equal(t, 4, monster.Level)
	assert.Equal(t, types.RankF, monster.PowerRank)
	assert.Equal(t, 120, monster.Health)

	guard := NewEnemy("GUARD", player)
	assert.Equal(t, 3, guard.Level)
	assert.Equal(t, player.PowerRank, guard.PowerRank)

	// unknown types fall back to a bandit, never below level 1
	player.Level = 1
	bandit := NewEnemy("dragon", player)
	assert.Equal(t, "Bandit des routes", bandit.Name)
	assert.Equal(t, 1, bandit.Level)
	assert.Equal(t, 80, bandit.Health)
}

func TestCombatScenario(t *testing.T) {
	scenarios := NewScenarioStore(0, nil)
	gm := NewGameMaster(nil, scenarios, &fixedRandom{}, 0, nil)
	player := freshPlayer()
	player.CharacterName = "Mira"

	enemy, text := gm.CombatScenario(player, "guard")
	assert.Contains(t, text, "Mira fait face à: Garde du royaume")

	scenario, ok := scenarios.Get(player.PlayerKey)
	require.True(t, ok)
	assert.Equal(t, ScenarioCombat, scenario.Kind)
	require.NotNil(t, scenario.Enemy)
	assert.Equal(t, enemy, *scenario.Enemy)
}

func TestQuestReward(t *testing.T) {
	xp, gold := QuestReward(types.RankE, 1)
	assert.Equal(t, 22, xp)
	assert.Equal(t, 55, gold)

	xp, gold = QuestReward(types.RankB, 5)
	assert.Equal(t, 60, xp)
	assert.Equal(t, 150, gold)

	xp, gold = QuestReward(types.RankG, 0)
	assert.Equal(t, 10, xp)
	assert.Equal(t, 25, gold)
}

func TestAvailableQuests(t *testing.T) {
	assert.Len(t, AvailableQuests(types.RankG), 1)
	assert.Len(t, AvailableQuests(types.RankF), 2)
	assert.Len(t, AvailableQuests(types.RankA), len(QuestTemplates))
}

func TestQuestHook(t *testing.T) {
	rng := &fixedRandom{draws: []float64{0.99}}
	gm := NewGameMaster(nil, NewScenarioStore(0, nil), rng, 0, nil)
	player := freshPlayer()
	player.Level = 6
	player.PowerRank = types.RankE

	quest, err := gm.QuestHook(context.Background(), player)
	require.NoError(t, err)
	// rank E reaches up to C, the last of three candidates is picked
	assert.Equal(t, "intrigue", quest.Type)
	assert.Equal(t, types.RankC, quest.Difficulty)
	assert.Equal(t, QuestTemplates[2].Description, quest.Description)
	assert.Equal(t, 51, quest.RewardXP)
	assert.Equal(t, 128, quest.RewardGold)
}
