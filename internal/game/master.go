package game

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/user/friction-ultimate/internal/interfaces"
	"github.com/user/friction-ultimate/internal/types"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

const (
	actionFallback = "L'action résonne dans le silence... Le narrateur semble perturbé par des forces mystiques. Réessayez votre action."
	defaultTimeout = 20 * time.Second
)

// ErrNoQuest is returned when no quest fits the player
var ErrNoQuest = errors.New("no quest available")

// GameMaster builds narration prompts, asks the narrator for prose and keeps
// the scenario store current. A nil or failing narrator yields fixed
// fallback texts.
type GameMaster struct {
	narrator  interfaces.Narrator
	scenarios *ScenarioStore
	rng       RandomSource
	timeout   time.Duration
	logger    *zap.Logger
}

// NewGameMaster creates a game master. narrator may be nil.
func NewGameMaster(narrator interfaces.Narrator, scenarios *ScenarioStore, rng RandomSource, timeout time.Duration, logger *zap.Logger) *GameMaster {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameMaster{
		narrator:  narrator,
		scenarios: scenarios,
		rng:       rng,
		timeout:   timeout,
		logger:    logger,
	}
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// narrate renders a prompt and asks the narrator, returning fallback on any failure
func (gm *GameMaster) narrate(ctx context.Context, name string, data any, fallback string) string {
	if gm.narrator == nil {
		return fallback
	}

	prompt, err := render(name, data)
	if err != nil {
		gm.logger.Error("Failed to render prompt", zap.String("template", name), zap.Error(err))
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, gm.timeout)
	defer cancel()

	text, err := gm.narrator.Generate(ctx, prompt)
	if err != nil {
		gm.logger.Warn("Narration failed, using fallback",
			zap.String("template", name),
			zap.Error(err))
		return fallback
	}
	if text = strings.TrimSpace(text); text == "" {
		return fallback
	}
	return text
}

// SpawnScenario opens the player's adventure at their kingdom's spawn point
func (gm *GameMaster) SpawnScenario(ctx context.Context, player *types.Player) string {
	kingdom := KingdomDetails(player.Kingdom)
	fallback := fmt.Sprintf("%s se réveille dans %s. %s. L'aventure commence maintenant...",
		player.CharacterName, kingdom.Spawn, kingdom.SpawnDetails)

	text := gm.narrate(ctx, "spawn.tmpl", struct {
		Player   *types.Player
		Location string
		Details  string
		Friction types.PowerRank
	}{player, kingdom.Spawn, kingdom.SpawnDetails, FrictionLevel(kingdom.Spawn, player.Level)}, fallback)

	gm.scenarios.Set(player.PlayerKey, Scenario{
		Kind:     ScenarioSpawn,
		Location: kingdom.Spawn,
		Text:     text,
	})
	return text
}

// NarrateAction describes an already resolved action and records the text as
// the player's current scenario
func (gm *GameMaster) NarrateAction(ctx context.Context, player *types.Player, action string, result *types.ActionResult) string {
	scenario, _ := gm.scenarios.Get(player.PlayerKey)

	text := gm.narrate(ctx, "action.tmpl", struct {
		Player   *types.Player
		Action   string
		Precise  bool
		Delta    types.Delta
		Combat   *types.CombatRound
		Scenario string
		Friction types.PowerRank
	}{player, action, result.Precise, result.Delta, result.Combat, scenario.Text, FrictionLevel(player.Location, player.Level)}, actionFallback)

	gm.scenarios.Put(player.PlayerKey, text)
	return text
}

// enemyTemplates are the opponents a combat can be started against
var enemyTemplates = map[string]struct {
	name        string
	levelOffset int
	health      int
	description string
}{
	"bandit":  {"Bandit des routes", -1, 80, "Un brigand expérimenté armé d'une épée rouillée"},
	"guard":   {"Garde du royaume", 0, 100, "Un soldat entraîné en armure de cuir clouté"},
	"monster": {"Créature des ombres", 1, 120, "Une entité mystérieuse aux yeux luisants"},
}

// EnemyTypes lists the accepted enemy types
var EnemyTypes = []string{"bandit", "guard", "monster"}

// NewEnemy builds an enemy scaled to the player. Unknown types are bandits.
func NewEnemy(kind string, player *types.Player) types.Enemy {
	tmpl, ok := enemyTemplates[strings.ToLower(kind)]
	if !ok {
		tmpl = enemyTemplates["bandit"]
	}

	level := max(1, player.Level+tmpl.levelOffset)
	rank := PowerRankForLevel(level)
	if tmpl.levelOffset == 0 {
		rank = player.PowerRank
	}
	return types.Enemy{
		Name:        tmpl.name,
		Level:       level,
		PowerRank:   rank,
		Health:      tmpl.health,
		Description: tmpl.description,
	}
}

// CombatScenario puts the player in front of an enemy and returns the enemy
// with the opening text
func (gm *GameMaster) CombatScenario(player *types.Player, kind string) (types.Enemy, string) {
	enemy := NewEnemy(kind, player)

	text, err := render("combat.tmpl", struct {
		Player *types.Player
		Enemy  types.Enemy
	}{player, enemy})
	if err != nil {
		gm.logger.Error("Failed to render combat scenario", zap.Error(err))
		text = fmt.Sprintf("%s fait face à: %s", player.CharacterName, enemy.Name)
	}

	gm.scenarios.Set(player.PlayerKey, Scenario{
		Kind:     ScenarioCombat,
		Location: player.Location,
		Text:     text,
		Enemy:    &enemy,
	})
	return enemy, text
}

// QuestTemplate is the seed of a quest hook
type QuestTemplate struct {
	Type        string
	Difficulty  types.PowerRank
	Description string
}

// QuestTemplates are the quests the game master picks from
var QuestTemplates = []QuestTemplate{
	{"combat", types.RankE, "Un groupe de bandits menace les voyageurs sur la route principale"},
	{"exploration", types.RankD, "Des ruines anciennes ont été découvertes, cachant peut-être des trésors"},
	{"intrigue", types.RankC, "Un noble a disparu mystérieusement, et des rumeurs de complot circulent"},
	{"mystique", types.RankB, "Des phénomènes étranges perturbent l'équilibre magique de la région"},
}

var questMultipliers = map[types.PowerRank]float64{
	types.RankG: 0.5, types.RankF: 0.7, types.RankE: 1.0, types.RankD: 1.3,
	types.RankC: 1.6, types.RankB: 2.0, types.RankA: 2.5,
}

// QuestReward is the experience and gold a quest of the given difficulty pays
func QuestReward(difficulty types.PowerRank, level int) (int, int) {
	multiplier, ok := questMultipliers[difficulty]
	if !ok {
		multiplier = 1.0
	}
	scale := multiplier * (1 + float64(level)*0.1)
	return int(20 * scale), int(50 * scale)
}

// AvailableQuests returns the templates at most two ranks above the player
func AvailableQuests(rank types.PowerRank) []QuestTemplate {
	var out []QuestTemplate
	for _, q := range QuestTemplates {
		if q.Difficulty.Index() <= rank.Index()+2 {
			out = append(out, q)
		}
	}
	return out
}

// QuestHook picks a fitting quest and has it narrated for the player
func (gm *GameMaster) QuestHook(ctx context.Context, player *types.Player) (*types.Quest, error) {
	available := AvailableQuests(player.PowerRank)
	if len(available) == 0 {
		return nil, ErrNoQuest
	}

	picked := available[int(gm.rng.Float64()*float64(len(available)))]
	xp, gold := QuestReward(picked.Difficulty, player.Level)

	description := gm.narrate(ctx, "quest.tmpl", struct {
		Player   *types.Player
		Template QuestTemplate
	}{player, picked}, picked.Description)

	return &types.Quest{
		Type:        picked.Type,
		Difficulty:  picked.Difficulty,
		Description: description,
		RewardXP:    xp,
		RewardGold:  gold,
	}, nil
}
