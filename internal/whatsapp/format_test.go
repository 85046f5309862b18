package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/friction-ultimate/internal/types"
)

func TestBars(t *testing.T) {
	assert.Equal(t, "🟥🟥🟥🟥🟥", HealthBar(100, 100))
	assert.Equal(t, "🟥🟥🟥🟥⬜", HealthBar(85, 100))
	assert.Equal(t, "🟥⬜⬜⬜⬜", HealthBar(39, 100))
	assert.Equal(t, "⬜⬜⬜⬜⬜", HealthBar(0, 100))
	assert.Equal(t, "🟩🟩🟩⬜⬜", EnergyBar(66, 110))
	assert.Equal(t, "⬜⬜⬜⬜⬜", EnergyBar(10, 0))
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Inconscient 💀", HealthStatus(0, 100))
	assert.Equal(t, "Gravement blessé 🩸", HealthStatus(25, 100))
	assert.Equal(t, "Blessé 🤕", HealthStatus(50, 100))
	assert.Equal(t, "Légèrement blessé 😬", HealthStatus(75, 100))
	assert.Equal(t, "En parfaite santé 💪", HealthStatus(76, 100))

	assert.Equal(t, "Épuisé 😵", EnergyStatus(0, 100))
	assert.Equal(t, "Très fatigué 😰", EnergyStatus(20, 100))
	assert.Equal(t, "Fatigué 😓", EnergyStatus(40, 100))
	assert.Equal(t, "Un peu fatigué 😅", EnergyStatus(70, 100))
	assert.Equal(t, "Plein d'énergie ⚡", EnergyStatus(100, 100))
}

func TestFormatActionResult(t *testing.T) {
	player := &types.Player{CharacterName: "Aldric", Level: 2, Health: 85, MaxHealth: 110, Energy: 90, MaxEnergy: 105}

	// Test case 1: full outcome
	text := FormatActionResult(&types.ActionResult{
		Player:    player,
		Narration: "Le bandit recule.",
		Delta:     types.Delta{Health: -15, Energy: -10, Gold: 7, Experience: 5},
		Combat:    &types.CombatRound{Enemy: "Bandit des routes", DamageDealt: 17, EnemyHealth: 0, Victory: true},
		LevelUp:   &types.LevelUp{Level: 2, PowerRank: types.RankG},
	})
	assert.Contains(t, text, "🎭 **Aldric**\n\nLe bandit recule.")
	assert.Contains(t, text, "⚔️ **Bandit des routes** subit 17 dégâts (0 PV restants)")
	assert.Contains(t, text, "🏆 **Victoire !**")
	assert.Contains(t, text, "❤️ Vie : -15 PV")
	assert.Contains(t, text, "⚡ Énergie : -10 PE")
	assert.Contains(t, text, "💰 Or : +7 pièces")
	assert.Contains(t, text, "🎯 Expérience : +5 XP")
	assert.Contains(t, text, "Niveau 2 atteint ! Puissance G")

	// Test case 2: nothing changed, only the bars
	text = FormatActionResult(&types.ActionResult{Player: player, Narration: "Rien ne se passe."})
	assert.NotContains(t, text, "Conséquences")
	assert.Contains(t, text, "❤️ **Vie :** 🟥🟥🟥⬜⬜")

	// Test case 3: respawn
	text = FormatActionResult(&types.ActionResult{
		Player:  player,
		Respawn: &types.Respawn{GoldLost: 5, Location: "Auberge de résurrection"},
	})
	assert.Contains(t, text, "💀 **Aldric** est inconscient !")
	assert.Contains(t, text, "Auberge de résurrection")
	assert.Contains(t, text, "perdu 5 pièces d'or")
}
