package whatsapp

import (
	"fmt"
	"math"
	"strings"

	"github.com/user/friction-ultimate/internal/types"
)

const barCells = 5

// bar renders current/total as five cells of filled over empty
func bar(current, total int, filled string) string {
	cells := 0
	if total > 0 {
		percentage := int(math.Round(float64(current) / float64(total) * 100))
		cells = min(barCells, max(0, percentage/20))
	}
	return strings.Repeat(filled, cells) + strings.Repeat("⬜", barCells-cells)
}

// HealthBar renders health as red cells
func HealthBar(current, total int) string {
	return bar(current, total, "🟥")
}

// EnergyBar renders energy as green cells
func EnergyBar(current, total int) string {
	return bar(current, total, "🟩")
}

func percent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total) * 100
}

// HealthStatus labels the player's health
func HealthStatus(health, maxHealth int) string {
	switch p := percent(health, maxHealth); {
	case p <= 0:
		return "Inconscient 💀"
	case p <= 25:
		return "Gravement blessé 🩸"
	case p <= 50:
		return "Blessé 🤕"
	case p <= 75:
		return "Légèrement blessé 😬"
	default:
		return "En parfaite santé 💪"
	}
}

// EnergyStatus labels the player's energy
func EnergyStatus(energy, maxEnergy int) string {
	switch p := percent(energy, maxEnergy); {
	case p <= 0:
		return "Épuisé 😵"
	case p <= 25:
		return "Très fatigué 😰"
	case p <= 50:
		return "Fatigué 😓"
	case p <= 75:
		return "Un peu fatigué 😅"
	default:
		return "Plein d'énergie ⚡"
	}
}

// signed prints n with an explicit plus sign when positive
func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// FormatActionResult turns a resolved action into the chat reply
func FormatActionResult(result *types.ActionResult) string {
	player := result.Player

	if result.Respawn != nil {
		return fmt.Sprintf("💀 **%s** est inconscient !\n\n"+
			"Vous vous réveillez à %s avec 100%% de vie et d'énergie, mais vous avez perdu %d pièces d'or...\n\n"+
			"Utilisez /spawn pour continuer.",
			player.CharacterName, result.Respawn.Location, result.Respawn.GoldLost)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎭 **%s**\n\n%s", player.CharacterName, result.Narration)

	if c := result.Combat; c != nil {
		fmt.Fprintf(&b, "\n\n⚔️ **%s** subit %d dégâts (%d PV restants)", c.Enemy, c.DamageDealt, c.EnemyHealth)
		if c.Victory {
			b.WriteString("\n🏆 **Victoire !**")
		}
	}

	d := result.Delta
	if d.Health != 0 || d.Energy != 0 {
		b.WriteString("\n\n📊 **Conséquences :**")
		if d.Health != 0 {
			fmt.Fprintf(&b, "\n❤️ Vie : %s PV", signed(d.Health))
		}
		if d.Energy != 0 {
			fmt.Fprintf(&b, "\n⚡ Énergie : %s PE", signed(d.Energy))
		}
		if d.Gold != 0 {
			fmt.Fprintf(&b, "\n💰 Or : %s pièces", signed(d.Gold))
		}
		if d.Experience > 0 {
			fmt.Fprintf(&b, "\n🎯 Expérience : +%d XP", d.Experience)
		}
	}

	fmt.Fprintf(&b, "\n\n❤️ **Vie :** %s", HealthBar(player.Health, player.MaxHealth))
	fmt.Fprintf(&b, "\n⚡ **Énergie :** %s", EnergyBar(player.Energy, player.MaxEnergy))

	if lu := result.LevelUp; lu != nil {
		fmt.Fprintf(&b, "\n\n🌟 **NIVEAU SUPÉRIEUR !** 🌟\nNiveau %d atteint ! Puissance %s", lu.Level, lu.PowerRank)
	}
	return b.String()
}
