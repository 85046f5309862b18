package game

import (
	"strings"

	"github.com/user/friction-ultimate/internal/types"
)

const (
	levelUpHealthBonus = 10
	levelUpEnergyBonus = 5
	respawnGoldPenalty = 0.1
)

// RequiredExperience is the experience needed to leave a level
func RequiredExperience(level int) int {
	return level*100 + (level-1)*50
}

// PowerRankForLevel maps a level onto its rank
func PowerRankForLevel(level int) types.PowerRank {
	switch {
	case level <= 2:
		return types.RankG
	case level <= 5:
		return types.RankF
	case level <= 10:
		return types.RankE
	case level <= 15:
		return types.RankD
	case level <= 20:
		return types.RankC
	case level <= 25:
		return types.RankB
	default:
		return types.RankA
	}
}

// ApplyDelta adds a delta to the player, clamping health and energy to
// [0, max] and gold to non-negative
func ApplyDelta(player *types.Player, d types.Delta) {
	player.Health = clamp(player.Health+d.Health, 0, player.MaxHealth)
	player.Energy = clamp(player.Energy+d.Energy, 0, player.MaxEnergy)
	player.Gold = max(0, player.Gold+d.Gold)
	if d.Experience > 0 {
		player.Experience += d.Experience
	}
}

// CheckLevelUp advances the player by at most one level when the experience
// threshold of the current level is met. Experience is not consumed.
func CheckLevelUp(player *types.Player) *types.LevelUp {
	if player.Experience < RequiredExperience(player.Level) {
		return nil
	}

	player.Level++
	player.PowerRank = PowerRankForLevel(player.Level)
	player.MaxHealth += levelUpHealthBonus
	player.MaxEnergy += levelUpEnergyBonus

	return &types.LevelUp{Level: player.Level, PowerRank: player.PowerRank}
}

// IsDefeated reports whether the player has no health left
func IsDefeated(player *types.Player) bool {
	return player.Health <= 0
}

// Respawn restores vitals, deducts a tenth of the gold and moves the player to
// the respawn location. Level and experience are kept.
func Respawn(player *types.Player, location string) *types.Respawn {
	lost := int(float64(player.Gold) * respawnGoldPenalty)
	player.Gold = max(0, player.Gold-lost)
	player.Health = player.MaxHealth
	player.Energy = player.MaxEnergy
	player.Location = location

	return &types.Respawn{GoldLost: lost, Location: location}
}

// locationDifficulty is the base friction of well-known places, matched as a
// substring of the location
var locationDifficulty = []struct {
	place string
	rank  types.PowerRank
}{
	{"auberge", types.RankG},
	{"village", types.RankF},
	{"forêt", types.RankE},
	{"donjon", types.RankD},
	{"château", types.RankC},
	{"temple", types.RankB},
	{"citadelle", types.RankA},
}

// FrictionLevel is the difficulty a player faces at a location. Unknown places
// are E; high-level players never face less than half their rank index.
func FrictionLevel(location string, level int) types.PowerRank {
	base := types.RankE
	lower := strings.ToLower(location)
	for _, ld := range locationDifficulty {
		if strings.Contains(lower, ld.place) {
			base = ld.rank
			break
		}
	}

	idx := max(base.Index(), PowerRankForLevel(level).Index()/2)
	return types.PowerRanks[min(idx, len(types.PowerRanks)-1)]
}

var frictionLabels = map[types.PowerRank]string{
	types.RankG: "Aucune",
	types.RankF: "Faible",
	types.RankE: "Modérée",
	types.RankD: "Moyenne",
	types.RankC: "Élevée",
	types.RankB: "Très élevée",
	types.RankA: "Extrême",
}

// FrictionLabel is the display name of a friction rank
func FrictionLabel(rank types.PowerRank) string {
	return frictionLabels[rank]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
