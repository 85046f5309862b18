package game

import (
	"math/rand"
	"time"

	"github.com/user/friction-ultimate/internal/types"
)

// RandomSource supplies uniform draws in [0, 1)
type RandomSource interface {
	Float64() float64
}

// DiceRoller handles dice rolling for the game
type DiceRoller struct {
	rng *rand.Rand
}

// NewDiceRoller creates a new dice roller. A zero seed seeds from the clock.
func NewDiceRoller(seed int64) *DiceRoller {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Float64 returns a uniform draw in [0, 1)
func (dr *DiceRoller) Float64() float64 {
	return dr.rng.Float64()
}

const (
	dangerThreshold      = 0.7
	explorationThreshold = 0.8
)

// Resolve turns a classification into unclamped stat changes.
//
// Physical, combat and heavy each set the energy drain and experience gain, a
// later one replacing an earlier one. Rest adds on top of the drain. Danger
// draws once and, above 0.7, draws again for 5 to 24 damage. Exploration draws
// once and, above 0.8, draws again for 5 to 24 gold plus 3 experience.
func Resolve(c Classification, rng RandomSource) types.Delta {
	var d types.Delta

	if c.Has(TagPhysical) {
		d.Energy, d.Experience = -5, 2
	}
	if c.Has(TagCombat) {
		d.Energy, d.Experience = -10, 5
	}
	if c.Has(TagHeavy) {
		d.Energy, d.Experience = -15, 3
	}

	if c.Has(TagRest) {
		d.Energy += 10
		d.Health += 5
	}

	if c.Has(TagDanger) {
		if rng.Float64() > dangerThreshold {
			d.Health -= 5 + int(rng.Float64()*20)
		}
	}

	if c.Has(TagExploration) {
		if rng.Float64() > explorationThreshold {
			d.Gold += 5 + int(rng.Float64()*20)
			d.Experience += 3
		}
	}

	return d
}

// CombatDamage is the damage an attack deals, never below 1
func CombatDamage(attackerLevel, defenderLevel int, precise bool, rng RandomSource) int {
	damage := 10 + attackerLevel*2
	damage += attackerLevel - defenderLevel
	if precise {
		damage += 5
	} else {
		damage -= 5
	}
	damage += int(rng.Float64()*10) - 5

	if damage < 1 {
		return 1
	}
	return damage
}
