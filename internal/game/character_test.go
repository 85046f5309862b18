package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/friction-ultimate/internal/types"
)

func TestValidateName(t *testing.T) {
	name, err := ValidateName("  Aragorn  ")
	require.NoError(t, err)
	assert.Equal(t, "Aragorn", name)

	// length counts characters, not bytes
	_, err = ValidateName("Éé")
	assert.NoError(t, err)

	_, err = ValidateName("A")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = ValidateName("Un nom beaucoup trop long")
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = ValidateName("   ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestApplyCustomization(t *testing.T) {
	player := freshPlayer()
	player.Kingdom = types.KingdomAegyria
	player.Order = types.OrderNeutral

	require.NoError(t, ApplyCustomization(player, "gender", "Female"))
	require.NoError(t, ApplyCustomization(player, "style", "mage"))
	require.NoError(t, ApplyCustomization(player, "weapon", "crossbow"))
	require.NoError(t, ApplyCustomization(player, "armor", "robe"))
	require.NoError(t, ApplyCustomization(player, "kingdom", "varha"))
	require.NoError(t, ApplyCustomization(player, "order", "la lame pourpre"))

	assert.Equal(t, types.CharacterData{
		Gender: types.GenderFemale,
		Style:  types.StyleMage,
		Weapon: types.WeaponCrossbow,
		Armor:  types.ArmorRobe,
	}, player.CharacterData)
	assert.Equal(t, types.KingdomVarha, player.Kingdom)
	assert.Equal(t, types.OrderPurple, player.Order)
}

func TestApplyCustomizationRejects(t *testing.T) {
	player := freshPlayer()
	before := *player

	for _, tc := range [][2]string{
		{"gender", "other"},
		{"style", "bard"},
		{"weapon", "spoon"},
		{"armor", "towel"},
		{"kingdom", "ATLANTIS"},
		{"order", "Les Chevaliers"},
		{"hair", "red"},
	} {
		err := ApplyCustomization(player, tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidCustomization, "%s %s", tc[0], tc[1])
	}
	assert.Equal(t, before, *player)
}

func TestDescription(t *testing.T) {
	assert.Equal(t, "Guerrier musclé aux cicatrices de bataille", Description(types.CharacterData{}))
	assert.Equal(t,
		"Femme mystérieuse aux gestes gracieux armé d'bâton de mage vêtu d'robe de mage",
		Description(types.CharacterData{Gender: types.GenderFemale, Style: types.StyleMage, Weapon: types.WeaponStaff, Armor: types.ArmorRobe}))
}

func TestStartingEquipment(t *testing.T) {
	weapon, armor := StartingEquipment(types.KingdomVarha, types.StyleMage)
	assert.Equal(t, types.WeaponStaff, weapon)
	assert.Equal(t, types.ArmorPlate, armor)

	weapon, armor = StartingEquipment("NOWHERE", "")
	assert.Equal(t, types.WeaponSword, weapon)
	assert.Equal(t, types.ArmorChainmail, armor)
}

func TestNamesAndDetails(t *testing.T) {
	assert.Equal(t, "Mains nues", WeaponName(types.WeaponNone))
	assert.Equal(t, "Vêtements simples", ArmorName(types.ArmorNone))
	assert.Equal(t, "Hache de guerre", WeaponName(types.WeaponAxe))
	assert.Equal(t, "Tour Crépusculaire", KingdomDetails(types.KingdomEclypsia).Spawn)
	assert.Equal(t, "Aegyria", KingdomDetails("UNKNOWN").Name)
	assert.Equal(t, "Aucune affiliation particulière", OrderDescription(types.OrderNeutral))
	assert.Len(t, Options("kingdom"), 6)
	assert.Len(t, Options("order"), 6)
}
