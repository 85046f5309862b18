package game

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/user/friction-ultimate/internal/types"
)

var (
	// ErrInvalidName is returned when a character name is not 2 to 20 characters
	ErrInvalidName = errors.New("character name must be between 2 and 20 characters")

	// ErrInvalidCustomization is returned for an unknown customization type or value
	ErrInvalidCustomization = errors.New("invalid customization")
)

const (
	minNameLength = 2
	maxNameLength = 20
)

// KingdomInfo describes an origin kingdom
type KingdomInfo struct {
	Name         string
	Description  string
	Specialties  []string
	Spawn        string
	SpawnDetails string
	Armor        types.Armor
}

var kingdoms = map[types.Kingdom]KingdomInfo{
	types.KingdomAegyria: {
		Name:         "Aegyria",
		Description:  "Royaume de la chevalerie et de l'honneur",
		Specialties:  []string{"Armures lourdes", "Épées à deux mains", "Prières de protection"},
		Spawn:        "Auberge du Chevalier Doré",
		SpawnDetails: "Une auberge noble aux bannières dorées, fréquentée par les chevaliers et paladins",
		Armor:        types.ArmorChainmail,
	},
	types.KingdomSombrenuit: {
		Name:         "Sombrenuit",
		Description:  "Forêts mystérieuses et pactes occultes",
		Specialties:  []string{"Poisons", "Dagues courbes", "Magie de l'ombre"},
		Spawn:        "Taverne de l'Ombre Silencieuse",
		SpawnDetails: "Une taverne sombre aux coins reculés, où les murmures remplacent les rires",
		Armor:        types.ArmorLeather,
	},
	types.KingdomKhelos: {
		Name:         "Khelos",
		Description:  "Nomades marchands du désert",
		Specialties:  []string{"Sabres courbes", "Arcs rapides", "Commerce"},
		Spawn:        "Caravanserail du Serpent de Sable",
		SpawnDetails: "Un refuge pour marchands du désert, aux tapis colorés et aux parfums d'épices",
		Armor:        types.ArmorLeather,
	},
	types.KingdomVarha: {
		Name:         "Varha",
		Description:  "Guerriers des montagnes enneigées",
		Specialties:  []string{"Haches lourdes", "Boucliers renforcés", "Résistance au froid"},
		Spawn:        "Lodge du Loup des Neiges",
		SpawnDetails: "Une auberge de montagne rustique avec un grand feu et des peaux d'ours",
		Armor:        types.ArmorPlate,
	},
	types.KingdomSylvaria: {
		Name:         "Sylvaria",
		Description:  "Druides et archers des forêts magiques",
		Specialties:  []string{"Arcs longs", "Flèches enchantées", "Potions naturelles"},
		Spawn:        "Clairière des Anciens",
		SpawnDetails: "Un refuge naturel protégé par la magie des druides et des esprits de la forêt",
		Armor:        types.ArmorLeather,
	},
	types.KingdomEclypsia: {
		Name:         "Eclypsia",
		Description:  "Mages manipulant lumière et obscurité",
		Specialties:  []string{"Magie de l'ombre", "Orbes ténébreuses", "Portails"},
		Spawn:        "Tour Crépusculaire",
		SpawnDetails: "Une tour mystique où la lumière et l'ombre dansent dans un équilibre précaire",
		Armor:        types.ArmorRobe,
	},
}

// KingdomDetails returns the kingdom's details, Aegyria for an unknown code
func KingdomDetails(code types.Kingdom) KingdomInfo {
	if info, ok := kingdoms[code]; ok {
		return info
	}
	return kingdoms[types.KingdomAegyria]
}

var orderDescriptions = map[types.Order]string{
	types.OrderNeutral:   "Aucune affiliation particulière",
	types.OrderDemon:     "Secte occulte exploitant la magie noire",
	types.OrderForge:     "Ingénieurs mêlant technologie et alchimie",
	types.OrderPurple:    "Assassins experts en meurtre silencieux",
	types.OrderReliquary: "Ordre mystique protégeant les artefacts",
	types.OrderJudgment:  "Ordre chevaleresque de justice divine",
}

// OrderDescription returns the one-line description of an order
func OrderDescription(order types.Order) string {
	if desc, ok := orderDescriptions[order]; ok {
		return desc
	}
	return orderDescriptions[types.OrderNeutral]
}

// WeaponInfo describes a weapon
type WeaponInfo struct {
	Name   string
	Damage int
	Kind   string
}

var weapons = map[types.Weapon]WeaponInfo{
	types.WeaponSword:    {"Épée longue", 15, "Mêlée"},
	types.WeaponBow:      {"Arc en bois", 12, "Distance"},
	types.WeaponStaff:    {"Bâton de mage", 8, "Magique"},
	types.WeaponDagger:   {"Dague empoisonnée", 10, "Mêlée rapide"},
	types.WeaponAxe:      {"Hache de guerre", 18, "Mêlée lourde"},
	types.WeaponCrossbow: {"Arbalète", 16, "Distance"},
}

// ArmorInfo describes an armor
type ArmorInfo struct {
	Name    string
	Defense int
	Weight  string
}

var armors = map[types.Armor]ArmorInfo{
	types.ArmorLeather:   {"Armure de cuir", 5, "Léger"},
	types.ArmorChainmail: {"Cotte de mailles", 10, "Moyen"},
	types.ArmorPlate:     {"Armure de plaques", 18, "Lourd"},
	types.ArmorRobe:      {"Robe de mage", 3, "Très léger"},
}

// WeaponName is the display name of a weapon, bare hands when none
func WeaponName(w types.Weapon) string {
	if info, ok := weapons[w]; ok {
		return info.Name
	}
	return "Mains nues"
}

// ArmorName is the display name of an armor, simple clothes when none
func ArmorName(a types.Armor) string {
	if info, ok := armors[a]; ok {
		return info.Name
	}
	return "Vêtements simples"
}

var appearances = map[types.Gender]map[types.Style]string{
	types.GenderMale: {
		types.StyleWarrior:   "Guerrier musclé aux cicatrices de bataille",
		types.StyleMage:      "Homme sage aux yeux perçants",
		types.StyleRogue:     "Silhouette agile et discrète",
		types.StyleNoble:     "Allure aristocratique et raffinée",
		types.StyleBarbarian: "Colosse sauvage aux tatouages tribaux",
	},
	types.GenderFemale: {
		types.StyleWarrior:   "Guerrière athlétique à l'armure usée",
		types.StyleMage:      "Femme mystérieuse aux gestes gracieux",
		types.StyleRogue:     "Assassin élégante aux mouvements fluides",
		types.StyleNoble:     "Dame de haute naissance au port altier",
		types.StyleBarbarian: "Amazone féroce aux cheveux tressés",
	},
}

// Description renders the appearance and equipment of a character
func Description(cd types.CharacterData) string {
	cd = cd.WithDefaults()

	description, ok := appearances[cd.Gender][cd.Style]
	if !ok {
		description = "Apparence mystérieuse"
	}
	if cd.Weapon != types.WeaponNone {
		description += " armé d'" + strings.ToLower(WeaponName(cd.Weapon))
	}
	if cd.Armor != types.ArmorNone {
		description += " vêtu d'" + strings.ToLower(ArmorName(cd.Armor))
	}
	return description
}

var styleWeapons = map[types.Style]types.Weapon{
	types.StyleWarrior:   types.WeaponSword,
	types.StyleMage:      types.WeaponStaff,
	types.StyleRogue:     types.WeaponDagger,
	types.StyleNoble:     types.WeaponSword,
	types.StyleBarbarian: types.WeaponAxe,
}

// StartingEquipment picks the weapon from the style and the armor from the kingdom
func StartingEquipment(kingdom types.Kingdom, style types.Style) (types.Weapon, types.Armor) {
	weapon, ok := styleWeapons[style]
	if !ok {
		weapon = types.WeaponSword
	}
	return weapon, KingdomDetails(kingdom).Armor
}

// StartingItem is an item handed out on registration
type StartingItem struct {
	Name     string
	Type     string
	Quantity int
}

// StartingItems is the inventory every new character receives
var StartingItems = []StartingItem{
	{Name: "Potion de soin", Type: "consumable", Quantity: 1},
	{Name: "Pain dur", Type: "food", Quantity: 2},
	{Name: "Gourde d'eau", Type: "food", Quantity: 1},
}

// ValidateName trims the name and checks its length in characters
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNameLength || n > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

// CustomizationTypes lists the accepted customization types
var CustomizationTypes = []string{"gender", "style", "weapon", "armor", "kingdom", "order"}

// ApplyCustomization validates a customization and applies it to the player.
// Nothing is changed when it is rejected.
func ApplyCustomization(player *types.Player, kind, value string) error {
	lower := strings.ToLower(strings.TrimSpace(value))

	switch strings.ToLower(kind) {
	case "gender":
		g := types.Gender(lower)
		if g != types.GenderMale && g != types.GenderFemale {
			return fmt.Errorf("%w: gender %q", ErrInvalidCustomization, value)
		}
		player.CharacterData.Gender = g
	case "style":
		s := types.Style(lower)
		if _, ok := styleWeapons[s]; !ok {
			return fmt.Errorf("%w: style %q", ErrInvalidCustomization, value)
		}
		player.CharacterData.Style = s
	case "weapon":
		w := types.Weapon(lower)
		if _, ok := weapons[w]; !ok {
			return fmt.Errorf("%w: weapon %q", ErrInvalidCustomization, value)
		}
		player.CharacterData.Weapon = w
	case "armor":
		a := types.Armor(lower)
		if _, ok := armors[a]; !ok {
			return fmt.Errorf("%w: armor %q", ErrInvalidCustomization, value)
		}
		player.CharacterData.Armor = a
	case "kingdom":
		k := types.Kingdom(strings.ToUpper(strings.TrimSpace(value)))
		if _, ok := kingdoms[k]; !ok {
			return fmt.Errorf("%w: kingdom %q", ErrInvalidCustomization, value)
		}
		player.Kingdom = k
	case "order":
		o, ok := findOrder(value)
		if !ok {
			return fmt.Errorf("%w: order %q", ErrInvalidCustomization, value)
		}
		player.Order = o
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCustomization, kind)
	}
	return nil
}

// findOrder matches an order name case-insensitively
func findOrder(value string) (types.Order, bool) {
	value = strings.TrimSpace(value)
	for _, o := range types.Orders {
		if strings.EqualFold(string(o), value) {
			return o, true
		}
	}
	return "", false
}

// Options lists the valid values of a customization type, for help texts
func Options(kind string) []string {
	var out []string
	switch kind {
	case "gender":
		out = []string{string(types.GenderMale), string(types.GenderFemale)}
	case "style":
		out = []string{"warrior", "mage", "rogue", "noble", "barbarian"}
	case "weapon":
		out = []string{"sword", "bow", "staff", "dagger", "axe", "crossbow"}
	case "armor":
		out = []string{"leather", "chainmail", "plate", "robe"}
	case "kingdom":
		for _, k := range types.Kingdoms {
			out = append(out, string(k))
		}
	case "order":
		for _, o := range types.Orders {
			out = append(out, string(o))
		}
	}
	return out
}
