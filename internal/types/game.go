package types

import "time"

// PowerRank is one of the seven ordered strength tiers, G weakest to A strongest
type PowerRank string

const (
	RankG PowerRank = "G"
	RankF PowerRank = "F"
	RankE PowerRank = "E"
	RankD PowerRank = "D"
	RankC PowerRank = "C"
	RankB PowerRank = "B"
	RankA PowerRank = "A"
)

// PowerRanks lists every rank from weakest to strongest
var PowerRanks = []PowerRank{RankG, RankF, RankE, RankD, RankC, RankB, RankA}

// Index returns the position of the rank on the ladder, or -1 if unknown
func (r PowerRank) Index() int {
	for i, rank := range PowerRanks {
		if rank == r {
			return i
		}
	}
	return -1
}

// Kingdom is a player's origin faction
type Kingdom string

const (
	KingdomAegyria    Kingdom = "AEGYRIA"
	KingdomSombrenuit Kingdom = "SOMBRENUIT"
	KingdomKhelos     Kingdom = "KHELOS"
	KingdomVarha      Kingdom = "VARHA"
	KingdomSylvaria   Kingdom = "SYLVARIA"
	KingdomEclypsia   Kingdom = "ECLYPSIA"
)

// Kingdoms lists the six kingdoms in display order
var Kingdoms = []Kingdom{
	KingdomAegyria, KingdomSombrenuit, KingdomKhelos,
	KingdomVarha, KingdomSylvaria, KingdomEclypsia,
}

// Order is a player's allegiance
type Order string

const (
	OrderNeutral   Order = "Neutre"
	OrderDemon     Order = "Ordre du Seigneur Démoniaque"
	OrderForge     Order = "La Forge du Progrès"
	OrderPurple    Order = "La Lame Pourpre"
	OrderReliquary Order = "Le Reliquaire"
	OrderJudgment  Order = "Les Lames du Jugement"
)

// Orders lists every order, the neutral default first
var Orders = []Order{OrderNeutral, OrderDemon, OrderForge, OrderPurple, OrderReliquary, OrderJudgment}

// Gender of the character's appearance
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Style is the appearance archetype
type Style string

const (
	StyleWarrior   Style = "warrior"
	StyleMage      Style = "mage"
	StyleRogue     Style = "rogue"
	StyleNoble     Style = "noble"
	StyleBarbarian Style = "barbarian"
)

// Weapon is the equipped weapon slot. WeaponNone means bare hands.
type Weapon string

const (
	WeaponNone     Weapon = ""
	WeaponSword    Weapon = "sword"
	WeaponBow      Weapon = "bow"
	WeaponStaff    Weapon = "staff"
	WeaponDagger   Weapon = "dagger"
	WeaponAxe      Weapon = "axe"
	WeaponCrossbow Weapon = "crossbow"
)

// Armor is the equipped armor slot. ArmorNone means simple clothes.
type Armor string

const (
	ArmorNone      Armor = ""
	ArmorLeather   Armor = "leather"
	ArmorChainmail Armor = "chainmail"
	ArmorPlate     Armor = "plate"
	ArmorRobe      Armor = "robe"
)

// CharacterData holds appearance and equipment. Every field is optional;
// WithDefaults fills in the values used when a field was never set.
type CharacterData struct {
	Gender Gender `json:"gender,omitempty"`
	Style  Style  `json:"style,omitempty"`
	Weapon Weapon `json:"weapon,omitempty"`
	Armor  Armor  `json:"armor,omitempty"`
}

// WithDefaults returns a copy with unset gender and style defaulted
func (cd CharacterData) WithDefaults() CharacterData {
	if cd.Gender == "" {
		cd.Gender = GenderMale
	}
	if cd.Style == "" {
		cd.Style = StyleWarrior
	}
	return cd
}

// Player represents a registered character
type Player struct {
	ID            int64         `json:"id"`
	PlayerKey     string        `json:"phone_number"`
	CharacterName string        `json:"character_name"`
	Level         int           `json:"level"`
	Health        int           `json:"health"`
	MaxHealth     int           `json:"max_health"`
	Energy        int           `json:"energy"`
	MaxEnergy     int           `json:"max_energy"`
	PowerRank     PowerRank     `json:"power_level"`
	Kingdom       Kingdom       `json:"kingdom"`
	Order         Order         `json:"order_name"`
	Gold          int           `json:"gold"`
	Experience    int           `json:"experience"`
	Location      string        `json:"location"`
	CharacterData CharacterData `json:"character_data"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clone returns an independent copy of the player
func (p *Player) Clone() *Player {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Delta is the unclamped change produced by resolving one action
type Delta struct {
	Health     int `json:"health"`
	Energy     int `json:"energy"`
	Gold       int `json:"gold"`
	Experience int `json:"experience"`
}

// IsZero reports whether the delta changes nothing
func (d Delta) IsZero() bool {
	return d == Delta{}
}

// LevelUp describes a single progression step
type LevelUp struct {
	Level     int       `json:"level"`
	PowerRank PowerRank `json:"power_level"`
}

// Respawn describes the outcome of a defeat
type Respawn struct {
	GoldLost int    `json:"gold_lost"`
	Location string `json:"location"`
}

// ActionResult is everything the transport needs to answer an action
type ActionResult struct {
	Player    *Player      `json:"player"`
	Narration string       `json:"narration"`
	Delta     Delta        `json:"delta"`
	Tags      []string     `json:"tags"`
	Precise   bool         `json:"precise"`
	LevelUp   *LevelUp     `json:"level_up,omitempty"`
	Respawn   *Respawn     `json:"respawn,omitempty"`
	Combat    *CombatRound `json:"combat,omitempty"`
}

// Enemy is the opponent of a combat scenario
type Enemy struct {
	Name        string    `json:"name"`
	Level       int       `json:"level"`
	PowerRank   PowerRank `json:"power_level"`
	Health      int       `json:"health"`
	Description string    `json:"description"`
}

// CombatRound is the damage dealt to the current enemy by one action
type CombatRound struct {
	Enemy       string `json:"enemy"`
	DamageDealt int    `json:"damage_dealt"`
	EnemyHealth int    `json:"enemy_health"`
	Victory     bool   `json:"victory"`
}

// Quest is a generated quest hook
type Quest struct {
	Type        string    `json:"type"`
	Difficulty  PowerRank `json:"difficulty"`
	Description string    `json:"description"`
	RewardXP    int       `json:"reward_xp"`
	RewardGold  int       `json:"reward_gold"`
}

// InventoryItem is a row of the per-player inventory
type InventoryItem struct {
	ID        int64     `json:"id"`
	PlayerID  int64     `json:"player_id"`
	Name      string    `json:"item_name"`
	Type      string    `json:"item_type"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CombatLog records one combat-resolution event
type CombatLog struct {
	ID               int64     `json:"id"`
	PlayerID         int64     `json:"player_id"`
	EnemyName        string    `json:"enemy_name"`
	ActionTaken      string    `json:"action_taken"`
	DamageDealt      int       `json:"damage_dealt"`
	DamageReceived   int       `json:"damage_received"`
	Result           string    `json:"result"`
	ExperienceGained int       `json:"experience_gained"`
	CreatedAt        time.Time `json:"created_at"`
}

// GameSession associates a player with a group chat
type GameSession struct {
	ID          int64     `json:"id"`
	PlayerID    int64     `json:"player_id"`
	GroupChatID string    `json:"group_chat_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Response is what the core hands back to the transport
type Response struct {
	Text string `json:"text"`
}
