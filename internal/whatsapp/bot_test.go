package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/user/friction-ultimate/internal/game"
	"github.com/user/friction-ultimate/internal/storage"
	"github.com/user/friction-ultimate/internal/types"
)

// MockGameManager is a mock implementation of interfaces.GameManager
type MockGameManager struct {
	mock.Mock
}

func (m *MockGameManager) RegisterPlayer(ctx context.Context, playerKey, name string) (*types.Player, error) {
	args := m.Called(ctx, playerKey, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Player), args.Error(1)
}

func (m *MockGameManager) GetPlayer(ctx context.Context, playerKey string) (*types.Player, error) {
	args := m.Called(ctx, playerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Player), args.Error(1)
}

func (m *MockGameManager) Customize(ctx context.Context, playerKey, kind, value string) (*types.Player, error) {
	args := m.Called(ctx, playerKey, kind, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Player), args.Error(1)
}

func (m *MockGameManager) Spawn(ctx context.Context, playerKey string) (*types.ActionResult, error) {
	args := m.Called(ctx, playerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ActionResult), args.Error(1)
}

func (m *MockGameManager) ResolveAction(ctx context.Context, playerKey, text, groupChatID string) (*types.ActionResult, error) {
	args := m.Called(ctx, playerKey, text, groupChatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ActionResult), args.Error(1)
}

func (m *MockGameManager) StartCombat(ctx context.Context, playerKey, enemyType string) (*types.Enemy, string, error) {
	args := m.Called(ctx, playerKey, enemyType)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*types.Enemy), args.String(1), args.Error(2)
}

func (m *MockGameManager) QuestHook(ctx context.Context, playerKey string) (*types.Quest, error) {
	args := m.Called(ctx, playerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Quest), args.Error(1)
}

func (m *MockGameManager) Inventory(ctx context.Context, playerKey string) ([]types.InventoryItem, error) {
	args := m.Called(ctx, playerKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.InventoryItem), args.Error(1)
}

const sender = "5521999999999"

func testPlayer() *types.Player {
	return &types.Player{
		PlayerKey:     sender,
		CharacterName: "Aldric",
		Level:         1,
		Health:        100,
		MaxHealth:     100,
		Energy:        100,
		MaxEnergy:     100,
		PowerRank:     types.RankG,
		Kingdom:       types.KingdomAegyria,
		Order:         types.OrderNeutral,
		Gold:          100,
		Location:      "Auberge de départ",
	}
}

func TestUnknownSenderGetsWelcome(t *testing.T) {
	gm := new(MockGameManager)
	bot := NewBot(gm, nil)
	ctx := context.Background()

	gm.On("GetPlayer", ctx, sender).Return(nil, storage.ErrNotFound)

	assert.Equal(t, welcomeText, bot.HandleMessage(ctx, sender, "Bonjour", "").Text)
	assert.Equal(t, notRegisteredText, bot.HandleMessage(ctx, sender, "/fiche", "").Text)
	gm.AssertNotCalled(t, "ResolveAction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnknownCommand(t *testing.T) {
	bot := NewBot(new(MockGameManager), nil)

	assert.Equal(t, unknownCommandText, bot.HandleMessage(context.Background(), sender, "/dance", "").Text)
	assert.Equal(t, unknownCommandText, bot.HandleMessage(context.Background(), sender, "/", "").Text)
	assert.Empty(t, bot.HandleMessage(context.Background(), sender, "  ", "").Text)
}

func TestRegisterCommand(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	bot := NewBot(gm, nil)
	ctx := context.Background()

	// Test case 1: missing name
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/register", "").Text, "Veuillez spécifier un nom")

	// Test case 2: success, multi-word names are joined
	gm.On("RegisterPlayer", ctx, sender, "Jean Pierre").Return(testPlayer(), nil).Once()
	text := bot.HandleMessage(ctx, sender, "/register Jean Pierre", "").Text
	assert.Contains(t, text, "Personnage créé avec succès")
	assert.Contains(t, text, "👑 **Royaume :** Aegyria")
	assert.Contains(t, text, "💰 **Or :** 100 pièces")

	// Test case 3: invalid name
	gm.On("RegisterPlayer", ctx, sender, "X").Return(nil, game.ErrInvalidName).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/register X", "").Text, "entre 2 et 20 caractères")

	// Test case 4: already registered
	gm.On("RegisterPlayer", ctx, sender, "Autre").Return(nil, storage.ErrAlreadyExists).Once()
	gm.On("GetPlayer", ctx, sender).Return(testPlayer(), nil).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/register Autre", "").Text, "Vous avez déjà un personnage : **Aldric**")

	// Test case 5: storage failure
	gm.On("RegisterPlayer", ctx, sender, "Boom").Return(nil, errors.New("disk full")).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/register Boom", "").Text, "Erreur lors de la création")

	gm.AssertExpectations(t)
}

func TestCustomizeCommand(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	bot := NewBot(gm, nil)
	ctx := context.Background()
	gm.On("GetPlayer", ctx, sender).Return(testPlayer(), nil)

	// Test case 1: usage
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/customize gender", "").Text, "Usage: /customize")

	// Test case 2: order names keep their spaces
	customized := testPlayer()
	customized.Order = types.OrderPurple
	gm.On("Customize", ctx, sender, "order", "La Lame Pourpre").Return(customized, nil).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/customize order La Lame Pourpre", "").Text, "✅ Ordre : La Lame Pourpre")

	// Test case 3: weapon shows its display name
	customized = testPlayer()
	customized.CharacterData.Weapon = types.WeaponAxe
	gm.On("Customize", ctx, sender, "weapon", "axe").Return(customized, nil).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/customize WEAPON axe", "").Text, "✅ Arme équipée : Hache de guerre")

	// Test case 4: kingdom shows its specialties
	customized = testPlayer()
	customized.Kingdom = types.KingdomVarha
	gm.On("Customize", ctx, sender, "kingdom", "varha").Return(customized, nil).Once()
	text := bot.HandleMessage(ctx, sender, "/customize kingdom varha", "").Text
	assert.Contains(t, text, "✅ Royaume d'origine : Varha")
	assert.Contains(t, text, "Haches lourdes")

	// Test case 5: invalid value lists the options
	gm.On("Customize", ctx, sender, "style", "bard").
		Return(nil, fmt.Errorf("%w: style %q", game.ErrInvalidCustomization, "bard")).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/customize style bard", "").Text, "warrior, mage, rogue, noble, barbarian")

	// Test case 6: invalid type
	gm.On("Customize", ctx, sender, "hair", "red").
		Return(nil, fmt.Errorf("%w: unknown type %q", game.ErrInvalidCustomization, "hair")).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/customize hair red", "").Text, "Type de personnalisation invalide")

	gm.AssertExpectations(t)
}

func TestPlayerCommands(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	bot := NewBot(gm, nil)
	ctx := context.Background()
	player := testPlayer()
	gm.On("GetPlayer", ctx, sender).Return(player, nil)

	// Test case 1: menu
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/menu", "").Text, "🎭 **Aldric** - Niveau 1")

	// Test case 2: character sheet under both names
	for _, cmd := range []string{"/fiche", "/character"} {
		text := bot.HandleMessage(ctx, sender, cmd, "").Text
		assert.Contains(t, text, "FICHE PERSONNAGE")
		assert.Contains(t, text, "• Genre : Masculin")
		assert.Contains(t, text, "⚔️ **Statut :** En bonne santé")
	}

	// Test case 3: creation menu
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/creation", "").Text, "/customize kingdom ECLYPSIA")

	// Test case 4: stats
	text := bot.HandleMessage(ctx, sender, "/stats", "").Text
	assert.Contains(t, text, "• Expérience : 0/100 XP")
	assert.Contains(t, text, "• Friction : G (Aucune)")
	assert.Contains(t, text, "En parfaite santé 💪")

	// Test case 5: inventory
	gm.On("Inventory", ctx, sender).Return([]types.InventoryItem{
		{Name: "Potion de soin", Quantity: 1},
		{Name: "Pain dur", Quantity: 2},
	}, nil).Once()
	text = bot.HandleMessage(ctx, sender, "/inv", "").Text
	assert.Contains(t, text, "• Arme : Mains nues")
	assert.Contains(t, text, "• Armure : Vêtements simples")
	assert.Contains(t, text, "• Pain dur (x2)")

	// Test case 6: spawn
	gm.On("Spawn", ctx, sender).Return(&types.ActionResult{Player: player, Narration: "Les cloches sonnent."}, nil).Once()
	text = bot.HandleMessage(ctx, sender, "/spawn", "").Text
	assert.Contains(t, text, "DÉBUT DE L'AVENTURE")
	assert.Contains(t, text, "Les cloches sonnent.")

	// Test case 7: combat defaults to a bandit
	gm.On("StartCombat", ctx, sender, "bandit").Return(&types.Enemy{Name: "Bandit des routes"}, "Aldric fait face à: Bandit des routes", nil).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "/combat", "").Text, "Aldric fait face à: Bandit des routes")

	// Test case 8: quest
	gm.On("QuestHook", ctx, sender).Return(&types.Quest{
		Type: "combat", Difficulty: types.RankE, Description: "Des bandits rôdent.", RewardXP: 22, RewardGold: 55,
	}, nil).Once()
	text = bot.HandleMessage(ctx, sender, "/quest", "").Text
	assert.Contains(t, text, "Des bandits rôdent.")
	assert.Contains(t, text, "22 XP, 55 pièces d'or")

	gm.AssertExpectations(t)
}

func TestRPGAction(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	bot := NewBot(gm, nil)
	ctx := context.Background()
	player := testPlayer()
	gm.On("GetPlayer", ctx, sender).Return(player, nil)

	// Test case 1: resolved action
	after := testPlayer()
	after.Energy = 95
	gm.On("ResolveAction", ctx, sender, "Je marche vers la porte", "").Return(&types.ActionResult{
		Player:    after,
		Narration: "La porte grince.",
		Delta:     types.Delta{Energy: -5, Experience: 2},
	}, nil).Once()
	text := bot.HandleMessage(ctx, sender, "Je marche vers la porte", "").Text
	assert.Contains(t, text, "La porte grince.")
	assert.Contains(t, text, "⚡ Énergie : -5 PE")

	// Test case 2: failure
	gm.On("ResolveAction", ctx, sender, "Je saute", "").Return(nil, errors.New("boom")).Once()
	assert.Contains(t, bot.HandleMessage(ctx, sender, "Je saute", "").Text, "Erreur lors du traitement de l'action")

	gm.AssertExpectations(t)
}
