package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/user/friction-ultimate/internal/game"
	"github.com/user/friction-ultimate/internal/interfaces"
	"github.com/user/friction-ultimate/internal/storage"
	"github.com/user/friction-ultimate/internal/types"
)

const (
	welcomeText = "🌟 *FRICTION : ULTIMATE* 🌟\n\n" +
		"Bienvenue dans le monde de Friction Ultimate !\n\n" +
		"Pour commencer votre aventure, utilisez la commande :\n" +
		"*/register [nom_du_personnage]*\n\n" +
		"Exemple: /register Aragorn\n\n" +
		"📜 Autres commandes disponibles :\n" +
		"• /menu - Afficher le menu principal\n" +
		"• /help - Aide et règles du jeu"

	notRegisteredText  = "❌ Vous devez d'abord vous enregistrer avec /register [nom]"
	unknownCommandText = "❌ Commande inconnue. Utilisez /help pour voir les commandes disponibles."
	errorText          = "❌ Une erreur est survenue. Veuillez réessayer."

	helpText = "📖 **AIDE - FRICTION ULTIMATE** 📖\n\n" +
		"🎮 **Commandes principales :**\n" +
		"• /register [nom] - Créer un personnage\n" +
		"• /menu - Menu principal\n" +
		"• /fiche - Fiche personnage\n" +
		"• /create - Personnalisation\n" +
		"• /spawn - Commencer l'aventure\n" +
		"• /stats - Statistiques détaillées\n" +
		"• /inventory - Inventaire\n" +
		"• /combat [bandit|guard|monster] - Provoquer un combat\n" +
		"• /quest - Chercher une quête\n\n" +
		"⚔️ **Système de combat :**\n" +
		"• Décrivez vos actions en détail\n" +
		"• Précisez : mouvement, arme, direction, distance\n" +
		"• Exemple : \"Avance de 2 mètres, épée haute, frappe vers la poitrine\"\n\n" +
		"🌟 **Niveaux de puissance :**\n" +
		"G (Très faible) → F → E → D → C → B → A (Très fort)\n\n" +
		"💡 **Conseils :**\n" +
		"• Soyez précis dans vos actions\n" +
		"• Gérez votre énergie et votre vie\n" +
		"• Explorez prudemment\n" +
		"• Chaque choix a des conséquences\n\n" +
		"🏰 **Le jeu continue à travers tous les groupes WhatsApp !**"
)

// Bot routes chat messages to the game and renders the replies
type Bot struct {
	game   interfaces.GameManager
	logger *zap.Logger
}

// NewBot creates a bot on top of a game manager
func NewBot(gm interfaces.GameManager, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{game: gm, logger: logger}
}

// HandleMessage answers one inbound message. groupChatID is empty for direct
// messages. An empty response means nothing should be sent.
func (b *Bot) HandleMessage(ctx context.Context, sender, text, groupChatID string) types.Response {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.Response{}
	}

	if strings.HasPrefix(text, "/") {
		return types.Response{Text: b.handleCommand(ctx, sender, text)}
	}

	if _, err := b.game.GetPlayer(ctx, sender); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return types.Response{Text: welcomeText}
		}
		b.logger.Error("Failed to load player", zap.String("sender", sender), zap.Error(err))
		return types.Response{Text: errorText}
	}

	result, err := b.game.ResolveAction(ctx, sender, text, groupChatID)
	if err != nil {
		b.logger.Error("Failed to resolve action",
			zap.String("sender", sender),
			zap.Error(err))
		return types.Response{Text: "❌ Erreur lors du traitement de l'action. Réessayez."}
	}
	return types.Response{Text: FormatActionResult(result)}
}

func (b *Bot) handleCommand(ctx context.Context, sender, text string) string {
	fields := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(fields) == 0 {
		return unknownCommandText
	}
	command, args := strings.ToLower(fields[0]), fields[1:]

	switch command {
	case "register":
		return b.handleRegister(ctx, sender, args)
	case "help":
		return helpText
	case "menu", "fiche", "character", "create", "creation", "customize",
		"inventory", "inv", "stats", "spawn", "combat", "quest":
	default:
		return unknownCommandText
	}

	player, err := b.game.GetPlayer(ctx, sender)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notRegisteredText
		}
		b.logger.Error("Failed to load player", zap.String("sender", sender), zap.Error(err))
		return errorText
	}

	switch command {
	case "menu":
		return menuText(player)
	case "fiche", "character":
		return characterSheet(player)
	case "create", "creation":
		return creationText()
	case "customize":
		return b.handleCustomize(ctx, sender, args)
	case "inventory", "inv":
		return b.handleInventory(ctx, player)
	case "stats":
		return statsText(player)
	case "spawn":
		return b.handleSpawn(ctx, sender)
	case "combat":
		return b.handleCombat(ctx, sender, args)
	default:
		return b.handleQuest(ctx, sender)
	}
}

func (b *Bot) handleRegister(ctx context.Context, sender string, args []string) string {
	if len(args) == 0 {
		return "❌ Veuillez spécifier un nom de personnage.\nExemple: /register Aragorn"
	}

	player, err := b.game.RegisterPlayer(ctx, sender, strings.Join(args, " "))
	switch {
	case errors.Is(err, game.ErrInvalidName):
		return "❌ Le nom du personnage doit contenir entre 2 et 20 caractères."
	case errors.Is(err, storage.ErrAlreadyExists):
		name := ""
		if existing, err := b.game.GetPlayer(ctx, sender); err == nil {
			name = existing.CharacterName
		}
		return fmt.Sprintf("🎭 Vous avez déjà un personnage : **%s**\nUtilisez /fiche pour voir vos informations.", name)
	case err != nil:
		b.logger.Error("Failed to register player", zap.String("sender", sender), zap.Error(err))
		return "❌ Erreur lors de la création du personnage. Veuillez réessayer."
	}

	return fmt.Sprintf("✅ **Personnage créé avec succès !**\n\n"+
		"🎭 **Nom :** %s\n"+
		"👑 **Royaume :** %s\n"+
		"⚖️ **Ordre :** %s\n"+
		"💰 **Or :** %d pièces\n"+
		"📍 **Lieu :** %s\n\n"+
		"🎮 **Prochaines étapes :**\n"+
		"• /create - Personnaliser votre apparence\n"+
		"• /menu - Accéder au menu principal\n"+
		"• /spawn - Commencer votre aventure",
		player.CharacterName, game.KingdomDetails(player.Kingdom).Name, player.Order, player.Gold, player.Location)
}

func (b *Bot) handleCustomize(ctx context.Context, sender string, args []string) string {
	if len(args) < 2 {
		return "❌ Usage: /customize [type] [valeur]\nExemple: /customize gender male"
	}
	kind := strings.ToLower(args[0])
	value := strings.Join(args[1:], " ")

	player, err := b.game.Customize(ctx, sender, kind, value)
	if errors.Is(err, game.ErrInvalidCustomization) {
		options := game.Options(kind)
		if len(options) == 0 {
			return "❌ Type de personnalisation invalide. Types: " + strings.Join(game.CustomizationTypes, ", ")
		}
		return fmt.Sprintf("❌ Valeur invalide pour %s. Valeurs disponibles: %s", kind, strings.Join(options, ", "))
	}
	if err != nil {
		b.logger.Error("Failed to customize character", zap.String("sender", sender), zap.Error(err))
		return "❌ Erreur lors de la personnalisation du personnage."
	}

	var msg string
	cd := player.CharacterData.WithDefaults()
	switch kind {
	case "gender":
		msg = "✅ Genre modifié : " + genderLabel(cd.Gender)
	case "style":
		msg = "✅ Style modifié : " + capitalize(string(cd.Style))
	case "weapon":
		msg = "✅ Arme équipée : " + game.WeaponName(cd.Weapon)
	case "armor":
		msg = "✅ Armure équipée : " + game.ArmorName(cd.Armor)
	case "kingdom":
		info := game.KingdomDetails(player.Kingdom)
		msg = fmt.Sprintf("✅ Royaume d'origine : %s\n🗡️ Spécialités : %s", info.Name, strings.Join(info.Specialties, ", "))
	case "order":
		msg = "✅ Ordre : " + string(player.Order)
	}
	return msg + "\n\nUtilisez /fiche pour voir vos modifications !"
}

func (b *Bot) handleInventory(ctx context.Context, player *types.Player) string {
	items, err := b.game.Inventory(ctx, player.PlayerKey)
	if err != nil {
		b.logger.Error("Failed to list inventory", zap.String("sender", player.PlayerKey), zap.Error(err))
		return "❌ Erreur lors de l'affichage de l'inventaire."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎒 **INVENTAIRE** 🎒\n\n👤 **%s**\n💰 **Or :** %d pièces\n\n", player.CharacterName, player.Gold)
	sb.WriteString("⚔️ **Équipement équipé :**\n")
	fmt.Fprintf(&sb, "• Arme : %s\n", game.WeaponName(player.CharacterData.Weapon))
	fmt.Fprintf(&sb, "• Armure : %s\n", game.ArmorName(player.CharacterData.Armor))

	sb.WriteString("\n📦 **Objets :**\n")
	if len(items) == 0 {
		sb.WriteString("• Aucun objet\n")
	}
	for _, item := range items {
		fmt.Fprintf(&sb, "• %s (x%d)\n", item.Name, item.Quantity)
	}
	sb.WriteString("\n🔧 **Actions :**\n• /customize weapon [type] - Changer d'arme")
	return sb.String()
}

func (b *Bot) handleSpawn(ctx context.Context, sender string) string {
	result, err := b.game.Spawn(ctx, sender)
	if err != nil {
		b.logger.Error("Failed to spawn player", zap.String("sender", sender), zap.Error(err))
		return "❌ Erreur lors du spawn. Réessayez dans quelques instants."
	}

	player := result.Player
	return fmt.Sprintf("🌟 **DÉBUT DE L'AVENTURE** 🌟\n\n"+
		"🎭 **%s** se réveille...\n\n"+
		"%s\n\n"+
		"❤️ **Vie :** %s\n"+
		"⚡ **Énergie :** %s\n\n"+
		"🎮 **Décrivez votre action en détail pour continuer l'aventure...**",
		player.CharacterName, result.Narration,
		HealthBar(player.Health, player.MaxHealth), EnergyBar(player.Energy, player.MaxEnergy))
}

func (b *Bot) handleCombat(ctx context.Context, sender string, args []string) string {
	enemyType := "bandit"
	if len(args) > 0 {
		enemyType = strings.ToLower(args[0])
	}

	_, text, err := b.game.StartCombat(ctx, sender, enemyType)
	if err != nil {
		b.logger.Error("Failed to start combat", zap.String("sender", sender), zap.Error(err))
		return errorText
	}
	return "⚔️ **COMBAT** ⚔️\n\n" + text
}

func (b *Bot) handleQuest(ctx context.Context, sender string) string {
	quest, err := b.game.QuestHook(ctx, sender)
	if errors.Is(err, game.ErrNoQuest) {
		return "📜 Aucune quête disponible pour le moment."
	}
	if err != nil {
		b.logger.Error("Failed to generate quest", zap.String("sender", sender), zap.Error(err))
		return errorText
	}
	return fmt.Sprintf("📜 **NOUVELLE QUÊTE** 📜\n\n"+
		"🏷️ **Type :** %s (difficulté %s)\n\n"+
		"%s\n\n"+
		"🎯 **Récompense :** %d XP, %d pièces d'or",
		quest.Type, quest.Difficulty, quest.Description, quest.RewardXP, quest.RewardGold)
}

func menuText(p *types.Player) string {
	return fmt.Sprintf("🌟 **FRICTION : ULTIMATE** 🌟\n\n"+
		"🎭 **%s** - Niveau %d\n"+
		"👑 **Royaume :** %s\n"+
		"⚖️ **Ordre :** %s\n"+
		"❤️ **Vie :** %d/%d\n"+
		"⚡ **Énergie :** %d/%d\n"+
		"💰 **Or :** %d\n\n"+
		"📜 **Menu Principal :**\n"+
		"• /fiche - Fiche personnage\n"+
		"• /create - Personnalisation\n"+
		"• /inventory - Inventaire\n"+
		"• /spawn - Commencer/continuer l'aventure\n"+
		"• /stats - Statistiques détaillées\n"+
		"• /help - Aide et règles",
		p.CharacterName, p.Level, p.Kingdom, p.Order,
		p.Health, p.MaxHealth, p.Energy, p.MaxEnergy, p.Gold)
}

func characterSheet(p *types.Player) string {
	cd := p.CharacterData.WithDefaults()

	status := "Inconscient"
	switch {
	case p.Health > 50:
		status = "En bonne santé"
	case p.Health > 0:
		status = "Blessé"
	}

	return fmt.Sprintf("📋 **FICHE PERSONNAGE** 📋\n\n"+
		"🎭 **Nom :** %s\n"+
		"📱 **Identifiant :** %s\n"+
		"🌟 **Niveau :** %d\n"+
		"⚡ **Niveau de puissance :** %s\n\n"+
		"❤️ **Vie :** %s (%d/%d)\n"+
		"⚡ **Énergie :** %s (%d/%d)\n\n"+
		"👑 **Royaume d'origine :** %s\n"+
		"⚖️ **Ordre :** %s\n"+
		"📍 **Localisation :** %s\n"+
		"💰 **Or :** %d pièces\n"+
		"🎯 **Expérience :** %d XP\n\n"+
		"👤 **Apparence :**\n"+
		"• Genre : %s\n"+
		"• Style : %s\n"+
		"• %s\n\n"+
		"⚔️ **Statut :** %s",
		p.CharacterName, p.PlayerKey, p.Level, p.PowerRank,
		HealthBar(p.Health, p.MaxHealth), p.Health, p.MaxHealth,
		EnergyBar(p.Energy, p.MaxEnergy), p.Energy, p.MaxEnergy,
		p.Kingdom, p.Order, p.Location, p.Gold, p.Experience,
		genderLabel(cd.Gender), capitalize(string(cd.Style)), game.Description(p.CharacterData),
		status)
}

func creationText() string {
	var sb strings.Builder
	sb.WriteString("🎨 **CRÉATION DE PERSONNAGE** 🎨\n\n")
	sb.WriteString("👤 **Personnalisez votre apparence :**\n\n")
	sb.WriteString("🚹 **Genre :**\n• /customize gender male - Masculin\n• /customize gender female - Féminin\n\n")
	sb.WriteString("🎭 **Style d'apparence :**\n")
	for _, style := range game.Options("style") {
		fmt.Fprintf(&sb, "• /customize style %s\n", style)
	}
	sb.WriteString("\n⚔️ **Équipement de départ :**\n")
	for _, weapon := range game.Options("weapon") {
		fmt.Fprintf(&sb, "• /customize weapon %s - %s\n", weapon, game.WeaponName(types.Weapon(weapon)))
	}
	for _, armor := range game.Options("armor") {
		fmt.Fprintf(&sb, "• /customize armor %s - %s\n", armor, game.ArmorName(types.Armor(armor)))
	}
	sb.WriteString("\n👑 **Royaume d'origine :**\n")
	for _, kingdom := range types.Kingdoms {
		fmt.Fprintf(&sb, "• /customize kingdom %s - %s\n", kingdom, game.KingdomDetails(kingdom).Description)
	}
	sb.WriteString("\n⚖️ **Ordre :**\n")
	for _, order := range types.Orders {
		fmt.Fprintf(&sb, "• /customize order %s\n", order)
	}
	sb.WriteString("\n✅ Une fois terminé, utilisez /spawn pour commencer !")
	return sb.String()
}

func statsText(p *types.Player) string {
	needed := game.RequiredExperience(p.Level)
	friction := game.FrictionLevel(p.Location, p.Level)

	return fmt.Sprintf("📊 **STATISTIQUES DÉTAILLÉES** 📊\n\n"+
		"🎭 **%s** (Niveau %d)\n"+
		"⚡ **Niveau de puissance :** %s\n\n"+
		"💗 **Points de Vie :**\n%s\n%d/%d PV\n\n"+
		"⚡ **Énergie :**\n%s\n%d/%d PE\n\n"+
		"🎯 **Progression :**\n"+
		"• Expérience : %d/%d XP\n"+
		"• Prochain niveau : %d XP restants\n\n"+
		"🏰 **Informations :**\n"+
		"• Royaume : %s\n"+
		"• Ordre : %s\n"+
		"• Position : %s\n"+
		"• Friction : %s (%s)\n"+
		"• Richesse : %d pièces d'or\n\n"+
		"⚔️ **Statut de combat :**\n"+
		"• %s\n"+
		"• %s",
		p.CharacterName, p.Level, p.PowerRank,
		HealthBar(p.Health, p.MaxHealth), p.Health, p.MaxHealth,
		EnergyBar(p.Energy, p.MaxEnergy), p.Energy, p.MaxEnergy,
		p.Experience, needed, max(0, needed-p.Experience),
		p.Kingdom, p.Order, p.Location, friction, game.FrictionLabel(friction), p.Gold,
		HealthStatus(p.Health, p.MaxHealth), EnergyStatus(p.Energy, p.MaxEnergy))
}

func genderLabel(g types.Gender) string {
	if g == types.GenderFemale {
		return "Féminin"
	}
	return "Masculin"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
