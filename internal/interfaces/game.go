package interfaces

import (
	"context"

	"github.com/user/friction-ultimate/internal/types"
)

// MessageSender defines the interface for sending messages
type MessageSender interface {
	SendMessage(ctx context.Context, recipient, message string) error
}

// Narrator turns a prompt into prose. Implementations must honor ctx.
type Narrator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GameManager defines the interface for game operations
type GameManager interface {
	RegisterPlayer(ctx context.Context, playerKey, name string) (*types.Player, error)
	GetPlayer(ctx context.Context, playerKey string) (*types.Player, error)
	Customize(ctx context.Context, playerKey, kind, value string) (*types.Player, error)
	Spawn(ctx context.Context, playerKey string) (*types.ActionResult, error)
	ResolveAction(ctx context.Context, playerKey, text, groupChatID string) (*types.ActionResult, error)
	StartCombat(ctx context.Context, playerKey, enemyType string) (*types.Enemy, string, error)
	QuestHook(ctx context.Context, playerKey string) (*types.Quest, error)
	Inventory(ctx context.Context, playerKey string) ([]types.InventoryItem, error)
}
