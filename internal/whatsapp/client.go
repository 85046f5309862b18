package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/user/friction-ultimate/config"
	"github.com/user/friction-ultimate/internal/interfaces"
)

var (
	// ErrAlreadyRunning is returned by Start when the bot is already up
	ErrAlreadyRunning = errors.New("bot already running")

	// ErrNotRunning is returned when sending without a client
	ErrNotRunning = errors.New("bot not running")
)

// Status is the state reported by the control surface
type Status struct {
	Running   bool   `json:"running"`
	Ready     bool   `json:"ready"`
	SessionID string `json:"session_id,omitempty"`
	QRCode    string `json:"qr_code,omitempty"`
	QRImage   string `json:"qr_image,omitempty"`
}

// ClientManager owns the bot's WhatsApp connection
type ClientManager struct {
	bot    *Bot
	config config.Config
	logger *zap.Logger

	// replies go through sender, which is the manager itself outside tests
	sender interfaces.MessageSender

	mutex     sync.RWMutex
	client    *whatsmeow.Client
	sessionID string
	qrCode    string
	qrImage   string
}

var _ interfaces.MessageSender = (*ClientManager)(nil)

// NewClientManager creates a client manager answering through the bot
func NewClientManager(bot *Bot, cfg config.Config, logger *zap.Logger) *ClientManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cm := &ClientManager{
		bot:    bot,
		config: cfg,
		logger: logger,
	}
	cm.sender = cm
	return cm
}

// latestSession returns the id of the most recent session store, if any
func (cm *ClientManager) latestSession() (string, bool) {
	sessions, err := NewSessionManager(cm.config.WhatsApp.StoreDir, cm.logger).ListSessions(context.Background())
	if err != nil || len(sessions) == 0 {
		return "", false
	}
	return sessions[0].ID, true
}

// Start connects the bot, restoring the latest session or pairing a new one
// through a QR code
func (cm *ClientManager) Start(ctx context.Context) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.client != nil {
		return ErrAlreadyRunning
	}

	if err := os.MkdirAll(cm.config.WhatsApp.StoreDir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	sessionID, restored := cm.latestSession()
	if !restored {
		sessionID = uuid.New().String()
	}

	dbPath := fmt.Sprintf("file:%s?_foreign_keys=on", sessionPath(cm.config.WhatsApp.StoreDir, sessionID))
	container, err := sqlstore.New(ctx, "sqlite3", dbPath, waLog.Stdout("Database", "WARN", true))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get device: %w", err)
	}

	store.DeviceProps.Os = proto.String(cm.config.WhatsApp.ClientName)

	client := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "WARN", true))
	client.AddEventHandler(cm.handleWhatsAppEvent)

	if client.Store.ID == nil {
		// QR channel must be requested before connecting
		qrChan, err := client.GetQRChannel(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get QR channel: %w", err)
		}
		go cm.watchQRCodes(sessionID, qrChan)
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	cm.client = client
	cm.sessionID = sessionID
	cm.logger.Info("WhatsApp client started",
		zap.String("session_id", sessionID),
		zap.Bool("restored", client.Store.ID != nil))
	return nil
}

// watchQRCodes keeps the latest pairing code and renders it as a PNG
func (cm *ClientManager) watchQRCodes(sessionID string, qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case "code":
			path, err := writeQRImage(cm.config.WhatsApp.QRCodeDir, sessionID, evt.Code)
			if err != nil {
				cm.logger.Error("Failed to write QR code image", zap.Error(err))
			}

			cm.mutex.Lock()
			cm.qrCode = evt.Code
			cm.qrImage = path
			cm.mutex.Unlock()

			cm.logger.Info("QR code generated",
				zap.String("session_id", sessionID),
				zap.String("path", path))
		default:
			cm.mutex.Lock()
			cm.qrCode = ""
			cm.qrImage = ""
			cm.mutex.Unlock()

			cm.logger.Info("QR channel event", zap.String("event", evt.Event))
		}
	}
}

// writeQRImage renders a pairing code into dir and returns the file path
func writeQRImage(dir, sessionID, code string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create QR code directory: %w", err)
	}
	path := filepath.Join(dir, sessionID+".png")
	if err := qrcode.WriteFile(code, qrcode.Medium, 256, path); err != nil {
		return "", fmt.Errorf("failed to generate QR code image: %w", err)
	}
	return path, nil
}

// Stop disconnects the bot. Stopping a stopped bot is a no-op.
func (cm *ClientManager) Stop() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.client == nil {
		return
	}
	cm.client.Disconnect()
	cm.client = nil
	cm.qrCode = ""
	cm.qrImage = ""
	cm.logger.Info("WhatsApp client stopped", zap.String("session_id", cm.sessionID))
}

// Status reports whether the bot runs, is paired, and the pending QR code
func (cm *ClientManager) Status() Status {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	status := Status{
		Running:   cm.client != nil,
		SessionID: cm.sessionID,
		QRCode:    cm.qrCode,
		QRImage:   cm.qrImage,
	}
	if cm.client != nil {
		status.Ready = cm.client.IsConnected() && cm.client.IsLoggedIn()
	}
	return status
}

// SendMessage sends a text message to a user or group
func (cm *ClientManager) SendMessage(ctx context.Context, recipient, message string) error {
	cm.mutex.RLock()
	client := cm.client
	cm.mutex.RUnlock()

	if client == nil {
		return ErrNotRunning
	}

	jid, err := parseJID(recipient)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}

	msg := &waE2E.Message{
		Conversation: proto.String(message),
	}
	if _, err := client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// handleWhatsAppEvent processes incoming WhatsApp events
func (cm *ClientManager) handleWhatsAppEvent(evt any) {
	switch v := evt.(type) {
	case *events.Message:
		cm.handleIncomingMessage(v)
	case *events.Connected:
		cm.logger.Info("WhatsApp client connected")
	case *events.PairSuccess:
		cm.logger.Info("WhatsApp client paired", zap.String("jid", v.ID.String()))
	case *events.Disconnected:
		cm.logger.Info("WhatsApp client disconnected")
	case *events.LoggedOut:
		cm.logger.Warn("WhatsApp client logged out")
	}
}

// handleIncomingMessage runs a message through the bot and sends the reply to
// the chat it came from
func (cm *ClientManager) handleIncomingMessage(message *events.Message) {
	if message.Info.IsFromMe {
		return
	}

	content := message.Message.GetConversation()
	if content == "" {
		content = message.Message.GetExtendedTextMessage().GetText()
	}
	if strings.TrimSpace(content) == "" {
		return
	}

	groupChatID := ""
	if message.Info.IsGroup {
		groupChatID = message.Info.Chat.String()
	}

	cm.logger.Debug("Received message",
		zap.String("sender", message.Info.Sender.User),
		zap.String("chat", message.Info.Chat.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	response := cm.bot.HandleMessage(ctx, message.Info.Sender.User, content, groupChatID)
	if response.Text == "" {
		return
	}

	if err := cm.sender.SendMessage(ctx, message.Info.Chat.String(), response.Text); err != nil {
		cm.logger.Error("Failed to send response",
			zap.String("sender", message.Info.Sender.User),
			zap.Error(err))
	}
}

// parseJID converts a string to a WhatsApp JID, treating bare numbers as users
func parseJID(jidString string) (waTypes.JID, error) {
	if !strings.ContainsRune(jidString, '@') {
		jidString = jidString + "@" + waTypes.DefaultUserServer
	}
	return waTypes.ParseJID(jidString)
}
