package whatsapp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/user/friction-ultimate/config"
	"github.com/user/friction-ultimate/internal/storage"
	"github.com/user/friction-ultimate/internal/types"
)

// MockSender is a mock implementation of interfaces.MessageSender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendMessage(ctx context.Context, recipient, message string) error {
	args := m.Called(ctx, recipient, message)
	return args.Error(0)
}

func incoming(text string, group bool) *events.Message {
	sender := waTypes.NewJID("5521999999999", waTypes.DefaultUserServer)
	chat := sender
	if group {
		chat = waTypes.NewJID("120363000000", waTypes.GroupServer)
	}
	return &events.Message{
		Info: waTypes.MessageInfo{
			MessageSource: waTypes.MessageSource{
				Chat:    chat,
				Sender:  sender,
				IsGroup: group,
			},
		},
		Message: &waE2E.Message{Conversation: proto.String(text)},
	}
}

func newTestClientManager(gm *MockGameManager) (*ClientManager, *MockSender) {
	cm := NewClientManager(NewBot(gm, nil), config.DefaultConfig(), nil)
	sender := new(MockSender)
	cm.sender = sender
	return cm, sender
}

func TestHandleIncomingMessage(t *testing.T) {
	// Setup
	gm := new(MockGameManager)
	cm, sender := newTestClientManager(gm)

	// Test case 1: direct message gets a reply in the same chat
	sender.On("SendMessage", mock.Anything, "5521999999999@s.whatsapp.net", helpText).Return(nil).Once()
	cm.handleIncomingMessage(incoming("/help", false))

	// Test case 2: group action carries the group id
	player := &types.Player{CharacterName: "Aldric", Health: 100, MaxHealth: 100, Energy: 95, MaxEnergy: 100}
	gm.On("GetPlayer", mock.Anything, "5521999999999").Return(player, nil).Once()
	gm.On("ResolveAction", mock.Anything, "5521999999999", "Je marche", "120363000000@g.us").
		Return(&types.ActionResult{Player: player, Narration: "La route est calme."}, nil).Once()
	sender.On("SendMessage", mock.Anything, "120363000000@g.us", mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "La route est calme.")
	})).Return(nil).Once()
	cm.handleIncomingMessage(incoming("Je marche", true))

	gm.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestHandleIncomingMessageIgnored(t *testing.T) {
	gm := new(MockGameManager)
	cm, sender := newTestClientManager(gm)

	// Test case 1: own messages
	own := incoming("/help", false)
	own.Info.IsFromMe = true
	cm.handleIncomingMessage(own)

	// Test case 2: empty messages
	cm.handleIncomingMessage(incoming("   ", false))

	// Test case 3: extended text is read too
	extended := incoming("", false)
	extended.Message = &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("Bonjour")}}
	gm.On("GetPlayer", mock.Anything, "5521999999999").Return(nil, storage.ErrNotFound).Once()
	sender.On("SendMessage", mock.Anything, "5521999999999@s.whatsapp.net", welcomeText).Return(nil).Once()
	cm.handleIncomingMessage(extended)

	gm.AssertExpectations(t)
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestStoppedClient(t *testing.T) {
	cm := NewClientManager(NewBot(new(MockGameManager), nil), config.DefaultConfig(), nil)

	status := cm.Status()
	assert.False(t, status.Running)
	assert.False(t, status.Ready)
	assert.Empty(t, status.QRCode)

	err := cm.SendMessage(context.Background(), "5521999999999", "Bonjour")
	assert.ErrorIs(t, err, ErrNotRunning)

	// stopping twice is harmless
	cm.Stop()
	cm.Stop()
}

func TestParseJID(t *testing.T) {
	jid, err := parseJID("5521999999999")
	require.NoError(t, err)
	assert.Equal(t, "5521999999999@s.whatsapp.net", jid.String())

	jid, err = parseJID("120363000000@g.us")
	require.NoError(t, err)
	assert.Equal(t, waTypes.GroupServer, jid.Server)
}

func TestWriteQRImage(t *testing.T) {
	dir := t.TempDir()

	path, err := writeQRImage(dir, "session-1", "2@abcdef,ghijkl,mnopqr")
	require.NoError(t, err)
	assert.FileExists(t, path)
}
