package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
	"go.uber.org/zap"
)

// SessionInfo holds information about a WhatsApp session
type SessionInfo struct {
	ID        string    `json:"id"`
	JID       string    `json:"jid,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionManager handles the session stores kept on disk
type SessionManager struct {
	storeDir string
	logger   *zap.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(storeDir string, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		storeDir: storeDir,
		logger:   logger,
	}
}

func sessionPath(storeDir, sessionID string) string {
	return filepath.Join(storeDir, "store_"+sessionID+".db")
}

// ListSessions returns the stored sessions, most recently used first. The JID
// is empty for sessions that never completed pairing.
func (sm *SessionManager) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	matches, err := filepath.Glob(filepath.Join(sm.storeDir, "store_*.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}

	sessions := make([]SessionInfo, 0, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			sm.logger.Warn("Failed to stat session file", zap.String("path", match), zap.Error(err))
			continue
		}

		session := SessionInfo{
			ID:        strings.TrimSuffix(strings.TrimPrefix(filepath.Base(match), "store_"), ".db"),
			UpdatedAt: info.ModTime(),
		}
		if jid, err := sm.deviceJID(ctx, match); err != nil {
			sm.logger.Warn("Failed to read session device", zap.String("path", match), zap.Error(err))
		} else {
			session.JID = jid
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})
	return sessions, nil
}

func (sm *SessionManager) deviceJID(ctx context.Context, path string) (string, error) {
	container, err := sqlstore.New(ctx, "sqlite3", "file:"+path+"?_foreign_keys=on", waLog.Noop)
	if err != nil {
		return "", err
	}
	defer container.Close()

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return "", err
	}
	if device.ID == nil {
		return "", nil
	}
	return device.ID.String(), nil
}

// DeleteSession removes a session store and its QR image
func (sm *SessionManager) DeleteSession(sessionID, qrCodeDir string) error {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}

	if err := os.Remove(sessionPath(sm.storeDir, sessionID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}
		return fmt.Errorf("failed to delete session database: %w", err)
	}

	qrPath := filepath.Join(qrCodeDir, sessionID+".png")
	if err := os.Remove(qrPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete QR code image: %w", err)
	}

	sm.logger.Info("Session deleted", zap.String("session_id", sessionID))
	return nil
}
