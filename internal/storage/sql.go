package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/user/friction-ultimate/internal/types"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

const playerColumns = `id, phone_number, character_name, level, health, energy, max_health, max_energy,
	power_level, kingdom, order_name, gold, experience, location, character_data, created_at, updated_at`

// SQLStore is the durable backend. It speaks both sqlite3 and postgres; the
// only dialect differences are placeholders and the schema's serial columns.
type SQLStore struct {
	db     *sql.DB
	driver string
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database handle
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// Ping checks that the database answers
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables if they do not exist yet
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.driver) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func schemaFor(driver string) []string {
	playerID, serial := "INTEGER PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == DriverPostgres {
		playerID, serial = "BIGINT PRIMARY KEY", "BIGSERIAL PRIMARY KEY"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS players (
			id ` + playerID + `,
			phone_number TEXT NOT NULL UNIQUE,
			character_name TEXT NOT NULL,
			level INTEGER DEFAULT 1,
			health INTEGER DEFAULT 100,
			energy INTEGER DEFAULT 100,
			max_health INTEGER DEFAULT 100,
			max_energy INTEGER DEFAULT 100,
			power_level TEXT DEFAULT 'G',
			kingdom TEXT DEFAULT 'AEGYRIA',
			order_name TEXT DEFAULT 'Neutre',
			gold INTEGER DEFAULT 100,
			experience INTEGER DEFAULT 0,
			location TEXT DEFAULT 'Auberge de départ',
			character_data TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_sessions (
			id ` + serial + `,
			player_id BIGINT REFERENCES players(id),
			group_chat_id TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (player_id, group_chat_id)
		)`,
		`CREATE TABLE IF NOT EXISTS player_inventory (
			id ` + serial + `,
			player_id BIGINT REFERENCES players(id),
			item_name TEXT NOT NULL,
			item_type TEXT,
			quantity INTEGER DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS combat_logs (
			id ` + serial + `,
			player_id BIGINT REFERENCES players(id),
			enemy_name TEXT,
			action_taken TEXT,
			damage_dealt INTEGER DEFAULT 0,
			damage_received INTEGER DEFAULT 0,
			result TEXT,
			experience_gained INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// rebind turns ? placeholders into $n for postgres
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row rowScanner) (*types.Player, error) {
	var (
		p             types.Player
		powerRank     string
		kingdom       string
		order         string
		characterData sql.NullString
	)
	err := row.Scan(&p.ID, &p.PlayerKey, &p.CharacterName, &p.Level, &p.Health, &p.Energy,
		&p.MaxHealth, &p.MaxEnergy, &powerRank, &kingdom, &order, &p.Gold, &p.Experience,
		&p.Location, &characterData, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.PowerRank = types.PowerRank(powerRank)
	p.Kingdom = types.Kingdom(kingdom)
	p.Order = types.Order(order)
	if characterData.Valid && characterData.String != "" {
		// a corrupt blob reads as an empty character, defaults apply on display
		_ = json.Unmarshal([]byte(characterData.String), &p.CharacterData)
	}
	return &p, nil
}

func playerArgs(p *types.Player) ([]any, error) {
	data, err := json.Marshal(p.CharacterData)
	if err != nil {
		return nil, fmt.Errorf("failed to encode character data: %w", err)
	}
	return []any{
		p.ID, p.PlayerKey, p.CharacterName, p.Level, p.Health, p.Energy,
		p.MaxHealth, p.MaxEnergy, string(p.PowerRank), string(p.Kingdom), string(p.Order),
		p.Gold, p.Experience, p.Location, string(data), p.CreatedAt, p.UpdatedAt,
	}, nil
}

// GetByKey loads one player
func (s *SQLStore) GetByKey(ctx context.Context, playerKey string) (*types.Player, error) {
	query := s.rebind(`SELECT ` + playerColumns + ` FROM players WHERE phone_number = ?`)
	player, err := scanPlayer(s.db.QueryRowContext(ctx, query, playerKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return player, nil
}

// Create inserts a player with the id it was given
func (s *SQLStore) Create(ctx context.Context, player *types.Player) (*types.Player, error) {
	stored := player.Clone()
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}

	args, err := playerArgs(stored)
	if err != nil {
		return nil, err
	}
	query := s.rebind(`INSERT INTO players (` + playerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return nil, fmt.Errorf("failed to insert player: %w", err)
	}
	return stored, nil
}

// isUniqueViolation reports whether an insert hit a unique or primary key
// constraint, for either driver
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// Update writes the full player row, inserting it when the row is missing so
// that a create which never reached the database can be replayed. A row saved
// under the same key with another id is never overwritten: ErrKeyConflict.
func (s *SQLStore) Update(ctx context.Context, player *types.Player) (*types.Player, error) {
	stored := player.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = stored.UpdatedAt
	}

	args, err := playerArgs(stored)
	if err != nil {
		return nil, err
	}
	query := s.rebind(`INSERT INTO players (` + playerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (phone_number) DO UPDATE SET
			character_name = excluded.character_name,
			level = excluded.level,
			health = excluded.health,
			energy = excluded.energy,
			max_health = excluded.max_health,
			max_energy = excluded.max_energy,
			power_level = excluded.power_level,
			kingdom = excluded.kingdom,
			order_name = excluded.order_name,
			gold = excluded.gold,
			experience = excluded.experience,
			location = excluded.location,
			character_data = excluded.character_data,
			updated_at = excluded.updated_at
		WHERE players.id = excluded.id`)
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrKeyConflict
	}
	return stored, nil
}

// Delete removes a player and its records
func (s *SQLStore) Delete(ctx context.Context, playerKey string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	sub := s.rebind(`SELECT id FROM players WHERE phone_number = ?`)
	for _, table := range []string{"player_inventory", "combat_logs", "game_sessions"} {
		query := s.rebind(`DELETE FROM ` + table + ` WHERE player_id IN (` + sub + `)`)
		if _, err := tx.ExecContext(ctx, query, playerKey); err != nil {
			return fmt.Errorf("failed to delete %s: %w", table, err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM players WHERE phone_number = ?`), playerKey); err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return tx.Commit()
}

// ListAll returns every player ordered by id
func (s *SQLStore) ListAll(ctx context.Context) ([]*types.Player, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*types.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

// AddInventoryItem inserts an inventory row
func (s *SQLStore) AddInventoryItem(ctx context.Context, item *types.InventoryItem) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := s.rebind(`INSERT INTO player_inventory (player_id, item_name, item_type, quantity, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, item.PlayerID, item.Name, item.Type, item.Quantity, createdAt); err != nil {
		return fmt.Errorf("failed to add inventory item: %w", err)
	}
	return nil
}

// ListInventory returns the player's items in insertion order
func (s *SQLStore) ListInventory(ctx context.Context, playerID int64) ([]types.InventoryItem, error) {
	query := s.rebind(`SELECT id, player_id, item_name, item_type, quantity, created_at
		FROM player_inventory WHERE player_id = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var items []types.InventoryItem
	for rows.Next() {
		var (
			item     types.InventoryItem
			itemType sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.PlayerID, &item.Name, &itemType, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		item.Type = itemType.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// AppendCombatLog inserts a combat log row
func (s *SQLStore) AppendCombatLog(ctx context.Context, entry *types.CombatLog) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := s.rebind(`INSERT INTO combat_logs
		(player_id, enemy_name, action_taken, damage_dealt, damage_received, result, experience_gained, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query, entry.PlayerID, entry.EnemyName, entry.ActionTaken,
		entry.DamageDealt, entry.DamageReceived, entry.Result, entry.ExperienceGained, createdAt)
	if err != nil {
		return fmt.Errorf("failed to append combat log: %w", err)
	}
	return nil
}

// ListCombatLogs returns the player's combat events in insertion order
func (s *SQLStore) ListCombatLogs(ctx context.Context, playerID int64) ([]types.CombatLog, error) {
	query := s.rebind(`SELECT id, player_id, enemy_name, action_taken, damage_dealt, damage_received,
		result, experience_gained, created_at FROM combat_logs WHERE player_id = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list combat logs: %w", err)
	}
	defer rows.Close()

	var logs []types.CombatLog
	for rows.Next() {
		var entry types.CombatLog
		err := rows.Scan(&entry.ID, &entry.PlayerID, &entry.EnemyName, &entry.ActionTaken,
			&entry.DamageDealt, &entry.DamageReceived, &entry.Result, &entry.ExperienceGained, &entry.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan combat log: %w", err)
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// LinkSession records that the player acted in a group chat
func (s *SQLStore) LinkSession(ctx context.Context, playerID int64, groupChatID string) error {
	now := time.Now()
	query := s.rebind(`INSERT INTO game_sessions (player_id, group_chat_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (player_id, group_chat_id) DO UPDATE SET updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, playerID, groupChatID, now, now); err != nil {
		return fmt.Errorf("failed to link session: %w", err)
	}
	return nil
}

// ListSessions returns the group chats the player is linked to
func (s *SQLStore) ListSessions(ctx context.Context, playerID int64) ([]types.GameSession, error) {
	query := s.rebind(`SELECT id, player_id, group_chat_id, created_at, updated_at
		FROM game_sessions WHERE player_id = ? ORDER BY id`)
	rows, err := s.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.GameSession
	for rows.Next() {
		var session types.GameSession
		if err := rows.Scan(&session.ID, &session.PlayerID, &session.GroupChatID, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
