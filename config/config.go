package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	// WhatsApp configuration
	WhatsApp WhatsAppConfig `json:"whatsapp"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`

	// Narration configuration
	Narration NarrationConfig `json:"narration"`

	// Server configuration
	Server ServerConfig `json:"server"`
}

// WhatsAppConfig holds WhatsApp specific configuration
type WhatsAppConfig struct {
	// Path to store WhatsApp session data
	StoreDir string `json:"store_dir" env:"WHATSAPP_STORE_DIR"`

	// Client device name
	ClientName string `json:"client_name"`

	// Directory where QR login images are written
	QRCodeDir string `json:"qr_code_dir"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (sqlite3 or postgres)
	Driver string `json:"driver" env:"DATABASE_DRIVER"`

	// Database connection string. Empty means memory-only storage.
	DSN string `json:"dsn" env:"DATABASE_URL"`

	// Connection attempts before giving up on the durable store
	MaxRetries int `json:"max_retries" env:"DATABASE_MAX_RETRIES"`

	// Delay between connection attempts in seconds
	RetryDelaySeconds int `json:"retry_delay_seconds"`

	// Timeout applied to each durable call in seconds
	QueryTimeoutSeconds int `json:"query_timeout_seconds"`

	// Interval between retries of writes the durable store missed, in seconds
	ReconcileIntervalSeconds int `json:"reconcile_interval_seconds" env:"DATABASE_RECONCILE_INTERVAL"`
}

// RetryDelay returns the delay between connection attempts
func (c DatabaseConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// QueryTimeout returns the timeout applied to each durable call
func (c DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// ReconcileInterval returns the interval between pending write retries
func (c DatabaseConfig) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Location a new character starts in
	StartingLocation string `json:"starting_location"`

	// Location a defeated character wakes up in
	RespawnLocation string `json:"respawn_location"`

	// Scenario inactivity before it is swept, in minutes
	ScenarioTTLMinutes int `json:"scenario_ttl_minutes"`

	// Time between scenario sweeps in minutes
	SweepIntervalMinutes int `json:"sweep_interval_minutes"`

	// Resolve actions of the same player one at a time
	SerializeActions bool `json:"serialize_actions" env:"GAME_SERIALIZE_ACTIONS"`

	// Seed for the dice roller, 0 seeds from the clock
	DiceSeed int64 `json:"dice_seed" env:"GAME_DICE_SEED"`
}

// ScenarioTTL returns the scenario inactivity limit
func (c GameConfig) ScenarioTTL() time.Duration {
	return time.Duration(c.ScenarioTTLMinutes) * time.Minute
}

// SweepInterval returns the time between scenario sweeps
func (c GameConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// NarrationConfig holds the narration service configuration
type NarrationConfig struct {
	// API key for the Gemini API. Empty disables narration.
	APIKey string `json:"api_key" env:"GEMINI_API_KEY"`

	// Model name
	Model string `json:"model" env:"GEMINI_MODEL"`

	// Timeout of a single narration call in seconds
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout returns the timeout of a single narration call
func (c NarrationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" env:"PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		WhatsApp: WhatsAppConfig{
			StoreDir:   "./whatsapp-store",
			ClientName: "FRICTION ULTIMATE",
			QRCodeDir:  "./assets/qrcodes",
		},
		Database: DatabaseConfig{
			Driver:                   "sqlite3",
			DSN:                      "./friction-ultimate.db",
			MaxRetries:               3,
			RetryDelaySeconds:        2,
			QueryTimeoutSeconds:      5,
			ReconcileIntervalSeconds: 30,
		},
		Game: GameConfig{
			StartingLocation:     "Auberge de départ",
			RespawnLocation:      "Auberge de résurrection",
			ScenarioTTLMinutes:   60,
			SweepIntervalMinutes: 60,
			SerializeActions:     true,
		},
		Narration: NarrationConfig{
			Model:          "gemini-2.5-flash",
			TimeoutSeconds: 20,
		},
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from a file, creating it with defaults when
// missing, then applies environment overrides
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
	} else {
		file, err := os.Open(path)
		if err != nil {
			return config, err
		}
		defer file.Close()

		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return config, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	if err := ApplyEnv(&config); err != nil {
		return config, err
	}
	return config, nil
}

// ApplyEnv overrides configuration values from set environment variables
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(config)
}
