package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/user/friction-ultimate/config"
	"github.com/user/friction-ultimate/internal/game"
	"github.com/user/friction-ultimate/internal/interfaces"
	"github.com/user/friction-ultimate/internal/narration"
	"github.com/user/friction-ultimate/internal/storage"
	"github.com/user/friction-ultimate/internal/whatsapp"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	autoStart := flag.Bool("start", true, "Connect the WhatsApp bot at startup")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		setupLogger("info").Fatal("Failed to load configuration", zap.Error(err))
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	// Durable storage is optional; the hybrid store keeps playing from memory
	var durable storage.Store
	sqlStore, err := storage.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Warn("Running without durable storage", zap.Error(err))
	} else if sqlStore != nil {
		defer sqlStore.Close()
		durable = sqlStore
	}
	store := storage.NewHybridStore(durable, cfg.Database.QueryTimeout(), logger)

	reconcileCtx, stopReconcile := context.WithCancel(ctx)
	defer stopReconcile()
	go reconcileLoop(reconcileCtx, store, cfg.Database.ReconcileInterval(), logger)

	// Narration is optional too
	var narrator interfaces.Narrator
	gemini, err := narration.NewClient(ctx, cfg.Narration, logger)
	if err != nil {
		logger.Warn("Narration disabled", zap.Error(err))
	} else if gemini != nil {
		defer gemini.Close()
		narrator = gemini
	}

	// Initialize game manager
	gameManager := game.NewGameManager(cfg, store, narrator, logger)
	gameManager.StartScenarioSweeper()
	defer gameManager.StopScenarioSweeper()

	// Initialize WhatsApp client manager
	bot := whatsapp.NewBot(gameManager, logger)
	clientManager := whatsapp.NewClientManager(bot, cfg, logger)
	sessionManager := whatsapp.NewSessionManager(cfg.WhatsApp.StoreDir, logger)

	if *autoStart {
		if err := clientManager.Start(ctx); err != nil {
			logger.Error("Failed to start WhatsApp bot", zap.Error(err))
		}
	}

	// Set up HTTP server for the control surface
	server := setupHTTPServer(cfg, clientManager, sessionManager, store, logger)

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(server, clientManager, logger)
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}

// reconcileLoop retries writes the durable store missed while it was down
func reconcileLoop(ctx context.Context, store *storage.HybridStore, interval time.Duration, logger *zap.Logger) {
	if !store.Durable() || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if remaining := store.Reconcile(ctx); remaining > 0 {
				logger.Warn("Players still pending after reconcile", zap.Int("count", remaining))
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func setupHTTPServer(cfg config.Config, clientManager *whatsapp.ClientManager, sessionManager *whatsapp.SessionManager, store *storage.HybridStore, logger *zap.Logger) *http.Server {
	// Create router
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := clientManager.Status()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":          "ok",
			"bot_running":     status.Running,
			"bot_ready":       status.Ready,
			"durable_storage": store.Durable(),
			"pending_writes":  len(store.Pending()),
		})
	})

	router.Post("/start-bot", func(w http.ResponseWriter, r *http.Request) {
		err := clientManager.Start(context.Background())
		switch {
		case errors.Is(err, whatsapp.ErrAlreadyRunning):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case err != nil:
			logger.Error("Failed to start WhatsApp bot", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start bot"})
		default:
			writeJSON(w, http.StatusOK, clientManager.Status())
		}
	})

	router.Post("/stop-bot", func(w http.ResponseWriter, r *http.Request) {
		clientManager.Stop()
		writeJSON(w, http.StatusOK, clientManager.Status())
	})

	router.Get("/bot-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, clientManager.Status())
	})

	// Serve the pending pairing QR code as an image, or its state as JSON
	router.Get("/qr", func(w http.ResponseWriter, r *http.Request) {
		status := clientManager.Status()
		if status.QRImage == "" {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error": "no QR code pending",
				"ready": status.Ready,
			})
			return
		}
		if r.URL.Query().Get("format") == "json" {
			writeJSON(w, http.StatusOK, status)
			return
		}
		http.ServeFile(w, r, status.QRImage)
	})

	router.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := sessionManager.ListSessions(r.Context())
		if err != nil {
			logger.Error("Failed to list sessions", zap.Error(err))
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	router.Delete("/sessions/{session_id}", func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")

		// Disconnect first when the session is in use
		if clientManager.Status().SessionID == sessionID {
			clientManager.Stop()
		}

		if err := sessionManager.DeleteSession(sessionID, cfg.WhatsApp.QRCodeDir); err != nil {
			logger.Error("Failed to delete session",
				zap.String("session_id", sessionID),
				zap.Error(err))
			if errors.Is(err, os.ErrNotExist) {
				http.Error(w, "Session not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete session", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/qrcodes/*", func(w http.ResponseWriter, r *http.Request) {
		dir := filepath.Clean(cfg.WhatsApp.QRCodeDir)
		http.StripPrefix("/qrcodes/", http.FileServer(http.Dir(dir))).ServeHTTP(w, r)
	})

	// Create HTTP server
	return &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}
}

func waitForShutdown(server *http.Server, clientManager *whatsapp.ClientManager, logger *zap.Logger) {
	// Set up channel for shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	// Perform cleanup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	clientManager.Stop()
	logger.Info("Shutting down")
}
