package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cutroom/cutroom-agent/internal/api"
	"github.com/cutroom/cutroom-agent/internal/config"
	"github.com/cutroom/cutroom-agent/internal/db"
	"github.com/cutroom/cutroom-agent/internal/export"
	"github.com/cutroom/cutroom-agent/internal/library"
	"github.com/cutroom/cutroom-agent/internal/logging"
	"github.com/cutroom/cutroom-agent/internal/media"
	"github.com/cutroom/cutroom-agent/internal/project"
	"github.com/cutroom/cutroom-agent/internal/render"
	"github.com/cutroom/cutroom-agent/internal/session"
	"github.com/cutroom/cutroom-agent/internal/ui"
	"github.com/cutroom/cutroom-agent/internal/ws"
)

func main() {
	root := &cobra.Command{
		Use:   "cutroom-agent",
		Short: "Local agent for the Cutroom video editor",
		Long:  "Cutroom Agent hosts editing sessions, stores media and projects,\nand drives exports for the browser-based Cutroom editor.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cutroom-agent %s (commit %s, built %s)\n",
				config.Version, config.GitCommit, config.BuildTime)
		},
	})

	if err := root.Execute(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.AssetsDir(), 0755); err != nil {
		return fmt.Errorf("failed to create assets dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cutroom agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	authToken, err := ensureAuthToken(database)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	printBanner(cfg.Port(), authToken)

	assets := library.NewService(library.NewRepository(database.Conn()), cfg.AssetsDir(), logger)
	projects := project.NewRepository(database.Conn())
	exports := export.NewJobRepository(database.Conn())

	if _, err := projects.EnsureDefault(); err != nil {
		return fmt.Errorf("failed to ensure default project: %w", err)
	}

	var manager *session.Manager
	hub := ws.NewHub(func(room string, msg ws.Message) {
		manager.HandleClientMessage(room, msg.Type, msg.Payload)
	}, logger)
	manager = session.NewManager(projects, hub, logger)

	var renderer export.Renderer
	if cfg.RenderURL() != "" && cfg.RenderToken() != "" {
		renderer = render.NewHTTPClient(cfg.RenderURL(), cfg.RenderToken(), logger)
		logger.Info("render service configured",
			"url", cfg.RenderURL(), "token", logging.SanitizeToken(cfg.RenderToken()))
	} else {
		renderer = render.NewStub(filepath.Join(cfg.DataDir(), "exports"), logger)
		logger.Info("no render service configured, using local stub")
	}

	runner := export.NewRunner(exports, projects, renderer,
		&exportNotifier{hub: hub, sessions: manager}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	apiServer := api.NewServer(api.Deps{
		Config:   cfg,
		Logger:   logger,
		Token:    authToken,
		Assets:   assets,
		Media:    media.NewHandler(assets, logger),
		Projects: projects,
		Sessions: manager,
		Exports:  exports,
		Runner:   runner,
		Hub:      hub,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Sessions: manager,
			Runner:   runner,
			Logger:   logger,
			OnOpenEditor: func() error {
				logger.Info("editor url", "url", fmt.Sprintf("http://127.0.0.1:%d", cfg.Port()))
				return nil
			},
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	// Persist any sessions the browser never closed cleanly.
	for _, id := range manager.List() {
		if err := manager.Close(id); err != nil {
			logger.Error("failed to close session on shutdown", "session_id", id, "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func printBanner(port int, authToken string) {
	heading := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)

	fmt.Println()
	heading.Printf("  Cutroom Agent %s\n", config.Version)
	label.Printf("  API URL:    http://127.0.0.1:%d\n", port)
	label.Printf("  Auth Token: %s\n", authToken)
	fmt.Println()
}

// exportNotifier relays export job progress to every session editing
// the job's project so connected editors can show it.
type exportNotifier struct {
	hub      *ws.Hub
	sessions *session.Manager
}

func (n *exportNotifier) ExportProgress(job *export.Job) {
	for _, id := range n.sessions.SessionsForProject(job.ProjectID) {
		n.hub.Broadcast(id, "export_progress", job)
	}
}

func ensureAuthToken(database *db.DB) (string, error) {
	existing, err := database.GetConfig("auth_token")
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := database.SetConfig("auth_token", token); err != nil {
		return "", err
	}
	return token, nil
}
