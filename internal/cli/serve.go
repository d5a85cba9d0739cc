package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/questkeep/questkeep/internal/api"
	"github.com/questkeep/questkeep/internal/app/rewards"
	"github.com/questkeep/questkeep/internal/daemon"
	"github.com/questkeep/questkeep/internal/infra/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to config file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the questkeep API server",
	Long:  `Start the HTTP API server. State is stored in the configured sqlite database.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = daemon.DefaultPath()
	}
	cfg, err := daemon.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := rewards.NewEngine(db)
	server := api.NewServer(db, engine)
	server.SetSessionPolicy(cfg.Session.CookieName, cfg.Session.TTLDuration())
	server.SetCORSOrigin(cfg.API.CORSOrigin)
	if cfg.API.EnableMetrics {
		server.EnableMetrics()
	}

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go purgeSessions(purgeCtx, db)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("questkeep API listening on http://%s", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Printf("received %v, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// purgeSessions sweeps expired sessions hourly. Lookups already drop expired
// rows on sight; the sweep catches sessions that are never presented again.
func purgeSessions(ctx context.Context, db *sqlite.DB) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n, err := db.PurgeExpiredSessions(ctx, now); err != nil {
				log.Printf("purge sessions: %v", err)
			} else if n > 0 {
				log.Printf("purged %d expired sessions", n)
			}
		}
	}
}

// openStore opens the sqlite database, creating its directory first.
func openStore(cfg daemon.Config) (*sqlite.DB, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}
	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}
