// Command polarisd runs the collection indexing subsystem as a headless HTTP
// server: it loads configuration, opens the supplemented sqlite-backed
// stores, restores the collection index from its snapshot, starts the scan
// orchestrator, and serves the HTTP surface until interrupted.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/agersant/polaris/internal/config"
	dbpkg "github.com/agersant/polaris/internal/db"
	"github.com/agersant/polaris/internal/ddns"
	"github.com/agersant/polaris/internal/httpapi"
	"github.com/agersant/polaris/internal/indexmanager"
	"github.com/agersant/polaris/internal/lastfm"
	"github.com/agersant/polaris/internal/orchestrator"
	"github.com/agersant/polaris/internal/playliststore"
	"github.com/agersant/polaris/internal/scanner"
	"github.com/agersant/polaris/internal/thumbnail"
	"github.com/agersant/polaris/internal/userstore"
	"github.com/agersant/polaris/internal/vfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger("console")
	if err := run(ctx, logger); err != nil {
		logger.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func newLogger(format string) zerolog.Logger {
	var w = os.Stdout
	if format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}

func run(ctx context.Context, logger zerolog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = newLogger(cfg.Server.LogFormat)

	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if _, err := ensureAuthSecret(cfg.Server.DataDir); err != nil {
		return fmt.Errorf("provision auth secret: %w", err)
	}

	db, err := dbpkg.Open(filepath.Join(cfg.Server.DataDir, "polaris.db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	users, err := userstore.New(db)
	if err != nil {
		return fmt.Errorf("open user store: %w", err)
	}
	if err := users.SyncFromConfig(cfg.Users); err != nil {
		return fmt.Errorf("sync users from config: %w", err)
	}

	playlists, err := playliststore.New(db)
	if err != nil {
		return fmt.Errorf("open playlist store: %w", err)
	}

	mounts := make([]vfs.Mount, len(cfg.MountDirs))
	for i, m := range cfg.MountDirs {
		mounts[i] = vfs.Mount{Name: m.Name, Source: m.Source}
	}
	mountedVFS := vfs.New(mounts)

	manager := indexmanager.New(filepath.Join(cfg.Server.DataDir, "collection.index"), logger)
	manager.TryRestoreIndex()

	sc := scanner.New(logger)
	sc.ArtworkPattern = regexp.MustCompile(`(?i)` + cfg.AlbumArtPattern)
	orch := orchestrator.New(manager, sc, mountedVFS.Mounts(), logger)

	thumbnails, err := thumbnail.New(filepath.Join(cfg.Server.DataDir, "thumbnails"))
	if err != nil {
		return fmt.Errorf("open thumbnail cache: %w", err)
	}

	var lastfmClient *lastfm.Client
	var lastfmReporter *lastfm.Reporter
	if lfCfg := cfg.GetLastfmConfig(); *lfCfg.Enabled {
		lastfmClient = lastfm.New(lfCfg.APIKey, lfCfg.APISecret)
		lastfmReporter = lastfm.NewReporter(lastfmClient, manager)
		logger.Info().Msg("last.fm linking enabled")
	}

	if cfg.GetDDNSEnabled() {
		updater := ddns.New(cfg.DDNSUpdateURL, 5*time.Minute, logger)
		go updater.Run(ctx)
		logger.Info().Str("url", cfg.DDNSUpdateURL).Msg("ddns updates enabled")
	}

	server := httpapi.New(manager, orch, mountedVFS, users, playlists, thumbnails, lastfmClient, lastfmReporter, logger)

	go orch.Start(ctx, time.Duration(cfg.Server.ScanIntervalSeconds)*time.Second)
	orch.TriggerScan()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // artwork/song serving can legitimately take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutCtx)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// ensureAuthSecret provisions the 32-random-byte file spec.md §6 names,
// generating it on first start. No component currently reads this file back:
// the auth scheme httpapi uses (opaque per-session tokens minted and
// checked against userstore, never signed) has no use for a
// server-wide secret. The file is still provisioned so an operator inspecting
// data_dir sees it, and so a future signed-token scheme has a stable secret
// already in place rather than a migration to introduce one.
func ensureAuthSecret(dataDir string) ([]byte, error) {
	path := filepath.Join(dataDir, "auth.secret")
	if existing, err := os.ReadFile(path); err == nil {
		return existing, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate auth secret: %w", err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("write auth secret: %w", err)
	}
	return secret, nil
}
