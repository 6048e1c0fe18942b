// Command reliefd generates a lit terrain scene and serves it over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/talgya/relief/internal/api"
	"github.com/talgya/relief/internal/config"
	"github.com/talgya/relief/internal/engine"
	"github.com/talgya/relief/internal/entropy"
	"github.com/talgya/relief/internal/logger"
	"github.com/talgya/relief/internal/persistence"
	"github.com/talgya/relief/internal/render"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithOptions(logger.Options{
		Level:   cfg.Logging.Level,
		File:    logFile(cfg.Logging.LogFile),
		Console: os.Stdout,
		JSON:    cfg.Logging.JSON,
	})
	defer logger.Sync()
	log := logger.Log

	// ── Scene store ──────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Store.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			logger.Fatal("create store directory", zap.Error(err))
		}
		db, err = persistence.Open(cfg.Store.Path, logger.Named("store"))
		if err != nil {
			logger.Fatal("failed to open scene store", zap.String("path", cfg.Store.Path), zap.Error(err))
		}
		defer db.Close()
		log.Info("scene store opened", zap.String("path", cfg.Store.Path))
		listRecent(db, cfg.Store.ListOnLaunch, log)
	}

	// ── Scene ────────────────────────────────────────────────────────
	scene, err := buildScene(cfg, db, log)
	if err != nil {
		logger.Fatal("failed to build scene", zap.Error(err))
	}
	status := scene.Status()
	for band, n := range status.Bands {
		log.Debug("band", zap.String("band", band), zap.Int("cells", n))
	}
	log.Info("scene ready",
		zap.Int64("seed", status.Seed),
		zap.Float32("min_elevation", status.MinElev),
		zap.Float32("max_elevation", status.MaxElev),
		zap.Float32("min_intensity", status.Lighting.Min),
		zap.Float32("max_intensity", status.Lighting.Max),
		zap.String("memory", status.Memory),
	)

	if cfg.Output.PreviewPNG != "" {
		if err := writePreview(scene, cfg.Output.PreviewPNG); err != nil {
			log.Error("preview export failed", zap.Error(err))
		} else {
			log.Info("preview written", zap.String("path", cfg.Output.PreviewPNG))
		}
	}

	if db != nil && cfg.Store.SaveOnStart {
		saveScene(db, scene, "startup", log)
	}

	if !cfg.Server.Enabled {
		log.Info("API disabled, exiting")
		return
	}

	// ── HTTP API ─────────────────────────────────────────────────────
	adminKey := os.Getenv("RELIEF_ADMIN_KEY")
	if adminKey == "" {
		adminKey = cfg.Server.AdminKey
	}
	if adminKey == "" {
		log.Warn("RELIEF_ADMIN_KEY not set, admin endpoints will be disabled")
	}

	apiServer := &api.Server{
		Scene:          scene,
		DB:             db,
		Port:           cfg.Server.Port,
		AdminKey:       adminKey,
		Log:            logger.Named("api"),
		PreviewLimit:   cfg.Server.PreviewLimit,
		PreviewWindow:  cfg.Server.PreviewWindow,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	apiServer.Start()
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received signal, shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Warn("HTTP shutdown", zap.Error(err))
	}

	if db != nil && cfg.Store.SaveOnExit {
		saveScene(db, scene, "shutdown", log)
	}
	fmt.Println("relief stopped.")
}

func logFile(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

// buildScene restores a stored scene when asked to, otherwise generates one.
// Asking to restore without a store is an error.
func buildScene(cfg *config.Config, db *persistence.DB, log *zap.Logger) (*engine.Scene, error) {
	if id := cfg.Store.Restore; id != "" {
		if db == nil {
			return nil, fmt.Errorf("store.restore %q set but no scene store is open", id)
		}
		if id == "last" {
			last, err := db.GetMeta("last_scene")
			if err != nil {
				return nil, fmt.Errorf("no last scene to restore: %w", err)
			}
			id = last
		}
		snap, err := db.LoadScene(id)
		if err != nil {
			return nil, err
		}
		return engine.RestoreScene(snap, logger.Named("engine"))
	}

	gen, err := cfg.GenConfig()
	if err != nil {
		return nil, err
	}
	gen.Seed, err = entropy.ResolveSeed(gen.Seed)
	if err != nil {
		return nil, err
	}
	if gen.Seed != cfg.World.Seed {
		log.Info("random seed drawn, pass -seed to reproduce", zap.Int64("seed", gen.Seed))
	}
	anchor, err := cfg.Anchor()
	if err != nil {
		return nil, err
	}
	return engine.NewScene(gen, cfg.Light(), anchor, logger.Named("engine"))
}

func writePreview(scene *engine.Scene, path string) error {
	snap := scene.Snapshot()
	img, err := render.Shaded(snap.Terrain.Map, snap.Lightmap)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveScene(db *persistence.DB, scene *engine.Scene, label string, log *zap.Logger) {
	snap := scene.Snapshot()
	snap.Label = label
	id, err := db.SaveScene(snap)
	if err != nil {
		log.Error("scene save failed", zap.Error(err))
		return
	}
	if err := db.SaveMeta("last_scene", id); err != nil {
		log.Warn("record last scene", zap.Error(err))
	}
	log.Info("scene saved", zap.String("id", id), zap.String("label", label))
}

func listRecent(db *persistence.DB, n int, log *zap.Logger) {
	if n <= 0 {
		return
	}
	rows, err := db.ListScenes(n)
	if err != nil {
		log.Warn("list scenes", zap.Error(err))
		return
	}
	for _, r := range rows {
		log.Info("stored scene",
			zap.String("id", r.ID),
			zap.String("label", r.Label),
			zap.String("age", humanize.Time(r.CreatedAt)),
			zap.String("size", fmt.Sprintf("%dx%d", r.Width, r.Height)),
			zap.Int64("seed", r.Seed),
		)
	}
}
