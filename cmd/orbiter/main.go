// Command orbiter walks the light of a running relief server around the map.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/talgya/relief/internal/logger"
	"github.com/talgya/relief/internal/orbiter"
)

func main() {
	logger.Init(envOrDefault("ORBITER_LOG_LEVEL", "info"), os.Getenv("ORBITER_LOG_FILE"))
	defer logger.Sync()
	log := logger.Named("orbiter")

	// Configuration from environment.
	apiURL := envOrDefault("RELIEF_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("RELIEF_ADMIN_KEY")
	interval := time.Duration(envIntOrDefault("ORBITER_INTERVAL_MS", 1000)) * time.Millisecond
	steps := envIntOrDefault("ORBITER_STEPS", 72)
	z := envFloatOrDefault("ORBITER_Z", 0)
	radius := envFloatOrDefault("ORBITER_RADIUS", 0.8)

	if adminKey == "" {
		log.Error("RELIEF_ADMIN_KEY is required")
		os.Exit(1)
	}

	log.Info("orbiter starting",
		zap.String("api_url", apiURL),
		zap.Duration("interval", interval),
		zap.Int("steps", steps),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := orbiter.NewObserver(apiURL)
	actor := orbiter.NewActor(apiURL, adminKey)

	// Wait for reliefd before the first move.
	log.Info("waiting for relief API...")
	if err := orbiter.WaitForAPI(ctx, observer, 5*time.Minute, log); err != nil {
		log.Error("relief API unavailable", zap.Error(err))
		os.Exit(1)
	}

	runner := &orbiter.Runner{
		Observer:   observer,
		Actor:      actor,
		Interval:   interval,
		RadiusFrac: radius,
		Z:          z,
		Steps:      steps,
		Log:        log,
	}
	moves, err := runner.Run(ctx)
	if err != nil {
		log.Error("orbit failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("received signal, shutting down", zap.Int("moves", moves))
	fmt.Println("Orbiter stopped.")
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
