package orbiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/talgya/relief/internal/lighting"
)

// Orbit is a circular light path at constant height.
type Orbit struct {
	CX, CY float64 // Centre in cell coordinates
	Radius float64
	Z      float64
	Step   float64 // Radians per move
}

// At returns the light after i moves, starting due east of the centre.
func (o Orbit) At(i int) lighting.Light {
	a := float64(i) * o.Step
	return lighting.Light{
		X:         o.CX + o.Radius*math.Cos(a),
		Y:         o.CY + o.Radius*math.Sin(a),
		Z:         o.Z,
		Intensity: 1,
	}
}

// OrbitFor builds an orbit centred on the map. radiusFrac scales the radius
// against half the shorter side. steps moves complete one revolution. A
// non-positive z is replaced by 1.5 times the highest elevation.
func OrbitFor(st *SceneStatus, radiusFrac, z float64, steps int) (Orbit, error) {
	if st.Width <= 0 || st.Height <= 0 {
		return Orbit{}, fmt.Errorf("orbit: scene is %dx%d", st.Width, st.Height)
	}
	if steps <= 0 {
		return Orbit{}, errors.New("orbit: steps must be positive")
	}
	if z <= 0 {
		z = 1.5 * float64(st.MaxElev)
	}
	half := float64(min(st.Width, st.Height)) / 2
	return Orbit{
		CX:     float64(st.Width) / 2,
		CY:     float64(st.Height) / 2,
		Radius: radiusFrac * half,
		Z:      z,
		Step:   2 * math.Pi / float64(steps),
	}, nil
}

// Runner moves the light one orbit step per interval.
type Runner struct {
	Observer   *Observer
	Actor      *Actor
	Interval   time.Duration
	RadiusFrac float64
	Z          float64 // Non-positive picks a height from the scene
	Steps      int
	Log        *zap.Logger
}

// Run observes the scene once to lay out the orbit, then moves the light
// until ctx is cancelled. It returns the number of completed moves.
func (r *Runner) Run(ctx context.Context) (int, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}

	st, err := r.Observer.Observe(ctx)
	if err != nil {
		return 0, fmt.Errorf("observe: %w", err)
	}
	orbit, err := OrbitFor(st, r.RadiusFrac, r.Z, r.Steps)
	if err != nil {
		return 0, err
	}
	log.Info("orbit planned",
		zap.Int("width", st.Width), zap.Int("height", st.Height),
		zap.Float64("radius", orbit.Radius), zap.Float64("z", orbit.Z),
		zap.Int("steps", r.Steps), zap.Duration("interval", r.Interval),
	)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	moves := 0
	for {
		l := orbit.At(moves)
		res, err := r.Actor.MoveLight(ctx, l)
		if err != nil {
			if ctx.Err() != nil {
				return moves, nil
			}
			log.Error("move failed", zap.Int("step", moves), zap.Error(err))
		} else {
			moves++
			log.Info("light moved",
				zap.Int("step", moves),
				zap.Float64("x", res.Light.X), zap.Float64("y", res.Light.Y),
				zap.Float32("min_intensity", res.Stats.Min),
				zap.Float32("max_intensity", res.Stats.Max),
				zap.Bool("dark", res.Stats.Dark),
			)
		}

		select {
		case <-ctx.Done():
			return moves, nil
		case <-ticker.C:
		}
	}
}

// WaitForAPI polls the status endpoint with exponential backoff until it
// responds or timeout passes.
func WaitForAPI(ctx context.Context, o *Observer, timeout time.Duration, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(timeout)

	for {
		if o.Ready(ctx) {
			log.Info("relief API is ready")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("relief API did not become ready within %s", timeout)
		}
		log.Info("relief API not ready, retrying", zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
