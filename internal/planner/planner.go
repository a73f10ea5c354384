// Package planner implements the bounded-horizon speed-profile planner:
// given the vehicle pose and velocity, a fixed waypoint path, and a
// live stop-line signal, it publishes a short forward window of
// waypoints annotated with target speeds at a fixed tick rate.
package planner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/waypoint.planner/internal/config"
	"github.com/banshee-data/waypoint.planner/internal/geom"
	"github.com/banshee-data/waypoint.planner/internal/monitoring"
	"github.com/banshee-data/waypoint.planner/internal/path"
	"github.com/banshee-data/waypoint.planner/internal/timeutil"
)

// FrameID identifies the coordinate frame of published windows.
const FrameID = "world"

// windowChanBuffer bounds the publish channel. A slow consumer drops
// windows rather than stalling the tick loop.
const windowChanBuffer = 8

// Config carries the planner tuning values.
type Config struct {
	TickRateHz     float64
	LookaheadWps   int
	CruiseSpeed    float64
	MaxDecel       float64
	StopBuffer     float64
	CreepThreshold float64
	CreepSpeed     float64
}

// ConfigFromTuning resolves a TuningConfig into concrete values.
func ConfigFromTuning(t *config.TuningConfig) Config {
	return Config{
		TickRateHz:     t.GetTickRateHz(),
		LookaheadWps:   t.GetLookaheadWps(),
		CruiseSpeed:    t.GetCruiseSpeed(),
		MaxDecel:       t.GetMaxDecel(),
		StopBuffer:     t.GetStopBuffer(),
		CreepThreshold: t.GetCreepThreshold(),
		CreepSpeed:     t.GetCreepSpeed(),
	}
}

// TickPeriod returns the loop period for the configured tick rate.
func (c Config) TickPeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRateHz)
}

// PlanWindow is one published output: an ordered sequence of annotated
// waypoints. It is rebuilt every tick and has no identity beyond one
// publish cycle.
type PlanWindow struct {
	Seq       uint64
	FrameID   string
	CreatedAt time.Time
	State     BrakingState
	NextIndex int
	StopIndex int
	Waypoints []path.Waypoint
}

// Status is a snapshot of planner health for the API.
type Status struct {
	Ready          bool   `json:"ready"`
	State          string `json:"state"`
	PathLength     int    `json:"path_length"`
	Ticks          uint64 `json:"ticks"`
	SkippedTicks   uint64 `json:"skipped_ticks"`
	DroppedWindows uint64 `json:"dropped_windows"`
	LastSeq        uint64 `json:"last_seq"`
	StopIndex      int    `json:"stop_index"`
	ObstacleIndex  int    `json:"obstacle_index"`
}

// Planner owns the per-tick planning computation. All planning runs
// synchronously inside Tick; the only cross-goroutine surfaces are the
// VehicleState cells, the published channel, and the Latest snapshot.
type Planner struct {
	cfg     Config
	route   *path.Path
	state   *VehicleState
	braking *BrakingStateMachine
	gen     *SpeedProfileGenerator
	clock   timeutil.Clock

	seq            uint64
	ticks          atomic.Uint64
	skippedTicks   atomic.Uint64
	droppedWindows atomic.Uint64

	latestMu  sync.Mutex
	latest    PlanWindow
	hasLatest bool

	out chan PlanWindow
}

// New builds a Planner over an already-loaded path.
func New(route *path.Path, state *VehicleState, cfg Config, clock timeutil.Clock) (*Planner, error) {
	if route == nil || route.Len() == 0 {
		return nil, path.ErrEmptyPath
	}
	return &Planner{
		cfg:     cfg,
		route:   route,
		state:   state,
		braking: NewBrakingStateMachine(cfg.MaxDecel, cfg.StopBuffer),
		gen: NewSpeedProfileGenerator(cfg.LookaheadWps, cfg.CruiseSpeed,
			cfg.StopBuffer, cfg.CreepThreshold, cfg.CreepSpeed),
		clock: clock,
		out:   make(chan PlanWindow, windowChanBuffer),
	}, nil
}

// Windows returns the channel of published plan windows.
func (p *Planner) Windows() <-chan PlanWindow {
	return p.out
}

// State returns the vehicle state store the input feeds write into.
func (p *Planner) State() *VehicleState {
	return p.state
}

// Config returns the effective tuning values.
func (p *Planner) Config() Config {
	return p.cfg
}

// Latest returns the most recently published window, if any.
func (p *Planner) Latest() (PlanWindow, bool) {
	p.latestMu.Lock()
	defer p.latestMu.Unlock()
	return p.latest, p.hasLatest
}

// Status returns a snapshot of planner health.
func (p *Planner) Status() Status {
	st := Status{
		PathLength:     p.route.Len(),
		Ticks:          p.ticks.Load(),
		SkippedTicks:   p.skippedTicks.Load(),
		DroppedWindows: p.droppedWindows.Load(),
		StopIndex:      p.state.StopIndex(),
		ObstacleIndex:  p.state.ObstacleIndex(),
	}
	_, st.Ready = p.state.Pose()
	if w, ok := p.Latest(); ok {
		st.State = w.State.String()
		st.LastSeq = w.Seq
	} else {
		st.State = Cruising.String()
	}
	return st
}

// Run drives the tick loop at the configured rate until ctx is done.
func (p *Planner) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.cfg.TickPeriod())
	defer ticker.Stop()

	monitoring.Logf("planner: loop started (period %s, path length %d)",
		p.cfg.TickPeriod(), p.route.Len())

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("planner: loop stopped")
			return
		case now := <-ticker.C():
			p.Tick(now)
		}
	}
}

// Tick runs one planning cycle. It returns the published window and
// true, or a zero window and false when the tick was skipped because
// the inputs are not ready yet.
func (p *Planner) Tick(now time.Time) (PlanWindow, bool) {
	pose, ok := p.state.Pose()
	if !ok {
		// Not an error: inputs simply have not arrived yet.
		p.skippedTicks.Add(1)
		monitoring.Debugf("planner: tick skipped, no pose received yet")
		return PlanWindow{}, false
	}
	p.ticks.Add(1)

	velocity := p.state.Velocity()
	stopIdx := p.state.StopIndex()

	stopPresent := stopIdx != NoStopIndex
	if stopPresent && !p.route.InRange(stopIdx) {
		// Recoverable anomaly from the stop-line feed: clamp to "no
		// active stop" instead of indexing out of range.
		monitoring.Logf("planner: stop index %d out of range [0, %d), treating as no stop",
			stopIdx, p.route.Len())
		stopPresent = false
		stopIdx = NoStopIndex
	}

	nextWp, err := NextWaypoint(pose, p.route)
	if err != nil {
		// Unreachable given the construction-time path check.
		monitoring.Logf("planner: locate failed: %v", err)
		p.skippedTicks.Add(1)
		return PlanWindow{}, false
	}

	var distToStop float64
	if stopPresent {
		distToStop = geom.Distance(pose.Position, p.route.At(stopIdx).Position)
	}
	state := p.braking.Update(stopPresent, distToStop, velocity)

	start, end, fn := p.gen.Generate(state, velocity, nextWp, stopIdx, p.route)
	waypoints, err := AssemblePlan(p.route, start, end, fn)
	if err != nil {
		monitoring.Logf("planner: assemble failed: %v", err)
		p.skippedTicks.Add(1)
		return PlanWindow{}, false
	}

	p.seq++
	window := PlanWindow{
		Seq:       p.seq,
		FrameID:   FrameID,
		CreatedAt: now,
		State:     state,
		NextIndex: nextWp,
		StopIndex: stopIdx,
		Waypoints: waypoints,
	}

	p.latestMu.Lock()
	p.latest = window
	p.hasLatest = true
	p.latestMu.Unlock()

	select {
	case p.out <- window:
	default:
		p.droppedWindows.Add(1)
	}

	return window, true
}
