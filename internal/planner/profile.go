package planner

import (
	"github.com/banshee-data/waypoint.planner/internal/geom"
	"github.com/banshee-data/waypoint.planner/internal/path"
)

// SpeedFunc computes the target speed for one output waypoint. i is
// the unwrapped loop index in [start, end); index is i modulo the path
// length.
type SpeedFunc func(i, index int) float64

// SpeedProfileGenerator turns the braking decision into an index range
// and a per-waypoint speed rule for the assembler.
type SpeedProfileGenerator struct {
	lookahead      int
	cruiseSpeed    float64
	stopBuffer     float64
	creepThreshold float64
	creepSpeed     float64
}

// NewSpeedProfileGenerator builds a generator with the given tuning.
func NewSpeedProfileGenerator(lookahead int, cruiseSpeed, stopBuffer, creepThreshold, creepSpeed float64) *SpeedProfileGenerator {
	return &SpeedProfileGenerator{
		lookahead:      lookahead,
		cruiseSpeed:    cruiseSpeed,
		stopBuffer:     stopBuffer,
		creepThreshold: creepThreshold,
		creepSpeed:     creepSpeed,
	}
}

// Generate returns the output index range and speed rule for one tick.
//
// Cruising: the window spans the full lookahead horizon at cruise
// speed. Braking: the window shrinks to [nextWp, stopWp) and the speed
// rule creeps, stops, or decays toward the stop line. The decay branch
// uses the integer window offset directly as a decay factor; that
// heuristic is preserved as-is since no physical model stands behind
// it.
func (g *SpeedProfileGenerator) Generate(state BrakingState, velocity float64, nextWp, stopWp int, p *path.Path) (start, end int, fn SpeedFunc) {
	start = nextWp

	if state != Braking {
		end = nextWp + g.lookahead
		cruise := g.cruiseSpeed
		return start, end, func(i, index int) float64 { return cruise }
	}

	end = stopWp
	if end < start {
		// The stop line is already behind the next waypoint; emit an
		// empty window rather than wrapping around the whole path.
		end = start
	}

	stopPos := p.At(stopWp).Position
	return start, end, func(i, index int) float64 {
		offset := i - start
		dist := geom.Distance(p.At(index).Position, stopPos)

		switch {
		case dist > g.stopBuffer && velocity < g.creepThreshold:
			// Stopped short: creep up to the line.
			return g.creepSpeed
		case dist <= g.stopBuffer:
			return 0
		case velocity-float64(offset) > 3.0:
			return velocity - float64(offset)*0.5
		default:
			return 3.0
		}
	}
}
