package planner

import (
	"fmt"

	"github.com/banshee-data/waypoint.planner/internal/path"
)

// AssemblePlan materializes the output window for the range
// [start, end): each entry is an independent copy of the path waypoint
// at the wrapped index, annotated with the speed rule's target speed.
// The result always has exactly end-start entries; end < start is a
// caller error.
func AssemblePlan(p *path.Path, start, end int, fn SpeedFunc) ([]path.Waypoint, error) {
	if end < start {
		return nil, fmt.Errorf("assemble: invalid range [%d, %d)", start, end)
	}

	window := make([]path.Waypoint, 0, end-start)
	for i := start; i < end; i++ {
		index := i % p.Len()
		wp := p.At(index)
		wp.TargetSpeed = fn(i, index)
		window = append(window, wp)
	}
	return window, nil
}
