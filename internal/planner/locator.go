package planner

import (
	"math"

	"github.com/banshee-data/waypoint.planner/internal/geom"
	"github.com/banshee-data/waypoint.planner/internal/path"
)

// NextWaypoint returns the index of the path waypoint the vehicle
// should head for: the waypoint nearest the pose, advanced by one when
// the nearest waypoint lies behind the vehicle.
//
// The scan is O(L) per call; both L and the tick rate are small and
// bounded, so no spatial index is kept.
func NextWaypoint(pose Pose, p *path.Path) (int, error) {
	if p == nil || p.Len() == 0 {
		return 0, path.ErrEmptyPath
	}

	closest := 0
	closestDist := math.Inf(1)
	for i := 0; i < p.Len(); i++ {
		// Strict minimum: the first occurrence wins on ties.
		if d := geom.Distance(pose.Position, p.At(i).Position); d < closestDist {
			closestDist = d
			closest = i
		}
	}

	// If the bearing to the candidate differs from the vehicle yaw by
	// more than π/4 the candidate is behind the vehicle; advance one.
	// The advanced index is intentionally left unwrapped; wrapping
	// happens when the path is indexed.
	bearing := geom.Bearing(pose.Position, p.At(closest).Position)
	yaw := geom.Yaw(pose.Orientation)
	if math.Abs(yaw-bearing) > math.Pi/4 {
		closest++
	}

	return closest, nil
}
