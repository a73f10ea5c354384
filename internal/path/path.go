// Package path holds the fixed route the vehicle follows: an ordered,
// circularly-indexable sequence of waypoints loaded once at startup and
// immutable thereafter.
package path

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyPath is returned when a path with zero waypoints is used or
// loaded. The planner refuses to start against an empty path.
var ErrEmptyPath = errors.New("path: no waypoints")

// Waypoint is one point on the route. Position and Orientation are
// owned by the Path and never mutated after load; TargetSpeed is only
// meaningful on the copies the planner emits.
type Waypoint struct {
	Position    r3.Vec
	Orientation quat.Number
	TargetSpeed float64
}

// Path is an immutable ordered waypoint sequence. Index arithmetic is
// modulo Len(), so the route is treated as a loop.
type Path struct {
	waypoints []Waypoint
}

// New builds a Path from the given waypoints. The slice is copied so
// later mutation by the caller cannot reach the Path.
func New(waypoints []Waypoint) (*Path, error) {
	if len(waypoints) == 0 {
		return nil, ErrEmptyPath
	}
	wps := make([]Waypoint, len(waypoints))
	copy(wps, waypoints)
	return &Path{waypoints: wps}, nil
}

// Len returns the number of waypoints.
func (p *Path) Len() int {
	return len(p.waypoints)
}

// At returns the waypoint at index i modulo Len(). Negative i is
// brought into range as well.
func (p *Path) At(i int) Waypoint {
	n := len(p.waypoints)
	i %= n
	if i < 0 {
		i += n
	}
	return p.waypoints[i]
}

// InRange reports whether i is a direct (unwrapped) index into the path.
func (p *Path) InRange(i int) bool {
	return i >= 0 && i < len(p.waypoints)
}

// waypointJSON is the on-disk representation of a single waypoint.
type waypointJSON struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	QX float64 `json:"qx"`
	QY float64 `json:"qy"`
	QZ float64 `json:"qz"`
	QW float64 `json:"qw"`
}

// Load reads a path from a JSON file containing an array of waypoint
// records. The file must have a .json extension and stay under the max
// file size.
func Load(file string) (*Path, error) {
	cleanPath := filepath.Clean(file)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("path file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 16MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path file: %w", err)
	}
	const maxFileSize = 16 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("path file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read path file: %w", err)
	}

	var records []waypointJSON
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse path JSON: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyPath
	}

	waypoints := make([]Waypoint, len(records))
	for i, r := range records {
		waypoints[i] = Waypoint{
			Position:    r3.Vec{X: r.X, Y: r.Y, Z: r.Z},
			Orientation: quat.Number{Real: r.QW, Imag: r.QX, Jmag: r.QY, Kmag: r.QZ},
		}
	}
	return &Path{waypoints: waypoints}, nil
}
