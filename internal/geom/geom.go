// Package geom provides the small amount of 3-D geometry the planner
// needs: Euclidean distance between waypoints, bearing between points in
// the ground plane, and yaw extraction from an orientation quaternion.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Distance returns the 3-D Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// Bearing returns the angle of the ground-plane vector from `from` to
// `to`, measured from the +x axis. Height difference is ignored.
func Bearing(from, to r3.Vec) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}

// Yaw extracts the heading angle about the vertical axis from a unit
// orientation quaternion. Closed form, no full Euler decomposition:
//
//	yaw = atan2(2(qw*qz + qx*qy), 1 - 2(qy^2 + qz^2))
func Yaw(q quat.Number) float64 {
	return math.Atan2(2*(q.Real*q.Kmag+q.Imag*q.Jmag), 1-2*(q.Jmag*q.Jmag+q.Kmag*q.Kmag))
}

// YawQuat returns the unit quaternion representing a rotation of yaw
// radians about the vertical axis. Handy for building test poses.
func YawQuat(yaw float64) quat.Number {
	return quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
}
