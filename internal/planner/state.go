package planner

import (
	"sync"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// NoStopIndex is the sentinel meaning "no active stop request".
const NoStopIndex = -1

// Pose is the vehicle position and orientation at the latest sample.
type Pose struct {
	Position    r3.Vec
	Orientation quat.Number
}

// VehicleState holds the latest values from the asynchronous input
// feeds. Each field is guarded independently: one writer (its feed),
// one reader (the tick loop), and no cross-field atomicity. A tick may
// combine a pose from one sample with a stop index from an earlier one.
type VehicleState struct {
	poseMu  sync.Mutex
	pose    Pose
	poseSet bool

	velocityMu sync.Mutex
	velocity   float64

	stopMu    sync.Mutex
	stopIndex int

	obstacleMu    sync.Mutex
	obstacleIndex int
}

// NewVehicleState returns a VehicleState with no pose received and no
// active stop or obstacle request.
func NewVehicleState() *VehicleState {
	return &VehicleState{
		stopIndex:     NoStopIndex,
		obstacleIndex: NoStopIndex,
	}
}

// SetPose replaces the stored pose wholesale.
func (s *VehicleState) SetPose(p Pose) {
	s.poseMu.Lock()
	defer s.poseMu.Unlock()
	s.pose = p
	s.poseSet = true
}

// Pose returns the latest pose and whether one has ever been received.
// The readiness gate depends on the explicit flag, not on zero values.
func (s *VehicleState) Pose() (Pose, bool) {
	s.poseMu.Lock()
	defer s.poseMu.Unlock()
	return s.pose, s.poseSet
}

// SetVelocity replaces the scalar forward velocity.
func (s *VehicleState) SetVelocity(v float64) {
	s.velocityMu.Lock()
	defer s.velocityMu.Unlock()
	s.velocity = v
}

// Velocity returns the latest scalar forward velocity.
func (s *VehicleState) Velocity() float64 {
	s.velocityMu.Lock()
	defer s.velocityMu.Unlock()
	return s.velocity
}

// SetStopIndex replaces the stop-line waypoint index. NoStopIndex
// clears the request.
func (s *VehicleState) SetStopIndex(i int) {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	s.stopIndex = i
}

// StopIndex returns the latest stop-line waypoint index.
func (s *VehicleState) StopIndex() int {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	return s.stopIndex
}

// SetObstacleIndex replaces the obstacle waypoint index. The planner
// accepts but does not consume it; it is surfaced in status output.
func (s *VehicleState) SetObstacleIndex(i int) {
	s.obstacleMu.Lock()
	defer s.obstacleMu.Unlock()
	s.obstacleIndex = i
}

// ObstacleIndex returns the latest obstacle waypoint index.
func (s *VehicleState) ObstacleIndex() int {
	s.obstacleMu.Lock()
	defer s.obstacleMu.Unlock()
	return s.obstacleIndex
}
