package planner

import (
	"context"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/waypoint.planner/internal/config"
	"github.com/banshee-data/waypoint.planner/internal/geom"
	"github.com/banshee-data/waypoint.planner/internal/monitoring"
	"github.com/banshee-data/waypoint.planner/internal/timeutil"
)

func testConfig() Config {
	return ConfigFromTuning(config.EmptyTuningConfig())
}

func newTestPlanner(t *testing.T, pathLen int) *Planner {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	p, err := New(straightPath(t, pathLen), NewVehicleState(), testConfig(), timeutil.RealClock{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p
}

func TestNewRejectsNilPath(t *testing.T) {
	if _, err := New(nil, NewVehicleState(), testConfig(), timeutil.RealClock{}); err == nil {
		t.Error("New(nil path) succeeded, want error")
	}
}

func TestTickSkippedUntilPoseArrives(t *testing.T) {
	p := newTestPlanner(t, 300)

	if _, ok := p.Tick(time.Now()); ok {
		t.Fatal("Tick published before a pose was received")
	}
	st := p.Status()
	if st.Ready {
		t.Error("Status().Ready = true before pose")
	}
	if st.SkippedTicks != 1 || st.Ticks != 0 {
		t.Errorf("skipped/ticks = %d/%d, want 1/0", st.SkippedTicks, st.Ticks)
	}

	p.State().SetPose(Pose{Orientation: geom.YawQuat(0)})
	if _, ok := p.Tick(time.Now()); !ok {
		t.Fatal("Tick skipped after pose arrived")
	}
	if st := p.Status(); !st.Ready || st.Ticks != 1 {
		t.Errorf("Status() after pose = %+v", st)
	}
}

// Scenario: 300 waypoints along the x-axis at 1m spacing, vehicle at
// x=0 doing 5 m/s, stop line at index 200. Stopping needs only 8.125m,
// so the stop is not yet relevant: a full 200-waypoint cruise window.
func TestTickCruiseScenario(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Position: r3.Vec{X: 0}, Orientation: geom.YawQuat(0)})
	p.State().SetVelocity(5.0)
	p.State().SetStopIndex(200)

	w, ok := p.Tick(time.Unix(1000, 0))
	if !ok {
		t.Fatal("Tick skipped")
	}
	if w.State != Cruising {
		t.Fatalf("State = %v, want Cruising", w.State)
	}
	if w.NextIndex != 0 {
		t.Errorf("NextIndex = %d, want 0", w.NextIndex)
	}
	if len(w.Waypoints) != 200 {
		t.Fatalf("window length = %d, want 200", len(w.Waypoints))
	}
	for i, wp := range w.Waypoints {
		if wp.TargetSpeed != 15.0 {
			t.Fatalf("Waypoints[%d].TargetSpeed = %v, want 15.0", i, wp.TargetSpeed)
		}
	}
}

// Scenario: same path, vehicle at x=194 doing 5 m/s, stop at 200.
// Distance 6 < 8.125 commits to braking: the window shrinks to the six
// waypoints short of the stop line.
func TestTickBrakingOnsetScenario(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Position: r3.Vec{X: 194}, Orientation: geom.YawQuat(0)})
	p.State().SetVelocity(5.0)
	p.State().SetStopIndex(200)

	w, ok := p.Tick(time.Unix(1000, 0))
	if !ok {
		t.Fatal("Tick skipped")
	}
	if w.State != Braking {
		t.Fatalf("State = %v, want Braking", w.State)
	}
	if len(w.Waypoints) != 6 {
		t.Fatalf("window length = %d, want 6", len(w.Waypoints))
	}
	if got := w.Waypoints[0].TargetSpeed; got != 5.0 {
		t.Errorf("Waypoints[0].TargetSpeed = %v, want 5.0", got)
	}
	if got := w.Waypoints[5].TargetSpeed; got != 0 {
		t.Errorf("Waypoints[5].TargetSpeed = %v, want 0", got)
	}
	for i, wp := range w.Waypoints {
		if wp.TargetSpeed < 0 {
			t.Errorf("Waypoints[%d].TargetSpeed = %v, negative", i, wp.TargetSpeed)
		}
	}
}

// Scenario: after committing to braking the stop signal clears; the
// next tick reverts to a full cruise window from the current nearest
// index.
func TestTickResumeScenario(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Position: r3.Vec{X: 194}, Orientation: geom.YawQuat(0)})
	p.State().SetVelocity(5.0)
	p.State().SetStopIndex(200)

	if w, _ := p.Tick(time.Unix(1000, 0)); w.State != Braking {
		t.Fatalf("setup tick State = %v, want Braking", w.State)
	}

	p.State().SetStopIndex(NoStopIndex)
	w, ok := p.Tick(time.Unix(1001, 0))
	if !ok {
		t.Fatal("Tick skipped")
	}
	if w.State != Cruising {
		t.Fatalf("State = %v, want Cruising after signal cleared", w.State)
	}
	if len(w.Waypoints) != 200 {
		t.Fatalf("window length = %d, want 200", len(w.Waypoints))
	}
	if w.NextIndex != 194 {
		t.Errorf("NextIndex = %d, want 194", w.NextIndex)
	}
}

func TestTickStickyAcrossGeometryChanges(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Position: r3.Vec{X: 194}, Orientation: geom.YawQuat(0)})
	p.State().SetVelocity(5.0)
	p.State().SetStopIndex(200)

	if w, _ := p.Tick(time.Unix(1000, 0)); w.State != Braking {
		t.Fatalf("setup tick State = %v, want Braking", w.State)
	}

	// Teleport far from the stop line; the commitment must hold while
	// the signal stays present.
	p.State().SetPose(Pose{Position: r3.Vec{X: 10}, Orientation: geom.YawQuat(0)})
	w, _ := p.Tick(time.Unix(1001, 0))
	if w.State != Braking {
		t.Errorf("State = %v, want Braking (sticky)", w.State)
	}
}

func TestTickClampsOutOfRangeStopIndex(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Position: r3.Vec{X: 0}, Orientation: geom.YawQuat(0)})
	p.State().SetVelocity(5.0)

	for _, idx := range []int{300, 100000, -7} {
		p.State().SetStopIndex(idx)
		w, ok := p.Tick(time.Now())
		if !ok {
			t.Fatalf("Tick skipped for stop index %d", idx)
		}
		if w.State != Cruising {
			t.Errorf("stop index %d: State = %v, want Cruising", idx, w.State)
		}
		if w.StopIndex != NoStopIndex {
			t.Errorf("stop index %d: window StopIndex = %d, want clamped", idx, w.StopIndex)
		}
		if len(w.Waypoints) != 200 {
			t.Errorf("stop index %d: window length = %d, want 200", idx, len(w.Waypoints))
		}
	}
}

func TestTickPublishesToChannelAndLatest(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Orientation: geom.YawQuat(0)})

	w, ok := p.Tick(time.Unix(2000, 0))
	if !ok {
		t.Fatal("Tick skipped")
	}
	if w.Seq != 1 || w.FrameID != FrameID {
		t.Errorf("Seq/FrameID = %d/%q", w.Seq, w.FrameID)
	}

	select {
	case got := <-p.Windows():
		if got.Seq != w.Seq {
			t.Errorf("channel Seq = %d, want %d", got.Seq, w.Seq)
		}
	default:
		t.Fatal("no window on channel")
	}

	latest, ok := p.Latest()
	if !ok || latest.Seq != w.Seq {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestTickDropsWindowsWhenConsumerStalls(t *testing.T) {
	p := newTestPlanner(t, 300)
	p.State().SetPose(Pose{Orientation: geom.YawQuat(0)})

	// Fill the buffer and then some; the loop must never block.
	for i := 0; i < windowChanBuffer+3; i++ {
		if _, ok := p.Tick(time.Now()); !ok {
			t.Fatal("Tick skipped")
		}
	}
	if st := p.Status(); st.DroppedWindows != 3 {
		t.Errorf("DroppedWindows = %d, want 3", st.DroppedWindows)
	}
}

func TestRunTicksOnClock(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	clock := timeutil.NewMockClock(time.Unix(5000, 0))
	p, err := New(straightPath(t, 300), NewVehicleState(), testConfig(), clock)
	if err != nil {
		t.Fatal(err)
	}
	p.State().SetPose(Pose{Orientation: geom.YawQuat(0)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	// 10 Hz default: one tick per 100ms advance.
	deadline := time.After(2 * time.Second)
	clock.Advance(100 * time.Millisecond)
	select {
	case w := <-p.Windows():
		if w.Seq != 1 {
			t.Errorf("first published Seq = %d, want 1", w.Seq)
		}
	case <-deadline:
		t.Fatal("no window published after clock advance")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancel")
	}
}
