package planner

import (
	"testing"
)

func newGenerator() *SpeedProfileGenerator {
	return NewSpeedProfileGenerator(200, 15.0, 5.0, 3.0, 3.0)
}

func TestGenerateCruisingWindow(t *testing.T) {
	p := straightPath(t, 300)
	g := newGenerator()

	start, end, fn := g.Generate(Cruising, 5.0, 40, NoStopIndex, p)
	if start != 40 || end != 240 {
		t.Fatalf("range = [%d, %d), want [40, 240)", start, end)
	}
	for _, i := range []int{40, 100, 239} {
		if got := fn(i, i%p.Len()); got != 15.0 {
			t.Errorf("fn(%d) = %v, want 15.0", i, got)
		}
	}
}

func TestGenerateBrakingWindowShrinksToStop(t *testing.T) {
	p := straightPath(t, 300)
	g := newGenerator()

	start, end, _ := g.Generate(Braking, 5.0, 194, 200, p)
	if start != 194 || end != 200 {
		t.Fatalf("range = [%d, %d), want [194, 200)", start, end)
	}
}

func TestGenerateBrakingSpeeds(t *testing.T) {
	p := straightPath(t, 300)
	g := newGenerator()

	// Vehicle at 5 m/s, 6 waypoints short of the stop line at 200.
	start, _, fn := g.Generate(Braking, 5.0, 194, 200, p)

	tests := []struct {
		offset int
		want   float64
	}{
		// dist 6 > buffer, velocity above creep threshold, decay
		// branch: 5.0 - 0 > 3 so speed = 5.0 - 0*0.5.
		{0, 5.0},
		// dist <= 5m from the stop line: hard zero.
		{1, 0},
		{2, 0},
		{3, 0},
		{4, 0},
		{5, 0},
	}
	for _, tt := range tests {
		i := start + tt.offset
		if got := fn(i, i%p.Len()); got != tt.want {
			t.Errorf("fn(offset %d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestGenerateBrakingCreep(t *testing.T) {
	p := straightPath(t, 300)
	g := newGenerator()

	// Stopped short (2 m/s, under the creep threshold), 20m from the
	// stop line: every waypoint outside the buffer creeps at 3 m/s.
	start, end, fn := g.Generate(Braking, 2.0, 180, 200, p)
	if start != 180 || end != 200 {
		t.Fatalf("range = [%d, %d), want [180, 200)", start, end)
	}
	if got := fn(start, start); got != 3.0 {
		t.Errorf("creep speed = %v, want 3.0", got)
	}
	// Inside the buffer it still stops.
	if got := fn(start+16, start+16); got != 0 {
		t.Errorf("speed 4m from stop = %v, want 0", got)
	}
}

func TestGenerateBrakingDecaySeries(t *testing.T) {
	p := straightPath(t, 300)
	g := newGenerator()

	// 20 m/s, 50 waypoints out: the decay branch applies while
	// velocity - offset > 3, then floors at 3, then zeroes inside the
	// buffer. The offset is an index, not a distance; the formula is
	// kept as-is.
	start, _, fn := g.Generate(Braking, 20.0, 150, 200, p)

	tests := []struct {
		offset int
		want   float64
	}{
		{0, 20.0},
		{1, 19.5},
		{10, 15.0},
		{16, 12.0},
		// 20 - 17 = 3, not > 3: floor branch.
		{17, 3.0},
		{30, 3.0},
		// Within 5m of the stop line.
		{45, 0},
		{49, 0},
	}
	for _, tt := range tests {
		i := start + tt.offset
		if got := fn(i, i%p.Len()); got != tt.want {
			t.Errorf("fn(offset %d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

func TestGenerateBrakingEmptyWhenStopBehind(t *testing.T) {
	p := straightPath(t, 300)
	g := newGenerator()

	start, end, _ := g.Generate(Braking, 5.0, 201, 200, p)
	if start != 201 || end != 201 {
		t.Errorf("range = [%d, %d), want empty [201, 201)", start, end)
	}
}
