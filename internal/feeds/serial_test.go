package feeds

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/banshee-data/waypoint.planner/internal/planner"
)

// mockPort replays a fixed buffer and then reports EOF, standing in for
// a serial port in tests.
type mockPort struct {
	buf    []byte
	closed bool
}

func (m *mockPort) Read(p []byte) (int, error) {
	if len(m.buf) == 0 || m.closed {
		return 0, io.EOF
	}
	n := copy(p, m.buf)
	m.buf = m.buf[n:]
	return n, nil
}

func (m *mockPort) Close() error {
	m.closed = true
	return nil
}

func TestParseVelocityLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    float64
		wantErr bool
	}{
		{"well formed", "12345, 0.2, 5.5", 5.5, false},
		{"no spaces", "1,2,3.25", 3.25, false},
		{"extra fields ignored", "1, 2, 4.0, 9", 4.0, false},
		{"too few fields", "1, 2", 0, true},
		{"non-numeric speed", "1, 2, fast", 0, true},
		{"empty line", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVelocityLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseVelocityLine() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVelocityLine() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseVelocityLine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSerialVelocityFeedRun(t *testing.T) {
	state := planner.NewVehicleState()
	port := &mockPort{buf: []byte("100, 0.5, 2.5\nnot a line\n200, 0.4, 6.75\n")}
	feed := NewSerialVelocityFeed(port, state)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// The mock drains synchronously; Run returns once the scanner hits
	// the end of the buffer.
	if err := feed.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := state.Velocity(); got != 6.75 {
		t.Errorf("Velocity() = %v, want last parsed value 6.75", got)
	}
	read, failed := feed.LineCounts()
	if read != 3 {
		t.Errorf("lines read = %d, want 3", read)
	}
	if failed != 1 {
		t.Errorf("lines failed = %d, want 1", failed)
	}
}
