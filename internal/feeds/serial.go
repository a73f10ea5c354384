package feeds

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"go.bug.st/serial"

	"github.com/banshee-data/waypoint.planner/internal/monitoring"
	"github.com/banshee-data/waypoint.planner/internal/planner"
)

// SerialVelocityFeed reads forward-speed observations from a serial
// speed sensor. The sensor emits one observation per line as
// "uptime, magnitude, speed" with speed in m/s; only the speed field
// feeds the planner.
type SerialVelocityFeed struct {
	port  io.ReadCloser
	state *planner.VehicleState

	lineCount  atomic.Uint64
	errorCount atomic.Uint64
}

// OpenSerialVelocityFeed opens the named serial port with the sensor's
// default mode and wraps it in a feed.
func OpenSerialVelocityFeed(portName string, state *planner.VehicleState) (*SerialVelocityFeed, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: 1,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return NewSerialVelocityFeed(port, state), nil
}

// NewSerialVelocityFeed wraps an already-open port. Tests inject a mock
// port here.
func NewSerialVelocityFeed(port io.ReadCloser, state *planner.VehicleState) *SerialVelocityFeed {
	return &SerialVelocityFeed{port: port, state: state}
}

// LineCounts returns the number of lines read and the number that
// failed to parse.
func (f *SerialVelocityFeed) LineCounts() (read, failed uint64) {
	return f.lineCount.Load(), f.errorCount.Load()
}

// Run scans lines from the port until ctx is done or the port closes.
// Malformed lines are logged and dropped.
func (f *SerialVelocityFeed) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		f.port.Close()
	}()

	scan := bufio.NewScanner(f.port)
	for scan.Scan() {
		f.lineCount.Add(1)
		speed, err := ParseVelocityLine(scan.Text())
		if err != nil {
			f.errorCount.Add(1)
			monitoring.Logf("feeds: dropping serial line: %v", err)
			continue
		}
		f.state.SetVelocity(speed)
	}
	if err := scan.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serial read: %w", err)
	}
	return nil
}

// ParseVelocityLine extracts the speed field from one sensor line.
func ParseVelocityLine(line string) (float64, error) {
	segments := strings.Split(line, ",")
	if len(segments) < 3 {
		return 0, fmt.Errorf("expected 3 fields, got %d in %q", len(segments), line)
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(segments[2]), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse speed: %w", err)
	}
	return speed, nil
}
