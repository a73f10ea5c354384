// Package feeds contains the thin input/output adapters around the
// planner: a UDP telemetry listener for pose, velocity, stop-line and
// obstacle updates, a serial velocity feed, and a UDP forwarder for
// published plan windows.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/waypoint.planner/internal/monitoring"
	"github.com/banshee-data/waypoint.planner/internal/planner"
)

// telemetryMessage is the wire form of one input datagram. Type selects
// which fields are meaningful.
type telemetryMessage struct {
	Type string `json:"type"`

	// pose
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	QX float64 `json:"qx"`
	QY float64 `json:"qy"`
	QZ float64 `json:"qz"`
	QW float64 `json:"qw"`

	// velocity
	Speed float64 `json:"speed"`

	// stopline / obstacle
	Index int `json:"index"`
}

// UDPListener receives telemetry datagrams and writes them into the
// planner's vehicle state. Each message kind has a single writer (this
// listener), matching the per-field guard contract of VehicleState.
type UDPListener struct {
	conn  *net.UDPConn
	state *planner.VehicleState

	packetCount atomic.Uint64
	errorCount  atomic.Uint64
}

// NewUDPListener binds a UDP socket on addr (e.g. ":9900").
func NewUDPListener(addr string, state *planner.VehicleState) (*UDPListener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve telemetry address: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for telemetry: %w", err)
	}
	return &UDPListener{conn: conn, state: state}, nil
}

// LocalAddr returns the bound address, useful when addr was ":0".
func (l *UDPListener) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// PacketCounts returns the number of datagrams received and the number
// that failed to parse.
func (l *UDPListener) PacketCounts() (received, failed uint64) {
	return l.packetCount.Load(), l.errorCount.Load()
}

// Run receives datagrams until ctx is done. Malformed datagrams are
// logged and dropped; the feed keeps running.
func (l *UDPListener) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	monitoring.Logf("feeds: telemetry listener on %s", l.conn.LocalAddr())

	buffer := make([]byte, 65536)
	for {
		n, _, err := l.conn.ReadFromUDP(buffer)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("telemetry read: %w", err)
		}
		l.packetCount.Add(1)
		if err := l.Apply(buffer[:n]); err != nil {
			l.errorCount.Add(1)
			monitoring.Logf("feeds: dropping telemetry datagram: %v", err)
		}
	}
}

// Apply parses one telemetry payload and updates the vehicle state.
func (l *UDPListener) Apply(payload []byte) error {
	var msg telemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	switch msg.Type {
	case "pose":
		l.state.SetPose(planner.Pose{
			Position:    r3.Vec{X: msg.X, Y: msg.Y, Z: msg.Z},
			Orientation: quat.Number{Real: msg.QW, Imag: msg.QX, Jmag: msg.QY, Kmag: msg.QZ},
		})
	case "velocity":
		l.state.SetVelocity(msg.Speed)
	case "stopline":
		l.state.SetStopIndex(msg.Index)
	case "obstacle":
		l.state.SetObstacleIndex(msg.Index)
	default:
		return fmt.Errorf("unknown telemetry type %q", msg.Type)
	}
	return nil
}
