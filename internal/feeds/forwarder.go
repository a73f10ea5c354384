package feeds

import (
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/banshee-data/waypoint.planner/internal/planner"
)

// WindowWaypoint is the wire form of one annotated waypoint.
type WindowWaypoint struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	QX          float64 `json:"qx"`
	QY          float64 `json:"qy"`
	QZ          float64 `json:"qz"`
	QW          float64 `json:"qw"`
	TargetSpeed float64 `json:"target_speed"`
}

// WindowRecord is the wire form of one published plan window.
type WindowRecord struct {
	Seq       uint64           `json:"seq"`
	FrameID   string           `json:"frame_id"`
	CreatedAt time.Time        `json:"created_at"`
	State     string           `json:"state"`
	NextIndex int              `json:"next_index"`
	StopIndex int              `json:"stop_index"`
	Waypoints []WindowWaypoint `json:"waypoints"`
}

// NewWindowRecord converts a planner window to its wire form.
func NewWindowRecord(w planner.PlanWindow) WindowRecord {
	rec := WindowRecord{
		Seq:       w.Seq,
		FrameID:   w.FrameID,
		CreatedAt: w.CreatedAt,
		State:     w.State.String(),
		NextIndex: w.NextIndex,
		StopIndex: w.StopIndex,
		Waypoints: make([]WindowWaypoint, len(w.Waypoints)),
	}
	for i, wp := range w.Waypoints {
		rec.Waypoints[i] = WindowWaypoint{
			X:           wp.Position.X,
			Y:           wp.Position.Y,
			Z:           wp.Position.Z,
			QX:          wp.Orientation.Imag,
			QY:          wp.Orientation.Jmag,
			QZ:          wp.Orientation.Kmag,
			QW:          wp.Orientation.Real,
			TargetSpeed: wp.TargetSpeed,
		}
	}
	return rec
}

// PlanForwarder emits each published plan window as one JSON UDP
// datagram to the downstream trajectory consumer.
type PlanForwarder struct {
	conn *net.UDPConn

	sentCount   atomic.Uint64
	failedCount atomic.Uint64
}

// NewPlanForwarder dials the downstream consumer address.
func NewPlanForwarder(addr string) (*PlanForwarder, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve forward address: %w", err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create forward connection: %w", err)
	}
	return &PlanForwarder{conn: conn}, nil
}

// Counts returns the number of windows sent and the number that failed.
func (f *PlanForwarder) Counts() (sent, failed uint64) {
	return f.sentCount.Load(), f.failedCount.Load()
}

// Forward sends one window downstream as a single datagram.
func (f *PlanForwarder) Forward(w planner.PlanWindow) error {
	data, err := json.Marshal(NewWindowRecord(w))
	if err != nil {
		f.failedCount.Add(1)
		return fmt.Errorf("failed to encode window: %w", err)
	}
	if _, err := f.conn.Write(data); err != nil {
		f.failedCount.Add(1)
		return fmt.Errorf("failed to send window: %w", err)
	}
	f.sentCount.Add(1)
	return nil
}

// Close releases the downstream socket.
func (f *PlanForwarder) Close() error {
	return f.conn.Close()
}
