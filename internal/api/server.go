// Package api exposes the planner over HTTP: latest window, status,
// effective config, recorded runs, and a debug profile chart.
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/waypoint.planner/internal/httputil"
	"github.com/banshee-data/waypoint.planner/internal/planner"
	"github.com/banshee-data/waypoint.planner/internal/planstore"
	"github.com/banshee-data/waypoint.planner/internal/units"
	"github.com/banshee-data/waypoint.planner/internal/version"
)

// Server wires HTTP handlers to the planner and the optional plan
// store.
type Server struct {
	planner *planner.Planner
	store   *planstore.Store
}

// NewServer builds a Server. store may be nil when recording is
// disabled.
func NewServer(p *planner.Planner, store *planstore.Store) *Server {
	return &Server{planner: p, store: store}
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan/latest", s.handleLatestPlan)
	mux.HandleFunc("/api/plan/chart", s.handlePlanChart)
	mux.HandleFunc("/api/planner/status", s.handleStatus)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/", s.handleHome)
	return mux
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("waypoint planner\n"))
}

// latestPlanResponse is the JSON shape of /api/plan/latest.
type latestPlanResponse struct {
	Seq       uint64             `json:"seq"`
	FrameID   string             `json:"frame_id"`
	CreatedAt time.Time          `json:"created_at"`
	State     string             `json:"state"`
	NextIndex int                `json:"next_index"`
	StopIndex int                `json:"stop_index"`
	Units     string             `json:"units"`
	Waypoints []planWaypointJSON `json:"waypoints"`
}

type planWaypointJSON struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	TargetSpeed float64 `json:"target_speed"`
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	targetUnits := r.URL.Query().Get("units")
	if targetUnits == "" {
		targetUnits = units.MPS
	}
	if !units.IsValid(targetUnits) {
		httputil.BadRequest(w, fmt.Sprintf("invalid units %q, valid: %s", targetUnits, units.GetValidUnitsString()))
		return
	}

	window, ok := s.planner.Latest()
	if !ok {
		httputil.NotFound(w, "no plan published yet")
		return
	}

	resp := latestPlanResponse{
		Seq:       window.Seq,
		FrameID:   window.FrameID,
		CreatedAt: window.CreatedAt,
		State:     window.State.String(),
		NextIndex: window.NextIndex,
		StopIndex: window.StopIndex,
		Units:     targetUnits,
		Waypoints: make([]planWaypointJSON, len(window.Waypoints)),
	}
	for i, wp := range window.Waypoints {
		resp.Waypoints[i] = planWaypointJSON{
			X:           wp.Position.X,
			Y:           wp.Position.Y,
			Z:           wp.Position.Z,
			TargetSpeed: units.ConvertSpeed(wp.TargetSpeed, targetUnits),
		}
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.planner.Status())
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	cfg := s.planner.Config()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"tick_rate_hz":    cfg.TickRateHz,
		"lookahead_wps":   cfg.LookaheadWps,
		"cruise_speed":    cfg.CruiseSpeed,
		"max_decel":       cfg.MaxDecel,
		"stop_buffer":     cfg.StopBuffer,
		"creep_threshold": cfg.CreepThreshold,
		"creep_speed":     cfg.CreepSpeed,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Get())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.store == nil {
		httputil.NotFound(w, "plan recording disabled")
		return
	}

	if runID := r.URL.Query().Get("run_id"); runID != "" {
		limit := 0
		if l := r.URL.Query().Get("limit"); l != "" {
			v, err := strconv.Atoi(l)
			if err != nil || v < 0 {
				httputil.BadRequest(w, "invalid limit")
				return
			}
			limit = v
		}
		windows, err := s.store.WindowsForRun(runID, limit)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to query windows: %v", err))
			return
		}
		httputil.WriteJSONOK(w, windows)
		return
	}

	runs, err := s.store.Runs()
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to query runs: %v", err))
		return
	}
	httputil.WriteJSONOK(w, runs)
}
