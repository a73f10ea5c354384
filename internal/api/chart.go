package api

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/waypoint.planner/internal/httputil"
)

// handlePlanChart renders the latest speed profile as an HTML line
// chart. Debugging-only endpoint for eyeballing profiles without a
// frontend.
func (s *Server) handlePlanChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	window, ok := s.planner.Latest()
	if !ok {
		httputil.NotFound(w, "no plan published yet")
		return
	}

	offsets := make([]int, len(window.Waypoints))
	speeds := make([]opts.LineData, len(window.Waypoints))
	for i, wp := range window.Waypoints {
		offsets[i] = i
		speeds[i] = opts.LineData{Value: wp.TargetSpeed}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("plan window %d (%s)", window.Seq, window.State),
			Subtitle: fmt.Sprintf("next=%d stop=%d waypoints=%d",
				window.NextIndex, window.StopIndex, len(window.Waypoints)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "window offset"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "target speed (m/s)"}),
	)
	line.SetXAxis(offsets).AddSeries("target_speed", speeds)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
	}
}
