// Command profile-plot renders the braking speed profile for a
// synthetic straight-line approach to a stop line, so tuning changes
// can be eyeballed without driving the full planner.
package main

import (
	"flag"
	"log"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/waypoint.planner/internal/config"
	"github.com/banshee-data/waypoint.planner/internal/geom"
	"github.com/banshee-data/waypoint.planner/internal/path"
	"github.com/banshee-data/waypoint.planner/internal/planner"
)

func main() {
	output := flag.String("o", "profile.png", "output PNG path")
	velocity := flag.Float64("v", 15.0, "approach velocity (m/s)")
	stopOffset := flag.Int("stop", 40, "stop line offset in waypoints ahead of the vehicle")
	spacing := flag.Float64("spacing", 1.0, "waypoint spacing (m)")
	configFile := flag.String("config", "", "tuning config JSON file (built-in defaults if empty)")
	flag.Parse()

	tuning := config.EmptyTuningConfig()
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	wps := make([]path.Waypoint, *stopOffset+1)
	for i := range wps {
		wps[i] = path.Waypoint{
			Position:    r3.Vec{X: float64(i) * *spacing},
			Orientation: geom.YawQuat(0),
		}
	}
	route, err := path.New(wps)
	if err != nil {
		log.Fatalf("failed to build path: %v", err)
	}

	gen := planner.NewSpeedProfileGenerator(
		tuning.GetLookaheadWps(),
		tuning.GetCruiseSpeed(),
		tuning.GetStopBuffer(),
		tuning.GetCreepThreshold(),
		tuning.GetCreepSpeed(),
	)
	start, end, fn := gen.Generate(planner.Braking, *velocity, 0, *stopOffset, route)
	window, err := planner.AssemblePlan(route, start, end, fn)
	if err != nil {
		log.Fatalf("failed to assemble window: %v", err)
	}

	pts := make(plotter.XYs, len(window))
	for i, wp := range window {
		pts[i] = plotter.XY{X: float64(i), Y: wp.TargetSpeed}
	}

	p := plot.New()
	p.Title.Text = "Braking speed profile"
	p.X.Label.Text = "Waypoint offset"
	p.Y.Label.Text = "Target speed (m/s)"

	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("failed to build line: %v", err)
	}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 5*vg.Inch, *output); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("✓ Created: %s (%d waypoints, v=%.1f m/s)", *output, len(window), *velocity)
}
