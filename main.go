// Command waypoint-planner runs the speed-profile planner: it loads a
// fixed waypoint path, listens for pose/velocity/stop-line telemetry,
// and publishes a bounded window of speed-annotated waypoints at a
// fixed tick rate.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/waypoint.planner/internal/api"
	"github.com/banshee-data/waypoint.planner/internal/config"
	"github.com/banshee-data/waypoint.planner/internal/feeds"
	"github.com/banshee-data/waypoint.planner/internal/monitoring"
	"github.com/banshee-data/waypoint.planner/internal/path"
	"github.com/banshee-data/waypoint.planner/internal/planner"
	"github.com/banshee-data/waypoint.planner/internal/planstore"
	"github.com/banshee-data/waypoint.planner/internal/timeutil"
	"github.com/banshee-data/waypoint.planner/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "HTTP listen address")
	telemetryAddr = flag.String("telemetry", ":9900", "UDP telemetry listen address")
	forwardAddr   = flag.String("forward", "", "downstream UDP address for plan windows (empty disables)")
	serialPort    = flag.String("serial-port", "", "serial velocity sensor port (empty disables)")
	pathFile      = flag.String("path", "route.json", "waypoint path JSON file")
	configFile    = flag.String("config", "", "tuning config JSON file (built-in defaults if empty)")
	dbFile        = flag.String("db", "plans.db", "plan store database file (empty disables recording)")
	migrationsDir = flag.String("migrations", "migrations", "plan store migrations directory")
	debug         = flag.Bool("debug", false, "log per-tick diagnostics")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*debug)
	log.Printf("waypoint-planner %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyTuningConfig()
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuningConfig(*configFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
	}

	route, err := path.Load(*pathFile)
	if err != nil {
		log.Fatalf("failed to load waypoint path: %v", err)
	}

	pl, err := planner.New(route, planner.NewVehicleState(),
		planner.ConfigFromTuning(tuning), timeutil.RealClock{})
	if err != nil {
		log.Fatalf("failed to create planner: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store *planstore.Store
	if *dbFile != "" {
		store, err = planstore.Open(*dbFile)
		if err != nil {
			log.Fatalf("failed to open plan store: %v", err)
		}
		defer store.Close()
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to migrate plan store: %v", err)
		}
		runID, err := store.BeginRun(time.Now(), route.Len())
		if err != nil {
			log.Fatalf("failed to begin run: %v", err)
		}
		log.Printf("recording plan windows under run %s", runID)
	}

	telemetry, err := feeds.NewUDPListener(*telemetryAddr, pl.State())
	if err != nil {
		log.Fatalf("failed to start telemetry listener: %v", err)
	}
	go func() {
		if err := telemetry.Run(ctx); err != nil {
			log.Printf("telemetry listener stopped: %v", err)
		}
	}()

	if *serialPort != "" {
		velocityFeed, err := feeds.OpenSerialVelocityFeed(*serialPort, pl.State())
		if err != nil {
			log.Fatalf("failed to open serial velocity feed: %v", err)
		}
		go func() {
			if err := velocityFeed.Run(ctx); err != nil {
				log.Printf("serial velocity feed stopped: %v", err)
			}
		}()
	}

	var forwarder *feeds.PlanForwarder
	if *forwardAddr != "" {
		forwarder, err = feeds.NewPlanForwarder(*forwardAddr)
		if err != nil {
			log.Fatalf("failed to create plan forwarder: %v", err)
		}
		defer forwarder.Close()
	}

	// Fan published windows out to the forwarder and the store. Both
	// sinks are best-effort; a failure never stalls the tick loop.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case w := <-pl.Windows():
				if forwarder != nil {
					if err := forwarder.Forward(w); err != nil {
						monitoring.Logf("forward window %d: %v", w.Seq, err)
					}
				}
				if store != nil {
					if err := store.RecordWindow(w); err != nil {
						monitoring.Logf("record window %d: %v", w.Seq, err)
					}
				}
			}
		}
	}()

	go pl.Run(ctx)

	srv := &http.Server{
		Addr:    *listen,
		Handler: api.NewServer(pl, store).ServeMux(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}()

	log.Printf("waypoint planner listening on %s (path length %d)", *listen, route.Len())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server: %v", err)
	}
}
