package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/stride.report/internal/config"
	"github.com/banshee-data/stride.report/internal/db"
	"github.com/banshee-data/stride.report/internal/monitoring"
	"github.com/banshee-data/stride.report/internal/session"
	"github.com/banshee-data/stride.report/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "Path to the JSON tuning file")
	listen      = flag.String("listen", ":8090", "Debug HTTP listen address (empty disables)")
	dbPath      = flag.String("db", "stride.db", "Path to the sqlite session store")
	port        = flag.String("port", "/dev/ttyACM0", "Serial port of the NMEA receiver")
	replayPath  = flag.String("replay", "", "Replay fixes from a file instead of the receiver")
	format      = flag.String("format", "json", "Replay file format: json or nmea")
	height      = flag.Float64("height", 0, "Body height in cm (overrides default_height_cm)")
	weight      = flag.Float64("weight", 0, "Body weight in kg (overrides default_weight_kg)")
	gender      = flag.String("gender", "", "male, female or other (overrides default_gender)")
	maxAccuracy = flag.Float64("max-accuracy", 0, "Reject fixes at or above this accuracy in meters (overrides max_accuracy_meters)")
	fixTimeout  = flag.String("fix-timeout", "", "Report a timeout after this long without a fix, 0s disables (overrides fix_timeout)")
	baudRate    = flag.Int("baud", 0, "Receiver baud rate (overrides baud_rate)")
	debugLog    = flag.Bool("debug", false, "Enable debug logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("stride"))
		return
	}
	monitoring.SetDebug(*debugLog)

	tuning, err := loadTuning(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) { applyFlag(tuning, f.Name) })
	if err := tuning.Validate(); err != nil {
		log.Fatalf("invalid flags: %v", err)
	}

	store, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rcv receiver
	if *replayPath != "" {
		rcv, err = openReplay(*replayPath, *format, tuning)
	} else {
		rcv, err = openReceiver(*port, tuning)
	}
	if err != nil {
		log.Fatalf("failed to open position source: %v", err)
	}
	defer rcv.Close()

	eng := newEngine(tuning, rcv, store)

	var wg sync.WaitGroup
	if *listen != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mux := http.NewServeMux()
			rcv.AttachAdminRoutes(mux)
			eng.machine.AttachAdminRoutes(mux)
			store.AttachAdminRoutes(mux)
			serveDebug(ctx, *listen, mux)
		}()
	}

	log.Printf("%s starting", version.String("stride"))
	res, err := eng.Run(ctx)
	stop()
	wg.Wait()
	if err != nil && !errors.Is(err, session.ErrPersistence) {
		log.Fatalf("session failed: %v", err)
	}
	if err != nil {
		log.Printf("session not saved: %v", err)
	}
	if res.Summary != nil {
		log.Printf("session %s: %.3f km in %s, %d steps, %d kcal, avg %.2f km/h",
			res.SessionID, res.Summary.TotalDistanceKm, res.Summary.Duration().Round(time.Second),
			res.Summary.TotalSteps, res.Summary.TotalCalories, res.Summary.AverageSpeedKmh)
	}
	log.Printf("Graceful shutdown complete")
}

func loadTuning(path string) (*config.TuningConfig, error) {
	cfg, err := config.LoadTuningConfig(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && path == config.DefaultConfigPath {
		log.Printf("no %s, using built-in defaults", path)
		return config.DefaultTuningConfig(), nil
	}
	return nil, err
}

// applyFlag copies an explicitly set flag into the tuning config.
func applyFlag(c *config.TuningConfig, name string) {
	switch name {
	case "height":
		c.DefaultHeightCm = height
	case "weight":
		c.DefaultWeightKg = weight
	case "gender":
		c.DefaultGender = gender
	case "max-accuracy":
		c.MaxAccuracyMeters = maxAccuracy
	case "fix-timeout":
		c.FixTimeout = fixTimeout
	case "baud":
		c.BaudRate = baudRate
	}
}

func serveDebug(ctx context.Context, addr string, mux *http.ServeMux) {
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("debug server failed: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
}
