package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	scalargo "github.com/bdpiprava/scalar-go"
	log "github.com/sirupsen/logrus"

	"agrisync/pkg/api"
	"agrisync/pkg/config"
	"agrisync/pkg/pipeline"
	"agrisync/pkg/store"
)

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

func main() {
	mode := flag.String("mode", "once", "Run mode: once, continuous, serve, import.")
	sourcesFile := flag.String("sources", "./sources.yaml", "Path to the YAML sources file.")
	importFile := flag.String("file", "", "Interchange JSON file for -mode import.")
	logLevel := flag.String("loglevel", "info", "Log level (debug, info, warn, error).")
	flag.Parse()

	parsedLevel, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(parsedLevel)

	settings := config.LoadEnv()

	sources, err := config.LoadSources(*sourcesFile)
	if err != nil {
		log.Fatalf("Failed to load sources file: %v", err)
	}
	log.WithField("sources", len(sources.Enabled())).Info("agrisync starting")

	st, err := store.New(settings.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	runner := pipeline.NewRunner(st, settings, sources)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "once":
		if _, err := runner.RunOnce(ctx); err != nil {
			log.Fatalf("Sync failed: %v", err)
		}
	case "continuous":
		runContinuous(ctx, runner, settings)
	case "serve":
		serve(ctx, runner, settings)
	case "import":
		if *importFile == "" {
			log.Fatal("-mode import requires -file")
		}
		summary, err := runner.ImportFile(*importFile)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		if _, err := runner.Export(); err != nil {
			log.Fatalf("Export after import failed: %v", err)
		}
		log.WithFields(log.Fields{
			"inserted":   summary.ProductsInserted,
			"categories": summary.DistinctCategories,
			"brands":     summary.DistinctBrands,
		}).Info("Import completed")
	default:
		log.Fatalf("Unknown mode %q. Available: once, continuous, serve, import", *mode)
	}
}

// runContinuous runs an initial cycle, then one per configured interval
// until the context is cancelled. Failed cycles are logged and retried on
// the next tick; the store is never rolled back.
func runContinuous(ctx context.Context, runner *pipeline.Runner, settings config.Settings) {
	interval := time.Duration(settings.SyncIntervalMin) * time.Minute
	log.WithField("interval", interval).Info("Starting continuous sync")

	if _, err := runner.RunOnce(ctx); err != nil {
		log.WithError(err).Error("Sync cycle failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Continuous sync stopped")
			return
		case <-ticker.C:
			if _, err := runner.RunOnce(ctx); err != nil {
				log.WithError(err).Error("Sync cycle failed")
			}
		}
	}
}

func serve(ctx context.Context, runner *pipeline.Runner, settings config.Settings) {
	server := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           newHandler(runner),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if ip := GetOutboundIP(); ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), settings.Port)
	}
	fmt.Printf("Access URL: http://localhost:%s\n", settings.Port)
	fmt.Printf("API Docs: http://localhost:%s/\n", settings.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func newHandler(runner *pipeline.Runner) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		rootHandler(runner, w, r)
	})
	return mux
}

func rootHandler(runner *pipeline.Runner, w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		apiHandler(runner, w, r)
		return
	}

	// Serve Scalar docs on root path
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("agrisync API"),
		),
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func apiHandler(runner *pipeline.Runner, w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/export":
		if r.Method != http.MethodGet {
			api.WriteMethodNotAllowed(w, "Use GET for the export document.", r.URL.Path)
			return
		}
		doc, err := runner.Document()
		if err != nil {
			api.WriteInternalServerError(w, err, r.URL.Path)
			return
		}
		api.WriteJSON(w, doc)

	case "/api/stats":
		if r.Method != http.MethodGet {
			api.WriteMethodNotAllowed(w, "Use GET for stats.", r.URL.Path)
			return
		}
		api.WriteJSON(w, runner.Status())

	case "/api/sync":
		if r.Method != http.MethodPost {
			api.WriteMethodNotAllowed(w, "Use POST to trigger a sync.", r.URL.Path)
			return
		}
		report, err := runner.RunOnce(r.Context())
		if errors.Is(err, pipeline.ErrRunInFlight) {
			api.WriteConflict(w, "A sync run is already in flight.", r.URL.Path)
			return
		}
		if err != nil {
			api.WriteInternalServerError(w, err, r.URL.Path)
			return
		}
		api.WriteJSON(w, report)

	default:
		api.WriteNotFound(w, "Unknown endpoint. Available: /api/export, /api/stats, /api/sync", r.URL.Path)
	}
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}
