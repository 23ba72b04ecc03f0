// parlayd is the parlay generation daemon. It exposes an HTTP API that runs
// the odds, research, generation, correction, and validation pipeline per
// request and streams stage events over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vinnybarbs/craycray-parlay/pkg/config"
	"github.com/vinnybarbs/craycray-parlay/pkg/generate"
	"github.com/vinnybarbs/craycray-parlay/pkg/odds"
	"github.com/vinnybarbs/craycray-parlay/pkg/pipeline"
	"github.com/vinnybarbs/craycray-parlay/pkg/research"
	"github.com/vinnybarbs/craycray-parlay/pkg/streaming"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpAddr   = flag.String("http", "", "HTTP server address (overrides HTTP_ADDR)")
	noResearch = flag.Bool("no-research", false, "Disable the research stage even when a search key is configured")
	reqTimeout = flag.Duration("timeout", 3*time.Minute, "Per-request pipeline timeout")
	verbose    = flag.Bool("verbose", false, "Verbose stage logging")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("Starting parlay generation daemon")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *httpAddr != "" {
		cfg.HTTPAddr = *httpAddr
	}

	svc := newService(cfg)

	// Stage events go to the log and to WebSocket observers.
	svc.coord.OnStageComplete(func(result *pipeline.StageResult) {
		if *verbose || !result.Success {
			log.Printf("[%s] %s (%.2fms)", result.Stage, statusStr(result.Success), float64(result.Duration.Microseconds())/1000)
			if result.Error != "" {
				log.Printf("  Error: %s", result.Error)
			}
		}
		svc.hub.BroadcastStage(result)
	})
	svc.coord.OnError(func(err error) {
		log.Printf("[ERROR] %v", err)
		svc.hub.BroadcastError(err, "pipeline")
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      svc.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: *reqTimeout + 10*time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		log.Printf("WebSocket streaming available at ws://%s/ws", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

type service struct {
	cfg     *config.Config
	coord   *pipeline.Coordinator
	metrics *pipeline.Metrics
	hub     *streaming.Hub
}

func newService(cfg *config.Config) *service {
	metrics := pipeline.NewMetrics()
	hub := streaming.NewHub()
	go hub.Run()

	fetcher := odds.NewFetcher(odds.NewClient(cfg.OddsAPIKey), nil)

	var enricher pipeline.Enricher
	if cfg.ResearchEnabled() && !*noResearch {
		enricher = research.NewEnricher(research.NewClient(cfg.SerperAPIKey), nil)
		log.Println("Research stage enabled")
	} else {
		log.Println("Research stage disabled")
	}

	generator := generate.NewOpenRouterClient(generate.DefaultOpenRouterConfig(cfg.OpenRouterAPIKey))
	loop := generate.NewLoop(generator, 0)

	return &service{
		cfg:     cfg,
		coord:   pipeline.NewCoordinator(fetcher, enricher, loop, metrics),
		metrics: metrics,
		hub:     hub,
	}
}

func (s *service) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", s.hub.ServeWS)
	return mux
}

func (s *service) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}

func (s *service) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	applyDefaults(&req, s.cfg)
	if err := validateRequest(&req); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), *reqTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.coord.Generate(ctx, &req)
	if err != nil {
		httpError(w, http.StatusBadGateway, err.Error())
		return
	}
	log.Printf("Generated %d-leg parlay in %.1fs (request %s)",
		req.NumLegs, time.Since(start).Seconds(), result.Metadata.RequestID)

	s.hub.BroadcastResult(result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func applyDefaults(req *pipeline.Request, cfg *config.Config) {
	if len(req.SelectedSports) == 0 {
		req.SelectedSports = []string{"NFL"}
	}
	if len(req.SelectedBetTypes) == 0 {
		req.SelectedBetTypes = []string{"moneyline", "spread", "total"}
	}
	if req.NumLegs == 0 {
		req.NumLegs = 3
	}
	if req.RiskLevel == "" {
		req.RiskLevel = "balanced"
	}
	if req.OddsPlatform == "" {
		req.OddsPlatform = "draftkings"
	}
	if req.AIModel == "" {
		req.AIModel = cfg.DefaultModel
	}
	if req.DateRange == 0 {
		req.DateRange = 2
	}
}

func validateRequest(req *pipeline.Request) error {
	if req.NumLegs < 1 || req.NumLegs > 10 {
		return fmt.Errorf("num_legs must be between 1 and 10, got %d", req.NumLegs)
	}
	if req.DateRange < 1 || req.DateRange > 14 {
		return fmt.Errorf("date_range must be between 1 and 14 days, got %d", req.DateRange)
	}
	return nil
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func statusStr(success bool) string {
	if success {
		return "OK"
	}
	return "FAILED"
}
