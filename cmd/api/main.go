package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/interviewfriend/relay/backend/internal/config"
	"github.com/interviewfriend/relay/backend/internal/handler"
	"github.com/interviewfriend/relay/backend/internal/logging"
	promptmodel "github.com/interviewfriend/relay/backend/internal/model/prompt"
	"github.com/interviewfriend/relay/backend/internal/observability"
	"github.com/interviewfriend/relay/backend/internal/service/ai"
	"github.com/interviewfriend/relay/backend/internal/service/prompt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("no .env file loaded, continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logging.Setup(cfg.Log.Level)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	prompts := resolvePrompts(ctx, cfg.Prompts, metrics)

	// A backend that cannot be constructed leaves the service nil: /health
	// reports it and /chat answers 503.
	var aiService *ai.Service
	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to initialize inference client, continuing without AI functionality")
	} else {
		aiService, err = ai.NewService(ctx, chatModel, prompts)
		if err != nil {
			log.WithError(err).Warn("failed to initialize AI service, continuing without AI functionality")
			aiService = nil
		} else {
			log.WithFields(log.Fields{
				"provider": cfg.AI.Provider,
				"model":    cfg.AI.Model,
				"base_url": cfg.AI.BaseURL,
			}).Info("AI service initialized successfully")
		}
	}

	router := handler.NewRouter(cfg.Server, aiService, metrics, reg)

	startServer(ctx, cfg.Server, router)
}

func resolvePrompts(ctx context.Context, promptCfg config.PromptConfig, metrics *observability.Metrics) promptmodel.Set {
	var registry prompt.Registry
	client, err := promptCfg.NewRegistry()
	if err != nil {
		log.WithError(err).Warn("failed to initialize prompt registry client")
	} else {
		registry = client
	}

	fetchCtx, cancel := context.WithTimeout(ctx, promptCfg.FetchTimeout)
	defer cancel()

	set, resolutions := prompt.Initialize(fetchCtx, registry, prompt.Names{
		Interviewee: promptCfg.Interviewee,
		Candidate:   promptCfg.Candidate,
	})
	for _, res := range resolutions {
		metrics.ObservePromptResolution(res.Name, string(res.Source))
	}
	return set
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Infof("interview relay listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
