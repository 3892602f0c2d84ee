// cmd/prompt-worker/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"prompt-access/internal/common/camunda"
	"prompt-access/internal/common/config"
	httpclient "prompt-access/internal/common/http"
	"prompt-access/internal/common/logger"
	"prompt-access/internal/common/observability"
	"prompt-access/internal/langfuse"
	"prompt-access/internal/models"
	"prompt-access/pkg/registry"

	cp "prompt-access/internal/workers/prompts/compile-prompt"
	ss "prompt-access/internal/workers/scores/submit-score"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting prompt worker...", zap.String("environment", cfg.App.Environment))

	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	// --- Prompt API access layer ---
	transport := httpclient.NewClient(httpclient.Config{
		BaseURL:   cfg.Langfuse.BaseURL,
		PublicKey: cfg.Langfuse.PublicKey,
		SecretKey: cfg.Langfuse.SecretKey,
		UserAgent: cfg.Langfuse.UserAgent,
		Timeout:   config.GetDuration(cfg.Langfuse.Timeout),
	}, httpclient.WithTracer(obs.Tracer()))

	prompts := langfuse.NewClient(transport, langfuse.Config{
		CacheTTL:        cfg.Cache.TTL(),
		CleanupInterval: config.GetDuration(cfg.Cache.CleanupInterval),
	}, log)
	defer prompts.Close()

	if len(cfg.Cache.Prefetch) > 0 {
		prefetchCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Langfuse.Timeout))
		if err := prompts.Prefetch(prefetchCtx, prefetchQueries(cfg.Cache.Prefetch)...); err != nil {
			zapLog.Warn("prompt prefetch incomplete", zap.Error(err))
		} else {
			zapLog.Info("prompts prefetched", zap.Int("count", len(cfg.Cache.Prefetch)))
		}
		cancel()
	}

	// --- Zeebe ---
	zeebe, err := camunda.Connect(context.Background(), &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	group := camunda.NewWorkerGroup(zeebe.GetClient(), log)

	// --- Workers ---
	{
		wcfg := config.GetWorkerConfig(cfg, cp.TaskType)
		activity := mustFind(reg, cp.TaskType, zapLog)
		handler := cp.NewHandler(&cp.Config{Timeout: activity.JobTimeout()}, prompts, activity, obs, log)
		group.Start(cp.TaskType, wcfg, handler.Handle)
	}
	{
		wcfg := config.GetWorkerConfig(cfg, ss.TaskType)
		activity := mustFind(reg, ss.TaskType, zapLog)
		handler := ss.NewHandler(&ss.Config{Timeout: activity.JobTimeout()}, prompts, activity, obs, log)
		group.Start(ss.TaskType, wcfg, handler.Handle)
	}
	zapLog.Info("workers registered", zap.Int("count", group.Len()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	group.Stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping Health/Metrics server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Prompt worker stopped gracefully")
}

func prefetchQueries(entries []config.PrefetchConfig) []langfuse.PromptQuery {
	queries := make([]langfuse.PromptQuery, 0, len(entries))
	for _, p := range entries {
		queries = append(queries, langfuse.PromptQuery{
			Kind:    models.PromptKind(p.Type),
			Name:    p.Name,
			Version: p.Version,
			Label:   p.Label,
		})
	}
	return queries
}

func mustFind(reg *registry.ActivityRegistry, taskType string, log *zap.Logger) *registry.Activity {
	activity, ok := reg.Find(taskType)
	if !ok {
		log.Fatal("activity not registered", zap.String("taskType", taskType))
	}
	return activity
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
