package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/imaging"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/adapter/llm"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/config"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/observability"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/repository"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/internal/service"
	handler "github.com/Joint-Venture-AI/MIX-MASTER-API/internal/transport/http"
	"github.com/Joint-Venture-AI/MIX-MASTER-API/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	observability.SetLogger(observability.NewLogger(os.Stdout, cfg.LogLevel))
	logger := observability.Logger()

	logger.Info("starting mix master api",
		"http_port", cfg.HTTPPort,
		"postgres", cfg.UsesPostgres(),
		"llm_base_url", cfg.LLMBaseURL,
		"model", cfg.Model,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	db, err := openStore(ctx, cfg)
	if err != nil {
		fatal("failed to initialize store", err)
	}
	defer db.Close()

	// Initialize LLM client
	llmClient := llm.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize policy engine
	policyContent := policy.DefaultPolicy
	if cfg.PolicyFile != "" {
		data, err := os.ReadFile(cfg.PolicyFile)
		if err != nil {
			fatal("failed to read policy file", err)
		}
		policyContent = string(data)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		fatal("failed to initialize policy engine", err)
	}

	// Initialize upload staging
	stager, err := imaging.NewStager(cfg.UploadDir, cfg.MaxUploadBytes)
	if err != nil {
		fatal("failed to initialize upload dir", err)
	}
	stager.SetMaxPixels(cfg.MaxImagePixels)

	metrics := observability.NewMetrics()

	// Initialize service
	svc := service.New(db, llmClient, stager, metrics, cfg, policyEngine)
	go svc.RunUploadSweeper(ctx)

	server := handler.NewServer(svc, metrics, cfg)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			fatal("failed to start server", err)
		}
	}()

	logger.Info("api started", "port", cfg.HTTPPort)

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.UsesPostgres() {
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	}
	return store.NewSQLiteStore(cfg.DatabaseURL)
}

func fatal(msg string, err error) {
	observability.Logger().Error(msg, "error", err)
	os.Exit(1)
}
