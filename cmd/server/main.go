package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/EuricoCruz/api429/internal/adapter/http/handler"
	"github.com/EuricoCruz/api429/internal/adapter/storage/memory"
	redisAdapter "github.com/EuricoCruz/api429/internal/adapter/storage/redis"
	"github.com/EuricoCruz/api429/internal/domain/entity"
	"github.com/EuricoCruz/api429/internal/domain/repository"
	"github.com/EuricoCruz/api429/internal/infrastructure/clock"
	"github.com/EuricoCruz/api429/internal/infrastructure/config"
	"github.com/EuricoCruz/api429/internal/infrastructure/logger"
	infraRedis "github.com/EuricoCruz/api429/internal/infrastructure/redis"
	"github.com/EuricoCruz/api429/internal/usecase/evaluate_request"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var envFile string

	cmd := &cobra.Command{
		Use:           "api429",
		Short:         "Serve numbered endpoints that answer 429 Too Many Requests once their limit is hit",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, envFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "optional dotenv file")
	flags.Int("port", 8080, "HTTP port")
	flags.Int("max-endpoints", 6, "number of /api/{index} endpoints")
	flags.Int("max-requests", entity.DefaultMaxRequests, "requests accepted before an endpoint trips")
	flags.Int("retry-after", int(entity.DefaultRetryAfter/time.Second), "block period in seconds after tripping")
	flags.Int("reset-after", int(entity.DefaultResetCounterAfter/time.Second), "inactivity in seconds that resets the counter")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("stats-backend", config.StatsBackendMemory, "statistics backend (memory, redis)")

	// Flags têm prioridade sobre env/.env quando informadas
	bindings := map[string]string{
		"SERVER_PORT":                 "port",
		"MAX_ENDPOINTS":               "max-endpoints",
		"MAX_REQUESTS":                "max-requests",
		"RETRY_AFTER_SECONDS":         "retry-after",
		"RESET_COUNTER_AFTER_SECONDS": "reset-after",
		"LOG_LEVEL":                   "log-level",
		"STATS_BACKEND":               "stats-backend",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	// 1. Setup logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Configuration loaded",
		zap.Int("port", cfg.ServerPort),
		zap.Int("max_endpoints", cfg.MaxEndpoints),
		zap.Int("max_requests", cfg.MaxRequests),
		zap.Int("retry_after_seconds", cfg.RetryAfterSeconds),
		zap.Int("reset_counter_after_seconds", cfg.ResetCounterAfterSeconds),
		zap.String("stats_backend", cfg.StatsBackend),
	)

	// 2. Monta camadas (Dependency Injection)
	policy := cfg.Policy()
	if err := policy.Validate(); err != nil {
		return err
	}

	clk := clock.System{}
	registry := memory.NewRegistry(cfg.MaxEndpoints, clk)

	recorder, err := newRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	defer recorder.Close()
	log.Info("Stats recorder initialized", zap.String("backend", cfg.StatsBackend))

	useCase := evaluate_request.NewUseCase(registry, entity.NewRateLimiter(policy), recorder, clk, log)

	// 3. HTTP Server
	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.ServerPort),
		Handler:      handler.NewRouter(useCase, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Start server em goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.Int("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
	return nil
}

// newRecorder escolhe o backend de estatísticas configurado
func newRecorder(ctx context.Context, cfg *config.Config) (repository.DecisionRecorder, error) {
	if cfg.StatsBackend != config.StatsBackendRedis {
		return memory.NewRecorder(cfg.MaxEndpoints), nil
	}

	client, err := infraRedis.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return redisAdapter.NewRecorder(client, cfg.StatsKeyPrefix, cfg.StatsTTL), nil
}
