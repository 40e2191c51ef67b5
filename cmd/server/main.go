/*
main.go - HTTP server entry point

PURPOSE:
  Serves the payroll export API. Handles configuration, dependency
  injection, the optional period-close scheduler and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment)
  2. Open the SQLite run ledger
  3. Connect Redis when REDIS_ADDR is set (response cache, job queue)
  4. Build the export pipeline and API handler
  5. Start the scheduler when SCHEDULER_ENABLED
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -env     Extra .env file to load (default: .env)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close Redis and the database

EXAMPLES:
  ROTACLOUD_API_KEY=... ./server
  DB_PATH=":memory:" PORT=3000 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - api/scheduler.go: Period-close export
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/warp/payroll-export/api"
	"github.com/warp/payroll-export/config"
	"github.com/warp/payroll-export/jobs"
	"github.com/warp/payroll-export/metrics"
	"github.com/warp/payroll-export/rotacloud"
	"github.com/warp/payroll-export/runner"
	"github.com/warp/payroll-export/store/sqlite"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	loc, _ := cfg.Location()

	ledger, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to initialize database", slog.Any("error", err))
		os.Exit(1)
	}
	defer ledger.Close()

	m := metrics.New()

	var (
		shared rotacloud.Cache
		queue  *jobs.Client
	)
	if opts := cfg.RedisOptions(); opts != nil {
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis ping", slog.Any("error", err))
		}
		shared = rotacloud.NewRedisCache(rdb, "rotacloud", m, logger)
		queue = jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer queue.Close()
	}

	pipeline := runner.New(runner.RotaCloudSources(cfg.RotaCloud(shared, m, logger)), loc, ledger, m, logger)

	scenarios, err := api.LoadScenarios()
	if err != nil {
		logger.Error("failed to load scenarios", slog.Any("error", err))
		os.Exit(1)
	}

	handler := api.NewHandler(pipeline, ledger, scenarios, logger)
	handler.APIKey = cfg.RotaCloudAPIKey
	handler.Defaults = cfg.RunRequest
	if queue != nil {
		handler.Queue = queue
	}

	scheduler := api.NewPeriodCloseScheduler(pipeline, ledger, cfg.RotaCloudAPIKey, logger)
	scheduler.Defaults = cfg.RunRequest
	scheduler.Location = loc
	scheduler.OutputDir = cfg.OutputDir
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled && cfg.RotaCloudAPIKey != ""
	scheduler.Start()

	router := api.NewRouter(handler, api.RouterConfig{
		Logger:             logger,
		Metrics:            m,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RotaCloudTimeout + 60*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			slog.Int("port", cfg.Port),
			slog.String("db", cfg.DBPath),
			slog.Bool("redis", cfg.RedisAddr != ""),
			slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}

	logger.Info("server stopped")
}
