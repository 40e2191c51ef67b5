// Command worker processes queued payroll exports and enqueues the monthly
// period-close export on the 11th.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/warp/payroll-export/config"
	"github.com/warp/payroll-export/jobs"
	"github.com/warp/payroll-export/metrics"
	"github.com/warp/payroll-export/rotacloud"
	"github.com/warp/payroll-export/runner"
	"github.com/warp/payroll-export/store/sqlite"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load")
	noCron := flag.Bool("no-cron", false, "do not register the monthly export")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if cfg.RedisAddr == "" {
		logger.Error("REDIS_ADDR is required by the worker")
		os.Exit(1)
	}
	loc, _ := cfg.Location()

	ledger, err := sqlite.New(cfg.DBPath)
	if err != nil {
		logger.Error("open ledger", slog.Any("error", err))
		os.Exit(1)
	}
	defer ledger.Close()

	redisClient := redis.NewClient(cfg.RedisOptions())
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	m := metrics.New()
	shared := rotacloud.NewRedisCache(redisClient, "rotacloud", m, logger)
	pipeline := runner.New(runner.RotaCloudSources(cfg.RotaCloud(shared, m, logger)), loc, ledger, m, logger)

	exportJob := jobs.NewExportJob(pipeline, cfg.RotaCloudAPIKey, cfg.RunRequest, loc, logger)
	exportJob.OutputDir = cfg.OutputDir

	var cron []jobs.CronRegistration
	if !*noCron {
		monthly, err := jobs.MonthlyExport()
		if err != nil {
			logger.Error("build monthly task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, monthly)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Export:    exportJob,
		Cron:      cron,
		Location:  loc,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
