package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SurveyInsight/src/config"
	"SurveyInsight/src/datasource/file"
	"SurveyInsight/src/storage"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	jsonFolder := "./config"
	jsonFile := "config.json"
	dataJsonFile := "dataconfig.json"
	cfg, schema, err := config.LoadConfig(jsonFolder, jsonFile, dataJsonFile)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	if err := config.ApplyEnv(cfg, ".env"); err != nil {
		log.Printf("Failed to apply environment: %v", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Invalid config: %v", err)
		return 1
	}

	logger, err := storage.NewLogger(cfg.LogName, cfg.LogLevel)
	if err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go reopenOnHangup(ctx, logger, cfg.LogName)

	pipeline := NewPipeline(cfg, *schema, logger, "")

	switch cfg.Mode {
	case config.ModeWatch:
		err = runWatch(ctx, pipeline, time.Duration(cfg.WatchDebounce), logger)
	case config.ModeSchedule:
		err = runSchedule(ctx, pipeline, cfg.Schedule, logger)
	default:
		if _, ok := pipeline.Run(); !ok {
			return 1
		}
		return 0
	}

	if err != nil {
		logger.Error("service stopped", zap.Error(err))
		return 1
	}
	logger.Info("shutting down")
	return 0
}

// runWatch runs once, then again after every burst of writes to the input
// file, until ctx is done.
func runWatch(ctx context.Context, p *Pipeline, debounce time.Duration, logger *storage.Logger) error {
	input, err := p.ResolveInput()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	p.Run()

	monitor, err := file.NewFileMonitor(input, debounce)
	if err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}
	defer monitor.Close()

	logger.Info("watching input for changes, press Ctrl+C to exit",
		zap.String("path", input),
		zap.Duration("debounce", debounce))
	return monitor.Watch(ctx, func(path string) {
		logger.Info("input changed", zap.String("path", path))
		p.Run()
	})
}

// runSchedule runs once, then on every tick of spec until ctx is done.
func runSchedule(ctx context.Context, p *Pipeline, spec string, logger *storage.Logger) error {
	c := cron.New()
	err := c.AddFunc(spec, func() {
		logger.Info("scheduled run", zap.String("schedule", spec))
		p.Run()
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}

	p.Run()
	c.Start()
	defer c.Stop()

	logger.Info("scheduler started, press Ctrl+C to exit", zap.String("schedule", spec))
	<-ctx.Done()
	return nil
}

// reopenOnHangup reopens the log file on SIGHUP so external rotation works.
func reopenOnHangup(ctx context.Context, logger *storage.Logger, logName string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := logger.Reopen(logName); err != nil {
				log.Printf("Failed to reopen log file: %v", err)
				continue
			}
			logger.Info("log file reopened", zap.String("path", logName))
		}
	}
}
