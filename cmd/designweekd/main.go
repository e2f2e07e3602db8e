package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/amara-obi/designweek/internal/async"
	"github.com/amara-obi/designweek/internal/common"
	"github.com/amara-obi/designweek/internal/ingest"
	"github.com/amara-obi/designweek/internal/llm"
	"github.com/amara-obi/designweek/internal/pipeline"
	"github.com/amara-obi/designweek/internal/repository"
)

func main() {
	// Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	log := logger.Sugar()

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(slogger)

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Context with signal
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store
	db, err := repository.Open(ctx, cfg.Database, slogger)
	if err != nil {
		log.Fatalf("opening store: %v", err)
	}
	defer repository.Close(db, slogger)

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatalf("migrating store: %v", err)
	}
	store := repository.NewSQLStore(db, slogger)

	// Extraction model
	extractor, err := llm.NewGeminiExtractor(ctx, cfg.LLM, slogger)
	if err != nil {
		log.Fatalf("creating extractor: %v", err)
	}

	// Pipeline and worker pool
	orch := pipeline.NewOrchestrator(store, extractor, slogger)
	queue := async.NewJobQueue(orch, slogger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithJobTimeout(cfg.Pipeline.StageTimeout),
	)
	orch.SetQueue(queue)

	ingestSvc := ingest.NewService(store, queue, slogger)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Ingest.WatchDir != "" {
		g.Go(func() error {
			err := ingestSvc.RunDropDir(gctx, ingest.WatchConfig{
				Root:        cfg.Ingest.WatchDir,
				InitialScan: true,
				Debounce:    cfg.Ingest.Debounce,
			})
			if err != nil && gctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	log.Infow("designweekd started", "watch_dir", cfg.Ingest.WatchDir, "workers", cfg.Pipeline.Workers)

	<-gctx.Done()
	log.Info("shutting down...")

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)

	if err := g.Wait(); err != nil {
		log.Errorf("watcher exited: %v", err)
	}
	fmt.Println("stopped.")
}
