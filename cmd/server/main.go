package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/handler"
	"marketplace/internal/infrastructure/cache"
	"marketplace/internal/infrastructure/database"
	"marketplace/internal/infrastructure/lock"
	"marketplace/internal/infrastructure/mq"
	"marketplace/internal/job"
	"marketplace/internal/service"
	"marketplace/pkg/idgen"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	workerID := flag.Int64("worker-id", 1, "snowflake worker id, unique per replica")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Server.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(cfg, *workerID, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, workerID int64, log *zap.Logger) error {
	if err := idgen.Init(workerID); err != nil {
		return fmt.Errorf("init id generator: %w", err)
	}

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db) //nolint:errcheck

	var lease job.Lease
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		holder, _ := os.Hostname()
		lease = lock.NewSweepLock(client, holder+"-"+uuid.NewString(), cfg.Business.SweepInterval)
	}

	var publisher mq.Publisher = mq.NewLogPublisher(log.Named("events"))
	if cfg.Kafka.Enabled {
		kafka, err := mq.NewKafkaPublisher(&cfg.Kafka)
		if err != nil {
			return err
		}
		publisher = kafka
	}
	defer publisher.Close()

	orderService := service.NewOrderService(db, cfg, log)
	sweeper := job.NewAutoCompleteJob(db, orderService, lease, cfg, log)
	outboxSender := job.NewOutboxSender(db, publisher, cfg, log)

	h := handler.NewHandler(handler.Services{
		Account:    service.NewAccountService(db, log),
		Order:      orderService,
		Withdrawal: service.NewWithdrawalService(db, cfg, log),
		Deposit:    service.NewDepositService(db, cfg, log),
		Pricing:    service.NewPricingService(db, log),
		Setting:    service.NewSettingService(db, cfg),
		Sweeper:    sweeper,
	}, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler.SetupRouter(h, cfg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sweeper.Start(gctx)
		return nil
	})
	g.Go(func() error {
		outboxSender.Start(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sweeper.Stop()
		outboxSender.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
