package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/config"
	"github.com/roomly/booking-service/internal/handler"
	"github.com/roomly/booking-service/internal/notify"
	"github.com/roomly/booking-service/internal/repository"
	"github.com/roomly/booking-service/internal/server"
	"github.com/roomly/booking-service/internal/service"
	"github.com/roomly/booking-service/internal/storage"
	"github.com/roomly/booking-service/migrations"
	"github.com/roomly/booking-service/pkg/kafka"
	"github.com/roomly/booking-service/pkg/logger"
	"github.com/roomly/booking-service/pkg/postgres"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "booking")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %w", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo init %w", err)
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return fmt.Errorf("kafka.NewProducer %w", err)
	}
	publisher := notify.NewPublisher(producer, kafka.NoticesTopic)

	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Cache.Addr})
	}

	svc := service.NewService(repo, publisher, rdb, cfg.Cache.TTL, log)
	cleaner := storage.NewCleaner(cfg.Storage, log)
	h := handler.New(svc, svc, svc, cleaner, cfg.Auth, log)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.NotifyConsumerGroup)
	if err != nil {
		return fmt.Errorf("kafka.NewConsumer %w", err)
	}
	mailer := notify.NewMailer(cfg.SMTP)
	go kafka.Consume(workerCtx, consumer, notify.NewConsumer(mailer, log), kafka.NoticesTopic)

	go svc.RunSweeper(workerCtx, cfg.Sweep.Interval)

	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	stopWorkers()
	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	if err = consumer.Close(); err != nil {
		log.Error("consumer.Close", zap.Error(err))
	}
	if err = producer.Close(); err != nil {
		log.Error("producer.Close", zap.Error(err))
	}
	if rdb != nil {
		if err = rdb.Close(); err != nil {
			log.Error("redis.Close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
