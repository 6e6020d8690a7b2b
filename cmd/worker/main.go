package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/andhikadk/smi-test/config"
	"github.com/andhikadk/smi-test/internal/kafka"
	"github.com/andhikadk/smi-test/internal/notify"
	"github.com/andhikadk/smi-test/internal/repository"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.NotificationsTopic == "" {
		log.Fatalf("worker needs kafka.brokers and kafka.notifications_topic")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := notify.NewSender(repository.NewStore(pool).Reader().Users())

	log.Printf("[worker] consuming %s", cfg.Kafka.NotificationsTopic)
	if err := consumer.Consume(ctx, sender.Send); err != nil {
		log.Printf("[worker] consumer stopped: %v", err)
	}
	log.Printf("[worker] shutting down")
}
