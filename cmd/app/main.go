package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/andhikadk/smi-test/api"
	"github.com/andhikadk/smi-test/config"
	"github.com/andhikadk/smi-test/internal/auth"
	"github.com/andhikadk/smi-test/internal/bootstrap"
	"github.com/andhikadk/smi-test/internal/cache"
	"github.com/andhikadk/smi-test/internal/kafka"
	"github.com/andhikadk/smi-test/internal/repository"
	"github.com/andhikadk/smi-test/internal/service/approval"
	"github.com/andhikadk/smi-test/internal/service/availability"
	"github.com/andhikadk/smi-test/internal/service/booking"
	"github.com/andhikadk/smi-test/internal/service/workflow"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Migrations.AutoApply {
		if err := repository.Migrate(cfg.Migrations.Path, cfg.Database.DSN()); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
	}

	pool, err := repository.Open(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	store := repository.NewStore(pool)
	reader := store.Reader()

	var opts []booking.BookingServiceOption
	var directoryOpts []approval.DirectoryOption
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis,
			time.Duration(cfg.Booking.BookingCacheTTL)*time.Second,
			time.Duration(cfg.Booking.ApproverCacheTTL)*time.Second)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unreachable, continuing with cache errors logged: %v", err)
		}
		opts = append(opts, booking.WithCache(redisCache))
		directoryOpts = append(directoryOpts, approval.WithApproverCache(redisCache))
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		opts = append(opts,
			booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic))
	}
	opts = append(opts, booking.WithApproverStrategy(cfg.Booking.ApproverStrategy))

	var resolver approval.ApproverResolver = approval.NewDesignatedApprovers()
	if cfg.Booking.ApproverStrategy == config.ApproverStrategyDirectory {
		resolver = approval.NewDirectoryApprovers(directoryOpts...)
	}
	machine := approval.NewStateMachine(resolver, approval.WithRequiredRejectionNotes(cfg.Booking.RequireRejectionNotes))

	checker := availability.NewChecker(reader.Bookings(), reader.Vehicles(), reader.Drivers())
	validator := booking.NewValidator(reader.Users(), checker,
		booking.WithLengthLimits(cfg.Booking.MaxPurposeLength, cfg.Booking.MaxNotesLength))
	bookingService := booking.NewBookingService(workflow.NewOrchestrator(store, machine), machine, reader, validator, opts...)

	router := api.NewRouter(auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer), bookingService, checker)
	if err := bootstrap.Run(ctx, cfg, router); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
