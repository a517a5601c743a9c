package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"alwahis/config"
	"alwahis/pkg/api"
	"alwahis/pkg/bot"
	"alwahis/pkg/cache"
	"alwahis/pkg/events"
	"alwahis/pkg/logger"
	"alwahis/service"
	"alwahis/storage"
	"alwahis/storage/memory"
	"alwahis/storage/postgres"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("alwahis stopped with error", logger.Error(err))
		os.Exit(1)
	}
	log.Info("alwahis stopped")
}

func run(ctx context.Context, cfg config.Config, log logger.ILogger) error {
	// 3. Storage
	stg, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stg.Close()

	// 4. Events and cache
	opts := service.OptionsFromConfig(cfg)

	publisher, err := openPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()
	opts.Publisher = publisher

	if cfg.RedisHost != "" {
		rc := cache.NewRedisCache(cfg.RedisHost+":"+cfg.RedisPort, cfg.RedisPassword, cfg.ServiceName)
		if err := rc.Ping(ctx); err != nil {
			log.Warning("redis unreachable, stats are computed on every call", logger.Error(err))
		}
		defer rc.Close()
		opts.Cache = rc
	}

	svc := service.New(stg, log, opts)

	router := api.NewRouter(api.Options{
		Service:   svc,
		Log:       log,
		JWTSecret: cfg.JWTSecret,
		Location:  cfg.Location(),
		Health:    stg.Ping,
	})

	// 5. Run HTTP API and admin bot until a signal arrives
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		return api.RunServer(ctx, addr, cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, router, log)
	})

	if cfg.AdminBotToken != "" {
		adminBot, err := bot.New(bot.Settings{
			Token:         cfg.AdminBotToken,
			AdminID:       cfg.AdminID,
			AdminUsername: cfg.AdminUsername,
			JWTSecret:     cfg.JWTSecret,
			Location:      cfg.Location(),
		}, svc, log)
		if err != nil {
			log.Error("failed to initialize admin bot", logger.Error(err))
			return err
		}
		g.Go(func() error { return adminBot.Run(ctx) })
	} else {
		log.Info("ADMIN_BOT_TOKEN is empty, admin bot disabled")
	}

	return g.Wait()
}

func openStorage(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		log.Warning("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case config.StorageDriverPostgres:
		pg, err := postgres.New(ctx, cfg, log)
		if err != nil {
			log.Error("failed to connect to postgres", logger.Error(err))
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

func openPublisher(cfg config.Config) (events.Publisher, error) {
	switch cfg.EventsBroker {
	case config.EventsBrokerKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case config.EventsBrokerRabbitMQ:
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return p, nil
	case config.EventsBrokerNone, "":
		return events.NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown EVENTS_BROKER %q", cfg.EventsBroker)
	}
}
