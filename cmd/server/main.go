package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnshRaj112/leadvault-backend/internal/config"
	"github.com/AnshRaj112/leadvault-backend/internal/database"
	"github.com/AnshRaj112/leadvault-backend/internal/handlers"
	"github.com/AnshRaj112/leadvault-backend/internal/repository"
	"github.com/AnshRaj112/leadvault-backend/internal/repository/memory"
	"github.com/AnshRaj112/leadvault-backend/internal/repository/mongodb"
	"github.com/AnshRaj112/leadvault-backend/internal/repository/postgres"
	"github.com/AnshRaj112/leadvault-backend/internal/routes"
	"github.com/AnshRaj112/leadvault-backend/internal/services"
	"github.com/AnshRaj112/leadvault-backend/pkg/logger"
)

type stores struct {
	ledgers  repository.LedgerStore
	contacts repository.ContactStore
	journal  repository.EventJournal
	users    repository.UserStore
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	log := logger.Init(cfg.Environment, cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()
	if envErr != nil {
		log.Debug("no .env file found")
	}

	st, cleanup, err := connectStores(cfg, log)
	if err != nil {
		log.Fatal("failed to initialise storage", zap.Error(err))
	}
	defer cleanup()

	sessions := services.NewSessionStore(database.RedisClient)
	bus := services.NewRedisEventBus(database.RedisClient, log)

	sink := services.NewFanOut(log).
		Add("journal", services.JournalSink{Journal: st.journal}).
		Add("redis", bus)
	if cfg.KafkaEnabled() {
		kafka := services.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafka.Close()
		sink.Add("kafka", kafka)
		log.Info("kafka event sink enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	reconciler := services.NewReconciler(st.ledgers, st.contacts, sink, log)
	ledgerService := services.NewLedgerService(st.ledgers, st.contacts, st.journal, reconciler, sink, log)

	h := &handlers.Handler{
		Unlock:        services.NewUnlockService(st.ledgers, st.contacts, sink, log),
		Contributions: services.NewContributionService(st.ledgers, st.contacts, sink, log),
		Ledger:        ledgerService,
		Directory:     services.NewDirectory(st.ledgers, st.contacts),
		Auth:          services.NewAuthService(st.users, sessions, ledgerService, log),
		Events:        bus,
		Logger:        log,
	}

	if cfg.CloudinaryEnabled() {
		uploader, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn("cloudinary unavailable, avatar uploads disabled", zap.Error(err))
		} else {
			h.Uploader = uploader
			log.Info("cloudinary service initialized")
		}
	} else {
		log.Warn("cloudinary credentials not found, avatar uploads disabled")
	}

	router := routes.NewRouter(h, sessions, routes.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Production:     cfg.IsProduction(),
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("leadvault backend listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Environment),
			zap.String("ledger_store", cfg.LedgerStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}

// connectStores opens the configured backends. In memory mode MongoDB and
// PostgreSQL are replaced by in-process stores and Redis by an embedded server.
func connectStores(cfg *config.Config, log *zap.Logger) (*stores, func(), error) {
	if cfg.LedgerStore == config.StoreMemory {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, err
		}
		if err := database.ConnectRedis("redis://" + mr.Addr()); err != nil {
			mr.Close()
			return nil, nil, err
		}
		log.Warn("running with in-memory stores, data is lost on restart")
		cleanup := func() {
			database.DisconnectRedis()
			mr.Close()
		}
		return &stores{
			ledgers:  memory.NewLedgerStore(),
			contacts: memory.NewContactStore(),
			journal:  memory.NewJournal(),
			users:    memory.NewUserStore(),
		}, cleanup, nil
	}

	// the three backends are independent, connect them in parallel
	var g errgroup.Group
	g.Go(func() error { return database.ConnectPostgres(cfg.PostgresURI) })
	g.Go(func() error { return database.ConnectRedis(cfg.RedisURI) })
	g.Go(func() error { return database.Connect(cfg.MongoURI) })
	cleanup := func() {
		database.Disconnect()
		database.DisconnectRedis()
		database.DisconnectPostgres()
	}
	if err := g.Wait(); err != nil {
		cleanup()
		return nil, nil, err
	}

	ledgers := mongodb.NewLedgerRepository(database.DB)
	contacts := mongodb.NewContactRepository(database.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ig, ictx := errgroup.WithContext(ctx)
	ig.Go(func() error { return ledgers.EnsureIndexes(ictx) })
	ig.Go(func() error { return contacts.EnsureIndexes(ictx) })
	if err := ig.Wait(); err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info("MongoDB indexes ensured")

	return &stores{
		ledgers:  ledgers,
		contacts: contacts,
		journal:  postgres.NewEventRepository(database.PostgresDB),
		users:    postgres.NewUserRepository(database.PostgresDB),
	}, cleanup, nil
}
