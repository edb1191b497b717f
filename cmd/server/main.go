package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/ecofinds-marketplace/internal/config"
	"github.com/iliyamo/ecofinds-marketplace/internal/database"
	"github.com/iliyamo/ecofinds-marketplace/internal/handler"
	"github.com/iliyamo/ecofinds-marketplace/internal/metrics"
	"github.com/iliyamo/ecofinds-marketplace/internal/middleware"
	"github.com/iliyamo/ecofinds-marketplace/internal/queue"
	"github.com/iliyamo/ecofinds-marketplace/internal/repository"
	"github.com/iliyamo/ecofinds-marketplace/internal/router"
	"github.com/iliyamo/ecofinds-marketplace/internal/service"
)

func main() {
	// Prices and totals are rendered as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cfg := config.Load()
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("ensure schema")
	}
	if cfg.SeedCategories {
		if err := database.SeedCategories(ctx, db); err != nil {
			log.WithError(err).Fatal("seed categories")
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn("redis unreachable: using in-process rate limiting, response cache disabled")
	} else {
		defer rdb.Close()
	}

	// Stays a nil interface when events are disabled.
	var events service.EventPublisher
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue, log.WithField("component", "publisher"))
		defer pub.Close()
		events = pub
		queue.StartOrderConsumer(ctx, cfg.AMQPURL, cfg.EventsQueue,
			filepath.Join("logs", "orders.log"), log.WithField("component", "order-consumer"))
	}

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	orders := repository.NewOrderRepo(db)
	identity := service.NewIdentity(users, repository.NewOwnershipRepo(db), cfg.JWTSecret, cfg.TokenTTL)

	respCache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	accounts := &service.Accounts{
		Users: users, Products: products, Stats: repository.NewStatsRepo(db),
		Identity: identity, BcryptCost: cfg.BcryptCost, Log: log, Cache: respCache,
	}
	catalog := &service.Catalog{
		DB: db, Products: products, Categories: repository.NewCategoryRepo(db),
		Identity: identity, Log: log, Cache: respCache,
	}
	cart := &service.Cart{
		DB: db, Items: repository.NewCartRepo(db), Products: products, Orders: orders,
		Events: events, Log: log,
	}
	orderSvc := &service.Orders{Orders: orders, Products: products, Identity: identity, Events: events, Log: log}
	messaging := &service.Messaging{
		Messages: repository.NewMessageRepo(db), Users: users, Products: products, Log: log,
	}

	opts := handler.Options{Log: log, Timeout: cfg.RequestTimeout}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/healthz", handler.Health(db))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	router.RegisterAll(e, router.Handlers{
		Auth:     handler.NewAuthHandler(accounts, opts),
		Products: handler.NewProductHandler(catalog, opts),
		Cart:     handler.NewCartHandler(cart, opts),
		Orders:   handler.NewOrderHandler(orderSvc, opts),
		Messages: handler.NewMessageHandler(messaging, opts),
		Users:    handler.NewUserHandler(accounts, opts),
	}, identity, respCache.Middleware())

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "db": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}

// newLogger builds the process logger: text in dev, JSON elsewhere.
func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	if cfg.Env == "dev" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	return log
}
