package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emranffl/gain-solutions/internal/cache"
	"github.com/emranffl/gain-solutions/internal/config"
	"github.com/emranffl/gain-solutions/internal/database"
	"github.com/emranffl/gain-solutions/internal/events"
	"github.com/emranffl/gain-solutions/internal/httpx"
	"github.com/emranffl/gain-solutions/internal/orders"
	"github.com/emranffl/gain-solutions/internal/store"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("connect to database")
	}
	defer db.Close()
	log.Info("connected to database")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statusCache := cache.New(cfg.Redis.Addr, cfg.Redis.StatusCacheTTL)
	defer statusCache.Close()

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 1024, log)
	producer.Start(ctx)

	coordinator := orders.NewCoordinator(store.NewSQL(db), log)

	router := httpx.NewRouter(cfg.Server.RequestTimeout)
	oh := &httpx.OrdersHandler{
		DB:          db,
		Coordinator: coordinator,
		Producer:    producer,
		Cache:       statusCache,
		Log:         log,
		Service:     cfg.Service,
	}
	oh.Register(router)
	ch := &httpx.CatalogHandler{DB: db, Log: log}
	ch.Register(router)
	rh := &httpx.ReportsHandler{DB: db, Log: log}
	rh.Register(router)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	producer.Close()
	cancel()
	producer.WaitClosed()
}
