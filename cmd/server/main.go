package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mbelyaev/pricepulse/internal/api"
	"github.com/mbelyaev/pricepulse/internal/config"
	"github.com/mbelyaev/pricepulse/internal/database"
	"github.com/mbelyaev/pricepulse/internal/notify"
	"github.com/mbelyaev/pricepulse/internal/scheduler"
	"github.com/mbelyaev/pricepulse/internal/scraper"
	"github.com/mbelyaev/pricepulse/internal/tracker"
)

func main() {
	_ = godotenv.Load() // load .env if present; not fatal if missing

	cfg := config.Load()

	log := newLogger(cfg.GinMode)
	defer func() { _ = log.Sync() }()

	// graceful shutdown coordination
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// connect to DB
	pool, err := database.Connect(ctx, cfg.DatabaseDSN())
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("database migrate failed", zap.Error(err))
	}
	log.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))

	store := tracker.NewRepository(pool)

	adapters := scraper.NewRegistry(
		scraper.NewAmazon(nil),
		scraper.NewFlipkart(nil),
		scraper.NewMyntra(nil),
		scraper.NewSnapdeal(nil),
	)

	sender := notify.NewSMTP(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	engine := tracker.NewEngine(store, adapters, sender, log, tracker.Config{
		ScrapeTimeout: cfg.ScrapeTimeout,
		ScrapeDelay:   cfg.ScrapeDelay,
		SummaryWindow: cfg.SummaryWindow,
		Retention:     cfg.Retention,
	})

	// start scheduler
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		// scheduler runs until ctx is cancelled
		scheduler.Run(ctx, log, engine, scheduler.Config{
			AlertInterval:   cfg.AlertInterval,
			ScrapeInterval:  cfg.ScrapeInterval,
			SummaryInterval: cfg.SummaryInterval,
			CleanupInterval: cfg.CleanupInterval,
		})
	}()

	// build router and handlers
	if cfg.GinMode == "" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}
	r := gin.Default()

	h := api.NewHandler(store, adapters, log, cfg.ScrapeTimeout)
	h.Register(r.Group("/api/v1", api.RateLimit(cfg.RateLimit)))
	r.GET("/health", h.Health)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server ListenAndServe", zap.Error(err))
		}
	}()

	// wait for interrupt
	<-ctx.Done()
	log.Info("shutdown signal received")

	// stop accepting new requests, allow 15s to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}

	// wait scheduler to finish (it reacts to ctx)
	wg.Wait()

	// close DB pool (blocks until connections returned)
	pool.Close()

	log.Info("graceful shutdown complete")
}

func newLogger(ginMode string) *zap.Logger {
	if ginMode == gin.ReleaseMode {
		return zap.Must(zap.NewProduction())
	}
	return zap.Must(zap.NewDevelopment())
}
