// Package app assembles the server from configuration: database, cache,
// event publisher, services, HTTP router and background jobs.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campus-eats-api/cache"
	"campus-eats-api/config"
	"campus-eats-api/events"
	"campus-eats-api/handlers"
	"campus-eats-api/jobs"
	"campus-eats-api/metrics"
	"campus-eats-api/middleware"
	"campus-eats-api/routes"
	"campus-eats-api/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config    *config.Config
	Log       *logrus.Logger
	DB        *gorm.DB
	Cache     cache.Cache
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Services  *services.Services
	Tokens    *middleware.TokenIssuer
	Limiter   *middleware.RateLimiter
	Jobs      *jobs.Scheduler
	Router    *gin.Engine
}

// New opens every backend named by cfg, migrates the schema and builds the
// router. Close releases what New opened.
func New(cfg *config.Config, log *logrus.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Log: log}

	db, err := config.OpenDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	a.DB = db
	if err := config.Migrate(db); err != nil {
		a.Close()
		return nil, err
	}

	if a.Cache, err = cache.New(cfg.Cache); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Events.NATSURL != "" {
		if a.Publisher, err = events.NewNATS(cfg.Events.NATSURL); err != nil {
			a.Close()
			return nil, err
		}
		log.WithField("url", cfg.Events.NATSURL).Info("publishing order events to NATS")
	} else {
		a.Publisher = &events.LogPublisher{Log: log}
	}

	a.Metrics = metrics.New()
	a.Services = services.New(services.Deps{
		DB:          db,
		Cache:       a.Cache,
		Publisher:   a.Publisher,
		Metrics:     a.Metrics,
		Log:         log,
		DeliveryFee: cfg.Orders.DeliveryFee,
	})
	a.Tokens = middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).
		WithAccountLookup(a.Services.Users.CurrentRole)
	a.Limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if a.Jobs, err = jobs.New(cfg.Jobs.SubscriptionSweep, a.Services.Subscriptions, log); err != nil {
		a.Close()
		return nil, err
	}

	if err := handlers.RegisterValidators(); err != nil {
		a.Close()
		return nil, fmt.Errorf("register validators: %w", err)
	}
	a.Router = a.router()
	return a, nil
}

func (a *App) router() *gin.Engine {
	gin.SetMode(a.Config.Server.Mode)
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(a.Log),
		middleware.Recovery(a.Log),
		middleware.CORS(),
		a.Metrics.GinMiddleware(),
	)
	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Campus Eats API",
			"docs":    "/api/orders/transitions",
			"health":  "/health",
			"roles":   []string{"student", "vendor", "rider", "admin"},
		})
	})

	h := handlers.New(a.Services, a.Tokens, a.Log)
	routes.SetupRoutes(r, h, a.Tokens, a.Limiter)
	return r
}

// Run serves HTTP and runs the scheduler until ctx is cancelled, then shuts
// both down.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.Jobs.Start()
	go a.Limiter.Run(ctx, time.Minute, 10*time.Minute)

	errCh := make(chan error, 1)
	go func() {
		a.Log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.WithError(err).Warn("http shutdown")
	}
	a.Jobs.Stop(shutdownCtx)
	return serveErr
}

// Close releases the publisher, cache and database connections.
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Log.WithError(err).Warn("close publisher")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.WithError(err).Warn("close cache")
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
