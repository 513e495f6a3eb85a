package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/cache"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/config"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/handler"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/reaper"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/repository"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/service"
	"github.com/weiawesome/wes-io-live/chatroom-service/internal/validation"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/database"
	pkglog "github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/pubsub"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	logger := pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "chatroom-service",
	})

	namePolicy, err := validation.ParseNamePolicy(cfg.Chat.NamePolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid chat configuration")
	}

	// 3. Init DB (GORM, auto-migrate participants and messages)
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.URL,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	if err := database.AutoMigrate(db, &domain.ParticipantModel{}, &domain.MessageModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// 4. Optional Redis participant cache
	var participantCache cache.ParticipantCache = cache.NopParticipantCache{}
	if cfg.Redis.Address != "" {
		rc, err := cache.NewRedisParticipantCache(cfg.Redis, cfg.Cache.Prefix)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect to redis, participant cache disabled")
		} else {
			participantCache = rc
			logger.Info().Str("addr", cfg.Redis.Address).Msg("redis cache connected")
		}
	}
	defer participantCache.Close()

	// 5. Event bus
	publisher, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		logger.Warn().Err(err).Str("driver", cfg.Events.Driver).Msg("failed to create event publisher, events disabled")
		publisher = pubsub.NopPublisher{}
	}

	// 6. Repositories, service, metrics
	participantRepo := repository.NewGormParticipantRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	m := metrics.New(prometheus.DefaultRegisterer)

	svc := service.NewChatService(
		participantRepo,
		messageRepo,
		validation.New(namePolicy),
		participantCache,
		publisher,
		m,
		service.Config{Channel: cfg.Events.Channel, CacheTTL: cfg.Cache.TTL},
	)

	// 7. Inactivity reaper
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rp := reaper.New(participantRepo, participantCache, publisher, m, cfg.Reaper, cfg.Events.Channel)
	rp.Start(ctx)
	logger.Info().
		Dur("interval", cfg.Reaper.Interval).
		Dur("stale_after", cfg.Reaper.StaleAfter).
		Msg("reaper started")

	// 8. Setup Gin router + HTTP server
	httpHandler := handler.NewHandler(svc, middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(pkglog.GinMiddleware(logger, "/health", "/metrics"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Str("name_policy", string(namePolicy)).Msg("chatroom-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 9. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// Stop sweeping before the store goes away.
		rp.Stop()
		<-rp.Done()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing event publisher")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("chatroom-service stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
