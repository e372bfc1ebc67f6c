package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/config"
	"github.com/chalosafe/safezone/module/core"
)

func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat, "chalosafe-server")
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.NewPostgres(ctx, cfg)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := core.Migrate(ctx, db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	redisClient, err := config.NewRedis(ctx, cfg)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer func() { _ = redisClient.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg, "chalosafe-server")
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		logger.Fatal("mqtt", zap.Error(err))
	}

	zones, err := config.LoadZones(cfg.ZonesFile)
	if err != nil {
		logger.Fatal("zones", zap.String("file", cfg.ZonesFile), zap.Error(err))
	}

	coreModule, err := core.Build(db, amqpConn, mqttClient, redisClient, zones, core.Options{
		Workers:          cfg.Workers,
		QueueSize:        256,
		RecoveryInterval: cfg.RecoveryInterval,
		SessionTTL:       cfg.SessionTTL,
		Location:         cfg.Location(),
	}, logger)
	if err != nil {
		logger.Fatal("core module", zap.Error(err))
	}

	if err := coreModule.Start(ctx); err != nil {
		logger.Fatal("start core module", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	health := config.NewHealthChecker(db, amqpConn, mqttClient, redisClient)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}
	go func() {
		logger.Info("listening", zap.String("port", cfg.HTTPPort), zap.Int("zones", len(coreModule.Zones.ListZones())))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}

	mqttClient.Disconnect(250)
	coreModule.Shutdown()
}
