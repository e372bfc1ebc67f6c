package core

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
	handler "github.com/chalosafe/safezone/module/core/internal/handler/http"
	"github.com/chalosafe/safezone/module/core/internal/handler/subscriber"
	"github.com/chalosafe/safezone/module/core/internal/handler/websocket"
	"github.com/chalosafe/safezone/module/core/internal/repository/database/postgres"
	"github.com/chalosafe/safezone/module/core/internal/repository/publisher/rabbitmq"
	redisstate "github.com/chalosafe/safezone/module/core/internal/repository/state/redis"
	"github.com/chalosafe/safezone/module/core/service"
)

type Options struct {
	Workers          int
	QueueSize        int
	RecoveryInterval time.Duration
	SessionTTL       time.Duration
	Location         *time.Location
}

type Module struct {
	Zones        *service.ZoneRegistry
	Monitor      *service.Monitor
	LocationSvc  *service.LocationService
	EmergencySvc *service.EmergencyService

	dispatcher *service.Dispatcher
	hub        *websocket.Hub
	subjects   *handler.SubjectHandler
	safety     *handler.SafetyHandler
	emergency  *handler.EmergencyHandler
	subscriber *subscriber.LocationSubscriber
	opts       Options
	logger     *zap.Logger
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, zones []domain.Zone, opts Options, logger *zap.Logger) (*Module, error) {
	registry := loadRegistry(zones, logger)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("event publisher: %w", err)
	}

	hub := websocket.NewHub(logger.Named("ws"))

	monitor := service.NewMonitor(service.MonitorDeps{
		Zones:     registry,
		Alerts:    postgres.NewAlertRepo(db),
		Scores:    postgres.NewScoreRepo(db),
		Store:     redisstate.NewMembershipStore(redisClient, opts.SessionTTL),
		Publisher: eventPub,
		Notifier:  hub,
		Logger:    logger.Named("monitor"),
	})

	dispatchLog := logger.Named("dispatcher")
	dispatcher := service.NewDispatcher(opts.Workers, opts.QueueSize, func(ctx context.Context, s domain.Sample) {
		if _, err := monitor.Process(ctx, s); err != nil {
			dispatchLog.Warn("sample rejected", zap.String("subject_id", s.SubjectID), zap.Error(err))
		}
	}, dispatchLog)

	locationSvc := service.NewLocationService(postgres.NewLocationRepo(db))
	emergencySvc := service.NewEmergencyService(postgres.NewEmergencyRepo(db), eventPub, hub, logger.Named("emergency"))

	return &Module{
		Zones:        registry,
		Monitor:      monitor,
		LocationSvc:  locationSvc,
		EmergencySvc: emergencySvc,
		dispatcher:   dispatcher,
		hub:          hub,
		subjects:     handler.NewSubjectHandler(locationSvc),
		safety:       handler.NewSafetyHandler(monitor, service.NewAdvisor(opts.Location), registry, locationSvc, logger.Named("http")),
		emergency:    handler.NewEmergencyHandler(emergencySvc),
		subscriber:   subscriber.NewLocationSubscriber(mqttClient, locationSvc, dispatcher, logger.Named("mqtt")),
		opts:         opts,
		logger:       logger,
	}, nil
}

// loadRegistry never fails: rejected zones are skipped, and a file with no
// usable zone leaves the registry empty.
func loadRegistry(zones []domain.Zone, logger *zap.Logger) *service.ZoneRegistry {
	registry := service.NewZoneRegistry(logger.Named("zones"))
	if errs := registry.LoadZones(zones); len(registry.Snapshot()) == 0 {
		logger.Warn("no usable zones, monitoring with an empty zone set",
			zap.Int("configured", len(zones)), zap.Int("rejected", len(errs)))
	}
	return registry
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	return postgres.Migrate(ctx, db)
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.subjects.Register(r)
	m.safety.Register(r)
	m.emergency.Register(r)
	m.hub.Register(r)
}

// Start launches the background workers and subscribes to the location feed.
// The hub and score recovery stop when ctx is done; evaluation workers keep
// their sinks usable until Shutdown drains them.
func (m *Module) Start(ctx context.Context) error {
	go m.hub.Run(ctx)
	m.dispatcher.Start(context.WithoutCancel(ctx))
	go m.Monitor.Run(ctx, m.opts.RecoveryInterval)
	return m.subscriber.Start()
}

// Shutdown waits for queued samples to be evaluated. The MQTT client must be
// disconnected first so nothing is submitted afterwards.
func (m *Module) Shutdown() {
	m.dispatcher.Shutdown()
}
