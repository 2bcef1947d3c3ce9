package bootstrap

import (
	"context"
	"time"

	"paperchat-be/internal/config"
	"paperchat-be/internal/controller"
	"paperchat-be/internal/handler"
	"paperchat-be/internal/pkg/logger"
	"paperchat-be/internal/pkg/serverutils"
	"paperchat-be/internal/repository/memory"
	"paperchat-be/internal/repository/unitofwork"
	"paperchat-be/internal/service"
	"paperchat-be/internal/websocket"
	"paperchat-be/pkg/events"
	"paperchat-be/pkg/rag/modelconfig"
	"paperchat-be/pkg/rag/orchestrator"
	"paperchat-be/pkg/rag/pipeline"

	pktNats "paperchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger
	Auth   fiber.Handler

	// Controllers
	ChatController        controller.IChatController
	ModelConfigController controller.IModelConfigController
	TurnStreamHandler     *handler.TurnStreamHandler

	// Background Services (Exposed for main.go to run)
	ArchiveConsumer service.IArchiveConsumerService
	FaultMonitor    service.IFaultMonitorService // nil without NATS
	WebSocketHub    *websocket.Hub

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	turnLogger := logger.NewIsolatedLogger(cfg.App.TurnLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	publishers := events.Multi{service.NewArchivePublisher(cfg.Ai.ArchiveTopic, pubSub)}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "NATS publisher unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		publishers = append(publishers, natsPub)
		c.closers = append(c.closers, natsPub.Close)
	}

	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
	if err != nil {
		sysLogger.Warn("Bootstrap", "NATS subscriber unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		c.FaultMonitor = service.NewFaultMonitorService(natsSub, sysLogger)
		c.closers = append(c.closers, natsSub.Close)
	}

	// 3. Redis-backed live model configuration
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		sysLogger.Warn("Bootstrap", "Redis unreachable, turns will fault until it is back", map[string]interface{}{"error": err.Error()})
	}
	configSource := modelconfig.NewRedisSource(rdb, cfg.Ai.ModelConfigKey, cfg.ModelDefaults())

	// WebSocket Hub
	c.WebSocketHub = websocket.NewHub(rdb, sysLogger)
	publishers = append(publishers, c.WebSocketHub)

	sysLogger.Info("Bootstrap", "Default model configuration", map[string]interface{}{
		"config": cfg.ModelDefaults().String(),
	})

	// 4. Dialogue
	pipelineFactory := pipeline.NewFactory(cfg.ProviderKeys(), turnLogger)
	orch := orchestrator.New(configSource, pipelineFactory, turnLogger,
		orchestrator.WithPublisher(publishers),
	)
	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.App.SessionTTLMinutes) * time.Minute)

	// 5. Services
	chatService := service.NewChatService(uowFactory, sessionRepo, orch, sysLogger)
	modelConfigService := service.NewModelConfigService(configSource, sysLogger)
	c.ArchiveConsumer = service.NewArchiveConsumerService(pubSub, cfg.Ai.ArchiveTopic, uowFactory, turnLogger)

	// 6. Controllers
	c.Auth = serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.ChatController = controller.NewChatController(chatService)
	c.ModelConfigController = controller.NewModelConfigController(modelConfigService, c.FaultMonitor)
	c.TurnStreamHandler = handler.NewTurnStreamHandler(c.WebSocketHub, sysLogger)

	return c
}

// Close releases bus and cache connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
