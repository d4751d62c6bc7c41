package bootstrap

import (
	"context"
	"log"

	"watchfolio-be/internal/config"
	"watchfolio-be/internal/controller"
	"watchfolio-be/internal/handler"
	"watchfolio-be/internal/pkg/logger"
	"watchfolio-be/internal/repository/memory"
	"watchfolio-be/internal/repository/unitofwork"
	"watchfolio-be/internal/service"
	"watchfolio-be/internal/websocket"
	"watchfolio-be/pkg/retrieval"

	pktNats "watchfolio-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AssistantController controller.IAssistantController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub

	// Exposed for graceful shutdown
	Registry *memory.ControllerRegistry
	Logger   logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Retrieval Client
	var retriever retrieval.Client = retrieval.NewHTTPClient(cfg.Retrieval.BaseURL)
	if rdb != nil {
		retriever = retrieval.NewCachedClient(retriever, rdb, cfg.Retrieval.CacheTTL, sysLogger)
	}

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.InteractionTopic, pubSub)
	// A typed nil inside the interface would defeat the consumer's nil
	// check, so the broker is only assigned when the connection exists.
	var eventPub service.EventPublisher
	if natsPub != nil {
		eventPub = natsPub
	}
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.InteractionTopic,
		eventPub,
		sysLogger,
	)
	reporter := service.NewInteractionReporter(publisherService)

	registry := memory.NewControllerRegistry()

	assistantService := service.NewAssistantService(
		uowFactory,
		registry,
		retriever,
		reporter,
		wsHub,
		sysLogger,
		cfg.Assistant.DebounceDelay,
		cfg.Assistant.RevealInterval,
	)

	// 5. Handlers & Controllers
	streamHandler := handler.NewStreamHandler(wsHub, wsLogger)

	return &Container{
		AssistantController: controller.NewAssistantController(assistantService),
		ConsumerService:     consumerService,
		StreamHandler:       streamHandler,
		WebSocketHub:        wsHub,
		Registry:            registry,
		Logger:              sysLogger,
	}
}
