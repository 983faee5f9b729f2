package main

import (
	"context"
	"strings"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/cascade"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/content"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/crisis"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/handlers"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/metrics"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/realtime"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/seed"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/store"
	"github.com/SeunOnTech/x-clone-backend-sub001/internal/stream"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/auth"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/config"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/database"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/kafka"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/llm"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/monitoring"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/server"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("towncrier")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Towncrier (Crisis Simulation Engine)")

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("towncrier", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("towncrier", version.Version, version.GitCommit)

	// Create custom metrics
	serviceMetrics := metrics.New(metricsCollector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect database and apply schema
	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.RequireEnv("DATABASE_URL")
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	if err := database.ApplySchema(ctx, db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}
	if err := database.ApplyStaticSeeds(ctx, db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply static seeds")
	}

	towncrierStore := store.NewStore(db)

	// Optional Kafka egress for the platform event firehose
	var producer *kafka.Producer
	if brokersEnv := config.GetEnv("KAFKA_BROKERS", ""); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		clientID := config.GetEnv("KAFKA_CLIENT_ID", "towncrier")
		p, err := kafka.NewProducer(brokers, clientID, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Kafka producer")
		}
		producer = p
		defer producer.Close()

		// Create Kafka metrics
		serviceMetrics.KafkaMessages, serviceMetrics.KafkaDuration = metricsCollector.CreateKafkaMetrics()
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(producer.GetClient()))
	}

	// Fan-out hub for WebSocket subscribers
	hub := realtime.NewHub(logger, serviceMetrics, config.GetEnvInt("WS_CLIENT_BUFFER", realtime.DefaultClientBuffer))
	go hub.Run(ctx)

	var broadcaster *realtime.Broadcaster
	if producer != nil {
		broadcaster = realtime.NewBroadcaster(hub, producer, "towncrier", serviceMetrics, logger)
	} else {
		broadcaster = realtime.NewBroadcaster(hub, nil, "towncrier", serviceMetrics, logger)
	}

	// Filtered stream matcher and the post pipeline feeding it
	matcher := stream.NewMatcher(logger)
	pipeline := realtime.NewPipeline(broadcaster, matcher)

	// Content generation: LLM when configured, canned templates otherwise
	var primary content.Generator
	llmConfig := llm.LoadConfig()
	if llmConfig.APIKey != "" || strings.EqualFold(llmConfig.Provider, "ollama") {
		provider, err := llm.NewProvider(llmConfig)
		if err != nil {
			logger.WithError(err).Warn("LLM provider misconfigured, using canned content only")
		} else {
			primary = content.NewLLMGenerator(content.LLMConfig{
				Provider: provider,
				Logger:   logger,
				Timeout:  config.GetEnvDuration("CONTENT_TIMEOUT", 0),
			})
			logger.WithFields(logging.Fields{
				"provider": llmConfig.Provider,
				"model":    llmConfig.Model,
			}).Info("LLM content generation enabled")
		}
	}
	generator := content.NewFailover(primary, content.NewCannedGenerator(), logger)

	// Cascade generator
	cascades := cascade.New(cascade.Config{
		Storage:  towncrierStore,
		Content:  generator,
		Logger:   logger,
		Sink:     pipeline,
		ActorTTL: config.GetEnvDuration("ACTOR_CACHE_TTL", 0),
	})

	// Demo data
	seeder := seed.New(towncrierStore, cascades, matcher, logger)
	if config.GetEnvBool("SEED_ON_BOOT", false) {
		if _, err := seeder.SeedIfEmpty(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to seed demo data")
		}
	}

	// Load persisted stream rules into the matcher
	rules, err := towncrierStore.ListRules(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load stream rules")
	}
	matcher.SetRules(rules)

	// Crisis engine
	engine := crisis.New(crisis.Config{
		Storage:            towncrierStore,
		Cascades:           cascades,
		Logger:             logger,
		Events:             broadcaster,
		Metrics:            serviceMetrics,
		TickInterval:       config.GetEnvDuration("TICK_INTERVAL", 0),
		BackgroundInterval: config.GetEnvDuration("BACKGROUND_INTERVAL", 0),
		BackgroundBaseline: config.GetEnvFloat("BACKGROUND_BASELINE", 0),
		ViewBudget:         config.GetEnvInt("VIEW_BUDGET", 0),
	})

	// Adopt a crisis left active by a previous run before ticking starts
	if err := engine.Recover(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to recover simulation state")
	}
	go engine.Run(ctx)

	// Initialize handlers
	towncrierHandlers := handlers.NewTowncrierHandlers(engine, towncrierStore, matcher, hub, seeder, logger)

	// Add health checks
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbConfig.URL,
	}))

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "towncrier", healthChecker, metricsCollector)

	// Setup WebSocket routes
	router.GET("/ws", towncrierHandlers.HandleWebSocketAll)
	router.GET("/ws/feed", towncrierHandlers.HandleWebSocketFeed)
	router.GET("/ws/stream", towncrierHandlers.HandleWebSocketStream)

	// Admin routes with service auth
	serviceToken := config.RequireEnv("SERVICE_TOKEN")
	admin := router.Group("/admin")
	admin.Use(auth.ServiceAuthMiddleware(serviceToken))
	admin.POST("/crisis/start", towncrierHandlers.HandleStartCrisis)
	admin.GET("/crisis", towncrierHandlers.HandleCrisisStatus)
	admin.POST("/crisis/stop", towncrierHandlers.HandleStopCrisis)
	admin.POST("/crisis/advance", towncrierHandlers.HandleAdvancePhase)
	admin.PUT("/crisis/phase", towncrierHandlers.HandleSetPhase)
	admin.PUT("/crisis/speed", towncrierHandlers.HandleSetSpeed)
	admin.POST("/crisis/pause", towncrierHandlers.HandlePause)
	admin.POST("/crisis/resume", towncrierHandlers.HandleResume)
	admin.POST("/crisis/reset", towncrierHandlers.HandleReset)
	admin.POST("/cascades/run", towncrierHandlers.HandleRunCascade)
	admin.POST("/stream/rules", towncrierHandlers.HandleCreateRule)
	admin.GET("/stream/rules", towncrierHandlers.HandleListRules)
	admin.DELETE("/stream/rules/:id", towncrierHandlers.HandleDeleteRule)
	admin.GET("/posts", towncrierHandlers.HandlePosts)
	admin.GET("/posts/:id", towncrierHandlers.HandlePost)
	admin.GET("/actors", towncrierHandlers.HandleActors)
	admin.POST("/seed", towncrierHandlers.HandleSeed)
	router.NoRoute(towncrierHandlers.HandleNotFound)

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("towncrier", "18030")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
