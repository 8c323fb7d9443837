package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"creative_backend/artifacts"
	"creative_backend/core"
	"creative_backend/core/validation"
	"creative_backend/db"
	"creative_backend/enhance"
	"creative_backend/genclient"
	"creative_backend/logging"
	"creative_backend/metrics"
	"creative_backend/pipeline"
	"creative_backend/shutdown"
	"creative_backend/webui"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Use fmt here since logger isn't initialized yet
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	isDevelopment := os.Getenv("DEV_MODE") == "true"

	logger, err := logging.NewLogger(isDevelopment, "app.log")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return exitCodeError
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Printf("Failed to sync logger: %v\n", syncErr)
		}
	}()

	config, err := core.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", zap.Error(err))
		return exitCodeError
	}

	logger.Info("Configuration loaded",
		zap.String("enhancer_provider", config.EnhancerProvider),
		zap.String("enhancer_url", config.EnhancerURL),
		zap.String("enhancer_model", config.EnhancerModel),
		zap.String("text_to_image_service", config.TextToImageService),
		zap.String("image_to_3d_service", config.ImageTo3DService),
		zap.String("service_domain", config.ServiceDomain),
		zap.Duration("generation_timeout", config.GenerationTimeout),
		zap.String("outputs_dir", config.OutputsDir),
		zap.String("database_path", config.DatabasePath),
		zap.Int("port", config.Port),
		zap.Bool("allow_self_signed_certs", config.AllowSelfSignedCerts),
		zap.Bool("dev_mode", isDevelopment),
	)

	manager := shutdown.NewManager(logger)
	manager.Start()

	// Startup checks. Local prerequisite failures stop the process; remote
	// warnings are informational since every stage degrades on its own.
	suite := validation.NewStartupSuite(config)
	result := suite.Run(manager.Context())
	if !result.Success {
		logger.Error("Startup checks failed",
			zap.Int("passed", result.PassedSteps),
			zap.Int("failed", result.FailedSteps),
			zap.Error(result.GetFirstError()),
		)
		return exitCodeError
	}
	if result.Warnings > 0 {
		logger.Warn("Some remote services are unreachable; generation requests will degrade",
			zap.Int("warnings", result.Warnings),
		)
	}

	// Storage layer: content store and history database.
	store, err := artifacts.NewStore(config.OutputsDir)
	if err != nil {
		logger.Error("Failed to create artifacts store", zap.Error(err))
		return exitCodeError
	}

	database, err := db.NewDatabase(config.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))
		return exitCodeError
	}
	manager.Register("database", 10, func(context.Context) error {
		return database.Close()
	})

	if err := database.Migrate(config.MigrationsPath); err != nil {
		logger.Error("Failed to run database migrations", zap.Error(err))
		return exitCodeError
	}
	history := db.NewHistoryStore(database)

	// Prompt enhancement provider.
	provider, err := enhance.NewProviderFromConfig(config)
	if err != nil {
		logger.Error("Failed to configure prompt enhancer", zap.Error(err))
		return exitCodeError
	}
	enhancer := enhance.NewEnhancer(provider, logger)

	// Remote generation client and the pipeline on top of it all.
	client := genclient.NewClient(config, store, logger)
	metricsStore := metrics.NewStore(100, time.Now())
	orchestrator := pipeline.NewOrchestrator(history, enhancer, client, logger).
		WithMetrics(metricsStore)

	api := webui.NewPipelineAPI(orchestrator, history, store, logger, webui.DefaultPipelineAPIConfig()).
		WithMetrics(metricsStore)

	serverConfig := webui.DefaultServerConfig()
	serverConfig.Port = config.Port
	serverConfig.Host = core.GetEnvOrDefault("HOST", "0.0.0.0")
	server := webui.NewServer(serverConfig, api, logger)
	manager.Register("http-server", 0, func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			manager.Shutdown()
			return exitCodeError
		}
	case <-manager.Context().Done():
	}

	if err := manager.Shutdown(); err != nil {
		logger.Error("Shutdown finished with errors", zap.Error(err))
		return exitCodeError
	}

	logger.Info("Goodbye!")
	return exitCodeSuccess
}
