package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wallet-service/src/internal/config"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
)

func main() {
	viperConfig := config.NewViper()
	viperConfig.SetDefault("log.level", "DEBUG")
	viperConfig.SetDefault("app.name", "WALLET_SERVICE")
	viperConfig.SetDefault("web.port", 8080)
	viperConfig.SetDefault("wallet.clearance_days", 30)
	viperConfig.SetDefault("wallet.min_cashout", 10)
	viperConfig.SetDefault("fees.milestone_percent", 10)
	viperConfig.SetDefault("fees.completion_percent", 15)
	viperConfig.SetDefault("fees.cashout_percent", 0)

	log.InitLogger(viperConfig)
	logger := log.GetLogger()

	config.NewKafkaConfig(viperConfig)
	config.LoadRedisConfig(viperConfig)
	db := config.NewDatabase(viperConfig, logger)
	redisClient := config.NewRedis()
	producer := config.NewKafkaProducer(viperConfig, logger)
	validate := config.NewValidator(viperConfig)
	paynowClient := config.NewPaynowClient(viperConfig, logger)
	asynqClient := config.NewAsynqClient(viperConfig)
	asynqServer := config.NewAsynqServer(viperConfig)
	asynqMux := asynq.NewServeMux()
	app := config.NewFiber(viperConfig)

	config.Bootstrap(&config.BootstrapConfig{
		DB:          db,
		App:         app,
		Log:         logger,
		Validate:    validate,
		Config:      viperConfig,
		Producer:    producer,
		Redis:       redisClient,
		Paynow:      paynowClient,
		AsynqClient: asynqClient,
		Async:       asynqMux,
	})

	go func() {
		if err := asynqServer.Run(asynqMux); err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start task server: %v", err), "main", "")
		}
	}()

	scheduler := config.NewAsynqScheduler(viperConfig, logger, usecase.TaskClearPending)
	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start scheduler: %v", err), "main", "")
		}
	}()

	go func() {
		webPort := viperConfig.GetInt("web.port")
		if err := app.Listen(fmt.Sprintf(":%d", webPort)); err != nil {
			logger.Error("main", fmt.Sprintf("Failed to start server: %v", err), "main", "")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("main", "Server wallet-service is shutting down...", "graceful", "")

	scheduler.Shutdown()
	asynqServer.Shutdown()
	if err := app.Shutdown(); err != nil {
		logger.Error("main", fmt.Sprintf("Error during shutdown: %v", err), "graceful", "")
	}
	if producer != nil {
		producer.Close()
	}
	if err := asynqClient.Close(); err != nil {
		logger.Error("main", fmt.Sprintf("Error closing task client: %v", err), "graceful", "")
	}
	if err := db.Close(); err != nil {
		logger.Error("main", fmt.Sprintf("Error closing database: %v", err), "graceful", "")
	}

	logger.Info("main", fmt.Sprintf("Server %s stopped", viperConfig.GetString("app.name")), "graceful", "")
}
