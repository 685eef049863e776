package config

import (
	"fmt"

	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
	"github.com/spf13/viper"
)

func asynqRedisOpt(v *viper.Viper) asynq.RedisClientOpt {
	host := v.GetString("redis.host")
	if host == "" {
		host = "127.0.0.1"
	}

	port := v.GetInt("redis.port")
	if port == 0 {
		port = 6379
	}

	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

func NewAsynqClient(v *viper.Viper) *asynq.Client {
	return asynq.NewClient(asynqRedisOpt(v))
}

func NewAsynqServer(v *viper.Viper) *asynq.Server {
	concurrency := v.GetInt("asynq.concurrency")
	if concurrency == 0 {
		concurrency = 5
	}

	return asynq.NewServer(asynqRedisOpt(v), asynq.Config{
		Concurrency: concurrency,
	})
}

// NewAsynqScheduler registers the recurring clearance sweep. One-off tasks
// (payment polls) are enqueued directly by the use cases.
func NewAsynqScheduler(v *viper.Viper, logger log.Log, clearPendingTask string) *asynq.Scheduler {
	scheduler := asynq.NewScheduler(asynqRedisOpt(v), nil)

	cron := v.GetString("clearance.cron")
	if cron == "" {
		cron = "@every 1h"
	}

	if _, err := scheduler.Register(cron, asynq.NewTask(clearPendingTask, nil)); err != nil {
		logger.Error("asynq-config", fmt.Sprintf("Failed to register clearance sweep: %v", err), "asynq", "")
	}

	return scheduler
}
