package config

import (
	"wallet-service/src/internal/delivery/http"
	"wallet-service/src/internal/delivery/http/middleware"
	"wallet-service/src/internal/delivery/http/route"
	"wallet-service/src/internal/gateway/messaging"
	"wallet-service/src/internal/gateway/paynow"
	"wallet-service/src/internal/repository"
	"wallet-service/src/internal/usecase"
	"wallet-service/src/pkg/databases/mysql"
	kafkaPkgConfluent "wallet-service/src/pkg/kafka/confluent"
	"wallet-service/src/pkg/lock"
	"wallet-service/src/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

type BootstrapConfig struct {
	DB          mysql.DBInterface
	App         *fiber.App
	Log         log.Log
	Validate    *validator.Validate
	Config      *viper.Viper
	Producer    kafkaPkgConfluent.Producer
	Redis       redis.UniversalClient
	Paynow      *paynow.Client
	AsynqClient *asynq.Client
	Async       *asynq.ServeMux
}

func Bootstrap(config *BootstrapConfig) {
	// setup repositories
	walletRepository := repository.NewWalletRepository(config.DB)
	transactionRepository := repository.NewTransactionRepository(config.DB)
	cashoutRepository := repository.NewCashoutRepository(config.DB)
	paymentRepository := repository.NewPaymentRepository(config.DB)
	walletProducer := messaging.NewWalletProducer(config.Producer, config.Log)
	locker := lock.NewLocker(config.Redis)

	// setup use cases
	walletUseCase := usecase.NewWalletUseCase(
		config.Log,
		config.Validate,
		config.Config,
		walletRepository,
		transactionRepository,
		cashoutRepository,
		locker,
		walletProducer,
	)

	cashoutUseCase := usecase.NewCashoutUseCase(
		config.Log,
		config.Validate,
		config.Config,
		walletRepository,
		cashoutRepository,
		locker,
		walletProducer,
	)

	batchSize := config.Config.GetInt("clearance.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}
	clearanceUseCase := usecase.NewClearanceUseCase(
		config.Log,
		transactionRepository,
		walletRepository,
		locker,
		walletProducer,
		batchSize,
	)

	paymentUseCase := usecase.NewPaymentUseCase(
		config.Log,
		config.Validate,
		config.Config,
		paymentRepository,
		config.Paynow,
		config.Redis,
		walletProducer,
		config.AsynqClient,
	)

	// setup controllers
	walletController := http.NewWalletController(walletUseCase, config.Log)
	cashoutController := http.NewCashoutController(cashoutUseCase, config.Log)
	paymentController := http.NewPaymentController(paymentUseCase, config.Log)
	adminController := http.NewAdminController(cashoutUseCase, walletUseCase, config.Log)

	// setup middleware
	authMiddleware := middleware.VerifyBearer(config.Config)
	adminMiddleware := middleware.VerifyAdmin()

	if config.Async != nil {
		config.Async.HandleFunc(usecase.TaskClearPending, clearanceUseCase.HandleClearPendingTask)
		config.Async.HandleFunc(usecase.TaskPollPaymentStatus, paymentUseCase.HandlePollTask)
	}

	routeConfig := route.RouteConfig{
		App:               config.App,
		WalletController:  walletController,
		CashoutController: cashoutController,
		PaymentController: paymentController,
		AdminController:   adminController,
		AuthMiddleware:    authMiddleware,
		AdminMiddleware:   adminMiddleware,
	}
	routeConfig.Setup()
}
