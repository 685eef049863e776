package usecase

import (
	"context"
	"fmt"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/model/converter"
	"wallet-service/src/internal/repository"
	httpError "wallet-service/src/pkg/http-error"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

type walletRepository interface {
	FindByUserID(ctx context.Context, userID string) (*entity.Wallet, error)
	Create(ctx context.Context, wallet *entity.Wallet) error
	Recompute(ctx context.Context, userID string) (*entity.Wallet, error)
}

type transactionRepository interface {
	Create(ctx context.Context, transaction *entity.WalletTransaction) error
	FindByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.WalletTransaction, error)
	FindPendingClearance(ctx context.Context, userID string) ([]entity.WalletTransaction, error)
	Statistics(ctx context.Context, userID string) (*repository.TransactionStatistics, error)
}

type userLocker interface {
	Acquire(ctx context.Context, key string, ttl, maxWait time.Duration) (func(), error)
}

type walletNotifier interface {
	SendNotification(event *model.NotificationEvent) error
	SendWalletEvent(event *model.WalletEvent) error
}

type WalletUseCase struct {
	Log                   log.Log
	Validate              *validator.Validate
	Config                *viper.Viper
	WalletRepository      walletRepository
	TransactionRepository transactionRepository
	CashoutRepository     cashoutRepository
	Locker                userLocker
	Producer              walletNotifier
}

func NewWalletUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	walletRepo walletRepository,
	transactionRepo transactionRepository,
	cashoutRepo cashoutRepository,
	locker userLocker,
	producer walletNotifier,
) *WalletUseCase {
	return &WalletUseCase{
		Log:                   logger,
		Validate:              validate,
		Config:                cfg,
		WalletRepository:      walletRepo,
		TransactionRepository: transactionRepo,
		CashoutRepository:     cashoutRepo,
		Locker:                locker,
		Producer:              producer,
	}
}

// getOrCreate returns the user's wallet, creating an all-zero one on
// first access.
func (c *WalletUseCase) getOrCreate(ctx context.Context, userID string) (*entity.Wallet, error) {
	wallet, err := c.WalletRepository.FindByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if err != entity.ErrWalletNotFound {
		return nil, err
	}

	wallet = &entity.Wallet{UserID: userID}
	if createErr := c.WalletRepository.Create(ctx, wallet); createErr != nil {
		// concurrent first access may have created it already
		if existing, findErr := c.WalletRepository.FindByUserID(ctx, userID); findErr == nil {
			return existing, nil
		}
		return nil, createErr
	}
	return wallet, nil
}

func (c *WalletUseCase) GetBalance(ctx context.Context, userID string) utils.Result {
	var result utils.Result

	wallet, err := c.getOrCreate(ctx, userID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to load wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "GetBalance", userID)
		return result
	}

	result.Data = converter.WalletToBalanceResponse(wallet)
	return result
}

func (c *WalletUseCase) GetStatistics(ctx context.Context, userID string) utils.Result {
	var result utils.Result

	wallet, err := c.getOrCreate(ctx, userID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to load wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "GetStatistics", userID)
		return result
	}

	stats, err := c.TransactionRepository.Statistics(ctx, userID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to load statistics: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "GetStatistics", userID)
		return result
	}

	response := &model.StatisticsResponse{
		BalanceResponse: *converter.WalletToBalanceResponse(wallet),
		EarningCount:    stats.EarningCount,
		CashoutCount:    stats.CashoutCount,
		LifetimeGross:   stats.LifetimeGross,
		LifetimeFees:    stats.LifetimeFees,
	}

	if pending, err := c.TransactionRepository.FindPendingClearance(ctx, userID); err == nil && len(pending) > 0 {
		if pending[0].AvailableAt != nil {
			next := pending[0].AvailableAt.Format(time.RFC3339)
			response.NextClearanceAt = &next
		}
	}

	if cashout, err := c.CashoutRepository.FindPendingByUserID(ctx, userID); err == nil {
		response.PendingCashoutID = &cashout.ID
	}

	result.Data = response
	return result
}

func (c *WalletUseCase) ListTransactions(ctx context.Context, request *model.TransactionListRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "ListTransactions", utils.ConvertString(request))
		return result
	}

	transactions, err := c.TransactionRepository.FindByUserID(ctx, request.UserID, request.Limit, request.Offset)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to list transactions: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "ListTransactions", request.UserID)
		return result
	}

	result.Data = converter.TransactionsToResponse(transactions)
	return result
}

func (c *WalletUseCase) ListPendingClearance(ctx context.Context, userID string) utils.Result {
	var result utils.Result

	transactions, err := c.TransactionRepository.FindPendingClearance(ctx, userID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to list pending clearance: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "ListPendingClearance", userID)
		return result
	}

	result.Data = converter.TransactionsToResponse(transactions)
	return result
}

// RecordEarning turns a completed collaboration into a pending-clearance
// earning. Fee percent depends on whether the completion is a milestone.
func (c *WalletUseCase) RecordEarning(ctx context.Context, request *model.CollaborationCompletedRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordEarning", utils.ConvertString(request))
		return result
	}

	feePercent := c.Config.GetFloat64("fees.completion_percent")
	if request.Milestone {
		feePercent = c.Config.GetFloat64("fees.milestone_percent")
	}
	clearanceDays := c.Config.GetInt("wallet.clearance_days")
	if clearanceDays == 0 {
		clearanceDays = 30
	}

	release, err := c.Locker.Acquire(ctx, lockKey(request.CreatorUserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordEarning", request.CreatorUserID)
		return result
	}
	defer release()

	if _, err := c.getOrCreate(ctx, request.CreatorUserID); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to load wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordEarning", request.CreatorUserID)
		return result
	}

	fee := utils.RoundCents(request.GrossAmount * feePercent / 100)
	net := utils.RoundCents(request.GrossAmount - fee)
	availableAt := time.Now().UTC().Add(time.Duration(clearanceDays) * 24 * time.Hour)

	transaction := &entity.WalletTransaction{
		UserID:                request.CreatorUserID,
		CollaborationID:       &request.CollaborationID,
		TransactionType:       entity.TransactionTypeEarning,
		Status:                entity.TransactionStatusPendingClearance,
		GrossAmount:           request.GrossAmount,
		PlatformFee:           fee,
		PlatformFeePercentage: feePercent,
		NetAmount:             net,
		Description:           fmt.Sprintf("Earning from collaboration %s", request.CollaborationID),
		AvailableAt:           &availableAt,
	}

	if err := c.TransactionRepository.Create(ctx, transaction); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to record earning: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordEarning", request.CreatorUserID)
		return result
	}

	wallet, err := c.WalletRepository.Recompute(ctx, request.CreatorUserID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to recompute wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordEarning", request.CreatorUserID)
		return result
	}

	c.notify(request.CreatorUserID, "Earning recorded",
		fmt.Sprintf("You earned %.2f (net of %.0f%% fee). Funds clear on %s.", net, feePercent, availableAt.Format("2 Jan 2006")),
		"earning")
	c.emitEvent(request.CreatorUserID, "earning_recorded", net, transaction.ID)

	c.Log.Info("wallet-usecase", "earning recorded", "RecordEarning", transaction.ID)
	result.Data = map[string]interface{}{
		"transaction": converter.TransactionToResponse(transaction),
		"wallet":      converter.WalletToBalanceResponse(wallet),
	}
	return result
}

// RecordAdjustment creates an immediate bonus or fee row. Admin only.
func (c *WalletUseCase) RecordAdjustment(ctx context.Context, userID string, transactionType entity.TransactionType, amount float64, description string) utils.Result {
	var result utils.Result

	if transactionType != entity.TransactionTypeBonus && transactionType != entity.TransactionTypeFee {
		errObj := httpError.NewBadRequest()
		errObj.Message = "adjustment type must be bonus or fee"
		result.Error = errObj
		return result
	}
	if amount <= 0 {
		errObj := httpError.NewBadRequest()
		errObj.Message = "amount must be greater than zero"
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(userID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordAdjustment", userID)
		return result
	}
	defer release()

	wallet, err := c.getOrCreate(ctx, userID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to load wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordAdjustment", userID)
		return result
	}

	status := entity.TransactionStatusAvailable
	if transactionType == entity.TransactionTypeFee {
		status = entity.TransactionStatusCompleted
		if wallet.AvailableBalance < amount {
			errObj := httpError.NewBadRequest()
			errObj.Message = entity.ErrInsufficientBalance.Error()
			result.Error = errObj
			return result
		}
	}

	amount = utils.RoundCents(amount)
	transaction := &entity.WalletTransaction{
		UserID:          userID,
		TransactionType: transactionType,
		Status:          status,
		GrossAmount:     amount,
		NetAmount:       amount,
		Description:     description,
	}

	if err := c.TransactionRepository.Create(ctx, transaction); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to record adjustment: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordAdjustment", userID)
		return result
	}

	updated, err := c.WalletRepository.Recompute(ctx, userID)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to recompute wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "RecordAdjustment", userID)
		return result
	}

	c.emitEvent(userID, string(transactionType)+"_recorded", amount, transaction.ID)

	result.Data = map[string]interface{}{
		"transaction": converter.TransactionToResponse(transaction),
		"wallet":      converter.WalletToBalanceResponse(updated),
	}
	return result
}

// Recompute rebuilds the cached balances from the ledger. Exposed for the
// admin console after out-of-band corrections.
func (c *WalletUseCase) Recompute(ctx context.Context, userID string) utils.Result {
	var result utils.Result

	release, err := c.Locker.Acquire(ctx, lockKey(userID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		return result
	}
	defer release()

	wallet, err := c.WalletRepository.Recompute(ctx, userID)
	if err == entity.ErrWalletNotFound {
		errObj := httpError.NewNotFound()
		errObj.Message = fmt.Sprintf("wallet for user %s not found", userID)
		result.Error = errObj
		return result
	}
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to recompute wallet: %v", err)
		result.Error = errObj
		c.Log.Error("wallet-usecase", errObj.Message, "Recompute", userID)
		return result
	}

	result.Data = converter.WalletToBalanceResponse(wallet)
	return result
}

func (c *WalletUseCase) notify(userID, title, message, kind string) {
	if c.Producer == nil {
		return
	}
	if err := c.Producer.SendNotification(newNotification(userID, title, message, kind)); err != nil {
		c.Log.Error("wallet-usecase", fmt.Sprintf("failed to publish notification: %v", err), "notify", userID)
	}
}

func (c *WalletUseCase) emitEvent(userID, eventType string, amount float64, reference string) {
	if c.Producer == nil {
		return
	}
	if err := c.Producer.SendWalletEvent(newWalletEvent(userID, eventType, amount, reference)); err != nil {
		c.Log.Error("wallet-usecase", fmt.Sprintf("failed to publish wallet event: %v", err), "emitEvent", userID)
	}
}

const (
	lockTTL  = 10 * time.Second
	lockWait = 3 * time.Second
)

func lockKey(userID string) string {
	return "WALLET:LOCK:" + userID
}

func newNotification(userID, title, message, kind string) *model.NotificationEvent {
	return &model.NotificationEvent{
		EventID: uuid.New().String(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    kind,
	}
}

func newWalletEvent(userID, eventType string, amount float64, reference string) *model.WalletEvent {
	return &model.WalletEvent{
		EventID:   uuid.New().String(),
		UserID:    userID,
		Type:      eventType,
		Amount:    amount,
		Reference: reference,
	}
}
