package usecase

import (
	"context"
	"fmt"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/model/converter"
	httpError "wallet-service/src/pkg/http-error"
	"wallet-service/src/pkg/log"
	"wallet-service/src/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type cashoutRepository interface {
	CreateWithDebit(ctx context.Context, cashout *entity.CashoutRequest, debit *entity.WalletTransaction) error
	FindByID(ctx context.Context, id string) (*entity.CashoutRequest, error)
	FindPendingByUserID(ctx context.Context, userID string) (*entity.CashoutRequest, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.CashoutRequest, error)
	ListByStatus(ctx context.Context, status entity.CashoutStatus) ([]entity.CashoutRequest, error)
	MarkApproved(ctx context.Context, id, adminID, notes string) (bool, error)
	MarkRejectedWithRefund(ctx context.Context, id, adminID, notes string, refund *entity.WalletTransaction) (bool, error)
	MarkCancelledWithRefund(ctx context.Context, id, reason string, refund *entity.WalletTransaction) (bool, error)
	MarkFailedWithRefund(ctx context.Context, id, adminID, reason string, refund *entity.WalletTransaction) (bool, error)
	MarkCompleted(ctx context.Context, id, adminID, reference string) (bool, error)
}

type CashoutUseCase struct {
	Log               log.Log
	Validate          *validator.Validate
	Config            *viper.Viper
	WalletRepository  walletRepository
	CashoutRepository cashoutRepository
	Locker            userLocker
	Producer          walletNotifier
}

func NewCashoutUseCase(
	logger log.Log,
	validate *validator.Validate,
	cfg *viper.Viper,
	walletRepo walletRepository,
	cashoutRepo cashoutRepository,
	locker userLocker,
	producer walletNotifier,
) *CashoutUseCase {
	return &CashoutUseCase{
		Log:               logger,
		Validate:          validate,
		Config:            cfg,
		WalletRepository:  walletRepo,
		CashoutRepository: cashoutRepo,
		Locker:            locker,
		Producer:          producer,
	}
}

// Request reserves funds immediately: the available balance is debited at
// request time, not at approval time. Reject and cancel therefore refund.
func (c *CashoutUseCase) Request(ctx context.Context, request *model.CreateCashoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request", utils.ConvertString(request))
		return result
	}

	minimum := c.Config.GetFloat64("wallet.min_cashout")
	if minimum == 0 {
		minimum = 10
	}
	if request.Amount < minimum {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("%s (%.2f)", entity.ErrBelowMinimumCashout.Error(), minimum)
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(request.UserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request", request.UserID)
		return result
	}
	defer release()

	if _, err := c.CashoutRepository.FindPendingByUserID(ctx, request.UserID); err == nil {
		errObj := httpError.NewConflict()
		errObj.Message = entity.ErrCashoutPending.Error()
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request", request.UserID)
		return result
	} else if err != entity.ErrCashoutNotFound {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to check pending cashouts: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request", request.UserID)
		return result
	}

	// refresh the cached balances before the sufficiency check
	wallet, err := c.WalletRepository.Recompute(ctx, request.UserID)
	if err == entity.ErrWalletNotFound {
		errObj := httpError.NewBadRequest()
		errObj.Message = entity.ErrInsufficientBalance.Error()
		result.Error = errObj
		return result
	}
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to load wallet: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request", request.UserID)
		return result
	}

	if wallet.AvailableBalance < request.Amount {
		errObj := httpError.NewBadRequest()
		errObj.Message = entity.ErrInsufficientBalance.Error()
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request",
			fmt.Sprintf("user=%s amount=%.2f available=%.2f", request.UserID, request.Amount, wallet.AvailableBalance))
		return result
	}

	amount := utils.RoundCents(request.Amount)
	feePercent := c.Config.GetFloat64("fees.cashout_percent")
	fee := utils.RoundCents(amount * feePercent / 100)

	cashout := &entity.CashoutRequest{
		UserID:         request.UserID,
		Amount:         amount,
		Fee:            fee,
		NetAmount:      utils.RoundCents(amount - fee),
		PaymentMethod:  request.PaymentMethod,
		PaymentDetails: request.PaymentDetails,
		Status:         entity.CashoutStatusPending,
	}
	debit := &entity.WalletTransaction{
		UserID:                request.UserID,
		TransactionType:       entity.TransactionTypeCashout,
		Status:                entity.TransactionStatusWithdrawn,
		GrossAmount:           amount,
		PlatformFee:           fee,
		PlatformFeePercentage: feePercent,
		NetAmount:             amount,
		Description:           fmt.Sprintf("Cashout via %s", request.PaymentMethod),
	}

	if err := c.CashoutRepository.CreateWithDebit(ctx, cashout, debit); err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to create cashout: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Request", request.UserID)
		return result
	}

	if _, err := c.WalletRepository.Recompute(ctx, request.UserID); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("recompute after request failed: %v", err), "Request", request.UserID)
	}

	c.notify(request.UserID, "Cashout requested",
		fmt.Sprintf("Your cashout of %.2f is pending review.", amount), "cashout")
	c.emitEvent(request.UserID, "cashout_requested", amount, cashout.ID)

	c.Log.Info("cashout-usecase", "cashout requested", "Request", cashout.ID)
	result.Data = converter.CashoutToResponse(cashout)
	return result
}

// Cancel is the creator-side exit from a pending request. The reserved
// amount is refunded in full.
func (c *CashoutUseCase) Cancel(ctx context.Context, request *model.CancelCashoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(request.UserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		return result
	}
	defer release()

	cashout, err := c.CashoutRepository.FindByID(ctx, request.CashoutID)
	if err != nil {
		errObj := httpError.NewNotFound()
		errObj.Message = entity.ErrCashoutNotFound.Error()
		result.Error = errObj
		return result
	}

	if cashout.UserID != request.UserID {
		errObj := httpError.NewForbidden()
		errObj.Message = entity.ErrNotRequestOwner.Error()
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Cancel", request.UserID)
		return result
	}

	if !cashout.Status.CanTransitionTo(entity.CashoutStatusCancelled) {
		errObj := httpError.NewConflict()
		errObj.Message = fmt.Sprintf("%s: cashout cannot be cancelled from status %s", entity.ErrInvalidTransition.Error(), cashout.Status)
		result.Error = errObj
		return result
	}

	refund := refundTransaction(cashout, fmt.Sprintf("Refund for cancelled cashout: %s", request.Reason))
	ok, err := c.CashoutRepository.MarkCancelledWithRefund(ctx, cashout.ID, request.Reason, refund)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to cancel cashout: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Cancel", cashout.ID)
		return result
	}
	if !ok {
		errObj := httpError.NewConflict()
		errObj.Message = "cashout was modified concurrently, reload and retry"
		result.Error = errObj
		return result
	}

	if _, err := c.WalletRepository.Recompute(ctx, cashout.UserID); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("recompute after cancel failed: %v", err), "Cancel", cashout.UserID)
	}

	c.notify(cashout.UserID, "Cashout cancelled",
		fmt.Sprintf("Your cashout of %.2f was cancelled and refunded.", cashout.Amount), "cashout")
	c.emitEvent(cashout.UserID, "cashout_cancelled", cashout.Amount, cashout.ID)

	cashout.Status = entity.CashoutStatusCancelled
	cashout.CancellationReason = &request.Reason
	result.Data = converter.CashoutToResponse(cashout)
	return result
}

func (c *CashoutUseCase) Approve(ctx context.Context, request *model.ApproveCashoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	cashout, err := c.CashoutRepository.FindByID(ctx, request.CashoutID)
	if err != nil {
		errObj := httpError.NewNotFound()
		errObj.Message = entity.ErrCashoutNotFound.Error()
		result.Error = errObj
		return result
	}

	if !cashout.Status.CanTransitionTo(entity.CashoutStatusApproved) {
		errObj := httpError.NewConflict()
		errObj.Message = fmt.Sprintf("%s: cashout cannot be approved from status %s", entity.ErrInvalidTransition.Error(), cashout.Status)
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(cashout.UserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		return result
	}
	defer release()

	// the amount was reserved at request time; a negative balance here
	// means balances were corrected out of band
	if wallet, err := c.WalletRepository.FindByUserID(ctx, cashout.UserID); err == nil && wallet.AvailableBalance < 0 {
		c.Log.Warn("cashout-usecase",
			fmt.Sprintf("negative available balance %.2f at approval", wallet.AvailableBalance),
			"Approve", cashout.UserID)
	}

	ok, err := c.CashoutRepository.MarkApproved(ctx, cashout.ID, request.AdminID, request.Notes)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to approve cashout: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Approve", cashout.ID)
		return result
	}
	if !ok {
		errObj := httpError.NewConflict()
		errObj.Message = "cashout was modified concurrently, reload and retry"
		result.Error = errObj
		return result
	}

	c.notify(cashout.UserID, "Cashout approved",
		fmt.Sprintf("Your cashout of %.2f was approved and will be paid out shortly.", cashout.Amount), "cashout")
	c.emitEvent(cashout.UserID, "cashout_approved", cashout.Amount, cashout.ID)

	cashout.Status = entity.CashoutStatusApproved
	result.Data = converter.CashoutToResponse(cashout)
	return result
}

func (c *CashoutUseCase) Reject(ctx context.Context, request *model.RejectCashoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	cashout, err := c.CashoutRepository.FindByID(ctx, request.CashoutID)
	if err != nil {
		errObj := httpError.NewNotFound()
		errObj.Message = entity.ErrCashoutNotFound.Error()
		result.Error = errObj
		return result
	}

	if !cashout.Status.CanTransitionTo(entity.CashoutStatusRejected) {
		errObj := httpError.NewConflict()
		errObj.Message = fmt.Sprintf("%s: cashout cannot be rejected from status %s", entity.ErrInvalidTransition.Error(), cashout.Status)
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(cashout.UserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		return result
	}
	defer release()

	refund := refundTransaction(cashout, fmt.Sprintf("Refund for rejected cashout: %s", request.Notes))
	ok, err := c.CashoutRepository.MarkRejectedWithRefund(ctx, cashout.ID, request.AdminID, request.Notes, refund)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to reject cashout: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Reject", cashout.ID)
		return result
	}
	if !ok {
		errObj := httpError.NewConflict()
		errObj.Message = "cashout was modified concurrently, reload and retry"
		result.Error = errObj
		return result
	}

	if _, err := c.WalletRepository.Recompute(ctx, cashout.UserID); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("recompute after reject failed: %v", err), "Reject", cashout.UserID)
	}

	c.notify(cashout.UserID, "Cashout rejected",
		fmt.Sprintf("Your cashout of %.2f was rejected and refunded. Reason: %s", cashout.Amount, request.Notes), "cashout")
	c.emitEvent(cashout.UserID, "cashout_rejected", cashout.Amount, cashout.ID)

	cashout.Status = entity.CashoutStatusRejected
	cashout.AdminNotes = &request.Notes
	result.Data = converter.CashoutToResponse(cashout)
	return result
}

func (c *CashoutUseCase) Complete(ctx context.Context, request *model.CompleteCashoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	cashout, err := c.CashoutRepository.FindByID(ctx, request.CashoutID)
	if err != nil {
		errObj := httpError.NewNotFound()
		errObj.Message = entity.ErrCashoutNotFound.Error()
		result.Error = errObj
		return result
	}

	if !cashout.Status.CanTransitionTo(entity.CashoutStatusCompleted) {
		errObj := httpError.NewConflict()
		errObj.Message = fmt.Sprintf("%s: cashout cannot be completed from status %s", entity.ErrInvalidTransition.Error(), cashout.Status)
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(cashout.UserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		return result
	}
	defer release()

	ok, err := c.CashoutRepository.MarkCompleted(ctx, cashout.ID, request.AdminID, request.Reference)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to complete cashout: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Complete", cashout.ID)
		return result
	}
	if !ok {
		errObj := httpError.NewConflict()
		errObj.Message = "cashout was modified concurrently, reload and retry"
		result.Error = errObj
		return result
	}

	if _, err := c.WalletRepository.Recompute(ctx, cashout.UserID); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("recompute after complete failed: %v", err), "Complete", cashout.UserID)
	}

	c.notify(cashout.UserID, "Cashout completed",
		fmt.Sprintf("Your cashout of %.2f was paid out. Reference: %s", cashout.Amount, request.Reference), "cashout")
	c.emitEvent(cashout.UserID, "cashout_completed", cashout.Amount, cashout.ID)

	cashout.Status = entity.CashoutStatusCompleted
	cashout.TransactionReference = &request.Reference
	result.Data = converter.CashoutToResponse(cashout)
	return result
}

// Fail is the admin override for an approved payout that could not be
// executed. The reserved funds are returned.
func (c *CashoutUseCase) Fail(ctx context.Context, request *model.FailCashoutRequest) utils.Result {
	var result utils.Result

	if err := c.Validate.Struct(request); err != nil {
		errObj := httpError.NewBadRequest()
		errObj.Message = fmt.Sprintf("validation error: %v", err.Error())
		result.Error = errObj
		return result
	}

	cashout, err := c.CashoutRepository.FindByID(ctx, request.CashoutID)
	if err != nil {
		errObj := httpError.NewNotFound()
		errObj.Message = entity.ErrCashoutNotFound.Error()
		result.Error = errObj
		return result
	}

	if !cashout.Status.CanTransitionTo(entity.CashoutStatusFailed) {
		errObj := httpError.NewConflict()
		errObj.Message = fmt.Sprintf("%s: cashout cannot be failed from status %s", entity.ErrInvalidTransition.Error(), cashout.Status)
		result.Error = errObj
		return result
	}

	release, err := c.Locker.Acquire(ctx, lockKey(cashout.UserID), lockTTL, lockWait)
	if err != nil {
		errObj := httpError.NewConflict()
		errObj.Message = "wallet is busy, retry shortly"
		result.Error = errObj
		return result
	}
	defer release()

	refund := refundTransaction(cashout, fmt.Sprintf("Refund for failed cashout: %s", request.Reason))
	ok, err := c.CashoutRepository.MarkFailedWithRefund(ctx, cashout.ID, request.AdminID, request.Reason, refund)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to mark cashout failed: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "Fail", cashout.ID)
		return result
	}
	if !ok {
		errObj := httpError.NewConflict()
		errObj.Message = "cashout was modified concurrently, reload and retry"
		result.Error = errObj
		return result
	}

	if _, err := c.WalletRepository.Recompute(ctx, cashout.UserID); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("recompute after fail failed: %v", err), "Fail", cashout.UserID)
	}

	c.notify(cashout.UserID, "Cashout failed",
		fmt.Sprintf("Your cashout of %.2f could not be paid out and was refunded.", cashout.Amount), "cashout")
	c.emitEvent(cashout.UserID, "cashout_failed", cashout.Amount, cashout.ID)

	cashout.Status = entity.CashoutStatusFailed
	cashout.FailureReason = &request.Reason
	result.Data = converter.CashoutToResponse(cashout)
	return result
}

func (c *CashoutUseCase) ListPending(ctx context.Context) utils.Result {
	var result utils.Result

	cashouts, err := c.CashoutRepository.ListByStatus(ctx, entity.CashoutStatusPending)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to list pending cashouts: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "ListPending", "")
		return result
	}

	result.Data = converter.CashoutsToResponse(cashouts)
	return result
}

func (c *CashoutUseCase) ListMine(ctx context.Context, userID string, limit, offset int) utils.Result {
	var result utils.Result

	cashouts, err := c.CashoutRepository.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		errObj := httpError.NewInternalServerError()
		errObj.Message = fmt.Sprintf("failed to list cashouts: %v", err)
		result.Error = errObj
		c.Log.Error("cashout-usecase", errObj.Message, "ListMine", userID)
		return result
	}

	result.Data = converter.CashoutsToResponse(cashouts)
	return result
}

func refundTransaction(cashout *entity.CashoutRequest, description string) *entity.WalletTransaction {
	return &entity.WalletTransaction{
		UserID:          cashout.UserID,
		TransactionType: entity.TransactionTypeRefund,
		Status:          entity.TransactionStatusAvailable,
		GrossAmount:     cashout.Amount,
		NetAmount:       cashout.Amount,
		Description:     description,
	}
}

func (c *CashoutUseCase) notify(userID, title, message, kind string) {
	if c.Producer == nil {
		return
	}
	event := newNotification(userID, title, message, kind)
	if err := c.Producer.SendNotification(event); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("failed to publish notification: %v", err), "notify", userID)
	}
}

func (c *CashoutUseCase) emitEvent(userID, eventType string, amount float64, reference string) {
	if c.Producer == nil {
		return
	}
	event := newWalletEvent(userID, eventType, amount, reference)
	if err := c.Producer.SendWalletEvent(event); err != nil {
		c.Log.Error("cashout-usecase", fmt.Sprintf("failed to publish wallet event: %v", err), "emitEvent", userID)
	}
}
