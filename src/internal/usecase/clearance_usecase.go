package usecase

import (
	"context"
	"fmt"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/pkg/log"

	"github.com/hibiken/asynq"
)

const TaskClearPending = "wallet:clear-pending"

type clearanceTransactionRepository interface {
	FindDueForClearance(ctx context.Context, now time.Time, limit int) ([]entity.WalletTransaction, error)
	MarkCleared(ctx context.Context, id string, clearedAt time.Time) (bool, error)
}

// ClearanceUseCase promotes pending-clearance earnings whose hold period
// has elapsed. Each flip is idempotent, so overlapping sweeps are safe;
// a crash mid-sweep just leaves rows for the next run.
type ClearanceUseCase struct {
	Log                   log.Log
	TransactionRepository clearanceTransactionRepository
	WalletRepository      walletRepository
	Locker                userLocker
	Producer              walletNotifier
	BatchSize             int
	Now                   func() time.Time
}

func NewClearanceUseCase(
	logger log.Log,
	transactionRepo clearanceTransactionRepository,
	walletRepo walletRepository,
	locker userLocker,
	producer walletNotifier,
	batchSize int,
) *ClearanceUseCase {
	return &ClearanceUseCase{
		Log:                   logger,
		TransactionRepository: transactionRepo,
		WalletRepository:      walletRepo,
		Locker:                locker,
		Producer:              producer,
		BatchSize:             batchSize,
		Now:                   func() time.Time { return time.Now().UTC() },
	}
}

// ClearPending runs one sweep and returns the number of cleared rows.
func (c *ClearanceUseCase) ClearPending(ctx context.Context) (int, error) {
	now := c.Now()
	due, err := c.TransactionRepository.FindDueForClearance(ctx, now, c.BatchSize)
	if err != nil {
		c.Log.Error("clearance-usecase", fmt.Sprintf("failed to select due transactions: %v", err), "ClearPending", "")
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	cleared := 0
	affected := make(map[string]bool)

	for i := range due {
		transaction := &due[i]

		release, err := c.Locker.Acquire(ctx, lockKey(transaction.UserID), lockTTL, lockWait)
		if err != nil {
			c.Log.Warn("clearance-usecase", "wallet locked, skipping until next sweep", "ClearPending", transaction.UserID)
			continue
		}

		flipped, err := c.TransactionRepository.MarkCleared(ctx, transaction.ID, now)
		release()
		if err != nil {
			c.Log.Error("clearance-usecase", fmt.Sprintf("failed to clear transaction: %v", err), "ClearPending", transaction.ID)
			continue
		}
		if !flipped {
			// another sweep got there first
			continue
		}

		cleared++
		affected[transaction.UserID] = true

		if c.Producer != nil {
			err = c.Producer.SendNotification(newNotification(transaction.UserID,
				"Funds cleared",
				fmt.Sprintf("%.2f is now available for cashout.", transaction.NetAmount),
				"clearance"))
			if err != nil {
				c.Log.Error("clearance-usecase", fmt.Sprintf("failed to publish notification: %v", err), "ClearPending", transaction.UserID)
			}
		}
	}

	for userID := range affected {
		if _, err := c.WalletRepository.Recompute(ctx, userID); err != nil {
			c.Log.Error("clearance-usecase", fmt.Sprintf("recompute failed: %v", err), "ClearPending", userID)
		}
	}

	c.Log.Info("clearance-usecase", fmt.Sprintf("sweep cleared %d of %d due transactions", cleared, len(due)), "ClearPending", "")
	return cleared, nil
}

// HandleClearPendingTask adapts the sweep for the periodic task scheduler.
func (c *ClearanceUseCase) HandleClearPendingTask(ctx context.Context, _ *asynq.Task) error {
	_, err := c.ClearPending(ctx)
	return err
}
