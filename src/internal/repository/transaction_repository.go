package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/pkg/databases/mysql"

	"github.com/google/uuid"
)

type TransactionRepository struct {
	DB mysql.DBInterface
}

func NewTransactionRepository(db mysql.DBInterface) *TransactionRepository {
	return &TransactionRepository{
		DB: db,
	}
}

const transactionColumns = `
	id, user_id, collaboration_id, cashout_request_id, transaction_type, status,
	gross_amount, platform_fee, platform_fee_percentage, net_amount,
	description, metadata, available_at, cleared_at, created_at
`

func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.WalletTransaction) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO wallet_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		transaction.ID, transaction.UserID,
		transaction.CollaborationID, transaction.CashoutRequestID,
		transaction.TransactionType, transaction.Status,
		transaction.GrossAmount, transaction.PlatformFee,
		transaction.PlatformFeePercentage, transaction.NetAmount,
		transaction.Description, transaction.Metadata,
		transaction.AvailableAt, transaction.ClearedAt,
		transaction.CreatedAt,
	)
	return err
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*entity.WalletTransaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var transaction entity.WalletTransaction
	query := `SELECT ` + transactionColumns + ` FROM wallet_transactions WHERE id = ?`
	err = db.GetContext(ctx, &transaction, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

func (r *TransactionRepository) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.WalletTransaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	var transactions []entity.WalletTransaction
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	err = db.SelectContext(ctx, &transactions, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *TransactionRepository) FindPendingClearance(ctx context.Context, userID string) ([]entity.WalletTransaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var transactions []entity.WalletTransaction
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE user_id = ? AND status = 'pending_clearance'
		ORDER BY available_at ASC
	`
	err = db.SelectContext(ctx, &transactions, query, userID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// FindDueForClearance returns pending transactions whose hold period has
// elapsed. Batched so one sweep cannot hold the table for long.
func (r *TransactionRepository) FindDueForClearance(ctx context.Context, now time.Time, limit int) ([]entity.WalletTransaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 500
	}

	var transactions []entity.WalletTransaction
	query := `
		SELECT ` + transactionColumns + `
		FROM wallet_transactions
		WHERE status = 'pending_clearance' AND available_at <= ?
		ORDER BY available_at ASC
		LIMIT ?
	`
	err = db.SelectContext(ctx, &transactions, query, now, limit)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

// MarkCleared flips one pending transaction to available. The status guard
// makes a repeated flip a no-op, so concurrent sweeps are safe.
func (r *TransactionRepository) MarkCleared(ctx context.Context, id string, clearedAt time.Time) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = 'available', cleared_at = ?
		WHERE id = ? AND status = 'pending_clearance'
	`, clearedAt, id)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

type TransactionStatistics struct {
	EarningCount  int     `db:"earning_count"`
	CashoutCount  int     `db:"cashout_count"`
	LifetimeGross float64 `db:"lifetime_gross"`
	LifetimeFees  float64 `db:"lifetime_fees"`
}

func (r *TransactionRepository) Statistics(ctx context.Context, userID string) (*TransactionStatistics, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var stats TransactionStatistics
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type = 'earning' THEN 1 ELSE 0 END), 0) AS earning_count,
			COALESCE(SUM(CASE WHEN transaction_type = 'cashout' THEN 1 ELSE 0 END), 0) AS cashout_count,
			COALESCE(SUM(CASE WHEN transaction_type = 'earning' THEN gross_amount ELSE 0 END), 0) AS lifetime_gross,
			COALESCE(SUM(CASE WHEN transaction_type = 'earning' THEN platform_fee ELSE 0 END), 0) AS lifetime_fees
		FROM wallet_transactions
		WHERE user_id = ?
	`
	err = db.GetContext(ctx, &stats, query, userID)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
