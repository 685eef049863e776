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

type WalletRepository struct {
	DB mysql.DBInterface
}

func NewWalletRepository(db mysql.DBInterface) *WalletRepository {
	return &WalletRepository{
		DB: db,
	}
}

func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*entity.Wallet, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var wallet entity.Wallet
	query := `
		SELECT id, user_id, pending_clearance, available_balance, withdrawn_total, total_earned, created_at, updated_at
		FROM wallets
		WHERE user_id = ?
	`
	err = db.GetContext(ctx, &wallet, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func (r *WalletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	if wallet.ID == "" {
		wallet.ID = uuid.New().String()
	}
	wallet.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO wallets (id, user_id, pending_clearance, available_balance, withdrawn_total, total_earned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		wallet.ID, wallet.UserID,
		wallet.PendingClearance, wallet.AvailableBalance,
		wallet.WithdrawnTotal, wallet.TotalEarned,
		wallet.CreatedAt,
	)
	return err
}

// Recompute folds the transaction log and cashout history into the four
// cached balances and persists them. The wallet row is locked for the
// duration so concurrent recomputes serialize at the database.
func (r *WalletRepository) Recompute(ctx context.Context, userID string) (*entity.Wallet, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var wallet entity.Wallet
	err = tx.GetContext(ctx, &wallet, `
		SELECT id, user_id, pending_clearance, available_balance, withdrawn_total, total_earned, created_at, updated_at
		FROM wallets
		WHERE user_id = ?
		FOR UPDATE
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}

	var balances entity.WalletBalances
	err = tx.GetContext(ctx, &balances, `
		SELECT
			COALESCE(SUM(CASE WHEN transaction_type IN ('earning', 'bonus') AND status = 'pending_clearance'
				THEN net_amount ELSE 0 END), 0) AS pending_clearance,
			COALESCE(SUM(CASE
				WHEN transaction_type IN ('earning', 'bonus') AND status = 'available' THEN net_amount
				WHEN transaction_type = 'refund' THEN net_amount
				WHEN transaction_type = 'cashout' THEN -net_amount
				WHEN transaction_type = 'fee' THEN -net_amount
				ELSE 0 END), 0) AS available_balance,
			0 AS withdrawn_total,
			COALESCE(SUM(CASE WHEN transaction_type = 'earning' AND status NOT IN ('failed', 'cancelled')
				THEN net_amount ELSE 0 END), 0) AS total_earned
		FROM wallet_transactions
		WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &balances.WithdrawnTotal, `
		SELECT COALESCE(SUM(amount), 0)
		FROM cashout_requests
		WHERE user_id = ? AND status = 'completed'
	`, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		UPDATE wallets
		SET pending_clearance = ?, available_balance = ?, withdrawn_total = ?, total_earned = ?, updated_at = ?
		WHERE user_id = ?
	`, balances.PendingClearance, balances.AvailableBalance, balances.WithdrawnTotal, balances.TotalEarned, now, userID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	wallet.PendingClearance = balances.PendingClearance
	wallet.AvailableBalance = balances.AvailableBalance
	wallet.WithdrawnTotal = balances.WithdrawnTotal
	wallet.TotalEarned = balances.TotalEarned
	wallet.UpdatedAt = &now

	return &wallet, nil
}
