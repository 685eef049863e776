package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/pkg/databases/mysql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CashoutRepository struct {
	DB mysql.DBInterface
}

func NewCashoutRepository(db mysql.DBInterface) *CashoutRepository {
	return &CashoutRepository{
		DB: db,
	}
}

const cashoutColumns = `
	id, user_id, amount, fee, net_amount, payment_method, payment_details, status,
	admin_id, admin_notes, failure_reason, cancellation_reason, transaction_reference,
	processed_at, completed_at, created_at, updated_at
`

// CreateWithDebit inserts the cashout request together with its ledger
// debit row in one database transaction. Funds are reserved at request
// time; a request without its debit must never be observable.
func (r *CashoutRepository) CreateWithDebit(ctx context.Context, cashout *entity.CashoutRequest, debit *entity.WalletTransaction) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if cashout.ID == "" {
		cashout.ID = uuid.New().String()
	}
	cashout.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cashout_requests (`+cashoutColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cashout.ID, cashout.UserID, cashout.Amount, cashout.Fee, cashout.NetAmount,
		cashout.PaymentMethod, cashout.PaymentDetails, cashout.Status,
		cashout.AdminID, cashout.AdminNotes, cashout.FailureReason,
		cashout.CancellationReason, cashout.TransactionReference,
		cashout.ProcessedAt, cashout.CompletedAt, cashout.CreatedAt, cashout.UpdatedAt,
	)
	if err != nil {
		return err
	}

	debit.CashoutRequestID = &cashout.ID
	if err = insertTransaction(ctx, tx, debit); err != nil {
		return err
	}

	return tx.Commit()
}

func insertTransaction(ctx context.Context, tx *sqlx.Tx, transaction *entity.WalletTransaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
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

func (r *CashoutRepository) FindByID(ctx context.Context, id string) (*entity.CashoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var cashout entity.CashoutRequest
	query := `SELECT ` + cashoutColumns + ` FROM cashout_requests WHERE id = ?`
	err = db.GetContext(ctx, &cashout, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCashoutNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cashout, nil
}

func (r *CashoutRepository) FindPendingByUserID(ctx context.Context, userID string) (*entity.CashoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var cashout entity.CashoutRequest
	query := `SELECT ` + cashoutColumns + ` FROM cashout_requests WHERE user_id = ? AND status = 'pending' LIMIT 1`
	err = db.GetContext(ctx, &cashout, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCashoutNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cashout, nil
}

func (r *CashoutRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.CashoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}

	var cashouts []entity.CashoutRequest
	query := `
		SELECT ` + cashoutColumns + `
		FROM cashout_requests
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`
	err = db.SelectContext(ctx, &cashouts, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	return cashouts, nil
}

func (r *CashoutRepository) ListByStatus(ctx context.Context, status entity.CashoutStatus) ([]entity.CashoutRequest, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var cashouts []entity.CashoutRequest
	query := `
		SELECT ` + cashoutColumns + `
		FROM cashout_requests
		WHERE status = ?
		ORDER BY created_at ASC
	`
	err = db.SelectContext(ctx, &cashouts, query, status)
	if err != nil {
		return nil, err
	}

	return cashouts, nil
}

// MarkApproved moves pending -> approved. The status guard rejects
// concurrent or repeated transitions.
func (r *CashoutRepository) MarkApproved(ctx context.Context, id, adminID, notes string) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE cashout_requests
		SET status = 'approved', admin_id = ?, admin_notes = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, adminID, notes, time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return false, err
	}

	return rowsAffected(res)
}

// MarkRejectedWithRefund moves pending -> rejected and appends the
// offsetting refund row in the same database transaction. The debit
// happened at request time, so a reject must restore the funds.
func (r *CashoutRepository) MarkRejectedWithRefund(ctx context.Context, id, adminID, notes string, refund *entity.WalletTransaction) (bool, error) {
	now := time.Now().UTC()
	return r.terminateWithRefund(ctx, id, refund, `
		UPDATE cashout_requests
		SET status = 'rejected', admin_id = ?, admin_notes = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, adminID, notes, now, now)
}

// MarkCancelledWithRefund moves pending -> cancelled on the owner's
// request and refunds the reserved amount.
func (r *CashoutRepository) MarkCancelledWithRefund(ctx context.Context, id, reason string, refund *entity.WalletTransaction) (bool, error) {
	return r.terminateWithRefund(ctx, id, refund, `
		UPDATE cashout_requests
		SET status = 'cancelled', cancellation_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'
	`, reason, time.Now().UTC())
}

// MarkFailedWithRefund moves approved/processing -> failed and refunds.
func (r *CashoutRepository) MarkFailedWithRefund(ctx context.Context, id, adminID, reason string, refund *entity.WalletTransaction) (bool, error) {
	now := time.Now().UTC()
	return r.terminateWithRefund(ctx, id, refund, `
		UPDATE cashout_requests
		SET status = 'failed', admin_id = ?, failure_reason = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('approved', 'processing')
	`, adminID, reason, now, now)
}

func (r *CashoutRepository) terminateWithRefund(ctx context.Context, id string, refund *entity.WalletTransaction, query string, args ...interface{}) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	args = append(args, id)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	ok, err := rowsAffected(res)
	if err != nil || !ok {
		return ok, err
	}

	refund.CashoutRequestID = &id
	if err = insertTransaction(ctx, tx, refund); err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = 'cancelled'
		WHERE cashout_request_id = ? AND transaction_type = 'cashout' AND status = 'withdrawn'
	`, id)
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// MarkCompleted moves approved/processing -> completed and stamps the
// ledger cashout row completed in the same transaction.
func (r *CashoutRepository) MarkCompleted(ctx context.Context, id, adminID, reference string) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		UPDATE cashout_requests
		SET status = 'completed', admin_id = ?, transaction_reference = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('approved', 'processing')
	`, adminID, reference, now, now, id)
	if err != nil {
		return false, err
	}
	ok, err := rowsAffected(res)
	if err != nil || !ok {
		return ok, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE wallet_transactions
		SET status = 'completed'
		WHERE cashout_request_id = ? AND transaction_type = 'cashout' AND status = 'withdrawn'
	`, id)
	if err != nil {
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func rowsAffected(res sql.Result) (bool, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
