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

type PaymentRepository struct {
	DB mysql.DBInterface
}

func NewPaymentRepository(db mysql.DBInterface) *PaymentRepository {
	return &PaymentRepository{
		DB: db,
	}
}

const paymentColumns = `
	id, booking_id, user_id, amount, email, status,
	poll_url, redirect_url, gateway_reference, paid_at, created_at, updated_at
`

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	payment.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.ExecContext(ctx, query,
		payment.ID, payment.BookingID, payment.UserID,
		payment.Amount, payment.Email, payment.Status,
		payment.PollURL, payment.RedirectURL, payment.GatewayReference,
		payment.PaidAt, payment.CreatedAt, payment.UpdatedAt,
	)
	return err
}

func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*entity.Payment, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var payment entity.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	err = db.GetContext(ctx, &payment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *PaymentRepository) FindByGatewayReference(ctx context.Context, reference string) (*entity.Payment, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}

	var payment entity.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_reference = ?`
	err = db.GetContext(ctx, &payment, query, reference)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

// AttachGateway stores the gateway handles returned by initiate.
func (r *PaymentRepository) AttachGateway(ctx context.Context, id, pollURL, redirectURL, reference string) error {
	db, err := r.DB.GetDB()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'sent', poll_url = ?, redirect_url = ?, gateway_reference = ?, updated_at = ?
		WHERE id = ? AND status = 'created'
	`, pollURL, redirectURL, reference, time.Now().UTC(), id)
	return err
}

// MarkPaid is the idempotent terminal transition shared by the webhook
// and the poller. The status guard makes repeated delivery a no-op.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `
		UPDATE payments
		SET status = 'paid', paid_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('created', 'sent')
	`, paidAt, time.Now().UTC(), id)
	if err != nil {
		return false, err
	}

	return rowsAffected(res)
}

func (r *PaymentRepository) MarkStatus(ctx context.Context, id string, from []entity.PaymentStatus, to entity.PaymentStatus) (bool, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return false, err
	}

	query, args, err := buildStatusUpdate(id, from, to)
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	return rowsAffected(res)
}

func buildStatusUpdate(id string, from []entity.PaymentStatus, to entity.PaymentStatus) (string, []interface{}, error) {
	if len(from) == 0 {
		return "", nil, errors.New("empty source status set")
	}

	query := `UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status IN (?`
	args := []interface{}{to, time.Now().UTC(), id, from[0]}
	for _, s := range from[1:] {
		query += `, ?`
		args = append(args, s)
	}
	query += `)`

	return query, args, nil
}
