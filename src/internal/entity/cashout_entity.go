package entity

import (
	"encoding/json"
	"time"
)

type CashoutRequest struct {
	ID                   string          `db:"id" json:"id"`
	UserID               string          `db:"user_id" json:"userId"`
	Amount               float64         `db:"amount" json:"amount"`
	Fee                  float64         `db:"fee" json:"fee"`
	NetAmount            float64         `db:"net_amount" json:"netAmount"`
	PaymentMethod        string          `db:"payment_method" json:"paymentMethod"`
	PaymentDetails       json.RawMessage `db:"payment_details" json:"paymentDetails,omitempty"`
	Status               CashoutStatus   `db:"status" json:"status"`
	AdminID              *string         `db:"admin_id" json:"adminId,omitempty"`
	AdminNotes           *string         `db:"admin_notes" json:"adminNotes,omitempty"`
	FailureReason        *string         `db:"failure_reason" json:"failureReason,omitempty"`
	CancellationReason   *string         `db:"cancellation_reason" json:"cancellationReason,omitempty"`
	TransactionReference *string         `db:"transaction_reference" json:"transactionReference,omitempty"`
	ProcessedAt          *time.Time      `db:"processed_at" json:"processedAt,omitempty"`
	CompletedAt          *time.Time      `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt            *time.Time      `db:"updated_at" json:"updatedAt,omitempty"`
}

// Payment method identifiers accepted in cashout requests. The shape of
// PaymentDetails depends on the method (ecocash number, bank account,
// pickup location).
const (
	PaymentMethodEcocash      = "ecocash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCashPickup   = "cash_pickup"
)
