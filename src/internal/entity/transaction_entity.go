package entity

import (
	"encoding/json"
	"time"
)

type WalletTransaction struct {
	ID                    string            `db:"id" json:"id"`
	UserID                string            `db:"user_id" json:"userId"`
	CollaborationID       *string           `db:"collaboration_id" json:"collaborationId,omitempty"`
	CashoutRequestID      *string           `db:"cashout_request_id" json:"cashoutRequestId,omitempty"`
	TransactionType       TransactionType   `db:"transaction_type" json:"transactionType"`
	Status                TransactionStatus `db:"status" json:"status"`
	GrossAmount           float64           `db:"gross_amount" json:"grossAmount"`
	PlatformFee           float64           `db:"platform_fee" json:"platformFee"`
	PlatformFeePercentage float64           `db:"platform_fee_percentage" json:"platformFeePercentage"`
	NetAmount             float64           `db:"net_amount" json:"netAmount"`
	Description           string            `db:"description" json:"description"`
	Metadata              json.RawMessage   `db:"metadata" json:"metadata,omitempty"`
	AvailableAt           *time.Time        `db:"available_at" json:"availableAt,omitempty"`
	ClearedAt             *time.Time        `db:"cleared_at" json:"clearedAt,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"createdAt"`
}
