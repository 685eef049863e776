package model

import (
	"encoding/json"
	"time"
)

type CreateCashoutRequest struct {
	UserID         string          `json:"-" validate:"required"`
	Amount         float64         `json:"amount" validate:"required,gt=0"`
	PaymentMethod  string          `json:"paymentMethod" validate:"required,oneof=ecocash bank_transfer cash_pickup"`
	PaymentDetails json.RawMessage `json:"paymentDetails" validate:"required"`
}

type CancelCashoutRequest struct {
	UserID    string `json:"-" validate:"required"`
	CashoutID string `json:"-" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

type ApproveCashoutRequest struct {
	AdminID   string `json:"-" validate:"required"`
	CashoutID string `json:"-" validate:"required"`
	Notes     string `json:"notes" validate:"max=500"`
}

type RejectCashoutRequest struct {
	AdminID   string `json:"-" validate:"required"`
	CashoutID string `json:"-" validate:"required"`
	Notes     string `json:"notes" validate:"required,max=500"`
}

type CompleteCashoutRequest struct {
	AdminID   string `json:"-" validate:"required"`
	CashoutID string `json:"-" validate:"required"`
	Reference string `json:"reference" validate:"required,max=100"`
}

type FailCashoutRequest struct {
	AdminID   string `json:"-" validate:"required"`
	CashoutID string `json:"-" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=500"`
}

type CashoutResponse struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"userId"`
	Amount               float64         `json:"amount"`
	Fee                  float64         `json:"fee"`
	NetAmount            float64         `json:"netAmount"`
	PaymentMethod        string          `json:"paymentMethod"`
	PaymentDetails       json.RawMessage `json:"paymentDetails,omitempty"`
	Status               string          `json:"status"`
	AdminNotes           *string         `json:"adminNotes,omitempty"`
	FailureReason        *string         `json:"failureReason,omitempty"`
	CancellationReason   *string         `json:"cancellationReason,omitempty"`
	TransactionReference *string         `json:"transactionReference,omitempty"`
	ProcessedAt          *time.Time      `json:"processedAt,omitempty"`
	CompletedAt          *time.Time      `json:"completedAt,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
}
