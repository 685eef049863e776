package model

import "time"

type BalanceResponse struct {
	UserID           string  `json:"userId"`
	PendingClearance float64 `json:"pendingClearance"`
	AvailableBalance float64 `json:"availableBalance"`
	WithdrawnTotal   float64 `json:"withdrawnTotal"`
	TotalEarned      float64 `json:"totalEarned"`
}

type StatisticsResponse struct {
	BalanceResponse
	EarningCount     int     `json:"earningCount"`
	CashoutCount     int     `json:"cashoutCount"`
	LifetimeGross    float64 `json:"lifetimeGross"`
	LifetimeFees     float64 `json:"lifetimeFees"`
	NextClearanceAt  *string `json:"nextClearanceAt,omitempty"`
	PendingCashoutID *string `json:"pendingCashoutId,omitempty"`
}

type TransactionListRequest struct {
	UserID string `json:"-" validate:"required"`
	Limit  int    `json:"limit" validate:"gte=0,lte=200"`
	Offset int    `json:"offset" validate:"gte=0"`
}

type TransactionResponse struct {
	ID                    string     `json:"id"`
	TransactionType       string     `json:"transactionType"`
	Status                string     `json:"status"`
	GrossAmount           float64    `json:"grossAmount"`
	PlatformFee           float64    `json:"platformFee"`
	PlatformFeePercentage float64    `json:"platformFeePercentage"`
	NetAmount             float64    `json:"netAmount"`
	Description           string     `json:"description"`
	AvailableAt           *time.Time `json:"availableAt,omitempty"`
	ClearedAt             *time.Time `json:"clearedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// CollaborationCompletedRequest is the boundary contract with the
// collaboration service: its completion event becomes an earning.
type CollaborationCompletedRequest struct {
	CollaborationID string  `json:"collaborationId" validate:"required,max=100"`
	CreatorUserID   string  `json:"creatorUserId" validate:"required,max=100"`
	GrossAmount     float64 `json:"grossAmount" validate:"required,gt=0"`
	Milestone       bool    `json:"milestone"`
}
