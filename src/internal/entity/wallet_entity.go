package entity

import "time"

type Wallet struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"userId"`
	PendingClearance float64    `db:"pending_clearance" json:"pendingClearance"`
	AvailableBalance float64    `db:"available_balance" json:"availableBalance"`
	WithdrawnTotal   float64    `db:"withdrawn_total" json:"withdrawnTotal"`
	TotalEarned      float64    `db:"total_earned" json:"totalEarned"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// WalletBalances is the fold of the transaction log and cashout history
// that the wallet row caches.
type WalletBalances struct {
	PendingClearance float64 `db:"pending_clearance"`
	AvailableBalance float64 `db:"available_balance"`
	WithdrawnTotal   float64 `db:"withdrawn_total"`
	TotalEarned      float64 `db:"total_earned"`
}
