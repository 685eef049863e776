package entity

import "time"

// Payment is a deposit intent created when a brand funds a booking through
// the hosted gateway. Poll and webhook reconcile against the same row.
type Payment struct {
	ID               string        `db:"id" json:"id"`
	BookingID        string        `db:"booking_id" json:"bookingId"`
	UserID           string        `db:"user_id" json:"userId"`
	Amount           float64       `db:"amount" json:"amount"`
	Email            string        `db:"email" json:"email"`
	Status           PaymentStatus `db:"status" json:"status"`
	PollURL          *string       `db:"poll_url" json:"pollUrl,omitempty"`
	RedirectURL      *string       `db:"redirect_url" json:"redirectUrl,omitempty"`
	GatewayReference *string       `db:"gateway_reference" json:"gatewayReference,omitempty"`
	PaidAt           *time.Time    `db:"paid_at" json:"paidAt,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        *time.Time    `db:"updated_at" json:"updatedAt,omitempty"`
}
