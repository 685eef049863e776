package model

import "time"

type InitiatePaymentRequest struct {
	UserID    string  `json:"-" validate:"required"`
	BookingID string  `json:"bookingId" validate:"required,max=100"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Email     string  `json:"email" validate:"required,email"`
}

type InitiatePaymentResponse struct {
	PaymentID   string `json:"paymentId"`
	RedirectURL string `json:"redirectUrl"`
	PollURL     string `json:"pollUrl"`
}

type PaymentStatusResponse struct {
	PaymentID        string     `json:"paymentId"`
	Status           string     `json:"status"`
	GatewayReference *string    `json:"gatewayReference,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
}
