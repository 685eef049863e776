package converter

import (
	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
)

func CashoutToResponse(cashout *entity.CashoutRequest) *model.CashoutResponse {
	return &model.CashoutResponse{
		ID:                   cashout.ID,
		UserID:               cashout.UserID,
		Amount:               cashout.Amount,
		Fee:                  cashout.Fee,
		NetAmount:            cashout.NetAmount,
		PaymentMethod:        cashout.PaymentMethod,
		PaymentDetails:       cashout.PaymentDetails,
		Status:               string(cashout.Status),
		AdminNotes:           cashout.AdminNotes,
		FailureReason:        cashout.FailureReason,
		CancellationReason:   cashout.CancellationReason,
		TransactionReference: cashout.TransactionReference,
		ProcessedAt:          cashout.ProcessedAt,
		CompletedAt:          cashout.CompletedAt,
		CreatedAt:            cashout.CreatedAt,
	}
}

func CashoutsToResponse(cashouts []entity.CashoutRequest) []model.CashoutResponse {
	responses := make([]model.CashoutResponse, 0, len(cashouts))
	for i := range cashouts {
		responses = append(responses, *CashoutToResponse(&cashouts[i]))
	}
	return responses
}

func PaymentToStatusResponse(payment *entity.Payment) *model.PaymentStatusResponse {
	return &model.PaymentStatusResponse{
		PaymentID:        payment.ID,
		Status:           string(payment.Status),
		GatewayReference: payment.GatewayReference,
		PaidAt:           payment.PaidAt,
	}
}
