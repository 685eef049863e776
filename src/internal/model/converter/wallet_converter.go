package converter

import (
	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
)

func WalletToBalanceResponse(wallet *entity.Wallet) *model.BalanceResponse {
	return &model.BalanceResponse{
		UserID:           wallet.UserID,
		PendingClearance: wallet.PendingClearance,
		AvailableBalance: wallet.AvailableBalance,
		WithdrawnTotal:   wallet.WithdrawnTotal,
		TotalEarned:      wallet.TotalEarned,
	}
}

func TransactionToResponse(tx *entity.WalletTransaction) *model.TransactionResponse {
	return &model.TransactionResponse{
		ID:                    tx.ID,
		TransactionType:       string(tx.TransactionType),
		Status:                string(tx.Status),
		GrossAmount:           tx.GrossAmount,
		PlatformFee:           tx.PlatformFee,
		PlatformFeePercentage: tx.PlatformFeePercentage,
		NetAmount:             tx.NetAmount,
		Description:           tx.Description,
		AvailableAt:           tx.AvailableAt,
		ClearedAt:             tx.ClearedAt,
		CreatedAt:             tx.CreatedAt,
	}
}

func TransactionsToResponse(txs []entity.WalletTransaction) []model.TransactionResponse {
	responses := make([]model.TransactionResponse, 0, len(txs))
	for i := range txs {
		responses = append(responses, *TransactionToResponse(&txs[i]))
	}
	return responses
}
