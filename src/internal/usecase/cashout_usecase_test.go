package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
	"wallet-service/src/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCashoutUseCase(store *memStore) (*CashoutUseCase, *memNotifier) {
	notifier := &memNotifier{}
	useCase := NewCashoutUseCase(
		log.Log{},
		newTestValidator(),
		newTestConfig(),
		store,
		&cashoutAdapter{store: store},
		&memLocker{},
		notifier,
	)
	return useCase, notifier
}

// seedAvailable gives the user a cleared earning so the available balance
// is non-zero.
func seedAvailable(t *testing.T, store *memStore, userID string, net float64) {
	t.Helper()

	require.NoError(t, store.Create(context.Background(), &entity.Wallet{UserID: userID}))
	require.NoError(t, store.CreateTransaction(context.Background(), &entity.WalletTransaction{
		UserID:          userID,
		TransactionType: entity.TransactionTypeEarning,
		Status:          entity.TransactionStatusAvailable,
		GrossAmount:     net,
		NetAmount:       net,
		Description:     "cleared earning",
	}))
	_, err := store.Recompute(context.Background(), userID)
	require.NoError(t, err)
}

func ecocashDetails() json.RawMessage {
	return json.RawMessage(`{"phone":"0771234567"}`)
}

func TestCashoutRequestReservesFunds(t *testing.T) {
	store := newMemStore()
	useCase, notifier := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	result := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, result.Error)

	response := result.Data.(*model.CashoutResponse)
	assert.Equal(t, string(entity.CashoutStatusPending), response.Status)
	assert.Equal(t, 40.0, response.Amount)

	// the debit lands in the ledger immediately
	wallet := store.wallets["creator-1"]
	assert.Equal(t, 60.0, wallet.AvailableBalance)
	assert.Zero(t, wallet.WithdrawnTotal)

	assert.Len(t, notifier.notifications, 1)
	assert.Equal(t, "cashout_requested", notifier.events[0].Type)
}

func TestCashoutRequestBelowMinimum(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	result := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         5,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.Error(t, result.Error)
	assert.Empty(t, store.cashouts)
}

func TestCashoutRequestInsufficientBalanceLeavesWalletUnchanged(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 30)

	result := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         50,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.Error(t, result.Error)

	assert.Empty(t, store.cashouts)
	assert.Equal(t, 30.0, store.wallets["creator-1"].AvailableBalance)
}

func TestCashoutRequestPendingFundsDoNotCount(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)

	require.NoError(t, store.Create(context.Background(), &entity.Wallet{UserID: "creator-1"}))
	require.NoError(t, store.CreateTransaction(context.Background(), &entity.WalletTransaction{
		UserID:          "creator-1",
		TransactionType: entity.TransactionTypeEarning,
		Status:          entity.TransactionStatusPendingClearance,
		NetAmount:       500,
	}))

	result := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         50,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.Error(t, result.Error)
	assert.Empty(t, store.cashouts)
}

func TestCashoutRequestRejectsDuplicatePending(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	first := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         20,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, first.Error)

	second := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         20,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.Error(t, second.Error)
	assert.Len(t, store.cashouts, 1)
}

func TestCashoutCancelRefundsExactly(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	result := useCase.Cancel(context.Background(), &model.CancelCashoutRequest{
		UserID:    "creator-1",
		CashoutID: cashoutID,
		Reason:    "changed my mind",
	})
	require.NoError(t, result.Error)

	wallet := store.wallets["creator-1"]
	assert.Equal(t, 100.0, wallet.AvailableBalance)
	assert.Zero(t, wallet.WithdrawnTotal)
	assert.Equal(t, entity.CashoutStatusCancelled, store.cashouts[cashoutID].Status)

	// cancelling twice must not refund twice
	again := useCase.Cancel(context.Background(), &model.CancelCashoutRequest{
		UserID:    "creator-1",
		CashoutID: cashoutID,
		Reason:    "again",
	})
	require.Error(t, again.Error)
	assert.Equal(t, 100.0, store.wallets["creator-1"].AvailableBalance)
}

func TestCashoutCancelByStrangerForbidden(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	result := useCase.Cancel(context.Background(), &model.CancelCashoutRequest{
		UserID:    "creator-2",
		CashoutID: cashoutID,
		Reason:    "not mine",
	})
	require.Error(t, result.Error)
	assert.Equal(t, entity.CashoutStatusPending, store.cashouts[cashoutID].Status)
}

func TestCashoutRejectRefunds(t *testing.T) {
	store := newMemStore()
	useCase, notifier := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodBankTransfer,
		PaymentDetails: json.RawMessage(`{"account":"123"}`),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	result := useCase.Reject(context.Background(), &model.RejectCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
		Notes:     "details invalid",
	})
	require.NoError(t, result.Error)

	assert.Equal(t, entity.CashoutStatusRejected, store.cashouts[cashoutID].Status)
	assert.Equal(t, 100.0, store.wallets["creator-1"].AvailableBalance)
	assert.Equal(t, "cashout_rejected", notifier.events[len(notifier.events)-1].Type)
}

func TestCashoutApproveCompleteFlow(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	approved := useCase.Approve(context.Background(), &model.ApproveCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
		Notes:     "ok",
	})
	require.NoError(t, approved.Error)
	assert.Equal(t, entity.CashoutStatusApproved, store.cashouts[cashoutID].Status)

	completed := useCase.Complete(context.Background(), &model.CompleteCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
		Reference: "TXN1",
	})
	require.NoError(t, completed.Error)

	cashout := store.cashouts[cashoutID]
	assert.Equal(t, entity.CashoutStatusCompleted, cashout.Status)
	require.NotNil(t, cashout.TransactionReference)
	assert.Equal(t, "TXN1", *cashout.TransactionReference)

	wallet := store.wallets["creator-1"]
	assert.Equal(t, 60.0, wallet.AvailableBalance)
	assert.Equal(t, 40.0, wallet.WithdrawnTotal)

	// the reservation ledger row is stamped completed, not duplicated
	var debits int
	for _, transaction := range store.transactions {
		if transaction.TransactionType == entity.TransactionTypeCashout {
			debits++
			assert.Equal(t, entity.TransactionStatusCompleted, transaction.Status)
		}
	}
	assert.Equal(t, 1, debits)
}

func TestCashoutFailAfterApproveRefunds(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	require.NoError(t, useCase.Approve(context.Background(), &model.ApproveCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
	}).Error)

	result := useCase.Fail(context.Background(), &model.FailCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
		Reason:    "ecocash unreachable",
	})
	require.NoError(t, result.Error)

	assert.Equal(t, entity.CashoutStatusFailed, store.cashouts[cashoutID].Status)
	assert.Equal(t, 100.0, store.wallets["creator-1"].AvailableBalance)
	assert.Zero(t, store.wallets["creator-1"].WithdrawnTotal)
}

func TestCashoutApproveFailsWhenWalletLocked(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	useCase.Locker = &memLocker{busy: true}

	result := useCase.Approve(context.Background(), &model.ApproveCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
	})
	require.Error(t, result.Error)
	assert.Equal(t, entity.CashoutStatusPending, store.cashouts[cashoutID].Status)
}

func TestCashoutApproveFromTerminalStatus(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	created := useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         40,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	})
	require.NoError(t, created.Error)
	cashoutID := created.Data.(*model.CashoutResponse).ID

	require.NoError(t, useCase.Cancel(context.Background(), &model.CancelCashoutRequest{
		UserID:    "creator-1",
		CashoutID: cashoutID,
		Reason:    "nope",
	}).Error)

	result := useCase.Approve(context.Background(), &model.ApproveCashoutRequest{
		AdminID:   "admin-1",
		CashoutID: cashoutID,
	})
	require.Error(t, result.Error)
}

func TestListPendingCashouts(t *testing.T) {
	store := newMemStore()
	useCase, _ := newCashoutUseCase(store)
	seedAvailable(t, store, "creator-1", 100)

	require.NoError(t, useCase.Request(context.Background(), &model.CreateCashoutRequest{
		UserID:         "creator-1",
		Amount:         20,
		PaymentMethod:  entity.PaymentMethodEcocash,
		PaymentDetails: ecocashDetails(),
	}).Error)

	result := useCase.ListPending(context.Background())
	require.NoError(t, result.Error)
	assert.Len(t, result.Data.([]model.CashoutResponse), 1)
}
