package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"wallet-service/src/internal/entity"
	"wallet-service/src/internal/model"
	"wallet-service/src/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// memStore is an in-memory stand-in for the wallet, transaction and
// cashout repositories. Its Recompute mirrors the SQL fold so balance
// invariants can be checked without a database.
type memStore struct {
	wallets      map[string]*entity.Wallet
	transactions []*entity.WalletTransaction
	cashouts     map[string]*entity.CashoutRequest
	seq          int
}

func newMemStore() *memStore {
	return &memStore{
		wallets:  make(map[string]*entity.Wallet),
		cashouts: make(map[string]*entity.CashoutRequest),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) FindByUserID(ctx context.Context, userID string) (*entity.Wallet, error) {
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, entity.ErrWalletNotFound
	}
	copied := *wallet
	return &copied, nil
}

func (s *memStore) Create(ctx context.Context, wallet *entity.Wallet) error {
	if wallet.ID == "" {
		wallet.ID = s.nextID("wallet")
	}
	wallet.CreatedAt = time.Now().UTC()
	copied := *wallet
	s.wallets[wallet.UserID] = &copied
	return nil
}

func (s *memStore) Recompute(ctx context.Context, userID string) (*entity.Wallet, error) {
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, entity.ErrWalletNotFound
	}

	var balances entity.WalletBalances
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		switch t.TransactionType {
		case entity.TransactionTypeEarning, entity.TransactionTypeBonus:
			if t.Status == entity.TransactionStatusPendingClearance {
				balances.PendingClearance += t.NetAmount
			}
			if t.Status == entity.TransactionStatusAvailable {
				balances.AvailableBalance += t.NetAmount
			}
		case entity.TransactionTypeRefund:
			balances.AvailableBalance += t.NetAmount
		case entity.TransactionTypeCashout:
			balances.AvailableBalance -= t.NetAmount
		case entity.TransactionTypeFee:
			balances.AvailableBalance -= t.NetAmount
		}
		if t.TransactionType == entity.TransactionTypeEarning &&
			t.Status != entity.TransactionStatusFailed &&
			t.Status != entity.TransactionStatusCancelled {
			balances.TotalEarned += t.NetAmount
		}
	}
	for _, c := range s.cashouts {
		if c.UserID == userID && c.Status == entity.CashoutStatusCompleted {
			balances.WithdrawnTotal += c.Amount
		}
	}

	wallet.PendingClearance = balances.PendingClearance
	wallet.AvailableBalance = balances.AvailableBalance
	wallet.WithdrawnTotal = balances.WithdrawnTotal
	wallet.TotalEarned = balances.TotalEarned
	now := time.Now().UTC()
	wallet.UpdatedAt = &now

	copied := *wallet
	return &copied, nil
}

func (s *memStore) CreateTransaction(ctx context.Context, transaction *entity.WalletTransaction) error {
	if transaction.ID == "" {
		transaction.ID = s.nextID("tx")
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}
	s.transactions = append(s.transactions, transaction)
	return nil
}

func (s *memStore) FindTransactionsByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.WalletTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []entity.WalletTransaction
	for _, t := range s.transactions {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) FindPendingClearance(ctx context.Context, userID string) ([]entity.WalletTransaction, error) {
	var out []entity.WalletTransaction
	for _, t := range s.transactions {
		if t.UserID == userID && t.Status == entity.TransactionStatusPendingClearance {
			out = append(out, *t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvailableAt == nil || out[j].AvailableAt == nil {
			return false
		}
		return out[i].AvailableAt.Before(*out[j].AvailableAt)
	})
	return out, nil
}

func (s *memStore) Statistics(ctx context.Context, userID string) (*repository.TransactionStatistics, error) {
	stats := &repository.TransactionStatistics{}
	for _, t := range s.transactions {
		if t.UserID != userID {
			continue
		}
		switch t.TransactionType {
		case entity.TransactionTypeEarning:
			stats.EarningCount++
			stats.LifetimeGross += t.GrossAmount
			stats.LifetimeFees += t.PlatformFee
		case entity.TransactionTypeCashout:
			stats.CashoutCount++
		}
	}
	return stats, nil
}

func (s *memStore) FindDueForClearance(ctx context.Context, now time.Time, limit int) ([]entity.WalletTransaction, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []entity.WalletTransaction
	for _, t := range s.transactions {
		if t.Status == entity.TransactionStatusPendingClearance &&
			t.AvailableAt != nil && !t.AvailableAt.After(now) {
			out = append(out, *t)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) MarkCleared(ctx context.Context, id string, clearedAt time.Time) (bool, error) {
	for _, t := range s.transactions {
		if t.ID == id && t.Status == entity.TransactionStatusPendingClearance {
			t.Status = entity.TransactionStatusAvailable
			at := clearedAt
			t.ClearedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateWithDebit(ctx context.Context, cashout *entity.CashoutRequest, debit *entity.WalletTransaction) error {
	if cashout.ID == "" {
		cashout.ID = s.nextID("cashout")
	}
	cashout.CreatedAt = time.Now().UTC()
	copied := *cashout
	s.cashouts[cashout.ID] = &copied

	debit.CashoutRequestID = &cashout.ID
	return s.CreateTransaction(ctx, debit)
}

func (s *memStore) FindCashoutByID(ctx context.Context, id string) (*entity.CashoutRequest, error) {
	cashout, ok := s.cashouts[id]
	if !ok {
		return nil, entity.ErrCashoutNotFound
	}
	copied := *cashout
	return &copied, nil
}

func (s *memStore) FindPendingByUserID(ctx context.Context, userID string) (*entity.CashoutRequest, error) {
	for _, c := range s.cashouts {
		if c.UserID == userID && c.Status == entity.CashoutStatusPending {
			copied := *c
			return &copied, nil
		}
	}
	return nil, entity.ErrCashoutNotFound
}

func (s *memStore) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.CashoutRequest, error) {
	var out []entity.CashoutRequest
	for _, c := range s.cashouts {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) ListByStatus(ctx context.Context, status entity.CashoutStatus) ([]entity.CashoutRequest, error) {
	var out []entity.CashoutRequest
	for _, c := range s.cashouts {
		if c.Status == status {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) MarkApproved(ctx context.Context, id, adminID, notes string) (bool, error) {
	cashout, ok := s.cashouts[id]
	if !ok || cashout.Status != entity.CashoutStatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	cashout.Status = entity.CashoutStatusApproved
	cashout.AdminID = &adminID
	cashout.AdminNotes = &notes
	cashout.ProcessedAt = &now
	return true, nil
}

func (s *memStore) terminateWithRefund(id string, from []entity.CashoutStatus, to entity.CashoutStatus, refund *entity.WalletTransaction) (bool, error) {
	cashout, ok := s.cashouts[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, status := range from {
		if cashout.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return false, nil
	}
	cashout.Status = to

	refund.CashoutRequestID = &id
	_ = s.CreateTransaction(context.Background(), refund)

	for _, t := range s.transactions {
		if t.CashoutRequestID != nil && *t.CashoutRequestID == id &&
			t.TransactionType == entity.TransactionTypeCashout &&
			t.Status == entity.TransactionStatusWithdrawn {
			t.Status = entity.TransactionStatusCancelled
		}
	}
	return true, nil
}

func (s *memStore) MarkRejectedWithRefund(ctx context.Context, id, adminID, notes string, refund *entity.WalletTransaction) (bool, error) {
	ok, err := s.terminateWithRefund(id, []entity.CashoutStatus{entity.CashoutStatusPending}, entity.CashoutStatusRejected, refund)
	if ok {
		s.cashouts[id].AdminID = &adminID
		s.cashouts[id].AdminNotes = &notes
	}
	return ok, err
}

func (s *memStore) MarkCancelledWithRefund(ctx context.Context, id, reason string, refund *entity.WalletTransaction) (bool, error) {
	ok, err := s.terminateWithRefund(id, []entity.CashoutStatus{entity.CashoutStatusPending}, entity.CashoutStatusCancelled, refund)
	if ok {
		s.cashouts[id].CancellationReason = &reason
	}
	return ok, err
}

func (s *memStore) MarkFailedWithRefund(ctx context.Context, id, adminID, reason string, refund *entity.WalletTransaction) (bool, error) {
	from := []entity.CashoutStatus{entity.CashoutStatusApproved, entity.CashoutStatusProcessing}
	ok, err := s.terminateWithRefund(id, from, entity.CashoutStatusFailed, refund)
	if ok {
		s.cashouts[id].AdminID = &adminID
		s.cashouts[id].FailureReason = &reason
	}
	return ok, err
}

func (s *memStore) MarkCompleted(ctx context.Context, id, adminID, reference string) (bool, error) {
	cashout, ok := s.cashouts[id]
	if !ok {
		return false, nil
	}
	if cashout.Status != entity.CashoutStatusApproved && cashout.Status != entity.CashoutStatusProcessing {
		return false, nil
	}
	now := time.Now().UTC()
	cashout.Status = entity.CashoutStatusCompleted
	cashout.AdminID = &adminID
	cashout.TransactionReference = &reference
	cashout.CompletedAt = &now

	for _, t := range s.transactions {
		if t.CashoutRequestID != nil && *t.CashoutRequestID == id &&
			t.TransactionType == entity.TransactionTypeCashout &&
			t.Status == entity.TransactionStatusWithdrawn {
			t.Status = entity.TransactionStatusCompleted
		}
	}
	return true, nil
}

// transactionAdapter exposes the memStore under the transaction
// repository method names.
type transactionAdapter struct {
	store *memStore
}

func (a *transactionAdapter) Create(ctx context.Context, transaction *entity.WalletTransaction) error {
	return a.store.CreateTransaction(ctx, transaction)
}

func (a *transactionAdapter) FindByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.WalletTransaction, error) {
	return a.store.FindTransactionsByUserID(ctx, userID, limit, offset)
}

func (a *transactionAdapter) FindPendingClearance(ctx context.Context, userID string) ([]entity.WalletTransaction, error) {
	return a.store.FindPendingClearance(ctx, userID)
}

func (a *transactionAdapter) Statistics(ctx context.Context, userID string) (*repository.TransactionStatistics, error) {
	return a.store.Statistics(ctx, userID)
}

func (a *transactionAdapter) FindDueForClearance(ctx context.Context, now time.Time, limit int) ([]entity.WalletTransaction, error) {
	return a.store.FindDueForClearance(ctx, now, limit)
}

func (a *transactionAdapter) MarkCleared(ctx context.Context, id string, clearedAt time.Time) (bool, error) {
	return a.store.MarkCleared(ctx, id, clearedAt)
}

// cashoutAdapter exposes the memStore under the cashout repository
// method names.
type cashoutAdapter struct {
	store *memStore
}

func (a *cashoutAdapter) CreateWithDebit(ctx context.Context, cashout *entity.CashoutRequest, debit *entity.WalletTransaction) error {
	return a.store.CreateWithDebit(ctx, cashout, debit)
}

func (a *cashoutAdapter) FindByID(ctx context.Context, id string) (*entity.CashoutRequest, error) {
	return a.store.FindCashoutByID(ctx, id)
}

func (a *cashoutAdapter) FindPendingByUserID(ctx context.Context, userID string) (*entity.CashoutRequest, error) {
	return a.store.FindPendingByUserID(ctx, userID)
}

func (a *cashoutAdapter) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]entity.CashoutRequest, error) {
	return a.store.ListByUserID(ctx, userID, limit, offset)
}

func (a *cashoutAdapter) ListByStatus(ctx context.Context, status entity.CashoutStatus) ([]entity.CashoutRequest, error) {
	return a.store.ListByStatus(ctx, status)
}

func (a *cashoutAdapter) MarkApproved(ctx context.Context, id, adminID, notes string) (bool, error) {
	return a.store.MarkApproved(ctx, id, adminID, notes)
}

func (a *cashoutAdapter) MarkRejectedWithRefund(ctx context.Context, id, adminID, notes string, refund *entity.WalletTransaction) (bool, error) {
	return a.store.MarkRejectedWithRefund(ctx, id, adminID, notes, refund)
}

func (a *cashoutAdapter) MarkCancelledWithRefund(ctx context.Context, id, reason string, refund *entity.WalletTransaction) (bool, error) {
	return a.store.MarkCancelledWithRefund(ctx, id, reason, refund)
}

func (a *cashoutAdapter) MarkFailedWithRefund(ctx context.Context, id, adminID, reason string, refund *entity.WalletTransaction) (bool, error) {
	return a.store.MarkFailedWithRefund(ctx, id, adminID, reason, refund)
}

func (a *cashoutAdapter) MarkCompleted(ctx context.Context, id, adminID, reference string) (bool, error) {
	return a.store.MarkCompleted(ctx, id, adminID, reference)
}

type memLocker struct {
	busy     bool
	acquired int
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl, maxWait time.Duration) (func(), error) {
	if l.busy {
		return nil, fmt.Errorf("lock not acquired")
	}
	l.acquired++
	return func() {}, nil
}

type memNotifier struct {
	notifications []*model.NotificationEvent
	events        []*model.WalletEvent
}

func (n *memNotifier) SendNotification(event *model.NotificationEvent) error {
	n.notifications = append(n.notifications, event)
	return nil
}

func (n *memNotifier) SendWalletEvent(event *model.WalletEvent) error {
	n.events = append(n.events, event)
	return nil
}

func newTestConfig() *viper.Viper {
	v := viper.New()
	v.Set("fees.milestone_percent", 10.0)
	v.Set("fees.completion_percent", 15.0)
	v.Set("fees.cashout_percent", 0.0)
	v.Set("wallet.clearance_days", 30)
	v.Set("wallet.min_cashout", 10.0)
	return v
}

func newTestValidator() *validator.Validate {
	return validator.New()
}
