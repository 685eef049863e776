package entity

type TransactionType string

const (
	TransactionTypeEarning TransactionType = "earning"
	TransactionTypeCashout TransactionType = "cashout"
	TransactionTypeRefund  TransactionType = "refund"
	TransactionTypeFee     TransactionType = "fee"
	TransactionTypeBonus   TransactionType = "bonus"
)

type TransactionStatus string

const (
	TransactionStatusEscrowed         TransactionStatus = "escrowed"
	TransactionStatusPendingClearance TransactionStatus = "pending_clearance"
	TransactionStatusAvailable        TransactionStatus = "available"
	TransactionStatusWithdrawn        TransactionStatus = "withdrawn"
	TransactionStatusFailed           TransactionStatus = "failed"
	TransactionStatusCompleted        TransactionStatus = "completed"
	TransactionStatusCancelled        TransactionStatus = "cancelled"
)

type CashoutStatus string

const (
	CashoutStatusPending    CashoutStatus = "pending"
	CashoutStatusApproved   CashoutStatus = "approved"
	CashoutStatusProcessing CashoutStatus = "processing"
	CashoutStatusCompleted  CashoutStatus = "completed"
	CashoutStatusRejected   CashoutStatus = "rejected"
	CashoutStatusFailed     CashoutStatus = "failed"
	CashoutStatusCancelled  CashoutStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusCreated   PaymentStatus = "created"
	PaymentStatusSent      PaymentStatus = "sent"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusEscrowed:         {TransactionStatusPendingClearance, TransactionStatusCancelled},
	TransactionStatusPendingClearance: {TransactionStatusAvailable, TransactionStatusCancelled},
	TransactionStatusAvailable:        {TransactionStatusWithdrawn, TransactionStatusCompleted},
	TransactionStatusWithdrawn:        {TransactionStatusCompleted, TransactionStatusCancelled, TransactionStatusFailed},
}

var cashoutTransitions = map[CashoutStatus][]CashoutStatus{
	CashoutStatusPending:    {CashoutStatusApproved, CashoutStatusRejected, CashoutStatusCancelled},
	CashoutStatusApproved:   {CashoutStatusProcessing, CashoutStatusCompleted, CashoutStatusFailed},
	CashoutStatusProcessing: {CashoutStatusCompleted, CashoutStatusFailed},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated: {PaymentStatusSent, PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusFailed},
	PaymentStatusSent:    {PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusFailed},
}

func (s TransactionStatus) CanTransitionTo(target TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s CashoutStatus) CanTransitionTo(target CashoutStatus) bool {
	for _, allowed := range cashoutTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further cashout transition is possible.
func (s CashoutStatus) IsTerminal() bool {
	return len(cashoutTransitions[s]) == 0
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
