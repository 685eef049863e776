package entity

import "errors"

var (
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrCashoutNotFound      = errors.New("cashout request not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInsufficientBalance  = errors.New("insufficient available balance")
	ErrCashoutPending       = errors.New("a pending cashout request already exists")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrBelowMinimumCashout  = errors.New("amount is below the minimum cashout")
	ErrNotRequestOwner      = errors.New("cashout request belongs to another user")
	ErrPaymentStatusUnknown = errors.New("payment status unknown, poll later")
)
