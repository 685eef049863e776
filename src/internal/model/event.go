package model

type Event interface {
	GetId() string
}

// NotificationEvent is a fire-and-forget message for the notification
// service. No delivery guarantee is required by the wallet core.
type NotificationEvent struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func (e *NotificationEvent) GetId() string {
	return e.EventID
}

// WalletEvent mirrors every ledger mutation onto the event bus for
// downstream consumers (admin console, reporting).
type WalletEvent struct {
	EventID   string  `json:"event_id"`
	UserID    string  `json:"user_id"`
	Type      string  `json:"type"`
	Amount    float64 `json:"amount"`
	Reference string  `json:"reference,omitempty"`
}

func (e *WalletEvent) GetId() string {
	return e.EventID
}
