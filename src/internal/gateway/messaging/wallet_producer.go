package messaging

import (
	"wallet-service/src/internal/model"
	kafka "wallet-service/src/pkg/kafka/confluent"
	"wallet-service/src/pkg/log"
)

// WalletProducer publishes ledger events and user notifications. Both are
// fire-and-forget; the wallet core never blocks on delivery.
type WalletProducer struct {
	NotificationProducer Producer[*model.NotificationEvent]
	EventProducer        Producer[*model.WalletEvent]
}

func NewWalletProducer(producer kafka.Producer, logger log.Log) *WalletProducer {
	return &WalletProducer{
		NotificationProducer: Producer[*model.NotificationEvent]{
			Producer: producer,
			Topic:    "wallet-notifications",
			Log:      logger,
		},
		EventProducer: Producer[*model.WalletEvent]{
			Producer: producer,
			Topic:    "wallet-events",
			Log:      logger,
		},
	}
}

func (p *WalletProducer) SendNotification(event *model.NotificationEvent) error {
	return p.NotificationProducer.Send(event)
}

func (p *WalletProducer) SendWalletEvent(event *model.WalletEvent) error {
	return p.EventProducer.Send(event)
}
