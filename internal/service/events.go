package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/repository"

	"gorm.io/gorm"
)

// eventWriter records integration events in the outbox inside the caller's
// transaction; the outbox sender job ships them to Kafka.
type eventWriter struct {
	outboxRepo *repository.OutboxRepository
}

type orderEvent struct {
	Event                string    `json:"event"`
	OrderNo              string    `json:"order_no"`
	BuyerID              int64     `json:"buyer_id"`
	SellerID             int64     `json:"seller_id"`
	ProductID            int64     `json:"product_id"`
	Price                int64     `json:"price"`
	FeeAmount            int64     `json:"fee_amount"`
	SellerReceivedAmount int64     `json:"seller_received_amount"`
	FromStatus           string    `json:"from_status,omitempty"`
	Status               string    `json:"status"`
	At                   time.Time `json:"at"`
}

type walletEvent struct {
	Event     string    `json:"event"`
	RequestNo string    `json:"request_no"`
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

func (w *eventWriter) write(ctx context.Context, tx *gorm.DB, topic, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		Payload:    string(body),
		Status:     model.OutboxStatusPending,
	}
	if err := w.outboxRepo.Create(ctx, tx, msg); err != nil {
		return fmt.Errorf("write outbox: %w", err)
	}
	return nil
}

func (w *eventWriter) orderChanged(ctx context.Context, tx *gorm.DB, topic string, order *model.Order, fromStatus string, at time.Time) error {
	event := model.EventOrderStatusChanged
	if fromStatus == "" {
		event = model.EventOrderCreated
	}
	return w.write(ctx, tx, topic, order.OrderNo, orderEvent{
		Event:                event,
		OrderNo:              order.OrderNo,
		BuyerID:              order.BuyerID,
		SellerID:             order.SellerID,
		ProductID:            order.ProductID,
		Price:                order.Price,
		FeeAmount:            order.FeeAmount,
		SellerReceivedAmount: order.SellerReceivedAmount,
		FromStatus:           fromStatus,
		Status:               order.Status,
		At:                   at,
	})
}
