package model

import (
	"time"
)

const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusSent       = "sent"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

var ValidStatusTransitions = map[string][]string{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusSent},
	OrderStatusSent:       {OrderStatusCompleted, OrderStatusCancelled},
}

// adminStatusTransitions extends the normal table with what only an admin may do.
var adminStatusTransitions = map[string][]string{
	OrderStatusProcessing: {OrderStatusCancelled},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	return contains(ValidStatusTransitions[currentStatus], targetStatus)
}

func CanAdminTransitionTo(currentStatus, targetStatus string) bool {
	return CanTransitionTo(currentStatus, targetStatus) ||
		contains(adminStatusTransitions[currentStatus], targetStatus)
}

func IsTerminalStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusSent, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// ForwardPath is the linear order lifecycle used to replay skipped steps.
var ForwardPath = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusSent,
	OrderStatusCompleted,
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Order is one purchase of a product. Price is frozen at checkout, the fee split
// is frozen at the sent transition.
type Order struct {
	ID                   int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo              string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	RequestID            string     `gorm:"type:varchar(64);uniqueIndex:idx_buyer_request;not null" json:"request_id"`
	BuyerID              int64      `gorm:"uniqueIndex:idx_buyer_request;index;not null" json:"buyer_id"`
	SellerID             int64      `gorm:"index;not null" json:"seller_id"`
	ProductID            int64      `gorm:"index;not null" json:"product_id"`
	InputData            string     `gorm:"type:text" json:"input_data"`
	Price                int64      `gorm:"not null" json:"price"`
	FeeAmount            int64      `gorm:"not null;default:0" json:"fee_amount"`
	SellerReceivedAmount int64      `gorm:"not null;default:0" json:"seller_received_amount"`
	Status               string     `gorm:"type:varchar(20);index;not null" json:"status"`
	SentAt               *time.Time `gorm:"index" json:"sent_at"`
	CompletedAt          *time.Time `json:"completed_at"`
	CancelledAt          *time.Time `json:"cancelled_at"`
	CreatedAt            time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "market_order"
}
