package model

import (
	"time"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// WithdrawalRequest is a seller cash-out waiting for an admin decision.
// Its Amount sits in the seller's WithdrawalInFlight bucket while pending.
type WithdrawalRequest struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_no"`
	SellerID      int64      `gorm:"index;not null" json:"seller_id"`
	Amount        int64      `gorm:"not null" json:"amount"`
	BankName      string     `gorm:"type:varchar(64);not null" json:"bank_name"`
	AccountNumber string     `gorm:"type:varchar(64);not null" json:"account_number"`
	AccountHolder string     `gorm:"type:varchar(128);not null" json:"account_holder"`
	Status        string     `gorm:"type:varchar(20);index;not null" json:"status"`
	Note          string     `gorm:"type:varchar(256)" json:"note"`
	ResolvedBy    *int64     `json:"resolved_by"`
	ResolvedAt    *time.Time `json:"resolved_at"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_request"
}

// DepositRequest is a buyer top-up backed by an uploaded transfer proof.
type DepositRequest struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RequestNo  string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"request_no"`
	BuyerID    int64      `gorm:"index;not null" json:"buyer_id"`
	Amount     int64      `gorm:"not null" json:"amount"`
	ProofRef   string     `gorm:"type:varchar(256);not null" json:"proof_ref"`
	Status     string     `gorm:"type:varchar(20);index;not null" json:"status"`
	Note       string     `gorm:"type:varchar(256)" json:"note"`
	ResolvedBy *int64     `json:"resolved_by"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DepositRequest) TableName() string {
	return "deposit_request"
}
