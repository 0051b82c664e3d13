package model

import (
	"time"
)

const (
	TransactionTypePurchase         = "PURCHASE"
	TransactionTypeRefund           = "REFUND"
	TransactionTypeEscrowCredit     = "ESCROW_CREDIT"
	TransactionTypeEscrowRelease    = "ESCROW_RELEASE"
	TransactionTypeEscrowReversal   = "ESCROW_REVERSAL"
	TransactionTypeWithdrawalHold   = "WITHDRAWAL_HOLD"
	TransactionTypeWithdrawalPayout = "WITHDRAWAL_PAYOUT"
	TransactionTypeWithdrawalReturn = "WITHDRAWAL_RETURN"
	TransactionTypeDeposit          = "DEPOSIT"
	TransactionTypeExchange         = "EXCHANGE"
)

// AccountTransaction is an append-only record of one bucket movement.
// A transfer between two buckets of the same account produces two rows.
type AccountTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	ReferenceNo   string    `gorm:"type:varchar(64);index;not null" json:"reference_no"`
	Bucket        Bucket    `gorm:"type:varchar(32);not null" json:"bucket"`
	Amount        int64     `gorm:"not null" json:"amount"`
	Type          string    `gorm:"type:varchar(32);not null" json:"type"`
	BalanceBefore int64     `gorm:"not null" json:"balance_before"`
	BalanceAfter  int64     `gorm:"not null" json:"balance_after"`
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AccountTransaction) TableName() string {
	return "account_transaction"
}
