package model

import (
	"time"
)

// Bucket names one balance column of an Account.
type Bucket string

const (
	BucketSpendable          Bucket = "spendable"
	BucketPendingEscrow      Bucket = "pending_escrow"
	BucketWithdrawable       Bucket = "withdrawable"
	BucketWithdrawalInFlight Bucket = "withdrawal_in_flight"
)

func (b Bucket) Valid() bool {
	switch b {
	case BucketSpendable, BucketPendingEscrow, BucketWithdrawable, BucketWithdrawalInFlight:
		return true
	}
	return false
}

// Account holds the four balance buckets of a user. Buyers mostly use Spendable,
// sellers accumulate earnings in the other three. No bucket ever goes below zero.
type Account struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Spendable          int64     `gorm:"not null;default:0" json:"spendable"`
	PendingEscrow      int64     `gorm:"not null;default:0" json:"pending_escrow"`
	Withdrawable       int64     `gorm:"not null;default:0" json:"withdrawable"`
	WithdrawalInFlight int64     `gorm:"not null;default:0" json:"withdrawal_in_flight"`
	Version            int       `gorm:"not null;default:0" json:"version"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "account"
}

// Amount returns the value of a single bucket.
func (a *Account) Amount(b Bucket) int64 {
	switch b {
	case BucketSpendable:
		return a.Spendable
	case BucketPendingEscrow:
		return a.PendingEscrow
	case BucketWithdrawable:
		return a.Withdrawable
	case BucketWithdrawalInFlight:
		return a.WithdrawalInFlight
	}
	return 0
}

// SellerHoldings is the part of the balance that came from sales.
func (a *Account) SellerHoldings() int64 {
	return a.PendingEscrow + a.Withdrawable + a.WithdrawalInFlight
}
