package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Movement describes one conditional balance change. From or To may be empty
// for money entering or leaving the platform.
type Movement struct {
	UserID      int64
	From        model.Bucket
	To          model.Bucket
	Amount      int64
	Type        string
	ReferenceNo string
	Remark      string
}

// Ledger applies movements to the balance store and journals them in the same
// transaction.
type Ledger struct {
	accounts     *repository.AccountRepository
	transactions *repository.TransactionRepository
	log          *zap.Logger
}

func NewLedger(db *gorm.DB, log *zap.Logger) *Ledger {
	return &Ledger{
		accounts:     repository.NewAccountRepository(db),
		transactions: repository.NewTransactionRepository(db),
		log:          log,
	}
}

func (l *Ledger) Apply(ctx context.Context, tx *gorm.DB, m Movement) (*model.Account, error) {
	var (
		account *model.Account
		err     error
	)
	if m.From == "" {
		account, err = l.accounts.Credit(ctx, tx, m.UserID, m.To, m.Amount)
	} else {
		account, err = l.accounts.Move(ctx, tx, m.UserID, m.From, m.To, m.Amount)
	}
	if err != nil {
		return nil, err
	}

	if m.From != "" {
		if err := l.journal(ctx, tx, m, account, m.From, -m.Amount); err != nil {
			return nil, err
		}
	}
	if m.To != "" {
		if err := l.journal(ctx, tx, m, account, m.To, m.Amount); err != nil {
			return nil, err
		}
	}
	return account, nil
}

func (l *Ledger) journal(ctx context.Context, tx *gorm.DB, m Movement, after *model.Account, bucket model.Bucket, delta int64) error {
	balanceAfter := after.Amount(bucket)
	trans := &model.AccountTransaction{
		TransactionNo: idgen.GenerateTransactionNo(),
		UserID:        m.UserID,
		ReferenceNo:   m.ReferenceNo,
		Bucket:        bucket,
		Amount:        delta,
		Type:          m.Type,
		BalanceBefore: balanceAfter - delta,
		BalanceAfter:  balanceAfter,
		Remark:        m.Remark,
	}
	if err := l.transactions.Create(ctx, tx, trans); err != nil {
		return fmt.Errorf("journal %s: %w", m.Type, err)
	}
	return nil
}

// ApplyGuaranteed is Apply for movements whose source balance is guaranteed by an
// earlier step. A failed funds check there means the ledger is corrupt, so it is
// reported as ErrBalanceInconsistency and logged for operators.
func (l *Ledger) ApplyGuaranteed(ctx context.Context, tx *gorm.DB, m Movement) (*model.Account, error) {
	account, err := l.Apply(ctx, tx, m)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, model.ErrInsufficientFunds) || errors.Is(err, repository.ErrAccountNotFound) {
		l.log.Error("balance inconsistency",
			zap.Int64("user_id", m.UserID),
			zap.String("from", string(m.From)),
			zap.String("to", string(m.To)),
			zap.Int64("amount", m.Amount),
			zap.String("type", m.Type),
			zap.String("reference_no", m.ReferenceNo),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s %s for user %d: %v",
			model.ErrBalanceInconsistency, m.Type, m.ReferenceNo, m.UserID, err)
	}
	return nil, err
}

// insufficientFunds folds a missing account into ErrInsufficientFunds, an
// account that never existed has nothing to spend.
func insufficientFunds(err error) error {
	if errors.Is(err, repository.ErrAccountNotFound) {
		return fmt.Errorf("%w: no balance", model.ErrInsufficientFunds)
	}
	return err
}
