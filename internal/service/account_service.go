package service

import (
	"context"
	"fmt"

	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AccountService struct {
	db              *gorm.DB
	accountRepo     *repository.AccountRepository
	transactionRepo *repository.TransactionRepository
	ledger          *Ledger
}

func NewAccountService(db *gorm.DB, log *zap.Logger) *AccountService {
	return &AccountService{
		db:              db,
		accountRepo:     repository.NewAccountRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		ledger:          NewLedger(db, log),
	}
}

func (s *AccountService) GetAccount(ctx context.Context, actor Actor) (*model.Account, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.accountRepo.GetOrCreate(ctx, actor.UserID)
}

// ExchangeToSpendable lets a seller spend earnings on the platform.
func (s *AccountService) ExchangeToSpendable(ctx context.Context, actor Actor, amount int64) (*model.Account, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, validationError("amount must be positive")
	}

	var account *model.Account
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.ledger.Apply(ctx, tx, Movement{
			UserID:      actor.UserID,
			From:        model.BucketWithdrawable,
			To:          model.BucketSpendable,
			Amount:      amount,
			Type:        model.TransactionTypeExchange,
			ReferenceNo: idgen.GenerateTransactionNo(),
		})
		return insufficientFunds(err)
	})
	if err != nil {
		return nil, fmt.Errorf("exchange: %w", err)
	}
	return account, nil
}

func (s *AccountService) ListTransactions(ctx context.Context, actor Actor, page, pageSize int) ([]*model.AccountTransaction, int64, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)
	return s.transactionRepo.ListByUserID(ctx, actor.UserID, page, pageSize)
}
