package service

import (
	"context"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DepositService tracks manually reviewed top-ups. Approval credits spendable.
type DepositService struct {
	db          *gorm.DB
	cfg         *config.Config
	log         *zap.Logger
	depositRepo *repository.DepositRepository
	ledger      *Ledger
	events      *eventWriter
	now         func() time.Time
}

func NewDepositService(db *gorm.DB, cfg *config.Config, log *zap.Logger) *DepositService {
	return &DepositService{
		db:          db,
		cfg:         cfg,
		log:         log,
		depositRepo: repository.NewDepositRepository(db),
		ledger:      NewLedger(db, log),
		events:      &eventWriter{outboxRepo: repository.NewOutboxRepository(db)},
		now:         time.Now,
	}
}

func (s *DepositService) CreateDeposit(ctx context.Context, actor Actor, amount int64, proofRef string) (*model.DepositRequest, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, validationError("amount must be positive")
	}
	if strings.TrimSpace(proofRef) == "" {
		return nil, validationError("proof is required")
	}

	dr := &model.DepositRequest{
		RequestNo: idgen.GenerateDepositNo(),
		BuyerID:   actor.UserID,
		Amount:    amount,
		ProofRef:  strings.TrimSpace(proofRef),
		Status:    model.RequestStatusPending,
	}
	if err := s.depositRepo.Create(ctx, dr); err != nil {
		return nil, err
	}
	return dr, nil
}

func (s *DepositService) Resolve(ctx context.Context, actor Actor, requestID int64, decision, note string) (*model.DepositRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status, err := decisionStatus(decision)
	if err != nil {
		return nil, err
	}

	var dr *model.DepositRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		dr, err = s.depositRepo.GetByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if dr.Status != model.RequestStatusPending {
			return repository.ErrRequestResolved
		}

		now := s.now()
		if err := s.depositRepo.Resolve(ctx, tx, dr.ID, status, actor.UserID, note, now); err != nil {
			return err
		}

		if status == model.RequestStatusApproved {
			_, err := s.ledger.Apply(ctx, tx, Movement{
				UserID:      dr.BuyerID,
				To:          model.BucketSpendable,
				Amount:      dr.Amount,
				Type:        model.TransactionTypeDeposit,
				ReferenceNo: dr.RequestNo,
				Remark:      note,
			})
			if err != nil {
				return err
			}
		}

		adminID := actor.UserID
		dr.Status = status
		dr.Note = note
		dr.ResolvedBy = &adminID
		dr.ResolvedAt = &now

		return s.events.write(ctx, tx, s.cfg.Kafka.Topic.WalletEvent, dr.RequestNo, walletEvent{
			Event:     model.EventDepositResolved,
			RequestNo: dr.RequestNo,
			UserID:    dr.BuyerID,
			Amount:    dr.Amount,
			Status:    status,
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("deposit resolved",
		zap.String("request_no", dr.RequestNo),
		zap.String("status", dr.Status),
		zap.Int64("admin_id", actor.UserID))

	return dr, nil
}
