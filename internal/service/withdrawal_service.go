package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawalService runs the two phase cash-out: the seller parks funds in
// WithdrawalInFlight, an admin then pays them out or returns them.
type WithdrawalService struct {
	db             *gorm.DB
	cfg            *config.Config
	log            *zap.Logger
	withdrawalRepo *repository.WithdrawalRepository
	ledger         *Ledger
	events         *eventWriter
	now            func() time.Time
}

func NewWithdrawalService(db *gorm.DB, cfg *config.Config, log *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		cfg:            cfg,
		log:            log,
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		ledger:         NewLedger(db, log),
		events:         &eventWriter{outboxRepo: repository.NewOutboxRepository(db)},
		now:            time.Now,
	}
}

type WithdrawalRequest struct {
	Amount        int64
	BankName      string
	AccountNumber string
	AccountHolder string
}

func (r *WithdrawalRequest) validate() error {
	if r.Amount <= 0 {
		return validationError("amount must be positive")
	}
	if strings.TrimSpace(r.BankName) == "" || strings.TrimSpace(r.AccountNumber) == "" || strings.TrimSpace(r.AccountHolder) == "" {
		return validationError("payout details are required")
	}
	return nil
}

func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, actor Actor, req *WithdrawalRequest) (*model.WithdrawalRequest, error) {
	if err := requireSeller(actor); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	wr := &model.WithdrawalRequest{
		RequestNo:     idgen.GenerateWithdrawalNo(),
		SellerID:      actor.UserID,
		Amount:        req.Amount,
		BankName:      strings.TrimSpace(req.BankName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		AccountHolder: strings.TrimSpace(req.AccountHolder),
		Status:        model.RequestStatusPending,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := s.ledger.Apply(ctx, tx, Movement{
			UserID:      actor.UserID,
			From:        model.BucketWithdrawable,
			To:          model.BucketWithdrawalInFlight,
			Amount:      req.Amount,
			Type:        model.TransactionTypeWithdrawalHold,
			ReferenceNo: wr.RequestNo,
		})
		if err != nil {
			return insufficientFunds(err)
		}
		if err := s.withdrawalRepo.Create(ctx, tx, wr); err != nil {
			return fmt.Errorf("create withdrawal request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal requested",
		zap.String("request_no", wr.RequestNo),
		zap.Int64("seller_id", wr.SellerID),
		zap.Int64("amount", wr.Amount))

	return wr, nil
}

// Resolve approves (funds leave the platform) or rejects (funds go back to
// withdrawable) a pending request.
func (s *WithdrawalService) Resolve(ctx context.Context, actor Actor, requestID int64, decision, note string) (*model.WithdrawalRequest, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status, err := decisionStatus(decision)
	if err != nil {
		return nil, err
	}

	var wr *model.WithdrawalRequest
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		wr, err = s.withdrawalRepo.GetByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if wr.Status != model.RequestStatusPending {
			return repository.ErrRequestResolved
		}

		now := s.now()
		if err := s.withdrawalRepo.Resolve(ctx, tx, wr.ID, status, actor.UserID, note, now); err != nil {
			return err
		}

		m := Movement{
			UserID:      wr.SellerID,
			From:        model.BucketWithdrawalInFlight,
			Amount:      wr.Amount,
			Type:        model.TransactionTypeWithdrawalPayout,
			ReferenceNo: wr.RequestNo,
			Remark:      note,
		}
		if status == model.RequestStatusRejected {
			m.To = model.BucketWithdrawable
			m.Type = model.TransactionTypeWithdrawalReturn
		}
		if _, err := s.ledger.ApplyGuaranteed(ctx, tx, m); err != nil {
			return err
		}

		adminID := actor.UserID
		wr.Status = status
		wr.Note = note
		wr.ResolvedBy = &adminID
		wr.ResolvedAt = &now

		return s.events.write(ctx, tx, s.cfg.Kafka.Topic.WalletEvent, wr.RequestNo, walletEvent{
			Event:     model.EventWithdrawalResolved,
			RequestNo: wr.RequestNo,
			UserID:    wr.SellerID,
			Amount:    wr.Amount,
			Status:    status,
			At:        now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("withdrawal resolved",
		zap.String("request_no", wr.RequestNo),
		zap.String("status", wr.Status),
		zap.Int64("admin_id", actor.UserID))

	return wr, nil
}

func (s *WithdrawalService) List(ctx context.Context, actor Actor) ([]*model.WithdrawalRequest, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.withdrawalRepo.ListBySeller(ctx, actor.UserID)
}

func decisionStatus(decision string) (string, error) {
	switch decision {
	case model.DecisionApprove:
		return model.RequestStatusApproved, nil
	case model.DecisionReject:
		return model.RequestStatusRejected, nil
	}
	return "", validationError("decision must be %q or %q", model.DecisionApprove, model.DecisionReject)
}
