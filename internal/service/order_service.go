package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/pkg/idgen"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService is the order state machine. Every transition runs in one database
// transaction: a compare-and-set on the order status followed by the balance
// movements that belong to it. Either all of them commit or none does.
type OrderService struct {
	db          *gorm.DB
	cfg         *config.Config
	log         *zap.Logger
	orderRepo   *repository.OrderRepository
	productRepo *repository.ProductRepository
	ledger      *Ledger
	settings    *SettingService
	events      *eventWriter
	now         func() time.Time
}

func NewOrderService(db *gorm.DB, cfg *config.Config, log *zap.Logger) *OrderService {
	return &OrderService{
		db:          db,
		cfg:         cfg,
		log:         log,
		orderRepo:   repository.NewOrderRepository(db),
		productRepo: repository.NewProductRepository(db),
		ledger:      NewLedger(db, log),
		settings:    NewSettingService(db, cfg),
		events:      &eventWriter{outboxRepo: repository.NewOutboxRepository(db)},
		now:         time.Now,
	}
}

type CreateOrderRequest struct {
	RequestID string
	ProductID int64
	InputData string
}

// Create charges the buyer, takes one unit of stock and opens the order in pending.
// Repeating a RequestID returns the order created the first time.
func (s *OrderService) Create(ctx context.Context, actor Actor, req *CreateOrderRequest) (*model.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if req.RequestID == "" || len(req.RequestID) > 64 {
		return nil, validationError("request_id is required and at most 64 characters")
	}
	if req.ProductID <= 0 {
		return nil, validationError("product_id is required")
	}

	existing, err := s.orderRepo.GetByBuyerRequest(ctx, nil, actor.UserID, req.RequestID)
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now()
	order := &model.Order{
		OrderNo:   idgen.GenerateOrderNo(),
		RequestID: req.RequestID,
		BuyerID:   actor.UserID,
		ProductID: req.ProductID,
		InputData: req.InputData,
		Status:    model.OrderStatusPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.GetByID(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return validationError("product %d is not available", product.ID)
		}
		if product.SellerID == actor.UserID {
			return validationError("cannot buy your own product")
		}
		if product.Price <= 0 {
			return validationError("product %d has no price", product.ID)
		}
		if product.Stock <= 0 {
			return repository.ErrProductOutOfStock
		}

		order.SellerID = product.SellerID
		order.Price = product.Price

		_, err = s.ledger.Apply(ctx, tx, Movement{
			UserID:      actor.UserID,
			From:        model.BucketSpendable,
			Amount:      product.Price,
			Type:        model.TransactionTypePurchase,
			ReferenceNo: order.OrderNo,
			Remark:      fmt.Sprintf("purchase product %d", product.ID),
		})
		if err != nil {
			return insufficientFunds(err)
		}

		if err := s.productRepo.DecrementStock(ctx, tx, product.ID); err != nil {
			return err
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		return s.events.orderChanged(ctx, tx, s.cfg.Kafka.Topic.OrderEvent, order, "", now)
	})

	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race against the same request id
			if dup, qerr := s.orderRepo.GetByBuyerRequest(ctx, nil, actor.UserID, req.RequestID); qerr == nil && dup != nil {
				return dup, nil
			}
		}
		return nil, err
	}

	s.log.Info("order created",
		zap.String("order_no", order.OrderNo),
		zap.Int64("buyer_id", order.BuyerID),
		zap.Int64("seller_id", order.SellerID),
		zap.Int64("price", order.Price))

	return order, nil
}

// Advance is the seller moving an order one step: pending to processing, or
// processing to sent.
func (s *OrderService) Advance(ctx context.Context, actor Actor, orderID int64) (*model.Order, error) {
	return s.transition(ctx, orderID, func(tx *gorm.DB, order *model.Order, now time.Time) error {
		if !actor.Owns(order.SellerID) {
			return fmt.Errorf("%w: not the seller of this order", model.ErrForbidden)
		}
		switch order.Status {
		case model.OrderStatusPending:
			return s.markProcessing(ctx, tx, order, now)
		case model.OrderStatusProcessing:
			return s.markSent(ctx, tx, order, now)
		default:
			return fmt.Errorf("%w: cannot advance a %s order", model.ErrInvalidTransition, order.Status)
		}
	})
}

// Confirm is the buyer accepting delivery of a sent order.
func (s *OrderService) Confirm(ctx context.Context, actor Actor, orderID int64) (*model.Order, error) {
	return s.transition(ctx, orderID, func(tx *gorm.DB, order *model.Order, now time.Time) error {
		if !actor.Owns(order.BuyerID) {
			return fmt.Errorf("%w: not the buyer of this order", model.ErrForbidden)
		}
		if order.Status != model.OrderStatusSent {
			return fmt.Errorf("%w: cannot confirm a %s order", model.ErrInvalidTransition, order.Status)
		}
		return s.complete(ctx, tx, order, now)
	})
}

// Cancel refunds the buyer. Sellers may cancel pending or sent orders of their
// own, admins may also cancel processing ones.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID int64) (*model.Order, error) {
	return s.transition(ctx, orderID, func(tx *gorm.DB, order *model.Order, now time.Time) error {
		allowed := model.CanTransitionTo(order.Status, model.OrderStatusCancelled)
		switch {
		case actor.IsAdmin():
			allowed = model.CanAdminTransitionTo(order.Status, model.OrderStatusCancelled)
		case !actor.Owns(order.SellerID):
			return fmt.Errorf("%w: not the seller of this order", model.ErrForbidden)
		}
		if !allowed {
			return fmt.Errorf("%w: cannot cancel a %s order", model.ErrInvalidTransition, order.Status)
		}
		return s.cancel(ctx, tx, order, now)
	})
}

// AdminForceStatus moves an order straight to target, replaying the balance
// effects of every step it skips. Terminal orders and backward moves are refused.
func (s *OrderService) AdminForceStatus(ctx context.Context, actor Actor, orderID int64, target string) (*model.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !model.IsValidOrderStatus(target) {
		return nil, validationError("unknown status %q", target)
	}

	return s.transition(ctx, orderID, func(tx *gorm.DB, order *model.Order, now time.Time) error {
		if model.IsTerminalStatus(order.Status) || order.Status == target {
			return fmt.Errorf("%w: order is %s", model.ErrInvalidTransition, order.Status)
		}

		if target == model.OrderStatusCancelled {
			return s.cancel(ctx, tx, order, now)
		}

		from, to := pathIndex(order.Status), pathIndex(target)
		if to <= from {
			return fmt.Errorf("%w: cannot move %s back to %s", model.ErrInvalidTransition, order.Status, target)
		}

		for _, step := range model.ForwardPath[from+1 : to+1] {
			var err error
			switch step {
			case model.OrderStatusProcessing:
				err = s.markProcessing(ctx, tx, order, now)
			case model.OrderStatusSent:
				err = s.markSent(ctx, tx, order, now)
			case model.OrderStatusCompleted:
				err = s.complete(ctx, tx, order, now)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CompleteIfSent completes an order whose sent deadline has passed. It performs
// the same movement as Confirm and fails with ErrInvalidTransition when the order
// is no longer sent, so a concurrent Confirm is never applied twice.
func (s *OrderService) CompleteIfSent(ctx context.Context, orderID int64) (*model.Order, error) {
	return s.transition(ctx, orderID, func(tx *gorm.DB, order *model.Order, now time.Time) error {
		if order.Status != model.OrderStatusSent {
			return fmt.Errorf("%w: order is %s", model.ErrInvalidTransition, order.Status)
		}
		if order.SentAt == nil || now.Sub(*order.SentAt) < s.cfg.Business.AutoCompleteAfter {
			return fmt.Errorf("%w: auto-complete deadline not reached", model.ErrInvalidTransition)
		}
		return s.complete(ctx, tx, order, now)
	})
}

func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, nil, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !actor.Owns(order.BuyerID) && !actor.Owns(order.SellerID) {
		return nil, fmt.Errorf("%w: not a party of this order", model.ErrForbidden)
	}
	return order, nil
}

// ListOrders pages through the actor's purchases, or sales when asSeller is set.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, asSeller bool, page, pageSize int) ([]*model.Order, int64, error) {
	if err := requireUser(actor); err != nil {
		return nil, 0, err
	}
	page, pageSize = normalizePage(page, pageSize)
	if asSeller {
		return s.orderRepo.ListBySeller(ctx, actor.UserID, page, pageSize)
	}
	return s.orderRepo.ListByBuyer(ctx, actor.UserID, page, pageSize)
}

func (s *OrderService) transition(ctx context.Context, orderID int64, fn func(tx *gorm.DB, order *model.Order, now time.Time) error) (*model.Order, error) {
	var order *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.GetByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		return fn(tx, order, s.now())
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) markProcessing(ctx context.Context, tx *gorm.DB, order *model.Order, now time.Time) error {
	from := order.Status
	if err := s.orderRepo.Transition(ctx, tx, order.ID, from, model.OrderStatusProcessing, nil); err != nil {
		return err
	}
	order.Status = model.OrderStatusProcessing
	return s.events.orderChanged(ctx, tx, s.cfg.Kafka.Topic.OrderEvent, order, from, now)
}

// markSent freezes the fee split using the fee policy in force now and credits
// the seller's pending escrow.
func (s *OrderService) markSent(ctx context.Context, tx *gorm.DB, order *model.Order, now time.Time) error {
	policy, err := s.settings.FeePolicy(ctx, tx)
	if err != nil {
		return err
	}
	fee, received := policy.Split(order.Price)

	from := order.Status
	err = s.orderRepo.Transition(ctx, tx, order.ID, from, model.OrderStatusSent, map[string]interface{}{
		"fee_amount":             fee,
		"seller_received_amount": received,
		"sent_at":                now,
	})
	if err != nil {
		return err
	}
	order.Status = model.OrderStatusSent
	order.FeeAmount = fee
	order.SellerReceivedAmount = received
	order.SentAt = &now

	if received > 0 {
		_, err = s.ledger.Apply(ctx, tx, Movement{
			UserID:      order.SellerID,
			To:          model.BucketPendingEscrow,
			Amount:      received,
			Type:        model.TransactionTypeEscrowCredit,
			ReferenceNo: order.OrderNo,
			Remark:      fmt.Sprintf("price %d fee %d", order.Price, fee),
		})
		if err != nil {
			return fmt.Errorf("credit escrow: %w", err)
		}
	}

	return s.events.orderChanged(ctx, tx, s.cfg.Kafka.Topic.OrderEvent, order, from, now)
}

// complete releases the escrow credited at sent into the seller's withdrawable bucket.
func (s *OrderService) complete(ctx context.Context, tx *gorm.DB, order *model.Order, now time.Time) error {
	from := order.Status
	err := s.orderRepo.Transition(ctx, tx, order.ID, from, model.OrderStatusCompleted, map[string]interface{}{
		"completed_at": now,
	})
	if err != nil {
		return err
	}
	order.Status = model.OrderStatusCompleted
	order.CompletedAt = &now

	if order.SellerReceivedAmount > 0 {
		_, err = s.ledger.ApplyGuaranteed(ctx, tx, Movement{
			UserID:      order.SellerID,
			From:        model.BucketPendingEscrow,
			To:          model.BucketWithdrawable,
			Amount:      order.SellerReceivedAmount,
			Type:        model.TransactionTypeEscrowRelease,
			ReferenceNo: order.OrderNo,
		})
		if err != nil {
			return err
		}
	}

	// the catalog may have dropped the product; the sold counter is not money
	if err := s.productRepo.IncrementSold(ctx, tx, order.ProductID); err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			return fmt.Errorf("increment sold: %w", err)
		}
		s.log.Warn("sold counter skipped, product is gone",
			zap.String("order_no", order.OrderNo), zap.Int64("product_id", order.ProductID))
	}

	return s.events.orderChanged(ctx, tx, s.cfg.Kafka.Topic.OrderEvent, order, from, now)
}

// cancel refunds the price, restores one unit of stock and, when the order had
// reached sent, takes the escrow credit back from the seller.
func (s *OrderService) cancel(ctx context.Context, tx *gorm.DB, order *model.Order, now time.Time) error {
	from := order.Status
	err := s.orderRepo.Transition(ctx, tx, order.ID, from, model.OrderStatusCancelled, map[string]interface{}{
		"cancelled_at": now,
	})
	if err != nil {
		return err
	}
	order.Status = model.OrderStatusCancelled
	order.CancelledAt = &now

	if from == model.OrderStatusSent && order.SellerReceivedAmount > 0 {
		_, err = s.ledger.ApplyGuaranteed(ctx, tx, Movement{
			UserID:      order.SellerID,
			From:        model.BucketPendingEscrow,
			Amount:      order.SellerReceivedAmount,
			Type:        model.TransactionTypeEscrowReversal,
			ReferenceNo: order.OrderNo,
		})
		if err != nil {
			return err
		}
	}

	_, err = s.ledger.Apply(ctx, tx, Movement{
		UserID:      order.BuyerID,
		To:          model.BucketSpendable,
		Amount:      order.Price,
		Type:        model.TransactionTypeRefund,
		ReferenceNo: order.OrderNo,
		Remark:      "cancelled from " + from,
	})
	if err != nil {
		return fmt.Errorf("refund buyer: %w", err)
	}

	if err := s.productRepo.RestoreStock(ctx, tx, order.ProductID); err != nil {
		if !errors.Is(err, repository.ErrProductNotFound) {
			return fmt.Errorf("restore stock: %w", err)
		}
		s.log.Warn("stock restore skipped, product is gone",
			zap.String("order_no", order.OrderNo), zap.Int64("product_id", order.ProductID))
	}

	return s.events.orderChanged(ctx, tx, s.cfg.Kafka.Topic.OrderEvent, order, from, now)
}

func pathIndex(status string) int {
	for i, st := range model.ForwardPath {
		if st == status {
			return i
		}
	}
	return -1
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
