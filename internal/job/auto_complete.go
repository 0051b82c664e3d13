package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Lease keeps replicas from sweeping at the same time. It is an optimisation
// only; each completion is guarded by the order status compare-and-set.
type Lease interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

type SweepResult struct {
	Found     int  `json:"found"`
	Completed int  `json:"completed"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Contended bool `json:"contended"`
}

// AutoCompleteJob completes orders left in sent longer than the configured
// deadline, as if the buyer had confirmed them.
type AutoCompleteJob struct {
	orderRepo    *repository.OrderRepository
	orderService *service.OrderService
	lease        Lease
	log          *zap.Logger
	after        time.Duration
	interval     time.Duration
	batchSize    int
	stopCh       chan struct{}
	stopOnce     sync.Once
	now          func() time.Time
}

func NewAutoCompleteJob(db *gorm.DB, orderService *service.OrderService, lease Lease, cfg *config.Config, log *zap.Logger) *AutoCompleteJob {
	batch := cfg.Business.SweepBatchSize
	if batch <= 0 {
		batch = 200
	}
	return &AutoCompleteJob{
		orderRepo:    repository.NewOrderRepository(db),
		orderService: orderService,
		lease:        lease,
		log:          log.Named("auto_complete"),
		after:        cfg.Business.AutoCompleteAfter,
		interval:     cfg.Business.SweepInterval,
		batchSize:    batch,
		stopCh:       make(chan struct{}),
		now:          time.Now,
	}
}

func (j *AutoCompleteJob) Start(ctx context.Context) {
	j.log.Info("auto-complete job started", zap.Duration("interval", j.interval), zap.Duration("after", j.after))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.log.Info("auto-complete job stopped by context")
			return
		case <-j.stopCh:
			j.log.Info("auto-complete job stopped")
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil {
				j.log.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (j *AutoCompleteJob) Stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
}

// Sweep runs one pass. It only errors when the candidate query itself fails;
// per-order failures are logged and counted.
func (j *AutoCompleteJob) Sweep(ctx context.Context) (*SweepResult, error) {
	result := &SweepResult{}

	if j.lease != nil {
		ok, err := j.lease.TryLock(ctx)
		if err != nil {
			// without the lease we still sweep, the status CAS keeps it correct
			j.log.Warn("sweep lease unavailable", zap.Error(err))
		} else if !ok {
			result.Contended = true
			return result, nil
		} else {
			defer func() {
				if err := j.lease.Unlock(context.Background()); err != nil {
					j.log.Warn("release sweep lease", zap.Error(err))
				}
			}()
		}
	}

	// pages walk a (sent_at, id) cursor so orders that keep failing never
	// hide newer ones from the pass
	deadline := j.now().Add(-j.after)
	var cursor repository.SentCursor
	for ctx.Err() == nil {
		orders, err := j.orderRepo.GetSentBefore(ctx, deadline, cursor, j.batchSize)
		if err != nil {
			return nil, err
		}
		result.Found += len(orders)

		for _, order := range orders {
			if ctx.Err() != nil {
				break
			}
			j.completeOne(ctx, order, result)
			cursor = cursor.After(order)
		}

		if len(orders) < j.batchSize {
			break
		}
	}

	if result.Found > 0 {
		j.log.Info("sweep finished",
			zap.Int("found", result.Found),
			zap.Int("completed", result.Completed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed))
	}
	return result, nil
}

func (j *AutoCompleteJob) completeOne(ctx context.Context, order *model.Order, result *SweepResult) {
	_, err := j.orderService.CompleteIfSent(ctx, order.ID)
	switch {
	case err == nil:
		result.Completed++
		j.log.Info("order auto-completed",
			zap.String("order_no", order.OrderNo),
			zap.Int64("seller_id", order.SellerID),
			zap.Int64("amount", order.SellerReceivedAmount))
	case errors.Is(err, model.ErrInvalidTransition):
		// confirmed or cancelled since it was selected
		result.Skipped++
	default:
		result.Failed++
		j.log.Error("auto-complete order failed", zap.String("order_no", order.OrderNo), zap.Error(err))
	}
}
