package job

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/infrastructure/mq"
	"marketplace/internal/model"
	"marketplace/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutboxSender relays pending outbox rows to the message broker.
type OutboxSender struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	log        *zap.Logger
	maxRetry   int
	stopCh     chan struct{}
	stopOnce   sync.Once
	interval   time.Duration
	batchSize  int
}

func NewOutboxSender(db *gorm.DB, publisher mq.Publisher, cfg *config.Config, log *zap.Logger) *OutboxSender {
	interval := cfg.Business.OutboxInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxSender{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		log:        log.Named("outbox"),
		maxRetry:   cfg.Business.MaxRetryCount,
		stopCh:     make(chan struct{}),
		interval:   interval,
		batchSize:  100,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	s.log.Info("outbox sender started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("outbox sender stopped by context")
			return
		case <-s.stopCh:
			s.log.Info("outbox sender stopped")
			return
		case <-ticker.C:
			s.ProcessPending(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// ProcessPending sends one batch and returns how many messages went out.
func (s *OutboxSender) ProcessPending(ctx context.Context) int {
	messages, err := s.outboxRepo.GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		s.log.Error("query pending messages", zap.Error(err))
		return 0
	}

	sent := 0
	for _, msg := range messages {
		if s.send(ctx, msg) {
			sent++
		}
	}
	return sent
}

func (s *OutboxSender) send(ctx context.Context, msg *model.OutboxMessage) bool {
	err := s.publisher.Publish(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := s.outboxRepo.MarkAsSent(ctx, msg.ID); err != nil {
			s.log.Error("mark message sent", zap.Int64("id", msg.ID), zap.Error(err))
		}
		return true
	}

	s.log.Warn("publish message failed", zap.Int64("id", msg.ID), zap.String("topic", msg.Topic), zap.Error(err))

	if err := s.outboxRepo.RecordFailure(ctx, msg.ID, s.maxRetry); err != nil {
		s.log.Error("record message failure", zap.Int64("id", msg.ID), zap.Error(err))
	}
	return false
}
