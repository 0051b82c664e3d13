package repository

import (
	"context"
	"testing"

	"marketplace/internal/model"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_RecordFailure(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOutboxRepository(db)

	msg := &model.OutboxMessage{MessageKey: "ORD1", Topic: "market.order.event", Payload: "{}", Status: model.OutboxStatusPending}
	require.NoError(t, repo.Create(ctx, nil, msg))

	require.NoError(t, repo.RecordFailure(ctx, msg.ID, 2))
	pending, err := repo.GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)

	require.NoError(t, repo.RecordFailure(ctx, msg.ID, 2))
	pending, err = repo.GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	failed, err := repo.ListByStatus(ctx, model.OutboxStatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].RetryCount)
}
