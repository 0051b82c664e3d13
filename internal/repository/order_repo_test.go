package repository

import (
	"context"
	"testing"
	"time"

	"marketplace/internal/model"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createOrder(t *testing.T, repo *OrderRepository, requestID, status string) *model.Order {
	t.Helper()

	order := &model.Order{
		OrderNo:   "ORD-" + requestID,
		RequestID: requestID,
		BuyerID:   1,
		SellerID:  2,
		ProductID: 3,
		Price:     4000,
		Status:    status,
	}
	require.NoError(t, repo.Create(context.Background(), nil, order))
	return order
}

func TestOrderRepository_Transition(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	order := createOrder(t, repo, "r1", model.OrderStatusPending)

	require.NoError(t, repo.Transition(ctx, nil, order.ID, model.OrderStatusPending, model.OrderStatusProcessing, nil))

	// the order is no longer pending, a second writer loses
	err := repo.Transition(ctx, nil, order.ID, model.OrderStatusPending, model.OrderStatusProcessing, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	err = repo.Transition(ctx, nil, order.ID, model.OrderStatusProcessing, model.OrderStatusSent, map[string]interface{}{
		"fee_amount":             int64(20),
		"seller_received_amount": int64(3980),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusSent, got.Status)
	assert.Equal(t, int64(20), got.FeeAmount)
	assert.Equal(t, int64(3980), got.SellerReceivedAmount)
}

func TestOrderRepository_TransitionRejectsIllegalEdge(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	order := createOrder(t, repo, "r1", model.OrderStatusCompleted)

	err := repo.Transition(context.Background(), nil, order.ID, model.OrderStatusCompleted, model.OrderStatusCancelled, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestOrderRepository_UniqueBuyerRequest(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	createOrder(t, repo, "same", model.OrderStatusPending)

	dup := &model.Order{OrderNo: "ORD-other", RequestID: "same", BuyerID: 1, SellerID: 2, ProductID: 3, Price: 1, Status: model.OrderStatusPending}
	err := repo.Create(ctx, nil, dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	got, err := repo.GetByBuyerRequest(ctx, nil, 1, "same")
	require.NoError(t, err)
	require.NotNil(t, got)

	none, err := repo.GetByBuyerRequest(ctx, nil, 1, "missing")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOrderRepository_GetSentBefore(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	old := createOrder(t, repo, "old", model.OrderStatusSent)
	fresh := createOrder(t, repo, "fresh", model.OrderStatusSent)
	createOrder(t, repo, "pending", model.OrderStatusPending)

	require.NoError(t, db.Model(old).Update("sent_at", now.Add(-25*time.Hour)).Error)
	require.NoError(t, db.Model(fresh).Update("sent_at", now.Add(-time.Hour)).Error)

	orders, err := repo.GetSentBefore(ctx, now.Add(-24*time.Hour), SentCursor{}, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, old.ID, orders[0].ID)
}

func TestOrderRepository_GetSentBeforeCursor(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// a and b share sent_at, the id breaks the tie
	a := createOrder(t, repo, "a", model.OrderStatusSent)
	b := createOrder(t, repo, "b", model.OrderStatusSent)
	c := createOrder(t, repo, "c", model.OrderStatusSent)
	require.NoError(t, db.Model(a).Update("sent_at", now.Add(-30*time.Hour)).Error)
	require.NoError(t, db.Model(b).Update("sent_at", now.Add(-30*time.Hour)).Error)
	require.NoError(t, db.Model(c).Update("sent_at", now.Add(-26*time.Hour)).Error)

	deadline := now.Add(-24 * time.Hour)
	var (
		cursor SentCursor
		seen   []int64
	)
	for {
		page, err := repo.GetSentBefore(ctx, deadline, cursor, 2)
		require.NoError(t, err)
		for _, o := range page {
			seen = append(seen, o.ID)
			cursor = cursor.After(o)
		}
		if len(page) < 2 {
			break
		}
	}
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, seen)
}

func TestOrderRepository_GetByIDNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)

	_, err := repo.GetByID(context.Background(), nil, 99)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
