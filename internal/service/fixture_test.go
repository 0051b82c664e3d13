package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace/internal/config"
	"marketplace/internal/model"
	"marketplace/internal/repository"
	"marketplace/internal/testutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	buyerID  int64 = 1
	sellerID int64 = 2
	adminID  int64 = 99
)

var (
	buyer  = Actor{UserID: buyerID, Role: RoleBuyer}
	seller = Actor{UserID: sellerID, Role: RoleSeller}
	admin  = Actor{UserID: adminID, Role: RoleAdmin}
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	db          *gorm.DB
	cfg         *config.Config
	clock       *testClock
	orders      *OrderService
	withdrawals *WithdrawalService
	deposits    *DepositService
	accounts    *AccountService
	pricing     *PricingService
	settings    *SettingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewDB(t))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	cfg := testutil.Config(t)
	log := zap.NewNop()
	clock := &testClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}

	f := &fixture{
		db:          db,
		cfg:         cfg,
		clock:       clock,
		orders:      NewOrderService(db, cfg, log),
		withdrawals: NewWithdrawalService(db, cfg, log),
		deposits:    NewDepositService(db, cfg, log),
		accounts:    NewAccountService(db, log),
		pricing:     NewPricingService(db, log),
		settings:    NewSettingService(db, cfg),
	}
	f.orders.now = clock.Now
	f.withdrawals.now = clock.Now
	f.deposits.now = clock.Now
	return f
}

func (f *fixture) account(t *testing.T, userID int64) *model.Account {
	t.Helper()

	var account model.Account
	err := f.db.Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.Account{UserID: userID}
	}
	require.NoError(t, err)
	return &account
}

func (f *fixture) product(t *testing.T, id int64) *model.Product {
	t.Helper()

	var product model.Product
	require.NoError(t, f.db.First(&product, id).Error)
	return &product
}

func (f *fixture) order(t *testing.T, id int64) *model.Order {
	t.Helper()

	var order model.Order
	require.NoError(t, f.db.First(&order, id).Error)
	return &order
}

// totalMoney sums every bucket of the given users, the price of orders not yet
// sent, fees taken on sent orders and approved payouts. Money only enters
// through seeding and deposits, so the total stays constant across order and
// withdrawal operations.
func (f *fixture) totalMoney(t *testing.T, userIDs ...int64) int64 {
	t.Helper()

	withdrawals := repository.NewWithdrawalRepository(f.db)

	var total int64
	for _, id := range userIDs {
		a := f.account(t, id)
		total += a.Spendable + a.PendingEscrow + a.Withdrawable + a.WithdrawalInFlight

		paid, err := withdrawals.SumApproved(context.Background(), id)
		require.NoError(t, err)
		total += paid
	}

	var fees int64
	require.NoError(t, f.db.Model(&model.Order{}).
		Where("status IN ?", []string{model.OrderStatusSent, model.OrderStatusCompleted}).
		Select("COALESCE(SUM(fee_amount), 0)").Scan(&fees).Error)

	var held int64
	require.NoError(t, f.db.Model(&model.Order{}).
		Where("status IN ?", []string{model.OrderStatusPending, model.OrderStatusProcessing}).
		Select("COALESCE(SUM(price), 0)").Scan(&held).Error)

	return total + held + fees
}
