package handler

import (
	"strconv"

	"marketplace/internal/job"
	"marketplace/internal/service"
	"marketplace/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Services groups the core operations the HTTP layer exposes.
type Services struct {
	Account    *service.AccountService
	Order      *service.OrderService
	Withdrawal *service.WithdrawalService
	Deposit    *service.DepositService
	Pricing    *service.PricingService
	Setting    *service.SettingService
	Sweeper    *job.AutoCompleteJob
}

type Handler struct {
	svc Services
	log *zap.Logger
}

func NewHandler(svc Services, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// fail logs operator-visible errors once and writes the response envelope.
func (h *Handler) fail(c *gin.Context, err error) {
	h.log.Warn("request failed",
		zap.String("path", c.FullPath()),
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.Error(err))
	response.FromError(c, err)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

// ============================================================
// account
// ============================================================

// GetBalance GET /api/v1/account/balance
func (h *Handler) GetBalance(c *gin.Context) {
	account, err := h.svc.Account.GetAccount(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

// ListTransactions GET /api/v1/account/transactions?page=1&page_size=20
func (h *Handler) ListTransactions(c *gin.Context) {
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 20)
	list, total, err := h.svc.Account.ListTransactions(c.Request.Context(), actorFrom(c), page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "total": total, "page": page, "page_size": pageSize})
}

type AmountRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// Exchange POST /api/v1/account/exchange
func (h *Handler) Exchange(c *gin.Context) {
	var req AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	account, err := h.svc.Account.ExchangeToSpendable(c.Request.Context(), actorFrom(c), req.Amount)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

// ============================================================
// orders
// ============================================================

type CreateOrderRequest struct {
	RequestID string `json:"request_id" binding:"required,max=64"`
	ProductID int64  `json:"product_id" binding:"required,gt=0"`
	InputData string `json:"input_data"`
}

// CreateOrder POST /api/v1/order/create
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}

	order, err := h.svc.Order.Create(c.Request.Context(), actorFrom(c), &service.CreateOrderRequest{
		RequestID: req.RequestID,
		ProductID: req.ProductID,
		InputData: req.InputData,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrder GET /api/v1/order/detail?order_id=1
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Query("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		response.ParamError(c, "order_id is invalid")
		return
	}
	order, err := h.svc.Order.GetOrder(c.Request.Context(), actorFrom(c), orderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders GET /api/v1/order/list?as=seller&page=1&page_size=20
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := queryInt(c, "page", 1), queryInt(c, "page_size", 20)
	asSeller := c.Query("as") == service.RoleSeller

	orders, total, err := h.svc.Order.ListOrders(c.Request.Context(), actorFrom(c), asSeller, page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": orders, "total": total, "page": page, "page_size": pageSize})
}

type OrderIDRequest struct {
	OrderID int64 `json:"order_id" binding:"required,gt=0"`
}

// AdvanceOrder POST /api/v1/order/advance
func (h *Handler) AdvanceOrder(c *gin.Context) {
	var req OrderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	order, err := h.svc.Order.Advance(c.Request.Context(), actorFrom(c), req.OrderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

// ConfirmOrder POST /api/v1/order/confirm
func (h *Handler) ConfirmOrder(c *gin.Context) {
	var req OrderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	order, err := h.svc.Order.Confirm(c.Request.Context(), actorFrom(c), req.OrderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder POST /api/v1/order/cancel
func (h *Handler) CancelOrder(c *gin.Context) {
	var req OrderIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	order, err := h.svc.Order.Cancel(c.Request.Context(), actorFrom(c), req.OrderID)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

type ForceStatusRequest struct {
	OrderID int64  `json:"order_id" binding:"required,gt=0"`
	Status  string `json:"status" binding:"required"`
}

// ForceOrderStatus POST /api/v1/admin/order/status
func (h *Handler) ForceOrderStatus(c *gin.Context) {
	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	order, err := h.svc.Order.AdminForceStatus(c.Request.Context(), actorFrom(c), req.OrderID, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, order)
}

// ============================================================
// withdrawals and deposits
// ============================================================

type WithdrawalRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountHolder string `json:"account_holder" binding:"required"`
}

// RequestWithdrawal POST /api/v1/withdrawal/request
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	wr, err := h.svc.Withdrawal.RequestWithdrawal(c.Request.Context(), actorFrom(c), &service.WithdrawalRequest{
		Amount:        req.Amount,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, wr)
}

// ListWithdrawals GET /api/v1/withdrawal/list
func (h *Handler) ListWithdrawals(c *gin.Context) {
	list, err := h.svc.Withdrawal.List(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

type ResolveRequest struct {
	RequestID int64  `json:"request_id" binding:"required,gt=0"`
	Decision  string `json:"decision" binding:"required,oneof=approve reject"`
	Note      string `json:"note" binding:"max=256"`
}

// ResolveWithdrawal POST /api/v1/admin/withdrawal/resolve
func (h *Handler) ResolveWithdrawal(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	wr, err := h.svc.Withdrawal.Resolve(c.Request.Context(), actorFrom(c), req.RequestID, req.Decision, req.Note)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, wr)
}

type DepositRequest struct {
	Amount   int64  `json:"amount" binding:"required,gt=0"`
	ProofRef string `json:"proof_ref" binding:"required,max=256"`
}

// RequestDeposit POST /api/v1/deposit/request
func (h *Handler) RequestDeposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	dr, err := h.svc.Deposit.CreateDeposit(c.Request.Context(), actorFrom(c), req.Amount, req.ProofRef)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, dr)
}

// ResolveDeposit POST /api/v1/admin/deposit/resolve
func (h *Handler) ResolveDeposit(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	dr, err := h.svc.Deposit.Resolve(c.Request.Context(), actorFrom(c), req.RequestID, req.Decision, req.Note)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, dr)
}

// ============================================================
// pricing and settings
// ============================================================

type SetCurrencyRequest struct {
	CurrencyID   int64            `json:"currency_id" binding:"required,gt=0"`
	Rate         *decimal.Decimal `json:"rate"`
	ProfitMargin *decimal.Decimal `json:"profit_margin"`
}

// SetCurrency POST /api/v1/pricing/currency
func (h *Handler) SetCurrency(c *gin.Context) {
	var req SetCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	currency, result, err := h.svc.Pricing.SetCurrency(c.Request.Context(), actorFrom(c), req.CurrencyID, service.CurrencyUpdate{
		Rate:         req.Rate,
		ProfitMargin: req.ProfitMargin,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"currency": currency, "cascade": result})
}

type SetCostRequest struct {
	ProductInfoID int64            `json:"product_info_id" binding:"required,gt=0"`
	CostAmount    *decimal.Decimal `json:"cost_amount"`
}

// SetCost POST /api/v1/pricing/cost
func (h *Handler) SetCost(c *gin.Context) {
	var req SetCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	if req.CostAmount == nil {
		response.ParamError(c, "cost_amount is required")
		return
	}
	info, result, err := h.svc.Pricing.SetCostAmount(c.Request.Context(), actorFrom(c), req.ProductInfoID, *req.CostAmount)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"product_info": info, "cascade": result})
}

// GetSetting GET /api/v1/admin/setting
func (h *Handler) GetSetting(c *gin.Context) {
	policy, err := h.svc.Setting.View(c.Request.Context(), actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, policy)
}

type UpdateSettingRequest struct {
	NormalFeeRate      *decimal.Decimal `json:"normal_fee_rate"`
	FeeThresholdAmount *int64           `json:"fee_threshold_amount"`
	ThresholdFeeRate   *decimal.Decimal `json:"threshold_fee_rate"`
}

// UpdateSetting POST /api/v1/admin/setting
func (h *Handler) UpdateSetting(c *gin.Context) {
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid params: "+err.Error())
		return
	}
	if req.NormalFeeRate == nil || req.FeeThresholdAmount == nil || req.ThresholdFeeRate == nil {
		response.ParamError(c, "normal_fee_rate, fee_threshold_amount and threshold_fee_rate are required")
		return
	}
	setting, err := h.svc.Setting.Update(c.Request.Context(), actorFrom(c), &service.UpdateSettingRequest{
		NormalFeeRate:      *req.NormalFeeRate,
		FeeThresholdAmount: *req.FeeThresholdAmount,
		ThresholdFeeRate:   *req.ThresholdFeeRate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, setting)
}

// ============================================================
// scheduler
// ============================================================

// RunAutoComplete POST /api/v1/cron/auto-complete
func (h *Handler) RunAutoComplete(c *gin.Context) {
	result, err := h.svc.Sweeper.Sweep(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, result)
}
