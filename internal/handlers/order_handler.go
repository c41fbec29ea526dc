package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/service"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

type OrderHandler struct {
	checkout *service.CheckoutService
	status   *service.StatusService
	orders   *service.OrderService
}

func NewOrderHandler(checkout *service.CheckoutService, status *service.StatusService, orders *service.OrderService) *OrderHandler {
	return &OrderHandler{checkout: checkout, status: status, orders: orders}
}

// Submit handles POST /orders. On success the client gets a poll URL, not
// an order: the order only exists once the gateway confirms payment.
func (h *OrderHandler) Submit(c *gin.Context) {
	var req models.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "INVALID_BODY"})
		return
	}

	resp, err := h.checkout.Submit(c.Request.Context(), UserID(c), &req)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PaymentStatus handles GET /orders/payment-status/:pendingOrderId.
func (h *OrderHandler) PaymentStatus(c *gin.Context) {
	resp, err := h.status.Check(c.Request.Context(), c.Param("pendingOrderId"))
	if err != nil {
		telemetry.Logger.Error("payment status check failed",
			zap.String("pending_id", c.Param("pendingOrderId")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check payment status"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), UserID(c))
	if err != nil {
		telemetry.Logger.Error("list orders failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c *gin.Context) {
	order, err := h.orders.Cancel(c.Request.Context(), UserID(c), c.Param("id"))
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// AdminUpdateStatus handles PATCH /admin/orders/:id/status.
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "INVALID_BODY"})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), c.Param("id"),
		models.OrderStatus(req.Status), req.Note)
	if err != nil {
		respondFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func respondFlowError(c *gin.Context, err error) {
	var fe *service.FlowError
	if errors.As(err, &fe) {
		body := gin.H{"error": fe.Message, "code": fe.Code}
		for k, v := range fe.Details {
			body[k] = v
		}
		c.JSON(fe.HTTPStatus, body)
		return
	}

	telemetry.Logger.Error("request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
