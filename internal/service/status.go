package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/simonwachira/checkout-service/internal/interfaces"
	"github.com/simonwachira/checkout-service/internal/models"
	"github.com/simonwachira/checkout-service/internal/telemetry"
)

// StatusService answers the frontend's payment-status polls. It is strictly
// read-only and must tolerate the record disappearing between polls.
type StatusService struct {
	pending      interfaces.PendingPaymentRepository
	orders       interfaces.OrderRepository
	pollInterval int
}

func NewStatusService(pending interfaces.PendingPaymentRepository, orders interfaces.OrderRepository) *StatusService {
	return &StatusService{pending: pending, orders: orders, pollInterval: 3}
}

func (s *StatusService) Check(ctx context.Context, pendingID string) (*models.PaymentStatusResponse, error) {
	pp, err := s.pending.GetByID(ctx, pendingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Purged or never existed; either way the attempt is over.
			return &models.PaymentStatusResponse{
				PaymentStatus: "not_found",
				Message:       "This payment session has expired. Please return to your cart and try again.",
				Redirect:      "/cart",
			}, nil
		}
		return nil, fmt.Errorf("load pending payment %s: %w", pendingID, err)
	}

	switch pp.Status {
	case models.PendingStatusProcessed:
		resp := &models.PaymentStatusResponse{
			PaymentStatus: string(models.PendingStatusProcessed),
			Message:       "Payment received. Your order has been placed.",
		}
		order, err := s.orders.GetByMerchantRequestID(ctx, pp.MerchantRequestID)
		if err != nil {
			telemetry.Logger.Warn("processed payment without order",
				zap.String("pending_id", pendingID),
				zap.String("merchant_request_id", pp.MerchantRequestID),
				zap.Error(err))
		} else {
			resp.OrderID = order.ID
			resp.OrderNumber = order.OrderNumber
		}
		return resp, nil

	case models.PendingStatusFailed:
		return &models.PaymentStatusResponse{
			PaymentStatus: string(models.PendingStatusFailed),
			Message:       "Payment was not completed.",
			Reason:        pp.FailureReason,
			RetryAllowed:  true,
			Amount:        pp.Total,
		}, nil

	case models.PendingStatusExpired:
		return &models.PaymentStatusResponse{
			PaymentStatus: string(models.PendingStatusExpired),
			Message:       "The payment request expired before it was completed.",
			RetryAllowed:  true,
			Amount:        pp.Total,
		}, nil

	default:
		return &models.PaymentStatusResponse{
			PaymentStatus: string(models.PendingStatusPending),
			Message:       "Check your phone and enter your M-Pesa PIN to complete the payment.",
			PollInterval:  s.pollInterval,
		}, nil
	}
}
