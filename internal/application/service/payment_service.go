package service

import (
	"context"
	"fmt"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
	"go.uber.org/zap"
)

// PaymentAPI records collections against bills
type PaymentAPI interface {
	RecordPayment(ctx context.Context, billID entity.ID, req entity.PaymentRequest) error
}

// PaymentService records payments taken by collection agents
type PaymentService struct {
	api       PaymentAPI
	cache     *DataCache
	validator *validation.Validator
	notifier  Notifier
	guard     *SubmissionGuard
	log       *zap.Logger
}

func NewPaymentService(
	api PaymentAPI,
	cache *DataCache,
	v *validation.Validator,
	notifier Notifier,
	guard *SubmissionGuard,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		api:       api,
		cache:     cache,
		validator: v,
		notifier:  notifier,
		guard:     guard,
		log:       log,
	}
}

// PaymentReceipt summarizes a recorded payment
type PaymentReceipt struct {
	BillID        entity.ID          `json:"bill_id"`
	InvoiceNumber string             `json:"invoice_number,omitempty"`
	Method        enum.PaymentMethod `json:"payment_method"`
	Amount        entity.Amount      `json:"amount"`
	// FullyPaid is set when the amount covered what was outstanding
	FullyPaid bool `json:"fully_paid"`
}

// RecordPayment validates the form against the bill, posts it and refreshes
// the assigned bills. When the bill is in the cached snapshot its outstanding
// amount bounds the payment.
func (s *PaymentService) RecordPayment(ctx context.Context, billID entity.ID, form validation.PaymentForm) (*PaymentReceipt, error) {
	if billID <= 0 {
		return nil, apperror.NewBadRequestError("Invalid bill id")
	}

	bill, known := s.cache.FindUserBill(billID)
	if known && form.MaxAmount == nil {
		form = form.Bounded(bill.Outstanding().Float64())
	}
	if err := s.validator.Payment(form); err != nil {
		return nil, err
	}

	release, err := s.guard.Acquire("payment:" + billID.String())
	if err != nil {
		return nil, err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)
	if err := s.api.RecordPayment(ctx, billID, form.Request(billID)); err != nil {
		s.log.Warn("record payment failed", zap.Stringer("bill_id", billID), zap.Error(err))
		notifyFailure(ctx, s.notifier, "Failed to record payment: "+apperror.GetAppError(err).Message)
		return nil, err
	}

	receipt := &PaymentReceipt{
		BillID: billID,
		Method: form.PaymentMethod,
		Amount: entity.Amount(form.Amount),
	}
	if known {
		receipt.InvoiceNumber = bill.InvoiceNumber
		receipt.FullyPaid = form.Amount >= bill.Outstanding().Float64()
	}

	notifySuccess(ctx, s.notifier, "Payment Recorded",
		fmt.Sprintf("%s payment of ₹%s recorded for %s.", form.PaymentMethod, receipt.Amount, describeBill(receipt)))
	_ = s.cache.RefreshUserInvoices(ctx)
	return receipt, nil
}

func describeBill(r *PaymentReceipt) string {
	if r.InvoiceNumber != "" {
		return r.InvoiceNumber
	}
	return "bill #" + r.BillID.String()
}
