package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignedBills() map[string]any {
	return map[string]any{
		"routes":  []any{map[string]any{"id": 1, "name": "North"}},
		"outlets": []any{map[string]any{"id": 3, "name": "Corner Store", "route_id": 1}},
		"bills": []any{map[string]any{
			"id": 7, "invoice_number": "INV-2024-007", "actual_amount": "1000.00", "remaining_amount": "600.00",
			"route_id": 1, "outlet_id": 3,
		}},
	}
}

func TestPaymentService_RecordUPIPayment(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()
	h.api.JSON(http.MethodGet, "/bills/my-assignments-flat/", http.StatusOK, assignedBills())
	h.api.JSON(http.MethodPost, "/payments/7/payments/", http.StatusCreated, map[string]any{"id": 1})
	require.NoError(t, h.cache.FetchUserInvoices(ctx, "", SearchByInvoiceNumber))

	receipt, err := h.payments.RecordPayment(ctx, 7, validation.PaymentForm{
		Amount:            600,
		PaymentMethod:     enum.PaymentMethodUPI,
		TransactionNumber: "123456789",
	})
	require.NoError(t, err)

	req, ok := h.api.Last(http.MethodPost, "/payments/7/payments/")
	require.True(t, ok)
	assert.JSONEq(t, `{"bill":7,"payment_method":"upi","amount":"600","transaction_number":123456789}`, string(req.Body))

	assert.Equal(t, "INV-2024-007", receipt.InvoiceNumber)
	assert.Equal(t, entity.Amount(600), receipt.Amount)
	assert.True(t, receipt.FullyPaid)

	assert.Len(t, h.api.Calls(http.MethodGet, "/bills/my-assignments-flat/"), 2)
	n := h.lastNotification(t)
	assert.Equal(t, "Payment Recorded", n.Title)
	assert.Contains(t, n.Description, "INV-2024-007")
}

func TestPaymentService_ChequePayload(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodPost, "/payments/7/payments/", http.StatusCreated, nil)
	h.api.JSON(http.MethodGet, "/bills/my-assignments-flat/", http.StatusOK, assignedBills())

	receipt, err := h.payments.RecordPayment(context.Background(), 7, validation.PaymentForm{
		Amount:        250.5,
		PaymentMethod: enum.PaymentMethodCheque,
		BankName:      "HDFC",
		ChequeType:    enum.TransferRTGS,
		ChequeNumber:  "CHQ123456",
		ChequeDate:    "2999-01-01",
	})
	require.NoError(t, err)
	assert.False(t, receipt.FullyPaid)

	var body map[string]any
	req, _ := h.api.Last(http.MethodPost, "/payments/7/payments/")
	req.Decode(t, &body)
	assert.Equal(t, "250.5", body["amount"])
	assert.Equal(t, "NA", body["firm"])
	assert.Equal(t, "HDFC", body["bank_name"])
	assert.NotContains(t, body, "transaction_number")
}

func TestPaymentService_AmountBoundedByOutstanding(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()
	h.api.JSON(http.MethodGet, "/bills/my-assignments-flat/", http.StatusOK, assignedBills())
	require.NoError(t, h.cache.FetchUserInvoices(ctx, "", ""))

	_, err := h.payments.RecordPayment(ctx, 7, validation.PaymentForm{
		Amount:        601,
		PaymentMethod: enum.PaymentMethodCash,
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "Amount cannot exceed ₹600", apperror.GetAppError(err).Errors[0].Message)
	assert.Empty(t, h.api.Calls(http.MethodPost, "/payments/7/payments/"))
}

func TestPaymentService_ServerRejection(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodPost, "/payments/7/payments/", http.StatusBadRequest, map[string]any{
		"amount": []string{"Payment exceeds remaining amount."},
	})

	_, err := h.payments.RecordPayment(context.Background(), 7, validation.PaymentForm{
		Amount:        100,
		PaymentMethod: enum.PaymentMethodCash,
	})
	require.ErrorIs(t, err, apperror.ErrServer)

	n := h.lastNotification(t)
	assert.Equal(t, entity.NotificationDestructive, n.Level)
	assert.Equal(t, "Failed to record payment: amount: Payment exceeds remaining amount.", n.Description)
	assert.Empty(t, h.api.Calls(http.MethodGet, "/bills/my-assignments-flat/"))
}

func TestPaymentService_InvalidBill(t *testing.T) {
	h := newHarness(t)

	_, err := h.payments.RecordPayment(context.Background(), 0, validation.PaymentForm{Amount: 10, PaymentMethod: enum.PaymentMethodCash})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Empty(t, h.api.Requests())
}

func TestPaymentService_SettledBillRejected(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()
	bills := assignedBills()
	bills["bills"].([]any)[0].(map[string]any)["remaining_amount"] = "0.00"
	h.api.JSON(http.MethodGet, "/bills/my-assignments-flat/", http.StatusOK, bills)
	require.NoError(t, h.cache.FetchUserInvoices(ctx, "", ""))

	_, err := h.payments.RecordPayment(ctx, 7, validation.PaymentForm{
		Amount:        999999,
		PaymentMethod: enum.PaymentMethodCash,
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	fields := apperror.GetAppError(err).Errors
	require.Len(t, fields, 1)
	assert.Equal(t, "amount", fields[0].Field)
	assert.Equal(t, "This bill is already fully paid", fields[0].Message)
	assert.Empty(t, h.api.Calls(http.MethodPost, "/payments/7/payments/"))
}

func TestPaymentService_OversizedUPINumberNotSent(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	_, err := h.payments.RecordPayment(context.Background(), 9, validation.PaymentForm{
		Amount:            10,
		PaymentMethod:     enum.PaymentMethodUPI,
		TransactionNumber: "12345678901234567890123",
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "transaction_number", apperror.GetAppError(err).Errors[0].Field)
	assert.Empty(t, h.api.Calls(http.MethodPost, "/payments/9/payments/"))
}
