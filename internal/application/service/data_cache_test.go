package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/testutil/fakeapi"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	invoice1 = map[string]any{"id": 1, "invoice_number": "INV-2024-001", "actual_amount": 1000, "remaining_amount": "400.00", "status": "partial", "route": 1, "outlet": 3}
	invoice2 = map[string]any{"id": 2, "invoice_number": "INV-2024-002", "actual_amount": "250.50", "status": "open", "route": 1, "outlet": 4}
)

func TestDataCache_FetchInvoices(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1, invoice2})

	require.NoError(t, h.cache.FetchInvoices(context.Background(), ""))

	snap := h.cache.Invoices()
	require.Len(t, snap.Data, 2)
	assert.False(t, snap.Loading)
	assert.False(t, snap.NoResults)
	assert.Empty(t, snap.Error)
	assert.Equal(t, entity.Amount(400), snap.Data[0].Outstanding())
	assert.Equal(t, entity.Amount(250.5), snap.Data[1].Outstanding())
}

func TestDataCache_NoResultsForTerm(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{})

	require.NoError(t, h.cache.FetchInvoices(context.Background(), " INV-2024-001 "))

	snap := h.cache.Invoices()
	assert.Empty(t, snap.Data)
	assert.True(t, snap.NoResults)
	assert.Equal(t, "no results for INV-2024-001", snap.Message)

	req, _ := h.api.Last(http.MethodGet, "/bills/")
	assert.Equal(t, "INV-2024-001", req.Query.Get("invoice_number"))

	require.NoError(t, h.cache.FetchInvoices(context.Background(), ""))
	assert.False(t, h.cache.Invoices().NoResults)
}

func TestDataCache_FailureRetainsPreviousList(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1})
	require.NoError(t, h.cache.FetchInvoices(ctx, ""))

	h.api.JSON(http.MethodGet, "/bills/", http.StatusInternalServerError, map[string]string{"detail": "database unavailable"})
	err := h.cache.FetchInvoices(ctx, "INV")
	require.ErrorIs(t, err, apperror.ErrServer)

	snap := h.cache.Invoices()
	require.Len(t, snap.Data, 1)
	assert.Equal(t, "INV-2024-001", snap.Data[0].InvoiceNumber)
	assert.Equal(t, "database unavailable", snap.Error)
	assert.False(t, snap.Loading)

	n := h.lastNotification(t)
	assert.Equal(t, entity.NotificationDestructive, n.Level)
	assert.Equal(t, "database unavailable", n.Description)
}

func TestDataCache_StaleResponseIsDiscarded(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	slowArrived := make(chan struct{})
	releaseSlow := make(chan struct{})
	h.api.Handle(http.MethodGet, "/bills/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("invoice_number") == "INV-2024-001" {
			close(slowArrived)
			<-releaseSlow
			fakeapi.Respond(w, http.StatusOK, []any{invoice1})
			return
		}
		fakeapi.Respond(w, http.StatusOK, []any{invoice2})
	})

	var slowErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowErr = h.cache.FetchInvoices(ctx, "INV-2024-001")
	}()

	<-slowArrived
	assert.True(t, h.cache.Invoices().Loading)

	require.NoError(t, h.cache.FetchInvoices(ctx, "INV-2024-002"))
	close(releaseSlow)
	wg.Wait()

	assert.NoError(t, slowErr)
	snap := h.cache.Invoices()
	require.Len(t, snap.Data, 1)
	assert.Equal(t, "INV-2024-002", snap.Data[0].InvoiceNumber)
	assert.Equal(t, "INV-2024-002", snap.Term)
	assert.False(t, snap.Loading)
}

func TestDataCache_SnapshotsAreCopies(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1})
	require.NoError(t, h.cache.FetchInvoices(context.Background(), ""))

	snap := h.cache.Invoices()
	snap.Data[0].InvoiceNumber = "changed"
	assert.Equal(t, "INV-2024-001", h.cache.Invoices().Data[0].InvoiceNumber)
}

func TestDataCache_AddInvoiceRefetches(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodPost, "/bills/", http.StatusCreated, map[string]any{"id": 9})
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1})

	form := validation.InvoiceForm{
		InvoiceDate: "2024-06-01", OutletID: 3, InvoiceNumber: "INV-2024-001",
		ActualAmount: 1000, Brand: "Acme", RouteID: 1,
	}
	require.NoError(t, h.cache.AddInvoice(context.Background(), form))

	req, ok := h.api.Last(http.MethodPost, "/bills/")
	require.True(t, ok)
	assert.JSONEq(t, `{"invoice_date":"2024-06-01","outlet":3,"invoice_number":"INV-2024-001","actual_amount":1000,"brand":"Acme","route":1}`, string(req.Body))

	get, ok := h.api.Last(http.MethodGet, "/bills/")
	require.True(t, ok)
	assert.Empty(t, get.Query)
	assert.Len(t, h.cache.Invoices().Data, 1)

	n := h.lastNotification(t)
	assert.Equal(t, "Invoice Created", n.Title)
	assert.Equal(t, "Invoice INV-2024-001 has been created successfully.", n.Description)
}

func TestDataCache_AddInvoiceValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	err := h.cache.AddInvoice(context.Background(), validation.InvoiceForm{InvoiceNumber: "bad"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, h.api.Calls(http.MethodPost, "/bills/"))
}

func TestDataCache_AddInvoiceFailure(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodPost, "/bills/", http.StatusBadRequest, map[string]any{
		"invoice_number": []string{"bill with this invoice number already exists."},
	})

	form := validation.InvoiceForm{
		InvoiceDate: "2024-06-01", OutletID: 3, InvoiceNumber: "INV-2024-001",
		ActualAmount: 1000, Brand: "Acme", RouteID: 1,
	}
	err := h.cache.AddInvoice(context.Background(), form)
	assert.Equal(t, http.StatusBadRequest, apperror.StatusOf(err))
	assert.Empty(t, h.api.Calls(http.MethodGet, "/bills/"))
	assert.Equal(t, "Failed to create invoice. Please try again.", h.lastNotification(t).Description)
}

func TestDataCache_MutationOutlivesCaller(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodPost, "/bills/5/assign/", http.StatusOK, nil)
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.cache.AssignInvoice(ctx, 5, 2))
	assert.Len(t, h.api.Calls(http.MethodPost, "/bills/5/assign/"), 1)
	assert.Len(t, h.api.Calls(http.MethodGet, "/bills/"), 1)
}

func TestDataCache_DuplicateSubmissionRejected(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()

	arrived := make(chan struct{})
	release := make(chan struct{})
	h.api.Handle(http.MethodPost, "/bills/5/assign/", func(w http.ResponseWriter, _ *http.Request) {
		close(arrived)
		<-release
		fakeapi.Respond(w, http.StatusOK, nil)
	})
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{})

	done := make(chan error, 1)
	go func() { done <- h.cache.AssignInvoice(ctx, 5, 2) }()
	<-arrived

	err := h.cache.AssignInvoice(ctx, 5, 3)
	assert.ErrorIs(t, err, apperror.ErrSubmissionInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, h.guard.InFlight("invoice:assign:5"))
}

func TestDataCache_PatchInvoice(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()
	h.api.JSON(http.MethodPatch, "/bills/1/", http.StatusOK, invoice1)
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1})

	require.NoError(t, h.cache.PatchInvoice(ctx, 1, entity.InvoicePatch{}))
	assert.Empty(t, h.api.Requests()[1:])

	dra := entity.ID(2)
	require.NoError(t, h.cache.PatchInvoice(ctx, 1, entity.InvoicePatch{AssignedToID: &dra}))
	req, _ := h.api.Last(http.MethodPatch, "/bills/1/")
	assert.JSONEq(t, `{"assigned_to_id":2}`, string(req.Body))
	assert.Len(t, h.api.Calls(http.MethodGet, "/bills/"), 1)
}

func TestDataCache_FetchUserInvoices(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()
	h.api.JSON(http.MethodGet, "/bills/my-assignments-flat/", http.StatusOK, map[string]any{
		"routes":  []any{map[string]any{"id": 1, "name": "North"}},
		"outlets": []any{map[string]any{"id": 3, "name": "Corner Store", "route_id": 1, "route_name": "North"}},
		"bills": []any{map[string]any{
			"id": 1, "invoice_number": "INV-2024-001", "actual_amount": "1000.00", "remaining_amount": "400.00",
			"route_id": 1, "route_name": "North", "outlet_id": 3, "outlet_name": "Corner Store",
		}},
	})

	require.NoError(t, h.cache.FetchUserInvoices(ctx, "North", SearchByRouteName))
	req, _ := h.api.Last(http.MethodGet, "/bills/my-assignments-flat/")
	assert.Equal(t, "North", req.Query.Get("route_name"))

	snap := h.cache.UserInvoices()
	require.NotNil(t, snap.Data)
	assert.Len(t, snap.Data.Bills, 1)

	bill, ok := h.cache.FindUserBill(1)
	require.True(t, ok)
	assert.Equal(t, entity.Amount(400), bill.Outstanding())

	require.NoError(t, h.cache.RefreshUserInvoices(ctx))
	req, _ = h.api.Last(http.MethodGet, "/bills/my-assignments-flat/")
	assert.Equal(t, "North", req.Query.Get("route_name"))

	err := h.cache.FetchUserInvoices(ctx, "x", "brand")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestDataCache_ChequeReview(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	ctx := context.Background()
	h.api.JSON(http.MethodGet, "/payments/cheque-history/", http.StatusOK, []any{
		map[string]any{"id": 9, "payment_method": "cheque", "amount": "500.00", "cheque_status": "pending"},
		map[string]any{"id": 10, "payment_method": "cheque", "amount": "700.00", "cheque_status": "cleared"},
	})
	h.api.JSON(http.MethodPut, "/payments/cheque-history/9/", http.StatusOK, nil)
	h.api.JSON(http.MethodDelete, "/payments/cheque-history/10/", http.StatusNoContent, nil)

	require.NoError(t, h.cache.FetchChequeHistory(ctx, "INV"))

	require.NoError(t, h.cache.UpdateChequeStatus(ctx, 9, enum.ChequeStatusCleared))
	req, _ := h.api.Last(http.MethodPut, "/payments/cheque-history/9/")
	assert.JSONEq(t, `{"cheque_status":"cleared"}`, string(req.Body))

	refetch, _ := h.api.Last(http.MethodGet, "/payments/cheque-history/")
	assert.Equal(t, "INV", refetch.Query.Get("invoice_number"))

	err := h.cache.UpdateChequeStatus(ctx, 10, enum.ChequeStatusBounced)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	err = h.cache.UpdateChequeStatus(ctx, 9, enum.ChequeStatusPending)
	assert.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, h.cache.DeleteCheque(ctx, 10))
	assert.Len(t, h.api.Calls(http.MethodGet, "/payments/cheque-history/"), 3)
}

func TestDataCache_QueueInvoiceSearchDebounces(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1})

	for _, term := range []string{"I", "IN", "INV", "INV-2024-001"} {
		h.cache.QueueInvoiceSearch(term)
	}

	assert.Eventually(t, func() bool {
		return h.cache.Invoices().Term == "INV-2024-001"
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Len(t, h.api.Calls(http.MethodGet, "/bills/"), 1)
}

func TestDataCache_ListEmployeesFiltersAdmins(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodGet, "/auth/users/", http.StatusOK, []any{adminUser, employeeUser})

	employees, err := h.cache.ListEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "employee1", employees[0].Username)
}

func TestDataCache_TodayTotals(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.JSON(http.MethodGet, "/payments/today-totals/", http.StatusOK, map[string]any{
		"cash_total": 1500, "upi_total": "250.50", "cheque_total": 0,
	})

	require.NoError(t, h.cache.FetchTodayTotals(context.Background()))
	totals := h.cache.TodayTotals().Data
	require.NotNil(t, totals)
	assert.Equal(t, entity.Amount(1750.5), totals.Total())
}

func TestDataCache_LookupFailuresNotify(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	_, err := h.cache.FetchOutlets(context.Background(), 4)
	assert.ErrorIs(t, err, apperror.ErrServer)
	assert.Equal(t, "Failed to load outlets.", h.lastNotification(t).Description)
}
