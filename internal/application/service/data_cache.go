package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/debounce"
	"github.com/sangkips/billdesk/pkg/utils"
	"go.uber.org/zap"
)

// DataAPI is the part of the billing API behind the cached collections
type DataAPI interface {
	ListInvoices(ctx context.Context, invoiceNumber string) ([]entity.Invoice, error)
	CreateInvoice(ctx context.Context, in entity.NewInvoice) error
	PatchInvoice(ctx context.Context, id entity.ID, patch entity.InvoicePatch) error
	AssignInvoice(ctx context.Context, id, draID entity.ID) error
	MyAssignments(ctx context.Context, field, term string) (*entity.AssignmentsResponse, error)
	ListPayments(ctx context.Context, invoiceNumber string) ([]entity.Payment, error)
	ChequeHistory(ctx context.Context, invoiceNumber string) ([]entity.Payment, error)
	UpdateChequeStatus(ctx context.Context, id entity.ID, status enum.ChequeStatus) error
	DeleteCheque(ctx context.Context, id entity.ID) error
	TodayTotals(ctx context.Context) (*entity.TodayTotals, error)
	ListUsers(ctx context.Context) ([]entity.Employee, error)
	ListRoutes(ctx context.Context) ([]entity.Route, error)
	ListOutlets(ctx context.Context, routeID entity.ID) ([]entity.Outlet, error)
}

// Search fields of the assigned-bills view
const (
	SearchByInvoiceNumber = "invoice_number"
	SearchByRouteName     = "route_name"
	SearchByOutletName    = "outlet_name"
)

// DataCacheOptions tunes the cache
type DataCacheOptions struct {
	SearchDebounce time.Duration
}

// DataCache holds the server-owned collections the dashboard views read.
// Every mutation is followed by a refetch; the server stays authoritative.
type DataCache struct {
	api       DataAPI
	validator *validation.Validator
	notifier  Notifier
	guard     *SubmissionGuard
	log       *zap.Logger
	search    *debounce.Debouncer

	invoices  *collection[[]entity.Invoice]
	userBills *collection[*entity.AssignmentsResponse]
	payments  *collection[[]entity.Payment]
	cheques   *collection[[]entity.Payment]
	totals    *collection[*entity.TodayTotals]
	employees *collection[[]entity.Employee]

	userBillsField string
}

func NewDataCache(
	api DataAPI,
	v *validation.Validator,
	notifier Notifier,
	guard *SubmissionGuard,
	log *zap.Logger,
	opts DataCacheOptions,
) *DataCache {
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = 500 * time.Millisecond
	}
	return &DataCache{
		api:       api,
		validator: v,
		notifier:  notifier,
		guard:     guard,
		log:       log,
		search:    debounce.New(opts.SearchDebounce),
		invoices:  newCollection(cloneSlice[entity.Invoice], countSlice[entity.Invoice]),
		userBills: newCollection(cloneAssignments, countAssignments),
		payments:  newCollection(cloneSlice[entity.Payment], countSlice[entity.Payment]),
		cheques:   newCollection(cloneSlice[entity.Payment], countSlice[entity.Payment]),
		totals:    newCollection(cloneTotals, countTotals),
		employees: newCollection(cloneSlice[entity.Employee], countSlice[entity.Employee]),
	}
}

// load runs fetch under a new sequence number of col. Failures keep the
// previous data, notify and are returned; stale outcomes are dropped.
func load[T any](ctx context.Context, c *DataCache, col *collection[T], name, term string, fetch func(context.Context) (T, error)) error {
	seq := col.begin()
	value, err := fetch(ctx)

	if !col.finish(seq, term, value, err, time.Now()) {
		c.log.Debug("discarding stale response",
			zap.String("collection", name),
			zap.Uint64("seq", seq),
			zap.String("term", term),
		)
		return nil
	}
	if err != nil {
		c.log.Warn("fetch failed", zap.String("collection", name), zap.Error(err))
		notifyFailure(ctx, c.notifier, apperror.GetAppError(err).Message)
		return err
	}
	return nil
}

// FetchInvoices replaces the admin invoice list. An empty term lists
// everything.
func (c *DataCache) FetchInvoices(ctx context.Context, term string) error {
	term = utils.NormalizeTerm(term)
	return load(ctx, c, c.invoices, "invoices", term, func(ctx context.Context) ([]entity.Invoice, error) {
		return c.api.ListInvoices(ctx, term)
	})
}

// QueueInvoiceSearch coalesces rapid search input into one FetchInvoices
func (c *DataCache) QueueInvoiceSearch(term string) {
	c.search.Trigger(func() {
		_ = c.FetchInvoices(context.Background(), term)
	})
}

// FetchUserInvoices replaces the assigned-bills snapshot of the current user
func (c *DataCache) FetchUserInvoices(ctx context.Context, term, field string) error {
	switch field {
	case "":
		field = SearchByInvoiceNumber
	case SearchByInvoiceNumber, SearchByRouteName, SearchByOutletName:
	default:
		return apperror.NewFieldError("field", "Search field must be one of invoice_number, route_name, outlet_name")
	}
	term = utils.NormalizeTerm(term)

	c.userBills.mu.Lock()
	c.userBillsField = field
	c.userBills.mu.Unlock()

	return load(ctx, c, c.userBills, "user_bills", term, func(ctx context.Context) (*entity.AssignmentsResponse, error) {
		return c.api.MyAssignments(ctx, field, term)
	})
}

// RefreshUserInvoices refetches the assigned bills with the last used filter
func (c *DataCache) RefreshUserInvoices(ctx context.Context) error {
	c.userBills.mu.RLock()
	term, field := c.userBills.term, c.userBillsField
	c.userBills.mu.RUnlock()
	return c.FetchUserInvoices(ctx, term, field)
}

func (c *DataCache) FetchPayments(ctx context.Context, term string) error {
	term = utils.NormalizeTerm(term)
	return load(ctx, c, c.payments, "payments", term, func(ctx context.Context) ([]entity.Payment, error) {
		return c.api.ListPayments(ctx, term)
	})
}

func (c *DataCache) FetchChequeHistory(ctx context.Context, term string) error {
	term = utils.NormalizeTerm(term)
	return load(ctx, c, c.cheques, "cheques", term, func(ctx context.Context) ([]entity.Payment, error) {
		return c.api.ChequeHistory(ctx, term)
	})
}

func (c *DataCache) FetchTodayTotals(ctx context.Context) error {
	return load(ctx, c, c.totals, "today_totals", "", func(ctx context.Context) (*entity.TodayTotals, error) {
		return c.api.TodayTotals(ctx)
	})
}

// ListEmployees returns the users bills can be assigned to
func (c *DataCache) ListEmployees(ctx context.Context) ([]entity.Employee, error) {
	err := load(ctx, c, c.employees, "employees", "", func(ctx context.Context) ([]entity.Employee, error) {
		users, err := c.api.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]entity.Employee, 0, len(users))
		for _, u := range users {
			if u.IsAssignable() {
				out = append(out, u)
			}
		}
		return out, nil
	})
	return c.employees.snapshot().Data, err
}

func (c *DataCache) FetchRoutes(ctx context.Context) ([]entity.Route, error) {
	routes, err := c.api.ListRoutes(ctx)
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to load routes.")
		return nil, err
	}
	return routes, nil
}

func (c *DataCache) FetchOutlets(ctx context.Context, routeID entity.ID) ([]entity.Outlet, error) {
	outlets, err := c.api.ListOutlets(ctx, routeID)
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to load outlets.")
		return nil, err
	}
	return outlets, nil
}

// mutate runs fn once per key at a time on a context that outlives the
// caller, then refetches through after.
func (c *DataCache) mutate(ctx context.Context, key string, fn func(context.Context) error, after func(context.Context)) error {
	release, err := c.guard.Acquire(key)
	if err != nil {
		return err
	}
	defer release()

	ctx = context.WithoutCancel(ctx)
	if err := fn(ctx); err != nil {
		return err
	}
	if after != nil {
		after(ctx)
	}
	return nil
}

// AddInvoice validates and creates an invoice, then reloads the full list
func (c *DataCache) AddInvoice(ctx context.Context, form validation.InvoiceForm) error {
	if err := c.validator.Invoice(form); err != nil {
		return err
	}

	err := c.mutate(ctx, "invoice:create", func(ctx context.Context) error {
		return c.api.CreateInvoice(ctx, form.Entity())
	}, func(ctx context.Context) {
		_ = c.FetchInvoices(ctx, "")
	})
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to create invoice. Please try again.")
		return err
	}
	notifySuccess(ctx, c.notifier, "Invoice Created",
		fmt.Sprintf("Invoice %s has been created successfully.", form.InvoiceNumber))
	return nil
}

// AssignInvoice hands an invoice to a collection agent
func (c *DataCache) AssignInvoice(ctx context.Context, invoiceID, employeeID entity.ID) error {
	if invoiceID <= 0 || employeeID <= 0 {
		return apperror.NewFieldError("dra_id", "Please select an employee")
	}
	number := c.invoiceNumber(invoiceID)

	err := c.mutate(ctx, "invoice:assign:"+invoiceID.String(), func(ctx context.Context) error {
		return c.api.AssignInvoice(ctx, invoiceID, employeeID)
	}, func(ctx context.Context) {
		_ = c.FetchInvoices(ctx, "")
	})
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to assign invoice.")
		return err
	}
	notifySuccess(ctx, c.notifier, "Invoice Assigned", fmt.Sprintf("Invoice %s has been assigned.", number))
	return nil
}

// PatchInvoice sends only the changed fields. An empty patch does nothing.
func (c *DataCache) PatchInvoice(ctx context.Context, invoiceID entity.ID, patch entity.InvoicePatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if patch.ActualAmount != nil && *patch.ActualAmount <= 0 {
		return apperror.NewFieldError("actual_amount", "Amount must be positive")
	}
	number := c.invoiceNumber(invoiceID)

	err := c.mutate(ctx, "invoice:patch:"+invoiceID.String(), func(ctx context.Context) error {
		return c.api.PatchInvoice(ctx, invoiceID, patch)
	}, func(ctx context.Context) {
		_ = c.FetchInvoices(ctx, "")
	})
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to update invoice.")
		return err
	}
	notifySuccess(ctx, c.notifier, "Invoice Updated", fmt.Sprintf("Invoice %s has been updated.", number))
	return nil
}

// UpdateChequeStatus records a cheque review outcome
func (c *DataCache) UpdateChequeStatus(ctx context.Context, paymentID entity.ID, status enum.ChequeStatus) error {
	if !status.IsFinal() {
		return apperror.NewFieldError("cheque_status", "Cheque status must be cleared or bounced")
	}
	if current, ok := c.chequeStatus(paymentID); ok && !current.CanTransitionTo(status) {
		return apperror.NewFieldError("cheque_status", fmt.Sprintf("Cheque is already %s", current))
	}

	err := c.mutate(ctx, "cheque:"+paymentID.String(), func(ctx context.Context) error {
		return c.api.UpdateChequeStatus(ctx, paymentID, status)
	}, func(ctx context.Context) {
		_ = c.FetchChequeHistory(ctx, c.cheques.lastTerm())
	})
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to update cheque status.")
		return err
	}
	notifySuccess(ctx, c.notifier, "Status Updated", fmt.Sprintf("Cheque status changed to %s.", status))
	return nil
}

func (c *DataCache) DeleteCheque(ctx context.Context, paymentID entity.ID) error {
	err := c.mutate(ctx, "cheque:"+paymentID.String(), func(ctx context.Context) error {
		return c.api.DeleteCheque(ctx, paymentID)
	}, func(ctx context.Context) {
		_ = c.FetchChequeHistory(ctx, c.cheques.lastTerm())
	})
	if err != nil {
		notifyFailure(ctx, c.notifier, "Failed to delete cheque payment.")
		return err
	}
	notifySuccess(ctx, c.notifier, "Payment Deleted", "The cheque payment has been deleted.")
	return nil
}

func (c *DataCache) Invoices() Snapshot[[]entity.Invoice] {
	return c.invoices.snapshot()
}

func (c *DataCache) UserInvoices() Snapshot[*entity.AssignmentsResponse] {
	return c.userBills.snapshot()
}

func (c *DataCache) Payments() Snapshot[[]entity.Payment] {
	return c.payments.snapshot()
}

func (c *DataCache) ChequeHistory() Snapshot[[]entity.Payment] {
	return c.cheques.snapshot()
}

func (c *DataCache) TodayTotals() Snapshot[*entity.TodayTotals] {
	return c.totals.snapshot()
}

// FindUserBill looks up a bill in the assigned-bills snapshot
func (c *DataCache) FindUserBill(id entity.ID) (entity.SimpleBill, bool) {
	c.userBills.mu.RLock()
	defer c.userBills.mu.RUnlock()
	bill, ok := c.userBills.value.FindBill(id)
	if !ok {
		return entity.SimpleBill{}, false
	}
	return *bill, true
}

// Close stops a queued search
func (c *DataCache) Close() {
	c.search.Stop()
}

func (c *DataCache) invoiceNumber(id entity.ID) string {
	c.invoices.mu.RLock()
	defer c.invoices.mu.RUnlock()
	for _, inv := range c.invoices.value {
		if inv.ID == id {
			return inv.InvoiceNumber
		}
	}
	return "#" + id.String()
}

func (c *DataCache) chequeStatus(id entity.ID) (enum.ChequeStatus, bool) {
	c.cheques.mu.RLock()
	defer c.cheques.mu.RUnlock()
	for _, p := range c.cheques.value {
		if p.ID == id {
			return p.ChequeStatus, true
		}
	}
	return "", false
}

func cloneAssignments(in *entity.AssignmentsResponse) *entity.AssignmentsResponse {
	if in == nil {
		return nil
	}
	return &entity.AssignmentsResponse{
		Routes:  cloneSlice(in.Routes),
		Outlets: cloneSlice(in.Outlets),
		Bills:   cloneSlice(in.Bills),
	}
}

func countAssignments(in *entity.AssignmentsResponse) int {
	if in == nil {
		return 0
	}
	return len(in.Bills)
}

func cloneTotals(in *entity.TodayTotals) *entity.TodayTotals {
	if in == nil {
		return nil
	}
	out := *in
	return &out
}

func countTotals(in *entity.TodayTotals) int {
	if in == nil {
		return 0
	}
	return 1
}
