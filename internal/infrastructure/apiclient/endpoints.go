package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
)

// Bill search fields accepted by the assignments endpoint
const (
	FieldInvoiceNumber = "invoice_number"
	FieldRouteName     = "route_name"
	FieldOutletName    = "outlet_name"
)

// ImportField is the multipart field of the bills import
const ImportField = "file"

// list decodes both bare arrays and paginated {"results": [...]} bodies
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	*l = page.Results
	return nil
}

func termQuery(field, term string) url.Values {
	if term == "" {
		return nil
	}
	return url.Values{field: {term}}
}

func (c *Client) Login(ctx context.Context, username, password string) (*entity.LoginResponse, error) {
	var out entity.LoginResponse
	in := map[string]string{"username": username, "password": password}
	if err := c.PostPublic(ctx, "auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyOTP(ctx context.Context, username, otp string) (*entity.LoginResponse, error) {
	var out entity.LoginResponse
	in := map[string]string{"username": username, "otp": otp}
	if err := c.PostPublic(ctx, "auth/verify-otp", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefreshToken(ctx context.Context, refresh string) (*entity.TokenPair, error) {
	var out entity.TokenPair
	if err := c.PostPublic(ctx, "auth/refresh", map[string]string{"refresh": refresh}, &out); err != nil {
		return nil, err
	}
	if out.Access == "" {
		return nil, apperror.NewServerError(http.StatusBadGateway, "Refresh response carried no access token")
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]entity.Employee, error) {
	var out list[entity.Employee]
	if err := c.Get(ctx, "auth/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListInvoices(ctx context.Context, invoiceNumber string) ([]entity.Invoice, error) {
	var out list[entity.Invoice]
	if err := c.Get(ctx, "bills", termQuery(FieldInvoiceNumber, invoiceNumber), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateInvoice(ctx context.Context, in entity.NewInvoice) error {
	return c.Post(ctx, "bills", in, nil)
}

func (c *Client) PatchInvoice(ctx context.Context, id entity.ID, patch entity.InvoicePatch) error {
	return c.Patch(ctx, fmt.Sprintf("bills/%d", id), patch, nil)
}

func (c *Client) AssignInvoice(ctx context.Context, id, draID entity.ID) error {
	in := entity.AssignRequest{BillIDs: []entity.ID{id}, DRAID: draID}
	return c.Post(ctx, fmt.Sprintf("bills/%d/assign", id), in, nil)
}

func (c *Client) MyAssignments(ctx context.Context, field, term string) (*entity.AssignmentsResponse, error) {
	var out entity.AssignmentsResponse
	if err := c.Get(ctx, "bills/my-assignments-flat", termQuery(field, term), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ImportInvoices(ctx context.Context, filename string, r io.Reader) error {
	return c.Upload(ctx, "bills/import", ImportField, filename, r, nil)
}

// ExportPayments streams the payments workbook for the date range into w
func (c *Client) ExportPayments(ctx context.Context, startDate, endDate string, w io.Writer) (string, error) {
	query := url.Values{"start_date": {startDate}, "end_date": {endDate}}
	return c.Download(ctx, "bills/export-payments", query, w)
}

func (c *Client) RecordPayment(ctx context.Context, billID entity.ID, req entity.PaymentRequest) error {
	return c.Post(ctx, fmt.Sprintf("payments/%d/payments", billID), req, nil)
}

func (c *Client) ListPayments(ctx context.Context, invoiceNumber string) ([]entity.Payment, error) {
	var out list[entity.Payment]
	if err := c.Get(ctx, "payments", termQuery(FieldInvoiceNumber, invoiceNumber), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) TodayTotals(ctx context.Context) (*entity.TodayTotals, error) {
	var out entity.TodayTotals
	if err := c.Get(ctx, "payments/today-totals", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChequeHistory(ctx context.Context, invoiceNumber string) ([]entity.Payment, error) {
	var out list[entity.Payment]
	if err := c.Get(ctx, "payments/cheque-history", termQuery(FieldInvoiceNumber, invoiceNumber), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateChequeStatus(ctx context.Context, id entity.ID, status enum.ChequeStatus) error {
	return c.Put(ctx, fmt.Sprintf("payments/cheque-history/%d", id), entity.ChequeStatusUpdate{ChequeStatus: status}, nil)
}

func (c *Client) DeleteCheque(ctx context.Context, id entity.ID) error {
	return c.Delete(ctx, fmt.Sprintf("payments/cheque-history/%d", id))
}

func (c *Client) ListRoutes(ctx context.Context) ([]entity.Route, error) {
	var out list[entity.Route]
	if err := c.Get(ctx, "routes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListOutlets(ctx context.Context, routeID entity.ID) ([]entity.Outlet, error) {
	var out list[entity.Outlet]
	if err := c.Get(ctx, fmt.Sprintf("routes/%d/outlets", routeID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
