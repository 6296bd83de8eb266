package apiclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/testutil/fakeapi"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/oauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, api *fakeapi.Server) *Client {
	t.Helper()
	c := New(Options{BaseURL: api.URL, Prefix: "/api"})
	c.UseTokenSource(oauth2.StaticTokenSource(oauth.BearerToken("tok-1", time.Time{})))
	return c
}

func TestClient_AttachesBearerAndRequestID(t *testing.T) {
	api := fakeapi.New(t)
	api.JSON(http.MethodGet, "/bills/", http.StatusOK, []map[string]any{
		{"id": 1, "invoice_number": "INV-2024-001", "actual_amount": "100.00"},
	})
	c := newTestClient(t, api)

	invoices, err := c.ListInvoices(context.Background(), "INV-2024-001")
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, entity.Amount(100), invoices[0].ActualAmount)

	req, ok := api.Last(http.MethodGet, "/bills/")
	require.True(t, ok)
	assert.Equal(t, "Bearer tok-1", req.Header.Get("Authorization"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
	assert.Equal(t, "INV-2024-001", req.Query.Get("invoice_number"))
}

func TestClient_EmptyTermSendsNoFilter(t *testing.T) {
	api := fakeapi.New(t)
	api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{})
	c := newTestClient(t, api)

	_, err := c.ListInvoices(context.Background(), "")
	require.NoError(t, err)

	req, _ := api.Last(http.MethodGet, "/bills/")
	assert.Empty(t, req.Query)
}

func TestClient_PublicRequestsCarryNoCredential(t *testing.T) {
	api := fakeapi.New(t)
	api.JSON(http.MethodPost, "/auth/login/", http.StatusOK, map[string]any{
		"access": "a", "refresh": "r", "user": map[string]any{"id": 2, "username": "employee1", "role": "dra"},
	})
	c := newTestClient(t, api)

	resp, err := c.Login(context.Background(), "employee1", "employee123")
	require.NoError(t, err)
	assert.Equal(t, "employee1", resp.User.Username)

	req, _ := api.Last(http.MethodPost, "/auth/login/")
	assert.Empty(t, req.Header.Get("Authorization"))
	var body map[string]string
	req.Decode(t, &body)
	assert.Equal(t, map[string]string{"username": "employee1", "password": "employee123"}, body)
}

func TestClient_AuthedWithoutTokenSource(t *testing.T) {
	api := fakeapi.New(t)
	c := New(Options{BaseURL: api.URL, Prefix: "api"})

	_, err := c.ListRoutes(context.Background())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Empty(t, api.Requests())
}

func TestClient_ServerErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		message string
	}{
		{"Detail", http.StatusForbidden, map[string]string{"detail": "You do not have permission"}, "You do not have permission"},
		{"Message", http.StatusBadRequest, map[string]string{"message": "Bad range"}, "Bad range"},
		{"FieldErrors", http.StatusBadRequest, map[string]any{"invoice_number": []string{"bill with this invoice number already exists."}}, "invoice_number: bill with this invoice number already exists."},
		{"NoBody", http.StatusInternalServerError, nil, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := fakeapi.New(t)
			api.JSON(http.MethodPost, "/bills/", tt.status, tt.body)
			c := newTestClient(t, api)

			err := c.CreateInvoice(context.Background(), entity.NewInvoice{InvoiceNumber: "INV-2024-001"})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrServer)
			assert.Equal(t, tt.status, apperror.StatusOf(err))
			assert.Equal(t, tt.message, apperror.GetAppError(err).Message)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	api := fakeapi.New(t)
	c := newTestClient(t, api)
	api.Close()

	_, err := c.ListPayments(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrNetwork)
}

func TestClient_TokenSourceErrorPassesThrough(t *testing.T) {
	api := fakeapi.New(t)
	c := New(Options{BaseURL: api.URL, Prefix: "/api"})
	c.UseTokenSource(oauth.TokenSourceFunc(func() (*oauth2.Token, error) {
		return nil, apperror.ErrInvalidToken
	}))

	_, err := c.TodayTotals(context.Background())
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	assert.False(t, errors.Is(err, apperror.ErrNetwork))
}

func TestClient_PaginatedList(t *testing.T) {
	api := fakeapi.New(t)
	api.JSON(http.MethodGet, "/auth/users/", http.StatusOK, map[string]any{
		"count":   1,
		"results": []map[string]any{{"id": 3, "username": "employee1", "role": "dra"}},
	})
	c := newTestClient(t, api)

	users, err := c.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, enum.RoleDRA, users[0].Role)
}

func TestClient_AssignAndChequeEndpoints(t *testing.T) {
	api := fakeapi.New(t)
	api.JSON(http.MethodPost, "/bills/7/assign/", http.StatusOK, map[string]string{"status": "ok"})
	api.JSON(http.MethodPut, "/payments/cheque-history/9/", http.StatusOK, nil)
	api.JSON(http.MethodDelete, "/payments/cheque-history/9/", http.StatusNoContent, nil)
	c := newTestClient(t, api)
	ctx := context.Background()

	require.NoError(t, c.AssignInvoice(ctx, 7, 3))
	require.NoError(t, c.UpdateChequeStatus(ctx, 9, enum.ChequeStatusCleared))
	require.NoError(t, c.DeleteCheque(ctx, 9))

	req, _ := api.Last(http.MethodPost, "/bills/7/assign/")
	var assign entity.AssignRequest
	req.Decode(t, &assign)
	assert.Equal(t, entity.AssignRequest{BillIDs: []entity.ID{7}, DRAID: 3}, assign)

	req, _ = api.Last(http.MethodPut, "/payments/cheque-history/9/")
	assert.JSONEq(t, `{"cheque_status":"cleared"}`, string(req.Body))
}

func TestClient_UploadAndDownload(t *testing.T) {
	api := fakeapi.New(t)
	api.Handle(http.MethodPost, "/bills/import/", func(w http.ResponseWriter, r *http.Request) {
		f, header, err := r.FormFile(ImportField)
		if err != nil {
			fakeapi.Respond(w, http.StatusBadRequest, map[string]string{"error": "missing file"})
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		fakeapi.Respond(w, http.StatusCreated, map[string]any{"name": header.Filename, "size": len(data)})
	})
	api.Handle(http.MethodGet, "/bills/export-payments/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="payments.xlsx"`)
		_, _ = w.Write([]byte("xlsx-bytes " + r.URL.Query().Get("start_date")))
	})
	c := newTestClient(t, api)
	ctx := context.Background()

	require.NoError(t, c.ImportInvoices(ctx, "bills.xlsx", bytes.NewReader([]byte("data"))))

	var buf bytes.Buffer
	name, err := c.ExportPayments(ctx, "2024-01-01", "2024-01-31", &buf)
	require.NoError(t, err)
	assert.Equal(t, "payments.xlsx", name)
	assert.Equal(t, "xlsx-bytes 2024-01-01", buf.String())
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	api := fakeapi.New(t)
	api.JSON(http.MethodGet, "/routes/", http.StatusOK, []any{})
	c := New(Options{BaseURL: api.URL, Prefix: "/api", RateLimit: 0.001, Burst: 1})
	c.UseTokenSource(oauth2.StaticTokenSource(oauth.BearerToken("tok", time.Time{})))

	_, err := c.ListRoutes(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListRoutes(ctx)
	assert.ErrorIs(t, err, apperror.ErrNetwork)
	assert.Len(t, api.Requests(), 1)
}
