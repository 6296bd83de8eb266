package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"invoice_number", "actual_amount"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"INV-2024-010", 1200}))
	path := filepath.Join(dir, "bills.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestTransferService_ImportInvoices(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	path := writeWorkbook(t, t.TempDir())

	var filename string
	var size int64
	h.api.Handle(http.MethodPost, "/bills/import/", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err == nil {
			filename = header.Filename
			size, _ = io.Copy(io.Discard, file)
		}
		w.WriteHeader(http.StatusCreated)
	})
	h.api.JSON(http.MethodGet, "/bills/", http.StatusOK, []any{invoice1})

	require.NoError(t, h.transfers.ImportInvoices(context.Background(), path))

	assert.Equal(t, "bills.xlsx", filename)
	assert.Positive(t, size)
	assert.Len(t, h.cache.Invoices().Data, 1)
	assert.Equal(t, "Import Successful", h.lastNotification(t).Title)
}

func TestTransferService_ImportRejectsNonExcel(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	path := filepath.Join(t.TempDir(), "bills.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o600))

	err := h.transfers.ImportInvoices(context.Background(), path)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Empty(t, h.api.Calls(http.MethodPost, "/bills/import/"))
}

func TestTransferService_ImportFailureNotifies(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	path := writeWorkbook(t, t.TempDir())
	h.api.JSON(http.MethodPost, "/bills/import/", http.StatusBadRequest, map[string]string{"error": "Row 2: outlet not found"})

	err := h.transfers.ImportInvoices(context.Background(), path)
	require.ErrorIs(t, err, apperror.ErrServer)
	assert.Equal(t, "Import failed: Row 2: outlet not found", h.lastNotification(t).Description)
	assert.Empty(t, h.api.Calls(http.MethodGet, "/bills/"))
}

func TestTransferService_ExportPayments(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.Handle(http.MethodGet, "/bills/export-payments/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="server.xlsx"`)
		_, _ = w.Write([]byte("xlsx-bytes"))
	})

	dir := filepath.Join(t.TempDir(), "exports")
	path, err := h.transfers.ExportPayments(context.Background(), validation.ExportRange{
		StartDate: "2024-01-01", EndDate: "2024-01-31",
	}, dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "payments-2024-01-01-to-2024-01-31.xlsx"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(content))

	req, _ := h.api.Last(http.MethodGet, "/bills/export-payments/")
	assert.Equal(t, "2024-01-01", req.Query.Get("start_date"))
	assert.Equal(t, "2024-01-31", req.Query.Get("end_date"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestTransferService_ExportRangeValidated(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)

	var buf bytes.Buffer
	_, err := h.transfers.StreamExport(context.Background(), validation.ExportRange{
		StartDate: "2024-02-01", EndDate: "2024-01-01",
	}, &buf)
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, "End date must be the same or after the start date", apperror.GetAppError(err).Errors[0].Message)
	assert.Empty(t, h.api.Calls(http.MethodGet, "/bills/export-payments/"))
}

func TestTransferService_StreamExportUsesServerName(t *testing.T) {
	h := newHarness(t)
	h.signIn(t)
	h.api.Handle(http.MethodGet, "/bills/export-payments/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="server.xlsx"`)
		_, _ = w.Write([]byte("x"))
	})

	var buf bytes.Buffer
	name, err := h.transfers.StreamExport(context.Background(), validation.ExportRange{
		StartDate: "2024-01-01", EndDate: "2024-01-01",
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "server.xlsx", name)
}

func TestTransferService_WritePaymentsReport(t *testing.T) {
	h := newHarness(t)
	payments := []entity.Payment{
		{ID: 1, InvoiceNumber: "INV-2024-001", PaymentMethod: enum.PaymentMethodCash, Amount: 100},
		{ID: 2, InvoiceNumber: "INV-2024-002", PaymentMethod: enum.PaymentMethodUPI, Amount: 250.5},
		{ID: 3, InvoiceNumber: "INV-2024-003", PaymentMethod: enum.PaymentMethodCash, Amount: 50},
	}

	var buf bytes.Buffer
	require.NoError(t, h.transfers.WritePaymentsReport(&buf, payments))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Payments")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Invoice Number", rows[0][0])
	assert.Equal(t, "INV-2024-002", rows[2][0])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Method", "Count", "Total"},
		{"cash", "2", "150"},
		{"upi", "1", "250.5"},
		{"Total", "3", "400.5"},
	}, summary)
}
