package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/utils"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// TransferAPI moves spreadsheets to and from the billing API
type TransferAPI interface {
	ImportInvoices(ctx context.Context, filename string, r io.Reader) error
	ExportPayments(ctx context.Context, startDate, endDate string, w io.Writer) (string, error)
}

// TransferService handles bill imports, payment exports and local reports
type TransferService struct {
	api       TransferAPI
	cache     *DataCache
	validator *validation.Validator
	notifier  Notifier
	guard     *SubmissionGuard
	log       *zap.Logger
}

func NewTransferService(
	api TransferAPI,
	cache *DataCache,
	v *validation.Validator,
	notifier Notifier,
	guard *SubmissionGuard,
	log *zap.Logger,
) *TransferService {
	return &TransferService{
		api:       api,
		cache:     cache,
		validator: v,
		notifier:  notifier,
		guard:     guard,
		log:       log,
	}
}

// ImportInvoices uploads a workbook of bills and reloads the invoice list
func (s *TransferService) ImportInvoices(ctx context.Context, path string) error {
	if err := s.validator.ImportFile(path); err != nil {
		return err
	}

	release, err := s.guard.Acquire("invoice:import")
	if err != nil {
		return err
	}
	defer release()

	f, err := os.Open(path)
	if err != nil {
		return apperror.NewFieldError("file", "File not found: "+filepath.Base(path))
	}
	defer f.Close()

	ctx = context.WithoutCancel(ctx)
	if err := s.api.ImportInvoices(ctx, filepath.Base(path), f); err != nil {
		notifyFailure(ctx, s.notifier, "Import failed: "+apperror.GetAppError(err).Message)
		return err
	}

	notifySuccess(ctx, s.notifier, "Import Successful", filepath.Base(path)+" has been imported.")
	_ = s.cache.FetchInvoices(ctx, "")
	return nil
}

// StreamExport writes the payments export for r into w
func (s *TransferService) StreamExport(ctx context.Context, r validation.ExportRange, w io.Writer) (string, error) {
	if err := s.validator.ExportRange(r); err != nil {
		return "", err
	}
	name, err := s.api.ExportPayments(ctx, r.StartDate, r.EndDate, w)
	if err != nil {
		notifyFailure(ctx, s.notifier, "Export failed: "+apperror.GetAppError(err).Message)
		return "", err
	}
	if name == "" {
		name = utils.ExportFilename(r.StartDate, r.EndDate)
	}
	return name, nil
}

// ExportPayments saves the payments export for r under dir and returns the
// file path. The file is named after the range, not the server's suggestion.
func (s *TransferService) ExportPayments(ctx context.Context, r validation.ExportRange, dir string) (string, error) {
	if err := s.validator.ExportRange(r); err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperror.Wrap(apperror.ErrInternalServer, err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", apperror.Wrap(apperror.ErrInternalServer, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := s.StreamExport(ctx, r, tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", apperror.Wrap(apperror.ErrInternalServer, err)
	}

	path := filepath.Join(dir, utils.ExportFilename(r.StartDate, r.EndDate))
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", apperror.Wrap(apperror.ErrInternalServer, err)
	}

	s.log.Info("payments exported", zap.String("path", path))
	notifySuccess(ctx, s.notifier, "Export Complete", "Saved "+filepath.Base(path)+".")
	return path, nil
}

const (
	reportSheet  = "Payments"
	summarySheet = "Summary"
)

var reportHeaders = []string{
	"Invoice Number", "Invoice Date", "Route", "Outlet", "Method",
	"Amount", "Reference", "Bank", "Cheque Status", "Recorded At",
}

// WritePaymentsReport renders payments as an xlsx workbook with a totals by
// method summary sheet
func (s *TransferService) WritePaymentsReport(w io.Writer, payments []entity.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}

	if err := writeRow(f, reportSheet, 1, toCells(reportHeaders)); err != nil {
		return err
	}

	totals := map[enum.PaymentMethod]entity.Amount{}
	var grand entity.Amount
	for i, p := range payments {
		row := []any{
			p.InvoiceNumber, p.InvoiceDate, p.RouteName, p.OutletName, string(p.PaymentMethod),
			p.Amount.Float64(), p.Reference(), p.BankName, string(p.ChequeStatus), p.CreatedAt,
		}
		if err := writeRow(f, reportSheet, i+2, row); err != nil {
			return err
		}
		totals[p.PaymentMethod] += p.Amount
		grand += p.Amount
	}

	if err := writeRow(f, summarySheet, 1, []any{"Method", "Count", "Total"}); err != nil {
		return err
	}
	counts := map[enum.PaymentMethod]int{}
	for _, p := range payments {
		counts[p.PaymentMethod]++
	}
	methods := make([]enum.PaymentMethod, 0, len(totals))
	for m := range totals {
		methods = append(methods, m)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i] < methods[j] })

	row := 2
	for _, m := range methods {
		if err := writeRow(f, summarySheet, row, []any{string(m), counts[m], totals[m].Float64()}); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(f, summarySheet, row, []any{"Total", len(payments), grand.Float64()}); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, fmt.Errorf("write %s row %d: %w", sheet, row, err))
	}
	return nil
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
