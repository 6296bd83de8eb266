package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/domain/entity"
)

func newTable(w io.Writer, headers ...any) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	row(tw, headers...)
	return tw
}

func row(w io.Writer, values ...any) {
	for i, v := range values {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, v)
	}
	fmt.Fprintln(w)
}

func printNoResults[T any](w io.Writer, snap service.Snapshot[T]) bool {
	if snap.NoResults {
		fmt.Fprintln(w, snap.Message)
		return true
	}
	return false
}

func printInvoices(w io.Writer, snap service.Snapshot[[]entity.Invoice]) {
	if printNoResults(w, snap) {
		return
	}
	tw := newTable(w, "ID", "INVOICE", "DATE", "BRAND", "AMOUNT", "OUTSTANDING", "STATUS", "ASSIGNED")
	for _, inv := range snap.Data {
		assigned := "-"
		if inv.IsAssigned() {
			assigned = inv.AssignedToName
		}
		row(tw, inv.ID, inv.InvoiceNumber, inv.InvoiceDate, inv.Brand, inv.ActualAmount, inv.Outstanding(), inv.Status, assigned)
	}
	tw.Flush()
}

func printBills(w io.Writer, snap service.Snapshot[*entity.AssignmentsResponse]) {
	if printNoResults(w, snap) {
		return
	}
	tw := newTable(w, "ID", "INVOICE", "DATE", "ROUTE", "OUTLET", "AMOUNT", "OUTSTANDING", "OVERDUE")
	if snap.Data != nil {
		for _, b := range snap.Data.Bills {
			row(tw, b.ID, b.InvoiceNumber, b.InvoiceDate, b.RouteName, b.OutletName, b.ActualAmount, b.Outstanding(), fmt.Sprintf("%dd", b.OverdueDays))
		}
	}
	tw.Flush()
}

func printPayments(w io.Writer, snap service.Snapshot[[]entity.Payment]) {
	if printNoResults(w, snap) {
		return
	}
	tw := newTable(w, "ID", "INVOICE", "METHOD", "AMOUNT", "REFERENCE", "CHEQUE", "RECORDED")
	for _, p := range snap.Data {
		status := "-"
		if p.ChequeStatus != "" {
			status = string(p.ChequeStatus)
		}
		row(tw, p.ID, p.InvoiceNumber, p.PaymentMethod, p.Amount, p.Reference(), status, p.CreatedAt)
	}
	tw.Flush()
}
