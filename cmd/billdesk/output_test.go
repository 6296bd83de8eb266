package main

import (
	"bytes"
	"testing"

	"github.com/sangkips/billdesk/internal/application/service"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestPrintInvoices(t *testing.T) {
	remaining := entity.Amount(40)
	var buf bytes.Buffer
	printInvoices(&buf, service.Snapshot[[]entity.Invoice]{Data: []entity.Invoice{
		{ID: 1, InvoiceNumber: "INV-2024-001", ActualAmount: 100, RemainingAmount: &remaining, Status: enum.InvoiceStatusPartial},
	}})

	out := buf.String()
	assert.Contains(t, out, "INVOICE")
	assert.Contains(t, out, "INV-2024-001")
	assert.Contains(t, out, "100.00")
	assert.Contains(t, out, "40.00")
}

func TestPrintNoResults(t *testing.T) {
	var buf bytes.Buffer
	printPayments(&buf, service.Snapshot[[]entity.Payment]{NoResults: true, Message: "no results for INV-9"})
	assert.Equal(t, "no results for INV-9\n", buf.String())
}

func TestPrintWhoami(t *testing.T) {
	tests := []struct {
		name    string
		session entity.Session
		want    string
	}{
		{"anonymous", entity.Session{}, "Not signed in\n"},
		{"pending", entity.Session{PendingAdminUsername: "admin"}, "Waiting for the OTP of admin\n"},
		{"signed in", entity.Session{
			IsAuthenticated: true,
			CurrentUser:     &entity.User{Username: "employee1", FullName: "Employee One", Role: enum.RoleDRA},
		}, "Signed in as Employee One (dra)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&buf)
			printWhoami(cmd, tt.session)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestCommandTree(t *testing.T) {
	for _, path := range [][]string{
		{"serve"}, {"login"}, {"verify-otp"}, {"logout"}, {"whoami"},
		{"invoices"}, {"my-bills"}, {"create-invoice"}, {"assign"}, {"employees"},
		{"import"}, {"export"}, {"pay"}, {"payments"}, {"report"}, {"totals"},
		{"cheques", "set-status"}, {"cheques", "delete"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if assert.NoError(t, err, path) {
			assert.Equal(t, path[len(path)-1], cmd.Name())
		}
	}
}
