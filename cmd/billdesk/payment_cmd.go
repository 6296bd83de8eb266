package main

import (
	"context"
	"fmt"

	"github.com/sangkips/billdesk/internal/app"
	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/spf13/cobra"
)

func addPaymentCommands(root *cobra.Command) {
	var form validation.PaymentForm
	var method, chequeType, transferType string
	payCmd := &cobra.Command{
		Use:   "pay <bill-id>",
		Short: "Record a payment against an assigned bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			billID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			form.PaymentMethod = enum.PaymentMethod(method)
			form.ChequeType = enum.TransferType(chequeType)
			form.ElectronicChequeType = enum.TransferType(transferType)

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a); err != nil {
					return err
				}
				// Loads the bill so the amount is checked against what is outstanding.
				_ = a.Cache.FetchUserInvoices(ctx, "", "")

				receipt, err := a.Payments.RecordPayment(ctx, billID, form)
				if err != nil {
					return err
				}
				status := "partially paid"
				if receipt.FullyPaid {
					status = "fully paid"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s payment of %s on bill %s (%s).\n",
					receipt.Method, receipt.Amount, receipt.BillID, status)
				return nil
			})
		},
	}
	f := payCmd.Flags()
	f.Float64Var(&form.Amount, "amount", 0, "amount collected")
	f.StringVar(&method, "method", "cash", "cash, upi, cheque or electronic")
	f.StringVar(&form.TransactionNumber, "upi-ref", "", "UPI UTR number")
	f.StringVar(&form.BankName, "bank", "", "cheque bank name")
	f.StringVar(&chequeType, "firm", "", "cheque firm type: rtgs or neft")
	f.StringVar(&form.ChequeNumber, "cheque-number", "", "cheque number")
	f.StringVar(&form.ChequeDate, "cheque-date", "", "cheque date, YYYY-MM-DD")
	f.StringVar(&transferType, "transfer", "", "electronic transfer type: rtgs, neft or imps")
	f.StringVar(&form.UTRNumber, "utr", "", "RTGS UTR number")
	f.StringVar(&form.TransactionID, "transaction-id", "", "NEFT/IMPS transaction id")

	paymentsCmd := &cobra.Command{
		Use:   "payments [search]",
		Short: "List recorded payments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Cache.FetchPayments(ctx, firstArg(args)); err != nil {
					return err
				}
				printPayments(cmd.OutOrStdout(), a.Cache.Payments())
				return nil
			})
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report [search]",
		Short: "Write recorded payments to an Excel workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Cache.FetchPayments(ctx, firstArg(args)); err != nil {
					return err
				}
				out, closeOut, err := openOutput(output)
				if err != nil {
					return err
				}
				if err := a.Transfers.WritePaymentsReport(out, a.Cache.Payments().Data); err != nil {
					_ = closeOut()
					return err
				}
				return closeOut()
			})
		},
	}
	reportCmd.Flags().StringP("output", "o", "payments-report.xlsx", "output file, - for stdout")

	totalsCmd := &cobra.Command{
		Use:   "totals",
		Short: "Show today's collections by method",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Cache.FetchTodayTotals(ctx); err != nil {
					return err
				}
				t := a.Cache.TodayTotals().Data
				if t == nil {
					return nil
				}
				tw := newTable(cmd.OutOrStdout(), "METHOD", "TOTAL")
				row(tw, "cash", t.CashTotal)
				row(tw, "upi", t.UPITotal)
				row(tw, "cheque", t.ChequeTotal)
				row(tw, "total", t.Total())
				return tw.Flush()
			})
		},
	}

	chequesCmd := &cobra.Command{
		Use:   "cheques [search]",
		Short: "List cheque payments awaiting or past review",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Cache.FetchChequeHistory(ctx, firstArg(args)); err != nil {
					return err
				}
				printPayments(cmd.OutOrStdout(), a.Cache.ChequeHistory())
				return nil
			})
		},
	}

	setStatusCmd := &cobra.Command{
		Use:   "set-status <payment-id> <cleared|bounced>",
		Short: "Record the outcome of a cheque",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				_ = a.Cache.FetchChequeHistory(ctx, "")
				return a.Cache.UpdateChequeStatus(ctx, id, enum.ChequeStatus(args[1]))
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <payment-id>",
		Short: "Delete a cheque payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				return a.Cache.DeleteCheque(ctx, id)
			})
		},
	}
	chequesCmd.AddCommand(setStatusCmd, deleteCmd)

	root.AddCommand(payCmd, paymentsCmd, reportCmd, totalsCmd, chequesCmd)
}
