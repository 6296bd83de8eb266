package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sangkips/billdesk/internal/app"
	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/spf13/cobra"
)

// requireRole fails early with the same error the dashboard routes return
func requireRole(a *app.App, roles ...enum.Role) error {
	if a.Session.State() != entity.SessionAuthenticated {
		return apperror.ErrUnauthorized
	}
	if !a.Session.HasRole(roles...) {
		return apperror.ErrForbidden
	}
	return nil
}

func parseIDArg(s string) (entity.ID, error) {
	id, err := entity.ParseID(s)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequestError("Invalid id: " + s)
	}
	return id, nil
}

func addInvoiceCommands(root *cobra.Command) {
	invoicesCmd := &cobra.Command{
		Use:   "invoices [search]",
		Short: "List invoices, optionally filtered by invoice number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Cache.FetchInvoices(ctx, firstArg(args)); err != nil {
					return err
				}
				printInvoices(cmd.OutOrStdout(), a.Cache.Invoices())
				return nil
			})
		},
	}

	myBillsCmd := &cobra.Command{
		Use:   "my-bills [search]",
		Short: "List the bills assigned to you",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, _ := cmd.Flags().GetString("by")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a); err != nil {
					return err
				}
				if err := a.Cache.FetchUserInvoices(ctx, firstArg(args), field); err != nil {
					return err
				}
				printBills(cmd.OutOrStdout(), a.Cache.UserInvoices())
				return nil
			})
		},
	}
	myBillsCmd.Flags().String("by", "invoice_number", "search field: invoice_number, route_name or outlet_name")

	var form validation.InvoiceForm
	var outlet, route int64
	createCmd := &cobra.Command{
		Use:   "create-invoice",
		Short: "Create an invoice",
		RunE: func(cmd *cobra.Command, args []string) error {
			form.OutletID = entity.ID(outlet)
			form.RouteID = entity.ID(route)
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Cache.AddInvoice(ctx, form); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Invoice %s created.\n", form.InvoiceNumber)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&form.InvoiceNumber, "number", "", "invoice number, INV-YYYY-XXX")
	createCmd.Flags().StringVar(&form.InvoiceDate, "date", "", "invoice date, YYYY-MM-DD")
	createCmd.Flags().Float64Var(&form.ActualAmount, "amount", 0, "invoice amount")
	createCmd.Flags().StringVar(&form.Brand, "brand", "", "brand")
	createCmd.Flags().Int64Var(&route, "route", 0, "route id")
	createCmd.Flags().Int64Var(&outlet, "outlet", 0, "outlet id")

	assignCmd := &cobra.Command{
		Use:   "assign <invoice-id> <employee-id>",
		Short: "Assign an invoice to a collection agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoiceID, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			employeeID, err := parseIDArg(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				return a.Cache.AssignInvoice(ctx, invoiceID, employeeID)
			})
		},
	}

	employeesCmd := &cobra.Command{
		Use:   "employees",
		Short: "List the employees invoices can be assigned to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				employees, err := a.Cache.ListEmployees(ctx)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout(), "ID", "USERNAME", "NAME", "EMAIL")
				for _, e := range employees {
					row(tw, e.ID, e.Username, e.FullName, e.Email)
				}
				return tw.Flush()
			})
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import invoices from an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if err := a.Transfers.ImportInvoices(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s; %d invoices now listed.\n", args[0], len(a.Cache.Invoices().Data))
				return nil
			})
		},
	}

	var exportRange validation.ExportRange
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Download the payments export for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireRole(a, enum.RoleAdmin); err != nil {
					return err
				}
				if dir == "" {
					dir = a.Config.Export.Dir
				}
				path, err := a.Transfers.ExportPayments(ctx, exportRange, dir)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			})
		},
	}
	exportCmd.Flags().StringVar(&exportRange.StartDate, "from", "", "start date, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportRange.EndDate, "to", "", "end date, YYYY-MM-DD")
	exportCmd.Flags().String("dir", "", "output directory, defaults to EXPORT_DIR")

	root.AddCommand(invoicesCmd, myBillsCmd, createCmd, assignCmd, employeesCmd, importCmd, exportCmd)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// openOutput returns stdout for "-" and a created file otherwise
func openOutput(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
