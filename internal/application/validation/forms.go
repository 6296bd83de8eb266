package validation

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/billdesk/internal/domain/entity"
)

// InvoiceForm is the admin create-invoice form
type InvoiceForm struct {
	InvoiceDate   string    `json:"invoice_date" validate:"required,datetime=2006-01-02"`
	OutletID      entity.ID `json:"outlet" validate:"required"`
	InvoiceNumber string    `json:"invoice_number" validate:"required,invoice_number"`
	ActualAmount  float64   `json:"actual_amount" validate:"required,gt=0"`
	Brand         string    `json:"brand" validate:"required"`
	RouteID       entity.ID `json:"route" validate:"required"`
}

var invoiceMessages = map[string]string{
	"invoice_date.required":         "Invoice Date is required",
	"invoice_date.datetime":         "Invoice Date must be a valid date",
	"outlet.required":               "Outlet is required",
	"invoice_number.required":       "Invoice number is required",
	"invoice_number.invoice_number": "Invalid format! Use format: INV-YYYY-XXX",
	"actual_amount.required":        "Amount is required",
	"actual_amount.gt":              "Amount must be positive",
	"brand.required":                "Brand is required",
	"route.required":                "Route is required",
}

func (v *Validator) Invoice(f InvoiceForm) error {
	return v.translate(v.validate.Struct(f), invoiceMessages)
}

// Entity maps the form to the create-invoice payload
func (f InvoiceForm) Entity() entity.NewInvoice {
	return entity.NewInvoice{
		InvoiceDate:   f.InvoiceDate,
		OutletID:      f.OutletID,
		InvoiceNumber: f.InvoiceNumber,
		ActualAmount:  entity.Amount(f.ActualAmount),
		Brand:         f.Brand,
		RouteID:       f.RouteID,
	}
}

// ExportRange is the date range of a payments export
type ExportRange struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

var exportMessages = map[string]string{
	"start_date.required": "Start date is required",
	"start_date.datetime": "Start date must be a valid date",
	"end_date.required":   "End date is required",
	"end_date.datetime":   "End date must be a valid date",
	"end_date.gtefield":   "End date must be the same or after the start date",
}

func (v *Validator) ExportRange(r ExportRange) error {
	return v.translate(v.validate.Struct(r), exportMessages)
}

func exportRangeRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(ExportRange)
	start, err1 := time.Parse(dateLayout, r.StartDate)
	end, err2 := time.Parse(dateLayout, r.EndDate)
	if err1 != nil || err2 != nil {
		return
	}
	if end.Before(start) {
		sl.ReportError(r.EndDate, "end_date", "EndDate", "gtefield", "StartDate")
	}
}

// LoginForm holds sign-in credentials
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var loginMessages = map[string]string{
	"username.required": "Username is required",
	"password.required": "Password is required",
}

func (v *Validator) Login(f LoginForm) error {
	return v.translate(v.validate.Struct(f), loginMessages)
}

// OTPForm holds the one-time code of an admin step-up
type OTPForm struct {
	OTP string `json:"otp" validate:"required,len=6,digits"`
}

var otpMessages = map[string]string{
	"otp.required": "OTP is required",
	"otp.len":      "OTP must be 6 digits",
	"otp.digits":   "OTP must be 6 digits",
}

func (v *Validator) OTP(f OTPForm) error {
	return v.translate(v.validate.Struct(f), otpMessages)
}
