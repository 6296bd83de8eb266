package validation

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
)

// PaymentForm is what an agent fills in to record a payment. Only the fields
// of the selected method are looked at.
type PaymentForm struct {
	Amount               float64            `json:"amount" validate:"required,gt=0,gte=1"`
	PaymentMethod        enum.PaymentMethod `json:"payment_method" validate:"required,oneof=cash upi cheque electronic"`
	TransactionNumber    string             `json:"transaction_number"`
	BankName             string             `json:"bank_name"`
	ChequeType           enum.TransferType  `json:"cheque_type"`
	ChequeNumber         string             `json:"cheque_number"`
	ChequeDate           string             `json:"cheque_date"`
	ElectronicChequeType enum.TransferType  `json:"electronic_cheque_type"`
	UTRNumber            string             `json:"utr_number"`
	TransactionID        string             `json:"transaction_id"`

	// MaxAmount bounds Amount when set; a bound of zero or less means the
	// bill is settled and takes no further payments
	MaxAmount *float64 `json:"-"`
}

var paymentMessages = map[string]string{
	"amount.required":                 "Amount is required",
	"amount.gt":                       "Amount must be positive",
	"amount.gte":                      "Amount must be at least 1",
	"amount.max":                      "Amount cannot exceed ₹%s",
	"amount.settled":                  "This bill is already fully paid",
	"payment_method.required":         "Payment method is required",
	"payment_method.oneof":            "Invalid payment method",
	"transaction_number.required":     "UTR number is required for UPI payments",
	"transaction_number.digits":       "UTR number must contain only digits",
	"transaction_number.min":          "UTR number must be at least 5 digits",
	"transaction_number.max":          "UTR number must be at most 18 digits",
	"bank_name.required":              "Bank name is required for cheque payments",
	"bank_name.min":                   "Bank name must be at least 2 characters",
	"cheque_type.required":            "Firm type is required for cheque payments",
	"cheque_type.oneof":               "Please select a valid firm type",
	"cheque_number.required":          "Cheque number is required for cheque payments",
	"cheque_number.min":               "Cheque number must be at least 6 characters",
	"cheque_number.alphanum":          "Cheque number must be alphanumeric",
	"cheque_date.required":            "Cheque date is required for cheque payments",
	"cheque_date.datetime":            "Cheque date must be a valid date",
	"cheque_date.not_before_today":    "Cheque date cannot be before today",
	"electronic_cheque_type.required": "Transaction type is required for electronic payments",
	"electronic_cheque_type.oneof":    "Please select a valid transaction type",
	"utr_number.required":             "UTR number is required for RTGS payments",
	"utr_number.digits":               "UTR number must contain only digits",
	"utr_number.min":                  "UTR number must be at least 10 digits",
	"transaction_id.required":         "Transaction ID is required for NEFT/IMPS payments",
	"transaction_id.min":              "Transaction ID must be at least 8 characters",
	"transaction_id.alphanum":         "Transaction ID must be alphanumeric",
}

// Payment validates f, returning a validation error listing every failed field
func (v *Validator) Payment(f PaymentForm) error {
	return v.translate(v.validate.Struct(f), paymentMessages)
}

func (v *Validator) paymentRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(PaymentForm)

	if f.MaxAmount != nil {
		switch limit := *f.MaxAmount; {
		case limit <= 0:
			sl.ReportError(f.Amount, "amount", "Amount", "settled", "")
		case f.Amount >= 1 && f.Amount > limit:
			sl.ReportError(f.Amount, "amount", "Amount", "max", strconv.FormatFloat(limit, 'f', -1, 64))
		}
	}

	switch f.PaymentMethod {
	case enum.PaymentMethodUPI:
		check(sl, f.TransactionNumber, "transaction_number", "TransactionNumber", "required,digits,min=5,max=18")
	case enum.PaymentMethodCheque:
		check(sl, f.BankName, "bank_name", "BankName", "required,min=2")
		check(sl, string(f.ChequeType), "cheque_type", "ChequeType", "required,oneof=rtgs neft")
		check(sl, f.ChequeNumber, "cheque_number", "ChequeNumber", "required,min=6,alphanum")
		check(sl, f.ChequeDate, "cheque_date", "ChequeDate", "required,datetime=2006-01-02,not_before_today")
	case enum.PaymentMethodElectronic:
		check(sl, string(f.ElectronicChequeType), "electronic_cheque_type", "ElectronicChequeType", "required,oneof=rtgs neft imps")
		switch f.ElectronicChequeType {
		case enum.TransferRTGS:
			check(sl, f.UTRNumber, "utr_number", "UTRNumber", "required,digits,min=10")
		case enum.TransferNEFT, enum.TransferIMPS:
			check(sl, f.TransactionID, "transaction_id", "TransactionID", "required,min=8,alphanum")
		}
	}
}

// Bounded returns a copy of f with Amount limited to limit
func (f PaymentForm) Bounded(limit float64) PaymentForm {
	f.MaxAmount = &limit
	return f
}

// Request maps a validated form to the record-payment payload. Validation
// keeps a UPI transaction number within int64 range.
func (f PaymentForm) Request(billID entity.ID) entity.PaymentRequest {
	req := entity.PaymentRequest{
		BillID:        billID,
		PaymentMethod: f.PaymentMethod,
		Amount:        strconv.FormatFloat(f.Amount, 'f', -1, 64),
	}

	switch f.PaymentMethod {
	case enum.PaymentMethodUPI:
		if n, err := strconv.ParseInt(f.TransactionNumber, 10, 64); err == nil {
			req.TransactionNumber = &n
		}
	case enum.PaymentMethodCheque:
		req.BankName = f.BankName
		req.Firm = f.ChequeType.Firm()
		req.ChequeNumber = f.ChequeNumber
		req.ChequeDate = f.ChequeDate
	case enum.PaymentMethodElectronic:
		req.ChequeType = string(f.ElectronicChequeType)
		if f.ElectronicChequeType == enum.TransferRTGS {
			req.UTRNumber = f.UTRNumber
		} else {
			req.TransactionID = f.TransactionID
		}
	}
	return req
}
