package entity

import "github.com/sangkips/billdesk/internal/domain/enum"

// Payment is a recorded collection against a bill
type Payment struct {
	ID                ID                 `json:"id"`
	BillID            ID                 `json:"bill"`
	RouteID           ID                 `json:"route_id"`
	RouteName         string             `json:"route_name"`
	OutletID          ID                 `json:"outlet_id"`
	OutletName        string             `json:"outlet_name"`
	InvoiceNumber     string             `json:"invoice_number"`
	InvoiceDate       string             `json:"invoice_date"`
	PaymentMethod     enum.PaymentMethod `json:"payment_method"`
	Amount            Amount             `json:"amount"`
	TransactionNumber *Amount            `json:"transaction_number,omitempty"`
	BankName          string             `json:"bank_name,omitempty"`
	Firm              string             `json:"firm,omitempty"`
	ChequeType        string             `json:"cheque_type,omitempty"`
	ChequeNumber      string             `json:"cheque_number,omitempty"`
	ChequeDate        string             `json:"cheque_date,omitempty"`
	UTRNumber         string             `json:"utr_number,omitempty"`
	TransactionID     string             `json:"transaction_id,omitempty"`
	ChequeStatus      enum.ChequeStatus  `json:"cheque_status,omitempty"`
	AssignedToID      *ID                `json:"assigned_to_id,omitempty"`
	CreatedAt         string             `json:"created_at,omitempty"`
}

// Reference returns the method-specific reference a reviewer matches against
// the bank statement
func (p *Payment) Reference() string {
	switch p.PaymentMethod {
	case enum.PaymentMethodUPI:
		if p.TransactionNumber != nil {
			return ID(*p.TransactionNumber).String()
		}
	case enum.PaymentMethodCheque:
		return p.ChequeNumber
	case enum.PaymentMethodElectronic:
		if p.UTRNumber != "" {
			return p.UTRNumber
		}
		return p.TransactionID
	}
	return ""
}

// PaymentRequest is the record-payment payload. Only the fields of the
// chosen method are set.
type PaymentRequest struct {
	BillID            ID                 `json:"bill"`
	PaymentMethod     enum.PaymentMethod `json:"payment_method"`
	Amount            string             `json:"amount"`
	TransactionNumber *int64             `json:"transaction_number,omitempty"`
	BankName          string             `json:"bank_name,omitempty"`
	Firm              string             `json:"firm,omitempty"`
	ChequeType        string             `json:"cheque_type,omitempty"`
	ChequeNumber      string             `json:"cheque_number,omitempty"`
	ChequeDate        string             `json:"cheque_date,omitempty"`
	UTRNumber         string             `json:"utr_number,omitempty"`
	TransactionID     string             `json:"transaction_id,omitempty"`
}

// ChequeStatusUpdate is the body of a cheque review
type ChequeStatusUpdate struct {
	ChequeStatus enum.ChequeStatus `json:"cheque_status"`
}

// TodayTotals are the collections of the current day by method
type TodayTotals struct {
	CashTotal   Amount `json:"cash_total"`
	UPITotal    Amount `json:"upi_total"`
	ChequeTotal Amount `json:"cheque_total"`
}

// Total is the sum over all methods
func (t TodayTotals) Total() Amount {
	return t.CashTotal + t.UPITotal + t.ChequeTotal
}
