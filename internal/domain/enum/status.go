package enum

// InvoiceStatus is computed by the API from recorded payments
type InvoiceStatus string

const (
	InvoiceStatusOpen    InvoiceStatus = "open"
	InvoiceStatusPartial InvoiceStatus = "partial"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusCleared InvoiceStatus = "cleared"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

// ChequeStatus tracks clearance of cheque and electronic payments
type ChequeStatus string

const (
	ChequeStatusPending ChequeStatus = "pending"
	ChequeStatusCleared ChequeStatus = "cleared"
	ChequeStatusBounced ChequeStatus = "bounced"
)

func (s ChequeStatus) String() string {
	return string(s)
}

// IsFinal reports whether s is a review outcome
func (s ChequeStatus) IsFinal() bool {
	return s == ChequeStatusCleared || s == ChequeStatusBounced
}

// CanTransitionTo reports whether a review may move a cheque from s to next.
// Only pending cheques are reviewed; an empty current status is unknown and
// left to the API.
func (s ChequeStatus) CanTransitionTo(next ChequeStatus) bool {
	if !next.IsFinal() {
		return false
	}
	return s == "" || s == ChequeStatusPending
}
