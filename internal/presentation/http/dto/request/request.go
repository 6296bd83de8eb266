package request

import "github.com/sangkips/billdesk/pkg/pagination"

// LoginRequest represents a login request. Field rules are checked by the
// session service so messages match the dashboard forms.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// VerifyOTPRequest completes an admin step-up
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// SearchQuery filters a cached collection
type SearchQuery struct {
	Q string `form:"q"`
	pagination.PaginationParams
}

// MyBillsQuery filters the assigned bills of the current user
type MyBillsQuery struct {
	Q     string `form:"q"`
	Field string `form:"field"`
}

// QueueSearchRequest feeds the debounced invoice search
type QueueSearchRequest struct {
	Q string `json:"q"`
}

// AssignInvoiceRequest hands an invoice to a collection agent
type AssignInvoiceRequest struct {
	EmployeeID int64 `json:"dra_id" binding:"required,gt=0"`
}

// UpdateChequeRequest records a cheque review outcome
type UpdateChequeRequest struct {
	ChequeStatus string `json:"cheque_status" binding:"required"`
}

// ExportQuery is the date range of a payments export
type ExportQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}
