package entity

import "github.com/sangkips/billdesk/internal/domain/enum"

// Invoice is a bill as listed for admins
type Invoice struct {
	ID              ID                 `json:"id"`
	RouteID         ID                 `json:"route"`
	RouteName       string             `json:"route_name"`
	OutletID        ID                 `json:"outlet"`
	OutletName      string             `json:"outlet_name"`
	InvoiceNumber   string             `json:"invoice_number"`
	InvoiceDate     string             `json:"invoice_date"`
	ActualAmount    Amount             `json:"actual_amount"`
	RemainingAmount *Amount            `json:"remaining_amount,omitempty"`
	Brand           string             `json:"brand"`
	Status          enum.InvoiceStatus `json:"status"`
	OverdueDays     int                `json:"overdue_days"`
	AssignedToID    *ID                `json:"assigned_to_id,omitempty"`
	AssignedToName  string             `json:"assigned_to_name,omitempty"`
	ChequeStatus    enum.ChequeStatus  `json:"cheque_status,omitempty"`
	CreatedAt       string             `json:"created_at,omitempty"`
	ClearedAt       *string            `json:"cleared_at,omitempty"`
}

// Outstanding is the amount still to be collected. The API omits
// remaining_amount on bills with no payments yet.
func (i *Invoice) Outstanding() Amount {
	if i.RemainingAmount != nil {
		return *i.RemainingAmount
	}
	return i.ActualAmount
}

// IsAssigned reports whether i has a collection agent
func (i *Invoice) IsAssigned() bool {
	return i.AssignedToID != nil
}

// SimpleBill is the reduced bill shape of the assignments endpoint
type SimpleBill struct {
	ID              ID                 `json:"id"`
	InvoiceNumber   string             `json:"invoice_number"`
	InvoiceDate     string             `json:"invoice_date"`
	ActualAmount    Amount             `json:"actual_amount"`
	RemainingAmount *Amount            `json:"remaining_amount,omitempty"`
	Brand           string             `json:"brand"`
	Status          enum.InvoiceStatus `json:"status"`
	OverdueDays     int                `json:"overdue_days"`
	RouteID         ID                 `json:"route_id"`
	RouteName       string             `json:"route_name"`
	OutletID        ID                 `json:"outlet_id"`
	OutletName      string             `json:"outlet_name"`
}

// Outstanding is the amount still to be collected on b
func (b *SimpleBill) Outstanding() Amount {
	if b.RemainingAmount != nil {
		return *b.RemainingAmount
	}
	return b.ActualAmount
}

type Route struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type Outlet struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	RouteID   ID     `json:"route_id"`
	RouteName string `json:"route_name"`
}

// AssignmentsResponse is everything assigned to the current user
type AssignmentsResponse struct {
	Routes  []Route      `json:"routes"`
	Outlets []Outlet     `json:"outlets"`
	Bills   []SimpleBill `json:"bills"`
}

// FindBill returns the assigned bill with the given id
func (a *AssignmentsResponse) FindBill(id ID) (*SimpleBill, bool) {
	if a == nil {
		return nil, false
	}
	for i := range a.Bills {
		if a.Bills[i].ID == id {
			return &a.Bills[i], true
		}
	}
	return nil, false
}

// NewInvoice is the create-invoice payload
type NewInvoice struct {
	InvoiceDate   string `json:"invoice_date"`
	OutletID      ID     `json:"outlet"`
	InvoiceNumber string `json:"invoice_number"`
	ActualAmount  Amount `json:"actual_amount"`
	Brand         string `json:"brand"`
	RouteID       ID     `json:"route"`
}

// InvoicePatch carries only the fields that changed
type InvoicePatch struct {
	AssignedToID *ID     `json:"assigned_to_id,omitempty"`
	ActualAmount *Amount `json:"actual_amount,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p InvoicePatch) IsEmpty() bool {
	return p.AssignedToID == nil && p.ActualAmount == nil
}

// AssignRequest is the body of the assign endpoint
type AssignRequest struct {
	BillIDs []ID `json:"bill_ids"`
	DRAID   ID   `json:"dra_id"`
}
