package enum

// PaymentMethod is how a collection agent received a payment
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodUPI        PaymentMethod = "upi"
	PaymentMethodCheque     PaymentMethod = "cheque"
	PaymentMethodElectronic PaymentMethod = "electronic"
)

// PaymentMethods lists the methods in display order
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash,
	PaymentMethodUPI,
	PaymentMethodCheque,
	PaymentMethodElectronic,
}

func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// TracksClearance reports whether payments of this method go through
// cheque history review
func (m PaymentMethod) TracksClearance() bool {
	return m == PaymentMethodCheque || m == PaymentMethodElectronic
}

// TransferType is the bank rail of an electronic payment, and doubles as the
// firm selector on cheque payments
type TransferType string

const (
	TransferRTGS TransferType = "rtgs"
	TransferNEFT TransferType = "neft"
	TransferIMPS TransferType = "imps"
)

// Firm returns the firm code the API expects for a cheque firm selection
func (t TransferType) Firm() string {
	if t == TransferRTGS {
		return "NA"
	}
	return "MZ"
}
