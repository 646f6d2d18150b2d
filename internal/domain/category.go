package domain

// ReasonCategory selects the document template family for a dispute.
type ReasonCategory string

const (
	CategoryFraud                ReasonCategory = "fraud"
	CategoryProductNotReceived   ReasonCategory = "pnr"
	CategoryProductNotAcceptable ReasonCategory = "pna"
	CategoryCreditNotProcessed   ReasonCategory = "cnp"
)

// Categories lists every category in resolution priority order.
var Categories = []ReasonCategory{
	CategoryFraud,
	CategoryProductNotReceived,
	CategoryProductNotAcceptable,
	CategoryCreditNotProcessed,
}

// Valid reports whether c is one of the known categories.
func (c ReasonCategory) Valid() bool {
	switch c {
	case CategoryFraud, CategoryProductNotReceived, CategoryProductNotAcceptable, CategoryCreditNotProcessed:
		return true
	}
	return false
}

// Label is the human readable category name.
func (c ReasonCategory) Label() string {
	switch c {
	case CategoryProductNotReceived:
		return "Product Not Received"
	case CategoryProductNotAcceptable:
		return "Product Not Acceptable"
	case CategoryCreditNotProcessed:
		return "Credit Not Processed"
	default:
		return "Fraud"
	}
}

// NeedsReturnPolicy reports whether the category document carries the merchant's return policy.
func (c ReasonCategory) NeedsReturnPolicy() bool {
	return c == CategoryProductNotAcceptable || c == CategoryCreditNotProcessed
}
