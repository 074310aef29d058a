package domain

// LabelRecord marks whether a customer purchased again inside the label window.
type LabelRecord struct {
	CustomerID string
	Label      int // 0 or 1
}
