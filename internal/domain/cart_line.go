package domain

// CartLine is one (product, quantity) pair held before checkout.
// A cart holds at most one line per product and never a quantity <= 0.
type CartLine struct {
	ProductID ID  `json:"productId"`
	Qty       int `json:"qty"`
}
