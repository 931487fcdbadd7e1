package models

// CartLineItem is one line of the buy-now cart, derived from the product page
// selection. It is recomputed on every selection change and never persisted.
type CartLineItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	Price     int64  `json:"price"`
	Weight    string `json:"weight"`
	Pack      string `json:"pack"`
}

// Order is the backend's record of a placed order. The client displays it but
// does not validate it beyond the success flag of the response that carried it.
type Order struct {
	ID          string         `json:"id,omitempty"`
	LegacyID    string         `json:"_id,omitempty"`
	OrderNumber string         `json:"orderNumber,omitempty"`
	Status      string         `json:"status,omitempty"`
	Amount      int64          `json:"amount"`
	Items       []CartLineItem `json:"items,omitempty"`
	Address     OrderAddress   `json:"address"`
	CreatedAt   string         `json:"createdAt,omitempty"`
}

// PaymentOrder is the payment provider's order handle returned by
// payments/create-order and handed to the checkout widget.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
