package api

import (
	"context"
	"net/http"

	"github.com/example/devifoods/internal/models"
)

// CreatePaymentRequest asks the backend to open an order with the payment
// provider. Notes travel to the provider dashboard verbatim.
type CreatePaymentRequest struct {
	Amount   int64                 `json:"amount"`
	Currency string                `json:"currency"`
	Receipt  string                `json:"receipt,omitempty"`
	Items    []models.CartLineItem `json:"items"`
	Address  models.OrderAddress   `json:"address"`
	Notes    map[string]string     `json:"notes,omitempty"`
}

type createPaymentResponse struct {
	envelope
	Order models.PaymentOrder `json:"order"`
	KeyID string              `json:"keyId"`
}

// CreatePaymentOrder creates a provider payment order and returns it together
// with the provider public key the widget must be opened with.
func (c *Client) CreatePaymentOrder(ctx context.Context, req CreatePaymentRequest) (models.PaymentOrder, string, error) {
	var resp createPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/payments/create-order", "", req, &resp); err != nil {
		return models.PaymentOrder{}, "", err
	}
	if resp.Order.ID == "" {
		return models.PaymentOrder{}, "", backendError(http.StatusOK, "Failed to create payment order.")
	}
	return resp.Order, resp.KeyID, nil
}

// VerifyPaymentRequest carries the provider signature fields from the widget's
// success callback plus the same order payload that created the payment.
type VerifyPaymentRequest struct {
	RazorpayOrderID   string                `json:"razorpay_order_id"`
	RazorpayPaymentID string                `json:"razorpay_payment_id"`
	RazorpaySignature string                `json:"razorpay_signature"`
	CustomerID        string                `json:"customerId,omitempty"`
	Items             []models.CartLineItem `json:"items"`
	Amount            int64                 `json:"amount"`
	Address           models.OrderAddress   `json:"address"`
}

// VerifyPayment has the backend verify the provider signature and create the
// final order.
func (c *Client) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (models.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/payments/verify", "", req, &resp); err != nil {
		return models.Order{}, err
	}
	return resp.Order, nil
}
