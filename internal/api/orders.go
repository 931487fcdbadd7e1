package api

import (
	"context"
	"net/http"

	"github.com/example/devifoods/internal/models"
)

// CODOrderRequest is the payload for a cash-on-delivery order.
type CODOrderRequest struct {
	CustomerID string                `json:"customerId"`
	Items      []models.CartLineItem `json:"items"`
	Amount     int64                 `json:"amount"`
	Address    models.OrderAddress   `json:"address"`
}

type orderResponse struct {
	envelope
	Order models.Order `json:"order"`
}

// PlaceCODOrder places a cash-on-delivery order directly, without a payment
// provider round-trip.
func (c *Client) PlaceCODOrder(ctx context.Context, token string, req CODOrderRequest) (models.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/orders/cod", token, req, &resp); err != nil {
		return models.Order{}, err
	}
	return resp.Order, nil
}
