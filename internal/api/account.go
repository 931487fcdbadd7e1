package api

import (
	"context"
	"net/http"

	"github.com/example/devifoods/internal/models"
)

type addressesResponse struct {
	envelope
	Addresses []models.SavedAddress `json:"addresses"`
}

// ListAddresses returns the customer's saved delivery addresses.
func (c *Client) ListAddresses(ctx context.Context, token string) ([]models.SavedAddress, error) {
	var resp addressesResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/account/address", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

type addAddressRequest struct {
	CustomerID string              `json:"customerId"`
	Address    models.OrderAddress `json:"address"`
}

// AddAddress stores a new delivery address and returns the refreshed list.
func (c *Client) AddAddress(ctx context.Context, token, customerID string, address models.OrderAddress) ([]models.SavedAddress, error) {
	var resp addressesResponse
	req := addAddressRequest{CustomerID: customerID, Address: address}
	if err := c.do(ctx, http.MethodPost, "/api/v1/account/address", token, req, &resp); err != nil {
		return nil, err
	}
	return resp.Addresses, nil
}

// Account is the combined profile view served by userAccount/account.
type Account struct {
	User      models.User           `json:"user"`
	Addresses []models.SavedAddress `json:"addresses"`
	Orders    []models.Order        `json:"orders"`
}

type accountResponse struct {
	envelope
	Account
}

// GetAccount fetches profile, addresses and order history in one call.
func (c *Client) GetAccount(ctx context.Context, token string) (*Account, error) {
	var resp accountResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/userAccount/account", token, nil, &resp); err != nil {
		return nil, err
	}
	acct := resp.Account
	return &acct, nil
}
