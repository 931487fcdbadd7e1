package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/example/devifoods/internal/models"
)

type reviewsResponse struct {
	envelope
	Reviews []models.Review `json:"reviews"`
}

// ListReviews returns reviews for a product, newest first.
func (c *Client) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var resp reviewsResponse
	path := "/api/v1/reviews?productId=" + url.QueryEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reviews, nil
}

type submitReviewRequest struct {
	ProductID string `json:"productId"`
	Stars     int    `json:"stars"`
	Text      string `json:"text"`
}

type reviewResponse struct {
	envelope
	Review models.Review `json:"review"`
}

// SubmitReview posts a review for a product the customer has purchased.
func (c *Client) SubmitReview(ctx context.Context, token, productID string, stars int, text string) (models.Review, error) {
	var resp reviewResponse
	req := submitReviewRequest{ProductID: productID, Stars: stars, Text: text}
	if err := c.do(ctx, http.MethodPost, "/api/v1/reviews", token, req, &resp); err != nil {
		return models.Review{}, err
	}
	return resp.Review, nil
}

// DeleteReview removes the customer's own review.
func (c *Client) DeleteReview(ctx context.Context, token, reviewID string) error {
	var resp struct{ envelope }
	return c.do(ctx, http.MethodDelete, "/api/v1/reviews/"+url.PathEscape(reviewID), token, nil, &resp)
}

type canReviewResponse struct {
	envelope
	CanReview bool `json:"canReview"`
}

// CanReview reports whether the customer is eligible to review the product
// (i.e. has a completed order containing it).
func (c *Client) CanReview(ctx context.Context, token, productID string) (bool, error) {
	var resp canReviewResponse
	path := "/api/v1/reviews/can-review?productId=" + url.QueryEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &resp); err != nil {
		return false, err
	}
	return resp.CanReview, nil
}
