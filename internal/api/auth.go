package api

import (
	"context"
	"net/http"

	"github.com/example/devifoods/internal/models"
)

type sendOTPRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendOTPResponse struct {
	envelope
	Exists bool `json:"exists"`
}

// SendOTP requests a one-time code for the given email and reports whether an
// account already exists for it. exists=true means the follow-up verification
// goes through otp-login, exists=false through signup.
func (c *Client) SendOTP(ctx context.Context, email, name string) (exists bool, err error) {
	var resp sendOTPResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/send-otp", "", sendOTPRequest{Email: email, Name: name}, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

type otpLoginRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type signupRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type authResponse struct {
	envelope
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (r authResponse) session(fallback string) (models.Session, error) {
	// A success body without both token and user is still a failed verification.
	if r.Token == "" || r.User.CustomerID() == "" {
		return models.Session{}, backendError(http.StatusOK, fallback)
	}
	return models.Session{Token: r.Token, User: r.User}, nil
}

// OTPLogin verifies the code for an existing account and returns the session.
func (c *Client) OTPLogin(ctx context.Context, email, otp string) (models.Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/otp-login", "", otpLoginRequest{Email: email, OTP: otp}, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.session("OTP verification failed. Please try again.")
}

// Signup verifies the code for a new account and returns the session.
func (c *Client) Signup(ctx context.Context, name, email, otp string) (models.Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", "", signupRequest{Name: name, Email: email, OTP: otp}, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.session("Signup failed. Please try again.")
}

// Logout invalidates the session server-side.
func (c *Client) Logout(ctx context.Context, token string) error {
	var resp struct{ envelope }
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, &resp)
}
