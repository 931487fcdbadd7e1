package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a failed call for the UI layer.
type Kind int

const (
	KindValidation Kind = iota
	KindTransport
	KindBackend
	KindThirdParty
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindThirdParty:
		return "third-party"
	}
	return "unknown"
}

// GenericMessage is shown when the backend supplies no message of its own.
const GenericMessage = "Something went wrong. Please try again."

// Error is the single error shape every client call resolves to. Message is
// always safe to show to the shopper; the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// ValidationError builds a pre-network rejection of user input.
func ValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// ThirdPartyError marks a failure originating in the payment widget or its SDK.
func ThirdPartyError(message string, cause error) *Error {
	return &Error{Kind: KindThirdParty, Message: message, cause: cause}
}

func transportError(cause error) *Error {
	return &Error{Kind: KindTransport, Message: GenericMessage, cause: cause}
}

func backendError(status int, message string) *Error {
	if strings.TrimSpace(message) == "" {
		message = GenericMessage
	}
	return &Error{Kind: KindBackend, Message: message, Status: status}
}

// Message extracts the user-facing text from any error returned by this
// package, falling back to the generic message for unexpected errors.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return GenericMessage
}

// envelope is the common wrapper on every backend response body.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (e envelope) status() (bool, string) { return e.Success, e.Message }

type response interface {
	status() (ok bool, message string)
}

// Client talks to the storefront REST API. All endpoints are relative to the
// configured base URL and all bodies are JSON.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client for the given API base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// do performs one API call and normalizes every failure mode (transport
// errors, malformed JSON, non-2xx statuses and success:false bodies) into a
// single *Error. On success the body has already been decoded into out.
func (c *Client) do(ctx context.Context, method, path, token string, body any, out response) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return transportError(fmt.Errorf("marshal %s payload: %w", path, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return transportError(fmt.Errorf("create %s request: %w", path, err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("[API] %s %s failed: %v", method, path, err)
		return transportError(fmt.Errorf("execute %s request: %w", path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(fmt.Errorf("read %s response: %w", path, err))
	}

	// Decode even on non-2xx: the backend puts its user-facing message in the
	// same envelope either way.
	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Printf("[API] %s %s status %d with unparseable body", method, path, resp.StatusCode)
			return backendError(resp.StatusCode, "")
		}
		return transportError(fmt.Errorf("unmarshal %s response: %w", path, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		log.Printf("[API] %s %s rejected: status=%d message=%q", method, path, resp.StatusCode, env.Message)
		return backendError(resp.StatusCode, env.Message)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return transportError(fmt.Errorf("unmarshal %s response: %w", path, err))
		}
		if ok, message := out.status(); !ok {
			return backendError(resp.StatusCode, message)
		}
	}

	return nil
}
