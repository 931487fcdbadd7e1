package checkout

import (
	"context"
	"errors"
	"sync"
)

// ErrDismissed is returned by a Gateway when the shopper closes the payment
// widget without paying. It aborts the attempt only; the draft stays intact.
var ErrDismissed = errors.New("payment widget dismissed")

// Prefill seeds the payment widget's contact form.
type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// WidgetOptions configures one opening of the payment widget. It mirrors the
// options object handed to the provider's checkout script.
type WidgetOptions struct {
	KeyID       string
	OrderID     string
	Amount      int64
	Currency    string
	Name        string
	Description string
	Prefill     Prefill
	Notes       map[string]string
	ThemeColor  string
}

// Completion carries the provider signature fields from a successful payment.
type Completion struct {
	OrderID   string
	PaymentID string
	Signature string
}

// Gateway is the third-party payment widget as seen by the controller. Load
// stands in for injecting the provider script; Open blocks until the shopper
// pays, dismisses the widget (ErrDismissed) or the widget fails.
type Gateway interface {
	Load(ctx context.Context) error
	Open(ctx context.Context, opts WidgetOptions) (Completion, error)
}

// lazyGateway makes Load idempotent: the underlying load runs at most once,
// the way the script tag is only injected when its marker is absent.
type lazyGateway struct {
	inner Gateway

	mu     sync.Mutex
	loaded bool
}

// LazyGateway wraps a Gateway so repeated Load calls hit the inner gateway
// only until the first success.
func LazyGateway(g Gateway) Gateway {
	return &lazyGateway{inner: g}
}

func (l *lazyGateway) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}
	if err := l.inner.Load(ctx); err != nil {
		return err
	}
	l.loaded = true
	return nil
}

func (l *lazyGateway) Open(ctx context.Context, opts WidgetOptions) (Completion, error) {
	return l.inner.Open(ctx, opts)
}
