package account

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"

	"github.com/example/devifoods/internal/api"
	"github.com/example/devifoods/internal/models"
	"github.com/example/devifoods/internal/session"
)

// ErrNotLoggedIn is returned when no usable session exists. The account page
// shows its login prompt instead of an error for this case.
var ErrNotLoggedIn = errors.New("not logged in")

var invalidTokenMessage = regexp.MustCompile(`(?i)invalid|expired`)

// Service loads the signed-in customer's account view and handles logout.
type Service struct {
	api   *api.Client
	store *session.Store
}

// NewService constructs a Service.
func NewService(client *api.Client, store *session.Store) *Service {
	return &Service{api: client, store: store}
}

// View is everything the account page renders.
type View struct {
	User      models.User
	Addresses []models.SavedAddress
	Orders    []models.Order
}

// Load fetches profile, addresses and order history. A 401 or an
// invalid/expired-token message clears the stored session and reads as
// logged out rather than as an error.
func (s *Service) Load(ctx context.Context) (*View, error) {
	sess, ok := s.store.Current()
	if !ok {
		return nil, ErrNotLoggedIn
	}

	acct, err := s.api.GetAccount(ctx, sess.Token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Kind == api.KindBackend {
			if apiErr.Status == http.StatusUnauthorized || invalidTokenMessage.MatchString(apiErr.Message) {
				log.Printf("[Account] session rejected by backend, clearing: %s", apiErr.Message)
				if clearErr := s.store.Clear(); clearErr != nil {
					log.Printf("[Account] failed to clear session: %v", clearErr)
				}
				return nil, ErrNotLoggedIn
			}
		}
		return nil, err
	}

	user := acct.User
	if user.CustomerID() == "" {
		user = sess.User
	}

	return &View{User: user, Addresses: acct.Addresses, Orders: acct.Orders}, nil
}

// AddAddress saves a new delivery address and returns the refreshed list.
func (s *Service) AddAddress(ctx context.Context, address models.OrderAddress) ([]models.SavedAddress, error) {
	sess, ok := s.store.Current()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return s.api.AddAddress(ctx, sess.Token, sess.User.CustomerID(), address)
}

// Logout invalidates the session server-side on a best-effort basis and
// always clears local storage.
func (s *Service) Logout(ctx context.Context) error {
	sess, ok := s.store.Current()
	if ok {
		if err := s.api.Logout(ctx, sess.Token); err != nil {
			log.Printf("[Account] server-side logout failed: %v", err)
		}
	}
	return s.store.Clear()
}
