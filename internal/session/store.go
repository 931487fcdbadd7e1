package session

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/devifoods/internal/models"
)

// Store is the client-local persistent storage for the auth session. It holds
// the same two keys the web storefront keeps in localStorage, the bearer
// token and the serialized profile, and treats either being absent as logged
// out. The auth-success and logout paths are the only writers; any component
// may read. The mutex covers in-process readers only; concurrent storefront
// processes may observe stale state until their next read, which is accepted.
type Store struct {
	mu   sync.RWMutex
	path string
}

// storeFile is the on-disk shape. There is no transactional guarantee across
// the two fields beyond the single-file write itself.
type storeFile struct {
	AuthToken string       `json:"authToken"`
	User      *models.User `json:"user"`
}

// NewStore opens a Store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Save persists the session. Called only from the auth-success path.
func (s *Store) Save(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	user := sess.User
	data, err := json.Marshal(storeFile{AuthToken: sess.Token, User: &user})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Current returns the active session, or false when logged out. A missing
// file, a missing token or profile, corrupt JSON, or an expired token all
// read as logged out.
func (s *Store) Current() (models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("[Session] read %s: %v", s.path, err)
		}
		return models.Session{}, false
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		log.Printf("[Session] corrupt store file %s: %v", s.path, err)
		return models.Session{}, false
	}

	if f.AuthToken == "" || f.User == nil {
		return models.Session{}, false
	}

	if tokenExpired(f.AuthToken) {
		log.Printf("[Session] stored token expired, treating as logged out")
		return models.Session{}, false
	}

	return models.Session{Token: f.AuthToken, User: *f.User}, true
}

// Clear removes the stored session. Called from the logout and invalid-token
// paths.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// tokenExpired inspects the token's registered claims without verifying the
// signature; the signing secret lives server-side, and the backend remains
// the authority either way. Tokens that are not JWTs, or carry no expiry,
// are passed through for the backend to judge.
func tokenExpired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
