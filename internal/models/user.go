package models

// User is the customer profile returned by the auth endpoints and cached in
// local session storage. Depending on the backend route the identifier may
// arrive as "_id", "id" or "customerId"; CustomerID resolves them in that
// order of preference.
type User struct {
	ID       string `json:"id,omitempty"`
	LegacyID string `json:"_id,omitempty"`
	AltID    string `json:"customerId,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
}

// CustomerID returns the first non-empty identifier field.
func (u User) CustomerID() string {
	if u.LegacyID != "" {
		return u.LegacyID
	}
	if u.ID != "" {
		return u.ID
	}
	return u.AltID
}

// Session pairs a bearer token with the profile it belongs to. At most one
// Session is active per storefront profile; it is created on successful OTP
// verification and destroyed on logout or an invalid-token response.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
