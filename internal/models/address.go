package models

// SavedAddress is a delivery address stored against the customer's account.
// It is fetched read-only; the client never mutates one except by re-fetch.
type SavedAddress struct {
	ID        string `json:"id,omitempty"`
	LegacyID  string `json:"_id,omitempty"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	Pincode   string `json:"pincode"`
	IsDefault bool   `json:"isDefault"`
}

// Key returns the address identifier, preferring the Mongo-style "_id".
func (a SavedAddress) Key() string {
	if a.LegacyID != "" {
		return a.LegacyID
	}
	return a.ID
}

// OrderAddress is the delivery address payload sent with order creation and
// rendered back from order history. Field values pass through untouched so
// that line1/city/pincode/phone round-trip byte for byte.
type OrderAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}
