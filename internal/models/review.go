package models

// Review is a product review as listed by the reviews endpoint.
type Review struct {
	ID        string `json:"id,omitempty"`
	LegacyID  string `json:"_id,omitempty"`
	ProductID string `json:"productId"`
	Stars     int    `json:"stars"`
	Text      string `json:"text"`
	UserName  string `json:"userName,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Key returns the review identifier, preferring the Mongo-style "_id".
func (r Review) Key() string {
	if r.LegacyID != "" {
		return r.LegacyID
	}
	return r.ID
}
