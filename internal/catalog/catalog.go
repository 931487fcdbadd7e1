package catalog

import (
	"fmt"

	"github.com/example/devifoods/internal/models"
)

// Product is a catalog entry with the canonical IDs used by orders and
// reviews.
type Product struct {
	ID          string
	Slug        string
	SKU         string
	Name        string
	Description string
}

// WeightOption is a purchasable pack weight with its unit price in rupees.
type WeightOption struct {
	ID    string
	Label string
	Price int64
}

// PackOption selects bottle or pouch packaging.
type PackOption struct {
	ID    string
	Label string
}

var (
	ChickenPickle = Product{
		ID:          "devi-spicy-chicken-pickle",
		Slug:        "chicken-pickle",
		SKU:         "chicken-pickle",
		Name:        "Devi Spicy Chicken Pickle",
		Description: "Boneless chicken pickle slow-cooked in cold-pressed groundnut oil",
	}
	MuttonPickle = Product{
		ID:          "devi-spicy-mutton-pickle",
		Slug:        "mutton-pickle",
		SKU:         "mutton-pickle",
		Name:        "Devi Spicy Mutton Pickle",
		Description: "Tender mutton pieces in a bold blend of Telangana spices",
	}

	Products = []Product{ChickenPickle, MuttonPickle}

	WeightOptions = []WeightOption{
		{ID: "250g", Label: "250gm", Price: 249},
		{ID: "500g", Label: "500gm", Price: 499},
		{ID: "1kg", Label: "1kg", Price: 899},
	}

	PackOptions = []PackOption{
		{ID: "bottle", Label: "Bottle"},
		{ID: "pouch", Label: "Without Bottle"},
	}
)

// ProductByID looks a product up by its canonical ID.
func ProductByID(id string) (Product, bool) {
	for _, p := range Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// WeightByID looks a weight option up by its ID.
func WeightByID(id string) (WeightOption, bool) {
	for _, w := range WeightOptions {
		if w.ID == id {
			return w, true
		}
	}
	return WeightOption{}, false
}

// PackByID looks a pack option up by its ID.
func PackByID(id string) (PackOption, bool) {
	for _, p := range PackOptions {
		if p.ID == id {
			return p, true
		}
	}
	return PackOption{}, false
}

// Selection is the product page state a buy-now checkout is derived from.
// Line items and totals are recomputed from it on every change; nothing here
// is persisted.
type Selection struct {
	Product Product
	Weight  WeightOption
	Pack    PackOption
	Qty     int
}

// NewSelection builds a Selection with a sane starting quantity.
func NewSelection(product Product, weight WeightOption, pack PackOption) Selection {
	return Selection{Product: product, Weight: weight, Pack: pack, Qty: 1}
}

// IncQty adds one unit.
func (s *Selection) IncQty() { s.Qty++ }

// DecQty removes one unit, never dropping below one.
func (s *Selection) DecQty() {
	if s.Qty > 1 {
		s.Qty--
	}
}

// Total is the order amount in rupees for the current selection.
func (s Selection) Total() int64 {
	return s.Weight.Price * int64(s.Qty)
}

// LineItem renders the selection as the single cart line the checkout sends.
func (s Selection) LineItem() models.CartLineItem {
	return models.CartLineItem{
		ProductID: s.Product.ID,
		Name:      s.Product.Name,
		Qty:       s.Qty,
		Price:     s.Weight.Price,
		Weight:    s.Weight.Label,
		Pack:      s.Pack.ID,
	}
}

// Describe is the human-readable summary used for payment descriptions.
func (s Selection) Describe() string {
	return fmt.Sprintf("%s (%s, %s)", s.Product.Name, s.Weight.Label, s.Pack.Label)
}
