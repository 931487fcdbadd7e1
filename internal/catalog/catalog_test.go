package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/devifoods/internal/catalog"
)

func TestTotalRecomputesWithSelection(t *testing.T) {
	weight, ok := catalog.WeightByID("500g")
	require.True(t, ok)
	pack, ok := catalog.PackByID("bottle")
	require.True(t, ok)

	sel := catalog.NewSelection(catalog.ChickenPickle, weight, pack)
	assert.Equal(t, int64(499), sel.Total())

	sel.IncQty()
	sel.IncQty()
	assert.Equal(t, int64(1497), sel.Total())

	sel.Weight, _ = catalog.WeightByID("1kg")
	assert.Equal(t, int64(2697), sel.Total())
}

func TestDecQtyFloorsAtOne(t *testing.T) {
	sel := catalog.NewSelection(catalog.ChickenPickle, catalog.WeightOptions[0], catalog.PackOptions[0])
	sel.DecQty()
	assert.Equal(t, 1, sel.Qty)
}

func TestLineItemCarriesSelection(t *testing.T) {
	weight, _ := catalog.WeightByID("500g")
	pack, _ := catalog.PackByID("pouch")
	sel := catalog.NewSelection(catalog.MuttonPickle, weight, pack)
	sel.Qty = 2

	item := sel.LineItem()
	assert.Equal(t, "devi-spicy-mutton-pickle", item.ProductID)
	assert.Equal(t, "Devi Spicy Mutton Pickle", item.Name)
	assert.Equal(t, 2, item.Qty)
	assert.Equal(t, int64(499), item.Price)
	assert.Equal(t, "500gm", item.Weight)
	assert.Equal(t, "pouch", item.Pack)
}

func TestLookups(t *testing.T) {
	p, ok := catalog.ProductByID("devi-spicy-chicken-pickle")
	require.True(t, ok)
	assert.Equal(t, "chicken-pickle", p.Slug)

	_, ok = catalog.ProductByID("no-such-product")
	assert.False(t, ok)

	_, ok = catalog.WeightByID("2kg")
	assert.False(t, ok)

	_, ok = catalog.PackByID("crate")
	assert.False(t, ok)
}
