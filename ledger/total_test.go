package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOrderTotal(t *testing.T) {
	items := []LineItem{
		{Qty: 2, UnitPriceCents: 1500},
		{Qty: 1, UnitPriceCents: 900},
		{Qty: 3, UnitPriceCents: 200},
	}
	assert.Equal(t, int64(4500), CalculateOrderTotal(items))
}

func TestCalculateOrderTotal_Empty(t *testing.T) {
	assert.Equal(t, int64(0), CalculateOrderTotal(nil))
	assert.Equal(t, int64(0), CalculateOrderTotal([]LineItem{}))
}

func TestCalculateOrderTotal_SingleLine(t *testing.T) {
	assert.Equal(t, int64(4980), CalculateOrderTotal([]LineItem{{Qty: 2, UnitPriceCents: 2490}}))
}

func TestCalculateOrderTotal_Deterministic(t *testing.T) {
	items := []LineItem{
		{Qty: 7, UnitPriceCents: 1299},
		{Qty: 99, UnitPriceCents: 50},
	}
	first := CalculateOrderTotal(items)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CalculateOrderTotal(items))
	}
}
