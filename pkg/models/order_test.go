package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartItem_LineTotal(t *testing.T) {
	item := CartItem{Name: "Margherita Pizza", Price: decimal.RequireFromString("249.50"), Quantity: 3}
	assert.Equal(t, "748.50", item.LineTotal().StringFixed(2))
}

func TestOrder_ItemCount(t *testing.T) {
	o := Order{Items: []CartItem{
		{Name: "Pizza", Quantity: 2},
		{Name: "Burger", Quantity: 1},
	}}
	assert.Equal(t, 3, o.ItemCount())
	assert.Equal(t, 0, Order{}.ItemCount())
}

func TestCloneItems_DoesNotAlias(t *testing.T) {
	items := []CartItem{{Name: "Pizza", Quantity: 1}}
	clone := CloneItems(items)
	clone[0].Quantity = 5
	assert.Equal(t, 1, items[0].Quantity)
}

func TestOrder_JSONShape(t *testing.T) {
	ts := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)
	o := Order{
		OrderID:   123456,
		Timestamp: ts,
		Items:     []CartItem{{Name: "Pizza", Price: decimal.NewFromInt(249), Image: "p.jpg", Quantity: 1}},
		Subtotal:  decimal.NewFromInt(249),
		Tax:       decimal.RequireFromString("44.82"),
		Delivery:  decimal.NewFromInt(45),
		Total:     decimal.RequireFromString("338.82"),
	}

	data, err := json.Marshal(o)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "orderId")
	assert.Contains(t, raw, "timestamp")
	assert.Contains(t, raw, "items")

	var back Order
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, o.OrderID, back.OrderID)
	assert.True(t, o.Timestamp.Equal(back.Timestamp))
	assert.True(t, o.Total.Equal(back.Total))
	assert.True(t, o.Tax.Equal(back.Tax))
}
