package cart

import (
	"errors"
	"math"
	"testing"

	"tailorshop/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(id string, qty int) domain.CartItem {
	return domain.CartItem{ID: id, Name: id, UnitPrice: decimal.NewFromInt(10), Quantity: qty}
}

func TestAdd_MergesByIDSummingQuantity(t *testing.T) {
	s := New()
	s.Add(line("a", 2))
	s.Add(line("a", 3))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAdd_PreservesInsertionOrder(t *testing.T) {
	s := New(line("a", 1), line("b", 1))
	s.Add(line("c", 1))
	s.Add(line("a", 1))

	ids := []string{}
	for _, it := range s.Items() {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestAdd_FloorsQuantityAtOne(t *testing.T) {
	s := New()
	s.Add(line("a", 0))
	assert.Equal(t, 1, s.Items()[0].Quantity)
}

func TestAdd_ClampsQuantityAtMax(t *testing.T) {
	s := New(line("a", MaxQuantity-1))
	s.Add(line("a", 5))
	assert.Equal(t, MaxQuantity, s.Items()[0].Quantity)

	s.Add(line("b", math.MaxInt))
	s.Add(line("b", math.MaxInt))
	assert.Equal(t, MaxQuantity, s.Items()[1].Quantity, "repeated large adds must not overflow")
}

func TestUpdateQuantity_RejectsAboveMax(t *testing.T) {
	s := New(line("a", 3))

	require.NoError(t, s.UpdateQuantity("a", MaxQuantity))
	err := s.UpdateQuantity("a", MaxQuantity+1)
	assert.ErrorIs(t, err, ErrQuantityTooLarge)
	assert.True(t, IsInvalidQuantity(err))
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, MaxQuantity, s.Items()[0].Quantity)
}

func TestUpdateQuantity(t *testing.T) {
	s := New(line("a", 1))

	require.NoError(t, s.UpdateQuantity("a", 4))
	assert.Equal(t, 4, s.Items()[0].Quantity)

	err := s.UpdateQuantity("a", 0)
	assert.True(t, IsInvalidQuantity(err))
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 4, s.Items()[0].Quantity, "rejected update must not change state")

	err = s.UpdateQuantity("missing", 2)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRemoveAndClear(t *testing.T) {
	s := New(line("a", 1), line("b", 2))
	s.Remove("missing")
	assert.Equal(t, 2, s.Len())

	s.Remove("a")
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "b", s.Items()[0].ID)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestItems_ReturnsCopy(t *testing.T) {
	s := New(line("a", 1))
	items := s.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, s.Items()[0].Quantity)
}
