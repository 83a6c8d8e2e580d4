// Package cart holds the ordered, in-memory line collection behind a shopping cart.
package cart

import (
	"errors"
	"fmt"

	"tailorshop/internal/domain"
)

// MaxQuantity caps a single line.
const MaxQuantity = 999

var (
	// ErrInvalidQuantity is returned when a quantity below 1 reaches the store.
	ErrInvalidQuantity = domain.NewValidationError("quantity", "quantity must be at least 1")
	// ErrQuantityTooLarge is returned when a quantity above MaxQuantity reaches the store.
	ErrQuantityTooLarge = domain.NewValidationError("quantity", fmt.Sprintf("quantity must be at most %d", MaxQuantity))
)

// Store keeps lines in insertion order, unique by id, each with 1 <= quantity <= MaxQuantity.
// It is not safe for concurrent use; callers serialize access per cart.
type Store struct {
	items []domain.CartItem
}

// New returns a Store seeded with items. Duplicate ids are merged.
func New(items ...domain.CartItem) *Store {
	s := &Store{}
	for _, it := range items {
		s.Add(it)
	}
	return s
}

// Add merges item into an existing line with the same id by summing quantities,
// otherwise appends it. A quantity below 1 counts as 1 and the merged quantity
// is clamped to MaxQuantity.
func (s *Store) Add(item domain.CartItem) {
	item.Quantity = clamp(item.Quantity)
	if i := s.index(item.ID); i >= 0 {
		s.items[i].Quantity = clamp(s.items[i].Quantity + item.Quantity)
		return
	}
	s.items = append(s.items, item)
}

// UpdateQuantity sets the quantity of line id.
func (s *Store) UpdateQuantity(id string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if quantity > MaxQuantity {
		return ErrQuantityTooLarge
	}
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("cart line %s: %w", id, domain.ErrNotFound)
	}
	s.items[i].Quantity = quantity
	return nil
}

// Remove drops line id; absent ids are ignored.
func (s *Store) Remove(id string) {
	if i := s.index(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
}

func (s *Store) Clear() {
	s.items = nil
}

// Items returns a copy of the lines in order.
func (s *Store) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

func clamp(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

func (s *Store) index(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// IsInvalidQuantity reports whether err came from a rejected quantity.
func IsInvalidQuantity(err error) bool {
	return errors.Is(err, ErrInvalidQuantity) || errors.Is(err, ErrQuantityTooLarge)
}
