// Package fulfillment splits order lines into staff-priced and fixed-price groups.
package fulfillment

import (
	"strings"

	"tailorshop/internal/domain"
)

// Partition is an order-preserving, disjoint split of a line list.
// Deferred and Alteration lines wait for a staff-set price; Fixed lines are priced now.
type Partition struct {
	Deferred   []domain.CartItem
	Fixed      []domain.CartItem
	Alteration []domain.CartItem
}

func (p Partition) HasDeferred() bool { return len(p.Deferred) > 0 }
func (p Partition) HasFixed() bool    { return len(p.Fixed) > 0 }

// Has reports whether the partition contains lines for g.
func (p Partition) Has(g domain.Group) bool {
	switch g {
	case domain.GroupLaundry:
		return len(p.Deferred) > 0
	case domain.GroupReadymade:
		return len(p.Fixed) > 0
	case domain.GroupAlteration:
		return len(p.Alteration) > 0
	}
	return false
}

// IsDeferred reports whether the line is priced later by staff: its tag is not
// blank, or it carries the legacy "laundry" category.
func IsDeferred(item domain.CartItem) bool {
	return strings.TrimSpace(item.FulfillmentTag) != "" || item.Category == domain.LegacyLaundryCategory
}

// GroupOf returns the fulfillment group a line belongs to.
func GroupOf(item domain.CartItem) domain.Group {
	switch {
	case isAlteration(item):
		return domain.GroupAlteration
	case IsDeferred(item):
		return domain.GroupLaundry
	default:
		return domain.GroupReadymade
	}
}

// Classify partitions items by group.
func Classify(items []domain.CartItem) Partition {
	var p Partition
	for _, it := range items {
		switch GroupOf(it) {
		case domain.GroupAlteration:
			p.Alteration = append(p.Alteration, it)
		case domain.GroupLaundry:
			p.Deferred = append(p.Deferred, it)
		default:
			p.Fixed = append(p.Fixed, it)
		}
	}
	return p
}

// AlterationLine represents a booking as a single staff-priced line.
func AlterationLine(a domain.Alteration) domain.CartItem {
	qty := a.Quantity
	if qty < 1 {
		qty = 1
	}
	return domain.CartItem{
		ID:             a.ID,
		Name:           "Alteration",
		Quantity:       qty,
		FulfillmentTag: domain.TagAlteration,
	}
}

// ClassifyAlteration always yields a partition with only the alteration group.
func ClassifyAlteration(a domain.Alteration) Partition {
	return Partition{Alteration: []domain.CartItem{AlterationLine(a)}}
}

func isAlteration(item domain.CartItem) bool {
	return strings.EqualFold(strings.TrimSpace(item.FulfillmentTag), domain.TagAlteration)
}
