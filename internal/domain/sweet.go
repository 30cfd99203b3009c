package domain

import (
	"math"
	"strings"
	"time"
)

// MaxQuantity is the largest stock count a sweet can hold. It matches the
// INTEGER column in Postgres.
const MaxQuantity = math.MaxInt32

// Sweet is a catalog item with a stock counter.
type Sweet struct {
	ID          string
	Name        string
	Category    string
	Description *string
	Price       float64
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the invariants every stored sweet must satisfy.
func (s *Sweet) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Category) == "" {
		return ErrBlankField
	}
	if s.Price <= 0 {
		return ErrInvalidPrice
	}
	if s.Quantity < 0 || s.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// CanRestock reports whether delta units fit on top of the current stock.
func (s *Sweet) CanRestock(delta int) bool {
	return delta > 0 && delta <= MaxQuantity-s.Quantity
}

// InStock reports whether at least one unit can be purchased.
func (s *Sweet) InStock() bool {
	return s.Quantity >= 1
}

// SweetPatch carries a partial update. Nil fields are left untouched.
// An empty Description clears the stored description.
type SweetPatch struct {
	Name        *string
	Category    *string
	Description *string
	Price       *float64
	Quantity    *int
}

// Empty reports whether the patch changes nothing.
func (p SweetPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Description == nil && p.Price == nil && p.Quantity == nil
}

// Apply copies the set fields of p onto s.
func (p SweetPatch) Apply(s *Sweet) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Description != nil {
		if *p.Description == "" {
			s.Description = nil
		} else {
			desc := *p.Description
			s.Description = &desc
		}
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
}

// SweetFilter holds optional search predicates; all set predicates must match.
type SweetFilter struct {
	Name     *string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

// Matches evaluates the filter against a sweet. Name matching is a
// case-insensitive substring test, price bounds are inclusive.
func (f SweetFilter) Matches(s *Sweet) bool {
	if f.Name != nil && !containsFold(s.Name, *f.Name) {
		return false
	}
	if f.Category != nil && s.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && s.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && s.Price > *f.MaxPrice {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
