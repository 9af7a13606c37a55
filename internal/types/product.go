package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog record, independent of where the catalog was loaded from
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Rating      *float64        `json:"rating,omitempty"`
	Stock       int             `json:"stock"`
	Discount    *float64        `json:"discount,omitempty"`
	CreatedAt   *time.Time      `json:"createdAt,omitempty"`
	Sales       *int            `json:"sales,omitempty"`
}

// RatingOrZero returns the rating, treating an absent rating as 0
func (p Product) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// SalesOrZero returns the sales counter, treating an absent counter as 0
func (p Product) SalesOrZero() int {
	if p.Sales == nil {
		return 0
	}
	return *p.Sales
}

// CreatedOrEpoch returns the creation time, or the unix epoch if absent
func (p Product) CreatedOrEpoch() time.Time {
	if p.CreatedAt == nil {
		return time.Unix(0, 0).UTC()
	}
	return *p.CreatedAt
}

// HasDiscount reports whether the product carries an active discount
func (p Product) HasDiscount() bool {
	return p.Discount != nil && *p.Discount > 0
}

// SearchBody is the lowercased text a free-text query is matched against
func (p Product) SearchBody() string {
	parts := []string{p.Name, p.Description, p.Category, p.Brand, strings.Join(p.Tags, " ")}
	return strings.ToLower(strings.Join(parts, " "))
}
