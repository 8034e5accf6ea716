package storage

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

var (
	ErrNotFound       = errors.New("listing not found")
	ErrCorruptListing = errors.New("corrupt listing record")
)

// Repository supplies the candidate listings and resolves single listings by id.
type Repository interface {
	All(ctx context.Context) ([]domain.Listing, error)
	Get(ctx context.Context, id string) (domain.Listing, error)
	List(ctx context.Context, p ListParams) ([]domain.Listing, int, error)
	Create(ctx context.Context, l domain.Listing) (domain.Listing, error)
	Delete(ctx context.Context, id string) error
}

// ListParams narrows and pages a listing query. Zero values disable a filter.
type ListParams struct {
	Location    string
	MinPrice    int64
	MaxPrice    int64
	MinBedrooms int
	Sort        string // "", "price_asc", "price_desc"
	Limit       int
	Offset      int
}

func (p ListParams) normalized() ListParams {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// match applies the same predicates the SQL store expresses in its WHERE clause.
func (p ListParams) match(l domain.Listing) bool {
	if loc := strings.ToLower(strings.TrimSpace(p.Location)); loc != "" {
		if !strings.Contains(strings.ToLower(l.City), loc) && !strings.Contains(strings.ToLower(l.District), loc) {
			return false
		}
	}
	if p.MinPrice > 0 && l.Price < p.MinPrice {
		return false
	}
	if p.MaxPrice > 0 && l.Price > p.MaxPrice {
		return false
	}
	if p.MinBedrooms > 0 && (l.Bedrooms == nil || *l.Bedrooms < p.MinBedrooms) {
		return false
	}
	return true
}

func sortListings(items []domain.Listing, by string) {
	switch by {
	case "price_asc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price < items[j].Price })
	case "price_desc":
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price > items[j].Price })
	default:
		sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	}
}
