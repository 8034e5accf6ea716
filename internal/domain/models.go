package domain

import (
	"errors"
	"fmt"
	"strings"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyVilla     PropertyType = "villa"
	PropertyOffice    PropertyType = "office"
	PropertyLand      PropertyType = "land"
	PropertyStore     PropertyType = "store"
)

type DealType string

const (
	DealSale     DealType = "sale"
	DealRent     DealType = "rent"
	DealExchange DealType = "exchange"
)

type DocumentType string

const (
	DocumentSinglePage  DocumentType = "single_page"
	DocumentCooperative DocumentType = "cooperative"
	DocumentEndowment   DocumentType = "endowment"
	DocumentLease       DocumentType = "lease"
)

var ErrMalformedListing = errors.New("malformed listing")

// Listing is a published property advertisement. The matching code only reads it.
type Listing struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Category PropertyType `json:"category"`
	DealType DealType     `json:"deal_type"`

	Price    int64  `json:"price"`
	Area     int    `json:"area"`
	City     string `json:"city"`
	District string `json:"district"`

	Bedrooms     *int         `json:"bedrooms,omitempty"`
	YearBuilt    *int         `json:"year_built,omitempty"`
	Floor        *int         `json:"floor,omitempty"`
	TotalFloors  *int         `json:"total_floors,omitempty"`
	DocumentType DocumentType `json:"document_type,omitempty"`

	HasParking  bool `json:"has_parking"`
	HasElevator bool `json:"has_elevator"`
	HasStorage  bool `json:"has_storage"`
	IsRenovated bool `json:"is_renovated"`

	OpenToExchange      bool     `json:"open_to_exchange"`
	ExchangePreferences []string `json:"exchange_preferences,omitempty"`

	Description string `json:"description"`
	OwnerPhone  string `json:"owner_phone"`
	SourceLink  string `json:"source_link,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Validate reports records that cannot take part in filtering or scoring.
func (l Listing) Validate() error {
	switch {
	case strings.TrimSpace(l.ID) == "":
		return fmt.Errorf("%w: empty id", ErrMalformedListing)
	case l.Area <= 0:
		return fmt.Errorf("%w: %s: area must be > 0", ErrMalformedListing, l.ID)
	case l.Price < 0:
		return fmt.Errorf("%w: %s: price must be >= 0", ErrMalformedListing, l.ID)
	}
	return nil
}

// Age returns the building age relative to currentYear. ok is false when the
// construction year is unknown.
func (l Listing) Age(currentYear int) (age int, ok bool) {
	if l.YearBuilt == nil || *l.YearBuilt <= 0 {
		return 0, false
	}
	age = currentYear - *l.YearBuilt
	if age < 0 {
		age = 0
	}
	return age, true
}

// Requirements is a buyer's accumulated search criteria. The zero value of
// every field means "not specified yet".
type Requirements struct {
	BudgetMin int64 `json:"budget_min,omitempty"`
	BudgetMax int64 `json:"budget_max,omitempty"`

	AreaMin int `json:"area_min,omitempty"`
	AreaMax int `json:"area_max,omitempty"`

	Category PropertyType `json:"category,omitempty"`
	DealType DealType     `json:"deal_type,omitempty"`
	City     string       `json:"city,omitempty"`
	District string       `json:"district,omitempty"`

	BedroomsMin  int          `json:"bedrooms_min,omitempty"`
	YearBuiltMin int          `json:"year_built_min,omitempty"`
	MaxAge       int          `json:"max_age,omitempty"`
	MinFloor     int          `json:"min_floor,omitempty"`
	DocumentType DocumentType `json:"document_type,omitempty"`

	MustHaveParking  bool `json:"must_have_parking,omitempty"`
	MustHaveElevator bool `json:"must_have_elevator,omitempty"`
	MustHaveStorage  bool `json:"must_have_storage,omitempty"`

	WantsExchange bool   `json:"wants_exchange,omitempty"`
	ExchangeItem  string `json:"exchange_item,omitempty"`
	ExchangeValue int64  `json:"exchange_value,omitempty"`
}

func (r Requirements) HasCity() bool     { return strings.TrimSpace(r.City) != "" }
func (r Requirements) HasDistrict() bool { return strings.TrimSpace(r.District) != "" }

// WithoutCity returns a copy with the city constraint cleared.
func (r Requirements) WithoutCity() Requirements {
	r.City = ""
	return r
}

// ScoredListing is the score of one listing against one Requirements value.
type ScoredListing struct {
	ListingID       string             `json:"listing_id"`
	TotalScore      float64            `json:"total_score"`
	Breakdown       map[string]float64 `json:"breakdown"`
	MatchPercentage float64            `json:"match_percentage"`
	Missing         []string           `json:"missing_requirements,omitempty"`
}

type DecisionStatus string

const (
	StatusSuccess      DecisionStatus = "success"
	StatusNoResults    DecisionStatus = "no_results"
	StatusNeedMoreInfo DecisionStatus = "need_more_info"
)

type FilterStat struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

type DecisionSummary struct {
	TotalChecked     int                   `json:"total_checked"`
	AfterFiltering   int                   `json:"after_filtering"`
	Scored           int                   `json:"scored"`
	FiltersApplied   map[string]bool       `json:"filters_applied,omitempty"`
	FilterStats      map[string]FilterStat `json:"filter_stats,omitempty"`
	BestMatch        float64               `json:"best_match_percentage"`
	WorstMatch       float64               `json:"worst_match_percentage"`
	AverageMatch     float64               `json:"average_match"`
	Reason           string                `json:"reason,omitempty"`
	IsGlobalFallback bool                  `json:"is_global_fallback,omitempty"`
}

// DecisionResult is produced fresh by every Decide call.
type DecisionResult struct {
	Status          DecisionStatus  `json:"status"`
	Listings        []ScoredListing `json:"listings"`
	Summary         DecisionSummary `json:"decision_summary"`
	Recommendations []string        `json:"recommendations"`
	FiltersApplied  map[string]bool `json:"filters_applied,omitempty"`
	MissingFields   []string        `json:"missing_fields,omitempty"`

	CityMismatch bool   `json:"city_mismatch,omitempty"`
	OriginalCity string `json:"original_city,omitempty"`
	FoundCity    string `json:"found_city,omitempty"`
}

type ExchangeMatch struct {
	Listing         Listing  `json:"listing"`
	MatchScore      float64  `json:"match_score"`
	ItemMatch       float64  `json:"item_match"`
	ValueMatch      float64  `json:"value_match"`
	PriceDifference int64    `json:"price_difference"`
	TopUpPayment    int64    `json:"additional_payment_needed"`
	AcceptedAssets  []string `json:"exchange_preferences"`
}

type PaymentParty string

const (
	PaidByBuyer PaymentParty = "buyer"
	PaidByOwner PaymentParty = "owner"
	PaidByNone  PaymentParty = "none"
)

type ExchangeKind string

const (
	ExchangeMutual ExchangeKind = "mutual"
	ExchangeTopUp  ExchangeKind = "top_up"
)

type ExchangeProposal struct {
	ListingID         string       `json:"listing_id"`
	ListingTitle      string       `json:"listing_title"`
	ListingPrice      int64        `json:"listing_price"`
	OfferedItem       string       `json:"offered_item"`
	OfferedValue      int64        `json:"offered_value"`
	SignedDifference  int64        `json:"signed_difference"`
	PriceDifference   int64        `json:"price_difference"`
	AdditionalPayment int64        `json:"additional_payment"`
	PaidBy            PaymentParty `json:"payment_by"`
	Kind              ExchangeKind `json:"exchange_type"`
	Description       string       `json:"description"`
}
