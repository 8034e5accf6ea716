package matching

import (
	"math"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

// Hard filter keys, reported in DecisionResult.FiltersApplied.
const (
	FilterExchange         = "must_be_exchange"
	FilterDealType         = "deal_type"
	FilterBudget           = "budget"
	FilterCity             = "city"
	FilterDistrict         = "district"
	FilterCategory         = "category"
	FilterArea             = "area"
	FilterYearBuilt        = "year_built"
	FilterDocumentType     = "document_type"
	FilterMustHaveParking  = "must_have_parking"
	FilterMustHaveElevator = "must_have_elevator"
	FilterMustHaveStorage  = "must_have_storage"
)

const (
	// budgetOvershootDivisor allows prices up to BudgetMax + BudgetMax/10.
	budgetOvershootDivisor = 10
	areaTolerance          = 20
)

// hardFilter removes every listing for which keep returns false. It only runs
// when active reports that req carries the corresponding field.
type hardFilter struct {
	name   string
	active func(req domain.Requirements) bool
	keep   func(l domain.Listing, req domain.Requirements) bool
}

// hardFilters are conjunctive; the order only affects FilterStats.
var hardFilters = []hardFilter{
	{
		name:   FilterExchange,
		active: func(r domain.Requirements) bool { return r.WantsExchange },
		keep:   func(l domain.Listing, _ domain.Requirements) bool { return l.OpenToExchange },
	},
	{
		name:   FilterDealType,
		active: func(r domain.Requirements) bool { return r.DealType != "" },
		keep:   keepDealType,
	},
	{
		name:   FilterBudget,
		active: func(r domain.Requirements) bool { return r.BudgetMax > 0 || r.BudgetMin > 0 },
		keep: func(l domain.Listing, r domain.Requirements) bool {
			if r.BudgetMax > 0 && l.Price > raiseBy(r.BudgetMax, budgetOvershootDivisor) {
				return false
			}
			return r.BudgetMin <= 0 || l.Price >= r.BudgetMin
		},
	},
	{
		name:   FilterCity,
		active: domain.Requirements.HasCity,
		keep: func(l domain.Listing, r domain.Requirements) bool {
			return l.City != "" && sameText(l.City, r.City)
		},
	},
	{
		name:   FilterDistrict,
		active: domain.Requirements.HasDistrict,
		keep: func(l domain.Listing, r domain.Requirements) bool {
			return sameText(l.District, r.District)
		},
	},
	{
		name:   FilterCategory,
		active: func(r domain.Requirements) bool { return r.Category != "" },
		keep:   func(l domain.Listing, r domain.Requirements) bool { return l.Category == r.Category },
	},
	{
		name:   FilterArea,
		active: func(r domain.Requirements) bool { return r.AreaMin > 0 || r.AreaMax > 0 },
		keep: func(l domain.Listing, r domain.Requirements) bool {
			if r.AreaMin > 0 && l.Area < max(0, r.AreaMin-areaTolerance) {
				return false
			}
			return r.AreaMax <= 0 || l.Area <= r.AreaMax+areaTolerance
		},
	},
	{
		name:   FilterYearBuilt,
		active: func(r domain.Requirements) bool { return r.YearBuiltMin > 0 },
		keep: func(l domain.Listing, r domain.Requirements) bool {
			return l.YearBuilt != nil && *l.YearBuilt >= r.YearBuiltMin
		},
	},
	{
		name:   FilterDocumentType,
		active: func(r domain.Requirements) bool { return r.DocumentType != "" },
		keep:   func(l domain.Listing, r domain.Requirements) bool { return l.DocumentType == r.DocumentType },
	},
	{
		name:   FilterMustHaveParking,
		active: func(r domain.Requirements) bool { return r.MustHaveParking },
		keep:   func(l domain.Listing, _ domain.Requirements) bool { return l.HasParking },
	},
	{
		name:   FilterMustHaveElevator,
		active: func(r domain.Requirements) bool { return r.MustHaveElevator },
		keep:   func(l domain.Listing, _ domain.Requirements) bool { return l.HasElevator },
	},
	{
		name:   FilterMustHaveStorage,
		active: func(r domain.Requirements) bool { return r.MustHaveStorage },
		keep:   func(l domain.Listing, _ domain.Requirements) bool { return l.HasStorage },
	},
}

// keepDealType compares deal types. Business rule: a buyer who wants an
// exchange deal also accepts sale listings whose owner is open to exchange.
func keepDealType(l domain.Listing, r domain.Requirements) bool {
	if l.DealType == r.DealType {
		return true
	}
	return r.WantsExchange && r.DealType == domain.DealExchange &&
		l.DealType == domain.DealSale && l.OpenToExchange
}

// raiseBy returns v + v/div, saturating at math.MaxInt64.
func raiseBy(v, div int64) int64 {
	inc := v / div
	if v > math.MaxInt64-inc {
		return math.MaxInt64
	}
	return v + inc
}

// filterStep describes one applied filter.
type filterStep struct {
	name    string
	initial int
	dropped int
	left    int
}

// applyHardFilters returns the listings passing every active filter without
// modifying the input slice.
func applyHardFilters(listings []domain.Listing, req domain.Requirements) ([]domain.Listing, map[string]bool, []filterStep) {
	applied := make(map[string]bool, len(hardFilters))
	steps := make([]filterStep, 0, len(hardFilters))
	out := listings

	for _, f := range hardFilters {
		applied[f.name] = false
		if !f.active(req) {
			continue
		}
		initial := len(out)
		out = keepOnly(out, req, f)
		applied[f.name] = true
		steps = append(steps, filterStep{name: f.name, initial: initial, dropped: initial - len(out), left: len(out)})
	}
	return out, applied, steps
}

func keepOnly(listings []domain.Listing, req domain.Requirements, f hardFilter) []domain.Listing {
	kept := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if f.keep(l, req) {
			kept = append(kept, l)
		}
	}
	return kept
}

// statsFromSteps reports, per applied filter, how many listings the step
// removed and how many remained, replaying filters in order from the full set.
func statsFromSteps(steps []filterStep) map[string]domain.FilterStat {
	stats := make(map[string]domain.FilterStat, len(steps))
	for _, st := range steps {
		stats[st.name] = domain.FilterStat{Removed: st.dropped, Remaining: st.left}
	}
	return stats
}
