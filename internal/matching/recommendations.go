package matching

import (
	"fmt"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

const (
	priceSampleSize = 5
	fewResults      = 3
	manyResults     = 10
)

func recommendations(scored []domain.ScoredListing, byID map[string]domain.Listing, req domain.Requirements) []string {
	out := []string{}
	if len(scored) == 0 {
		return out
	}

	out = append(out, matchQuality(scored[0].MatchPercentage))

	if req.BudgetMax > 0 {
		var sum float64
		var n int
		for _, sc := range scored[:min(priceSampleSize, len(scored))] {
			if l, ok := byID[sc.ListingID]; ok {
				sum += float64(l.Price)
				n++
			}
		}
		if n > 0 {
			ratio := sum / float64(n) / float64(req.BudgetMax)
			switch {
			case ratio < 0.7:
				out = append(out, "The listings found are well below your budget; you could look for better options.")
			case ratio > 0.95:
				out = append(out, "The listings found are close to your budget ceiling.")
			}
		}
	}

	switch {
	case len(scored) < fewResults:
		out = append(out, "Only a few results; consider relaxing some criteria slightly.")
	case len(scored) > manyResults:
		out = append(out, "Many suitable listings found; you can add more filters to narrow them down.")
	}
	return out
}

func matchQuality(pct float64) string {
	switch {
	case pct >= 90:
		return "Listing #1 is an excellent match for your needs."
	case pct >= 75:
		return "Listing #1 is a good choice."
	case pct >= 60:
		return "The listings found are a partial match; consider relaxing some criteria."
	default:
		return "No strong match was found; consider changing your criteria."
	}
}

// relaxationSuggestions advise which constraints to loosen after an empty search.
func relaxationSuggestions(req domain.Requirements, applied map[string]bool) []string {
	out := []string{}
	if applied[FilterDistrict] {
		out = append(out, "Drop the district constraint and search the whole city.")
	}
	if applied[FilterYearBuilt] {
		out = append(out, "Lower the minimum construction year.")
	}
	if applied[FilterDocumentType] {
		out = append(out, "Accept other document types.")
	}
	if applied[FilterMustHaveStorage] {
		out = append(out, "Drop the storage requirement.")
	}
	if req.BudgetMax > 0 {
		raised := raiseBy(req.BudgetMax, 5)
		out = append(out, fmt.Sprintf("Increase your budget to %s.", domain.FormatAmount(raised)))
	}
	return out
}
