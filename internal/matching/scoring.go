package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

// Flags reported in ScoredListing.Missing.
const (
	MissingBudget   = "budget unspecified"
	MissingArea     = "area unspecified"
	MissingCity     = "city unspecified"
	MissingDistrict = "district unspecified"
)

// Scorer computes weighted soft scores. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	weights     Weights
	currentYear int
}

func NewScorer(w Weights, currentYear int) *Scorer {
	if currentYear <= 0 {
		currentYear = DefaultCurrentYear
	}
	return &Scorer{weights: w, currentYear: currentYear}
}

func (s *Scorer) Weights() Weights { return s.weights }

// Score rates one listing against req along every dimension.
func (s *Scorer) Score(l domain.Listing, req domain.Requirements) domain.ScoredListing {
	breakdown := make(map[string]float64, len(dimensions))
	var missing []string

	price, flag := s.scorePrice(l, req)
	breakdown[DimPrice] = price
	missing = appendFlag(missing, flag)

	area, flag := s.scoreArea(l, req)
	breakdown[DimArea] = area
	missing = appendFlag(missing, flag)

	location, flags := s.scoreLocation(l, req)
	breakdown[DimLocation] = location
	missing = append(missing, flags...)

	breakdown[DimCategory] = s.scoreCategory(l, req)
	breakdown[DimBedrooms] = atLeast(s.weights.Bedrooms, l.Bedrooms, req.BedroomsMin)
	breakdown[DimAge] = s.scoreAge(l, req)
	breakdown[DimFloor] = atLeast(s.weights.Floor, l.Floor, req.MinFloor)
	breakdown[DimParking] = amenity(s.weights.Parking, req.MustHaveParking, l.HasParking)
	breakdown[DimElevator] = amenity(s.weights.Elevator, req.MustHaveElevator, l.HasElevator)
	breakdown[DimStorage] = amenity(s.weights.Storage, req.MustHaveStorage, l.HasStorage)
	breakdown[DimRenovated] = amenity(s.weights.Renovated, false, l.IsRenovated)

	var total float64
	for _, d := range dimensions {
		total += breakdown[d]
	}

	pct := 0.0
	if tw := s.weights.Total(); tw > 0 {
		pct = clamp(round2(total/tw*100), 0, 100)
	}

	return domain.ScoredListing{
		ListingID:       l.ID,
		TotalScore:      round2(total),
		Breakdown:       breakdown,
		MatchPercentage: pct,
		Missing:         missing,
	}
}

// Rank scores every well-formed listing and orders the results by total score,
// highest first. Equal scores keep their input order.
func (s *Scorer) Rank(listings []domain.Listing, req domain.Requirements) []domain.ScoredListing {
	out := make([]domain.ScoredListing, 0, len(listings))
	for _, l := range listings {
		if l.Validate() != nil {
			continue
		}
		out = append(out, s.Score(l, req))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	return out
}

func (s *Scorer) scorePrice(l domain.Listing, req domain.Requirements) (float64, string) {
	w := s.weights.Price
	price := float64(l.Price)
	lo, hi := float64(req.BudgetMin), float64(req.BudgetMax)

	switch {
	case req.BudgetMin <= 0 && req.BudgetMax <= 0:
		return 0, MissingBudget

	case req.BudgetMin <= 0:
		if price > hi {
			return 0, ""
		}
		// Cheaper is better.
		return w * (1 - price/hi*0.2), ""

	case req.BudgetMax <= 0:
		if price >= lo {
			return w, ""
		}
		return w * 0.5, ""
	}

	switch {
	case price < lo:
		ratio := price / lo
		if ratio < 0.5 {
			return 0, ""
		}
		return w * ratio * 0.4, ""
	case price > hi:
		return w * (hi / price) * 0.5, ""
	}
	mid := (lo + hi) / 2
	span := math.Max(hi-lo, 1)
	return w * (1 - math.Abs(price-mid)/span*0.2), ""
}

func (s *Scorer) scoreArea(l domain.Listing, req domain.Requirements) (float64, string) {
	w := s.weights.Area
	lo, hi := req.AreaMin, req.AreaMax

	switch {
	case lo <= 0 && hi <= 0:
		return w * 0.5, MissingArea
	case lo <= 0:
		if l.Area <= hi {
			return w, ""
		}
		return w * 0.3, ""
	case hi <= 0:
		if l.Area >= lo {
			return w, ""
		}
		return w * 0.3, ""
	case l.Area < lo:
		return w * 0.5, ""
	case l.Area > hi:
		return w * 0.3, ""
	}
	return w, ""
}

func (s *Scorer) scoreLocation(l domain.Listing, req domain.Requirements) (float64, []string) {
	w := s.weights.Location
	var missing []string
	var cityMatch, districtMatch bool

	if req.HasCity() {
		cityMatch = sameText(l.City, req.City)
	} else {
		missing = append(missing, MissingCity)
	}
	if req.HasDistrict() {
		districtMatch = sameText(l.District, req.District)
	} else {
		missing = append(missing, MissingDistrict)
	}

	switch {
	case cityMatch && districtMatch:
		return w, nil
	case cityMatch:
		return w * 0.7, missing
	case districtMatch:
		return w * 0.5, missing
	case len(missing) > 0:
		return w * 0.3, missing
	}
	return 0, nil
}

func (s *Scorer) scoreCategory(l domain.Listing, req domain.Requirements) float64 {
	w := s.weights.Category
	switch {
	case req.Category == "":
		return w * 0.5
	case l.Category == req.Category:
		return w
	}
	return 0
}

func (s *Scorer) scoreAge(l domain.Listing, req domain.Requirements) float64 {
	w := s.weights.Age
	age, ok := l.Age(s.currentYear)
	if req.MaxAge <= 0 || !ok {
		return w * 0.5
	}
	if age <= req.MaxAge {
		// 100% for a new building down to 70% at the limit.
		return w * (1 - float64(age)/float64(req.MaxAge)*0.3)
	}
	return w * 0.2
}

// atLeast scores a "minimum N" requirement against an optional listing attribute.
func atLeast(w float64, have *int, min int) float64 {
	if min <= 0 || have == nil {
		return w * 0.5
	}
	if *have >= min {
		return w
	}
	return w * 0.3
}

func amenity(w float64, mandatory, present bool) float64 {
	switch {
	case present:
		return w
	case mandatory:
		return 0
	}
	return w * 0.5
}

func appendFlag(flags []string, flag string) []string {
	if flag == "" {
		return flags
	}
	return append(flags, flag)
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
