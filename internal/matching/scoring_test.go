package matching

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

func intp(v int) *int { return &v }

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func newTestScorer() *Scorer { return NewScorer(DefaultWeights(), 1403) }

func TestDefaultWeightsTotal(t *testing.T) {
	t.Parallel()

	if got := DefaultWeights().Total(); got != 100 {
		t.Fatalf("total=%v want=100", got)
	}
}

func TestScore_EmptyRequirements(t *testing.T) {
	t.Parallel()

	l := domain.Listing{ID: "a", Price: 100, Area: 50, City: "Tehran", District: "Vanak"}
	got := newTestScorer().Score(l, domain.Requirements{})

	if !almostEqual(got.TotalScore, 32) {
		t.Fatalf("total=%v want=32 (breakdown %v)", got.TotalScore, got.Breakdown)
	}
	if got.MatchPercentage != 32 {
		t.Fatalf("pct=%v want=32", got.MatchPercentage)
	}
	want := []string{MissingBudget, MissingArea, MissingCity, MissingDistrict}
	if !reflect.DeepEqual(got.Missing, want) {
		t.Fatalf("missing=%v want=%v", got.Missing, want)
	}
}

func TestScore_PerfectMatch(t *testing.T) {
	t.Parallel()

	l := domain.Listing{
		ID: "p", Category: domain.PropertyApartment, Price: 150, Area: 100,
		City: "Tehran", District: "Vanak",
		Bedrooms: intp(3), YearBuilt: intp(1403), Floor: intp(2),
		HasParking: true, HasElevator: true, HasStorage: true, IsRenovated: true,
	}
	req := domain.Requirements{
		BudgetMin: 100, BudgetMax: 200, AreaMin: 80, AreaMax: 120,
		City: "tehran ", District: "VANAK", Category: domain.PropertyApartment,
		BedroomsMin: 2, MaxAge: 10, MinFloor: 1,
		MustHaveParking: true, MustHaveElevator: true, MustHaveStorage: true,
	}

	got := newTestScorer().Score(l, req)
	if got.TotalScore != 100 || got.MatchPercentage != 100 {
		t.Fatalf("total=%v pct=%v breakdown=%v", got.TotalScore, got.MatchPercentage, got.Breakdown)
	}
	if len(got.Missing) != 0 {
		t.Fatalf("unexpected missing flags: %v", got.Missing)
	}
}

func TestScorePrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		min, max int64
		price    int64
		want     float64
	}{
		{name: "max only, cheaper is better", max: 1000, price: 500, want: 27},
		{name: "max only, over max", max: 1000, price: 1050, want: 0},
		{name: "min only, satisfied", min: 1000, price: 1000, want: 30},
		{name: "min only, below", min: 1000, price: 900, want: 15},
		{name: "range midpoint", min: 1000, max: 2000, price: 1500, want: 30},
		{name: "range edge", min: 1000, max: 2000, price: 1000, want: 27},
		{name: "just below range", min: 1000, max: 2000, price: 600, want: 7.2},
		{name: "far below range", min: 1000, max: 2000, price: 400, want: 0},
		{name: "above range", min: 1000, max: 2000, price: 4000, want: 7.5},
	}

	s := newTestScorer()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, flag := s.scorePrice(domain.Listing{Price: tt.price}, domain.Requirements{BudgetMin: tt.min, BudgetMax: tt.max})
			if !almostEqual(got, tt.want) {
				t.Fatalf("score=%v want=%v", got, tt.want)
			}
			if flag != "" {
				t.Fatalf("unexpected flag %q", flag)
			}
		})
	}
}

func TestScoreArea(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		min, max int
		area     int
		want     float64
	}{
		{name: "max only, within", max: 100, area: 90, want: 20},
		{name: "max only, above", max: 100, area: 110, want: 6},
		{name: "min only, below", min: 100, area: 90, want: 6},
		{name: "range, within", min: 80, max: 120, area: 120, want: 20},
		{name: "range, below", min: 80, max: 120, area: 70, want: 10},
		{name: "range, above", min: 80, max: 120, area: 130, want: 6},
	}

	s := newTestScorer()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, _ := s.scoreArea(domain.Listing{Area: tt.area}, domain.Requirements{AreaMin: tt.min, AreaMax: tt.max})
			if !almostEqual(got, tt.want) {
				t.Fatalf("score=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestScoreLocation(t *testing.T) {
	t.Parallel()

	l := domain.Listing{City: "Tehran", District: "Vanak"}
	tests := []struct {
		name        string
		req         domain.Requirements
		want        float64
		wantMissing []string
	}{
		{name: "city and district", req: domain.Requirements{City: "Tehran", District: "vanak"}, want: 15},
		{name: "city only match", req: domain.Requirements{City: "Tehran", District: "Tajrish"}, want: 10.5},
		{name: "city match, district unspecified", req: domain.Requirements{City: "Tehran"}, want: 10.5, wantMissing: []string{MissingDistrict}},
		{name: "district only match", req: domain.Requirements{City: "Karaj", District: "Vanak"}, want: 7.5},
		{name: "no match, both specified", req: domain.Requirements{City: "Karaj", District: "Tajrish"}, want: 0},
		{name: "no match, city unspecified", req: domain.Requirements{District: "Tajrish"}, want: 4.5, wantMissing: []string{MissingCity}},
		{name: "both unspecified", req: domain.Requirements{}, want: 4.5, wantMissing: []string{MissingCity, MissingDistrict}},
	}

	s := newTestScorer()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, missing := s.scoreLocation(l, tt.req)
			if !almostEqual(got, tt.want) {
				t.Fatalf("score=%v want=%v", got, tt.want)
			}
			if len(missing) != len(tt.wantMissing) || (len(missing) > 0 && !reflect.DeepEqual(missing, tt.wantMissing)) {
				t.Fatalf("missing=%v want=%v", missing, tt.wantMissing)
			}
		})
	}
}

func TestScore_AttributeDimensions(t *testing.T) {
	t.Parallel()

	s := newTestScorer()

	if got := s.scoreCategory(domain.Listing{Category: domain.PropertyVilla}, domain.Requirements{Category: domain.PropertyApartment}); got != 0 {
		t.Fatalf("category mismatch=%v want 0", got)
	}
	if got := atLeast(10, intp(1), 2); !almostEqual(got, 3) {
		t.Fatalf("bedrooms below minimum=%v want 3", got)
	}
	if got := atLeast(10, nil, 2); got != 5 {
		t.Fatalf("unknown bedrooms=%v want 5", got)
	}

	atLimit := s.scoreAge(domain.Listing{YearBuilt: intp(1393)}, domain.Requirements{MaxAge: 10})
	if !almostEqual(atLimit, 3.5) {
		t.Fatalf("age at limit=%v want 3.5", atLimit)
	}
	tooOld := s.scoreAge(domain.Listing{YearBuilt: intp(1392)}, domain.Requirements{MaxAge: 10})
	if !almostEqual(tooOld, 1) {
		t.Fatalf("age over limit=%v want 1", tooOld)
	}

	if got := amenity(3, true, false); got != 0 {
		t.Fatalf("mandatory amenity missing=%v want 0", got)
	}
	if got := amenity(3, false, true); got != 3 {
		t.Fatalf("amenity present=%v want 3", got)
	}
	if got := amenity(3, false, false); got != 1.5 {
		t.Fatalf("amenity absent=%v want 1.5", got)
	}
}

func TestScore_ZeroWeights(t *testing.T) {
	t.Parallel()

	s := NewScorer(Weights{}, 0)
	got := s.Score(domain.Listing{ID: "z", Area: 10}, domain.Requirements{City: "X"})
	if got.TotalScore != 0 || got.MatchPercentage != 0 {
		t.Fatalf("total=%v pct=%v want zeros", got.TotalScore, got.MatchPercentage)
	}
}

func TestRank_OrderAndDeterminism(t *testing.T) {
	t.Parallel()

	listings := []domain.Listing{
		{ID: "cheap", Price: 100, Area: 60, City: "Tehran"},
		{ID: "mid", Price: 500, Area: 90, City: "Tehran", District: "Vanak"},
		{ID: "twin-a", Price: 300, Area: 70, City: "Karaj"},
		{ID: "twin-b", Price: 300, Area: 70, City: "Karaj"},
		{ID: "broken", Price: 300, Area: 0},
	}
	req := domain.Requirements{City: "Tehran", District: "Vanak", BudgetMin: 200, BudgetMax: 800}

	s := newTestScorer()
	first := s.Rank(listings, req)
	second := s.Rank(listings, req)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("rank is not deterministic")
	}
	if len(first) != 4 {
		t.Fatalf("ranked=%d want=4 (malformed listing excluded)", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i].TotalScore > first[i-1].TotalScore {
			t.Fatalf("scores not descending at %d: %v > %v", i, first[i].TotalScore, first[i-1].TotalScore)
		}
	}
	if first[0].ListingID != "mid" {
		t.Fatalf("best=%q want=mid", first[0].ListingID)
	}

	pos := map[string]int{}
	for i, sc := range first {
		pos[sc.ListingID] = i
	}
	if pos["twin-a"] > pos["twin-b"] {
		t.Fatalf("equal scores must keep input order: %v", pos)
	}
}

func TestLoadWeightsFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")
	if err := os.WriteFile(path, []byte("price: 40\nrenovated: 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	w, err := LoadWeightsFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if w.Price != 40 || w.Renovated != 0 || w.Area != 20 {
		t.Fatalf("unexpected weights: %+v", w)
	}

	if _, err := LoadWeightsFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"area": -1}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err = LoadWeightsFromFile(bad)
	if err == nil {
		t.Fatalf("expected error for negative weight")
	}
	if w != DefaultWeights() {
		t.Fatalf("defaults expected on error, got %+v", w)
	}
}
