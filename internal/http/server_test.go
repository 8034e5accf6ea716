package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/exchange"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/matching"
	"github.com/denisok6893-rgb/property-exchange-matching/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func intp(v int) *int { return &v }

func seed() []domain.Listing {
	return []domain.Listing{
		{ID: "t1", Title: "Tehran flat", Category: domain.PropertyApartment, DealType: domain.DealSale,
			Price: 900_000_000, Area: 100, City: "Tehran", Bedrooms: intp(2), HasParking: true},
		{ID: "t2", Title: "Tehran villa", Category: domain.PropertyVilla, DealType: domain.DealSale,
			Price: 2_000_000_000, Area: 300, City: "Tehran", Bedrooms: intp(4)},
		{ID: "g1", Title: "Gorgan swap", Category: domain.PropertyApartment, DealType: domain.DealSale,
			Price: 600_000_000, Area: 90, City: "Gorgan", OpenToExchange: true, ExchangePreferences: []string{"automobile"}},
	}
}

func newTestServer() *Server {
	engine := matching.NewEngine(matching.NewScorer(matching.DefaultWeights(), matching.DefaultCurrentYear))
	return NewServer(engine, exchange.NewService(exchange.DefaultSynonyms()), storage.NewMemoryStore(seed()))
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, path, nil)
	case string:
		r = httptest.NewRequest(method, path, strings.NewReader(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = httptest.NewRequest(method, path, bytes.NewReader(raw))
	}
	r.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body=%s)", err, w.Body.String())
	}
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	w := do(t, newTestServer().Routes(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()

	h := newTestServer().Routes()

	t.Run("facts applied on top of requirements", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/decide", DecideRequest{
			Requirements: domain.Requirements{Category: domain.PropertyApartment},
			Facts:        map[string]string{"city": "Tehran", "budget_max": "1,000,000,000"},
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
		}
		got := decode[domain.DecisionResult](t, w)
		if got.Status != domain.StatusSuccess || len(got.Listings) != 1 || got.Listings[0].ListingID != "t1" {
			t.Fatalf("unexpected decision: %+v", got)
		}
	})

	t.Run("city fallback", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/decide", DecideRequest{
			Facts: map[string]string{"city": "Shiraz", "budget_max": "700000000"},
		})
		got := decode[domain.DecisionResult](t, w)
		if got.Status != domain.StatusSuccess || !got.CityMismatch || got.FoundCity != "Gorgan" {
			t.Fatalf("fallback expected: %+v", got)
		}
	})

	t.Run("need more info", func(t *testing.T) {
		got := decode[domain.DecisionResult](t, do(t, h, http.MethodPost, "/decide", DecideRequest{}))
		if got.Status != domain.StatusNeedMoreInfo || len(got.MissingFields) != 1 || got.MissingFields[0] != "city" {
			t.Fatalf("unexpected: %+v", got)
		}
	})

	t.Run("bad requests", func(t *testing.T) {
		if w := do(t, h, http.MethodPost, "/decide", "{"); w.Code != http.StatusBadRequest {
			t.Fatalf("invalid JSON status=%d", w.Code)
		}
		w := do(t, h, http.MethodPost, "/decide", DecideRequest{Facts: map[string]string{"colour": "red"}})
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "colour") {
			t.Fatalf("unknown fact status=%d body=%s", w.Code, w.Body.String())
		}
	})
}

func TestRank_Limit(t *testing.T) {
	t.Parallel()

	h := newTestServer().Routes()

	got := decode[RankResponse](t, do(t, h, http.MethodPost, "/rank", RankRequest{
		Facts: map[string]string{"city": "Tehran"},
		Limit: 2,
	}))
	if len(got.Results) != 2 {
		t.Fatalf("results=%d want=2", len(got.Results))
	}
	if got.Results[0].MatchPercentage < got.Results[1].MatchPercentage {
		t.Fatalf("results not sorted: %+v", got.Results)
	}

	got = decode[RankResponse](t, do(t, h, http.MethodPost, "/rank?limit=1", RankRequest{}))
	if len(got.Results) != 1 {
		t.Fatalf("query limit ignored: %d", len(got.Results))
	}
}

func TestExchangeEndpoints(t *testing.T) {
	t.Parallel()

	h := newTestServer().Routes()

	matches := decode[ExchangeMatchesResponse](t, do(t, h, http.MethodPost, "/exchange/matches",
		ExchangeRequest{Item: "car", Value: 500_000_000}))
	if len(matches.Matches) != 1 {
		t.Fatalf("matches=%d want=1", len(matches.Matches))
	}
	m := matches.Matches[0]
	if m.Listing.ID != "g1" || m.MatchScore != 88 || m.TopUpPayment != 100_000_000 {
		t.Fatalf("unexpected match: %+v", m)
	}

	w := do(t, h, http.MethodPost, "/exchange/proposal", ExchangeRequest{Item: "car", Value: 500_000_000, ListingID: "g1"})
	if w.Code != http.StatusOK {
		t.Fatalf("proposal status=%d", w.Code)
	}
	p := decode[domain.ExchangeProposal](t, w)
	if p.PaidBy != domain.PaidByBuyer || p.AdditionalPayment != 100_000_000 {
		t.Fatalf("unexpected proposal: %+v", p)
	}

	if w := do(t, h, http.MethodPost, "/exchange/proposal", ExchangeRequest{Item: "car", ListingID: "nope"}); w.Code != http.StatusNotFound {
		t.Fatalf("missing listing status=%d want=404", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/exchange/proposal", ExchangeRequest{Item: "car"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing listing_id status=%d want=400", w.Code)
	}
}

func TestGETListings_FiltersAndSort(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, nil, storage.NewMemoryStore(nil))
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	post := func(l domain.Listing) {
		b, _ := json.Marshal(l)
		resp, err := http.Post(ts.URL+"/listings", "application/json", bytes.NewReader(b))
		if err != nil {
			t.Fatalf("POST /listings: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("POST /listings status=%d", resp.StatusCode)
		}
	}

	post(domain.Listing{Title: "A", City: "Valencia", Price: 320000, Area: 110, Bedrooms: intp(3)})
	post(domain.Listing{Title: "B", City: "valencia", District: "center", Price: 450000, Area: 140, Bedrooms: intp(4)})
	post(domain.Listing{Title: "C", City: "Madrid", Price: 500000, Area: 160, Bedrooms: intp(4)})

	resp, err := http.Get(ts.URL + "/listings?location=VALENCIA&min_price=400000&min_bedrooms=4&sort=price_desc&limit=20&offset=0")
	if err != nil {
		t.Fatalf("GET /listings: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /listings status=%d", resp.StatusCode)
	}

	var got ListingsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Total != 1 || len(got.Items) != 1 {
		t.Fatalf("total=%d items=%d want=1", got.Total, len(got.Items))
	}
	if got.Items[0].Title != "B" {
		t.Fatalf("first title=%q want=%q", got.Items[0].Title, "B")
	}
}

func TestListingsCRUD(t *testing.T) {
	t.Parallel()

	h := newTestServer().Routes()

	w := do(t, h, http.MethodPost, "/listings", domain.Listing{ID: "client-id", Title: "New", City: "Karaj", Price: 1, Area: 50})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	created := decode[domain.Listing](t, w)
	if created.ID == "" || created.ID == "client-id" {
		t.Fatalf("server must assign the id, got %q", created.ID)
	}

	if w := do(t, h, http.MethodGet, "/listings/"+created.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("get status=%d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/listings/"+created.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("delete status=%d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/listings/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d want=404", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/listings/"+created.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d want=404", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/listings", domain.Listing{Title: "no area"}); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed create status=%d want=400", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	h := newTestServer().Routes()
	do(t, h, http.MethodPost, "/decide", DecideRequest{Facts: map[string]string{"city": "Tehran"}})

	w := do(t, h, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`property_matching_decisions_total{status="success"} 1`,
		`property_matching_http_requests_total{method="POST",route="/decide",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output misses %q", want)
		}
	}
}

func TestExchangeEndpoints_RejectNegativeValue(t *testing.T) {
	t.Parallel()

	h := newTestServer().Routes()

	for _, path := range []string{"/exchange/matches", "/exchange/proposal"} {
		w := do(t, h, http.MethodPost, path, ExchangeRequest{Item: "car", Value: -1, ListingID: "g1"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status=%d want=400", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), "value must be >= 0") {
			t.Fatalf("%s: body=%s", path, w.Body.String())
		}
	}
}
