package matching

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

const fallbackCityLabel = "other cities"

// Engine turns a listing collection and a Requirements value into a
// DecisionResult. It keeps no state between calls.
type Engine struct {
	scorer *Scorer
	logger *zap.Logger
}

type Option func(*Engine)

// WithLogger traces filter steps at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(scorer *Scorer, opts ...Option) *Engine {
	e := &Engine{scorer: scorer, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Scorer() *Scorer { return e.scorer }

// Rank is the batch ranking entry point of the scoring system.
func (e *Engine) Rank(listings []domain.Listing, req domain.Requirements) []domain.ScoredListing {
	return e.scorer.Rank(listings, req)
}

// Decide filters, scores and packages listings for req. It never fails:
// missing data degrades into weaker scores, suggestions, or a
// need_more_info / no_results status.
func (e *Engine) Decide(listings []domain.Listing, req domain.Requirements) domain.DecisionResult {
	if missing := missingCritical(req); len(missing) > 0 {
		return domain.DecisionResult{
			Status:          domain.StatusNeedMoreInfo,
			Listings:        []domain.ScoredListing{},
			Recommendations: []string{},
			MissingFields:   missing,
		}
	}

	valid := e.wellFormed(listings)
	filtered, applied, steps := applyHardFilters(valid, req)
	for _, st := range steps {
		e.logger.Debug("hard filter",
			zap.String("name", st.name),
			zap.Int("initial", st.initial),
			zap.Int("dropped", st.dropped),
			zap.Int("left", st.left),
		)
	}

	if len(filtered) == 0 {
		if applied[FilterCity] {
			if res, ok := e.cityFallback(listings, valid, req, applied); ok {
				return res
			}
		}
		return domain.DecisionResult{
			Status:   domain.StatusNoResults,
			Listings: []domain.ScoredListing{},
			Summary: domain.DecisionSummary{
				TotalChecked:   len(listings),
				FiltersApplied: applied,
				FilterStats:    statsFromSteps(steps),
				Reason:         "no listing matched your mandatory filters",
			},
			Recommendations: relaxationSuggestions(req, applied),
			FiltersApplied:  applied,
		}
	}

	scored := e.scorer.Rank(filtered, req)
	summary := summarize(len(listings), len(filtered), scored)
	summary.FiltersApplied = applied
	summary.FilterStats = statsFromSteps(steps)

	return domain.DecisionResult{
		Status:          domain.StatusSuccess,
		Listings:        scored,
		Summary:         summary,
		Recommendations: recommendations(scored, indexByID(filtered), req),
		FiltersApplied:  applied,
	}
}

// cityFallback repeats the search on a copy of req without the city
// constraint. ok is false when the broader search finds nothing either.
func (e *Engine) cityFallback(all, valid []domain.Listing, req domain.Requirements, applied map[string]bool) (domain.DecisionResult, bool) {
	relaxed := req.WithoutCity()
	global, _, _ := applyHardFilters(valid, relaxed)
	if len(global) == 0 {
		return domain.DecisionResult{}, false
	}

	scored := e.scorer.Rank(global, relaxed)
	found := fallbackCityLabel
	if len(scored) > 0 {
		if l, ok := indexByID(global)[scored[0].ListingID]; ok && l.City != "" {
			found = strings.TrimSpace(l.City)
		}
	}

	e.logger.Info("no listings in requested city, falling back to other cities",
		zap.String("city", req.City),
		zap.String("found_city", found),
		zap.Int("found", len(global)),
	)

	summary := summarize(len(all), len(global), scored)
	summary.FiltersApplied = applied
	summary.IsGlobalFallback = true
	summary.Reason = fmt.Sprintf("nothing found in %s, but %d listing(s) found in %s", req.City, len(global), found)

	return domain.DecisionResult{
		Status:   domain.StatusSuccess,
		Listings: scored,
		Summary:  summary,
		Recommendations: []string{
			fmt.Sprintf("No listing in %s matches these criteria, but these listings in %s fit your requirements.", req.City, found),
		},
		FiltersApplied: applied,
		CityMismatch:   true,
		OriginalCity:   req.City,
		FoundCity:      found,
	}, true
}

func (e *Engine) wellFormed(listings []domain.Listing) []domain.Listing {
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if err := l.Validate(); err != nil {
			e.logger.Debug("skipping malformed listing", zap.Error(err))
			continue
		}
		out = append(out, l)
	}
	return out
}

// missingCritical requires at least a geographic or transactional anchor.
func missingCritical(req domain.Requirements) []string {
	if !req.HasCity() && !req.HasDistrict() && req.DealType == "" {
		return []string{"city"}
	}
	return nil
}

func summarize(total, afterFiltering int, scored []domain.ScoredListing) domain.DecisionSummary {
	s := domain.DecisionSummary{
		TotalChecked:   total,
		AfterFiltering: afterFiltering,
		Scored:         len(scored),
	}
	if len(scored) == 0 {
		return s
	}
	var sum float64
	for _, sc := range scored {
		sum += sc.MatchPercentage
	}
	s.BestMatch = scored[0].MatchPercentage
	s.WorstMatch = scored[len(scored)-1].MatchPercentage
	s.AverageMatch = round2(sum / float64(len(scored)))
	return s
}

func indexByID(listings []domain.Listing) map[string]domain.Listing {
	idx := make(map[string]domain.Listing, len(listings))
	for _, l := range listings {
		idx[l.ID] = l
	}
	return idx
}
