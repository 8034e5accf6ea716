// Package exchange ranks listings for buyers offering a non-cash asset
// (a car, gold, another property) instead of, or alongside, money.
package exchange

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

const (
	itemExact   = 100.0
	itemSynonym = 80.0
	itemToken   = 50.0

	itemWeight  = 0.6
	valueWeight = 0.4

	// mutualThreshold is the share of the listing price under which a value
	// gap is treated as an even swap.
	mutualThreshold = 0.1
)

// SynonymGroups maps a canonical asset class to the words that alias it.
type SynonymGroups map[string][]string

// DefaultSynonyms covers the asset classes seen in listings, in English and Persian.
func DefaultSynonyms() SynonymGroups {
	return SynonymGroups{
		"car":      {"car", "automobile", "vehicle", "ماشین", "خودرو", "اتومبیل"},
		"property": {"property", "apartment", "house", "ملک", "آپارتمان", "خانه"},
		"land":     {"land", "plot", "زمین"},
		"gold":     {"gold", "jewelry", "طلا", "جواهر"},
	}
}

// Service scores barter offers. It is stateless and safe for concurrent use.
type Service struct {
	groups [][]string
}

func NewService(synonyms SynonymGroups) *Service {
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([][]string, 0, len(keys))
	for _, k := range keys {
		words := make([]string, 0, len(synonyms[k])+1)
		words = append(words, normalize(k))
		for _, w := range synonyms[k] {
			if w = normalize(w); w != "" {
				words = append(words, w)
			}
		}
		groups = append(groups, words)
	}
	return &Service{groups: groups}
}

// FindMatches returns exchange-eligible listings that accept the offered item,
// best first. Listings that are not open to exchange, accept nothing similar,
// or have no price are left out.
func (s *Service) FindMatches(item string, value int64, listings []domain.Listing) []domain.ExchangeMatch {
	matches := []domain.ExchangeMatch{}
	if normalize(item) == "" {
		return matches
	}

	for _, l := range listings {
		if l.Validate() != nil || !l.OpenToExchange || len(l.ExchangePreferences) == 0 {
			continue
		}
		itemScore := s.ItemMatch(item, l.ExchangePreferences)
		if itemScore == 0 {
			continue
		}
		valueScore, ok := ValueMatch(value, l.Price)
		if !ok {
			continue
		}

		matches = append(matches, domain.ExchangeMatch{
			Listing:         l,
			MatchScore:      math.Round((itemScore*itemWeight+valueScore*valueWeight)*100) / 100,
			ItemMatch:       itemScore,
			ValueMatch:      valueScore,
			PriceDifference: abs(l.Price - value),
			TopUpPayment:    max(0, l.Price-value),
			AcceptedAssets:  l.ExchangePreferences,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchScore > matches[j].MatchScore })
	return matches
}

// ItemMatch rates how well the offered item fits the accepted categories:
// 100 for a direct match, 80 through a synonym group, 50 for a shared word.
// The first accepted category that matches directly or by synonym decides.
func (s *Service) ItemMatch(item string, accepted []string) float64 {
	offered := normalize(item)
	if offered == "" {
		return 0
	}

	keywords := []string{offered}
	for _, g := range s.groups {
		for _, w := range g {
			if strings.Contains(offered, w) {
				keywords = append(keywords, g...)
				break
			}
		}
	}

	for _, pref := range accepted {
		p := normalize(pref)
		if p == "" {
			continue
		}
		if strings.Contains(p, offered) || strings.Contains(offered, p) {
			return itemExact
		}
		for _, k := range keywords {
			if strings.Contains(p, k) {
				return itemSynonym
			}
		}
	}

	offeredWords := strings.Fields(offered)
	for _, pref := range accepted {
		for _, pw := range strings.Fields(normalize(pref)) {
			for _, ow := range offeredWords {
				if pw == ow {
					return itemToken
				}
			}
		}
	}
	return 0
}

// ValueMatch rates the offered value against the listing price. ok is false
// for a listing priced at zero.
func ValueMatch(value, price int64) (score float64, ok bool) {
	if price <= 0 {
		return 0, false
	}
	ratio := float64(value) / float64(price)
	switch {
	case ratio >= 0.8 && ratio <= 1.2:
		return 100, true
	case ratio >= 0.6 && ratio <= 1.4:
		return 80, true
	case ratio >= 0.4 && ratio <= 1.6:
		return 60, true
	case ratio >= 0.2 && ratio <= 1.8:
		return 40, true
	}
	return 20, true
}

// BuildProposal describes a swap of the offered item for one listing and who
// pays the difference.
func (s *Service) BuildProposal(item string, value int64, l domain.Listing) domain.ExchangeProposal {
	diff := l.Price - value
	p := domain.ExchangeProposal{
		ListingID:        l.ID,
		ListingTitle:     l.Title,
		ListingPrice:     l.Price,
		OfferedItem:      item,
		OfferedValue:     value,
		SignedDifference: diff,
		PriceDifference:  abs(diff),
	}

	switch {
	case float64(abs(diff)) < float64(l.Price)*mutualThreshold:
		p.Kind = domain.ExchangeMutual
		p.PaidBy = domain.PaidByNone
		p.Description = fmt.Sprintf("Even swap: your %s worth %s for this listing worth %s.",
			item, domain.FormatAmount(value), domain.FormatAmount(l.Price))
	case diff > 0:
		p.Kind = domain.ExchangeTopUp
		p.PaidBy = domain.PaidByBuyer
		p.AdditionalPayment = diff
		p.Description = fmt.Sprintf("You trade your %s worth %s and pay an extra %s.",
			item, domain.FormatAmount(value), domain.FormatAmount(diff))
	default:
		p.Kind = domain.ExchangeTopUp
		p.PaidBy = domain.PaidByOwner
		p.AdditionalPayment = -diff
		p.Description = fmt.Sprintf("You trade your %s worth %s and receive %s from the owner.",
			item, domain.FormatAmount(value), domain.FormatAmount(-diff))
	}
	return p
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
