package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownField = errors.New("unknown requirement field")
	ErrInvalidValue = errors.New("invalid requirement value")
)

// RequirementField binds one textual fact key to a typed Requirements field.
type RequirementField struct {
	Key string
	Set func(r *Requirements, raw string) error
}

// RequirementFields is the fixed table consulted by ApplyFact.
var RequirementFields = []RequirementField{
	{"budget_min", amountField(func(r *Requirements, v int64) { r.BudgetMin = v })},
	{"budget_max", amountField(func(r *Requirements, v int64) { r.BudgetMax = v })},
	{"area_min", countField(1, func(r *Requirements, v int) { r.AreaMin = v })},
	{"area_max", countField(1, func(r *Requirements, v int) { r.AreaMax = v })},
	{"category", enumField(propertyTypes, func(r *Requirements, v string) { r.Category = PropertyType(v) })},
	{"deal_type", enumField(dealTypes, func(r *Requirements, v string) { r.DealType = DealType(v) })},
	{"city", textField(func(r *Requirements, v string) { r.City = v })},
	{"district", textField(func(r *Requirements, v string) { r.District = v })},
	{"bedrooms_min", countField(0, func(r *Requirements, v int) { r.BedroomsMin = v })},
	{"year_built_min", countField(1, func(r *Requirements, v int) { r.YearBuiltMin = v })},
	{"max_age", countField(1, func(r *Requirements, v int) { r.MaxAge = v })},
	{"min_floor", countField(0, func(r *Requirements, v int) { r.MinFloor = v })},
	{"document_type", enumField(documentTypes, func(r *Requirements, v string) { r.DocumentType = DocumentType(v) })},
	{"must_have_parking", flagField(func(r *Requirements, v bool) { r.MustHaveParking = v })},
	{"must_have_elevator", flagField(func(r *Requirements, v bool) { r.MustHaveElevator = v })},
	{"must_have_storage", flagField(func(r *Requirements, v bool) { r.MustHaveStorage = v })},
	{"wants_exchange", flagField(func(r *Requirements, v bool) { r.WantsExchange = v })},
	{"exchange_item", textField(func(r *Requirements, v string) { r.ExchangeItem = v })},
	{"exchange_value", amountField(func(r *Requirements, v int64) { r.ExchangeValue = v })},
}

var (
	propertyTypes = []string{
		string(PropertyApartment), string(PropertyVilla), string(PropertyOffice),
		string(PropertyLand), string(PropertyStore),
	}
	dealTypes     = []string{string(DealSale), string(DealRent), string(DealExchange)}
	documentTypes = []string{
		string(DocumentSinglePage), string(DocumentCooperative),
		string(DocumentEndowment), string(DocumentLease),
	}
)

// ApplyFact parses raw and stores it in the field named by key. A later fact
// for the same key replaces the earlier value.
func (r *Requirements) ApplyFact(key, raw string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, f := range RequirementFields {
		if f.Key == key {
			if err := f.Set(r, raw); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, key)
}

// ApplyFacts applies facts in key order so the outcome does not depend on map iteration.
func (r *Requirements) ApplyFacts(facts map[string]string) error {
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := r.ApplyFact(k, facts[k]); err != nil {
			return err
		}
	}
	return nil
}

// FieldKeys lists the keys accepted by ApplyFact.
func FieldKeys() []string {
	out := make([]string, 0, len(RequirementFields))
	for _, f := range RequirementFields {
		out = append(out, f.Key)
	}
	return out
}

func amountField(set func(*Requirements, int64)) func(*Requirements, string) error {
	return func(r *Requirements, raw string) error {
		v, err := strconv.ParseInt(stripDigitSeparators(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not an amount", ErrInvalidValue, raw)
		}
		if v < 0 {
			return fmt.Errorf("%w: amount must be >= 0", ErrInvalidValue)
		}
		set(r, v)
		return nil
	}
}

func countField(min int, set func(*Requirements, int)) func(*Requirements, string) error {
	return func(r *Requirements, raw string) error {
		v, err := strconv.Atoi(stripDigitSeparators(raw))
		if err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, raw)
		}
		if v < min {
			return fmt.Errorf("%w: must be >= %d", ErrInvalidValue, min)
		}
		set(r, v)
		return nil
	}
}

func flagField(set func(*Requirements, bool)) func(*Requirements, string) error {
	return func(r *Requirements, raw string) error {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "1", "t", "true", "yes", "y":
			set(r, true)
		case "0", "f", "false", "no", "n":
			set(r, false)
		default:
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, raw)
		}
		return nil
	}
}

func textField(set func(*Requirements, string)) func(*Requirements, string) error {
	return func(r *Requirements, raw string) error {
		v := strings.TrimSpace(raw)
		if v == "" {
			return fmt.Errorf("%w: empty text", ErrInvalidValue)
		}
		set(r, v)
		return nil
	}
}

func enumField(allowed []string, set func(*Requirements, string)) func(*Requirements, string) error {
	return func(r *Requirements, raw string) error {
		v := strings.ToLower(strings.TrimSpace(raw))
		for _, a := range allowed {
			if a == v {
				set(r, v)
				return nil
			}
		}
		return fmt.Errorf("%w: %q not one of %s", ErrInvalidValue, raw, strings.Join(allowed, ", "))
	}
}

func stripDigitSeparators(s string) string {
	return strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(s))
}
