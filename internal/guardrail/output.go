package guardrail

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	errx "github.com/MobiAdvisor-core/server/internal/core/error"
)

const (
	PriceTolerance        = 5000
	MinPlausiblePrice     = 5000
	MaxPlausiblePrice     = 500000
	SpecPriceTolerance    = 1000
	SpecBatteryTolerance  = 100
	ClaimBatteryTolerance = 200
)

var (
	idRe     = regexp.MustCompile(`(?i)\bID:\s*(\d+)`)
	rupeeRe  = regexp.MustCompile(`₹\s?([\d,]+)`)
	amountRe = regexp.MustCompile(`(?i)(₹)?\s?(\d[\d,]*(?:\.\d+)?)\s*(k|lakh|lac)?\b`)
	// priceCueRe matches a budget word right before a bare number.
	priceCueRe = regexp.MustCompile(`(?i)\b(under|below|above|over|upto|within|around|budget|between|and|to|than)\s*$`)
	mahRe    = regexp.MustCompile(`(\d+)\s*mah`)
)

// ValidationError describes why an answer failed grounding.
type ValidationError struct {
	ErrorType       errx.Kind `json:"error_type"`
	Message         string    `json:"message"`
	OriginalQuery   string    `json:"original_query,omitempty"`
	SuggestedAction string    `json:"suggested_action,omitempty"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorType, e.Message)
}

// Lookup is the catalog access the output checks need.
type Lookup interface {
	ExistIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	GetByID(ctx context.Context, id int64) (*model.Phone, error)
}

// OutputGuard validates composed answers against the catalog.
type OutputGuard struct {
	catalog Lookup
}

func NewOutputGuard(cat Lookup) *OutputGuard {
	return &OutputGuard{catalog: cat}
}

type ValidateOptions struct {
	Query string
	// StatedAmounts are amounts the user typed; echoing them is allowed.
	StatedAmounts []int
}

// Validate checks message against the records it was composed from. A nil
// result means the answer is grounded.
func (g *OutputGuard) Validate(ctx context.Context, message string, phones []model.Phone, opts ValidateOptions) *ValidationError {
	if verr := g.checkIDs(ctx, message, phones, opts.Query); verr != nil {
		return verr
	}
	return checkPrices(message, phones, opts)
}

func (g *OutputGuard) checkIDs(ctx context.Context, message string, phones []model.Phone, query string) *ValidationError {
	source := make(map[int64]struct{}, len(phones))
	for _, p := range phones {
		source[p.ID] = struct{}{}
	}
	mentioned := ReferencedIDs(message)

	var outside []int64
	for _, id := range mentioned {
		if _, ok := source[id]; !ok {
			outside = append(outside, id)
		}
	}

	all := model.PhoneIDs(phones)
	for _, id := range mentioned {
		if !slices.Contains(all, id) {
			all = append(all, id)
		}
	}
	if len(all) == 0 {
		return nil
	}

	existing, err := g.catalog.ExistIDs(ctx, all)
	if err != nil {
		return &ValidationError{
			ErrorType:       errx.KindUpstreamUnavailable,
			Message:         fmt.Sprintf("could not verify phone ids: %v", err),
			OriginalQuery:   query,
			SuggestedAction: "Retry once the catalog is reachable",
		}
	}
	for _, id := range all {
		if _, ok := existing[id]; !ok {
			return &ValidationError{
				ErrorType:       errx.KindHallucination,
				Message:         fmt.Sprintf("Response references non-existent phone %d", id),
				OriginalQuery:   query,
				SuggestedAction: "Regenerate with valid phone IDs",
			}
		}
	}
	if len(outside) > 0 {
		return &ValidationError{
			ErrorType:       errx.KindHallucination,
			Message:         fmt.Sprintf("Response references phones outside the results: %v", outside),
			OriginalQuery:   query,
			SuggestedAction: "Only cite phones from the retrieved records",
		}
	}
	return nil
}

func checkPrices(message string, phones []model.Phone, opts ValidateOptions) *ValidationError {
	for _, m := range rupeeRe.FindAllStringSubmatch(message, -1) {
		raw := m[1]
		price, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			continue
		}
		if price < MinPlausiblePrice || price > MaxPlausiblePrice {
			return &ValidationError{
				ErrorType:       errx.KindHallucination,
				Message:         fmt.Sprintf("Price ₹%s is outside the plausible range", raw),
				OriginalQuery:   opts.Query,
				SuggestedAction: "Use actual prices from database",
			}
		}
		if slices.Contains(opts.StatedAmounts, price) {
			continue
		}
		if !nearAnyPrice(price, phones) {
			return &ValidationError{
				ErrorType:       errx.KindHallucination,
				Message:         fmt.Sprintf("Price ₹%s doesn't match any phones in response", raw),
				OriginalQuery:   opts.Query,
				SuggestedAction: "Use actual prices from database",
			}
		}
	}
	return nil
}

func nearAnyPrice(price int, phones []model.Phone) bool {
	for _, p := range phones {
		if abs(price-p.PriceINR) <= PriceTolerance {
			return true
		}
	}
	return false
}

// ReferencedIDs returns the distinct ids cited as "ID: n" in text, in order.
func ReferencedIDs(text string) []int64 {
	var ids []int64
	for _, m := range idRe.FindAllStringSubmatch(text, -1) {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || slices.Contains(ids, id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// StatedAmounts returns the money amounts the user gave, either in the query
// text ("under 20k", "₹30,000", "1.5 lakh") or through the price filters. A
// bare number counts only after a budget word and from 1,000 up, so the "15"
// in "iphone 15" is not an amount.
func StatedAmounts(query string, filters model.Filters) []int {
	var out []int
	add := func(v int) {
		if v > 0 && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	for _, loc := range amountRe.FindAllStringSubmatchIndex(query, -1) {
		num := query[loc[4]:loc[5]]
		f, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
		if err != nil {
			continue
		}
		rupee := loc[2] >= 0
		suffix := ""
		if loc[6] >= 0 {
			suffix = strings.ToLower(query[loc[6]:loc[7]])
		}
		switch suffix {
		case "k":
			f *= 1000
		case "lakh", "lac":
			f *= 100000
		case "":
			if !rupee && (f < 1000 || !priceCueRe.MatchString(query[:loc[0]])) {
				continue
			}
		}
		add(int(f))
	}
	add(filters.MinPrice)
	add(filters.MaxPrice)
	return out
}

// PhoneClaim is a structured statement about one phone.
type PhoneClaim struct {
	PhoneID    int64 `json:"phone_id"`
	PriceINR   *int  `json:"price_inr,omitempty"`
	BatteryMAH *int  `json:"battery_mah,omitempty"`
}

// VerifySpec checks a structured claim against the stored record.
func (g *OutputGuard) VerifySpec(ctx context.Context, claim PhoneClaim) *ValidationError {
	if claim.PhoneID <= 0 {
		return &ValidationError{ErrorType: errx.KindInvalidInput, Message: "Missing phone_id"}
	}
	p, err := g.catalog.GetByID(ctx, claim.PhoneID)
	if errors.Is(err, catalog.ErrNotFound) {
		return &ValidationError{
			ErrorType: errx.KindHallucination,
			Message:   fmt.Sprintf("Phone ID %d does not exist", claim.PhoneID),
		}
	}
	if err != nil {
		return &ValidationError{ErrorType: errx.KindUpstreamUnavailable, Message: err.Error()}
	}

	var mismatches []string
	if claim.PriceINR != nil && abs(*claim.PriceINR-p.PriceINR) > SpecPriceTolerance {
		mismatches = append(mismatches, fmt.Sprintf("Price mismatch: claimed %d, catalog has %d", *claim.PriceINR, p.PriceINR))
	}
	if claim.BatteryMAH != nil && abs(*claim.BatteryMAH-p.BatteryMAH) > SpecBatteryTolerance {
		mismatches = append(mismatches, fmt.Sprintf("Battery mismatch: claimed %d, catalog has %d", *claim.BatteryMAH, p.BatteryMAH))
	}
	if len(mismatches) > 0 {
		return &ValidationError{
			ErrorType:       errx.KindHallucination,
			Message:         strings.Join(mismatches, "; "),
			SuggestedAction: "Use the catalog values",
		}
	}
	return nil
}

// CheckClaim fact-checks a free-text claim about a phone. It returns false
// and a correction when the first price or mAh figure in the claim is off.
func (g *OutputGuard) CheckClaim(ctx context.Context, claim string, phoneID int64) (bool, string, error) {
	p, err := g.catalog.GetByID(ctx, phoneID)
	if errors.Is(err, catalog.ErrNotFound) {
		return false, fmt.Sprintf("Phone ID %d not found", phoneID), nil
	}
	if err != nil {
		return false, "", err
	}

	lower := strings.ToLower(claim)
	if strings.Contains(lower, "price") || strings.Contains(claim, "₹") {
		var raw string
		if m := rupeeRe.FindStringSubmatch(claim); m != nil {
			raw = m[1]
		} else if m := amountRe.FindStringSubmatch(claim); m != nil {
			raw = m[2]
		}
		if raw != "" {
			if claimed, err := strconv.Atoi(strings.ReplaceAll(raw, ",", "")); err == nil &&
				abs(claimed-p.PriceINR) > PriceTolerance {
				return false, "Actual price is ₹" + humanize.Comma(int64(p.PriceINR)), nil
			}
		}
	}
	if strings.Contains(lower, "battery") || strings.Contains(lower, "mah") {
		if m := mahRe.FindStringSubmatch(lower); m != nil {
			if claimed, err := strconv.Atoi(m[1]); err == nil && abs(claimed-p.BatteryMAH) > ClaimBatteryTolerance {
				return false, fmt.Sprintf("Actual battery is %dmAh", p.BatteryMAH), nil
			}
		}
	}
	return true, "", nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
