package resolver

import (
	"context"
	"slices"
	"strings"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/vector"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

type Kind = vector.EntityKind

const (
	KindCompany = vector.EntityCompany
	KindModel   = vector.EntityModel
)

const (
	// AcceptThreshold is the minimum score for replacing a term.
	AcceptThreshold = 0.7

	brandCandidateThreshold = 0.6
	modelCandidateThreshold = 0.5
	maxCandidates           = 5
	similarTopK             = 3
)

// SimilarFinder looks up entity names by embedding similarity.
type SimilarFinder interface {
	FindSimilar(ctx context.Context, term string, kind vector.EntityKind, topK int) ([]vector.EntityMatch, error)
}

// ValueSource lists the canonical names known to the catalog.
type ValueSource interface {
	DistinctValues(ctx context.Context, f catalog.Field) ([]string, error)
}

// Resolver maps misspelled or shorthand brand and model names to catalog names.
type Resolver struct {
	values  ValueSource
	similar SimilarFinder
}

// New builds a resolver. similar may be nil when no vector index is available.
func New(values ValueSource, similar SimilarFinder) *Resolver {
	return &Resolver{values: values, similar: similar}
}

// Resolve returns the canonical name for term, or term itself when nothing
// matches confidently. It never fails.
func (r *Resolver) Resolve(ctx context.Context, term string, kind Kind) string {
	t := strings.TrimSpace(term)
	if t == "" {
		return term
	}

	if v, ok := lookupAlias(t, kind); ok {
		return v
	}

	if r.similar != nil {
		matches, err := r.similar.FindSimilar(ctx, t, kind, similarTopK)
		if err == nil {
			if len(matches) > 0 && matches[0].Score >= AcceptThreshold {
				return matches[0].Value
			}
			return term
		}
		logx.Debug().Err(err).Str("term", t).Str("kind", string(kind)).Msg("embedding lookup unavailable, using string similarity")
	}

	cands := r.Candidates(ctx, t, kind)
	if len(cands) > 0 && cands[0].Score >= AcceptThreshold {
		return cands[0].Value
	}
	return term
}

// Candidates ranks catalog names by string similarity to term. Brands need a
// score of 0.6 and models 0.5 to be listed.
func (r *Resolver) Candidates(ctx context.Context, term string, kind Kind) []vector.EntityMatch {
	if r.values == nil {
		return nil
	}
	field, threshold := catalog.FieldCompany, brandCandidateThreshold
	if kind == KindModel {
		field, threshold = catalog.FieldModel, modelCandidateThreshold
	}

	values, err := r.values.DistinctValues(ctx, field)
	if err != nil {
		logx.Warn().Err(err).Str("kind", string(kind)).Msg("could not load names for similarity match")
		return nil
	}

	var out []vector.EntityMatch
	for _, v := range values {
		if s := Similarity(term, v); s >= threshold {
			out = append(out, vector.EntityMatch{Value: v, Score: s})
		}
	}
	slices.SortStableFunc(out, func(a, b vector.EntityMatch) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

// CorrectIntent resolves every brand and model entity of the intent.
func (r *Resolver) CorrectIntent(ctx context.Context, in model.ParsedIntent) model.ParsedIntent {
	out := in
	out.Entities.Company = r.resolveAll(ctx, in.Entities.Company, KindCompany)
	out.Entities.Model = r.resolveAll(ctx, in.Entities.Model, KindModel)
	return out
}

func (r *Resolver) resolveAll(ctx context.Context, terms []string, kind Kind) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		v := r.Resolve(ctx, t, kind)
		if v != t {
			logx.Debug().Str("from", t).Str("to", v).Str("kind", string(kind)).Msg("entity corrected")
		}
		out = append(out, v)
	}
	return out
}

// Similarity scores two names: 1.0 when equal, 0.8 when one contains the
// other, otherwise the Jaccard similarity of their character sets.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	sa := make(map[rune]struct{})
	for _, r := range a {
		sa[r] = struct{}{}
	}
	sb := make(map[rune]struct{})
	for _, r := range b {
		sb[r] = struct{}{}
	}
	inter := 0
	for r := range sa {
		if _, ok := sb[r]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
