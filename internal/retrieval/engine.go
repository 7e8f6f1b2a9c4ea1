// Package retrieval selects the catalog records an answer is grounded on.
//
// Multi-model and multi-brand requests are answered by direct catalog
// lookups. Everything else walks a ladder of strategies (semantic, generated
// query, filter) and falls back to keyword search when every strategy errors.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/metrics"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	WarningDegraded = "AI service temporarily unavailable"

	StrategyMultiModel = "multi_model"
	StrategyMultiBrand = "multi_brand"
	StrategyKeyword    = "keyword"

	defaultLimit    = 5
	defaultPerBrand = 3
	defaultTopK     = 10
)

// Request is one retrieval call. Filters are the UI filters; the intent
// constraints are merged over them by the engine.
type Request struct {
	Intent  model.ParsedIntent
	Filters model.Filters
	Query   string
}

type Result struct {
	Phones   []model.Phone
	Strategy string
	Degraded bool
	Warning  string
}

// Strategy is one rung of the retrieval ladder. An empty result with a nil
// error lets the next rung try.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, req Request) ([]model.Phone, error)
}

// SemanticSearcher is the vector product search used by the semantic rung.
type SemanticSearcher interface {
	Available() bool
	SearchProducts(ctx context.Context, query string, filters model.Filters, topK int) ([]model.Phone, error)
}

type Engine struct {
	catalog    catalog.Catalog
	strategies []Strategy
	limit      int
	perBrand   int
}

// NewEngine wires the default ladder. searcher and chat may be nil; their
// rungs then report unavailable and the ladder moves on.
func NewEngine(cat catalog.Catalog, searcher SemanticSearcher, chat einomodel.BaseChatModel, cfg model.RetrievalConfig) *Engine {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	topK := cfg.SemanticTopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return NewEngineWithStrategies(cat, cfg,
		&Semantic{searcher: searcher, topK: topK, limit: limit},
		&GeneratedQuery{chat: chat, limit: limit},
		&Filter{catalog: cat, limit: limit},
	)
}

// NewEngineWithStrategies builds an engine over an explicit ladder.
func NewEngineWithStrategies(cat catalog.Catalog, cfg model.RetrievalConfig, strategies ...Strategy) *Engine {
	e := &Engine{catalog: cat, strategies: strategies, limit: cfg.Limit, perBrand: cfg.PerBrandLimit}
	if e.limit <= 0 {
		e.limit = defaultLimit
	}
	if e.perBrand <= 0 {
		e.perBrand = defaultPerBrand
	}
	return e
}

// Retrieve never fails. When nothing could be asked the result is flagged
// degraded with WarningDegraded.
func (e *Engine) Retrieve(ctx context.Context, req Request) Result {
	req.Filters = MergeFilters(req.Filters, req.Intent)
	in := req.Intent

	switch {
	case in.ComparisonType == model.ComparisonMulti && len(in.Entities.Model) >= 2:
		phones, err := e.multiModel(ctx, in)
		if err != nil {
			logx.Warn().Err(err).Str("stage", StrategyMultiModel).Msg("retrieval failed, using keyword search")
			metrics.Fallback(StrategyMultiModel)
			return e.keyword(ctx, req.Query)
		}
		return Result{Phones: truncate(phones, e.limit), Strategy: StrategyMultiModel}

	case len(in.Entities.Company) >= 2:
		phones, err := e.multiBrand(ctx, in.Entities.Company, req.Filters)
		if err != nil {
			logx.Warn().Err(err).Str("stage", StrategyMultiBrand).Msg("retrieval failed, using keyword search")
			metrics.Fallback(StrategyMultiBrand)
			return e.keyword(ctx, req.Query)
		}
		// perBrand already bounds each brand; every named brand keeps its share
		return Result{Phones: phones, Strategy: StrategyMultiBrand}
	}

	for i, s := range e.strategies {
		phones, err := attempt(ctx, s, req)
		if err != nil {
			logx.Warn().Err(err).Str("stage", s.Name()).Msg("retrieval strategy failed")
			metrics.Fallback(s.Name())
			continue
		}
		// an empty answer from the last rung is a real "nothing matches"
		if len(phones) > 0 || i == len(e.strategies)-1 {
			return Result{Phones: truncate(phones, e.limit), Strategy: s.Name()}
		}
	}
	return e.keyword(ctx, req.Query)
}

func attempt(ctx context.Context, s Strategy, req Request) (phones []model.Phone, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", s.Name(), r)
		}
	}()
	return s.Attempt(ctx, req)
}

// KeywordSearch matches query tokens of three or more characters against
// company and model names, best rated first.
func (e *Engine) KeywordSearch(ctx context.Context, query string) ([]model.Phone, error) {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?;:'\"()")
		if len(w) >= 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return []model.Phone{}, nil
	}
	phones, err := e.catalog.Find(ctx, catalog.Query{
		Keywords: words,
		OrderBy:  []catalog.Order{catalog.Desc(catalog.FieldRating)},
		Limit:    e.limit,
	})
	if err != nil {
		return nil, err
	}
	if phones == nil {
		phones = []model.Phone{}
	}
	return phones, nil
}

func (e *Engine) keyword(ctx context.Context, query string) Result {
	res := Result{Strategy: StrategyKeyword, Degraded: true, Warning: WarningDegraded, Phones: []model.Phone{}}
	phones, err := e.KeywordSearch(ctx, query)
	if err != nil {
		logx.Error().Err(err).Str("stage", StrategyKeyword).Msg("keyword fallback failed")
		metrics.Fallback(StrategyKeyword)
		return res
	}
	res.Phones = phones
	return res
}

func truncate(phones []model.Phone, limit int) []model.Phone {
	if phones == nil {
		return []model.Phone{}
	}
	if limit > 0 && len(phones) > limit {
		return phones[:limit]
	}
	return phones
}

// MergeFilters overlays intent constraints on UI filters. The first named
// company only fills an empty UI company.
func MergeFilters(ui model.Filters, in model.ParsedIntent) model.Filters {
	out := ui
	c := in.Constraints
	if c.MinPrice != nil {
		out.MinPrice = int(*c.MinPrice)
	}
	if c.MaxPrice != nil {
		out.MaxPrice = int(*c.MaxPrice)
	}
	if c.MinRAM != nil {
		out.MinRAM = *c.MinRAM
	}
	if c.MinBattery != nil {
		out.MinBattery = int(*c.MinBattery)
	}
	if c.MinCamera != nil {
		out.MinCamera = *c.MinCamera
	}
	if out.Company == "" && len(in.Entities.Company) > 0 {
		out.Company = in.Entities.Company[0]
	}
	return out
}
