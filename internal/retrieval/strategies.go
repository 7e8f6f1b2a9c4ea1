package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/MobiAdvisor-core/server/internal/agent/graph/parsers"
	"github.com/MobiAdvisor-core/server/internal/agent/graph/prompts"
	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	StrategySemantic       = "semantic"
	StrategyGeneratedQuery = "generated_query"
	StrategyFilter         = "filter"
)

var (
	ErrSemanticUnavailable = errors.New("semantic search not configured")
	ErrNoQuery             = errors.New("empty query")
)

// Semantic asks the vector index for records similar to the raw utterance,
// narrowed by the merged filters.
type Semantic struct {
	searcher SemanticSearcher
	topK     int
	limit    int
}

func NewSemantic(searcher SemanticSearcher, topK, limit int) *Semantic {
	return &Semantic{searcher: searcher, topK: topK, limit: limit}
}

func (s *Semantic) Name() string { return StrategySemantic }

func (s *Semantic) Attempt(ctx context.Context, req Request) ([]model.Phone, error) {
	if s.searcher == nil || !s.searcher.Available() {
		return nil, ErrSemanticUnavailable
	}
	if req.Query == "" {
		return nil, ErrNoQuery
	}
	phones, err := s.searcher.SearchProducts(ctx, req.Query, req.Filters, s.topK)
	if err != nil {
		return nil, err
	}
	if storage := req.Intent.Constraints.MinStorage; storage != nil {
		kept := phones[:0]
		for _, p := range phones {
			if float64(p.MemoryGB) >= *storage {
				kept = append(kept, p)
			}
		}
		phones = kept
	}
	return truncate(phones, s.limit), nil
}

// GeneratedQuery has the model write SQL for the request. The statement is
// validated and logged for review but never executed, so the rung always
// yields nothing and the ladder continues.
type GeneratedQuery struct {
	chat  einomodel.BaseChatModel
	limit int
}

func NewGeneratedQuery(chat einomodel.BaseChatModel, limit int) *GeneratedQuery {
	return &GeneratedQuery{chat: chat, limit: limit}
}

func (g *GeneratedQuery) Name() string { return StrategyGeneratedQuery }

func (g *GeneratedQuery) Attempt(ctx context.Context, req Request) ([]model.Phone, error) {
	if g.chat == nil {
		return nil, nil
	}
	payload, err := json.Marshal(struct {
		Intent  model.ParsedIntent `json:"intent"`
		Filters model.Filters      `json:"filters"`
	}{req.Intent, req.Filters})
	if err != nil {
		return nil, fmt.Errorf("marshal intent: %w", err)
	}
	prompt, err := prompts.RenderNL2SQL(ctx, string(payload), g.limit)
	if err != nil {
		return nil, err
	}
	reply, err := g.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(prompts.SQLSystem),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return nil, fmt.Errorf("generate sql: %w", err)
	}
	if reply == nil {
		return nil, fmt.Errorf("generate sql: empty reply")
	}

	sql, err := ValidateSelect(parsers.StripFences(reply.Content))
	if err != nil {
		return nil, err
	}
	logx.Debug().Str("sql", sql).Msg("generated query accepted for review")
	return nil, nil
}

// Filter runs a plain catalog find over the merged filters, ordered by the
// request's priority features.
type Filter struct {
	catalog catalog.Catalog
	limit   int
}

func NewFilter(cat catalog.Catalog, limit int) *Filter {
	return &Filter{catalog: cat, limit: limit}
}

func (f *Filter) Name() string { return StrategyFilter }

func (f *Filter) Attempt(ctx context.Context, req Request) ([]model.Phone, error) {
	q := catalog.FromFilters(req.Filters)
	if storage := req.Intent.Constraints.MinStorage; storage != nil {
		q.MinStorage = int(*storage)
	}
	q.OrderBy = PriorityOrder(req.Intent)
	q.Limit = f.limit
	phones, err := f.catalog.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	if phones == nil {
		phones = []model.Phone{}
	}
	return phones, nil
}

// PriorityOrder maps priority features to catalog ordering.
func PriorityOrder(in model.ParsedIntent) []catalog.Order {
	switch {
	case in.HasPriority("camera"):
		return []catalog.Order{catalog.Desc(catalog.FieldBackCamera), catalog.Desc(catalog.FieldRating)}
	case in.HasPriority("battery"):
		return []catalog.Order{catalog.Desc(catalog.FieldBattery), catalog.Desc(catalog.FieldRating)}
	case in.HasPriority("performance", "gaming"):
		return []catalog.Order{
			catalog.Desc(catalog.FieldRAM),
			catalog.Desc(catalog.FieldPerformanceRating),
			catalog.Desc(catalog.FieldRating),
		}
	}
	return []catalog.Order{catalog.Desc(catalog.FieldRating)}
}
