package vector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

// BuildResult summarises an index build.
type BuildResult struct {
	Indexed  int `json:"indexed"`
	Errors   int `json:"errors"`
	Total    int `json:"total"`
	Entities int `json:"entities"`
}

// Indexer embeds the whole catalog into the product and entity indexes.
type Indexer struct {
	embedder    Embedder
	index       Index
	catalog     catalog.Catalog
	concurrency int
}

func NewIndexer(embedder Embedder, index Index, cat catalog.Catalog, concurrency int) *Indexer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Indexer{embedder: embedder, index: index, catalog: cat, concurrency: concurrency}
}

// Build re-embeds every catalog record and every distinct brand and model
// name. Individual embedding failures are counted, not fatal.
func (ix *Indexer) Build(ctx context.Context) (*BuildResult, error) {
	if ix.embedder == nil || ix.index == nil {
		return nil, ErrUnavailable
	}
	start := time.Now()

	if err := ix.index.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	phones, err := ix.catalog.Find(ctx, catalog.Query{OrderBy: []catalog.Order{catalog.Asc(catalog.FieldID)}})
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	result := &BuildResult{Total: len(phones)}
	docs, failed := ix.embedProducts(ctx, phones)
	result.Errors += failed

	stored, err := ix.index.UpsertProducts(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("upsert products: %w", err)
	}
	result.Indexed = stored
	result.Errors += len(docs) - stored

	entities, err := ix.buildEntities(ctx, phones)
	if err != nil {
		return nil, err
	}
	result.Entities = entities

	logx.Info().
		Int("indexed", result.Indexed).
		Int("errors", result.Errors).
		Int("entities", result.Entities).
		Dur("took", time.Since(start)).
		Msg("vector index build finished")
	return result, nil
}

func (ix *Indexer) embedProducts(ctx context.Context, phones []model.Phone) ([]ProductDoc, int) {
	docs := make([]*ProductDoc, len(phones))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for i, p := range phones {
		g.Go(func() error {
			text := ProductDescription(p)
			vec, err := ix.embedder.Embed(gctx, text)
			if err != nil {
				failed.Add(1)
				logx.Warn().Err(err).Int64("phone_id", p.ID).Msg("embedding failed")
				return nil
			}
			docs[i] = &ProductDoc{
				PhoneID: p.ID,
				Company: p.CompanyName,
				Model:   p.ModelName,
				Price:   p.PriceINR,
				Text:    text,
				Vector:  vec,
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]ProductDoc, 0, len(phones))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	return out, int(failed.Load())
}

type entityKey struct {
	kind  EntityKind
	value string
}

func (ix *Indexer) buildEntities(ctx context.Context, phones []model.Phone) (int, error) {
	seen := make(map[entityKey]struct{})
	var pending []EntityDoc
	for _, p := range phones {
		for _, e := range []EntityDoc{
			{Kind: EntityCompany, Value: p.CompanyName, Company: p.CompanyName},
			{Kind: EntityModel, Value: p.ModelName, Company: p.CompanyName},
		} {
			if e.Value == "" {
				continue
			}
			k := entityKey{e.Kind, e.Value}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			pending = append(pending, e)
		}
	}

	var (
		mu   sync.Mutex
		docs = make([]EntityDoc, 0, len(pending))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.concurrency)
	for _, e := range pending {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gctx, e.Value)
			if err != nil {
				logx.Warn().Err(err).Str("value", e.Value).Msg("entity embedding failed")
				return nil
			}
			e.Vector = vec
			mu.Lock()
			docs = append(docs, e)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	n, err := ix.index.UpsertEntities(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("upsert entities: %w", err)
	}
	return n, nil
}
