package vector

import (
	"context"
	"errors"
	"fmt"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

// Searcher answers similarity queries by embedding text and searching the
// index. A Searcher with a nil embedder or index is valid and reports
// ErrUnavailable on every call.
type Searcher struct {
	embedder Embedder
	index    Index
	catalog  catalog.Catalog
}

func NewSearcher(embedder Embedder, index Index, cat catalog.Catalog) *Searcher {
	return &Searcher{embedder: embedder, index: index, catalog: cat}
}

// Available reports whether both an embedder and an index are configured.
func (s *Searcher) Available() bool {
	return s != nil && s.embedder != nil && s.index != nil
}

// SearchProducts returns catalog records most similar to query, in similarity
// order, narrowed by filters.
func (s *Searcher) SearchProducts(ctx context.Context, query string, filters model.Filters, topK int) ([]model.Phone, error) {
	if !s.Available() || s.catalog == nil {
		return nil, ErrUnavailable
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, unavailable(err)
	}
	hits, err := s.index.SearchProducts(ctx, vec, filters.Company, topK)
	if err != nil {
		return nil, unavailable(err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.PhoneID)
	}
	q := catalog.FromFilters(filters)
	q.IDs = ids
	records, err := s.catalog.Find(ctx, q)
	if err != nil {
		return nil, unavailable(err)
	}

	byID := make(map[int64]model.Phone, len(records))
	for _, p := range records {
		byID[p.ID] = p
	}
	out := make([]model.Phone, 0, len(records))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			delete(byID, id)
		}
	}
	return out, nil
}

// FindSimilar returns canonical names of kind nearest to term.
func (s *Searcher) FindSimilar(ctx context.Context, term string, kind EntityKind, topK int) ([]EntityMatch, error) {
	if !s.Available() {
		return nil, ErrUnavailable
	}
	vec, err := s.embedder.Embed(ctx, term)
	if err != nil {
		return nil, unavailable(err)
	}
	matches, err := s.index.SearchEntities(ctx, vec, kind, topK)
	if err != nil {
		return nil, unavailable(err)
	}
	return matches, nil
}

func unavailable(err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	logx.Warn().Err(err).Msg("vector backend call failed")
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
