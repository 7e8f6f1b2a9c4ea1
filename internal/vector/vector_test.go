package vector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog/catalogtest"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	fail  map[string]bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for k := range f.fail {
		if strings.Contains(text, k) {
			return nil, errors.New("provider error")
		}
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeIndex struct {
	mu        sync.Mutex
	hits      []ProductHit
	entities  []EntityMatch
	searchErr error
	company   string
	products  []ProductDoc
	entityDoc []EntityDoc
}

func (f *fakeIndex) EnsureSchema(context.Context) error { return nil }

func (f *fakeIndex) SearchProducts(_ context.Context, _ []float32, company string, topK int) ([]ProductHit, error) {
	f.company = company
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if len(f.hits) > topK {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) SearchEntities(_ context.Context, _ []float32, _ EntityKind, _ int) ([]EntityMatch, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.entities, nil
}

func (f *fakeIndex) UpsertProducts(_ context.Context, docs []ProductDoc) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = append(f.products, docs...)
	return len(docs), nil
}

func (f *fakeIndex) UpsertEntities(_ context.Context, docs []EntityDoc) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entityDoc = append(f.entityDoc, docs...)
	return len(docs), nil
}

// ==========================
// Tests
// ==========================

func TestProductDescription(t *testing.T) {
	desc := ProductDescription(catalogtest.ByID(4))

	assert.Contains(t, desc, "Xiaomi Redmi Note 13 128GB.")
	assert.Contains(t, desc, "Price: ₹17,999.")
	assert.Contains(t, desc, "Processor: Snapdragon 685.")
	assert.Contains(t, desc, "Features: mid-range, excellent camera, long battery life, gaming.")
}

func TestFeatureWords_PriceTiers(t *testing.T) {
	tests := []struct {
		price int
		want  string
	}{
		{9999, "budget"},
		{15000, "mid-range"},
		{29999, "mid-range"},
		{45000, "upper mid-range"},
		{50000, "flagship"},
	}
	for _, tt := range tests {
		words := featureWords(model.Phone{PriceINR: tt.price})
		require.NotEmpty(t, words)
		assert.Equal(t, tt.want, words[0], "price %d", tt.price)
	}
}

func TestParseProductHits(t *testing.T) {
	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Get": map[string]any{
			"PhoneProduct": []any{
				map[string]any{"phone_id": 7, "_additional": map[string]any{"certainty": 0.91}},
				map[string]any{"phone_id": 3, "_additional": map[string]any{"certainty": 0.85}},
				map[string]any{"phone_id": 0},
			},
		},
	}}

	hits, err := parseProductHits(resp)
	require.NoError(t, err)
	assert.Equal(t, []ProductHit{{PhoneID: 7, Score: 0.91}, {PhoneID: 3, Score: 0.85}}, hits)
}

func TestParseEntityMatches(t *testing.T) {
	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Get": map[string]any{
			"PhoneEntity": []any{
				map[string]any{"value": "Samsung", "_additional": map[string]any{"certainty": 0.93}},
				map[string]any{"value": ""},
			},
		},
	}}

	matches, err := parseEntityMatches(resp)
	require.NoError(t, err)
	assert.Equal(t, []EntityMatch{{Value: "Samsung", Score: 0.93}}, matches)

	_, err = parseEntityMatches(nil)
	assert.Error(t, err)
}

func TestDeterministicIDs(t *testing.T) {
	assert.Equal(t, productID(42), productID(42))
	assert.NotEqual(t, productID(42), productID(43))
	assert.Equal(t, entityID(EntityModel, "Galaxy S24"), entityID(EntityModel, "galaxy s24"))
	assert.NotEqual(t, entityID(EntityModel, "pixel"), entityID(EntityCompany, "pixel"))
}

func TestOpenAIEmbedder_Embed(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/embeddings", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","embedding":[0.1,0.2,0.3],"index":0}],"model":"text-embedding-3-small"}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(model.EmbeddingConfig{
		APIKey: "test", BaseURL: srv.URL + "/v1", Model: "text-embedding-3-small", RatePerSec: 100, Burst: 1,
	})

	vec, err := e.Embed(context.Background(), "camera phone")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "text-embedding-3-small", gotModel)

	_, err = e.Embed(context.Background(), "   ")
	assert.Error(t, err)
}

func TestSearcher_SearchProducts(t *testing.T) {
	idx := &fakeIndex{hits: []ProductHit{{PhoneID: 7, Score: 0.9}, {PhoneID: 1, Score: 0.8}, {PhoneID: 4, Score: 0.7}, {PhoneID: 99, Score: 0.6}}}
	s := NewSearcher(&fakeEmbedder{}, idx, catalogtest.NewStore())

	t.Run("keeps similarity order and drops unknown ids", func(t *testing.T) {
		phones, err := s.SearchProducts(context.Background(), "good camera", model.Filters{}, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{7, 1, 4}, model.PhoneIDs(phones))
	})

	t.Run("applies filters after search", func(t *testing.T) {
		phones, err := s.SearchProducts(context.Background(), "good camera", model.Filters{MaxPrice: 80000, Company: "google"}, 10)
		require.NoError(t, err)
		assert.Equal(t, []int64{7}, model.PhoneIDs(phones))
		assert.Equal(t, "google", idx.company)
	})
}

func TestSearcher_Unavailable(t *testing.T) {
	ctx := context.Background()

	_, err := NewSearcher(nil, nil, catalogtest.NewStore()).SearchProducts(ctx, "x", model.Filters{}, 5)
	assert.ErrorIs(t, err, ErrUnavailable)

	s := NewSearcher(&fakeEmbedder{}, &fakeIndex{searchErr: errors.New("connection refused")}, catalogtest.NewStore())
	_, err = s.SearchProducts(ctx, "x", model.Filters{}, 5)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.FindSimilar(ctx, "samsang", EntityCompany, 3)
	assert.ErrorIs(t, err, ErrUnavailable)

	s = NewSearcher(&fakeEmbedder{}, &fakeIndex{hits: []ProductHit{{PhoneID: 1}}}, catalogtest.FailingCatalog{})
	_, err = s.SearchProducts(ctx, "x", model.Filters{}, 5)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSearcher_FindSimilar(t *testing.T) {
	s := NewSearcher(&fakeEmbedder{}, &fakeIndex{entities: []EntityMatch{{Value: "Samsung", Score: 0.92}}}, nil)

	matches, err := s.FindSimilar(context.Background(), "samsang", EntityCompany, 3)
	require.NoError(t, err)
	assert.Equal(t, "Samsung", matches[0].Value)
}

func TestIndexer_Build(t *testing.T) {
	emb := &fakeEmbedder{fail: map[string]bool{"Pixel 8": true}}
	idx := &fakeIndex{}
	ix := NewIndexer(emb, idx, catalogtest.NewStore(), 3)

	res, err := ix.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 8, res.Total)
	assert.Equal(t, 7, res.Indexed)
	assert.Equal(t, 1, res.Errors)
	// 6 brands plus 7 embeddable models
	assert.Equal(t, 13, res.Entities)
	assert.Len(t, idx.products, 7)
	for _, d := range idx.products {
		assert.NotEmpty(t, d.Vector)
		assert.Contains(t, d.Text, "Price: ₹")
	}
}

func TestIndexer_Unavailable(t *testing.T) {
	_, err := NewIndexer(nil, nil, catalogtest.NewStore(), 2).Build(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
