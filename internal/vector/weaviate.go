package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	logx "github.com/MobiAdvisor-core/server/pkg/logger"
)

const (
	ProductClass = "PhoneProduct"
	EntityClass  = "PhoneEntity"
	batchSize    = 100
)

// idNamespace seeds deterministic object ids so re-indexing replaces objects.
var idNamespace = uuid.MustParse("6f1d2c1e-8b7a-4f0e-9a51-3c0d2e4b7a10")

func productID(phoneID int64) string {
	return uuid.NewSHA1(idNamespace, []byte("product:"+strconv.FormatInt(phoneID, 10))).String()
}

func entityID(kind EntityKind, value string) string {
	return uuid.NewSHA1(idNamespace, []byte("entity:"+string(kind)+":"+strings.ToLower(value))).String()
}

// WeaviateIndex implements Index on a Weaviate instance with externally
// supplied vectors.
type WeaviateIndex struct {
	client *weaviate.Client
}

func NewWeaviateIndex(client *weaviate.Client) *WeaviateIndex {
	return &WeaviateIndex{client: client}
}

func productSchema() *models.Class {
	filterable := new(bool)
	*filterable = true
	return &models.Class{
		Class:       ProductClass,
		Description: "Phone catalog records embedded for semantic search",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "kind", DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
			{Name: "namespace", DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
			{Name: "phone_id", DataType: []string{"int"}, IndexFilterable: filterable},
			{Name: "company", DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
			{Name: "model", DataType: []string{"text"}, Tokenization: "word"},
			{Name: "price", DataType: []string{"int"}, IndexFilterable: filterable},
			{Name: "content", DataType: []string{"text"}, Tokenization: "word"},
		},
	}
}

func entitySchema() *models.Class {
	filterable := new(bool)
	*filterable = true
	return &models.Class{
		Class:       EntityClass,
		Description: "Canonical brand and model names for entity correction",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{Name: "kind", DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
			{Name: "value", DataType: []string{"text"}, Tokenization: "field"},
			{Name: "company", DataType: []string{"text"}, IndexFilterable: filterable, Tokenization: "field"},
		},
	}
}

// EnsureSchema creates both classes when missing.
func (w *WeaviateIndex) EnsureSchema(ctx context.Context) error {
	for _, class := range []*models.Class{productSchema(), entitySchema()} {
		if _, err := w.client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx); err == nil {
			continue
		}
		logx.Info().Str("class", class.Class).Msg("creating weaviate class")
		if err := w.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
			return fmt.Errorf("create class %s: %w", class.Class, err)
		}
	}
	return nil
}

// SearchProducts returns phone ids nearest to vec, optionally restricted to a
// brand (case-insensitive containment).
func (w *WeaviateIndex) SearchProducts(ctx context.Context, vec []float32, company string, topK int) ([]ProductHit, error) {
	operands := []*filters.WhereBuilder{
		filters.Where().WithPath([]string{"kind"}).WithOperator(filters.Equal).WithValueString("product"),
		filters.Where().WithPath([]string{"namespace"}).WithOperator(filters.Equal).WithValueString(productNamespace),
	}
	if c := strings.ToLower(strings.TrimSpace(company)); c != "" {
		operands = append(operands,
			filters.Where().WithPath([]string{"company"}).WithOperator(filters.Like).WithValueString("*"+c+"*"))
	}

	resp, err := w.client.GraphQL().Get().
		WithClassName(ProductClass).
		WithFields(
			graphql.Field{Name: "phone_id"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		).
		WithWhere(filters.Where().WithOperator(filters.And).WithOperands(operands)).
		WithNearVector(w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("product search: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("product search: %s", resp.Errors[0].Message)
	}
	return parseProductHits(resp)
}

// SearchEntities returns canonical names of kind nearest to vec.
func (w *WeaviateIndex) SearchEntities(ctx context.Context, vec []float32, kind EntityKind, topK int) ([]EntityMatch, error) {
	resp, err := w.client.GraphQL().Get().
		WithClassName(EntityClass).
		WithFields(
			graphql.Field{Name: "value"},
			graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
		).
		WithWhere(filters.Where().WithPath([]string{"kind"}).WithOperator(filters.Equal).WithValueString(string(kind))).
		WithNearVector(w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)).
		WithLimit(topK).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("entity search: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("entity search: %s", resp.Errors[0].Message)
	}
	return parseEntityMatches(resp)
}

func (w *WeaviateIndex) UpsertProducts(ctx context.Context, docs []ProductDoc) (int, error) {
	objects := make([]*models.Object, 0, len(docs))
	for _, d := range docs {
		objects = append(objects, &models.Object{
			Class:  ProductClass,
			ID:     strfmt.UUID(productID(d.PhoneID)),
			Vector: d.Vector,
			Properties: map[string]any{
				"kind":      "product",
				"namespace": productNamespace,
				"phone_id":  d.PhoneID,
				"company":   strings.ToLower(d.Company),
				"model":     d.Model,
				"price":     d.Price,
				"content":   d.Text,
			},
		})
	}
	return w.batch(ctx, objects)
}

func (w *WeaviateIndex) UpsertEntities(ctx context.Context, docs []EntityDoc) (int, error) {
	objects := make([]*models.Object, 0, len(docs))
	for _, d := range docs {
		objects = append(objects, &models.Object{
			Class:  EntityClass,
			ID:     strfmt.UUID(entityID(d.Kind, d.Value)),
			Vector: d.Vector,
			Properties: map[string]any{
				"kind":    string(d.Kind),
				"value":   d.Value,
				"company": strings.ToLower(d.Company),
			},
		})
	}
	return w.batch(ctx, objects)
}

func (w *WeaviateIndex) batch(ctx context.Context, objects []*models.Object) (int, error) {
	stored := 0
	for start := 0; start < len(objects); start += batchSize {
		end := min(start+batchSize, len(objects))
		resp, err := w.client.Batch().ObjectsBatcher().WithObjects(objects[start:end]...).Do(ctx)
		if err != nil {
			return stored, fmt.Errorf("batch import: %w", err)
		}
		for _, item := range resp {
			if item.Result != nil && item.Result.Errors != nil && len(item.Result.Errors.Error) > 0 {
				logx.Warn().Str("id", string(item.ID)).Str("error", item.Result.Errors.Error[0].Message).
					Msg("weaviate batch item failed")
				continue
			}
			stored++
		}
	}
	return stored, nil
}

// ====================== response parsing ======================

type additional struct {
	Certainty float64 `json:"certainty"`
}

type productSearchResponse struct {
	Get struct {
		PhoneProduct []struct {
			PhoneID    float64    `json:"phone_id"`
			Additional additional `json:"_additional"`
		} `json:"PhoneProduct"`
	} `json:"Get"`
}

type entitySearchResponse struct {
	Get struct {
		PhoneEntity []struct {
			Value      string     `json:"value"`
			Additional additional `json:"_additional"`
		} `json:"PhoneEntity"`
	} `json:"Get"`
}

func decodeGraphQL[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}
	b, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal GraphQL data: %w", err)
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal GraphQL data: %w", err)
	}
	return &out, nil
}

func parseProductHits(resp *models.GraphQLResponse) ([]ProductHit, error) {
	parsed, err := decodeGraphQL[productSearchResponse](resp)
	if err != nil {
		return nil, err
	}
	hits := make([]ProductHit, 0, len(parsed.Get.PhoneProduct))
	for _, r := range parsed.Get.PhoneProduct {
		if r.PhoneID <= 0 {
			continue
		}
		hits = append(hits, ProductHit{PhoneID: int64(r.PhoneID), Score: r.Additional.Certainty})
	}
	return hits, nil
}

func parseEntityMatches(resp *models.GraphQLResponse) ([]EntityMatch, error) {
	parsed, err := decodeGraphQL[entitySearchResponse](resp)
	if err != nil {
		return nil, err
	}
	out := make([]EntityMatch, 0, len(parsed.Get.PhoneEntity))
	for _, r := range parsed.Get.PhoneEntity {
		if r.Value == "" {
			continue
		}
		out = append(out, EntityMatch{Value: r.Value, Score: r.Additional.Certainty})
	}
	return out, nil
}

var _ Index = (*WeaviateIndex)(nil)
