package vector

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no vector backend is configured or the
// backend failed. Callers fall back to deterministic strategies.
var ErrUnavailable = errors.New("vector similarity unavailable")

const productNamespace = "products"

// EntityKind distinguishes brand names from model names in the entity index.
type EntityKind string

const (
	EntityCompany EntityKind = "company"
	EntityModel   EntityKind = "model"
)

// EntityMatch is a scored canonical name.
type EntityMatch struct {
	Value string  `json:"value"`
	Score float64 `json:"score"`
}

// ProductHit is a phone id scored by similarity.
type ProductHit struct {
	PhoneID int64
	Score   float64
}

// ProductDoc is the indexed representation of one phone.
type ProductDoc struct {
	PhoneID int64
	Company string
	Model   string
	Price   int
	Text    string
	Vector  []float32
}

// EntityDoc is one indexed brand or model name.
type EntityDoc struct {
	Kind    EntityKind
	Value   string
	Company string
	Vector  []float32
}

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index stores and searches phone and entity vectors.
type Index interface {
	EnsureSchema(ctx context.Context) error
	SearchProducts(ctx context.Context, vec []float32, company string, topK int) ([]ProductHit, error)
	SearchEntities(ctx context.Context, vec []float32, kind EntityKind, topK int) ([]EntityMatch, error)
	UpsertProducts(ctx context.Context, docs []ProductDoc) (int, error)
	UpsertEntities(ctx context.Context, docs []EntityDoc) (int, error)
}
