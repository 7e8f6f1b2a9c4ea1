package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

var (
	// ErrNotFound is returned by GetByID when the id is absent.
	ErrNotFound = errors.New("phone not found")
	// ErrInvalidField is returned for fields outside the whitelist.
	ErrInvalidField = errors.New("invalid catalog field")
)

// Field names a sortable or distinct-able catalog column.
type Field string

const (
	FieldID                Field = "id"
	FieldCompany           Field = "company_name"
	FieldModel             Field = "model_name"
	FieldProcessor         Field = "processor"
	FieldLaunchedYear      Field = "launched_year"
	FieldRating            Field = "user_rating"
	FieldCameraRating      Field = "camera_rating"
	FieldBatteryRating     Field = "battery_rating"
	FieldDisplayRating     Field = "display_rating"
	FieldDesignRating      Field = "design_rating"
	FieldPerformanceRating Field = "performance_rating"
	FieldStorage           Field = "memory_gb"
	FieldRAM               Field = "ram_gb"
	FieldFrontCamera       Field = "front_camera_mp"
	FieldBackCamera        Field = "back_camera_mp"
	FieldBattery           Field = "battery_mah"
	FieldPrice             Field = "price_inr"
	FieldScreenSize        Field = "screen_size"
)

var sortable = map[Field]struct{}{
	FieldID: {}, FieldCompany: {}, FieldModel: {}, FieldLaunchedYear: {},
	FieldRating: {}, FieldCameraRating: {}, FieldBatteryRating: {}, FieldDisplayRating: {},
	FieldDesignRating: {}, FieldPerformanceRating: {}, FieldStorage: {}, FieldRAM: {},
	FieldFrontCamera: {}, FieldBackCamera: {}, FieldBattery: {}, FieldPrice: {}, FieldScreenSize: {},
}

// ParseField validates a field name against the whitelist.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := sortable[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidField, s)
	}
	return f, nil
}

type Order struct {
	Field Field
	Desc  bool
}

func Desc(f Field) Order { return Order{Field: f, Desc: true} }
func Asc(f Field) Order  { return Order{Field: f} }

// Query selects catalog records. Zero-valued fields do not filter.
// Text matches are case-insensitive substrings. Ties are broken by id.
type Query struct {
	IDs            []int64
	Company        string
	Model          string
	AnyCompany     []string
	Keywords       []string // OR over company and model (and processor when MatchProcessor)
	MatchProcessor bool
	MinPrice       int
	MaxPrice       int
	MinRAM         float64
	MinBattery     int
	MinCamera      float64
	MinStorage     int
	OrderBy        []Order
	Limit          int
}

// FromFilters converts user filters into a query.
func FromFilters(f model.Filters) Query {
	return Query{
		Company:    f.Company,
		MinPrice:   f.MinPrice,
		MaxPrice:   f.MaxPrice,
		MinRAM:     f.MinRAM,
		MinBattery: f.MinBattery,
		MinCamera:  f.MinCamera,
	}
}

func (q Query) validate() error {
	for _, o := range q.OrderBy {
		if _, ok := sortable[o.Field]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidField, o.Field)
		}
	}
	return nil
}

// Catalog is read access to the phone catalog.
type Catalog interface {
	Find(ctx context.Context, q Query) ([]model.Phone, error)
	GetByID(ctx context.Context, id int64) (*model.Phone, error)
	ExistIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)
	Aggregate(ctx context.Context) (*model.CatalogStats, error)
	DistinctValues(ctx context.Context, f Field) ([]string, error)
}

// Writer loads records into the catalog.
type Writer interface {
	InsertPhones(ctx context.Context, phones []model.Phone) (int, error)
	Clear(ctx context.Context) error
}

// Store is a catalog that can also be written to.
type Store interface {
	Catalog
	Writer
}
