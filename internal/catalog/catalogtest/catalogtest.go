// Package catalogtest provides a seeded in-memory catalog for tests of
// packages that read phones.
package catalogtest

import (
	"context"
	"errors"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
)

// ErrCatalogDown is returned by every method of FailingCatalog.
var ErrCatalogDown = errors.New("catalog unavailable")

// Phones returns the fixture records. Ids are 1..8.
func Phones() []model.Phone {
	year := 2024
	return []model.Phone{
		{ID: 1, CompanyName: "Samsung", ModelName: "Galaxy S24 Ultra", Processor: "Snapdragon 8 Gen 3", LaunchedYear: &year, UserRating: 4.6, CameraRating: 4.8, BatteryRating: 4.4, PerformanceRating: 4.8, RAMGB: 12, MemoryGB: 256, BackCameraMP: 200, FrontCameraMP: 12, BatteryMAH: 5000, PriceINR: 129999, ScreenSize: 6.8},
		{ID: 2, CompanyName: "Samsung", ModelName: "Galaxy A15", Processor: "Dimensity 6100+", UserRating: 4.1, CameraRating: 3.6, BatteryRating: 4.3, PerformanceRating: 3.5, RAMGB: 4, MemoryGB: 128, BackCameraMP: 50, FrontCameraMP: 13, BatteryMAH: 5000, PriceINR: 14999, ScreenSize: 6.5},
		{ID: 3, CompanyName: "Apple", ModelName: "iPhone 15", Processor: "A16 Bionic", UserRating: 4.5, CameraRating: 4.5, BatteryRating: 3.9, PerformanceRating: 4.6, RAMGB: 6, MemoryGB: 128, BackCameraMP: 48, FrontCameraMP: 12, BatteryMAH: 3349, PriceINR: 79999, ScreenSize: 6.1},
		{ID: 4, CompanyName: "Xiaomi", ModelName: "Redmi Note 13", Processor: "Snapdragon 685", UserRating: 4.2, CameraRating: 4.1, BatteryRating: 4.2, PerformanceRating: 3.9, RAMGB: 8, MemoryGB: 128, BackCameraMP: 108, FrontCameraMP: 16, BatteryMAH: 5000, PriceINR: 17999, ScreenSize: 6.67},
		{ID: 5, CompanyName: "OnePlus", ModelName: "OnePlus 12R", Processor: "Snapdragon 8 Gen 2", UserRating: 4.4, CameraRating: 4.0, BatteryRating: 4.6, PerformanceRating: 4.7, RAMGB: 8, MemoryGB: 128, BackCameraMP: 50, FrontCameraMP: 16, BatteryMAH: 5500, PriceINR: 39999, ScreenSize: 6.78},
		{ID: 6, CompanyName: "Realme", ModelName: "Narzo 70", Processor: "Dimensity 7050", UserRating: 4.0, CameraRating: 3.8, BatteryRating: 4.5, PerformanceRating: 4.0, RAMGB: 6, MemoryGB: 128, BackCameraMP: 64, FrontCameraMP: 16, BatteryMAH: 6000, PriceINR: 15999, ScreenSize: 6.67},
		{ID: 7, CompanyName: "Google", ModelName: "Pixel 8", Processor: "Tensor G3", UserRating: 4.3, CameraRating: 4.7, BatteryRating: 3.8, PerformanceRating: 4.2, RAMGB: 8, MemoryGB: 128, BackCameraMP: 50, FrontCameraMP: 10.5, BatteryMAH: 4575, PriceINR: 75999, ScreenSize: 6.2},
		{ID: 8, CompanyName: "Xiaomi", ModelName: "Poco X6", Processor: "Snapdragon 7s Gen 2", UserRating: 4.3, CameraRating: 4.0, BatteryRating: 4.3, PerformanceRating: 4.3, RAMGB: 8, MemoryGB: 256, BackCameraMP: 64, FrontCameraMP: 16, BatteryMAH: 5100, PriceINR: 19999, ScreenSize: 6.67},
	}
}

// NewStore returns a memory catalog seeded with Phones.
func NewStore() *catalog.MemoryStore {
	return catalog.NewMemoryStore(Phones()...)
}

// ByID returns the fixture phone with id or panics.
func ByID(id int64) model.Phone {
	for _, p := range Phones() {
		if p.ID == id {
			return p
		}
	}
	panic("catalogtest: no phone with that id")
}

// FailingCatalog is a catalog whose every call fails.
type FailingCatalog struct{}

func (FailingCatalog) Find(context.Context, catalog.Query) ([]model.Phone, error) {
	return nil, ErrCatalogDown
}

func (FailingCatalog) GetByID(context.Context, int64) (*model.Phone, error) {
	return nil, ErrCatalogDown
}

func (FailingCatalog) ExistIDs(context.Context, []int64) (map[int64]struct{}, error) {
	return nil, ErrCatalogDown
}

func (FailingCatalog) Aggregate(context.Context) (*model.CatalogStats, error) {
	return nil, ErrCatalogDown
}

func (FailingCatalog) DistinctValues(context.Context, catalog.Field) ([]string, error) {
	return nil, ErrCatalogDown
}
