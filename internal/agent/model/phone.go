package model

import (
	"fmt"
	"strings"
)

// Phone is a single catalog record.
type Phone struct {
	ID                int64    `json:"id"`
	CompanyName       string   `json:"company_name" validate:"required"`
	ModelName         string   `json:"model_name" validate:"required"`
	Processor         string   `json:"processor,omitempty"`
	LaunchedYear      *int     `json:"launched_year,omitempty"`
	UserRating        float64  `json:"user_rating" validate:"gte=0,lte=5"`
	UserReview        string   `json:"user_review,omitempty"`
	CameraRating      float64  `json:"camera_rating" validate:"gte=0,lte=5"`
	BatteryRating     float64  `json:"battery_rating" validate:"gte=0,lte=5"`
	DesignRating      float64  `json:"design_rating" validate:"gte=0,lte=5"`
	DisplayRating     float64  `json:"display_rating" validate:"gte=0,lte=5"`
	PerformanceRating float64  `json:"performance_rating" validate:"gte=0,lte=5"`
	MemoryGB          int      `json:"memory_gb" validate:"gte=0"`
	WeightG           *float64 `json:"weight_g,omitempty"`
	RAMGB             float64  `json:"ram_gb" validate:"gte=0"`
	FrontCameraMP     float64  `json:"front_camera_mp" validate:"gte=0"`
	BackCameraMP      float64  `json:"back_camera_mp" validate:"gte=0"`
	BatteryMAH        int      `json:"battery_mah" validate:"gte=0"`
	PriceINR          int      `json:"price_inr" validate:"gte=0"`
	ScreenSize        float64  `json:"screen_size" validate:"gte=0"`
}

// DisplayName is "Company Model".
func (p Phone) DisplayName() string {
	return strings.TrimSpace(p.CompanyName + " " + p.ModelName)
}

// SpecLine renders the compact spec summary used in prompts and context blocks.
func (p Phone) SpecLine() string {
	return fmt.Sprintf("%s (ID: %d): ₹%d, %gGB RAM, %dGB storage, %gMP camera, %dmAh battery, %.1f/5 rating",
		p.DisplayName(), p.ID, p.PriceINR, p.RAMGB, p.MemoryGB, p.BackCameraMP, p.BatteryMAH, p.UserRating)
}

// Filters are the user-facing catalog filters. Zero values are unset.
type Filters struct {
	Company    string  `json:"company,omitempty"`
	MinPrice   int     `json:"minPrice,omitempty" validate:"gte=0"`
	MaxPrice   int     `json:"maxPrice,omitempty" validate:"gte=0"`
	MinRAM     float64 `json:"minRam,omitempty" validate:"gte=0"`
	MinBattery int     `json:"minBattery,omitempty" validate:"gte=0"`
	MinCamera  float64 `json:"minCamera,omitempty" validate:"gte=0"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Range is a numeric min/max pair.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CatalogStats summarises numeric ranges over the whole catalog.
type CatalogStats struct {
	Total   int   `json:"total"`
	Price   Range `json:"price"`
	Camera  Range `json:"camera"`
	Battery Range `json:"battery"`
	RAM     Range `json:"ram"`
	Storage Range `json:"storage"`
}

// UniquePhones merges lists in order, dropping repeated ids.
func UniquePhones(lists ...[]Phone) []Phone {
	seen := make(map[int64]struct{})
	var out []Phone
	for _, l := range lists {
		for _, p := range l {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			seen[p.ID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// PhoneIDs returns the ids of phones in order.
func PhoneIDs(phones []Phone) []int64 {
	ids := make([]int64, 0, len(phones))
	for _, p := range phones {
		ids = append(ids, p.ID)
	}
	return ids
}
