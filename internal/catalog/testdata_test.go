package catalog

import "github.com/MobiAdvisor-core/server/internal/agent/model"

// ==========================
// Test Helper Functions
// ==========================

func samplePhones() []model.Phone {
	return []model.Phone{
		{ID: 1, CompanyName: "Samsung", ModelName: "Galaxy S24 Ultra", Processor: "Snapdragon 8 Gen 3", UserRating: 4.6, PerformanceRating: 4.8, RAMGB: 12, MemoryGB: 256, BackCameraMP: 200, BatteryMAH: 5000, PriceINR: 129999},
		{ID: 2, CompanyName: "Samsung", ModelName: "Galaxy A15", Processor: "Dimensity 6100+", UserRating: 4.1, PerformanceRating: 3.5, RAMGB: 4, MemoryGB: 128, BackCameraMP: 50, BatteryMAH: 5000, PriceINR: 14999},
		{ID: 3, CompanyName: "Apple", ModelName: "iPhone 15", Processor: "A16 Bionic", UserRating: 4.5, PerformanceRating: 4.6, RAMGB: 6, MemoryGB: 128, BackCameraMP: 48, BatteryMAH: 3349, PriceINR: 79999},
		{ID: 4, CompanyName: "Xiaomi", ModelName: "Redmi Note 13", Processor: "Snapdragon 685", UserRating: 4.2, PerformanceRating: 3.9, RAMGB: 8, MemoryGB: 128, BackCameraMP: 108, BatteryMAH: 5000, PriceINR: 17999},
		{ID: 5, CompanyName: "OnePlus", ModelName: "OnePlus 12R", Processor: "Snapdragon 8 Gen 2", UserRating: 4.4, PerformanceRating: 4.7, RAMGB: 8, MemoryGB: 128, BackCameraMP: 50, BatteryMAH: 5500, PriceINR: 39999},
		{ID: 6, CompanyName: "Realme", ModelName: "Narzo 70", Processor: "Dimensity 7050", UserRating: 4.0, PerformanceRating: 4.0, RAMGB: 6, MemoryGB: 128, BackCameraMP: 64, BatteryMAH: 6000, PriceINR: 15999},
	}
}
