package model

// PhoneList is the payload of tools returning several phones.
type PhoneList struct {
	Phones []Phone `json:"phones"`
	Total  int     `json:"total"`
}

// PhoneComparison is the payload of the compare tool.
type PhoneComparison struct {
	Phones  []Phone            `json:"phones"`
	Winners *ComparisonWinners `json:"winners,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// PriceRange is the catalog price span.
type PriceRange struct {
	MinPrice int    `json:"min_price"`
	MaxPrice int    `json:"max_price"`
	Currency string `json:"currency"`
}

// BrandList is the payload of the brands tool.
type BrandList struct {
	Brands []string `json:"brands"`
	Count  int      `json:"count"`
}

// GeneralAnswer is the payload of the general question tool.
type GeneralAnswer struct {
	Answer string `json:"answer"`
}
