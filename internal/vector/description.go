package vector

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

// ProductDescription renders the text embedded for a phone. Feature words
// let descriptive queries ("budget phone with long battery") land near the
// right records.
func ProductDescription(p model.Phone) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %dGB. ", p.DisplayName(), p.MemoryGB)
	fmt.Fprintf(&b, "Price: ₹%s. ", humanize.Comma(int64(p.PriceINR)))
	fmt.Fprintf(&b, "%gGB RAM, %dGB storage. ", p.RAMGB, p.MemoryGB)
	fmt.Fprintf(&b, "Camera: %gMP rear, %gMP front. ", p.BackCameraMP, p.FrontCameraMP)
	fmt.Fprintf(&b, "Battery: %dmAh. ", p.BatteryMAH)
	if p.ScreenSize > 0 {
		fmt.Fprintf(&b, "Display: %.2f inches. ", p.ScreenSize)
	}
	if p.Processor != "" {
		fmt.Fprintf(&b, "Processor: %s. ", p.Processor)
	}
	fmt.Fprintf(&b, "Rating: %.1f/5.", p.UserRating)

	if words := featureWords(p); len(words) > 0 {
		b.WriteString(" Features: ")
		b.WriteString(strings.Join(words, ", "))
		b.WriteString(".")
	}
	return b.String()
}

func featureWords(p model.Phone) []string {
	var words []string
	switch {
	case p.PriceINR < 15000:
		words = append(words, "budget")
	case p.PriceINR < 30000:
		words = append(words, "mid-range")
	case p.PriceINR < 50000:
		words = append(words, "upper mid-range")
	default:
		words = append(words, "flagship")
	}

	switch {
	case p.BackCameraMP >= 100:
		words = append(words, "excellent camera")
	case p.BackCameraMP >= 50:
		words = append(words, "good camera")
	}
	if p.BatteryMAH >= 5000 {
		words = append(words, "long battery life")
	}
	if p.RAMGB >= 8 {
		words = append(words, "gaming")
	}
	return words
}
