package parsers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

// phoneWire accepts tool payloads that name the id phone_id.
type phoneWire struct {
	model.Phone
	PhoneID int64 `json:"phone_id"`
}

// ParsePhonePayload extracts catalog records from a tool result. Both a bare
// JSON list and an object with a "phones" list are accepted. Records without
// a positive id are skipped. Payloads without phones yield nil.
func ParsePhonePayload(content string) ([]model.Phone, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil
	}
	if len(content) > maxContentLen*4 {
		return nil, fmt.Errorf("tool payload too large: %d bytes", len(content))
	}

	var wires []phoneWire
	switch content[0] {
	case '[':
		if err := json.Unmarshal([]byte(content), &wires); err != nil {
			return nil, fmt.Errorf("decode phone list %q: %w", safeSnippet(content), err)
		}
	case '{':
		var obj struct {
			Phones []phoneWire `json:"phones"`
		}
		if err := json.Unmarshal([]byte(content), &obj); err != nil {
			return nil, fmt.Errorf("decode phone payload %q: %w", safeSnippet(content), err)
		}
		wires = obj.Phones
	default:
		return nil, nil
	}

	phones := make([]model.Phone, 0, len(wires))
	for _, w := range wires {
		p := w.Phone
		if p.ID == 0 {
			p.ID = w.PhoneID
		}
		if p.ID <= 0 {
			continue
		}
		phones = append(phones, p)
	}
	return phones, nil
}
