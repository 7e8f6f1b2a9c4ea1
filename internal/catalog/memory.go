package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
)

// MemoryStore is an in-process catalog with the same query semantics as
// PostgresStore. Used for CSV-only deployments and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	phones []model.Phone
	nextID int64
}

func NewMemoryStore(phones ...model.Phone) *MemoryStore {
	s := &MemoryStore{nextID: 1}
	s.add(phones)
	return s
}

func (s *MemoryStore) add(phones []model.Phone) int {
	for _, p := range phones {
		if p.ID == 0 {
			p.ID = s.nextID
		}
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
		s.phones = append(s.phones, p)
	}
	return len(phones)
}

func (s *MemoryStore) Find(_ context.Context, q Query) ([]model.Phone, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids map[int64]struct{}
	if len(q.IDs) > 0 {
		ids = make(map[int64]struct{}, len(q.IDs))
		for _, id := range q.IDs {
			ids[id] = struct{}{}
		}
	}

	var out []model.Phone
	for _, p := range s.phones {
		if ids != nil {
			if _, ok := ids[p.ID]; !ok {
				continue
			}
		}
		if matches(p, q) {
			out = append(out, p)
		}
	}

	slices.SortStableFunc(out, func(a, b model.Phone) int {
		for _, o := range q.OrderBy {
			c := cmp.Compare(fieldValue(a, o.Field), fieldValue(b, o.Field))
			if o.Field == FieldCompany || o.Field == FieldModel {
				c = strings.Compare(strings.ToLower(textValue(a, o.Field)), strings.ToLower(textValue(b, o.Field)))
			}
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matches(p model.Phone, q Query) bool {
	if q.Company != "" && !containsFold(p.CompanyName, q.Company) {
		return false
	}
	if q.Model != "" && !containsFold(p.ModelName, q.Model) {
		return false
	}
	if len(q.AnyCompany) > 0 {
		hit := false
		for _, c := range q.AnyCompany {
			if strings.TrimSpace(c) != "" && containsFold(p.CompanyName, c) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if len(q.Keywords) > 0 {
		hit := false
		for _, kw := range q.Keywords {
			if strings.TrimSpace(kw) == "" {
				continue
			}
			if containsFold(p.CompanyName, kw) || containsFold(p.ModelName, kw) ||
				(q.MatchProcessor && containsFold(p.Processor, kw)) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	switch {
	case q.MinPrice > 0 && p.PriceINR < q.MinPrice,
		q.MaxPrice > 0 && p.PriceINR > q.MaxPrice,
		q.MinRAM > 0 && p.RAMGB < q.MinRAM,
		q.MinBattery > 0 && p.BatteryMAH < q.MinBattery,
		q.MinCamera > 0 && p.BackCameraMP < q.MinCamera,
		q.MinStorage > 0 && p.MemoryGB < q.MinStorage:
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

func fieldValue(p model.Phone, f Field) float64 {
	switch f {
	case FieldID:
		return float64(p.ID)
	case FieldLaunchedYear:
		if p.LaunchedYear == nil {
			return 0
		}
		return float64(*p.LaunchedYear)
	case FieldRating:
		return p.UserRating
	case FieldCameraRating:
		return p.CameraRating
	case FieldBatteryRating:
		return p.BatteryRating
	case FieldDisplayRating:
		return p.DisplayRating
	case FieldDesignRating:
		return p.DesignRating
	case FieldPerformanceRating:
		return p.PerformanceRating
	case FieldStorage:
		return float64(p.MemoryGB)
	case FieldRAM:
		return p.RAMGB
	case FieldFrontCamera:
		return p.FrontCameraMP
	case FieldBackCamera:
		return p.BackCameraMP
	case FieldBattery:
		return float64(p.BatteryMAH)
	case FieldPrice:
		return float64(p.PriceINR)
	case FieldScreenSize:
		return p.ScreenSize
	}
	return 0
}

func textValue(p model.Phone, f Field) string {
	switch f {
	case FieldCompany:
		return p.CompanyName
	case FieldModel:
		return p.ModelName
	case FieldProcessor:
		return p.Processor
	}
	return ""
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*model.Phone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.phones {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ExistIDs(_ context.Context, ids []int64) (map[int64]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	found := make(map[int64]struct{}, len(ids))
	for _, p := range s.phones {
		if _, ok := want[p.ID]; ok {
			found[p.ID] = struct{}{}
		}
	}
	return found, nil
}

func (s *MemoryStore) Aggregate(_ context.Context) (*model.CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &model.CatalogStats{Total: len(s.phones)}
	for i, p := range s.phones {
		widen(&st.Price, float64(p.PriceINR), i == 0)
		widen(&st.Camera, p.BackCameraMP, i == 0)
		widen(&st.Battery, float64(p.BatteryMAH), i == 0)
		widen(&st.RAM, p.RAMGB, i == 0)
		widen(&st.Storage, float64(p.MemoryGB), i == 0)
	}
	return st, nil
}

func widen(r *model.Range, v float64, first bool) {
	if first {
		r.Min, r.Max = v, v
		return
	}
	r.Min = min(r.Min, v)
	r.Max = max(r.Max, v)
}

func (s *MemoryStore) DistinctValues(_ context.Context, f Field) ([]string, error) {
	if f != FieldCompany && f != FieldModel && f != FieldProcessor {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, f)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.phones {
		v := textValue(p, f)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

func (s *MemoryStore) InsertPhones(_ context.Context, phones []model.Phone) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(phones), nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phones = nil
	s.nextID = 1
	return nil
}

var _ Store = (*MemoryStore)(nil)
