package retrieval

import (
	"context"
	"regexp"
	"strings"

	"github.com/MobiAdvisor-core/server/internal/agent/model"
	"github.com/MobiAdvisor-core/server/internal/catalog"
	"github.com/MobiAdvisor-core/server/internal/resolver"
)

var (
	galaxyCode = regexp.MustCompile(`^[as]\d`)
	iphoneCode = regexp.MustCompile(`^\d{2}`)
)

// multiModel looks each named model up on its own. Models that match nothing
// are left out.
func (e *Engine) multiModel(ctx context.Context, in model.ParsedIntent) ([]model.Phone, error) {
	var found []model.Phone
	for i, name := range in.Entities.Model {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		brand := resolver.InferCompany(name)
		if i < len(in.Entities.Company) && in.Entities.Company[i] != "" {
			brand = strings.ToLower(in.Entities.Company[i])
		}
		p, err := e.lookupModel(ctx, brand, name)
		if err != nil {
			return nil, err
		}
		if p != nil {
			found = append(found, *p)
		}
	}
	return model.UniquePhones(found), nil
}

func (e *Engine) lookupModel(ctx context.Context, brand, name string) (*model.Phone, error) {
	var tries []catalog.Query
	if brand != "" {
		bare := strings.TrimSpace(strings.ReplaceAll(name, brand, ""))
		if bare == "" {
			bare = name
		}
		tries = append(tries, catalog.Query{Company: brand, Model: bare})
	}
	tries = append(tries, catalog.Query{Model: name})
	if galaxyCode.MatchString(name) {
		tries = append(tries, catalog.Query{Model: "galaxy " + name})
	}
	if iphoneCode.MatchString(name) {
		tries = append(tries, catalog.Query{Model: "iphone " + name})
	}

	for _, q := range tries {
		q.Limit = 1
		q.OrderBy = []catalog.Order{catalog.Desc(catalog.FieldRating)}
		phones, err := e.catalog.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(phones) > 0 {
			return &phones[0], nil
		}
	}
	return nil, nil
}

// multiBrand takes the best rated phones of every named brand.
func (e *Engine) multiBrand(ctx context.Context, brands []string, f model.Filters) ([]model.Phone, error) {
	var out []model.Phone
	for _, brand := range brands {
		brand = strings.TrimSpace(brand)
		if brand == "" {
			continue
		}
		q := catalog.FromFilters(f)
		q.Company = brand
		q.OrderBy = []catalog.Order{catalog.Desc(catalog.FieldRating)}
		q.Limit = e.perBrand
		phones, err := e.catalog.Find(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, phones...)
	}
	return model.UniquePhones(out), nil
}
