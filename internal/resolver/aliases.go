package resolver

import "strings"

// modelAliases maps shorthand model codes to catalog model names.
var modelAliases = map[string]string{
	"s24 ultra":     "galaxy s24 ultra",
	"s24":           "galaxy s24",
	"s23":           "galaxy s23",
	"s23 ultra":     "galaxy s23 ultra",
	"a54":           "galaxy a54",
	"a34":           "galaxy a34",
	"a15":           "galaxy a15",
	"z fold 5":      "galaxy z fold 5",
	"z flip 5":      "galaxy z flip 5",
	"iphone 15":     "iphone 15",
	"iphone 15 pro": "iphone 15 pro",
	"iphone 14":     "iphone 14",
	"12r":           "oneplus 12r",
	"oneplus 12":    "oneplus 12",
	"nord ce 3":     "oneplus nord ce 3",
	"14 ultra":      "xiaomi 14 ultra",
	"xiaomi 14":     "xiaomi 14",
	"redmi note 13": "redmi note 13",
	"poco f5":       "poco f5",
	"gt neo":        "realme gt neo",
	"narzo":         "realme narzo",
}

// brandAliases maps sub-brands and nicknames to the parent brand.
var brandAliases = map[string]string{
	"galaxy":   "samsung",
	"iphone":   "apple",
	"redmi":    "xiaomi",
	"poco":     "xiaomi",
	"mi":       "xiaomi",
	"1+":       "oneplus",
	"one plus": "oneplus",
	"pixel":    "google",
	"moto":     "motorola",
	"iqoo":     "vivo",
}

// companyInference maps model keywords to their brand, checked in order.
var companyInference = []struct{ keyword, company string }{
	{"galaxy", "samsung"},
	{"iphone", "apple"},
	{"redmi", "xiaomi"},
	{"poco", "xiaomi"},
	{"xiaomi", "xiaomi"},
	{"oneplus", "oneplus"},
	{"nord", "oneplus"},
	{"pixel", "google"},
	{"moto", "motorola"},
	{"realme", "realme"},
	{"narzo", "realme"},
	{"vivo", "vivo"},
	{"iqoo", "vivo"},
	{"oppo", "oppo"},
}

// InferCompany returns the brand implied by a model name, or "".
func InferCompany(modelName string) string {
	m := strings.ToLower(modelName)
	for _, e := range companyInference {
		if strings.Contains(m, e.keyword) {
			return e.company
		}
	}
	return ""
}

// lookupAlias returns the alias target for term of the given kind.
func lookupAlias(term string, kind Kind) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(term))
	switch kind {
	case KindModel:
		v, ok := modelAliases[key]
		return v, ok
	case KindCompany:
		v, ok := brandAliases[key]
		return v, ok
	}
	return "", false
}
