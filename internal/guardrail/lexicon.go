package guardrail

import (
	"slices"
	"strings"
)

// FollowUpPhrases mark a turn that refers back to phones shown earlier.
var FollowUpPhrases = []string{
	"tell me more", "more about",
	"first one", "second one", "third one", "this one", "that one",
	"the first", "the second", "the third",
	"which one", "compare them", "between them",
	"these phones", "those phones",
	"best one", "the one", "it has", "does it", "is it",
}

// BestPhrases ask for a single pick among phones already shown.
var BestPhrases = []string{
	"which is best", "which one is best", "best one", "recommend one",
	"which should i buy", "which would you recommend", "best option",
	"top pick", "your recommendation",
}

var generalQAKeywords = []string{
	"what is", "what are", "how does", "how do", "explain",
	"meaning of", "define", "difference between", "why is",
	"ois", "ip68", "ip67", "5g", "4g", "amoled", "oled", "lcd",
	"processor", "chipset", "gorilla glass", "nfc", "nit", "refresh rate",
	"fast charging", "wireless charging", "stereo speakers",
}

var phoneSearchKeywords = []string{
	"best phone", "recommend", "recommended", "under", "below", "budget",
	"compare", "comparison", "phones", "mobile", "buy", "which phone",
	"samsung", "apple", "iphone", "xiaomi", "oneplus", "vivo", "oppo",
	"first one", "second", "tell me more", "camera", "battery", "gaming",
}

// domainTerms are words that make an utterance phone related.
var domainTerms = map[string]struct{}{
	"phone": {}, "phones": {}, "mobile": {}, "smartphone": {}, "handset": {},
	"camera": {}, "battery": {}, "price": {}, "ram": {}, "storage": {}, "display": {},
	"screen": {}, "processor": {}, "chipset": {}, "charging": {}, "5g": {}, "amoled": {},
	"samsung": {}, "apple": {}, "iphone": {}, "oneplus": {}, "xiaomi": {}, "redmi": {},
	"poco": {}, "google": {}, "pixel": {}, "realme": {}, "vivo": {}, "oppo": {},
	"motorola": {}, "nothing": {}, "galaxy": {}, "gaming": {}, "mah": {}, "mp": {},
}

// containsAny matches whole words: a phrase counts only when its tokens occur
// consecutively in text, so "the one" misses "the oneplus" and "4g" misses
// "64gb".
func containsAny(text string, phrases []string) bool {
	words := Tokens(text)
	for _, p := range phrases {
		if containsSeq(words, Tokens(p)) {
			return true
		}
	}
	return false
}

func containsSeq(words, seq []string) bool {
	if len(seq) == 0 {
		return false
	}
	for i := 0; i+len(seq) <= len(words); i++ {
		if slices.Equal(words[i:i+len(seq)], seq) {
			return true
		}
	}
	return false
}

// IsFollowUp reports whether query refers to previously shown phones.
func IsFollowUp(query string) bool {
	return containsAny(strings.ToLower(query), FollowUpPhrases)
}

// IsBestQuery reports whether query asks for the single best pick.
func IsBestQuery(query string) bool {
	return containsAny(strings.ToLower(query), BestPhrases)
}

// HasReference reports an ordinal or demonstrative reference. An intent
// that carries one is never a rejection.
func HasReference(query string) bool {
	q := strings.ToLower(query)
	for _, w := range Tokens(q) {
		switch w {
		case "first", "second", "third", "these", "those", "them":
			return true
		}
	}
	return containsAny(q, []string{"last one", "this one", "that one", "this phone", "that phone"})
}

// HasDomainTerm reports whether query names a phone or phone feature.
func HasDomainTerm(query string) bool {
	for _, w := range Tokens(query) {
		if _, ok := domainTerms[w]; ok {
			return true
		}
	}
	return false
}

// IsGeneralQA reports a general technology question that does not look
// like a phone search.
func IsGeneralQA(query string) bool {
	q := strings.ToLower(query)
	return containsAny(q, generalQAKeywords) && !containsAny(q, phoneSearchKeywords)
}
