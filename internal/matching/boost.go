package matching

import "strings"

// Boost limits
const (
	maxOverlapBoost = 20.0
	overlapPerToken = 10.0
	relatedBoost    = 5.0
	maxBoost        = 30.0
)

// relatedPair is a CV term that partially satisfies a different JD term
type relatedPair struct {
	cv string
	jd string
}

var relatedPairs = []relatedPair{
	{cv: "java", jd: "javascript"},
	{cv: "sql", jd: "database"},
}

// RuleBoost returns the deterministic boost for two normalized texts: ten points per shared
// whitespace token (at most 20) plus five per related term pair, capped at 30.
func RuleBoost(cv, jd string) float64 {
	cvTokens := tokenSet(cv)
	jdTokens := tokenSet(jd)

	common := 0
	for token := range cvTokens {
		if _, ok := jdTokens[token]; ok {
			common++
		}
	}
	boost := min(maxOverlapBoost, float64(common)*overlapPerToken)

	cvLower := lowerSet(cvTokens)
	jdLower := lowerSet(jdTokens)
	for _, pair := range relatedPairs {
		_, hasCV := cvLower[pair.cv]
		_, hasJD := jdLower[pair.jd]
		if hasCV && hasJD {
			boost += relatedBoost
		}
	}

	return min(boost, maxBoost)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func lowerSet(set map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(set))
	for token := range set {
		out[strings.ToLower(token)] = struct{}{}
	}
	return out
}
