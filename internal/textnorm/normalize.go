// Package textnorm turns free-text resume and job description fields into a canonical, comparable form.
package textnorm

import (
	"strings"
	"unicode"

	"github.com/jonathan/placement-matcher/internal/cache"
	"github.com/jonathan/placement-matcher/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultMemoSize bounds the number of memoized normalizations
const DefaultMemoSize = 1000

// skillSynonyms expands common abbreviations to their canonical names
var skillSynonyms = map[string]string{
	"ml":     "Machine Learning",
	"ai":     "Artificial Intelligence",
	"js":     "JavaScript",
	"sql":    "SQL",
	"aws":    "AWS",
	"k8s":    "Kubernetes",
	"nlp":    "Natural Language Processing",
	"gcp":    "Google Cloud Platform",
	"ts":     "TypeScript",
	"golang": "Go",
}

// Normalizer cleans and tokenizes section text. It is safe for concurrent use.
type Normalizer struct {
	memo      *cache.Memory
	synonyms  map[string]string
	stopwords map[string]struct{}
}

// New creates a Normalizer memoizing up to memoSize results (<= 0 uses DefaultMemoSize)
func New(memoSize int) *Normalizer {
	if memoSize <= 0 {
		memoSize = DefaultMemoSize
	}
	return &Normalizer{
		memo:      cache.NewMemory(memoSize, 0),
		synonyms:  skillSynonyms,
		stopwords: englishStopwords,
	}
}

// Normalize returns the canonical form of text. Education text keeps its stopwords and skips
// entity extraction.
func (n *Normalizer) Normalize(text string, education bool) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	key := memoKey(text, education)
	if cached, ok := n.memo.Lookup(key); ok {
		return string(cached)
	}

	result := n.normalize(text, education)
	n.memo.Store(key, []byte(result), 0)
	return result
}

// NormalizeList joins the non-empty items with ", " and normalizes the result
func (n *Normalizer) NormalizeList(items []string, education bool) string {
	return n.Normalize(types.List(items...).String(), education)
}

// NormalizeValue normalizes a section value of either shape
func (n *Normalizer) NormalizeValue(v types.SectionValue, education bool) string {
	return n.Normalize(v.String(), education)
}

// MemoLen reports how many normalizations are memoized
func (n *Normalizer) MemoLen() int {
	return n.memo.Len()
}

func memoKey(text string, education bool) string {
	if education {
		return "e\x00" + text
	}
	return "t\x00" + text
}

func (n *Normalizer) normalize(text string, education bool) string {
	folded := fold(text)
	if folded == "" {
		return ""
	}

	words := tokenize(folded)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if !education {
			if _, stop := n.stopwords[word]; stop {
				continue
			}
		}
		if canonical, ok := n.synonyms[word]; ok {
			word = canonical
		}
		tokens = append(tokens, word)
	}

	if !education {
		tokens = append(tokens, extractEntities(folded)...)
	}
	return strings.Join(tokens, " ")
}

// fold strips diacritics, lowercases, and collapses whitespace
func fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}
	lowered := cases.Lower(language.English).String(stripped)
	return strings.Join(strings.Fields(lowered), " ")
}

// tokenize splits on whitespace and punctuation. '+', '#' and '.' survive inside tokens so that
// names such as c++, c# and node.js stay intact.
func tokenize(text string) []string {
	text = strings.ReplaceAll(text, "'s ", " ")
	text = strings.TrimSuffix(text, "'s")

	fields := strings.FieldsFunc(text, func(r rune) bool {
		if unicode.IsSpace(r) {
			return true
		}
		switch r {
		case '+', '#', '.':
			return false
		}
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimRight(f, ".")
		f = strings.TrimLeft(f, "+#")
		if f == "" || !containsWordRune(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func containsWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
