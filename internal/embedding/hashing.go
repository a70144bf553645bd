package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// DefaultHashingDimension is the vector length of the hashing provider
const DefaultHashingDimension = 384

// HashingProvider is a deterministic, offline embedder using the hashing trick over word unigrams
// and character trigrams. It needs no network and gives the same vector for the same text.
type HashingProvider struct {
	dim int
}

// NewHashingProvider creates a provider with the given dimension (<= 0 uses the default)
func NewHashingProvider(dim int) *HashingProvider {
	if dim <= 0 {
		dim = DefaultHashingDimension
	}
	return &HashingProvider{dim: dim}
}

// Dimension returns the vector length
func (p *HashingProvider) Dimension() int {
	return p.dim
}

// Embed computes one L2-normalized vector per text
func (p *HashingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.embed(text)
	}
	return out, nil
}

func (p *HashingProvider) embed(text string) []float32 {
	vec := make([]float64, p.dim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		p.add(vec, "w:"+word, 1.0)

		padded := []rune("#" + word + "#")
		for j := 0; j+3 <= len(padded); j++ {
			p.add(vec, "c:"+string(padded[j:j+3]), 0.5)
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, p.dim)
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

func (p *HashingProvider) add(vec []float64, feature string, weight float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	idx := int(sum % uint64(p.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}
