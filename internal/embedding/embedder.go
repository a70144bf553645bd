// Package embedding computes vector representations of normalized section text.
package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/jonathan/placement-matcher/internal/cache"
	"go.uber.org/zap"
)

// Provider computes one vector per input text in a single call
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CachedEmbedder fronts a Provider with a content-addressed cache
type CachedEmbedder struct {
	provider Provider
	store    cache.Store
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCachedEmbedder wraps provider; a nil store disables caching
func NewCachedEmbedder(provider Provider, store cache.Store, logger *zap.Logger) *CachedEmbedder {
	if store == nil {
		store = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEmbedder{provider: provider, store: store, ttl: cache.DefaultTTL, logger: logger}
}

// Dimension returns the vector length of the underlying provider
func (e *CachedEmbedder) Dimension() int {
	return e.provider.Dimension()
}

// EmbedBatch returns one vector per text. Empty texts map to zero vectors, cached texts are decoded
// from the store, and every remaining text is computed in one provider call.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	dim := e.provider.Dimension()
	out := make([][]float32, len(texts))

	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if text == "" {
			out[i] = make([]float32, dim)
			continue
		}
		if data, ok := e.store.Get(ctx, cache.Key(cache.PrefixEmbedding, text)); ok {
			if vec, err := decodeVector(data, dim); err == nil {
				out[i] = vec
				continue
			}
			e.logger.Debug("discarding malformed cached embedding", zap.Int("bytes", len(data)))
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := e.provider.Embed(ctx, missTexts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute embeddings: %w", err)
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("embedding provider returned %d vectors for %d texts", len(vectors), len(missTexts))
	}

	for j, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("embedding provider returned dimension %d, expected %d", len(vec), dim)
		}
		out[missIdx[j]] = vec
		e.store.Set(ctx, cache.Key(cache.PrefixEmbedding, missTexts[j]), encodeVector(vec), e.ttl)
	}

	e.logger.Debug("computed embeddings",
		zap.Int("requested", len(texts)),
		zap.Int("computed", len(missTexts)))
	return out, nil
}

// encodeVector serializes a vector as little-endian float32 values
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte, dim int) ([]float32, error) {
	if len(data) != 4*dim {
		return nil, fmt.Errorf("cached vector has %d bytes, expected %d", len(data), 4*dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return vec, nil
}
