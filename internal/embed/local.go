package embed

import (
	"context"
	"encoding/binary"
	"hash/fnv"
)

// Local is a deterministic, offline embedder: each dimension is the FNV
// hash of (text, dimension-index), folded into [-1, 1]. It satisfies
// Embedder's determinism requirement without any network dependency, for
// local development and tests where no real embedding provider is wired.
type Local struct {
	dimension int
}

// NewLocal constructs a deterministic local embedder of the given dimension.
func NewLocal(dimension int) *Local {
	if dimension <= 0 {
		dimension = 256
	}
	return &Local{dimension: dimension}
}

func (l *Local) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, l.dimension)
	for i := 0; i < l.dimension; i++ {
		h := fnv.New32a()
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(i))
		_, _ = h.Write([]byte(text))
		_, _ = h.Write(buf[:])
		vec[i] = float32(h.Sum32())/float32(1<<31) - 1.0
	}
	return vec, nil
}

func (l *Local) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := l.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (l *Local) Dimension() int { return l.dimension }
func (l *Local) Model() string  { return "local-deterministic" }
func (l *Local) Close() error   { return nil }
