package services

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sync"

	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
	"github.com/qanun-labs/qanun-cli/internal/vectorindex/distance"
)

// Ensure fakeEncoder implements the interface.
var _ driven.Encoder = (*fakeEncoder)(nil)

// fakeEncoder is a deterministic in-process encoder. The vector for a
// text is either canned or derived from a hash of the text, so repeated
// calls always agree and distinct texts almost never collide.
type fakeEncoder struct {
	model string
	dims  int

	mu         sync.Mutex
	embedCalls int
	batchCalls int
	lastBatch  []string

	pingErr error
	failFor map[string]error     // per-text failures
	canned  map[string][]float32 // fixed vectors by text
}

func newFakeEncoder(dims int) *fakeEncoder {
	return &fakeEncoder{
		model:   "test-encoder",
		dims:    dims,
		failFor: make(map[string]error),
		canned:  make(map[string][]float32),
	}
}

func (f *fakeEncoder) vectorFor(text string) []float32 {
	if v, ok := f.canned[text]; ok {
		return v
	}

	h := fnv.New64a()
	h.Write([]byte(text)) //nolint:errcheck // fnv never fails
	rng := rand.New(rand.NewSource(int64(h.Sum64()))) //nolint:gosec // test determinism

	v := make([]float32, f.dims)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	distance.NormalizeL2InPlace(v)
	return v
}

func (f *fakeEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls++
	err := f.failFor[text]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return f.vectorFor(text), nil
}

func (f *fakeEncoder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls++
	f.lastBatch = append([]string(nil), texts...)
	f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, text := range texts {
		f.mu.Lock()
		err := f.failFor[text]
		f.mu.Unlock()
		if err != nil {
			// A poisoned batch fails whole, like a real backend would.
			return nil, err
		}
		out[i] = f.vectorFor(text)
	}
	return out, nil
}

func (f *fakeEncoder) Dimensions() int { return f.dims }

func (f *fakeEncoder) Identifier() string { return f.model }

func (f *fakeEncoder) Ping(_ context.Context) error { return f.pingErr }

func (f *fakeEncoder) Close() error { return nil }

func (f *fakeEncoder) calls() (embed, batch int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.embedCalls, f.batchCalls
}
