package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phrazzld/phrasify/internal/domain"
	"github.com/phrazzld/phrasify/internal/generation"
)

// GenerateCall records the arguments of one GenerateCards call.
type GenerateCall struct {
	Seed domain.TranslationCard
	N    int
}

// MockGenerator implements generation.Generator for testing
type MockGenerator struct {
	// GenerateCardsFn allows test cases to mock the GenerateCards behavior
	GenerateCardsFn func(ctx context.Context, seed domain.TranslationCard, n int) ([]domain.TranslationCard, error)

	// Default response values
	Cards     []domain.TranslationCard
	Err       error
	BatchSize int

	mu    sync.Mutex
	calls []GenerateCall
}

// Ensure MockGenerator implements generation.Generator interface
var _ generation.Generator = (*MockGenerator)(nil)

// GenerateCards implements the generation.Generator interface
func (m *MockGenerator) GenerateCards(
	ctx context.Context,
	seed domain.TranslationCard,
	n int,
) ([]domain.TranslationCard, error) {
	m.mu.Lock()
	m.calls = append(m.calls, GenerateCall{Seed: seed, N: n})
	m.mu.Unlock()

	if m.GenerateCardsFn != nil {
		return m.GenerateCardsFn(ctx, seed, n)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]domain.TranslationCard(nil), m.Cards...), nil
}

// DefaultBatchSize implements the generation.Generator interface
func (m *MockGenerator) DefaultBatchSize() int {
	if m.BatchSize > 0 {
		return m.BatchSize
	}
	return domain.DefaultNCards
}

// Calls returns a copy of the recorded calls.
func (m *MockGenerator) Calls() []GenerateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateCall(nil), m.calls...)
}

// Reset clears the recorded calls.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// NewMockGeneratorWithCards creates a MockGenerator that returns the specified cards
func NewMockGeneratorWithCards(cards ...domain.TranslationCard) *MockGenerator {
	return &MockGenerator{Cards: cards}
}

// NewMockGeneratorWithError creates a MockGenerator that returns the specified error
func NewMockGeneratorWithError(err error) *MockGenerator {
	return &MockGenerator{Err: err}
}

// MockGeneratorThatFails creates a MockGenerator that simulates a generation failure
func MockGeneratorThatFails() *MockGenerator {
	return &MockGenerator{Err: generation.ErrGenerationFailed}
}

// CountingGenerator produces n cards per call whose text says which call and
// batch they came from:
//
//	"Source of card for friend after 2 call(s) with 5 card(s) (card 3)"
//
// Each call sleeps PerCardDelay for every card it produces. It also records
// the highest number of concurrent calls seen per batch size.
type CountingGenerator struct {
	BatchSize    int
	PerCardDelay time.Duration

	mu            sync.Mutex
	calls         int
	produced      int
	running       map[int]int
	maxConcurrent map[int]int
}

// Ensure CountingGenerator implements generation.Generator interface
var _ generation.Generator = (*CountingGenerator)(nil)

// NewCountingGenerator creates a CountingGenerator with the given default
// batch size and per card delay.
func NewCountingGenerator(batchSize int, perCardDelay time.Duration) *CountingGenerator {
	return &CountingGenerator{BatchSize: batchSize, PerCardDelay: perCardDelay}
}

// GenerateCards implements the generation.Generator interface
func (g *CountingGenerator) GenerateCards(
	ctx context.Context,
	seed domain.TranslationCard,
	n int,
) ([]domain.TranslationCard, error) {
	if n <= 0 {
		n = g.DefaultBatchSize()
	}

	g.mu.Lock()
	g.calls++
	call := g.calls
	if g.running == nil {
		g.running = make(map[int]int)
		g.maxConcurrent = make(map[int]int)
	}
	g.running[n]++
	if g.running[n] > g.maxConcurrent[n] {
		g.maxConcurrent[n] = g.running[n]
	}
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.running[n]--
		g.mu.Unlock()
	}()

	select {
	case <-time.After(time.Duration(n) * g.PerCardDelay):
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctx.Err())
	}

	cards := make([]domain.TranslationCard, n)
	for i := range cards {
		suffix := fmt.Sprintf("after %d call(s) with %d card(s) (card %d)", call, n, i)
		cards[i] = domain.TranslationCard{
			Source: fmt.Sprintf("Source of card for %s %s", seed.Source, suffix),
			Target: fmt.Sprintf("Target of card for %s %s", seed.Target, suffix),
		}
	}

	g.mu.Lock()
	g.produced += n
	g.mu.Unlock()
	return cards, nil
}

// DefaultBatchSize implements the generation.Generator interface
func (g *CountingGenerator) DefaultBatchSize() int {
	if g.BatchSize > 0 {
		return g.BatchSize
	}
	return domain.DefaultNCards
}

// CallCount returns how many times GenerateCards was called.
func (g *CountingGenerator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// Produced returns the total number of cards returned so far.
func (g *CountingGenerator) Produced() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.produced
}

// MaxConcurrent returns the highest number of simultaneous calls seen for
// batch size n.
func (g *CountingGenerator) MaxConcurrent(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxConcurrent[n]
}
