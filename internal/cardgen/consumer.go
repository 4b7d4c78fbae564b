package cardgen

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/phrazzld/phrasify/internal/domain"
	"golang.org/x/sync/singleflight"
)

// NextCardFactory hands out one generated card per seed.
//
// The first Take for a seed pulls a card from the replenisher; later Takes
// for the same seed return that same card, so both sides of one note agree.
// Concurrent Takes for a seed share a single pull. When no card can be
// produced the seed itself is returned.
type NextCardFactory struct {
	rep    *Replenisher
	group  singleflight.Group
	logger *slog.Logger

	mu   sync.Mutex
	memo map[domain.TranslationCard]domain.TranslationCard
}

// NewNextCardFactory creates a factory drawing from rep.
func NewNextCardFactory(rep *Replenisher) *NextCardFactory {
	return &NextCardFactory{
		rep:    rep,
		logger: rep.logger.With(slog.String("component", "card_factory")),
		memo:   make(map[domain.TranslationCard]domain.TranslationCard),
	}
}

// Replenisher returns the replenisher the factory draws from.
func (f *NextCardFactory) Replenisher() *Replenisher {
	return f.rep
}

// Take returns the card for seed. It never fails: on exhaustion or any other
// error it logs and returns seed. A fallback caused by ctx ending is not
// remembered.
func (f *NextCardFactory) Take(ctx context.Context, seed domain.TranslationCard) domain.TranslationCard {
	if card, ok := f.lookup(seed); ok {
		return card
	}

	v, _, _ := f.group.Do(seed.JSON(), func() (any, error) {
		if card, ok := f.lookup(seed); ok {
			return card, nil
		}

		card, err := f.rep.Next(ctx, seed)
		if err != nil {
			if errors.Is(err, ErrExhausted) {
				f.logger.WarnContext(ctx, "no cards generated, using input card as placeholder",
					slog.String("seed", seed.Source))
			} else {
				f.logger.ErrorContext(ctx, "error in card generator, using input card as placeholder",
					slog.String("seed", seed.Source),
					slog.String("error", err.Error()))
			}
			f.rep.rt.Metrics.Fallback()
			if ctx.Err() != nil {
				// The caller gave up, not the generator; a later Take may
				// still get a real card.
				return seed, nil
			}
			card = seed
		}

		f.mu.Lock()
		f.memo[seed] = card
		f.mu.Unlock()
		return card, nil
	})
	return v.(domain.TranslationCard)
}

func (f *NextCardFactory) lookup(seed domain.TranslationCard) (domain.TranslationCard, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.memo[seed]
	return card, ok
}
