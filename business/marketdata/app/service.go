// Package app contains application services and port definitions for the marketdata context.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/cex-arb/business/marketdata/domain"
	"github.com/fd1az/cex-arb/internal/apperror"
	"github.com/fd1az/cex-arb/internal/logger"
	"github.com/fd1az/cex-arb/internal/ratelimit"
)

// venueSource pairs a provider with its request guards.
type venueSource struct {
	provider QuoteProvider
	limiter  *ratelimit.Limiter
	breaker  *gobreaker.CircuitBreaker[[]domain.Quote]
}

// Service gathers quotes from every registered venue concurrently.
// A venue that fails a round is skipped; the round carries on with the rest.
type Service struct {
	sources     []venueSource
	maxQuoteAge time.Duration
	logger      logger.LoggerInterface
}

// NewService creates a Service with the given staleness bound.
func NewService(maxQuoteAge time.Duration, log logger.LoggerInterface) *Service {
	return &Service{maxQuoteAge: maxQuoteAge, logger: log}
}

// Register adds a venue. requestsPerMinute <= 0 disables pacing for streaming
// providers that serve from local state.
func (s *Service) Register(provider QuoteProvider, requestsPerMinute int) {
	src := venueSource{provider: provider}
	if requestsPerMinute > 0 {
		src.limiter = ratelimit.New(requestsPerMinute)
	}
	name := provider.Name()
	src.breaker = ratelimit.NewBreaker[[]domain.Quote](name, func(_ string, from, to gobreaker.State) {
		s.logger.Info(context.Background(), "venue breaker state change",
			"venue", name, "from", from.String(), "to", to.String())
	})
	s.sources = append(s.sources, src)
}

// Providers returns the registered providers, for shutdown.
func (s *Service) Providers() []QuoteProvider {
	out := make([]QuoteProvider, len(s.sources))
	for i, src := range s.sources {
		out[i] = src.provider
	}
	return out
}

// Snapshot fans out to every venue and merges the quotes that came back
// valid and fresh. An empty snapshot is a normal outcome, not an error.
func (s *Service) Snapshot(ctx context.Context, symbols []domain.Symbol) (*domain.Snapshot, error) {
	now := time.Now()
	snap := domain.NewSnapshot(now)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, src := range s.sources {
		g.Go(func() error {
			quotes, err := s.fetch(gctx, src, symbols)
			if err != nil {
				// Transient venue failures only cost us this venue's quotes.
				s.logger.Warn(gctx, "venue fetch failed, skipping venue",
					"venue", src.provider.Name(), "error", err)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, q := range quotes {
				if err := q.Validate(); err != nil {
					s.logger.Debug(gctx, "dropping invalid quote",
						"venue", q.Venue, "symbol", q.Symbol.String(), "error", err)
					continue
				}
				if q.IsStale(now, s.maxQuoteAge) {
					s.logger.Debug(gctx, "dropping stale quote",
						"venue", q.Venue, "symbol", q.Symbol.String(), "age", q.Age(now).String())
					continue
				}
				snap.Add(q)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Service) fetch(ctx context.Context, src venueSource, symbols []domain.Symbol) ([]domain.Quote, error) {
	if src.limiter != nil {
		if err := src.limiter.Wait(ctx); err != nil {
			return nil, apperror.Transient(apperror.CodeVenueRateLimited, src.provider.Name(), err)
		}
	}
	quotes, err := src.breaker.Execute(func() ([]domain.Quote, error) {
		return src.provider.FetchQuotes(ctx, symbols)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, apperror.Transient(apperror.CodeCircuitOpen, src.provider.Name(), err)
		}
		return nil, apperror.Transient(apperror.CodeTickerFetchFailed, src.provider.Name(), err)
	}
	return quotes, nil
}

// Close shuts down all providers.
func (s *Service) Close() {
	for _, src := range s.sources {
		if err := src.provider.Close(); err != nil {
			s.logger.Warn(context.Background(), "provider close failed",
				"venue", src.provider.Name(), "error", err)
		}
	}
}
