package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	sig "github.com/Ianhayes66/pairsplus-bot/internal/signal"
)

const defaultPollInterval = 60 * time.Minute

// Poller reruns the engine cycle on a fixed interval. Cycles run on the
// driver goroutine, so a slow cycle delays the next tick instead of
// overlapping it.
type Poller struct {
	Engine   *Engine
	Interval time.Duration
	Log      zerolog.Logger
}

// Run executes one cycle immediately and then on every tick until the
// context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	p.Log.Info().Dur("interval", interval).Msg("polling driver started")

	if err := p.Engine.RunCycle(ctx); err != nil {
		p.Log.Warn().Err(err).Msg("cycle failed")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Log.Info().Msg("polling driver stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Engine.RunCycle(ctx); err != nil {
				p.Log.Warn().Err(err).Msg("cycle failed")
			}
		}
	}
}

// Streamer runs one engine cycle for every live bar received. Bars arriving
// while a cycle is in flight wait in the channel; cycles never overlap.
type Streamer struct {
	Engine *Engine
	Bars   <-chan sig.Bar
	Log    zerolog.Logger
}

// Run consumes bars until the channel closes or the context is canceled.
func (s *Streamer) Run(ctx context.Context) error {
	s.Log.Info().Msg("streaming driver started")
	for {
		select {
		case <-ctx.Done():
			s.Log.Info().Msg("streaming driver stopped")
			return ctx.Err()
		case bar, ok := <-s.Bars:
			if !ok {
				s.Log.Info().Msg("bar stream closed")
				return nil
			}
			s.Log.Debug().Str("sym", bar.Symbol).Float64("price", bar.Price).Time("ts", bar.Ts).Msg("bar received")
			if err := s.Engine.RunCycle(ctx); err != nil {
				s.Log.Warn().Err(err).Msg("cycle failed")
			}
		}
	}
}
