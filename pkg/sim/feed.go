// Package sim generates a randomized order book and trade stream used
// purely for passive display. It is a second, independent source of "book"
// data: nothing produced here is ever routed into the matching engine or
// persisted as engine state.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Level struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// Snapshot is a synthetic book around a random-walk mid price.
type Snapshot struct {
	Bids      []Level `json:"bids"` // sorted high to low
	Asks      []Level `json:"asks"` // sorted low to high
	MidPrice  int64   `json:"midPrice"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// Tick is a synthetic trade print.
type Tick struct {
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
	Side      string `json:"side"`
	Timestamp int64  `json:"timestamp"`
}

// Generator produces synthetic market data deterministically from a seed.
type Generator struct {
	rng *rand.Rand
	mid int64
}

func NewGenerator(seed, startMid int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
		mid: startMid,
	}
}

// NextSnapshot advances the mid price by a small random step and builds a
// ladder of depth levels on each side, one tick apart, with noisy sizes.
func (g *Generator) NextSnapshot(depth int) Snapshot {
	// Random walk: ±0.2% of mid per step, at least one tick.
	step := g.mid / 500
	if step < 1 {
		step = 1
	}
	g.mid += g.rng.Int63n(2*step+1) - step
	if g.mid < 100 {
		g.mid = 100
	}

	snap := Snapshot{
		MidPrice:  g.mid,
		Timestamp: time.Now().UnixMilli(),
	}
	for i := 0; i < depth; i++ {
		qty := g.rng.Int63n(500) + 1
		snap.Bids = append(snap.Bids, Level{Price: g.mid - int64(i) - 1, Qty: qty})
		qty = g.rng.Int63n(500) + 1
		snap.Asks = append(snap.Asks, Level{Price: g.mid + int64(i) + 1, Qty: qty})
	}
	return snap
}

// NextTick prints a synthetic trade within one tick of the current mid.
func (g *Generator) NextTick() Tick {
	side := "buy"
	if g.rng.Intn(2) == 1 {
		side = "sell"
	}
	return Tick{
		Price:     g.mid + g.rng.Int63n(3) - 1,
		Qty:       g.rng.Int63n(50) + 1,
		Side:      side,
		Timestamp: time.Now().UnixMilli(),
	}
}

// FeedConfig controls the display feed cadence.
type FeedConfig struct {
	Interval time.Duration // snapshot refresh period
	Depth    int           // levels per side
	StartMid int64         // initial mid price in ticks
	Seed     int64         // rng seed; 0 means time-based
}

func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Interval: 500 * time.Millisecond,
		Depth:    12,
		StartMid: 10000,
	}
}

// FastFeedConfig refreshes at UI-stress cadence.
func FastFeedConfig() FeedConfig {
	return FeedConfig{
		Interval: 50 * time.Millisecond,
		Depth:    20,
		StartMid: 10000,
	}
}

// Feed runs the generator on a ticker and retains the latest snapshot for
// pull-style readers. Push-style consumers subscribe via the callbacks.
type Feed struct {
	cfg    FeedConfig
	gen    *Generator
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	latest Snapshot

	OnSnapshot func(Snapshot)
	OnTick     func(Tick)
}

func NewFeed(cfg FeedConfig, logger *zap.SugaredLogger) *Feed {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultFeedConfig().Depth
	}
	return &Feed{
		cfg:    cfg,
		gen:    NewGenerator(seed, cfg.StartMid),
		logger: logger,
	}
}

// Latest returns the most recent synthetic snapshot.
func (f *Feed) Latest() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest
}

// Start launches the feed loop. Returns a cancel function to stop it.
func (f *Feed) Start(ctx context.Context) context.CancelFunc {
	feedCtx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(f.cfg.Interval)
		defer ticker.Stop()

		f.logger.Infow("sim_feed_started", "interval", f.cfg.Interval, "depth", f.cfg.Depth)

		for {
			select {
			case <-feedCtx.Done():
				f.logger.Info("sim_feed_stopped")
				return
			case <-ticker.C:
				snap := f.gen.NextSnapshot(f.cfg.Depth)
				f.mu.Lock()
				f.latest = snap
				f.mu.Unlock()

				if f.OnSnapshot != nil {
					f.OnSnapshot(snap)
				}
				if f.OnTick != nil {
					f.OnTick(f.gen.NextTick())
				}
			}
		}
	}()

	return cancel
}
