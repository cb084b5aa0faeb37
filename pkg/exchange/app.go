// Package exchange is the state container around the matching engine. It
// owns one explicitly constructed engine, validates raw submissions before
// they reach it, assigns display-facing order ids, and fans executed trades
// out to the journal, the Kafka stream, and WebSocket subscribers.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/booklab-dev/matchbook/pkg/engine"
	"github.com/booklab-dev/matchbook/pkg/journal"
	"github.com/booklab-dev/matchbook/pkg/sim"
	"github.com/booklab-dev/matchbook/pkg/stream"
)

// Validation errors. The engine itself is permissive; everything below is
// rejected here so degenerate orders never reach the book.
var (
	ErrInvalidQty   = errors.New("order quantity must be positive")
	ErrInvalidPrice = errors.New("limit order price must be positive")
	ErrInvalidSide  = errors.New(`side must be "buy" or "sell"`)
	ErrInvalidKind  = errors.New(`kind must be "limit" or "market"`)
)

// OrderRequest is a raw, unvalidated submission from the API layer.
type OrderRequest struct {
	Side  string `json:"side"`  // "buy" | "sell"
	Kind  string `json:"kind"`  // "limit" | "market"
	Price int64  `json:"price"` // ticks; ignored for market orders
	Qty   int64  `json:"qty"`   // lots
}

// PlacedOrder is the outcome of one accepted submission.
type PlacedOrder struct {
	OrderID string
	Trades  []engine.Trade
	Resting *engine.Order // non-nil when a limit remainder rests
}

type App struct {
	symbol string
	eng    *engine.Engine
	logger *zap.SugaredLogger

	// Optional collaborators, wired by the composition root.
	Journal  *journal.Journal
	Producer *stream.Producer
	Feed     *sim.Feed // display-only feed; never touches the engine

	// Hooks for push-style consumers (WebSocket hub).
	OnTrade func(engine.Trade)
	OnBook  func(engine.Book)

	nextOrderID atomic.Uint64
}

func NewApp(symbol string, eng *engine.Engine, logger *zap.SugaredLogger) *App {
	return &App{symbol: symbol, eng: eng, logger: logger}
}

func (a *App) Symbol() string { return a.symbol }

// PlaceOrder validates req, submits it to the engine, and fans out the
// resulting trades. The returned PlacedOrder carries everything the caller
// needs to report back: assigned id, fills, and any resting remainder.
func (a *App) PlaceOrder(ctx context.Context, req OrderRequest) (PlacedOrder, error) {
	side, kind, err := parseSideKind(req.Side, req.Kind)
	if err != nil {
		return PlacedOrder{}, err
	}
	if req.Qty <= 0 {
		return PlacedOrder{}, ErrInvalidQty
	}
	if kind == engine.Limit && req.Price <= 0 {
		return PlacedOrder{}, ErrInvalidPrice
	}

	id := fmt.Sprintf("ord-%d", a.nextOrderID.Add(1))
	o := &engine.Order{
		ID:        id,
		Side:      side,
		Kind:      kind,
		Price:     req.Price,
		Qty:       req.Qty,
		CreatedAt: time.Now().UnixMilli(),
	}

	trades, resting := a.eng.Submit(o)
	a.fanOut(ctx, trades)
	a.notifyBook()

	a.logger.Infow("order_placed",
		"id", id, "side", side.String(), "kind", kind.String(),
		"price", req.Price, "qty", req.Qty,
		"fills", len(trades), "rested", resting != nil)

	return PlacedOrder{OrderID: id, Trades: trades, Resting: resting}, nil
}

// CancelOrder removes a resting order. Returns false if the id is unknown
// (already filled, already cancelled, or never existed).
func (a *App) CancelOrder(id string) bool {
	ok := a.eng.Remove(id)
	if ok {
		a.logger.Infow("order_cancelled", "id", id)
		a.notifyBook()
	}
	return ok
}

// Orderbook returns the aggregated engine book. This is the real book,
// distinct from the simulated display feed.
func (a *App) Orderbook(depth int) engine.Book {
	return a.eng.Snapshot(depth)
}

// RecentTrades returns up to limit engine trades, most recent first.
func (a *App) RecentTrades(limit int) []engine.Trade {
	trades := a.eng.Trades()
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades
}

// Reset clears the engine's book and trade log.
func (a *App) Reset() {
	a.eng.Clear()
	a.logger.Info("engine_reset")
	a.notifyBook()
}

// SimulatedBook returns the latest synthetic display snapshot, or a zero
// snapshot when the feed is disabled.
func (a *App) SimulatedBook() sim.Snapshot {
	if a.Feed == nil {
		return sim.Snapshot{}
	}
	return a.Feed.Latest()
}

func (a *App) fanOut(ctx context.Context, trades []engine.Trade) {
	for _, t := range trades {
		if a.Journal != nil {
			if err := a.Journal.Append(t); err != nil {
				a.logger.Warnw("journal_append_failed", "trade", t.ID, "err", err)
			}
		}
		if a.Producer != nil {
			if err := a.Producer.PublishTrade(ctx, t); err != nil {
				a.logger.Warnw("trade_publish_failed", "trade", t.ID, "err", err)
			}
		}
		if a.OnTrade != nil {
			a.OnTrade(t)
		}
	}
}

func (a *App) notifyBook() {
	if a.OnBook != nil {
		a.OnBook(a.eng.Snapshot(0))
	}
}

func parseSideKind(side, kind string) (engine.Side, engine.Kind, error) {
	var s engine.Side
	switch strings.ToLower(side) {
	case "buy":
		s = engine.Buy
	case "sell":
		s = engine.Sell
	default:
		return 0, 0, ErrInvalidSide
	}

	switch strings.ToLower(kind) {
	case "limit", "":
		return s, engine.Limit, nil
	case "market":
		return s, engine.Market, nil
	default:
		return 0, 0, ErrInvalidKind
	}
}
