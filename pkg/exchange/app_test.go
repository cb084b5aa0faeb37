package exchange

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/booklab-dev/matchbook/pkg/engine"
)

func newTestApp() *App {
	return NewApp("TEST-USD", engine.New(), zap.NewNop().Sugar())
}

func TestPlaceOrderValidation(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     OrderRequest
		wantErr error
	}{
		{
			name:    "zero quantity",
			req:     OrderRequest{Side: "buy", Kind: "limit", Price: 100, Qty: 0},
			wantErr: ErrInvalidQty,
		},
		{
			name:    "negative quantity",
			req:     OrderRequest{Side: "sell", Kind: "market", Qty: -3},
			wantErr: ErrInvalidQty,
		},
		{
			name:    "zero price limit",
			req:     OrderRequest{Side: "buy", Kind: "limit", Price: 0, Qty: 5},
			wantErr: ErrInvalidPrice,
		},
		{
			name:    "bad side",
			req:     OrderRequest{Side: "long", Kind: "limit", Price: 100, Qty: 5},
			wantErr: ErrInvalidSide,
		},
		{
			name:    "bad kind",
			req:     OrderRequest{Side: "buy", Kind: "stop", Price: 100, Qty: 5},
			wantErr: ErrInvalidKind,
		},
		{
			name: "market order ignores price",
			req:  OrderRequest{Side: "buy", Kind: "market", Price: 0, Qty: 5},
		},
		{
			name: "kind defaults to limit",
			req:  OrderRequest{Side: "buy", Price: 100, Qty: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.PlaceOrder(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Rejected orders never touch the book.
	book := app.Orderbook(0)
	if len(book.Asks) != 0 {
		t.Errorf("rejected order reached the book: %+v", book.Asks)
	}
}

func TestPlaceOrderAssignsSequentialIDs(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	first, err := app.PlaceOrder(ctx, OrderRequest{Side: "buy", Kind: "limit", Price: 100, Qty: 1})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	second, _ := app.PlaceOrder(ctx, OrderRequest{Side: "buy", Kind: "limit", Price: 99, Qty: 1})

	if first.OrderID != "ord-1" || second.OrderID != "ord-2" {
		t.Errorf("ids = %s, %s, want ord-1, ord-2", first.OrderID, second.OrderID)
	}
}

func TestPlaceOrderMatchAndFanOut(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	var gotTrades []engine.Trade
	var bookUpdates int
	app.OnTrade = func(t engine.Trade) { gotTrades = append(gotTrades, t) }
	app.OnBook = func(engine.Book) { bookUpdates++ }

	app.PlaceOrder(ctx, OrderRequest{Side: "sell", Kind: "limit", Price: 100, Qty: 5})
	res, err := app.PlaceOrder(ctx, OrderRequest{Side: "buy", Kind: "limit", Price: 100, Qty: 3})
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if len(res.Trades) != 1 || res.Trades[0].Price != 100 || res.Trades[0].Qty != 3 {
		t.Fatalf("trades = %+v, want one 3@100", res.Trades)
	}
	if res.Resting != nil {
		t.Errorf("fully filled buy rested: %+v", res.Resting)
	}
	if len(gotTrades) != 1 {
		t.Errorf("OnTrade fired %d times, want 1", len(gotTrades))
	}
	if bookUpdates != 2 {
		t.Errorf("OnBook fired %d times, want 2", bookUpdates)
	}
	if got := app.RecentTrades(10); len(got) != 1 {
		t.Errorf("recent trades = %+v", got)
	}
}

func TestCancelOrder(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	res, _ := app.PlaceOrder(ctx, OrderRequest{Side: "buy", Kind: "limit", Price: 100, Qty: 5})
	if !app.CancelOrder(res.OrderID) {
		t.Error("cancel of resting order failed")
	}
	if app.CancelOrder(res.OrderID) {
		t.Error("second cancel reported success")
	}
	if app.CancelOrder("ord-999") {
		t.Error("cancel of unknown id reported success")
	}
}

func TestReset(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	app.PlaceOrder(ctx, OrderRequest{Side: "sell", Kind: "limit", Price: 100, Qty: 5})
	app.PlaceOrder(ctx, OrderRequest{Side: "buy", Kind: "market", Qty: 2})
	app.Reset()

	book := app.Orderbook(0)
	if len(book.Bids)+len(book.Asks) != 0 || len(app.RecentTrades(10)) != 0 {
		t.Errorf("state survived reset: book=%+v trades=%v", book, app.RecentTrades(10))
	}
}

func TestSimulatedBookWithoutFeed(t *testing.T) {
	app := newTestApp()
	snap := app.SimulatedBook()
	if len(snap.Bids) != 0 || len(snap.Asks) != 0 {
		t.Errorf("expected zero snapshot without feed, got %+v", snap)
	}
}
