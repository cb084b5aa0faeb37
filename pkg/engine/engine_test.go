package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/booklab-dev/matchbook/pkg/util"
)

func newTestEngine() *Engine {
	return NewWithClock(util.NewManualClock(time.Unix(1700000000, 0)))
}

func limit(id string, side Side, price, qty int64) *Order {
	return &Order{ID: id, Side: side, Kind: Limit, Price: price, Qty: qty}
}

func market(id string, side Side, qty int64) *Order {
	return &Order{ID: id, Side: side, Kind: Market, Qty: qty}
}

// Resting asks {100x5, 101x3}, market buy 7 -> fills 5@100 then 2@101,
// nothing rests, ask book left with 101x1.
func TestMarketBuySweepsAsksInPriceOrder(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("a1", Sell, 100, 5))
	e.Submit(limit("a2", Sell, 101, 3))

	trades, rest := e.Submit(market("m1", Buy, 7))
	if rest != nil {
		t.Fatalf("market order rested: %+v", rest)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Price != 100 || trades[0].Qty != 5 {
		t.Errorf("trade 0 = %d@%d, want 5@100", trades[0].Qty, trades[0].Price)
	}
	if trades[1].Price != 101 || trades[1].Qty != 2 {
		t.Errorf("trade 1 = %d@%d, want 2@101", trades[1].Qty, trades[1].Price)
	}

	book := e.Snapshot(0)
	if len(book.Asks) != 1 || book.Asks[0].Price != 101 || book.Asks[0].Qty != 1 {
		t.Errorf("remaining asks = %+v, want one level 101x1", book.Asks)
	}
}

// Limit buy at 100 against resting ask at 99 trades at the maker's 99.
func TestTradePriceIsMakersPrice(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("a1", Sell, 99, 3))

	trades, rest := e.Submit(limit("b1", Buy, 100, 2))
	if rest != nil {
		t.Fatalf("fully filled buy rested: %+v", rest)
	}
	if len(trades) != 1 || trades[0].Price != 99 || trades[0].Qty != 2 {
		t.Fatalf("trades = %+v, want one trade 2@99", trades)
	}

	book := e.Snapshot(0)
	if len(book.Asks) != 1 || book.Asks[0].Qty != 1 {
		t.Errorf("remaining ask qty = %+v, want 1", book.Asks)
	}
}

// Partial fill of a resting order decrements it in place.
func TestPartialFillLeavesRemainderResting(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("s1", Sell, 100, 10))

	trades, rest := e.Submit(limit("b1", Buy, 100, 6))
	if rest != nil {
		t.Fatalf("unexpected remainder: %+v", rest)
	}
	if len(trades) != 1 || trades[0].Price != 100 || trades[0].Qty != 6 {
		t.Fatalf("trades = %+v, want one trade 6@100", trades)
	}

	book := e.Snapshot(0)
	if len(book.Asks) != 1 || book.Asks[0].Qty != 4 {
		t.Errorf("resting ask = %+v, want 100x4", book.Asks)
	}
}

func TestPricePriorityBeatsArrivalOrder(t *testing.T) {
	e := newTestEngine()
	// Worse-priced ask arrives first.
	e.Submit(limit("worse", Sell, 101, 5))
	e.Submit(limit("better", Sell, 100, 5))

	trades, _ := e.Submit(market("m1", Buy, 5))
	if len(trades) != 1 || trades[0].SellOrderID != "better" {
		t.Fatalf("trades = %+v, want fill against 'better'", trades)
	}
}

func TestTimePriorityAtEqualPrice(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("first", Sell, 100, 5))
	e.Submit(limit("second", Sell, 100, 5))

	trades, _ := e.Submit(limit("b1", Buy, 100, 7))
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].SellOrderID != "first" || trades[0].Qty != 5 {
		t.Errorf("trade 0 = %+v, want first fully consumed", trades[0])
	}
	if trades[1].SellOrderID != "second" || trades[1].Qty != 2 {
		t.Errorf("trade 1 = %+v, want 2 lots of second", trades[1])
	}
}

func TestLimitRemainderRests(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("s1", Sell, 100, 3))

	trades, rest := e.Submit(limit("b1", Buy, 100, 10))
	if len(trades) != 1 || trades[0].Qty != 3 {
		t.Fatalf("trades = %+v, want one trade of 3", trades)
	}
	if rest == nil || rest.Qty != 7 || rest.Price != 100 {
		t.Fatalf("remainder = %+v, want 7@100", rest)
	}

	book := e.Snapshot(0)
	if len(book.Bids) != 1 || book.Bids[0].Price != 100 || book.Bids[0].Qty != 7 {
		t.Errorf("bids = %+v, want 100x7", book.Bids)
	}

	// Mutating the returned remainder must not reach into the book.
	rest.Qty = 999
	book = e.Snapshot(0)
	if book.Bids[0].Qty != 7 {
		t.Errorf("engine observed caller mutation: bid qty = %d", book.Bids[0].Qty)
	}
}

func TestUnfilledMarketOrderIsDiscarded(t *testing.T) {
	e := newTestEngine()

	trades, rest := e.Submit(market("m1", Buy, 5))
	if len(trades) != 0 || rest != nil {
		t.Fatalf("empty book market order: trades=%v rest=%v", trades, rest)
	}
	if got := e.RestingOrders(); got != 0 {
		t.Errorf("resting orders = %d, want 0", got)
	}

	// Partially fillable: leftover is still discarded.
	e.Submit(limit("s1", Sell, 100, 2))
	trades, rest = e.Submit(market("m2", Buy, 5))
	if len(trades) != 1 || trades[0].Qty != 2 {
		t.Fatalf("trades = %+v, want one trade of 2", trades)
	}
	if rest != nil {
		t.Errorf("market remainder rested: %+v", rest)
	}
	if got := e.RestingOrders(); got != 0 {
		t.Errorf("resting orders = %d, want 0", got)
	}
}

func TestLimitBuyDoesNotCrossWorsePricedAsk(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("s1", Sell, 105, 5))

	trades, rest := e.Submit(limit("b1", Buy, 100, 5))
	if len(trades) != 0 {
		t.Fatalf("crossed through limit: %+v", trades)
	}
	if rest == nil || rest.Qty != 5 {
		t.Fatalf("remainder = %+v, want full 5 resting", rest)
	}
}

func TestLimitSellMatchesHighestBidFirst(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("low", Buy, 98, 4))
	e.Submit(limit("high", Buy, 99, 4))

	trades, rest := e.Submit(limit("s1", Sell, 98, 6))
	if rest != nil {
		t.Fatalf("unexpected remainder: %+v", rest)
	}
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].Price != 99 || trades[0].BuyOrderID != "high" {
		t.Errorf("trade 0 = %+v, want 4@99 against 'high'", trades[0])
	}
	if trades[1].Price != 98 || trades[1].Qty != 2 {
		t.Errorf("trade 1 = %+v, want 2@98", trades[1])
	}
}

func TestTradeRecordsTakerSideAndCounterparties(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("maker", Sell, 100, 5))

	trades, _ := e.Submit(limit("taker", Buy, 100, 5))
	tr := trades[0]
	if tr.TakerSide != Buy {
		t.Errorf("taker side = %v, want buy", tr.TakerSide)
	}
	if tr.BuyOrderID != "taker" || tr.SellOrderID != "maker" {
		t.Errorf("counterparties = %s/%s, want taker/maker", tr.BuyOrderID, tr.SellOrderID)
	}

	e.Submit(limit("maker2", Buy, 100, 5))
	trades, _ = e.Submit(market("taker2", Sell, 5))
	tr = trades[0]
	if tr.TakerSide != Sell || tr.BuyOrderID != "maker2" || tr.SellOrderID != "taker2" {
		t.Errorf("sell-side trade = %+v", tr)
	}
}

func TestTradeIDsAreMonotonic(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 5; i++ {
		e.Submit(limit(fmt.Sprintf("s%d", i), Sell, 100, 1))
	}
	trades, _ := e.Submit(market("m1", Buy, 5))
	for i := 1; i < len(trades); i++ {
		if trades[i].ID != trades[i-1].ID+1 {
			t.Fatalf("trade ids not monotonic: %d then %d", trades[i-1].ID, trades[i].ID)
		}
	}
}

func TestTradesReturnsMostRecentFirstCopy(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("s1", Sell, 100, 1))
	e.Submit(limit("s2", Sell, 101, 1))
	e.Submit(market("m1", Buy, 2))

	log := e.Trades()
	if len(log) != 2 {
		t.Fatalf("trade log len = %d, want 2", len(log))
	}
	if log[0].ID <= log[1].ID {
		t.Errorf("log not most-recent-first: %d, %d", log[0].ID, log[1].ID)
	}

	log[0].Qty = 999
	if e.Trades()[0].Qty == 999 {
		t.Error("trade log exposed internal slice")
	}
}

func TestRemove(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("b1", Buy, 99, 5))
	e.Submit(limit("s1", Sell, 101, 5))

	if !e.Remove("b1") {
		t.Error("expected removal of b1")
	}
	if e.Remove("b1") {
		t.Error("double removal reported success")
	}
	if e.Remove("nope") {
		t.Error("removal of unknown id reported success")
	}

	book := e.Snapshot(0)
	if len(book.Bids) != 0 || len(book.Asks) != 1 {
		t.Errorf("book after cancel = %+v", book)
	}

	// Cancelled order is no longer matchable.
	trades, _ := e.Submit(market("m1", Sell, 5))
	if len(trades) != 0 {
		t.Errorf("matched against cancelled order: %+v", trades)
	}
}

func TestClear(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("b1", Buy, 99, 5))
	e.Submit(limit("s1", Sell, 100, 5))
	e.Submit(market("m1", Buy, 2))

	e.Clear()

	book := e.Snapshot(0)
	if len(book.Bids) != 0 || len(book.Asks) != 0 {
		t.Errorf("book not empty after clear: %+v", book)
	}
	if book.MidPrice != 0 || book.Spread != 0 {
		t.Errorf("mid=%v spread=%v, want 0/0", book.MidPrice, book.Spread)
	}
	if got := e.Trades(); len(got) != 0 {
		t.Errorf("trade log not empty after clear: %v", got)
	}
}

// Sum of fills against one resting order never exceeds its original quantity.
func TestQuantityConservation(t *testing.T) {
	e := newTestEngine()
	e.Submit(limit("s1", Sell, 100, 10))

	var filled int64
	for i := 0; i < 6; i++ {
		trades, _ := e.Submit(market(fmt.Sprintf("m%d", i), Buy, 3))
		for _, tr := range trades {
			if tr.SellOrderID == "s1" {
				filled += tr.Qty
			}
		}
	}
	if filled != 10 {
		t.Errorf("total filled against s1 = %d, want exactly 10", filled)
	}
	if got := e.RestingOrders(); got != 0 {
		t.Errorf("resting orders = %d, want 0", got)
	}
}

// Same book, same order -> same trades, every time.
func TestDeterministicMatching(t *testing.T) {
	run := func() []Trade {
		e := newTestEngine()
		e.Submit(limit("a", Sell, 101, 3))
		e.Submit(limit("b", Sell, 100, 2))
		e.Submit(limit("c", Sell, 100, 4))
		trades, _ := e.Submit(limit("t", Buy, 101, 8))
		return trades
	}

	first := run()
	for i := 0; i < 3; i++ {
		again := run()
		if len(again) != len(first) {
			t.Fatalf("run %d: %d trades vs %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d trade %d: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}

func BenchmarkSubmit(b *testing.B) {
	e := New()

	// Pre-fill with 100 price levels per side (realistic depth)
	for i := 0; i < 100; i++ {
		e.Submit(limit(fmt.Sprintf("bid-%d", i), Buy, int64(1000-i), 100))
		e.Submit(limit(fmt.Sprintf("ask-%d", i), Sell, int64(1100+i), 100))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := Buy
		if i%2 == 0 {
			side = Sell
		}
		e.Submit(&Order{ID: fmt.Sprintf("bench-%d", i), Side: side, Kind: Limit, Price: 1050, Qty: 10})
	}
}
