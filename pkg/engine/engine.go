package engine

import (
	"container/heap"
	"sync"

	"github.com/booklab-dev/matchbook/pkg/util"
)

// Engine is the matching core for a single instrument. It owns the resting
// limit orders and the append-only trade log. All mutation goes through the
// internal mutex, so Submit/Remove/Clear are safe to call from multiple
// goroutines and price-time priority stays deterministic.
//
// The engine performs no validation: callers must reject non-positive
// quantities (and non-positive limit prices) before submitting.
type Engine struct {
	mu sync.RWMutex

	// Heap-based best price tracking (O(1) peek)
	bidHeap *maxPriceHeap
	askHeap *minPriceHeap

	// Price level queues (FIFO matching at each price)
	bids map[int64][]*Order // price -> FIFO slice
	asks map[int64][]*Order

	// Order index for O(1) cancellation
	orderIndex map[string]int64 // order ID -> resting price

	trades      []Trade // append-only, oldest first
	nextTradeID uint64

	clock util.Clock
}

// New creates an empty engine using the real wall clock for trade timestamps.
func New() *Engine {
	return NewWithClock(util.RealClock{})
}

// NewWithClock creates an empty engine with an injected clock.
func NewWithClock(c util.Clock) *Engine {
	bidHeap := &maxPriceHeap{}
	askHeap := &minPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	return &Engine{
		bidHeap:    bidHeap,
		askHeap:    askHeap,
		bids:       make(map[int64][]*Order),
		asks:       make(map[int64][]*Order),
		orderIndex: make(map[string]int64),
		clock:      c,
	}
}

// bestBid returns the highest bid price (O(1) with heap)
func (e *Engine) bestBid() (int64, bool) {
	if e.bidHeap.Len() == 0 {
		return 0, false
	}
	return e.bidHeap.Peek(), true
}

// bestAsk returns the lowest ask price (O(1) with heap)
func (e *Engine) bestAsk() (int64, bool) {
	if e.askHeap.Len() == 0 {
		return 0, false
	}
	return e.askHeap.Peek(), true
}

func (e *Engine) addBid(p int64, o *Order) {
	if len(e.bids[p]) == 0 {
		heap.Push(e.bidHeap, p)
	}
	e.bids[p] = append(e.bids[p], o)
	e.orderIndex[o.ID] = p
}

func (e *Engine) addAsk(p int64, o *Order) {
	if len(e.asks[p]) == 0 {
		heap.Push(e.askHeap, p)
	}
	e.asks[p] = append(e.asks[p], o)
	e.orderIndex[o.ID] = p
}

// Submit matches o against the opposite side of the resting book, returning
// the trades generated by this call in generation order and, for a limit
// order with leftover quantity, a copy of the remainder now resting in the
// book. Market orders never rest: unfilled market quantity is discarded.
//
// Matching walks eligible resting orders best price first, FIFO within a
// price level. Every trade executes at the maker's resting price.
func (e *Engine) Submit(o *Order) ([]Trade, *Order) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var trades []Trade

	if o.Side == Buy {
		for o.Qty > 0 {
			askP, ok := e.bestAsk()
			if !ok || (o.Kind == Limit && askP > o.Price) {
				break
			}
			level := e.asks[askP]
			if len(level) == 0 {
				delete(e.asks, askP)
				e.removeFromAskHeap(askP)
				continue
			}
			maker := level[0]
			match := min(o.Qty, maker.Qty)
			o.Qty -= match
			maker.Qty -= match
			trades = append(trades, e.emitTrade(o, maker, askP, match))
			if maker.Qty == 0 {
				e.asks[askP] = level[1:]
				delete(e.orderIndex, maker.ID)
				if len(e.asks[askP]) == 0 {
					delete(e.asks, askP)
					e.removeFromAskHeap(askP)
				}
			}
		}
		if o.Qty > 0 && o.Kind == Limit {
			cp := *o
			e.addBid(o.Price, &cp)
			rest := cp
			return trades, &rest
		}
	} else { // Sell
		for o.Qty > 0 {
			bidP, ok := e.bestBid()
			if !ok || (o.Kind == Limit && bidP < o.Price) {
				break
			}
			level := e.bids[bidP]
			if len(level) == 0 {
				delete(e.bids, bidP)
				e.removeFromBidHeap(bidP)
				continue
			}
			maker := level[0]
			match := min(o.Qty, maker.Qty)
			o.Qty -= match
			maker.Qty -= match
			trades = append(trades, e.emitTrade(o, maker, bidP, match))
			if maker.Qty == 0 {
				e.bids[bidP] = level[1:]
				delete(e.orderIndex, maker.ID)
				if len(e.bids[bidP]) == 0 {
					delete(e.bids, bidP)
					e.removeFromBidHeap(bidP)
				}
			}
		}
		if o.Qty > 0 && o.Kind == Limit {
			cp := *o
			e.addAsk(o.Price, &cp)
			rest := cp
			return trades, &rest
		}
	}

	return trades, nil
}

// emitTrade appends one trade to the log with the next monotonic id.
// Buyer/seller ids are taken from whichever of taker/maker is on each side.
func (e *Engine) emitTrade(taker, maker *Order, price, qty int64) Trade {
	e.nextTradeID++
	t := Trade{
		ID:        e.nextTradeID,
		Price:     price,
		Qty:       qty,
		TakerSide: taker.Side,
		Timestamp: e.clock.Now().UnixMilli(),
	}
	if taker.Side == Buy {
		t.BuyOrderID, t.SellOrderID = taker.ID, maker.ID
	} else {
		t.BuyOrderID, t.SellOrderID = maker.ID, taker.ID
	}
	e.trades = append(e.trades, t)
	return t
}

// Remove cancels a resting order by id. Returns whether a removal occurred.
// The trade log is unaffected.
func (e *Engine) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	price, ok := e.orderIndex[id]
	if !ok {
		return false
	}

	if arr, exists := e.bids[price]; exists {
		for i, o := range arr {
			if o.ID == id {
				e.bids[price] = append(arr[:i], arr[i+1:]...)
				if len(e.bids[price]) == 0 {
					delete(e.bids, price)
					e.removeFromBidHeap(price)
				}
				delete(e.orderIndex, id)
				return true
			}
		}
	}

	if arr, exists := e.asks[price]; exists {
		for i, o := range arr {
			if o.ID == id {
				e.asks[price] = append(arr[:i], arr[i+1:]...)
				if len(e.asks[price]) == 0 {
					delete(e.asks, price)
					e.removeFromAskHeap(price)
				}
				delete(e.orderIndex, id)
				return true
			}
		}
	}

	return false
}

// Clear resets the resting set and the trade log to empty.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	bidHeap := &maxPriceHeap{}
	askHeap := &minPriceHeap{}
	heap.Init(bidHeap)
	heap.Init(askHeap)

	e.bidHeap = bidHeap
	e.askHeap = askHeap
	e.bids = make(map[int64][]*Order)
	e.asks = make(map[int64][]*Order)
	e.orderIndex = make(map[string]int64)
	e.trades = nil
	e.nextTradeID = 0
}

// Trades returns a copy of the trade log, most recent first.
func (e *Engine) Trades() []Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Trade, len(e.trades))
	for i, t := range e.trades {
		out[len(e.trades)-1-i] = t
	}
	return out
}

// RestingOrders returns the number of orders currently in the book.
func (e *Engine) RestingOrders() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.orderIndex)
}

// removeFromBidHeap removes a price level from the bid heap (O(N) worst case, but rare)
func (e *Engine) removeFromBidHeap(price int64) {
	for i := 0; i < e.bidHeap.Len(); i++ {
		if (*e.bidHeap)[i] == price {
			heap.Remove(e.bidHeap, i)
			return
		}
	}
}

// removeFromAskHeap removes a price level from the ask heap (O(N) worst case, but rare)
func (e *Engine) removeFromAskHeap(price int64) {
	for i := 0; i < e.askHeap.Len(); i++ {
		if (*e.askHeap)[i] == price {
			heap.Remove(e.askHeap, i)
			return
		}
	}
}
