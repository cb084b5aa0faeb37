package engine

import "sort"

// DefaultDepth is the number of price levels per side returned by Snapshot
// when the caller does not ask for a specific depth.
const DefaultDepth = 20

// Level aggregates all resting quantity at one price on one side.
// Total is the cumulative depth: this level's quantity plus every
// better-priced level's quantity on the same side.
type Level struct {
	Price  int64
	Qty    int64
	Total  int64
	Orders int
}

// Book is a point-in-time snapshot of the aggregated order book.
// Bids are sorted best (highest) price first, asks best (lowest) first.
// MidPrice is float so a 99/100 market reads 99.5, not 99.
type Book struct {
	Bids     []Level
	Asks     []Level
	BestBid  int64 // 0 when no bids
	BestAsk  int64 // 0 when no asks
	MidPrice float64
	Spread   int64
}

// Snapshot aggregates the resting set into at most depth price levels per
// side. depth <= 0 means DefaultDepth. Pure read: the returned book is a
// copy and never observes later engine mutation.
func (e *Engine) Snapshot(depth int) Book {
	if depth <= 0 {
		depth = DefaultDepth
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	bids := aggregateSide(e.bids, depth, func(a, b int64) bool { return a > b })
	asks := aggregateSide(e.asks, depth, func(a, b int64) bool { return a < b })

	book := Book{Bids: bids, Asks: asks}
	if len(bids) > 0 {
		book.BestBid = bids[0].Price
	}
	if len(asks) > 0 {
		book.BestAsk = asks[0].Price
	}
	if book.BestBid > 0 && book.BestAsk > 0 {
		book.MidPrice = float64(book.BestBid+book.BestAsk) / 2
		book.Spread = book.BestAsk - book.BestBid
	}
	return book
}

// aggregateSide groups one side's FIFO queues into sorted levels with
// cumulative totals, truncated to depth.
func aggregateSide(side map[int64][]*Order, depth int, better func(a, b int64) bool) []Level {
	levels := make([]Level, 0, len(side))
	for price, orders := range side {
		if len(orders) == 0 {
			continue
		}
		var qty int64
		for _, o := range orders {
			qty += o.Qty
		}
		levels = append(levels, Level{Price: price, Qty: qty, Orders: len(orders)})
	}

	sort.Slice(levels, func(i, j int) bool {
		return better(levels[i].Price, levels[j].Price)
	})

	if len(levels) > depth {
		levels = levels[:depth]
	}

	var total int64
	for i := range levels {
		total += levels[i].Qty
		levels[i].Total = total
	}
	return levels
}
