package engine

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side { return -s }

type Kind int8

const (
	Limit Kind = iota
	Market
)

func (k Kind) String() string {
	if k == Market {
		return "market"
	}
	return "limit"
}

// Order is an intent to trade Qty lots of the instrument.
// Price is in integer ticks and is ignored for market orders.
// Qty is the remaining unfilled amount; the engine decrements it in place
// during matching and removes the order once it reaches zero.
type Order struct {
	ID        string
	Side      Side
	Kind      Kind
	Price     int64 // integer ticks; meaningless for market orders
	Qty       int64 // integer lots, > 0 while resting
	CreatedAt int64 // unix milliseconds, display only
}

// Trade is an immutable fact: Qty lots changed hands at Price.
// Price is always the maker's resting price. TakerSide is the side of the
// incoming order that triggered the match.
type Trade struct {
	ID          uint64
	Price       int64
	Qty         int64
	TakerSide   Side
	BuyOrderID  string
	SellOrderID string
	Timestamp   int64 // unix milliseconds
}
