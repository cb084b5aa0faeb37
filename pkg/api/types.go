package api

// API response types for REST endpoints and WebSocket messages

// ==============================
// REST Response Types
// ==============================

// PriceLevel represents one aggregated price level
type PriceLevel struct {
	Price  int64 `json:"price"`  // Price in ticks
	Qty    int64 `json:"qty"`    // Aggregate quantity at this price
	Total  int64 `json:"total"`  // Cumulative depth including better levels
	Orders int   `json:"orders"` // Contributing order count
}

// OrderbookSnapshot represents current engine book state
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"` // Sorted high to low
	Asks      []PriceLevel `json:"asks"` // Sorted low to high
	BestBid   int64        `json:"bestBid"`
	BestAsk   int64        `json:"bestAsk"`
	MidPrice  float64      `json:"midPrice"`
	Spread    int64        `json:"spread"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

// TradeInfo represents an executed trade
type TradeInfo struct {
	ID          uint64 `json:"id"`
	Price       int64  `json:"price"`
	Qty         int64  `json:"qty"`
	Side        string `json:"side"` // taker side: "buy" or "sell"
	BuyOrderID  string `json:"buyOrderId"`
	SellOrderID string `json:"sellOrderId"`
	Timestamp   int64  `json:"timestamp"` // Unix milliseconds
}

// ==============================
// REST Request Types
// ==============================

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel
type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
}

// SubmitOrderResponse is the response from order submission
type SubmitOrderResponse struct {
	Status  string      `json:"status"` // "filled", "partial", "resting", "unfilled"
	OrderID string      `json:"orderId"`
	Trades  []TradeInfo `json:"trades"`
	Resting int64       `json:"restingQty"` // quantity left resting in the book
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // "orderbook", "trades", "sim"
}

// OrderbookUpdate is broadcast whenever the engine book changes
type OrderbookUpdate struct {
	Type      string       `json:"type"` // "orderbook"
	Symbol    string       `json:"symbol"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	MidPrice  float64      `json:"midPrice"`
	Spread    int64        `json:"spread"`
	Timestamp int64        `json:"timestamp"`
}

// TradeUpdate is broadcast when a trade executes
type TradeUpdate struct {
	Type      string `json:"type"` // "trade"
	Symbol    string `json:"symbol"`
	ID        uint64 `json:"id"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
	Side      string `json:"side"`
	Timestamp int64  `json:"timestamp"`
}

// SimUpdate is broadcast for the synthetic display feed. Kept on its own
// channel so clients cannot mistake it for the real engine book.
type SimUpdate struct {
	Type string      `json:"type"` // "sim"
	Data interface{} `json:"data"`
}
