package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/booklab-dev/matchbook/pkg/engine"
	"github.com/booklab-dev/matchbook/pkg/exchange"
)

// Server exposes the exchange over REST and WebSocket.
type Server struct {
	app    *exchange.App
	router *mux.Router
	hub    *Hub
	logger *zap.SugaredLogger
}

func NewServer(app *exchange.App, logger *zap.SugaredLogger) *Server {
	s := &Server{
		app:    app,
		router: mux.NewRouter(),
		hub:    NewHub(logger),
		logger: logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Engine book and trades
	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	// Order submission and cancellation
	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/reset", s.handleReset).Methods("POST")

	// Synthetic display feed (independent of the engine book)
	api.HandleFunc("/sim/orderbook", s.handleGetSimBook).Methods("GET")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the WebSocket hub and serves HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	s.logger.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	depth := 0
	if d := r.URL.Query().Get("depth"); d != "" {
		if n, err := strconv.Atoi(d); err == nil {
			depth = n
		}
	}

	book := s.app.Orderbook(depth)
	respondJSON(w, bookToSnapshot(s.app.Symbol(), book))
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	trades := s.app.RecentTrades(limit)
	out := make([]TradeInfo, len(trades))
	for i, t := range trades {
		out[i] = tradeToInfo(t)
	}
	respondJSON(w, out)
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req exchange.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	placed, err := s.app.PlaceOrder(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "order rejected", err.Error())
		return
	}

	resp := SubmitOrderResponse{
		OrderID: placed.OrderID,
		Trades:  make([]TradeInfo, len(placed.Trades)),
	}
	for i, t := range placed.Trades {
		resp.Trades[i] = tradeToInfo(t)
	}

	switch {
	case placed.Resting != nil && len(placed.Trades) > 0:
		resp.Status = "partial"
		resp.Resting = placed.Resting.Qty
	case placed.Resting != nil:
		resp.Status = "resting"
		resp.Resting = placed.Resting.Qty
	case len(placed.Trades) > 0:
		resp.Status = "filled"
	default:
		resp.Status = "unfilled"
	}

	respondJSON(w, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusBadRequest, "missing orderId", "")
		return
	}

	if !s.app.CancelOrder(req.OrderID) {
		respondError(w, http.StatusNotFound, "order not found", req.OrderID)
		return
	}
	respondJSON(w, map[string]string{"status": "cancelled", "orderId": req.OrderID})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.app.Reset()
	respondJSON(w, map[string]string{"status": "reset"})
}

func (s *Server) handleGetSimBook(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.app.SimulatedBook())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Broadcast Methods (wired to exchange hooks)
// ==============================

// BroadcastTrade pushes one executed trade to "trades" subscribers.
func (s *Server) BroadcastTrade(t engine.Trade) {
	s.hub.BroadcastToChannel("trades", TradeUpdate{
		Type:      "trade",
		Symbol:    s.app.Symbol(),
		ID:        t.ID,
		Price:     t.Price,
		Qty:       t.Qty,
		Side:      t.TakerSide.String(),
		Timestamp: t.Timestamp,
	})
}

// BroadcastOrderbook pushes a fresh engine book to "orderbook" subscribers.
func (s *Server) BroadcastOrderbook(book engine.Book) {
	snap := bookToSnapshot(s.app.Symbol(), book)
	s.hub.BroadcastToChannel("orderbook", OrderbookUpdate{
		Type:      "orderbook",
		Symbol:    snap.Symbol,
		Bids:      snap.Bids,
		Asks:      snap.Asks,
		MidPrice:  snap.MidPrice,
		Spread:    snap.Spread,
		Timestamp: snap.Timestamp,
	})
}

// BroadcastSim pushes a synthetic feed update to "sim" subscribers.
func (s *Server) BroadcastSim(data interface{}) {
	s.hub.BroadcastToChannel("sim", SimUpdate{Type: "sim", Data: data})
}

// ==============================
// Helpers
// ==============================

func bookToSnapshot(symbol string, book engine.Book) OrderbookSnapshot {
	return OrderbookSnapshot{
		Symbol:    symbol,
		Bids:      levelsToAPI(book.Bids),
		Asks:      levelsToAPI(book.Asks),
		BestBid:   book.BestBid,
		BestAsk:   book.BestAsk,
		MidPrice:  book.MidPrice,
		Spread:    book.Spread,
		Timestamp: time.Now().UnixMilli(),
	}
}

func levelsToAPI(levels []engine.Level) []PriceLevel {
	out := make([]PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = PriceLevel{Price: l.Price, Qty: l.Qty, Total: l.Total, Orders: l.Orders}
	}
	return out
}

func tradeToInfo(t engine.Trade) TradeInfo {
	return TradeInfo{
		ID:          t.ID,
		Price:       t.Price,
		Qty:         t.Qty,
		Side:        t.TakerSide.String(),
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Timestamp:   t.Timestamp,
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Message: detail})
}
