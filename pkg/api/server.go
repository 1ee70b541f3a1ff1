// Package api serves registered instruments over REST and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/tseutils/pkg/app/core/instrument"
	"github.com/uhyunpark/tseutils/pkg/metrics"
)

// Server handles REST API and WebSocket connections
type Server struct {
	registry *instrument.Registry
	router   *mux.Router
	hub      *Hub // WebSocket hub

	allowedOrigins []string
	gatherer       prometheus.Gatherer
	metrics        *metrics.Metrics
	log            *zap.SugaredLogger
}

type Option func(*Server)

func WithLogger(l *zap.SugaredLogger) Option { return func(s *Server) { s.log = l } }

// WithMetrics records websocket gauges in m and serves g on /metrics
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// NewServer creates a new API server
func NewServer(registry *instrument.Registry, opts ...Option) *Server {
	s := &Server{
		registry:       registry,
		router:         mux.NewRouter(),
		allowedOrigins: []string{"http://localhost:3000"},
		gatherer:       prometheus.DefaultGatherer,
		metrics:        metrics.NewNop(),
		log:            zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.log, s.metrics)

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/instruments", s.handleGetInstruments).Methods("GET")
	api.HandleFunc("/instruments/{isin}", s.handleGetInstrument).Methods("GET")
	api.HandleFunc("/instruments/{isin}/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/instruments/{isin}/bestlimits", s.handleGetBestLimits).Methods("GET")
	api.HandleFunc("/instruments/{isin}/clienttype", s.handleGetClientType).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Hub returns the websocket hub. It must be running before clients connect.
func (s *Server) Hub() *Hub { return s.hub }

// Start serves on addr until ctx is done
func (s *Server) Start(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infow("api_started", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Infow("api_stopped")
	return nil
}

// ==============================
// REST Handlers
// ==============================

func toInstrumentInfo(in *instrument.Instrument) InstrumentInfo {
	l := in.Limitations()
	info := InstrumentInfo{
		ISIN:         in.ISIN(),
		TsetmcCode:   in.Identification.TsetmcCode,
		Ticker:       in.Identification.Ticker,
		NamePersian:  in.Identification.NamePersian,
		NameEnglish:  in.Identification.NameEnglish,
		URL:          in.TsetmcURL(),
		HasBuyQueue:  in.HasBuyQueue(),
		HasSellQueue: in.HasSellQueue(),
		Limitations:  l,
		Candle:       in.Candle(),
	}
	if l.Nsc != "" {
		info.Nsc = string(l.Nsc)
		info.NscLabel = l.Nsc.Label()
	}
	return info
}

func (s *Server) handleGetInstruments(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()

	response := make([]InstrumentInfo, len(list))
	for i, in := range list {
		response[i] = toInstrumentInfo(in)
	}
	respondJSON(w, response)
}

// lookup writes a 404 and returns nil if the isin is unknown
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *instrument.Instrument {
	isin := mux.Vars(r)["isin"]
	in, err := s.registry.Get(isin)
	if err != nil {
		respondError(w, http.StatusNotFound, "instrument not found", err.Error())
		return nil
	}
	return in
}

func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	in := s.lookup(w, r)
	if in == nil {
		return
	}
	respondJSON(w, toInstrumentInfo(in))
}

func deepBookSnapshot(in *instrument.Instrument) DeepBookSnapshot {
	return DeepBookSnapshot{
		ISIN:      in.ISIN(),
		Bids:      in.DeepOrderBook.GetBuyRows(),
		Asks:      in.DeepOrderBook.GetSellRows(),
		MidPrice:  in.DeepOrderBook.MidPrice(),
		Timestamp: time.Now().UnixMilli(),
	}
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	in := s.lookup(w, r)
	if in == nil {
		return
	}
	respondJSON(w, deepBookSnapshot(in))
}

func (s *Server) handleGetBestLimits(w http.ResponseWriter, r *http.Request) {
	in := s.lookup(w, r)
	if in == nil {
		return
	}
	rt := in.Realtime()
	respondJSON(w, BestLimitsSnapshot{
		ISIN:      in.ISIN(),
		Rows:      rt.OrderBook,
		UpdatedAt: unixMilli(rt.UpdatedAt),
	})
}

func clientTypeSnapshot(in *instrument.Instrument) ClientTypeSnapshot {
	rt := in.Realtime()
	return ClientTypeSnapshot{
		ISIN:                 in.ISIN(),
		ClientType:           rt.ClientType,
		TradeVolume:          rt.ClientType.TradeVolume(),
		NaturalBuyPerCapita:  rt.ClientType.NaturalBuyPerCapita(),
		NaturalSellPerCapita: rt.ClientType.NaturalSellPerCapita(),
		UpdatedAt:            unixMilli(rt.UpdatedAt),
	}
}

func (s *Server) handleGetClientType(w http.ResponseWriter, r *http.Request) {
	in := s.lookup(w, r)
	if in == nil {
		return
	}
	respondJSON(w, clientTypeSnapshot(in))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]any{"status": "ok", "instruments": s.registry.Count()})
}

// ==============================
// Broadcast Methods (called from the feed)
// ==============================

// BroadcastInstrument pushes the deep book and client type of isin to its subscribers
func (s *Server) BroadcastInstrument(isin string) {
	in, err := s.registry.Get(isin)
	if err != nil {
		return
	}
	s.hub.BroadcastToChannel("orderbook:"+isin, OrderbookUpdate{
		Type:             "orderbook",
		DeepBookSnapshot: deepBookSnapshot(in),
	})
	s.hub.BroadcastToChannel("clienttype:"+isin, ClientTypeUpdate{
		Type:               "clienttype",
		ClientTypeSnapshot: clientTypeSnapshot(in),
	})
}

// ==============================
// Helper Functions
// ==============================

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
