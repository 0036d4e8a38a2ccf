package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/openalpha/launchpad/api/handlers"
	"github.com/openalpha/launchpad/api/middleware"
	"github.com/openalpha/launchpad/api/types"
	"github.com/openalpha/launchpad/api/websocket"
	"github.com/openalpha/launchpad/metrics"
)

// priceTickInterval is how often live pool prices are pushed to the hub
const priceTickInterval = 2 * time.Second

// Server represents the API server
type Server struct {
	httpServer *http.Server
	wsServer   *websocket.Server
	config     *Config
	mockMode   bool

	service     SaleService
	saleHandler *handlers.SaleHandler
	rateLimiter *middleware.RateLimiter

	stopCh chan struct{}
}

// Config contains server configuration
type Config struct {
	Host             string
	Port             int
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	MockMode         bool
	DisableRateLimit bool // For testing purposes
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MockMode:     false,
	}
}

// NewServer creates an API server backed by the mock service
func NewServer(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.MockMode = true
	return newServer(config, NewMockService())
}

// NewServerWithService creates an API server with a custom backend,
// typically the keeper-backed service.
func NewServerWithService(config *Config, service SaleService) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return newServer(config, service)
}

func newServer(config *Config, service SaleService) *Server {
	wsConfig := websocket.DefaultServerConfig()
	wsConfig.Port = config.Port

	s := &Server{
		config:      config,
		wsServer:    websocket.NewServer(wsConfig),
		mockMode:    config.MockMode,
		service:     service,
		saleHandler: handlers.NewSaleHandler(service, service, service),
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		stopCh:      make(chan struct{}),
	}

	// The keeper service fires post-commit hooks; wire them into the hub so
	// subscribers see purchases and pool lifecycle changes live.
	if hooked, ok := service.(interface {
		SetHooks(func(*types.Purchase), func(string, *types.Pool))
	}); ok {
		hooked.SetHooks(s.broadcastPurchase, s.broadcastPoolEvent)
	}

	return s
}

// Start starts the API server
func (s *Server) Start() error {
	r := mux.NewRouter()

	// Health check (support both /health and /v1/health for compatibility)
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/v1/health", s.handleHealth).Methods("GET")

	// Sale endpoints
	s.saleHandler.RegisterRoutes(r)

	// WebSocket
	r.HandleFunc("/ws", s.wsServer.GetHub().ServeWS)

	// Prometheus metrics
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Apply middleware chain: CORS -> RateLimit -> Router
	var handler http.Handler
	if s.config.DisableRateLimit {
		handler = corsMiddleware(r)
	} else {
		handler = corsMiddleware(
			middleware.RateLimitMiddleware(s.rateLimiter)(r),
		)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Start WebSocket hub
	go s.wsServer.GetHub().Run()

	// Start the live price broadcaster
	go s.priceBroadcaster()

	log.Printf("sale API server starting on %s (mock mode: %v)", addr, s.mockMode)
	if s.config.DisableRateLimit {
		log.Printf("rate limiting disabled (for testing)")
	}
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	close(s.stopCh)
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the routed handler without starting a listener; used by
// handler tests.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/v1/health", s.handleHealth).Methods("GET")
	s.saleHandler.RegisterRoutes(r)
	return corsMiddleware(r)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	mode := "keeper"
	if s.mockMode {
		mode = "mock"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"mode":      mode,
	})
}

// priceBroadcaster pushes live prices for open pools into the hub buffer.
// The hub flushes the buffer to price channel subscribers on its own tick.
func (s *Server) priceBroadcaster() {
	ticker := time.NewTicker(priceTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pushPrices()
		}
	}
}

func (s *Server) pushPrices() {
	ctx := context.Background()
	schedule, err := s.service.GetSchedule(ctx, 0)
	if err != nil {
		return
	}
	hub := s.wsServer.GetHub()
	for _, pool := range schedule.Open {
		quote, err := s.service.GetPrice(ctx, pool.PoolID)
		if err != nil {
			continue
		}
		hub.UpdatePrice(pool.PoolID, &websocket.PriceMessage{
			PoolID:    pool.PoolID,
			Kind:      pool.Kind,
			UnitPrice: quote.UnitPrice,
			Remaining: pool.Inventory,
			Open:      quote.Open,
			Timestamp: quote.Timestamp,
		})
	}
}

func (s *Server) broadcastPurchase(p *types.Purchase) {
	s.wsServer.GetHub().BroadcastPurchase(&websocket.PurchaseMessage{
		PoolID:    p.PoolID,
		Buyer:     p.Buyer,
		Quantity:  p.Quantity,
		UnitPrice: p.UnitPrice,
		Payment:   p.Payment,
		Change:    p.Change,
		Timestamp: p.Timestamp,
	})
}

func (s *Server) broadcastPoolEvent(event string, pool *types.Pool) {
	hub := s.wsServer.GetHub()
	hub.BroadcastPoolEvent(event, &websocket.PoolMessage{
		PoolID:            pool.PoolID,
		Kind:              pool.Kind,
		SaleDenom:         pool.SaleDenom,
		Inventory:         pool.Inventory,
		StartTime:         pool.StartTime,
		EndTime:           pool.EndTime,
		Active:            pool.Active,
		AllowlistRequired: pool.AllowlistRequired,
		Timestamp:         nowMillis(),
	})
	if event == "closed" {
		hub.DropPrice(pool.PoolID)
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
