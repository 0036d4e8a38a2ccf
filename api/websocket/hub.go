package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Subscription management
	subscriptions map[string]map[*Client]bool // topic -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Latest price per pool, flushed on a fixed interval
	priceBuffer map[string]*PriceMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Price update interval
	PriceInterval time.Duration // Default: 1s
	SalesBuffer   int           // Number of purchases to buffer

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		PriceInterval:    time.Second,
		SalesBuffer:      100,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *SubscriptionRequest, 256),
		unsubscribe:   make(chan *SubscriptionRequest, 256),
		priceBuffer:   make(map[string]*PriceMessage),
		config:        config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	priceTicker := time.NewTicker(h.config.PriceInterval)
	defer priceTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-priceTicker.C:
			h.broadcastPrices()
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		// Remove from all subscriptions
		for topic := range h.subscriptions {
			delete(h.subscriptions[topic], client)
		}

		close(client.send)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients in a channel
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
}

// ============ Channel naming ============

// PriceChannel returns the channel carrying price ticks for a pool
func PriceChannel(poolID uint64) string {
	return "price:" + strconv.FormatUint(poolID, 10)
}

// SalesChannel returns the channel carrying settled purchases for a pool
func SalesChannel(poolID uint64) string {
	return "sales:" + strconv.FormatUint(poolID, 10)
}

// BuyerChannel returns the private channel for a buyer address
func BuyerChannel(address string) string {
	return "buyer:" + address
}

// PoolsChannel carries pool lifecycle events for every pool
const PoolsChannel = "pools"

// ============ Channel-specific broadcasts ============

// UpdatePrice updates the buffered price for a pool. The buffered value
// is flushed to subscribers on the next price tick.
func (h *Hub) UpdatePrice(poolID uint64, price *PriceMessage) {
	h.mu.Lock()
	h.priceBuffer[strconv.FormatUint(poolID, 10)] = price
	h.mu.Unlock()
}

// DropPrice stops price broadcasts for a pool
func (h *Hub) DropPrice(poolID uint64) {
	h.mu.Lock()
	delete(h.priceBuffer, strconv.FormatUint(poolID, 10))
	h.mu.Unlock()
}

// broadcastPrices broadcasts all buffered price updates
func (h *Hub) broadcastPrices() {
	h.mu.RLock()
	prices := make(map[string]*PriceMessage)
	for k, v := range h.priceBuffer {
		prices[k] = v
	}
	h.mu.RUnlock()

	for id, price := range prices {
		channel := "price:" + id
		msg := &WSMessage{
			Type:    "price",
			Channel: channel,
			Data:    price,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// BroadcastPurchase broadcasts a settled purchase to pool subscribers
// and to the buyer's private channel
func (h *Hub) BroadcastPurchase(purchase *PurchaseMessage) {
	channel := SalesChannel(purchase.PoolID)
	msg := &WSMessage{
		Type:    "purchase",
		Channel: channel,
		Data:    purchase,
	}
	h.BroadcastToChannel(channel, msg)

	if purchase.Buyer != "" {
		private := BuyerChannel(purchase.Buyer)
		h.BroadcastToChannel(private, &WSMessage{
			Type:    "purchase",
			Channel: private,
			Data:    purchase,
		})
	}
}

// BroadcastPoolEvent broadcasts a pool lifecycle event
func (h *Hub) BroadcastPoolEvent(event string, pool *PoolMessage) {
	pool.Event = event
	msg := &WSMessage{
		Type:    "pool",
		Channel: PoolsChannel,
		Data:    pool,
	}
	h.BroadcastToChannel(PoolsChannel, msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// PriceMessage represents a price tick for a pool
type PriceMessage struct {
	PoolID    uint64 `json:"pool_id"`
	Kind      string `json:"kind"`
	UnitPrice string `json:"unit_price"`
	Remaining string `json:"remaining"`
	Open      bool   `json:"open"`
	Timestamp int64  `json:"timestamp"`
}

// PurchaseMessage represents a settled purchase
type PurchaseMessage struct {
	PoolID    uint64 `json:"pool_id"`
	Buyer     string `json:"buyer"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Payment   string `json:"payment"`
	Change    string `json:"change"`
	Remaining string `json:"remaining"`
	Timestamp int64  `json:"timestamp"`
}

// PoolMessage represents a pool lifecycle event
type PoolMessage struct {
	Event             string `json:"event"` // "created", "closed", "updated"
	PoolID            uint64 `json:"pool_id"`
	Kind              string `json:"kind"`
	SaleDenom         string `json:"sale_denom"`
	Inventory         string `json:"inventory"`
	StartTime         int64  `json:"start_time"`
	EndTime           int64  `json:"end_time"`
	Active            bool   `json:"active"`
	AllowlistRequired bool   `json:"allowlist_required"`
	Timestamp         int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	address := r.URL.Query().Get("address")
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, address, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// Generate a simple ID
func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
