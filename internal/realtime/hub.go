package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SeunOnTech/x-clone-backend-sub001/internal/metrics"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/api/towncrier"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/logging"
	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// DefaultClientBuffer is the per-client outbound ring size.
const DefaultClientBuffer = 64

// outbound is a marshaled message routed to subscribers of one channel.
type outbound struct {
	channel string
	payload []byte
}

// Hub maintains the set of active clients and fans simulation events out to
// them. A slow client never blocks the engine: when a client's buffer is
// full the oldest queued message is dropped to make room.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	bufferSize int
	logger     logging.Logger
	metrics    *metrics.Metrics
	mutex      sync.RWMutex

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// Client represents a WebSocket client connection
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	channels []string // guarded by hub.mutex
	logger   logging.Logger
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewHub creates a new fan-out hub. serviceMetrics may be nil; bufferSize
// <= 0 selects DefaultClientBuffer.
func NewHub(logger logging.Logger, serviceMetrics *metrics.Metrics, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultClientBuffer
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		bufferSize: bufferSize,
		logger:     logger,
		metrics:    serviceMetrics,
	}
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			channels := append([]string(nil), client.channels...)
			h.mutex.Unlock()
			h.refreshConnectionGauge()
			h.logger.WithFields(logging.Fields{
				"client_count": count,
				"channels":     channels,
			}).Info("Client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.refreshConnectionGauge()
			h.logger.WithField("client_count", count).Info("Client disconnected")

		case message := <-h.broadcast:
			h.fanOut(message)

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// fanOut delivers a message to every client subscribed to its channel.
func (h *Hub) fanOut(message outbound) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if !client.subscribedLocked(message.channel) {
			continue
		}
		h.deliver(client, message.channel, message.payload)
	}
}

// deliver enqueues a payload on the client's buffer, evicting the oldest
// queued message when the buffer is full.
func (h *Hub) deliver(client *Client, channel string, payload []byte) {
	select {
	case client.send <- payload:
		h.delivered.Add(1)
		return
	default:
	}

	select {
	case <-client.send:
		h.countDrop(channel)
	default:
	}

	select {
	case client.send <- payload:
		h.delivered.Add(1)
	default:
		h.countDrop(channel)
	}
}

func (h *Hub) countDrop(channel string) {
	h.dropped.Add(1)
	if h.metrics != nil && h.metrics.EventsDropped != nil {
		h.metrics.EventsDropped.WithLabelValues(channel).Inc()
	}
}

// refreshConnectionGauge re-publishes the per-channel subscription counts.
func (h *Hub) refreshConnectionGauge() {
	if h.metrics == nil || h.metrics.HubConnections == nil {
		return
	}

	h.mutex.RLock()
	counts := make(map[string]int)
	for client := range h.clients {
		for _, channel := range client.channels {
			counts[channel]++
		}
	}
	h.mutex.RUnlock()

	h.metrics.HubConnections.Reset()
	for channel, count := range counts {
		h.metrics.HubConnections.WithLabelValues(channel).Set(float64(count))
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
	}
}

// BroadcastPost publishes a freshly created post on the feed channel.
func (h *Hub) BroadcastPost(post models.Post) {
	h.broadcastEnvelope(towncrier.TypePostCreated, towncrier.ChannelFeed, post)
}

// BroadcastMatch publishes a rule match on the filtered stream channel.
func (h *Hub) BroadcastMatch(match towncrier.MatchPayload) {
	h.broadcastEnvelope(towncrier.TypeStreamMatch, towncrier.ChannelStream, match)
}

func (h *Hub) broadcastEnvelope(msgType, channel string, data interface{}) {
	message := towncrier.Message{
		Type:      msgType,
		Channel:   channel,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal broadcast message")
		return
	}

	select {
	case h.broadcast <- outbound{channel: channel, payload: payload}:
	default:
		h.countDrop(channel)
		h.logger.Warn("Broadcast channel full, dropping message")
	}
}

// Stats returns hub statistics.
func (h *Hub) Stats() towncrier.HubStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	channelStats := make(map[string]int)
	for client := range h.clients {
		for _, channel := range client.channels {
			channelStats[channel]++
		}
	}

	return towncrier.HubStats{
		Connections:          len(h.clients),
		ChannelSubscriptions: channelStats,
		Delivered:            h.delivered.Load(),
		Dropped:              h.dropped.Load(),
	}
}

// ServeWS upgrades an HTTP request to a WebSocket connection. Channels given
// here are pre-subscribed, for the dedicated feed and stream endpoints; a
// bare connection starts unsubscribed and manages its channels with
// subscribe messages.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, channels ...string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.bufferSize),
		channels: validChannels(channels),
		logger:   h.logger,
	}

	client.hub.register <- client

	// Queue the confirmation before the pumps start so a pre-subscribed
	// client always sees it first.
	if len(client.channels) > 0 {
		client.confirm(towncrier.TypeSubscriptionConfirmed)
	}

	go client.writePump()
	go client.readPump()
}

// subscribedLocked reports whether the client receives the given channel.
// Callers hold hub.mutex.
func (c *Client) subscribedLocked(channel string) bool {
	for _, sub := range c.channels {
		if sub == channel || sub == towncrier.ChannelAll {
			return true
		}
	}
	return false
}

// validChannels filters a channel list down to the ones the hub routes.
func validChannels(channels []string) []string {
	valid := make([]string, 0, len(channels))
	for _, ch := range channels {
		switch ch {
		case towncrier.ChannelFeed, towncrier.ChannelStream, towncrier.ChannelAll:
			valid = append(valid, ch)
		}
	}
	return valid
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// readPump pumps subscription messages from the WebSocket connection to the
// hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Error("WebSocket connection error")
			}
			break
		}

		var subMsg towncrier.SubscriptionMessage
		if err := json.Unmarshal(message, &subMsg); err != nil {
			c.logger.WithError(err).Warn("Invalid subscription message")
			continue
		}

		c.handleSubscription(&subMsg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection, one
// frame per message.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleSubscription processes subscription/unsubscription requests
func (c *Client) handleSubscription(msg *towncrier.SubscriptionMessage) {
	switch msg.Action {
	case towncrier.ActionSubscribe:
		requested := validChannels(msg.Channels)

		c.hub.mutex.Lock()
		for _, channel := range requested {
			exists := false
			for _, existing := range c.channels {
				if existing == channel {
					exists = true
					break
				}
			}
			if !exists {
				c.channels = append(c.channels, channel)
			}
		}
		c.hub.mutex.Unlock()
		c.hub.refreshConnectionGauge()

		c.logger.WithField("channels", requested).Info("Client subscribed to channels")
		c.confirm(towncrier.TypeSubscriptionConfirmed)

	case towncrier.ActionUnsubscribe:
		c.hub.mutex.Lock()
		for _, channel := range msg.Channels {
			for i, existing := range c.channels {
				if existing == channel {
					c.channels = append(c.channels[:i], c.channels[i+1:]...)
					break
				}
			}
		}
		c.hub.mutex.Unlock()
		c.hub.refreshConnectionGauge()

		c.logger.WithField("channels", msg.Channels).Info("Client unsubscribed from channels")
		c.confirm(towncrier.TypeUnsubscriptionConfirmed)
	}
}

// confirm reports the client's current subscriptions back to it.
func (c *Client) confirm(msgType string) {
	c.hub.mutex.RLock()
	channels := append([]string(nil), c.channels...)
	c.hub.mutex.RUnlock()

	response := towncrier.SubscriptionConfirmation{
		Type:     msgType,
		Channels: channels,
	}
	payload, err := json.Marshal(response)
	if err != nil {
		c.logger.WithError(err).Error("Failed to marshal confirmation")
		return
	}

	select {
	case c.send <- payload:
	default:
		// Buffer full; the client will learn its channels from the next event.
	}
}
