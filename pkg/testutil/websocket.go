package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTestClient provides a test client for WebSocket connections
type WebSocketTestClient struct {
	conn     *websocket.Conn
	messages chan map[string]interface{}
	errors   chan error
	closed   bool
	mutex    sync.RWMutex
}

// WSURL rewrites an httptest server URL into a ws:// URL with the given path.
func WSURL(serverURL, path string) string {
	return strings.Replace(serverURL, "http://", "ws://", 1) + path
}

// NewWebSocketTestClient creates a new test client and connects to the server
func NewWebSocketTestClient(serverURL string) (*WebSocketTestClient, error) {
	conn, resp, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if resp != nil {
		defer func() {
			_ = resp.Body.Close()
		}()
	}
	if err != nil {
		return nil, err
	}

	client := &WebSocketTestClient{
		conn:     conn,
		messages: make(chan map[string]interface{}, 16),
		errors:   make(chan error, 1),
	}

	go client.readPump()

	return client, nil
}

// SendMessage sends a message to the server
func (c *WebSocketTestClient) SendMessage(message map[string]interface{}) error {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.closed {
		return websocket.ErrCloseSent
	}

	return c.conn.WriteJSON(message)
}

// ReadMessage reads a message from the server (blocking)
func (c *WebSocketTestClient) ReadMessage() (map[string]interface{}, error) {
	select {
	case msg := <-c.messages:
		return msg, nil
	case err := <-c.errors:
		return nil, err
	}
}

// ReadMessageTimeout reads a message with timeout
func (c *WebSocketTestClient) ReadMessageTimeout(timeout time.Duration) (map[string]interface{}, error) {
	select {
	case msg := <-c.messages:
		return msg, nil
	case err := <-c.errors:
		return nil, err
	case <-time.After(timeout):
		return nil, context.DeadlineExceeded
	}
}

// Close closes the client connection
func (c *WebSocketTestClient) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.closed {
		c.closed = true
		return c.conn.Close()
	}

	return nil
}

func (c *WebSocketTestClient) readPump() {
	for {
		var message map[string]interface{}
		if err := c.conn.ReadJSON(&message); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				select {
				case c.errors <- err:
				default:
				}
			}
			break
		}

		select {
		case c.messages <- message:
		default:
			// Channel full, drop message
		}
	}
}
