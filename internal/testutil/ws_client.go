package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	gorillaWS "github.com/gorilla/websocket"

	"github.com/mack/direct-chat/internal/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *websocket.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *websocket.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				select {
				case <-c.done:
					return
				case c.errors <- err:
				}
				return
			}

			var msg websocket.Message
			if err := json.Unmarshal(data, &msg); err != nil {
				c.errors <- err
				continue
			}

			select {
			case c.messages <- &msg:
			case <-c.done:
				return
			}
		}
	}
}

// Send marshals and sends a message over the connection
func (c *WSClient) Send(msgType websocket.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := websocket.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(gorillaWS.TextMessage, data); err != nil {
		c.t.Fatalf("failed to write message: %v", err)
	}
}

// WatchDirectory subscribes to directory snapshots
func (c *WSClient) WatchDirectory() {
	c.t.Helper()
	c.Send(websocket.MessageTypeWatchDirectory, struct{}{})
}

// WatchConversation subscribes to conversation snapshots with the given peer
func (c *WSClient) WatchConversation(peerID string) {
	c.t.Helper()
	c.Send(websocket.MessageTypeWatchConversation, websocket.WatchConversationPayload{PeerID: peerID})
}

// WaitForMessage blocks until a message of the given type arrives or the
// timeout expires. Other message types received in the meantime are dropped.
func (c *WSClient) WaitForMessage(msgType websocket.MessageType, timeout time.Duration) *websocket.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-c.messages:
			if !ok {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
				return nil
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("websocket error while waiting for %s: %v", msgType, err)
			return nil
		case <-deadline:
			c.t.Fatalf("timed out waiting for %s", msgType)
			return nil
		}
	}
}

// DecodePayload unmarshals a message payload into v
func (c *WSClient) DecodePayload(msg *websocket.Message, v interface{}) {
	c.t.Helper()
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.t.Fatalf("failed to decode payload: %v", err)
	}
}

// Close shuts the connection down
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	c.conn.Close()
}
