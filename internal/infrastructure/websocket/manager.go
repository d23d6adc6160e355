package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"apptrueq/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one WebSocket connection. Every live subscription it opens is
// bound to the connection's context, so closing the client stops them all.
// Control frames queue on Send; state frames wait in pending, at most one per
// subscription.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	subs    map[string]*subscription
	pending map[string][]byte
	order   []string
	ready   chan struct{}
}

type subscription struct {
	stream string
	cancel context.CancelFunc
}

func NewClient(parent context.Context, userID string, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(parent)
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		ctx:     ctx,
		cancel:  cancel,
		subs:    make(map[string]*subscription),
		pending: make(map[string][]byte),
		ready:   make(chan struct{}, 1),
	}
}

func (c *Client) Context() context.Context {
	return c.ctx
}

// Close cancels every subscription and stops the write pump.
func (c *Client) Close() {
	c.cancel()
}

// enqueue hands msg to the write pump unless ctx ends first.
func (c *Client) enqueue(ctx context.Context, msg []byte) bool {
	select {
	case c.Send <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// offerState replaces the state frame of id still waiting for the write pump,
// so a slow connection only receives the newest state. It reports false once
// sub no longer owns id.
func (c *Client) offerState(id string, sub *subscription, msg []byte) bool {
	c.mu.Lock()
	if c.subs[id] != sub {
		c.mu.Unlock()
		return false
	}
	if _, waiting := c.pending[id]; !waiting {
		c.order = append(c.order, id)
	}
	c.pending[id] = msg
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
	return true
}

// nextState pops the oldest waiting state frame.
func (c *Client) nextState() ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.order) > 0 {
		id := c.order[0]
		c.order = c.order[1:]
		if msg, ok := c.pending[id]; ok {
			delete(c.pending, id)
			return msg, true
		}
	}
	return nil, false
}

// addSubscription registers sub under id, cancelling whatever held the id before.
func (c *Client) addSubscription(id string, sub *subscription) {
	c.mu.Lock()
	old := c.subs[id]
	c.subs[id] = sub
	delete(c.pending, id)
	c.mu.Unlock()

	if old != nil {
		old.cancel()
	}
}

// removeSubscription cancels id. When sub is non-nil it is removed only if it
// is still the one registered.
func (c *Client) removeSubscription(id string, sub *subscription) bool {
	c.mu.Lock()
	current, ok := c.subs[id]
	if ok && (sub == nil || current == sub) {
		delete(c.subs, id)
		delete(c.pending, id)
	} else {
		ok = false
	}
	c.mu.Unlock()

	if ok {
		current.cancel()
	}
	return ok
}

func (c *Client) SubscriptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Manager tracks open connections per user.
type Manager struct {
	clients    map[string]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	mutex      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Start runs the registration loop until ctx ends, then closes every client.
func (m *Manager) Start(ctx context.Context) {
	go func() {
		defer close(m.done)
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[*Client]struct{})
				}
				m.clients[client.UserID][client] = struct{}{}
				m.mutex.Unlock()
				logger.Debug("Client registered: %s", client.UserID)

			case client := <-m.Unregister:
				m.mutex.Lock()
				if conns, ok := m.clients[client.UserID]; ok {
					delete(conns, client)
					if len(conns) == 0 {
						delete(m.clients, client.UserID)
					}
				}
				m.mutex.Unlock()
				client.Close()
				logger.Debug("Client unregistered: %s", client.UserID)

			case <-ctx.Done():
				m.mutex.Lock()
				for _, conns := range m.clients {
					for client := range conns {
						client.Close()
					}
				}
				m.clients = make(map[string]map[*Client]struct{})
				m.mutex.Unlock()
				return
			}
		}
	}()
}

func (m *Manager) register(c *Client) bool {
	select {
	case m.Register <- c:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) unregister(c *Client) {
	select {
	case m.Unregister <- c:
	case <-m.done:
		c.Close()
	}
}

// Connections returns how many connections userID has open.
func (m *Manager) Connections(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}

// Serve registers c and runs its pumps until the connection ends.
func (m *Manager) Serve(c *Client, h *MessageHandler) {
	if !m.register(c) {
		c.Close()
		c.Conn.Close()
		return
	}
	go c.WritePump()
	c.ReadPump(m, h)
}

func (c *Client) ReadPump(m *Manager, h *MessageHandler) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error for %s: %v", c.UserID, err)
			}
			break
		}

		h.Handle(c, message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			if !c.write(message) {
				return
			}

		case <-c.ready:
			for {
				message, ok := c.nextState()
				if !ok {
					break
				}
				if !c.write(message) {
					return
				}
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}

		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(message []byte) bool {
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
		logger.Warn("websocket write error for %s: %v", c.UserID, err)
		c.Close()
		return false
	}
	return true
}
