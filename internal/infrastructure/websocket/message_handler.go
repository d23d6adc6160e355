package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/metrics"
	"apptrueq/pkg/stream"
)

// Client actions
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionPing        = "ping"
)

// Server frame types
const (
	FrameState = "state"
	FrameError = "error"
	FramePong  = "pong"
)

type ClientMessage struct {
	Action string          `json:"action"`
	ID     string          `json:"id"`
	Stream string          `json:"stream"`
	Filter json.RawMessage `json:"filter,omitempty"`
}

type ServerFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	State   any    `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
}

// StreamOpener starts a live list for userID. The returned channel must close
// once ctx ends.
type StreamOpener func(ctx context.Context, userID string, filter json.RawMessage) (<-chan any, error)

// States adapts a typed state channel to a StreamOpener result.
func States[T any](ctx context.Context, in <-chan stream.ListState[T]) <-chan any {
	out := make(chan any)
	go func() {
		defer close(out)
		for s := range in {
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

type MessageHandler struct {
	mu      sync.RWMutex
	streams map[string]StreamOpener
	metrics *metrics.Metrics
}

func NewMessageHandler(m *metrics.Metrics) *MessageHandler {
	return &MessageHandler{
		streams: make(map[string]StreamOpener),
		metrics: m,
	}
}

func (h *MessageHandler) RegisterStream(name string, open StreamOpener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams[name] = open
}

func (h *MessageHandler) opener(name string) (StreamOpener, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	open, ok := h.streams[name]
	return open, ok
}

func (h *MessageHandler) Handle(c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, "Invalid message format")
		return
	}

	switch msg.Action {
	case ActionSubscribe:
		h.subscribe(c, msg)
	case ActionUnsubscribe:
		if msg.ID == "" {
			h.sendError(c, "Subscription id is required")
			return
		}
		c.removeSubscription(msg.ID, nil)
	case ActionPing:
		h.send(c.ctx, c, ServerFrame{Type: FramePong})
	default:
		h.sendError(c, "Unknown action: "+msg.Action)
	}
}

func (h *MessageHandler) subscribe(c *Client, msg ClientMessage) {
	if msg.ID == "" {
		h.sendError(c, "Subscription id is required")
		return
	}
	open, ok := h.opener(msg.Stream)
	if !ok {
		h.sendError(c, "Unknown stream: "+msg.Stream)
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	states, err := open(ctx, c.UserID, msg.Filter)
	if err != nil {
		cancel()
		h.sendError(c, errors.Message(err))
		return
	}

	sub := &subscription{stream: msg.Stream, cancel: cancel}
	c.addSubscription(msg.ID, sub)
	h.gauge(msg.Stream, 1)

	go func() {
		defer func() {
			c.removeSubscription(msg.ID, sub)
			cancel()
			h.gauge(msg.Stream, -1)
		}()

		for state := range states {
			data, ok := encodeFrame(ServerFrame{Type: FrameState, ID: msg.ID, State: state})
			if !ok || !c.offerState(msg.ID, sub, data) {
				return
			}
		}
	}()
}

func (h *MessageHandler) gauge(name string, delta float64) {
	if h.metrics != nil {
		h.metrics.LiveSubscriptions.WithLabelValues(name).Add(delta)
	}
}

func encodeFrame(frame ServerFrame) ([]byte, bool) {
	data, err := json.Marshal(frame)
	if err != nil {
		logger.Error("Failed to encode %s frame: %v", frame.Type, err)
		return nil, false
	}
	return data, true
}

func (h *MessageHandler) send(ctx context.Context, c *Client, frame ServerFrame) bool {
	data, ok := encodeFrame(frame)
	if !ok {
		return false
	}
	return c.enqueue(ctx, data)
}

func (h *MessageHandler) sendError(c *Client, message string) {
	h.send(c.ctx, c, ServerFrame{Type: FrameError, Message: message})
}
