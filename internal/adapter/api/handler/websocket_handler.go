package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"apptrueq/internal/domain/entity"
	"apptrueq/internal/domain/service"
	ws "apptrueq/internal/infrastructure/websocket"
	"apptrueq/internal/usecase"
	"apptrueq/pkg/errors"
	"apptrueq/pkg/logger"
	"apptrueq/pkg/response"
)

// Live streams a client can subscribe to.
const (
	StreamExplore       = "explore"
	StreamProposals     = "proposals"
	StreamTrades        = "trades"
	StreamNotifications = "notifications"
)

type WebSocketHandler struct {
	ctx       context.Context
	wsManager *ws.Manager
	messages  *ws.MessageHandler
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NewWebSocketHandler wires the live feeds into the message handler. ctx
// bounds every connection; cancelling it closes them all.
func NewWebSocketHandler(ctx context.Context, wsManager *ws.Manager, messages *ws.MessageHandler, feed *usecase.FeedUseCase) *WebSocketHandler {
	h := &WebSocketHandler{
		ctx:       ctx,
		wsManager: wsManager,
		messages:  messages,
	}
	h.registerStreams(feed)
	return h
}

type proposalStreamFilter struct {
	Status string `json:"status"`
}

type notificationStreamFilter struct {
	UnreadOnly bool `json:"unread_only"`
}

func decodeFilter(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.BadRequest("Invalid filter", err)
	}
	return nil
}

func (h *WebSocketHandler) registerStreams(feed *usecase.FeedUseCase) {
	h.messages.RegisterStream(StreamExplore, func(ctx context.Context, userID string, raw json.RawMessage) (<-chan any, error) {
		var filter service.PublicationFilter
		if err := decodeFilter(raw, &filter); err != nil {
			return nil, err
		}
		filter.Kind = entity.PublicationKind(strings.ToUpper(string(filter.Kind)))
		states, err := feed.ExploreFeed(ctx, userID, filter)
		if err != nil {
			return nil, err
		}
		return ws.States(ctx, states), nil
	})

	h.messages.RegisterStream(StreamProposals, func(ctx context.Context, userID string, raw json.RawMessage) (<-chan any, error) {
		var filter proposalStreamFilter
		if err := decodeFilter(raw, &filter); err != nil {
			return nil, err
		}
		states, err := feed.ProposalHistory(ctx, userID, filter.Status)
		if err != nil {
			return nil, err
		}
		return ws.States(ctx, states), nil
	})

	h.messages.RegisterStream(StreamTrades, func(ctx context.Context, userID string, raw json.RawMessage) (<-chan any, error) {
		states, err := feed.TradeHistory(ctx, userID)
		if err != nil {
			return nil, err
		}
		return ws.States(ctx, states), nil
	})

	h.messages.RegisterStream(StreamNotifications, func(ctx context.Context, userID string, raw json.RawMessage) (<-chan any, error) {
		var filter notificationStreamFilter
		if err := decodeFilter(raw, &filter); err != nil {
			return nil, err
		}
		states, err := feed.NotificationFeed(ctx, userID, filter.UnreadOnly)
		if err != nil {
			return nil, err
		}
		return ws.States(ctx, states), nil
	})
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes. The uid comes from the query-token auth middleware.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	userID := currentUser(c)
	if userID == "" {
		return response.Error(c, errors.Unauthorized("Authentication required", nil))
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("websocket upgrade failed for %s: %v", userID, err)
		return nil
	}

	client := ws.NewClient(h.ctx, userID, conn)
	logger.Debug("websocket connected: %s", userID)
	h.wsManager.Serve(client, h.messages)
	return nil
}
