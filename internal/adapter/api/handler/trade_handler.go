package handler

import (
	"github.com/labstack/echo/v4"

	"apptrueq/internal/usecase"
	"apptrueq/pkg/response"
)

type TradeHandler struct {
	tradeUseCase *usecase.TradeUseCase
}

func NewTradeHandler(tradeUseCase *usecase.TradeUseCase) *TradeHandler {
	return &TradeHandler{
		tradeUseCase: tradeUseCase,
	}
}

func (h *TradeHandler) ListMyTrades(c echo.Context) error {
	trades, err := h.tradeUseCase.ListMine(c.Request().Context(), currentUser(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, trades)
}

func (h *TradeHandler) GetTrade(c echo.Context) error {
	trade, err := h.tradeUseCase.Get(c.Request().Context(), currentUser(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, trade)
}
