package utils

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestGetPaginationParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/notifications?page=3&limit=10", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p := GetPaginationParams(c)

	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.PageSize)
	assert.Equal(t, 20, p.Offset)
}

func TestNewPaginationDefaults(t *testing.T) {
	p := NewPagination(0, 500)

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 0, p.Offset)
}

func TestWindowClampsToLength(t *testing.T) {
	p := NewPagination(2, 10)

	start, end := p.Window(15)
	assert.Equal(t, 10, start)
	assert.Equal(t, 15, end)

	start, end = p.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}

func TestNewPaginationHugePageDoesNotOverflow(t *testing.T) {
	for _, page := range []int{1 << 62, math.MaxInt} {
		p := NewPagination(page, 20)
		assert.GreaterOrEqual(t, p.Offset, 0)

		start, end := p.Window(5)
		assert.Equal(t, 5, start)
		assert.Equal(t, 5, end)
	}
}

func TestWindowTreatsNegativeOffsetAsPastTheEnd(t *testing.T) {
	p := PaginationParams{Page: 2, PageSize: 20, Offset: -20}

	start, end := p.Window(5)
	assert.Equal(t, 5, start)
	assert.Equal(t, 5, end)
}
