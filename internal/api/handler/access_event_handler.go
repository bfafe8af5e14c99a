package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/akhbar-news/backoffice/internal/core/domain"
	"github.com/akhbar-news/backoffice/internal/core/ports"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// AccessEventHandler lists recorded authorization denials.
type AccessEventHandler struct {
	reader ports.AccessEventReader
}

func NewAccessEventHandler(reader ports.AccessEventReader) *AccessEventHandler {
	return &AccessEventHandler{reader: reader}
}

type accessEventsResponse struct {
	Events []*domain.AccessEvent `json:"events"`
}

// Recent returns the newest access events.
//
// @Summary      Recent access events
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max events (1-500, default 50)"
// @Success      200    {object}  accessEventsResponse
// @Failure      400    {object}  errorResponse
// @Failure      403    {object}  middleware.AccessErrorBody
// @Router       /api/access-events [get]
func (h *AccessEventHandler) Recent(c echo.Context) error {
	limit := defaultEventLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxEventLimit)
	}

	events, err := h.reader.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*domain.AccessEvent{}
	}
	return c.JSON(http.StatusOK, accessEventsResponse{Events: events})
}
