package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/core/ports"
)

type StatsHandler struct {
	store ports.StoreService
}

func NewStatsHandler(store ports.StoreService) *StatsHandler {
	return &StatsHandler{store: store}
}

// Get returns the dashboard summary for the caller.
//
// @Summary      Dashboard stats
// @Tags         stats
// @Produce      json
// @Success      200  {object}  ports.Stats
// @Router       /v1/stats [get]
func (h *StatsHandler) Get(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.store.Stats(id))
}
