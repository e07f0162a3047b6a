package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/core/domain"
	"github.com/taskdash/dashboard/internal/core/ports"
)

type ClientHandler struct {
	store ports.StoreService
}

func NewClientHandler(store ports.StoreService) *ClientHandler {
	return &ClientHandler{store: store}
}

type selectClientRequest struct {
	ID string `json:"id"`
}

type clientList struct {
	Selected *string         `json:"selected"`
	Items    []domain.Client `json:"items"`
}

// List returns the client catalog and the current selection.
//
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Success      200  {object}  clientList
// @Router       /v1/clients [get]
func (h *ClientHandler) List(c echo.Context) error {
	resp := clientList{Items: h.store.Clients()}
	if sel := h.store.SelectedClient(); sel != nil {
		resp.Selected = &sel.ID
	}
	return c.JSON(http.StatusOK, resp)
}

// Select changes the selected client. An empty id clears it.
//
// @Summary      Select client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        body  body      selectClientRequest  true  "Client ID"
// @Success      200   {object}  domain.Client
// @Success      204
// @Failure      404   {object}  ErrorResponse
// @Router       /v1/clients/selected [put]
func (h *ClientHandler) Select(c echo.Context) error {
	var req selectClientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	client, err := h.store.SelectClient(req.ID)
	if err != nil {
		return err
	}
	if client == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, client)
}
