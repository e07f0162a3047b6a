package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdash/dashboard/internal/core/ports"
)

// UserHandler serves the admin-only account screens.
type UserHandler struct {
	store ports.StoreService
}

func NewUserHandler(store ports.StoreService) *UserHandler {
	return &UserHandler{store: store}
}

type createUserRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required,oneof=admin user"`
}

type updateUserRequest struct {
	Name      *string    `json:"name"`
	Email     *string    `json:"email"`
	Role      *string    `json:"role"`
	Avatar    *string    `json:"avatar"`
	IsActive  *bool      `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
}

// List returns the cached accounts. ?refresh=true reloads them first.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Param        refresh  query     bool  false  "Reload from the backend"
// @Success      200      {array}   domain.User
// @Failure      403      {object}  ErrorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	if c.QueryParam("refresh") == "true" {
		if err := h.store.LoadUsers(c.Request().Context()); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, h.store.Users())
}

// Create registers an account on the backend.
//
// @Summary      Create user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Account"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.store.AddUser(c.Request().Context(), ports.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

// Update edits a cached account. The backend is not told.
//
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  ErrorResponse
// @Router       /v1/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := h.store.UpdateUser(c.Param("id"), ports.UserPatch{
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		Avatar:    req.Avatar,
		IsActive:  req.IsActive,
		LastLogin: req.LastLogin,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete drops a cached account.
//
// @Summary      Delete user
// @Tags         users
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.store.DeleteUser(c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
