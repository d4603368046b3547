package handler

import (
	"net/http"

	"codehut/internal/dto"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.userService.List(ctx, c.QueryParam("q"), pageFromQuery(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.userService.Get(ctx, c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Snippets(c echo.Context) error {
	ctx := c.Request().Context()

	snippets, err := h.userService.ListSnippets(ctx, c.Param("id"), pageFromQuery(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, snippets)
}

func (h *UserHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.UpdateProfile(ctx, actor(c), c.Param("id"), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateUserStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.userService.SetActive(ctx, c.Param("id"), *req.IsActive)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}
