package handler

import (
	"net/http"

	"codehut/internal/dto"
	"codehut/internal/middleware"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

func sessionMeta(c echo.Context) dto.SessionMeta {
	return dto.SessionMeta{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	}
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Signup(ctx, &req, sessionMeta(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Login(ctx, &req, sessionMeta(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.Refresh(ctx, req.RefreshToken, sessionMeta(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Logged out",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()

	user, err := h.authService.Me(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Sessions(c echo.Context) error {
	ctx := c.Request().Context()

	sessions, err := h.authService.ListSessions(ctx, pageFromQuery(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, sessions)
}
