package handler

import (
	"io"
	"net/http"

	"codehut/internal/dto"
	"codehut/internal/middleware"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.CreateOrder(ctx, middleware.UserID(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.paymentService.VerifyPayment(ctx, middleware.UserID(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CancelOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.paymentService.CancelOrder(ctx, middleware.UserID(c), &req); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "cancelled",
	})
}

func (h *PaymentHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.paymentService.HandleWebhook(ctx, c.Request().Header, body); err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *PaymentHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()

	snippet, err := h.paymentService.Download(ctx, middleware.UserID(c), c.Param("snippetId"))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, snippet)
}

func (h *PaymentHandler) Orders(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.paymentService.ListOrders(ctx, middleware.UserID(c), pageFromQuery(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, orders)
}
