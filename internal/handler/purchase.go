package handler

import (
	"net/http"

	"codehut/internal/dto"
	"codehut/internal/middleware"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
)

type PurchaseHandler struct {
	purchaseService service.PurchaseService
	accessService   service.AccessService
}

func NewPurchaseHandler(purchaseService service.PurchaseService, accessService service.AccessService) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		accessService:   accessService,
	}
}

func (h *PurchaseHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	purchases, err := h.purchaseService.ListPurchases(ctx, middleware.UserID(c), pageFromQuery(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, purchases)
}

func (h *PurchaseHandler) Purchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PurchaseRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	purchase, err := h.purchaseService.Purchase(ctx, middleware.UserID(c), req.SnippetID)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, purchase)
}

func (h *PurchaseHandler) Check(c echo.Context) error {
	ctx := c.Request().Context()

	access, err := h.accessService.CheckByID(ctx, middleware.UserID(c), c.Param("snippetId"))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, access)
}
