package handler

import (
	"net/http"
	"strconv"

	"codehut/internal/dto"
	"codehut/internal/middleware"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type SnippetHandler struct {
	snippetService service.SnippetService
}

func NewSnippetHandler(snippetService service.SnippetService) *SnippetHandler {
	return &SnippetHandler{
		snippetService: snippetService,
	}
}

func snippetFilter(c echo.Context) (*dto.SnippetFilter, error) {
	filter := &dto.SnippetFilter{
		Query:     c.QueryParam("q"),
		Language:  c.QueryParam("language"),
		Framework: c.QueryParam("framework"),
		Tag:       c.QueryParam("tag"),
		AuthorID:  c.QueryParam("authorId"),
		Sort:      c.QueryParam("sort"),
		Page:      pageFromQuery(c),
	}

	for param, dst := range map[string]**decimal.Decimal{
		"minPrice": &filter.MinPrice,
		"maxPrice": &filter.MaxPrice,
	} {
		raw := c.QueryParam(param)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
		}
		*dst = &v
	}

	if raw := c.QueryParam("free"); raw != "" {
		free, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid free")
		}
		filter.Free = &free
	}

	return filter, nil
}

func (h *SnippetHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	filter, err := snippetFilter(c)
	if err != nil {
		return err
	}

	result, err := h.snippetService.List(ctx, filter)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *SnippetHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.snippetService.Get(ctx, middleware.UserID(c), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, view)
}

func (h *SnippetHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateSnippetRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	snippet, err := h.snippetService.Create(ctx, actor(c), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusCreated, snippet)
}

func (h *SnippetHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateSnippetRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	snippet, err := h.snippetService.Update(ctx, actor(c), c.Param("id"), &req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, snippet)
}

func (h *SnippetHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.snippetService.Delete(ctx, actor(c), c.Param("id")); err != nil {
		return serviceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
