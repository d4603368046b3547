package handler

import (
	"net/http"

	"codehut/internal/middleware"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
)

type SearchHandler struct {
	searchService service.SearchService
	statsService  service.StatsService
}

func NewSearchHandler(searchService service.SearchService, statsService service.StatsService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		statsService:  statsService,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	kind := c.QueryParam("type")
	switch kind {
	case "", "all", "snippets", "users":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "type must be one of all, snippets, users")
	}

	result, err := h.searchService.Search(ctx, c.QueryParam("q"), kind, pageFromQuery(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *SearchHandler) Suggestions(c echo.Context) error {
	ctx := c.Request().Context()

	suggestions, err := h.searchService.Suggestions(ctx, c.QueryParam("q"))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string][]string{
		"suggestions": suggestions,
	})
}

func (h *SearchHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.statsService.Platform(ctx)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *SearchHandler) Languages(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.statsService.Languages(ctx)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, counts)
}

func (h *SearchHandler) SellerStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.statsService.Seller(ctx, middleware.UserID(c))
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
