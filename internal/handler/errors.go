package handler

import (
	"errors"
	"net/http"
	"strconv"

	"codehut/internal/dto"
	"codehut/internal/middleware"
	"codehut/internal/service"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrMissingSnippetID, http.StatusBadRequest},
	{service.ErrInvalidPrice, http.StatusBadRequest},
	{service.ErrSelfPurchase, http.StatusBadRequest},
	{service.ErrFreeSnippet, http.StatusBadRequest},
	{service.ErrInvalidSignature, http.StatusBadRequest},
	{service.ErrInvalidPayload, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrInvalidToken, http.StatusUnauthorized},
	{service.ErrPaymentRequired, http.StatusPaymentRequired},
	{service.ErrAccountDisabled, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNoAccess, http.StatusForbidden},
	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrSnippetNotFound, http.StatusNotFound},
	{service.ErrSellerNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrUserExists, http.StatusConflict},
	{service.ErrAlreadyPurchased, http.StatusConflict},
	{service.ErrOrderNotPending, http.StatusConflict},
	{service.ErrGateway, http.StatusBadGateway},
}

// serviceError maps a service error to an HTTP error. Unknown errors become 500s
// and are logged, never shown to the client.
func serviceError(c echo.Context, err error) error {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return echo.NewHTTPError(e.status, e.err.Error())
		}
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Request().Method,
		"uri":    c.Request().RequestURI,
	}).Error("Request failed")

	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// bind decodes the request body into req and validates it.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func pageFromQuery(c echo.Context) dto.Page {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return dto.NewPage(page, limit)
}

func actor(c echo.Context) service.Actor {
	id := middleware.GetIdentity(c)
	if id == nil {
		return service.Actor{}
	}
	return service.Actor{UserID: id.UserID, Role: id.Role}
}
