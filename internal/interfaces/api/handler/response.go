package handler

import (
	"errors"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// OwnerHeader carries the authenticated owner id, set by the upstream auth proxy.
const OwnerHeader = "X-Owner-ID"

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func ownerID(c echo.Context) (string, error) {
	id := c.Request().Header.Get(OwnerHeader)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{Error: "missing " + OwnerHeader + " header"})
	}
	return id, nil
}

// writeError maps service errors onto HTTP status codes.
func writeError(c echo.Context, log logger.Logger, err error) error {
	var verr *appErrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, appErrors.ErrValidation):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, appErrors.ErrMedicationNotFound), errors.Is(err, appErrors.ErrDeviceNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		log.Error("Request failed", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
}
