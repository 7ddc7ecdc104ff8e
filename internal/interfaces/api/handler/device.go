package handler

import (
	"fmt"
	"medreminder/internal/application/dto"
	"medreminder/internal/application/service"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DeviceHandler serves the delivery target endpoints.
type DeviceHandler struct {
	devices service.DeviceService
	log     logger.Logger
}

// NewDeviceHandler creates a new DeviceHandler.
func NewDeviceHandler(devices service.DeviceService, log logger.Logger) *DeviceHandler {
	return &DeviceHandler{devices: devices, log: log}
}

func bindDevice(c echo.Context) (dto.DeviceRequest, error) {
	var req dto.DeviceRequest
	if err := c.Bind(&req); err != nil {
		return req, fmt.Errorf("%w: %v", appErrors.ErrValidation, err)
	}
	return req, nil
}

// Register handles POST /v1/devices.
func (h *DeviceHandler) Register(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	req, err := bindDevice(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	device, err := h.devices.Register(c.Request().Context(), owner, req)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto.ToDeviceResponse(device))
}

// Unregister handles DELETE /v1/devices.
func (h *DeviceHandler) Unregister(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	req, err := bindDevice(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.devices.Unregister(c.Request().Context(), owner, req); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/devices.
func (h *DeviceHandler) List(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	devices, err := h.devices.List(c.Request().Context(), owner)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto.ToDeviceResponseList(devices))
}
