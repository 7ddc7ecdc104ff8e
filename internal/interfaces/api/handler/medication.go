package handler

import (
	"encoding/json"
	"fmt"
	"medreminder/internal/application/dto"
	"medreminder/internal/application/service"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"
	"net/http"

	"github.com/labstack/echo/v4"
)

// MedicationHandler serves the medication endpoints.
type MedicationHandler struct {
	scheduler service.ReminderScheduler // nil on read-only nodes
	lister    service.MedicationLister
	log       logger.Logger
}

// NewMedicationHandler creates a new MedicationHandler.
func NewMedicationHandler(scheduler service.ReminderScheduler, log logger.Logger) *MedicationHandler {
	return &MedicationHandler{scheduler: scheduler, lister: scheduler, log: log}
}

// NewReadOnlyMedicationHandler creates a MedicationHandler that can only serve
// List and Stream.
func NewReadOnlyMedicationHandler(lister service.MedicationLister, log logger.Logger) *MedicationHandler {
	return &MedicationHandler{lister: lister, log: log}
}

func bindInput(c echo.Context) (dto.MedicationInput, error) {
	var input dto.MedicationInput
	if err := c.Bind(&input); err != nil {
		return input, fmt.Errorf("%w: %v", appErrors.ErrValidation, err)
	}
	return input, nil
}

// Create handles POST /v1/medications.
func (h *MedicationHandler) Create(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	input, err := bindInput(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	result, err := h.scheduler.CreateRecord(c.Request().Context(), owner, input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto.ToSaveResponse(result))
}

// Update handles PUT /v1/medications/:id.
func (h *MedicationHandler) Update(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	input, err := bindInput(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	result, err := h.scheduler.UpdateRecord(c.Request().Context(), owner, c.Param("id"), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto.ToSaveResponse(result))
}

// SetActive handles PATCH /v1/medications/:id/active.
func (h *MedicationHandler) SetActive(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	var req dto.SetActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return writeError(c, h.log, appErrors.NewValidationError("isActive", "is required"))
	}
	result, err := h.scheduler.SetActive(c.Request().Context(), owner, c.Param("id"), *req.IsActive)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto.ToSaveResponse(result))
}

// Delete handles DELETE /v1/medications/:id.
func (h *MedicationHandler) Delete(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	if err := h.scheduler.MarkDeleted(c.Request().Context(), owner, c.Param("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/medications: the first snapshot of the live feed.
func (h *MedicationHandler) List(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	feed, err := h.lister.ListActive(ctx, owner)
	if err != nil {
		return writeError(c, h.log, err)
	}
	defer feed.Stop()

	select {
	case list, ok := <-feed.C():
		if !ok {
			return writeError(c, h.log, appErrors.ErrInternalServer)
		}
		return c.JSON(http.StatusOK, dto.ToMedicationResponseList(list))
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stream handles GET /v1/medications/stream as server-sent events. Each
// event carries the full list; the feed is stopped when the client goes away.
func (h *MedicationHandler) Stream(c echo.Context) error {
	owner, err := ownerID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	feed, err := h.lister.ListActive(ctx, owner)
	if err != nil {
		return writeError(c, h.log, err)
	}
	defer feed.Stop()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	h.log.Info(fmt.Sprintf("Owner %s subscribed to medication stream", owner))
	defer h.log.Info(fmt.Sprintf("Owner %s left medication stream", owner))

	for {
		select {
		case <-ctx.Done():
			return nil
		case list, ok := <-feed.C():
			if !ok {
				return nil
			}
			payload, err := json.Marshal(dto.ToMedicationResponseList(list))
			if err != nil {
				h.log.Error("Failed to encode medication snapshot", err)
				return nil
			}
			if _, err := fmt.Fprintf(res, "event: medications\ndata: %s\n\n", payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
