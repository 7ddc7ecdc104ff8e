package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medreminder/internal/application/dto"
	"medreminder/internal/application/service"
	"medreminder/internal/domain/constant"
	"medreminder/internal/domain/entity"
	appErrors "medreminder/internal/pkg/errors"
	"medreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest(method, target, body, owner string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	return req, httptest.NewRecorder()
}

func sampleMedication() *entity.Medication {
	return &entity.Medication{
		ID:          "med-1",
		OwnerID:     "user-1",
		Name:        "Aspirin",
		Kind:        constant.KindPill,
		Dose:        "100mg",
		TimesPerDay: 2,
		Schedule:    []entity.TimeOfDay{entity.At(8, 0), entity.At(20, 0)},
		IsActive:    true,
		ReminderIDs: []string{"r1", ""},
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestMedicationHandler_Create(t *testing.T) {
	var gotOwner string
	var gotInput dto.MedicationInput
	mock := &MockReminderScheduler{
		CreateRecordFunc: func(_ context.Context, ownerID string, input dto.MedicationInput) (*dto.SaveResult, error) {
			gotOwner, gotInput = ownerID, input
			return &dto.SaveResult{
				Medication: sampleMedication(),
				Warnings:   []error{fmt.Errorf("%w: schedule 20:00: boom", appErrors.ErrGateway)},
			}, nil
		},
	}
	h := NewMedicationHandler(mock, logger.Nop())
	e := echo.New()

	body := `{"name":"Aspirin","kind":"pill","dose":"100mg","timesPerDay":2,"schedule":["08:00","20:00"],"isActive":true}`
	req, rec := newRequest(http.MethodPost, "/v1/medications", body, "user-1")
	require.NoError(t, h.Create(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", gotOwner)
	assert.Equal(t, []entity.TimeOfDay{entity.At(8, 0), entity.At(20, 0)}, gotInput.Schedule)

	var resp dto.MedicationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "med-1", resp.ID)
	assert.Equal(t, []string{"r1"}, resp.ReminderIDs)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "20:00")
}

func TestMedicationHandler_MissingOwner(t *testing.T) {
	h := NewMedicationHandler(&MockReminderScheduler{}, logger.Nop())
	e := echo.New()

	req, rec := newRequest(http.MethodPost, "/v1/medications", `{}`, "")
	err := h.Create(e.NewContext(req, rec))

	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestMedicationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", appErrors.NewValidationError("dose", "must not be empty"), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: med-1", appErrors.ErrMedicationNotFound), http.StatusNotFound},
		{"persistence", fmt.Errorf("%w: disk full", appErrors.ErrPersistence), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockReminderScheduler{
				UpdateRecordFunc: func(context.Context, string, string, dto.MedicationInput) (*dto.SaveResult, error) {
					return nil, tt.err
				},
			}
			h := NewMedicationHandler(mock, logger.Nop())
			e := echo.New()

			req, rec := newRequest(http.MethodPut, "/v1/medications/med-1", `{"name":"x"}`, "user-1")
			c := e.NewContext(req, rec)
			c.SetParamNames("id")
			c.SetParamValues("med-1")
			require.NoError(t, h.Update(c))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestMedicationHandler_SetActiveRequiresFlag(t *testing.T) {
	called := false
	mock := &MockReminderScheduler{
		SetActiveFunc: func(_ context.Context, _, id string, isActive bool) (*dto.SaveResult, error) {
			called = true
			m := sampleMedication()
			m.IsActive = isActive
			return &dto.SaveResult{Medication: m}, nil
		},
	}
	h := NewMedicationHandler(mock, logger.Nop())
	e := echo.New()

	req, rec := newRequest(http.MethodPatch, "/v1/medications/med-1/active", `{}`, "user-1")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("med-1")
	require.NoError(t, h.SetActive(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	req, rec = newRequest(http.MethodPatch, "/v1/medications/med-1/active", `{"isActive":false}`, "user-1")
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("med-1")
	require.NoError(t, h.SetActive(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestMedicationHandler_Delete(t *testing.T) {
	var gotID string
	mock := &MockReminderScheduler{
		MarkDeletedFunc: func(_ context.Context, _, id string) error {
			gotID = id
			return nil
		},
	}
	h := NewMedicationHandler(mock, logger.Nop())
	e := echo.New()

	req, rec := newRequest(http.MethodDelete, "/v1/medications/med-1", "", "user-1")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("med-1")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "med-1", gotID)
}

func TestMedicationHandler_ListStopsFeed(t *testing.T) {
	feed := newStaticFeed([]*entity.Medication{sampleMedication()})
	mock := &MockReminderScheduler{
		ListActiveFunc: func(context.Context, string) (service.MedicationFeed, error) { return feed, nil },
	}
	h := NewMedicationHandler(mock, logger.Nop())
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/medications", "", "user-1")
	require.NoError(t, h.List(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.MedicationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Aspirin", resp[0].Name)
	assert.True(t, feed.isStopped())
}

func TestMedicationHandler_Stream(t *testing.T) {
	second := sampleMedication()
	second.ID = "med-2"
	feed := newStaticFeed([]*entity.Medication{sampleMedication()}, []*entity.Medication{second, sampleMedication()})
	close(feed.ch)
	mock := &MockReminderScheduler{
		ListActiveFunc: func(context.Context, string) (service.MedicationFeed, error) { return feed, nil },
	}
	h := NewMedicationHandler(mock, logger.Nop())
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/medications/stream", "", "user-1")
	require.NoError(t, h.Stream(e.NewContext(req, rec)))

	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 2, strings.Count(rec.Body.String(), "event: medications\n"))
	assert.Contains(t, rec.Body.String(), `"id":"med-2"`)
	assert.True(t, feed.isStopped())
}

func TestMedicationHandler_StreamEndsWithClient(t *testing.T) {
	feed := newStaticFeed()
	mock := &MockReminderScheduler{
		ListActiveFunc: func(context.Context, string) (service.MedicationFeed, error) { return feed, nil },
	}
	h := NewMedicationHandler(mock, logger.Nop())
	e := echo.New()

	ctx, cancel := context.WithCancel(context.Background())
	req, rec := newRequest(http.MethodGet, "/v1/medications/stream", "", "user-1")
	req = req.WithContext(ctx)
	cancel()

	require.NoError(t, h.Stream(e.NewContext(req, rec)))
	assert.True(t, feed.isStopped())
}

func TestReadOnlyMedicationHandler_Lists(t *testing.T) {
	feed := newStaticFeed([]*entity.Medication{sampleMedication()})
	lister := &MockReminderScheduler{
		ListActiveFunc: func(context.Context, string) (service.MedicationFeed, error) { return feed, nil },
	}
	h := NewReadOnlyMedicationHandler(lister, logger.Nop())
	e := echo.New()

	req, rec := newRequest(http.MethodGet, "/v1/medications", "", "user-1")
	require.NoError(t, h.List(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, h.scheduler)
}
