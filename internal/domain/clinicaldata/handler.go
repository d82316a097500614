package clinicaldata

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const basePath = "/api/clinicaldata"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/clinicaldata", h.ListClinicalData)
	api.GET("/clinicaldata/:id", h.GetClinicalData)
	api.POST("/clinicaldata", h.CreateClinicalData)
	api.POST("/clinicaldata/add", h.CreateSimple)
	api.POST("/clinicaldata/patient/:patientId", h.CreateForPatient)
	api.POST("/clinicaldata/patient/:patientId/add", h.CreateSimpleForPatient)
	api.PUT("/clinicaldata/:id", h.UpdateClinicalData)
	api.DELETE("/clinicaldata/:id", h.DeleteClinicalData)
}

func (h *Handler) ListClinicalData(c echo.Context) error {
	patientID, err := optionalUUID(c.QueryParam("patientId"), "patientId")
	if err != nil {
		return err
	}
	items, err := h.svc.ListClinicalData(c.Request().Context(), ListFilter{
		PatientID:     patientID,
		ComponentName: c.QueryParam("componentName"),
	})
	if err != nil {
		return toHTTPError(err)
	}
	if items == nil {
		items = []*ClinicalData{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetClinicalData(c echo.Context) error {
	id, err := requiredUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	cd, err := h.svc.GetClinicalData(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, cd)
}

// CreateClinicalData takes the owner from ?patientId or from the payload's
// patient.id.
func (h *Handler) CreateClinicalData(c echo.Context) error {
	patientID, err := optionalUUID(c.QueryParam("patientId"), "patientId")
	if err != nil {
		return err
	}
	return h.create(c, patientID)
}

func (h *Handler) CreateForPatient(c echo.Context) error {
	patientID, err := requiredUUID(c.Param("patientId"), "patientId")
	if err != nil {
		return err
	}
	return h.create(c, &patientID)
}

func (h *Handler) create(c echo.Context, patientID *uuid.UUID) error {
	var req ClinicalDataRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := validate(c, &req); err != nil {
		return err
	}
	cd, err := h.svc.CreateClinicalData(c.Request().Context(), patientID, &req)
	if err != nil {
		return toHTTPError(err)
	}
	return created(c, cd)
}

func (h *Handler) CreateSimple(c echo.Context) error {
	patientID, err := requiredUUID(c.QueryParam("patientId"), "patientId")
	if err != nil {
		return err
	}
	return h.createSimple(c, patientID)
}

func (h *Handler) CreateSimpleForPatient(c echo.Context) error {
	patientID, err := requiredUUID(c.Param("patientId"), "patientId")
	if err != nil {
		return err
	}
	return h.createSimple(c, patientID)
}

func (h *Handler) createSimple(c echo.Context, patientID uuid.UUID) error {
	req := SimpleRequest{
		ComponentName:  c.QueryParam("componentName"),
		ComponentValue: c.QueryParam("componentValue"),
	}
	if err := validate(c, &req); err != nil {
		return err
	}
	cd, err := h.svc.CreateSimple(c.Request().Context(), patientID, &req)
	if err != nil {
		return toHTTPError(err)
	}
	return created(c, cd)
}

// UpdateClinicalData reassigns ownership when ?patientId names an existing
// patient.
func (h *Handler) UpdateClinicalData(c echo.Context) error {
	id, err := requiredUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	reassignTo, err := optionalUUID(c.QueryParam("patientId"), "patientId")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if err := validate(c, &req); err != nil {
		return err
	}
	cd, err := h.svc.UpdateClinicalData(c.Request().Context(), id, reassignTo, &req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, cd)
}

func (h *Handler) DeleteClinicalData(c echo.Context) error {
	id, err := requiredUUID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteClinicalData(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func created(c echo.Context, cd *ClinicalData) error {
	c.Response().Header().Set(echo.HeaderLocation, basePath+"/"+cd.ID.String())
	return c.JSON(http.StatusCreated, cd)
}

// decodeBody rejects an absent body (empty or JSON null) with
// ErrMissingPayload before decoding.
func decodeBody(c echo.Context, v any) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingPayload.Error())
	}
	if err := json.Unmarshal(body, v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func validate(c echo.Context, v any) error {
	if err := c.Validate(v); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func optionalUUID(raw, name string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &id, nil
}

func requiredUUID(raw, name string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPatientUnresolved), errors.Is(err, ErrMissingPayload):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
