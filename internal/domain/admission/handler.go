package admission

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/foresight-cdss/consult/internal/platform/auth"
	"github.com/foresight-cdss/consult/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("physician", "nurse", "registrar"))
	readGroup.GET("/admissions/:id", h.GetAdmission)
	readGroup.GET("/patients/:id/admissions", h.ListByPatient)
	readGroup.GET("/admissions/:id/treatments", h.GetTreatments)
	readGroup.GET("/admissions/:id/diagnoses", h.GetDiagnoses)
	readGroup.GET("/admissions/:id/labs", h.GetLabResults)

	writeGroup := api.Group("", auth.RequireRole("physician", "registrar"))
	writeGroup.POST("/admissions", h.CreateAdmission)
	writeGroup.PUT("/admissions/:id", h.UpdateAdmission)
	writeGroup.DELETE("/admissions/:id", h.DeleteAdmission)
	writeGroup.POST("/admissions/:id/restore", h.RestoreAdmission)
	writeGroup.POST("/admissions/:id/treatments", h.AddTreatment)
	writeGroup.POST("/admissions/:id/diagnoses", h.AddDiagnosis)
	writeGroup.POST("/admissions/:id/labs", h.AddLabResult)
}

func (h *Handler) CreateAdmission(c echo.Context) error {
	var adm Admission
	if err := c.Bind(&adm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAdmission(c.Request().Context(), &adm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, adm)
}

func (h *Handler) GetAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	adm, err := h.svc.GetAdmission(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "admission not found")
	}
	return c.JSON(http.StatusOK, adm)
}

func (h *Handler) UpdateAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var adm Admission
	if err := c.Bind(&adm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	adm.ID = id
	if err := h.svc.UpdateAdmission(c.Request().Context(), &adm); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, adm)
}

func (h *Handler) DeleteAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAdmission(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) RestoreAdmission(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.RestoreAdmission(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	admissions, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(admissions, total, pg.Limit, pg.Offset))
}

func (h *Handler) AddTreatment(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var t Treatment
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t.AdmissionID = admissionID
	if err := h.svc.AddTreatment(c.Request().Context(), &t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTreatments(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	treatments, err := h.svc.GetTreatments(c.Request().Context(), admissionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, treatments)
}

func (h *Handler) AddDiagnosis(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.AdmissionID = admissionID
	if err := h.svc.AddDiagnosis(c.Request().Context(), &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDiagnoses(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	diagnoses, err := h.svc.GetDiagnoses(c.Request().Context(), admissionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, diagnoses)
}

func (h *Handler) AddLabResult(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var lr LabResult
	if err := c.Bind(&lr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	lr.AdmissionID = admissionID
	if err := h.svc.AddLabResult(c.Request().Context(), &lr); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, lr)
}

func (h *Handler) GetLabResults(c echo.Context) error {
	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	results, err := h.svc.GetLabResults(c.Request().Context(), admissionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, results)
}
