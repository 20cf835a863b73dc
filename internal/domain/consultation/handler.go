package consultation

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/foresight-cdss/consult/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("physician", "nurse", "registrar"))
	g.POST("/consultations", h.OpenSession)
	g.GET("/consultations/:id", h.GetSession)
	g.DELETE("/consultations/:id", h.CloseSession)
	g.PUT("/consultations/:id/tab", h.SetTab)
	g.PATCH("/consultations/:id/draft", h.UpdateDraft)
	g.GET("/consultations/:id/patients", h.SearchPatients)
	g.PUT("/consultations/:id/patient", h.SelectPatient)
	g.DELETE("/consultations/:id/patient", h.ClearSelection)
	g.POST("/consultations/:id/submit", h.Submit)
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	sess, ok := h.svc.Registry().Get(id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return sess, nil
}

func (h *Handler) OpenSession(c echo.Context) error {
	sess := h.svc.Registry().Open(nil)
	return c.JSON(http.StatusCreated, sess.State())
}

func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess.State())
}

func (h *Handler) CloseSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid session id")
	}
	if !h.svc.Registry().Close(id) {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetTab(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var body struct {
		Tab Tab `json:"tab"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.Tab != TabExisting && body.Tab != TabNew {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown tab")
	}
	if err := sess.SetTab(body.Tab); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, sess.State())
}

func (h *Handler) UpdateDraft(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var patch FieldPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := sess.Update(patch); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, sess.State())
}

func (h *Handler) SearchPatients(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	results, err := h.svc.SearchPatients(c.Request().Context(), sess, c.QueryParam("term"))
	if err != nil {
		if errors.Is(err, ErrSessionClosed) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, results)
}

func (h *Handler) SelectPatient(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	var body struct {
		PatientID string `json:"patient_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.SelectPatient(c.Request().Context(), sess, body.PatientID); err != nil {
		if errors.Is(err, ErrSessionClosed) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, sess.State())
}

func (h *Handler) ClearSelection(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if err := sess.ClearSelection(); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, sess.State())
}

func (h *Handler) Submit(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	created, err := h.svc.Submit(c.Request().Context(), sess)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{
				"errors":    verr.Fields,
				"attention": true,
			})
		}
		if errors.Is(err, ErrSessionClosed) || errors.Is(err, ErrSubmitInFlight) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "could not start consultation")
	}
	return c.JSON(http.StatusCreated, created)
}
