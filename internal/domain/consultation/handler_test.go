package consultation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/foresight-cdss/consult/internal/domain/patient"
)

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture()
	return NewHandler(f.svc), f, echo.New()
}

func openSession(t *testing.T, h *Handler, e *echo.Echo) uuid.UUID {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/consultations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.OpenSession(c); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var state State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.Open || state.Draft.Tab != TabExisting {
		t.Fatalf("fresh session should be open on the existing tab: %+v", state)
	}
	return state.ID
}

func sessionRequest(e *echo.Echo, method, body string, id uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	return c, rec
}

func TestHandler_DraftRoundTrip(t *testing.T) {
	h, _, e := newTestHandler()
	id := openSession(t, h, e)

	c, rec := sessionRequest(e, http.MethodPut, `{"tab":"new"}`, id)
	if err := h.SetTab(c); err != nil {
		t.Fatalf("set tab: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, rec = sessionRequest(e, http.MethodPatch, `{"first_name":"Mila","reason":"fever"}`, id)
	if err := h.UpdateDraft(c); err != nil {
		t.Fatalf("update draft: %v", err)
	}
	var state State
	json.Unmarshal(rec.Body.Bytes(), &state)
	if state.Draft.Tab != TabNew || state.Draft.FirstName != "Mila" || state.Draft.Reason != "fever" {
		t.Errorf("draft not updated: %+v", state.Draft)
	}
}

func TestHandler_SetTabRejectsUnknown(t *testing.T) {
	h, _, e := newTestHandler()
	id := openSession(t, h, e)

	c, _ := sessionRequest(e, http.MethodPut, `{"tab":"bogus"}`, id)
	err := h.SetTab(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_SearchAndSelect(t *testing.T) {
	h, f, e := newTestHandler()
	p := &patient.Patient{ID: uuid.New(), FirstName: "Alice", LastName: "Adler"}
	f.patients.patients = append(f.patients.patients, p)
	id := openSession(t, h, e)

	req := httptest.NewRequest(http.MethodGet, "/?term=adl", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	if err := h.SearchPatients(c); err != nil {
		t.Fatalf("search: %v", err)
	}
	var results []*patient.Patient
	json.Unmarshal(rec.Body.Bytes(), &results)
	if len(results) != 1 || results[0].ID != p.ID {
		t.Fatalf("expected Alice, got %v", results)
	}

	c, rec = sessionRequest(e, http.MethodPut, `{"patient_id":"`+p.ID.String()+`"}`, id)
	if err := h.SelectPatient(c); err != nil {
		t.Fatalf("select: %v", err)
	}
	var state State
	json.Unmarshal(rec.Body.Bytes(), &state)
	if state.Draft.SelectedPatient == nil || state.Draft.SelectedPatient.ID != p.ID {
		t.Errorf("selection missing from state: %+v", state.Draft)
	}
	if state.Draft.SearchTerm != "adl" {
		t.Errorf("search term = %q, want %q", state.Draft.SearchTerm, "adl")
	}
}

func TestHandler_SubmitValidationFailure(t *testing.T) {
	h, f, e := newTestHandler()
	id := openSession(t, h, e)

	c, rec := sessionRequest(e, http.MethodPost, "", id)
	if err := h.Submit(c); err != nil {
		t.Fatalf("submit should answer with a body, not an error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var body struct {
		Errors    map[string]bool `json:"errors"`
		Attention bool            `json:"attention"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if !body.Errors["selected_patient"] || !body.Attention {
		t.Errorf("unexpected rejection body: %+v", body)
	}
	if len(f.admissions.created) != 0 {
		t.Errorf("invalid submission must not create records")
	}
}

func TestHandler_SubmitExisting(t *testing.T) {
	h, f, e := newTestHandler()
	p := &patient.Patient{ID: uuid.New(), FirstName: "Alice", LastName: "Adler"}
	f.patients.patients = append(f.patients.patients, p)
	id := openSession(t, h, e)

	c, _ := sessionRequest(e, http.MethodPut, `{"patient_id":"`+p.ID.String()+`"}`, id)
	// Selecting requires a loaded directory; SelectPatient loads on demand.
	if err := h.SelectPatient(c); err != nil {
		t.Fatalf("select: %v", err)
	}

	c, rec := sessionRequest(e, http.MethodPost, "", id)
	if err := h.Submit(c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created Created
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Admission == nil || created.Patient == nil {
		t.Fatalf("incomplete result: %+v", created)
	}
	if want := "/patients/" + p.ID.String() + "?ad=" + created.Admission.ID.String(); created.NavigateTo != want {
		t.Errorf("navigate_to = %q, want %q", created.NavigateTo, want)
	}

	// The session is resolved; further reads 404.
	c, _ = sessionRequest(e, http.MethodGet, "", id)
	err := h.GetSession(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 after resolution, got %v", err)
	}
}

func TestHandler_CloseSession(t *testing.T) {
	h, _, e := newTestHandler()
	id := openSession(t, h, e)

	c, rec := sessionRequest(e, http.MethodDelete, "", id)
	if err := h.CloseSession(c); err != nil {
		t.Fatalf("close: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c, _ = sessionRequest(e, http.MethodDelete, "", id)
	err := h.CloseSession(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404 on double close, got %v", err)
	}
}

func TestHandler_UnknownSession(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := sessionRequest(e, http.MethodGet, "", uuid.New())
	err := h.GetSession(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %v", err)
	}
}
