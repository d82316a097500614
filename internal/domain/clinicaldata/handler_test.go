package clinicaldata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicals/clinicals/internal/platform/validation"
)

func newTestHandler() (*Handler, *testEnv, *echo.Echo) {
	env := newTestEnv()
	e := echo.New()
	e.Validator = validation.New()
	return NewHandler(env.svc), env, e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected HTTP %d error, got nil", code)
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d (%v)", code, httpErr.Code, httpErr.Message)
	}
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) ClinicalData {
	t.Helper()
	var cd ClinicalData
	if err := json.Unmarshal(rec.Body.Bytes(), &cd); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return cd
}

func TestHandler_Create_QueryPatient(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	body := `{"id":"` + uuid.New().String() + `","componentName":"hw","componentValue":"210/72"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/clinicaldata?patientId="+pid.String(), body), rec)

	if err := h.CreateClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	cd := decodeRecord(t, rec)
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/api/clinicaldata/"+cd.ID.String() {
		t.Errorf("unexpected Location header: %s", loc)
	}
	stored := env.repo.items[cd.ID]
	if stored == nil || stored.PatientID != pid {
		t.Fatalf("expected stored row owned by %s, got %v", pid, stored)
	}
	if strings.Contains(rec.Body.String(), "patient") {
		t.Errorf("expected owner to be left out of the response, got %s", rec.Body.String())
	}
}

func TestHandler_Create_QueryPatientBeatsPayload(t *testing.T) {
	h, env, e := newTestHandler()
	queryPID := env.addPatient()
	payloadPID := env.addPatient()

	body := `{"componentName":"hr","componentValue":"70","patient":{"id":"` + payloadPID.String() + `"}}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/clinicaldata?patientId="+queryPID.String(), body), rec)

	if err := h.CreateClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cd := decodeRecord(t, rec)
	if env.repo.items[cd.ID].PatientID != queryPID {
		t.Errorf("expected query patient %s to win, got %s", queryPID, env.repo.items[cd.ID].PatientID)
	}
}

func TestHandler_Create_PayloadPatient(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	body := `{"componentName":"hr","componentValue":"70","measuredDateTime":"2026-04-01T09:00:00Z","patient":{"id":"` + pid.String() + `"}}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/clinicaldata", body), rec)

	if err := h.CreateClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cd := decodeRecord(t, rec)
	if !cd.MeasuredDateTime.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected supplied measuredDateTime, got %v", cd.MeasuredDateTime)
	}
	if env.repo.items[cd.ID].PatientID != pid {
		t.Errorf("expected payload patient %s", pid)
	}
}

func TestHandler_Create_DefaultsMeasuredDateTime(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/clinicaldata?patientId="+pid.String(), `{"componentName":"hr","componentValue":"70"}`), rec)

	if err := h.CreateClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cd := decodeRecord(t, rec)
	if d := time.Since(cd.MeasuredDateTime); d < -time.Second || d > 5*time.Second {
		t.Errorf("expected measuredDateTime near now, got %v", cd.MeasuredDateTime)
	}
}

func TestHandler_Create_BadRequest(t *testing.T) {
	unknown := uuid.New().String()
	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"unknown patient", "/api/clinicaldata?patientId=" + unknown, `{"componentName":"hr","componentValue":"70"}`},
		{"no patient", "/api/clinicaldata", `{"componentName":"hr","componentValue":"70"}`},
		{"malformed patient id", "/api/clinicaldata?patientId=abc", `{"componentName":"hr","componentValue":"70"}`},
		{"missing body", "/api/clinicaldata?patientId=" + unknown, ``},
		{"null body", "/api/clinicaldata?patientId=" + unknown, `null`},
		{"missing component name", "/api/clinicaldata?patientId=" + unknown, `{"componentValue":"70"}`},
		{"component value too long", "/api/clinicaldata?patientId=" + unknown, `{"componentName":"hr","componentValue":"` + strings.Repeat("9", 256) + `"}`},
		{"malformed json", "/api/clinicaldata?patientId=" + unknown, `{"componentName":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, env, e := newTestHandler()
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPost, tt.target, tt.body), rec)

			expectHTTPError(t, h.CreateClinicalData(c), http.StatusBadRequest)
			if len(env.repo.items) != 0 {
				t.Errorf("expected no row to be created, got %d", len(env.repo.items))
			}
		})
	}
}

func TestHandler_CreateForPatient(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"componentName":"bp","componentValue":"120/80"}`), rec)
	c.SetParamNames("patientId")
	c.SetParamValues(pid.String())

	if err := h.CreateForPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	cd := decodeRecord(t, rec)
	if env.repo.items[cd.ID].PatientID != pid {
		t.Errorf("expected path patient %s", pid)
	}
}

func TestHandler_CreateForPatient_UnknownPatient(t *testing.T) {
	h, _, e := newTestHandler()

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/", `{"componentName":"bp","componentValue":"120/80"}`), rec)
	c.SetParamNames("patientId")
	c.SetParamValues(uuid.New().String())

	expectHTTPError(t, h.CreateForPatient(c), http.StatusBadRequest)
}

func TestHandler_CreateSimple(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	target := "/api/clinicaldata/add?patientId=" + pid.String() + "&componentName=temp&componentValue=37.5"
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, target, nil), rec)

	if err := h.CreateSimple(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	cd := decodeRecord(t, rec)
	if cd.ComponentName != "temp" || cd.ComponentValue != "37.5" {
		t.Errorf("unexpected record: %s", rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderLocation) == "" {
		t.Error("expected Location header")
	}
}

func TestHandler_CreateSimple_BadRequest(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	targets := []string{
		"/api/clinicaldata/add?patientId=" + uuid.New().String() + "&componentName=temp&componentValue=37",
		"/api/clinicaldata/add?componentName=temp&componentValue=37",
		"/api/clinicaldata/add?patientId=" + pid.String() + "&componentValue=37",
	}
	for _, target := range targets {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, target, nil), rec)
		expectHTTPError(t, h.CreateSimple(c), http.StatusBadRequest)
	}
	if len(env.repo.items) != 0 {
		t.Errorf("expected no rows, got %d", len(env.repo.items))
	}
}

func TestHandler_CreateSimpleForPatient(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/?componentName=hr&componentValue=64", nil), rec)
	c.SetParamNames("patientId")
	c.SetParamValues(pid.String())

	if err := h.CreateSimpleForPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cd := decodeRecord(t, rec)
	if env.repo.items[cd.ID].PatientID != pid {
		t.Errorf("expected owner %s", pid)
	}
}

func TestHandler_ListClinicalData_OrderedByMeasuredDesc(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := env.createAt(t, pid, "HR", "60", base)
	t3 := env.createAt(t, pid, "HR", "80", base.Add(2*time.Hour))
	t2 := env.createAt(t, pid, "HR", "70", base.Add(time.Hour))
	env.createAt(t, pid, "BP", "120/80", base)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/clinicaldata?patientId="+pid.String()+"&componentName=HR", nil), rec)

	if err := h.ListClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []ClinicalData
	json.Unmarshal(rec.Body.Bytes(), &items)
	want := []uuid.UUID{t3.ID, t2.ID, t1.ID}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, items[i].ID)
		}
	}
}

func TestHandler_ListClinicalData_InvalidPatientID(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/clinicaldata?patientId=xyz", nil), rec)

	expectHTTPError(t, h.ListClinicalData(c), http.StatusBadRequest)
}

func TestHandler_ListClinicalData_Empty(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/clinicaldata", nil), rec)

	if err := h.ListClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty array, got %s", body)
	}
}

func TestHandler_GetClinicalData(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()
	cd := env.createAt(t, pid, "hr", "70", time.Now())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(cd.ID.String())

	if err := h.GetClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := decodeRecord(t, rec); got.ID != cd.ID {
		t.Errorf("expected %s, got %s", cd.ID, got.ID)
	}
}

func TestHandler_GetClinicalData_NotFound(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	expectHTTPError(t, h.GetClinicalData(c), http.StatusNotFound)
}

func TestHandler_UpdateClinicalData_IgnoresUnknownReassignment(t *testing.T) {
	h, env, e := newTestHandler()
	owner := env.addPatient()
	cd := env.createAt(t, owner, "hr", "70", time.Now())

	body := `{"componentName":"hr","componentValue":"88","measuredDateTime":"2026-06-01T12:00:00Z"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/?patientId="+uuid.New().String(), body), rec)
	c.SetParamNames("id")
	c.SetParamValues(cd.ID.String())

	if err := h.UpdateClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	stored := env.repo.items[cd.ID]
	if stored.PatientID != owner {
		t.Errorf("expected owner to stay %s, got %s", owner, stored.PatientID)
	}
	if stored.ComponentValue != "88" {
		t.Errorf("expected value 88, got %s", stored.ComponentValue)
	}
}

func TestHandler_UpdateClinicalData_Reassigns(t *testing.T) {
	h, env, e := newTestHandler()
	from := env.addPatient()
	to := env.addPatient()
	cd := env.createAt(t, from, "hr", "70", time.Now())

	body := `{"componentName":"hr","componentValue":"70","measuredDateTime":"2026-06-01T12:00:00Z"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPut, "/?patientId="+to.String(), body), rec)
	c.SetParamNames("id")
	c.SetParamValues(cd.ID.String())

	if err := h.UpdateClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.repo.items[cd.ID].PatientID != to {
		t.Errorf("expected owner %s", to)
	}
}

func TestHandler_UpdateClinicalData_Errors(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()
	cd := env.createAt(t, pid, "hr", "70", time.Now())
	full := `{"componentName":"hr","componentValue":"1","measuredDateTime":"2026-06-01T12:00:00Z"}`

	tests := []struct {
		name string
		id   string
		body string
		code int
	}{
		{"unknown id", uuid.New().String(), full, http.StatusNotFound},
		{"invalid id", "nope", full, http.StatusBadRequest},
		{"missing body", cd.ID.String(), ``, http.StatusBadRequest},
		{"missing measuredDateTime", cd.ID.String(), `{"componentName":"hr","componentValue":"1"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(jsonRequest(http.MethodPut, "/", tt.body), rec)
			c.SetParamNames("id")
			c.SetParamValues(tt.id)

			expectHTTPError(t, h.UpdateClinicalData(c), tt.code)
		})
	}
}

func TestHandler_DeleteClinicalData(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()
	cd := env.createAt(t, pid, "hr", "70", time.Now())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(cd.ID.String())

	if err := h.DeleteClinicalData(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if _, ok := env.repo.items[cd.ID]; ok {
		t.Error("expected row to be removed")
	}
}

func TestHandler_DeleteClinicalData_NotFound(t *testing.T) {
	h, env, e := newTestHandler()
	pid := env.addPatient()
	env.createAt(t, pid, "hr", "70", time.Now())

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	expectHTTPError(t, h.DeleteClinicalData(c), http.StatusNotFound)
	if len(env.repo.items) != 1 {
		t.Errorf("expected no side effect, got %d rows", len(env.repo.items))
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api"))

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}

	expected := []string{
		"GET:/api/clinicaldata",
		"GET:/api/clinicaldata/:id",
		"POST:/api/clinicaldata",
		"POST:/api/clinicaldata/add",
		"POST:/api/clinicaldata/patient/:patientId",
		"POST:/api/clinicaldata/patient/:patientId/add",
		"PUT:/api/clinicaldata/:id",
		"DELETE:/api/clinicaldata/:id",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}

func TestHandler_SimpleRouteThroughRouter(t *testing.T) {
	h, env, e := newTestHandler()
	h.RegisterRoutes(e.Group("/api"))
	pid := env.addPatient()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/clinicaldata/patient/"+pid.String()+"/add?componentName=hr&componentValue=66", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}
