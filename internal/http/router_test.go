package http

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/OpenSundsvall/api-service-case-data/internal/data/aggregates"
	"github.com/OpenSundsvall/api-service-case-data/internal/data/repos"
	repotest "github.com/OpenSundsvall/api-service-case-data/internal/data/repos/testutil"
	types "github.com/OpenSundsvall/api-service-case-data/internal/domain"
	httpH "github.com/OpenSundsvall/api-service-case-data/internal/http/handlers"
	"github.com/OpenSundsvall/api-service-case-data/internal/http/response"
	"github.com/OpenSundsvall/api-service-case-data/internal/services"
)

type stubProcess struct {
	startErr error
}

func (p *stubProcess) StartProcess(context.Context, int64) (string, error) {
	if p.startErr != nil {
		return "", p.startErr
	}
	return "run-1", nil
}

func (p *stubProcess) UpdateProcess(context.Context, int64) error { return nil }

func newTestRouter(t *testing.T, process services.ProcessSync) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := repotest.DB(t)
	log := repotest.Logger(t)
	errands := repos.NewErrandRepo(db, log)
	hist := repos.NewHistoryRepo(db, log)
	agg := aggregates.NewErrandAggregate(aggregates.ErrandAggregateDeps{
		Base:    aggregates.BaseDeps{DB: db, Log: log},
		Errands: errands,
		History: hist,
		Numbers: services.NewErrandNumberGenerator(log, errands, nil),
	})
	return NewRouter(RouterConfig{
		Log:            log,
		ErrandHandler:  httpH.NewErrandHandler(services.NewErrandService(log, errands, agg, process, nil)),
		HistoryHandler: httpH.NewHistoryHandler(services.NewHistoryService(log, hist)),
		HealthHandler:  httpH.NewHealthHandler(nil),
	})
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *nethttp.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("ad-user", "kim01")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error.Code
}

const newErrandBody = `{"caseType":"PARKING_PERMIT","stakeholders":[{"type":"PERSON","firstName":"Kim"}]}`

func TestErrandLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t, &stubProcess{})

	rec := do(r, nethttp.MethodPost, "/errands", newErrandBody)
	if rec.Code != nethttp.StatusCreated {
		t.Fatalf("create: want=201 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/errands/1" {
		t.Fatalf("location: want=/errands/1 got=%s", loc)
	}

	rec = do(r, nethttp.MethodGet, "/errands/1", "")
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("get: want=200 got=%d", rec.Code)
	}
	var got types.Errand
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode errand: %v", err)
	}
	if !strings.HasPrefix(got.ErrandNumber, "PRH-") || got.CreatedBy != "kim01" || got.ProcessID != "run-1" {
		t.Fatalf("errand: number=%s createdBy=%s process=%s", got.ErrandNumber, got.CreatedBy, got.ProcessID)
	}

	if rec := do(r, nethttp.MethodPatch, "/errands/1", `{"phase":"Utredning"}`); rec.Code != nethttp.StatusNoContent {
		t.Fatalf("patch: want=204 got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodPatch, "/errands/1/notes", `{"title":"t","text":"x"}`)
	if rec.Code != nethttp.StatusCreated || !strings.HasPrefix(rec.Header().Get("Location"), "/notes/") {
		t.Fatalf("add note: want=201 /notes/.. got=%d %s", rec.Code, rec.Header().Get("Location"))
	}
	if rec := do(r, nethttp.MethodPut, "/errands/1/statuses", `[{"statusType":"Ärende inkommit"}]`); rec.Code != nethttp.StatusNoContent {
		t.Fatalf("replace statuses: want=204 got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(r, nethttp.MethodGet, "/errands/1/history", "")
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("history: want=200 got=%d", rec.Code)
	}
	var changes []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &changes); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(changes) < 2 || changes[0]["changeType"] != "created" {
		t.Fatalf("history: %s", rec.Body.String())
	}
}

func TestErrandErrorsOverHTTP(t *testing.T) {
	r := newTestRouter(t, &stubProcess{})
	if rec := do(r, nethttp.MethodPost, "/errands", newErrandBody); rec.Code != nethttp.StatusCreated {
		t.Fatalf("create: want=201 got=%d", rec.Code)
	}

	cases := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"missing errand", nethttp.MethodPatch, "/errands/99", `{"phase":"x"}`, nethttp.StatusNotFound, "not_found"},
		{"foreign child", nethttp.MethodDelete, "/errands/1/notes/77", "", nethttp.StatusNotFound, "not_found"},
		{"bad id", nethttp.MethodGet, "/errands/abc", "", nethttp.StatusBadRequest, "invalid_id"},
		{"empty message ids", nethttp.MethodGet, "/errands/1/message-ids", "", nethttp.StatusNotFound, "not_found"},
		{"no history", nethttp.MethodGet, "/notes/5/history", "", nethttp.StatusNotFound, "not_found"},
		{"malformed body", nethttp.MethodPatch, "/errands/1", `{`, nethttp.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		rec := do(r, tc.method, tc.path, tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: want=%d got=%d body=%s", tc.name, tc.status, rec.Code, rec.Body.String())
		}
		if got := errorCode(t, rec); got != tc.code {
			t.Fatalf("%s: code want=%s got=%s", tc.name, tc.code, got)
		}
	}
}

func TestErrandChildrenOverHTTP(t *testing.T) {
	r := newTestRouter(t, &stubProcess{})
	do(r, nethttp.MethodPost, "/errands", newErrandBody)

	var before types.Errand
	if err := json.Unmarshal(do(r, nethttp.MethodGet, "/errands/1", "").Body.Bytes(), &before); err != nil {
		t.Fatalf("decode errand: %v", err)
	}
	stakeholder := "/errands/1/stakeholders/" + strconv.FormatInt(before.Stakeholders[0].ID, 10)
	if rec := do(r, nethttp.MethodPatch, stakeholder, `{"roles":["APPLICANT"]}`); rec.Code != nethttp.StatusNoContent {
		t.Fatalf("patch stakeholder: want=204 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var after types.Errand
	if err := json.Unmarshal(do(r, nethttp.MethodGet, "/errands/1", "").Body.Bytes(), &after); err != nil {
		t.Fatalf("decode errand: %v", err)
	}
	if after.Version != before.Version+1 {
		t.Fatalf("root version: want=%d got=%d", before.Version+1, after.Version)
	}
	if rec := do(r, nethttp.MethodGet, "/errands/1/stakeholders?role=APPLICANT", ""); rec.Code != nethttp.StatusOK {
		t.Fatalf("stakeholders by role: want=200 got=%d", rec.Code)
	}

	rec := do(r, nethttp.MethodPatch, "/errands/1/notes", `{"title":"t","text":"x"}`)
	notePath := "/errands/1" + rec.Header().Get("Location")
	if rec := do(r, nethttp.MethodPut, notePath, `{"title":"t2","text":"y"}`); rec.Code != nethttp.StatusNoContent {
		t.Fatalf("put note: want=204 got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, notePath, "")
	var note types.Note
	if err := json.Unmarshal(rec.Body.Bytes(), &note); err != nil || note.Title != "t2" {
		t.Fatalf("get note: status=%d title=%q err=%v", rec.Code, note.Title, err)
	}

	if rec := do(r, nethttp.MethodDelete, notePath, ""); rec.Code != nethttp.StatusNoContent {
		t.Fatalf("delete note: want=204 got=%d", rec.Code)
	}
	rec = do(r, nethttp.MethodGet, notePath, "")
	if rec.Code != nethttp.StatusNotFound || errorCode(t, rec) != "not_found" {
		t.Fatalf("deleted note: want=404 got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMessageIDsOverHTTP(t *testing.T) {
	r := newTestRouter(t, &stubProcess{})
	do(r, nethttp.MethodPost, "/errands", newErrandBody)

	if rec := do(r, nethttp.MethodPatch, "/errands/1/message-ids", `["m-1","m-2"]`); rec.Code != nethttp.StatusNoContent {
		t.Fatalf("append: want=204 got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec := do(r, nethttp.MethodGet, "/errands/1/message-ids", "")
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("get: want=200 got=%d", rec.Code)
	}
	var ids []string
	if err := json.Unmarshal(rec.Body.Bytes(), &ids); err != nil {
		t.Fatalf("decode ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "m-1" || ids[1] != "m-2" {
		t.Fatalf("ids: want=[m-1 m-2] got=%v", ids)
	}
}

func TestCreateReportsUnavailableProcessEngine(t *testing.T) {
	r := newTestRouter(t, &stubProcess{startErr: errors.New("engine down")})

	rec := do(r, nethttp.MethodPost, "/errands", newErrandBody)
	if rec.Code != nethttp.StatusServiceUnavailable {
		t.Fatalf("create: want=503 got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := errorCode(t, rec); got != "service_unavailable" {
		t.Fatalf("code: want=service_unavailable got=%s", got)
	}
	if rec := do(r, nethttp.MethodGet, "/errands/1", ""); rec.Code != nethttp.StatusNotFound {
		t.Fatalf("compensated errand: want=404 got=%d", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, &stubProcess{})
	if rec := do(r, nethttp.MethodGet, "/healthcheck", ""); rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", rec.Code)
	}
}
