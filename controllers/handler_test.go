package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/BerniceZTT/consultsim/config"
	"github.com/BerniceZTT/consultsim/controllers"
	"github.com/BerniceZTT/consultsim/middleware"
	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository"
	"github.com/BerniceZTT/consultsim/routes"
	"github.com/BerniceZTT/consultsim/service"
	"github.com/BerniceZTT/consultsim/utils"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
	Pagination struct {
		Total int64 `json:"total"`
	} `json:"pagination"`
}

func newServer(t *testing.T) (*gin.Engine, repository.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.InitAuth("test-key")

	store, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	params, err := config.DefaultParams()
	if err != nil {
		t.Fatalf("default params: %v", err)
	}
	cfg := &config.Config{
		StoreDriver:      config.DriverSQLite,
		OperatorUsername: "operator",
		OperatorPassword: utils.SimpleHash("s3cret", ""),
		StartYear:        2015,
		EndYear:          2015,
		SlotCount:        10,
	}

	router := gin.New()
	router.Use(middleware.Recovery(), middleware.ErrorHandler())
	routes.RegisterRoutes(router, controllers.NewHandler(store, service.NewRunner(store, params), cfg))
	return router, store
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code, env
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	code, env := do(t, router, http.MethodPost, "/api/auth/login", "", gin.H{"username": "operator", "password": "s3cret"})
	if code != http.StatusOK {
		t.Fatalf("login status = %d (%s)", code, env.Error)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Token == "" {
		t.Fatalf("login data = %s, err %v", env.Data, err)
	}
	return data.Token
}

func TestLogin(t *testing.T) {
	router, _ := newServer(t)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
	}{
		{"valid credentials", gin.H{"username": "operator", "password": "s3cret"}, http.StatusOK},
		{"wrong password", gin.H{"username": "operator", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", gin.H{"username": "someone", "password": "s3cret"}, http.StatusUnauthorized},
		{"missing password", gin.H{"username": "operator"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := do(t, router, http.MethodPost, "/api/auth/login", "", tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", code, tt.wantCode, env.Error)
			}
		})
	}
}

func TestRoutesRequireToken(t *testing.T) {
	router, _ := newServer(t)
	for _, path := range []string{"/api/runs/", "/api/consultants/", "/api/projects/", "/api/auth/validate"} {
		code, env := do(t, router, http.MethodGet, path, "", nil)
		if code != http.StatusUnauthorized || env.Code != "MISSING_TOKEN" {
			t.Fatalf("%s: status %d code %q", path, code, env.Code)
		}
	}
	code, env := do(t, router, http.MethodGet, "/api/projects/", "not-a-token", nil)
	if code != http.StatusUnauthorized || env.Code != "INVALID_TOKEN" {
		t.Fatalf("bad token: status %d code %q", code, env.Code)
	}
}

func TestHealthIsPublic(t *testing.T) {
	router, _ := newServer(t)
	code, _ := do(t, router, http.MethodGet, "/api/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("health status = %d", code)
	}
}

func TestReadEndpoints(t *testing.T) {
	router, store := newServer(t)
	token := login(t, router)

	start := time.Date(2015, time.March, 2, 0, 0, 0, 0, time.UTC)
	err := store.RunBatch(context.Background(), func(b *repository.Batch) error {
		b.SaveBusinessUnit(models.BusinessUnit{ID: "BU01", Name: "North America"})
		b.SaveClient(models.Client{ID: "CL0001", Name: "Acme Labs"})
		b.SaveConsultant(models.Consultant{ID: "C0001", FirstName: "Ada", LastName: "Lee", PerformanceTier: models.PerformanceAverage})
		b.SaveTitleRecord(models.TitleHistoryRecord{ID: "h1", ConsultantID: "C0001", Title: 4, StartDate: start, EventKind: models.EventHire, Salary: 120000})
		b.SaveProject(&models.Project{ID: "P00001", ClientID: "CL0001", BusinessUnitID: "BU01", Name: "Acme Labs Migration",
			ContractType: models.ContractFixed, Status: models.StatusInProgress, PlannedStartDate: &start})
		b.SaveMembership(models.ProjectTeamMembership{ID: "M1", ProjectID: "P00001", ConsultantID: "C0001", Role: models.RoleProjectManager, StartDate: start})
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	code, env := do(t, router, http.MethodGet, "/api/consultants/?page=1&limit=10", token, nil)
	if code != http.StatusOK || env.Pagination.Total != 1 {
		t.Fatalf("list consultants: status %d, total %d", code, env.Pagination.Total)
	}

	code, env = do(t, router, http.MethodGet, "/api/consultants/C0001", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get consultant: status %d", code)
	}
	var consultant models.ConsultantDetail
	if err := json.Unmarshal(env.Data, &consultant); err != nil {
		t.Fatalf("decode consultant: %v", err)
	}
	if len(consultant.TitleHistory) != 1 || len(consultant.Projects) != 1 {
		t.Fatalf("consultant detail = %+v", consultant)
	}

	code, env = do(t, router, http.MethodGet, "/api/projects/?status=In%20Progress&year=2015", token, nil)
	if code != http.StatusOK || env.Pagination.Total != 1 {
		t.Fatalf("list projects: status %d, total %d", code, env.Pagination.Total)
	}
	code, _ = do(t, router, http.MethodGet, "/api/projects/?status=Paused", token, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("unknown status filter: status %d", code)
	}

	code, env = do(t, router, http.MethodGet, "/api/projects/P00001", token, nil)
	if code != http.StatusOK {
		t.Fatalf("get project: status %d", code)
	}
	var detail models.ProjectDetail
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode project: %v", err)
	}
	if detail.Project.ID != "P00001" || len(detail.Team) != 1 {
		t.Fatalf("project detail = %+v", detail)
	}

	for _, path := range []string{"/api/projects/P99999", "/api/consultants/C9999", "/api/runs/missing"} {
		code, env = do(t, router, http.MethodGet, path, token, nil)
		if code != http.StatusNotFound || env.Code != "RESOURCE_NOT_FOUND" {
			t.Fatalf("%s: status %d code %q", path, code, env.Code)
		}
	}
}

func TestStartRunValidatesOptions(t *testing.T) {
	router, _ := newServer(t)
	token := login(t, router)

	code, env := do(t, router, http.MethodPost, "/api/runs/", token, gin.H{"startYear": 2016, "endYear": 2015})
	if code != http.StatusUnprocessableEntity || env.Code != "VALIDATION_FAILED" {
		t.Fatalf("status %d code %q", code, env.Code)
	}
}

func TestStartRunGeneratesInBackground(t *testing.T) {
	router, store := newServer(t)
	token := login(t, router)

	code, env := do(t, router, http.MethodPost, "/api/runs/", token, gin.H{"seed": 5, "slotCount": 10})
	if code != http.StatusAccepted {
		t.Fatalf("start run: status %d (%s)", code, env.Error)
	}
	var started struct {
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal(env.Data, &started); err != nil || started.RunID == "" {
		t.Fatalf("start data = %s, err %v", env.Data, err)
	}

	deadline := time.Now().Add(2 * time.Minute)
	for {
		run, err := store.GetRun(context.Background(), started.RunID)
		if err == nil && run.Status != models.RunRunning {
			if run.Status != models.RunSucceeded || run.Seed != 5 {
				t.Fatalf("run = %+v", run)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run %s did not finish", started.RunID)
		}
		time.Sleep(50 * time.Millisecond)
	}

	code, _ = do(t, router, http.MethodGet, "/api/runs/"+started.RunID, token, nil)
	if code != http.StatusOK {
		t.Fatalf("get run: status %d", code)
	}
}
