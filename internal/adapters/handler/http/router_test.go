package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/catalog"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/logger"
	"github.com/comitanigiacomo/kanso-growth-engine/internal/metrics"
)

const testAdminEmail = "admin@example.com"

type testServer struct {
	router    *gin.Engine
	documents *repository.InMemoryDocumentStore
	users     *repository.InMemoryUserRepository
	registry  *prometheus.Registry
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupServer(t *testing.T, checks map[string]adapterHTTP.HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	documents := repository.NewInMemoryDocumentStore()
	users := repository.NewInMemoryUserRepository()
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	plan := catalog.Default()
	log := logger.Discard()

	progress := services.NewProgressService(repository.NewProgressRepository(documents), plan, m)
	goals := services.NewGoalService(repository.NewGoalRepository(documents), testAdminEmail)
	tokens := services.NewTokenService("test-secret", "kanso-growth-engine", time.Hour, users)
	auth := services.NewAuthService(users, tokens, progress, goals, log).WithAdminGoals(goals)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(auth),
		CatalogHandler:   adapterHTTP.NewCatalogHandler(plan),
		ProgressHandler:  adapterHTTP.NewProgressHandler(progress),
		GoalHandler:      adapterHTTP.NewGoalHandler(goals),
		DashboardHandler: adapterHTTP.NewDashboardHandler(services.NewDashboardService(progress, goals)),
		TokenService:     tokens,
		Metrics:          m,
		Gatherer:         registry,
		Logger:           log,
		HealthChecks:     checks,
		StartTime:        time.Now(),
	})

	return &testServer{router: router, documents: documents, users: users, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its session token.
func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "",
		`{"email":"`+email+`","password":"secret123","name":"Test User"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session struct {
		Token string `json:"token"`
	}
	decodeData(t, w, &session)
	require.NotEmpty(t, session.Token)
	return session.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestRouter_Health(t *testing.T) {
	t.Run("Success: 200 when every check passes", func(t *testing.T) {
		srv := setupServer(t, map[string]adapterHTTP.HealthCheck{
			"database": func(context.Context) error { return nil },
		})

		w := srv.do(t, http.MethodGet, "/health", "", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
		assert.Contains(t, w.Body.String(), `"database":"connected"`)
	})

	t.Run("Fail: 503 when a check fails", func(t *testing.T) {
		srv := setupServer(t, map[string]adapterHTTP.HealthCheck{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})

		w := srv.do(t, http.MethodGet, "/health", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"redis":"unreachable"`)
	})
}

func TestRouter_Metrics(t *testing.T) {
	srv := setupServer(t, nil)

	srv.do(t, http.MethodGet, "/api/v1/catalog/phases", "", "")
	w := srv.do(t, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "kanso_growth_http_requests_total"))
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := setupServer(t, nil)

	w := srv.do(t, http.MethodOptions, "/api/v1/progress", "", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	srv := setupServer(t, nil)

	for _, path := range []string{"/api/v1/progress", "/api/v1/goals", "/api/v1/dashboard", "/api/v1/auth/me"} {
		w := srv.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Contains(t, w.Body.String(), `"success":false`)
	}
}
