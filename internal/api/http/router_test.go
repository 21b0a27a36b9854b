package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/observability"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

const complaintID = "6f1c2a3e-9d4b-4c8e-a1f2-3b4c5d6e7f80"

type stubAccounts map[string]*domain.StaffAccount

func (s stubAccounts) GetByID(_ context.Context, id string) (*domain.StaffAccount, error) {
	if a, ok := s[id]; ok {
		return a, nil
	}
	return nil, pgx.ErrNoRows
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, deps map[string]handlers.Pinger) *testServer {
	t.Helper()
	policy, err := auth.NewPolicy()
	require.NoError(t, err)
	tokens := auth.NewTokenManager("router-secret", 15)
	accounts := stubAccounts{
		"adm": {ID: "adm", Username: "admin", Role: domain.RoleAdmin, Active: true},
		"eng": {ID: "eng", Username: "ravi", Role: domain.RoleEngineer, Active: true},
		"mgr": {ID: "mgr", Username: "meera", Role: domain.RoleManager, Active: true},
	}

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", deps),
		Auth:           handlers.NewAuthHandler(nil),
		Complaints:     handlers.NewComplaintsHandler(nil, nil),
		Products:       handlers.NewProductsHandler(nil, nil),
		Staff:          handlers.NewStaffHandler(nil, nil),
		Dashboard:      handlers.NewDashboardHandler(nil),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, accounts),
		Policy:         policy,
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens}
}

func (s *testServer) token(t *testing.T, account *domain.StaffAccount) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(account)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	_ = json.Unmarshal(raw, &decoded)
	return resp.StatusCode, decoded
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, map[string]handlers.Pinger{
		"postgres": stubPinger{},
		"redis":    stubPinger{err: errors.New("connection refused")},
	})

	status, body := srv.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(body))

	status, _ = srv.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestPublicSubmissionRejectsBadPayload(t *testing.T) {
	srv := newTestServer(t, nil)

	payload := `{"customer_name":"Asha","mobile_number":"12345","pincode":"560001","city":"Pune","state":"MH","area":"Baner","street":"1 Main"}`
	status, body := srv.do(t, fiber.MethodPost, "/public/complaints", "", payload)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "mobile_number")
	assert.Contains(t, details, "email")

	payload = `{"customer_name":"Asha","mobile_number":"9876543210","email":"asha-at-mail","pincode":"560001","city":"Pune","state":"MH","area":"Baner","street":"1 Main"}`
	status, body = srv.do(t, fiber.MethodPost, "/public/complaints", "", payload)
	assert.Equal(t, fiber.StatusBadRequest, status)
	details = body["error"].(map[string]any)["details"].(map[string]any)
	assert.Len(t, details, 1)
	assert.Contains(t, details, "email")

	status, body = srv.do(t, fiber.MethodPost, "/public/complaints", "", "{not json")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, errorCode(body))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := srv.do(t, fiber.MethodGet, "/complaints", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, errorCode(body))

	status, _ = srv.do(t, fiber.MethodGet, "/complaints", "garbage", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCapabilityChecksRunBeforeHandlers(t *testing.T) {
	srv := newTestServer(t, nil)
	engineer := srv.token(t, &domain.StaffAccount{ID: "eng", Role: domain.RoleEngineer})
	manager := srv.token(t, &domain.StaffAccount{ID: "mgr", Role: domain.RoleManager})

	cases := []struct {
		name   string
		method string
		path   string
		token  string
	}{
		{"engineer cannot manage products", fiber.MethodGet, "/products", engineer},
		{"engineer cannot export", fiber.MethodGet, "/complaints/export", engineer},
		{"engineer cannot assign", fiber.MethodPatch, "/complaints/c-1/assignment", engineer},
		{"manager cannot record service", fiber.MethodPatch, "/complaints/c-1/service", manager},
		{"manager cannot manage staff", fiber.MethodGet, "/staff", manager},
		{"engineer cannot list engineers", fiber.MethodGet, "/staff/engineers", engineer},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := srv.do(t, tc.method, tc.path, tc.token, "{}")
			assert.Equal(t, fiber.StatusForbidden, status)
			assert.Equal(t, apperrors.CodeForbidden, errorCode(body))
		})
	}
}

func TestEditPayloadValidatedBeforeService(t *testing.T) {
	srv := newTestServer(t, nil)
	admin := srv.token(t, &domain.StaffAccount{ID: "adm", Role: domain.RoleAdmin})

	status, body := srv.do(t, fiber.MethodPatch, "/complaints/"+complaintID, admin, `{"payment_method":"cheque","service_cost":-4}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "payment_method")
	assert.Contains(t, details, "service_cost")

	status, body = srv.do(t, fiber.MethodPatch, "/complaints/"+complaintID, admin, `{"service_cost":100000000}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	details = body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "service_cost")
}

func TestMalformedEngineerIDIsValidationError(t *testing.T) {
	srv := newTestServer(t, nil)
	manager := srv.token(t, &domain.StaffAccount{ID: "mgr", Role: domain.RoleManager})

	status, body := srv.do(t, fiber.MethodPatch, "/complaints/"+complaintID+"/assignment", manager,
		`{"assigned_engineer_id":"not-a-uuid","service_cost":250}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidation, errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "assigned_engineer_id")
}

func TestMalformedPathIDIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	admin := srv.token(t, &domain.StaffAccount{ID: "adm", Role: domain.RoleAdmin})

	cases := []struct {
		method string
		path   string
	}{
		{fiber.MethodGet, "/complaints/TCKT-00000001"},
		{fiber.MethodPatch, "/complaints/42/service"},
		{fiber.MethodGet, "/products/abc"},
		{fiber.MethodPut, "/products/abc"},
		{fiber.MethodDelete, "/staff/abc"},
		{fiber.MethodPatch, "/staff/abc"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			status, body := srv.do(t, tc.method, tc.path, admin, "{}")
			assert.Equal(t, fiber.StatusNotFound, status)
			assert.Equal(t, apperrors.CodeNotFound, errorCode(body))
		})
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	admin := srv.token(t, &domain.StaffAccount{ID: "adm", Role: domain.RoleAdmin})

	status, body := srv.do(t, fiber.MethodGet, "/nowhere", admin, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, errorCode(body))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, fiber.MethodGet, "/health/live", "", "")

	status, _ := srv.do(t, fiber.MethodGet, "/metrics", "", "")
	assert.Equal(t, fiber.StatusOK, status)
}
