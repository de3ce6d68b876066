package server_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	mcpclient "github.com/mark3labs/mcp-go/client"
	mcptransport "github.com/mark3labs/mcp-go/client/transport"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/manabi/internal/auth"
	"github.com/ashita-ai/manabi/internal/mcp"
	"github.com/ashita-ai/manabi/internal/model"
	"github.com/ashita-ai/manabi/internal/server"
	"github.com/ashita-ai/manabi/internal/service/schools"
	"github.com/ashita-ai/manabi/internal/storage"
	"github.com/ashita-ai/manabi/internal/testutil"
)

var (
	testSrv      *httptest.Server
	adminToken   string
	officerToken string
	viewerToken  string
)

func TestMain(m *testing.M) {
	ctx := context.Background()
	logger := testutil.TestLogger()

	store := storage.NewMemoryStore()
	jwtMgr, err := auth.NewJWTManager("", "", time.Hour, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create JWT manager: %v\n", err)
		os.Exit(1)
	}
	svc := schools.New(store, logger)
	mcpSrv := mcp.New(svc, logger, "test")

	srv := server.New(server.ServerConfig{
		Store:               store,
		Schools:             svc,
		JWTMgr:              jwtMgr,
		Logger:              logger,
		MCPServer:           mcpSrv.MCPServer(),
		Version:             "test",
		MaxRequestBodyBytes: 64 * 1024,
		OpenAPISpec:         []byte("openapi: 3.1.0\n"),
	})

	if err := srv.Handlers().SeedAdmin(ctx, "test-admin-key"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed admin: %v\n", err)
		os.Exit(1)
	}

	testSrv = httptest.NewServer(srv.Handler())

	adminToken = getToken(testSrv.URL, "admin", "test-admin-key")
	createAccount(testSrv.URL, adminToken, "officer", model.RoleFieldOfficer, "officer-key-0123456789")
	officerToken = getToken(testSrv.URL, "officer", "officer-key-0123456789")
	createAccount(testSrv.URL, adminToken, "viewer", model.RoleViewer, "viewer-key-0123456789")
	viewerToken = getToken(testSrv.URL, "viewer", "viewer-key-0123456789")

	code := m.Run()

	testSrv.Close()
	os.Exit(code)
}

func getToken(baseURL, name, apiKey string) string {
	body, _ := json.Marshal(model.AuthTokenRequest{Name: name, APIKey: apiKey})
	resp, err := http.Post(baseURL+"/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		panic(fmt.Sprintf("getToken: request failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		panic(fmt.Sprintf("getToken: status %d, body: %s", resp.StatusCode, string(data)))
	}
	var result struct {
		Data model.AuthTokenResponse `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		panic(fmt.Sprintf("getToken: unmarshal failed: %v, body: %s", err, string(data)))
	}
	if result.Data.Token == "" {
		panic(fmt.Sprintf("getToken: empty token, body: %s", string(data)))
	}
	return result.Data.Token
}

func createAccount(baseURL, token, name string, role model.Role, apiKey string) {
	body, _ := json.Marshal(model.CreateAccountRequest{Name: name, Role: role, APIKey: apiKey})
	req, _ := http.NewRequest("POST", baseURL+"/v1/accounts", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		panic(fmt.Sprintf("createAccount: status %d, body: %s", resp.StatusCode, string(data)))
	}
}

func authedRequest(method, url, token string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return http.DefaultClient.Do(req)
}

// decodeData unmarshals the data field of a response envelope into target.
func decodeData(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	require.NoError(t, json.Unmarshal(data, &envelope), "body: %s", string(data))
	require.NoError(t, json.Unmarshal(envelope.Data, target), "body: %s", string(data))
}

func decodeError(t *testing.T, resp *http.Response) model.APIError {
	t.Helper()
	var apiErr model.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	return apiErr
}

func newSchool(name, district string) model.School {
	return model.School{
		Name:          name,
		District:      district,
		Environment:   model.EnvironmentRural,
		TotalStudents: 420,
		TotalTeachers: 12,
	}
}

func mustCreateSchool(t *testing.T, s model.School) model.SchoolView {
	t.Helper()
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools", officerToken, s)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var v model.SchoolView
	decodeData(t, resp, &v)
	return v
}

func equippedReport(date model.Date) model.ICTReport {
	return model.ICTReport{
		Date:           date,
		Period:         "Term 2",
		Infrastructure: model.Some(model.ReportInfrastructure{Computers: 30, Tablets: 10, Projectors: 10, FunctionalDevices: 45, InternetConnection: model.ConnectionFast, PowerSource: "Grid"}),
		Capacity:       model.Some(model.ReportCapacity{ICTTrainedTeachers: 8, SupportStaff: 2, TotalTeachers: 12}),
	}
}

func TestHealthEndpoint(t *testing.T) {
	resp, err := http.Get(testSrv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health model.HealthResponse
	decodeData(t, resp, &health)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, "memory", health.Backend)
	assert.Equal(t, "connected", health.Storage)
	assert.Equal(t, "in-process", health.Search)
}

func TestOpenAPISpec(t *testing.T) {
	resp, err := http.Get(testSrv.URL + "/openapi.yaml")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "openapi")
}

func TestAuthFlow(t *testing.T) {
	token := getToken(testSrv.URL, "admin", "test-admin-key")
	assert.NotEmpty(t, token)

	tests := []struct {
		name   string
		req    model.AuthTokenRequest
		status int
	}{
		{"wrong key", model.AuthTokenRequest{Name: "admin", APIKey: "wrong"}, http.StatusUnauthorized},
		{"unknown account", model.AuthTokenRequest{Name: "nobody", APIKey: "whatever"}, http.StatusUnauthorized},
		{"missing key", model.AuthTokenRequest{Name: "admin"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			resp, err := http.Post(testSrv.URL+"/auth/token", "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	resp, err := http.Get(testSrv.URL + "/v1/schools")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	apiErr := decodeError(t, resp)
	assert.Equal(t, model.ErrCodeUnauthorized, apiErr.Error.Code)
	assert.NotEmpty(t, apiErr.Meta.RequestID)

	resp2, err := authedRequest("GET", testSrv.URL+"/v1/schools", "not-a-jwt", nil)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestRoleEnforcement(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"viewer cannot create school", "POST", "/v1/schools", viewerToken, newSchool("Viewer School", "Huye"), http.StatusForbidden},
		{"viewer can list schools", "GET", "/v1/schools", viewerToken, nil, http.StatusOK},
		{"officer cannot list accounts", "GET", "/v1/accounts", officerToken, nil, http.StatusForbidden},
		{"viewer cannot create account", "POST", "/v1/accounts", viewerToken, model.CreateAccountRequest{Name: "x", Role: model.RoleViewer}, http.StatusForbidden},
		{"admin can list accounts", "GET", "/v1/accounts", adminToken, nil, http.StatusOK},
		{"admin can read summary", "GET", "/v1/summary", adminToken, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := authedRequest(tt.method, testSrv.URL+tt.path, tt.token, tt.body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCreateAccount_GeneratesKey(t *testing.T) {
	resp, err := authedRequest("POST", testSrv.URL+"/v1/accounts", adminToken,
		model.CreateAccountRequest{Name: "generated", Role: model.RoleViewer})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.CreateAccountResponse
	decodeData(t, resp, &created)
	assert.Equal(t, "generated", created.Account.Name)
	assert.True(t, strings.HasPrefix(created.APIKey, auth.APIKeyPrefix))

	// The returned key works.
	assert.NotEmpty(t, getToken(testSrv.URL, "generated", created.APIKey))

	// Duplicate names conflict.
	resp2, err := authedRequest("POST", testSrv.URL+"/v1/accounts", adminToken,
		model.CreateAccountRequest{Name: "generated", Role: model.RoleViewer})
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestCreateAccount_InvalidRole(t *testing.T) {
	resp, err := authedRequest("POST", testSrv.URL+"/v1/accounts", adminToken,
		map[string]any{"name": "bad-role", "role": "superuser"})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, model.ErrCodeInvalidInput, decodeError(t, resp).Error.Code)
}

func TestSchoolLifecycle(t *testing.T) {
	// Create: an empty profile already has a computed maturity.
	v := mustCreateSchool(t, newSchool("Lifecycle Primary", "Gasabo"))
	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, 27, v.PolicyMaturity.OverallScore)
	assert.Equal(t, model.StageLatent, v.PolicyMaturity.OverallStage)

	schoolURL := testSrv.URL + "/v1/schools/" + v.ID.String()

	// Get.
	resp, err := authedRequest("GET", schoolURL, viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.SchoolView
	decodeData(t, resp, &got)
	assert.Equal(t, "Lifecycle Primary", got.Name)

	// Update with governance recorded raises vision & planning.
	update := newSchool("Lifecycle Primary", "Gasabo")
	update.Governance = model.Some(model.Governance{HasICTPolicy: true, AlignedWithNationalStrategy: true, HasICTCommittee: true, HasICTBudget: true, HasMonitoringSystem: true})
	resp2, err := authedRequest("PUT", schoolURL, officerToken, update)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var updated model.SchoolView
	decodeData(t, resp2, &updated)
	assert.Greater(t, updated.PolicyMaturity.VisionPlanning.Score, v.PolicyMaturity.VisionPlanning.Score)
	assert.Greater(t, updated.PolicyMaturity.DataCompleteness, v.PolicyMaturity.DataCompleteness)

	// Maturity endpoint agrees with the view.
	resp3, err := authedRequest("GET", schoolURL+"/maturity", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp3.Body.Close() }()
	require.Equal(t, http.StatusOK, resp3.StatusCode)
	var m model.SchoolPolicyMaturity
	decodeData(t, resp3, &m)
	assert.Equal(t, updated.PolicyMaturity.OverallScore, m.OverallScore)

	// Delete, then the school is gone.
	resp4, err := authedRequest("DELETE", schoolURL, officerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp4.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp4.StatusCode)

	resp5, err := authedRequest("GET", schoolURL, viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp5.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp5.StatusCode)
	assert.Equal(t, model.ErrCodeNotFound, decodeError(t, resp5).Error.Code)
}

func TestCreateSchool_ValidationDetails(t *testing.T) {
	bad := newSchool("", "Huye")
	bad.Environment = "Suburban"
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools", officerToken, bad)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	apiErr := decodeError(t, resp)
	assert.Equal(t, model.ErrCodeInvalidInput, apiErr.Error.Code)
	details, ok := apiErr.Error.Details.([]any)
	require.True(t, ok, "details should list the rejected fields")
	assert.GreaterOrEqual(t, len(details), 2)
}

func TestCreateSchool_RejectsUnknownFields(t *testing.T) {
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools", officerToken,
		map[string]any{"name": "Extra", "district": "Huye", "environment": "Urban", "maturity": 99})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateSchool_RejectsUnknownSectionKeys(t *testing.T) {
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools", officerToken,
		map[string]any{"name": "Misspelled", "district": "Huye", "environment": "Urban",
			"governance": map[string]any{"hasICTPolicy": true}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	apiErr := decodeError(t, resp)
	assert.Equal(t, model.ErrCodeInvalidInput, apiErr.Error.Code)
	assert.Contains(t, apiErr.Error.Message, "hasICTPolicy")
}

func TestCreateSchool_BodyTooLarge(t *testing.T) {
	body := map[string]any{"name": "Oversized", "district": "Huye", "environment": "Urban",
		"pedagogical_usage": map[string]any{"innovations": strings.Repeat("a", 70*1024)}}
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools", officerToken, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestListSchools_Filters(t *testing.T) {
	urban := newSchool("Filter Urban", "FilterDistrict")
	urban.Environment = model.EnvironmentUrban
	mustCreateSchool(t, urban)
	mustCreateSchool(t, newSchool("Filter Rural", "FilterDistrict"))

	resp, err := authedRequest("GET", testSrv.URL+"/v1/schools?district=FilterDistrict&environment=Urban", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Data    []model.SchoolView `json:"data"`
		Total   int                `json:"total"`
		HasMore bool               `json:"has_more"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Filter Urban", list.Data[0].Name)
	assert.Equal(t, 1, list.Total)
	assert.False(t, list.HasMore)

	resp2, err := authedRequest("GET", testSrv.URL+"/v1/schools?environment=Suburban", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)

	resp3, err := authedRequest("GET", testSrv.URL+"/v1/schools?limit=abc", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp3.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestReportLifecycle(t *testing.T) {
	v := mustCreateSchool(t, newSchool("Report Primary", "Nyamagabe"))

	// Create a report: the returned view reflects it.
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools/"+v.ID.String()+"/reports", officerToken,
		equippedReport(model.NewDate(2025, time.April, 10)))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		Report model.ICTReport  `json:"report"`
		School model.SchoolView `json:"school"`
	}
	decodeData(t, resp, &created)
	assert.Equal(t, v.ID, created.Report.SchoolID)
	assert.Equal(t, "/v1/reports/"+created.Report.ID.String(), resp.Header.Get("Location"))
	assert.Greater(t, created.School.PolicyMaturity.ICTInfrastructure.Score, v.PolicyMaturity.ICTInfrastructure.Score)

	reportURL := testSrv.URL + "/v1/reports/" + created.Report.ID.String()

	// Get.
	resp2, err := authedRequest("GET", reportURL, viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var got model.ICTReport
	decodeData(t, resp2, &got)
	assert.Equal(t, "2025-04-10", got.Date.String())

	// List.
	resp3, err := authedRequest("GET", testSrv.URL+"/v1/schools/"+v.ID.String()+"/reports", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp3.Body.Close() }()
	var reports []model.ICTReport
	decodeData(t, resp3, &reports)
	assert.Len(t, reports, 1)

	// Readiness is report-only.
	resp4, err := authedRequest("GET", testSrv.URL+"/v1/schools/"+v.ID.String()+"/readiness", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp4.Body.Close() }()
	var rd schools.ReadinessReport
	decodeData(t, resp4, &rd)
	assert.Greater(t, rd.Readiness.Score, 0)
	require.NotNil(t, rd.ReportID)
	assert.Equal(t, created.Report.ID, *rd.ReportID)

	// Trend has one point.
	resp5, err := authedRequest("GET", testSrv.URL+"/v1/schools/"+v.ID.String()+"/trend", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp5.Body.Close() }()
	var trend []model.TrendPoint
	decodeData(t, resp5, &trend)
	assert.Len(t, trend, 1)

	// Viewers cannot delete.
	resp6, err := authedRequest("DELETE", reportURL, viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp6.Body.Close() }()
	assert.Equal(t, http.StatusForbidden, resp6.StatusCode)

	// Delete returns the recomputed view.
	resp7, err := authedRequest("DELETE", reportURL, officerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp7.Body.Close() }()
	require.Equal(t, http.StatusOK, resp7.StatusCode)
	var after model.SchoolView
	decodeData(t, resp7, &after)
	assert.Equal(t, v.PolicyMaturity.OverallScore, after.PolicyMaturity.OverallScore)
}

func TestCreateReport_UnknownSchool(t *testing.T) {
	resp, err := authedRequest("POST", testSrv.URL+"/v1/schools/"+uuid.New().String()+"/reports", officerToken,
		equippedReport(model.NewDate(2025, time.April, 10)))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInvalidPathID(t *testing.T) {
	resp, err := authedRequest("GET", testSrv.URL+"/v1/schools/not-a-uuid", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompare(t *testing.T) {
	a := mustCreateSchool(t, newSchool("Compare One", "Rusizi"))
	b := mustCreateSchool(t, newSchool("Compare Two", "Rusizi"))

	resp, err := authedRequest("GET", testSrv.URL+"/v1/compare?ids="+a.ID.String()+","+b.ID.String(), viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cmp model.Comparison
	decodeData(t, resp, &cmp)
	assert.Len(t, cmp.Schools, 2)
	assert.Len(t, cmp.Leaders, 8)

	tests := []struct {
		name  string
		query string
	}{
		{"missing ids", ""},
		{"single id", "?ids=" + a.ID.String()},
		{"malformed id", "?ids=" + a.ID.String() + ",zzz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := authedRequest("GET", testSrv.URL+"/v1/compare"+tt.query, viewerToken, nil)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSummary(t *testing.T) {
	mustCreateSchool(t, newSchool("Summary Primary", "Ngoma"))

	resp, err := authedRequest("GET", testSrv.URL+"/v1/summary", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats model.SummaryStats
	decodeData(t, resp, &stats)
	assert.GreaterOrEqual(t, stats.TotalSchools, 1)
	assert.LessOrEqual(t, len(stats.TopSchools), 5)
	assert.Contains(t, stats.DistrictDistribution, "Ngoma")
}

func TestSimilarSchools(t *testing.T) {
	a := mustCreateSchool(t, newSchool("Similar One", "Nyabihu"))
	mustCreateSchool(t, newSchool("Similar Two", "Nyabihu"))

	resp, err := authedRequest("GET", testSrv.URL+"/v1/schools/"+a.ID.String()+"/similar?limit=2", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var similar []model.SimilarSchool
	decodeData(t, resp, &similar)
	assert.NotEmpty(t, similar)
	assert.LessOrEqual(t, len(similar), 2)
	for _, s := range similar {
		assert.NotEqual(t, a.ID, s.SchoolID)
	}
}

func TestExportSchools_NDJSON(t *testing.T) {
	mustCreateSchool(t, newSchool("Export Primary", "Gakenke"))

	resp, err := authedRequest("GET", testSrv.URL+"/v1/export/schools", viewerToken, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "manabi-schools-")

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	found := false
	rows := 0
	for scanner.Scan() {
		var row schools.ExportRow
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows++
		if row.Name == "Export Primary" {
			found = true
			assert.Equal(t, model.ReadinessLow, row.Readiness.Level)
			assert.Equal(t, 27, row.PolicyMaturity.OverallScore)
		}
	}
	require.NoError(t, scanner.Err())
	assert.True(t, found, "exported rows should include the new school")
	assert.GreaterOrEqual(t, rows, 1)
}

func TestRequestIDAndSecurityHeaders(t *testing.T) {
	req, _ := http.NewRequest("GET", testSrv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "trace-me-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "trace-me-123", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

// newMCPClient creates an MCP client that connects to the test server's /mcp endpoint
// with the given bearer token for authentication.
func newMCPClient(t *testing.T, token string) *mcpclient.Client {
	t.Helper()
	c, err := mcpclient.NewStreamableHttpClient(
		testSrv.URL+"/mcp",
		mcptransport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + token,
		}),
	)
	require.NoError(t, err)
	return c
}

func TestMCPInitializeAndListTools(t *testing.T) {
	c := newMCPClient(t, viewerToken)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	initResult, err := c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "test-client", Version: "1.0"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "manabi", initResult.ServerInfo.Name)
	assert.Equal(t, "test", initResult.ServerInfo.Version)

	toolsResult, err := c.ListTools(ctx, mcplib.ListToolsRequest{})
	require.NoError(t, err)
	assert.Len(t, toolsResult.Tools, 5)
}

func TestMCPSchoolMaturityTool(t *testing.T) {
	v := mustCreateSchool(t, newSchool("MCP Primary", "Rulindo"))

	c := newMCPClient(t, viewerToken)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	_, err := c.Initialize(ctx, mcplib.InitializeRequest{
		Params: mcplib.InitializeParams{
			ClientInfo: mcplib.Implementation{Name: "test-client", Version: "1.0"},
		},
	})
	require.NoError(t, err)

	result, err := c.CallTool(ctx, mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Name:      "manabi_school_maturity",
			Arguments: map[string]any{"school_id": v.ID.String()},
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "maturity tool returned error: %v", result.Content)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "MCP Primary")
}

func TestMCPUnauthenticated(t *testing.T) {
	resp, err := http.Post(testSrv.URL+"/mcp", "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
