package manabi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/manabi"
	"github.com/ashita-ai/manabi/internal/testutil"
)

const adminKey = "root-test-admin-key"

type changeRecorder struct {
	ch chan manabi.MaturityChange
}

func (r *changeRecorder) OnMaturityChanged(_ context.Context, c manabi.MaturityChange) error {
	r.ch <- c
	return nil
}

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("QDRANT_URL", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("MANABI_ADMIN_API_KEY", adminKey)
	t.Setenv("MANABI_SEED_DEMO_DATA", "true")
	t.Setenv("MANABI_RATE_LIMIT_ENABLED", "false")
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func adminToken(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, "POST", "/auth/token", "", map[string]string{"name": "admin", "api_key": adminKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func TestNew_WiresExtensionPoints(t *testing.T) {
	setEnv(t)
	hook := &changeRecorder{ch: make(chan manabi.MaturityChange, 4)}

	app, err := manabi.New(
		manabi.WithLogger(testutil.TestLogger()),
		manabi.WithVersion("1.2.3"),
		manabi.WithPort(18080),
		manabi.WithEventHook(hook),
		manabi.WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Embedded", "yes")
				next.ServeHTTP(w, r)
			})
		}),
		manabi.WithExtraRoutes(func(mux *http.ServeMux, a manabi.AuthHelper) {
			mux.Handle("GET /v1/ping", a.RequireRole(manabi.RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("pong"))
			})))
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	h := app.Handler()

	t.Run("health reports version and backend", func(t *testing.T) {
		rec := do(t, h, "GET", "/health", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "yes", rec.Header().Get("X-Embedded"))
		var resp struct {
			Data struct {
				Version string `json:"version"`
				Backend string `json:"backend"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "1.2.3", resp.Data.Version)
		assert.Equal(t, "memory", resp.Data.Backend)
	})

	token := adminToken(t, h)

	t.Run("extra route shares the auth chain", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, h, "GET", "/v1/ping", "", nil).Code)
		rec := do(t, h, "GET", "/v1/ping", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("demo data is seeded", func(t *testing.T) {
		rec := do(t, h, "GET", "/v1/schools", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Total int `json:"total"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Positive(t, resp.Total)
	})

	t.Run("event hook sees maturity changes", func(t *testing.T) {
		rec := do(t, h, "POST", "/v1/schools", token, map[string]any{
			"name": "Hooked Primary", "district": "Rusizi", "environment": "Rural",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		select {
		case c := <-hook.ch:
			assert.Equal(t, "Hooked Primary", c.Name)
			assert.Equal(t, "Rusizi", c.District)
			assert.Equal(t, 27, c.OverallScore)
			assert.Equal(t, "Latent", c.OverallStage)
			assert.Equal(t, "Low", c.ReadinessLevel)
			assert.Len(t, c.Themes, 8)
		case <-time.After(5 * time.Second):
			t.Fatal("hook was not called")
		}
	})
}

func TestNew_RequiresAdminKeyOnEmptyStore(t *testing.T) {
	setEnv(t)
	t.Setenv("MANABI_ADMIN_API_KEY", "")

	_, err := manabi.New(manabi.WithLogger(testutil.TestLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANABI_ADMIN_API_KEY")
}

func TestNew_RejectsBadConfig(t *testing.T) {
	setEnv(t)
	t.Setenv("MANABI_PORT", "not-a-port")

	_, err := manabi.New(manabi.WithLogger(testutil.TestLogger()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MANABI_PORT")
}
