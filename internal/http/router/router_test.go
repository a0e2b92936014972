package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellodir/internal/directory"
	adminctrl "github.com/dropDatabas3/hellodir/internal/http/controllers/admin"
	mw "github.com/dropDatabas3/hellodir/internal/http/middlewares"
	"github.com/dropDatabas3/hellodir/internal/store/memory"
)

const testAPIKey = "test-admin-key"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := memory.New()
	require.NoError(t, err)

	dir := directory.New(st)
	srv := httptest.NewServer(New(Deps{
		Tenants: adminctrl.NewTenantsController(dir),
		Clients: adminctrl.NewClientsController(dir),
		Users:   adminctrl.NewUsersController(dir),
		Admin:   mw.AdminConfig{Enforce: true, APIKey: testAPIKey},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, auth bool) (*http.Response, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("X-Admin-API-Key", testAPIKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var out map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestAdminAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/tenants",
		map[string]string{"slug": "acme"}, false)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Los endpoints de resolución y health no requieren admin.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTenantClientVersionFlow(t *testing.T) {
	srv := newTestServer(t)

	// Tenant.
	resp, tenant := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/tenants",
		map[string]string{"slug": "Acme", "display_name": "Acme Inc."}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "acme", tenant["slug"])
	tenantID := tenant["id"].(string)

	// Slug duplicado.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/tenants",
		map[string]string{"slug": "acme"}, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	// Client.
	resp, client := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/clients",
		map[string]string{"tenant_id": tenantID, "client_id": "acme-web"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "acme-web", client["client_id"])

	// Versión generada server-side: el secreto viaja una única vez.
	resp, ver := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/clients/acme-web/versions",
		map[string]string{}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, float64(1), ver["version"])
	require.Equal(t, "draft", ver["status"])
	require.NotEmpty(t, ver["secret"])

	// Draft todavía no resuelve.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/clients/acme-web/active-version", nil, false)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Activación.
	resp, act := doJSON(t, http.MethodPost,
		srv.URL+"/v1/admin/clients/acme-web/versions/1/activate", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "active", act["status"])
	require.NotEmpty(t, act["effective_from"])
	require.Empty(t, act["secret"], "secret never leaves creation response")

	// El hot path público resuelve la activa.
	resp, got := doJSON(t, http.MethodGet, srv.URL+"/v1/clients/acme-web/active-version", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, float64(1), got["version"])

	// Ordinal no numérico.
	resp, _ = doJSON(t, http.MethodPost,
		srv.URL+"/v1/admin/clients/acme-web/versions/x/activate", nil, true)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Re-activar da 409 invalid_transition.
	resp, body := doJSON(t, http.MethodPost,
		srv.URL+"/v1/admin/clients/acme-web/versions/1/activate", nil, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "invalid_transition", body["code"])

	// Delete con versión viva: 409 integrity.
	resp, body = doJSON(t, http.MethodDelete, srv.URL+"/v1/admin/clients/acme-web", nil, true)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "integrity", body["code"])

	// Revocar y borrar.
	resp, _ = doJSON(t, http.MethodPost,
		srv.URL+"/v1/admin/clients/acme-web/versions/1/revoke", nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/admin/clients/acme-web", nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestUserIdentityFlow(t *testing.T) {
	srv := newTestServer(t)

	_, tenant := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/tenants",
		map[string]string{"slug": "acme"}, true)
	tenantID := tenant["id"].(string)

	resp, user := doJSON(t, http.MethodPost, srv.URL+"/v1/admin/users",
		map[string]string{"tenant_id": tenantID, "email": "Alice@Example.com"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, "alice@example.com", user["email"])
	userID := user["id"].(string)

	// Lookup por email con query params.
	resp, got := doJSON(t, http.MethodGet,
		srv.URL+"/v1/admin/users/by-email?tenant_id="+tenantID+"&email=ALICE@example.com", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, userID, got["id"])

	// Link + resolve público.
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/admin/users/"+userID+"/identities",
		map[string]string{"provider": "google", "provider_user_id": "g-123"}, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, resolved := doJSON(t, http.MethodGet, srv.URL+"/v1/identities/google/g-123", nil, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, userID, resolved["id"])

	// Delete user: cascada de identities, resolve deja de funcionar.
	resp, _ = doJSON(t, http.MethodDelete, srv.URL+"/v1/admin/users/"+userID, nil, true)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/v1/identities/google/g-123", nil, false)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
