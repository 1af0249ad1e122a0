package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaqqye/vdi_docgen/internal/config"
	"github.com/zaqqye/vdi_docgen/internal/middleware"
	"github.com/zaqqye/vdi_docgen/internal/render"
	"github.com/zaqqye/vdi_docgen/internal/schema"
	"github.com/zaqqye/vdi_docgen/internal/service"
	"github.com/zaqqye/vdi_docgen/internal/store"
	"github.com/zaqqye/vdi_docgen/internal/utils"
	"github.com/zaqqye/vdi_docgen/internal/views"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	return newEngineWith(t, "test-secret", "letmein")
}

// newEngineWith builds the router with the given JWT_SECRET and admin
// password. An empty secret leaves the default in place.
func newEngineWith(t *testing.T, secret, password string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	schemas := schema.Default()
	st, err := store.NewLocal(t.TempDir(), nil, nil)
	require.NoError(t, err)
	renderer, err := render.New(schemas, render.OOXML{}, nil)
	require.NoError(t, err)
	pages, err := views.Load()
	require.NoError(t, err)
	var hash string
	if password != "" {
		hash, err = utils.HashPassword(password)
		require.NoError(t, err)
	}

	t.Setenv("JWT_SECRET", secret)
	t.Setenv("ADMIN_PASSWORD", password)
	cfg := config.Load()

	r := gin.New()
	r.Use(gin.Recovery())
	r.HTMLRender = pages
	Register(r, service.NewSubmissionService(schemas, st, renderer, nil), schemas, cfg, hash)
	return r
}

func do(r http.Handler, method, target string, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var formHeader = http.Header{"Content-Type": {"application/x-www-form-urlencoded"}}
var jsonHeader = http.Header{"Content-Type": {"application/json"}}

func presalesForm(emea string) string {
	return url.Values{
		"customer_name":    {"Acme"},
		"project_name":     {"Horizon Refresh"},
		"concurrent_users": {"100"},
		"num_images":       {"2"},
		"regions":          {"EMEA", "APAC"},
		"region_pct_emea":  {emea},
		"region_pct_apac":  {"40"},
	}.Encode()
}

func TestRedirects(t *testing.T) {
	r := newEngine(t)
	w := do(r, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/presales", w.Header().Get("Location"))

	w = do(r, http.MethodGet, "/predeploy", "", nil)
	assert.Equal(t, "/pdg", w.Header().Get("Location"))
}

func TestPresalesFlow(t *testing.T) {
	r := newEngine(t)

	w := do(r, http.MethodGet, "/presales", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/presales/submit"`)

	w = do(r, http.MethodPost, "/presales/submit", presalesForm("50"), formHeader)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "percentages must total 100")
	assert.Contains(t, w.Body.String(), `value="Acme"`, "posted values are kept")

	w = do(r, http.MethodPost, "/presales/submit", presalesForm("60"), formHeader)
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/submissions/"), loc)
	id := strings.TrimSuffix(strings.TrimPrefix(loc, "/submissions/"), "?created=1")

	w = do(r, http.MethodGet, loc, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Submission saved.")
	assert.Contains(t, w.Body.String(), "Estimated storage: 3476 GB")

	w = do(r, http.MethodGet, "/submissions/"+id+"/export/sow?format=docx", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ContentTypeDocx, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = do(r, http.MethodGet, "/submissions/"+id+"/export/sow?format=docx", "", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, w.Code)

	w = do(r, http.MethodGet, "/submissions/"+id+"/bundle.zip", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ContentTypeZip, w.Header().Get("Content-Type"))

	w = do(r, http.MethodGet, "/submissions/"+id+"/wbs.xlsx", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/submissions/"+id+"/preview/hld", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>High-Level Design")

	w = do(r, http.MethodGet, "/history?q=acme", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/submissions/"+id)
}

func TestExport_Errors(t *testing.T) {
	r := newEngine(t)
	w := do(r, http.MethodGet, "/submissions/missing/export/sow", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/submissions/missing/export/sow?format=pdf", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadsDoNotPersist(t *testing.T) {
	r := newEngine(t)
	w := do(r, http.MethodPost, "/presales/download", presalesForm("10"), formHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ContentTypeMarkdown, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "# Presales Discovery Summary")

	w = do(r, http.MethodPost, "/pdg/download-docx", url.Values{"pod_scope": {"multi"}, "global_customer_name": {"Acme"}}.Encode(), formHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, render.ContentTypeDocx, w.Header().Get("Content-Type"))

	w = do(r, http.MethodGet, "/api/v1/submissions", "", nil)
	assert.JSONEq(t, `{"submissions":[],"total":0}`, w.Body.String())
}

func TestPDGScopeAndForm(t *testing.T) {
	r := newEngine(t)
	w := do(r, http.MethodGet, "/pdg", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="pod_scope"`)

	w = do(r, http.MethodPost, "/pdg/form", "pod_scope=multi", formHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "GSLB (Multi-Pod)")

	w = do(r, http.MethodPost, "/pdg/submit", "pod_scope=single", formHeader)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/auth/login", `{"password":"letmein"}`, jsonHeader)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func TestAPI(t *testing.T) {
	r := newEngine(t)

	w := do(r, http.MethodGet, "/api/v1/schema/pdg", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"prefixed":true`)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/v1/schema/nope", "", nil).Code)

	w = do(r, http.MethodPost, "/api/v1/estimate", `{"fields":{"concurrent_users":100,"num_images":2,"host_cpu_cores":"abc"}}`, jsonHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage_gb":3476`)

	w = do(r, http.MethodPost, "/api/v1/submissions/presales", `{"fields":{"customer_name":"Acme"}}`, jsonHeader)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"project_name":"is required"`)

	w = do(r, http.MethodPost, "/api/v1/submissions/presales", `{"fields":{"customer_name":"Acme","project_name":"VDI","regions":["EMEA"],"region_pct_emea":100}}`, jsonHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Submission struct {
			ID          string `json:"id"`
			SubmittedAt string `json:"submitted_at"`
		} `json:"submission"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	id := created.Submission.ID

	w = do(r, http.MethodGet, "/api/v1/submissions/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"metrics"`)

	body := `{"fields":{"customer_name":"Acme 2","project_name":"VDI"}}`
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodPut, "/api/v1/submissions/"+id, body, jsonHeader).Code)

	wrong := do(r, http.MethodPost, "/api/v1/auth/login", `{"password":"nope"}`, jsonHeader)
	assert.Equal(t, http.StatusUnauthorized, wrong.Code)

	auth := http.Header{"Content-Type": {"application/json"}, "Authorization": {"Bearer " + login(t, r)}}
	w = do(r, http.MethodPut, "/api/v1/submissions/"+id, body, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var replaced struct {
		Submission struct {
			ID          string `json:"id"`
			SubmittedAt string `json:"submitted_at"`
			UpdatedAt   string `json:"updated_at"`
		} `json:"submission"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replaced))
	assert.Equal(t, id, replaced.Submission.ID)
	assert.Equal(t, created.Submission.SubmittedAt, replaced.Submission.SubmittedAt)
	assert.NotEmpty(t, replaced.Submission.UpdatedAt)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPut, "/api/v1/submissions/missing", body, auth).Code)
}

func createPresales(t *testing.T, r http.Handler) string {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/submissions/presales", `{"fields":{"customer_name":"Acme","project_name":"VDI","regions":["EMEA"],"region_pct_emea":100}}`, jsonHeader)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Submission struct {
			ID string `json:"id"`
		} `json:"submission"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created.Submission.ID
}

func TestAPI_ReplaceDisabledWithDefaultSecret(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role:             middleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(config.DefaultJWTSecret))
	require.NoError(t, err)
	auth := http.Header{"Content-Type": {"application/json"}, "Authorization": {"Bearer " + forged}}
	body := `{"fields":{"customer_name":"Mallory","project_name":"VDI"}}`

	cases := []struct {
		name             string
		secret, password string
	}{
		{"no password", "", ""},
		{"default secret", "", "letmein"},
		{"explicit default secret", config.DefaultJWTSecret, "letmein"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngineWith(t, tc.secret, tc.password)
			id := createPresales(t, r)

			w := do(r, http.MethodPut, "/api/v1/submissions/"+id, body, auth)
			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

			w = do(r, http.MethodGet, "/api/v1/submissions/"+id, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"customer_name":"Acme"`)
			assert.NotContains(t, w.Body.String(), "Mallory")
		})
	}
}

func TestAPI_ForgedTokenRejected(t *testing.T) {
	r := newEngine(t)
	id := createPresales(t, r)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role:             middleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(config.DefaultJWTSecret))
	require.NoError(t, err)
	auth := http.Header{"Content-Type": {"application/json"}, "Authorization": {"Bearer " + forged}}
	w := do(r, http.MethodPut, "/api/v1/submissions/"+id, `{"fields":{"customer_name":"Mallory","project_name":"VDI"}}`, auth)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	r := newEngine(t)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "", nil).Code)
	w := do(r, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"local"`)
	assert.Contains(t, w.Body.String(), `"docx_engine":"ooxml"`)
}
