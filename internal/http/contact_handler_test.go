package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contactform/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter() *Router {
	logger := zap.NewNop()
	r := NewRouter(logger)
	r.RegisterContactRoutes(NewContactHandler(logger))
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, models.ContactResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp models.ContactResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

const validBody = `{"firstName":"Jane","email":"jane@example.com","contactNumber":"0400000000","companyWebsite":"","message":""}`

func TestContact_ValidPayloadSucceeds(t *testing.T) {
	r := newTestRouter()
	for _, path := range []string{"/api/contact", "/.netlify/functions/contact"} {
		w, resp := do(t, r, http.MethodPost, path, validBody)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, resp.Success)
		assert.Equal(t, MsgSubmitted, resp.Message)
		assert.Empty(t, resp.Error)
	}
}

func TestContact_ForceErrorReturns400(t *testing.T) {
	w, resp := do(t, newTestRouter(), http.MethodPost, "/api/contact?forceError=true", validBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, MsgForcedError, resp.Error)

	// the forced error wins even over a malformed body
	w, resp = do(t, newTestRouter(), http.MethodPost, "/api/contact?forceError=true", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgForcedError, resp.Error)

	// any other value is ignored
	w, _ = do(t, newTestRouter(), http.MethodPost, "/api/contact?forceError=1", validBody)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestContact_MissingRequiredFields(t *testing.T) {
	cases := []string{
		`{}`,
		`[1,2]`,
		`"abc"`,
		`42`,
		`true`,
		`{"email":"jane@example.com","contactNumber":"0400000000"}`,
		`{"firstName":"","email":"jane@example.com","contactNumber":"0400000000"}`,
		`{"firstName":"Jane","contactNumber":"0400000000"}`,
		`{"firstName":"Jane","email":"jane@example.com"}`,
	}
	for _, body := range cases {
		w, resp := do(t, newTestRouter(), http.MethodPost, "/api/contact", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.False(t, resp.Success)
		assert.Equal(t, MsgMissingRequired, resp.Error)
	}
}

func TestContact_OptionalFieldsMayBeAbsent(t *testing.T) {
	w, resp := do(t, newTestRouter(), http.MethodPost, "/api/contact",
		`{"firstName":"Jane","email":"jane@example.com","contactNumber":"0400000000"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestContact_MalformedJSONIs500(t *testing.T) {
	for _, body := range []string{`{`, ``, `null`, `not json`, `{"firstName":`} {
		w, resp := do(t, newTestRouter(), http.MethodPost, "/api/contact", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.False(t, resp.Success)
		assert.Equal(t, MsgInternalError, resp.Error)
	}
}

func TestContact_WrongMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	w := httptest.NewRecorder()
	newTestRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_PanicsBecome500JSON(t *testing.T) {
	r := newTestRouter()
	r.mux.Get("/boom", func(w http.ResponseWriter, req *http.Request) { panic("boom") })

	w, resp := do(t, r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, MsgInternalError, resp.Error)
}

func TestRouter_HealthAndThankYou(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/thank-you", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Thank you for contacting us!")
}

func TestMaskPhone(t *testing.T) {
	assert.Equal(t, "04******00", maskPhone("0400000000"))
	assert.Equal(t, "****", maskPhone("123"))
}
