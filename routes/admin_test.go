package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminApp(t *testing.T, h *Handler) *iris.Application {
	t.Setenv("ADMIN_SESSION_SECRET", "testadminsecret")
	return buildApp(t, func(app *iris.Application) {
		app.Post(utils.AdminLoginPath, h.AdminLogin)
		admin := app.Party("/api/admin", utils.AdminSessionMiddleware)
		admin.Post("/logout", h.AdminLogout)
		admin.Get("/stats", h.AdminStats)
		admin.Get("/users", h.AdminListUsers)
	})
}

func TestAdminAreaRedirectsWithoutSession(t *testing.T) {
	h := newTestHandler(t)
	app := adminApp(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, utils.AdminLoginPath, resp.Header().Get("Location"))
}

func TestAdminLoginRejectsRegularUser(t *testing.T) {
	h := newTestHandler(t)
	createTestUser(t, h.DB, "user@example.com")
	app := adminApp(t, h)

	resp := doJSON(t, app, http.MethodPost, utils.AdminLoginPath,
		iris.Map{"email": "user@example.com", "password": "password123"})

	// Same message as a wrong password so the response does not reveal roles.
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Empty(t, resp.Result().Cookies())
}

func TestAdminLoginAndSessionCookie(t *testing.T) {
	h := newTestHandler(t)
	admin := createTestUser(t, h.DB, "admin@example.com")
	require.NoError(t, h.DB.Model(admin).Update("role", "admin").Error)
	app := adminApp(t, h)

	resp := doJSON(t, app, http.MethodPost, utils.AdminLoginPath,
		iris.Map{"email": "admin@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var session *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == utils.AdminSessionCookie {
			session = c
		}
	}
	require.NotNil(t, session, "login must set the session cookie")
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.AddCookie(session)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestAdminUserSearchIgnoresCase(t *testing.T) {
	h := newTestHandler(t)
	admin := createTestUser(t, h.DB, "admin@example.com")
	require.NoError(t, h.DB.Model(admin).Update("role", "admin").Error)

	maria := createTestUser(t, h.DB, "maria@example.com")
	require.NoError(t, h.DB.Model(maria).Update("first_name", "Margarethe").Error)
	createTestUser(t, h.DB, "other@example.com")

	app := adminApp(t, h)
	resp := doJSON(t, app, http.MethodPost, utils.AdminLoginPath,
		iris.Map{"email": "admin@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, resp.Code)
	var session *http.Cookie
	for _, c := range resp.Result().Cookies() {
		if c.Name == utils.AdminSessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?q=MARGAR", nil)
	req.AddCookie(session)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	data, ok := body["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)
	row := data[0].(map[string]interface{})
	assert.Equal(t, "maria@example.com", row["email"])
}

func TestAdminSessionRejectsTamperedCookie(t *testing.T) {
	h := newTestHandler(t)
	app := adminApp(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(&http.Cookie{Name: utils.AdminSessionCookie, Value: "not-a-valid-token"})
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, utils.AdminLoginPath, rec.Header().Get("Location"))
}

func TestAdminLoginWrongPassword(t *testing.T) {
	h := newTestHandler(t)
	admin := createTestUser(t, h.DB, "admin@example.com")
	require.NoError(t, h.DB.Model(admin).Update("role", "admin").Error)
	app := adminApp(t, h)

	resp := doJSON(t, app, http.MethodPost, utils.AdminLoginPath,
		iris.Map{"email": "admin@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	var logs int64
	h.DB.Model(&models.AuditLog{}).Count(&logs)
	assert.Zero(t, logs)
}
