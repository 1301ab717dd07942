package routes

import (
	"net/http"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
)

func userApp(t *testing.T, h *Handler) *iris.Application {
	return buildApp(t, func(app *iris.Application) {
		user := app.Party("/api/user")
		user.Post("/register", h.Register)
		user.Post("/login", h.Login)
	})
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestHandler(t)
	createTestUser(t, h.DB, "taken@example.com")
	app := userApp(t, h)

	resp := doJSON(t, app, http.MethodPost, "/api/user/register", iris.Map{
		"firstName": "Neu",
		"lastName":  "Nutzer",
		"email":     "taken@example.com",
		"password":  "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestHandler(t)
	createTestUser(t, h.DB, "user@example.com")
	app := userApp(t, h)

	resp := doJSON(t, app, http.MethodPost, "/api/user/login", iris.Map{
		"email":    "user@example.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	body := decodeBody(t, resp)
	// The message must not reveal whether the account exists.
	assert.Equal(t, "Invalid email or password.", body["message"])
}

func TestLoginUnknownEmail(t *testing.T) {
	h := newTestHandler(t)
	app := userApp(t, h)

	resp := doJSON(t, app, http.MethodPost, "/api/user/login", iris.Map{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRegisterValidatesInput(t *testing.T) {
	h := newTestHandler(t)
	app := userApp(t, h)

	resp := doJSON(t, app, http.MethodPost, "/api/user/register", iris.Map{
		"firstName": "Neu",
		"lastName":  "Nutzer",
		"email":     "not-an-email",
		"password":  "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
