package routes

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileApp(t *testing.T, h *Handler) *iris.Application {
	return buildApp(t, func(app *iris.Application) {
		file := app.Party("/api/file")
		file.Post("/upload-base64", asUser(1), h.UploadBase64)
		file.Get("/{path:path}", h.ServeFile)
	})
}

func TestUploadBase64AndServe(t *testing.T) {
	h := newTestHandler(t)
	app := fileApp(t, h)

	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	resp := doJSON(t, app, http.MethodPost, "/api/file/upload-base64", iris.Map{"data": payload})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	body := decodeBody(t, resp)
	path, ok := body["path"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(path, ".png"), "stored key should carry the mime extension: %s", path)

	req := httptest.NewRequest(http.MethodGet, "/api/file/"+path, nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestUploadRejectsInvalidBase64(t *testing.T) {
	h := newTestHandler(t)
	app := fileApp(t, h)

	resp := doJSON(t, app, http.MethodPost, "/api/file/upload-base64", iris.Map{"data": "%%% not base64 %%%"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestServeUnknownFileReturns404(t *testing.T) {
	h := newTestHandler(t)
	app := fileApp(t, h)

	req := httptest.NewRequest(http.MethodGet, "/api/file/2026/01/missing.png", nil)
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
