package routes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"mpoint-server/models"
	"mpoint-server/services"
	"mpoint-server/storage"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestHandler builds a Handler over a throwaway sqlite database.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	t.Setenv("UPLOAD_DIR", t.TempDir())

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))

	files, err := storage.NewFileStore()
	require.NoError(t, err)

	return NewHandler(db, nil, files, services.NewPayPalClient())
}

// asUser stands in for the JWT middleware chain and marks the request as
// authenticated.
func asUser(id uint) iris.Handler {
	return func(ctx iris.Context) {
		ctx.Values().Set("userID", id)
		ctx.Next()
	}
}

func buildApp(t *testing.T, register func(app *iris.Application)) *iris.Application {
	t.Helper()
	app := iris.New()
	app.Validator = validator.New()
	register(app)
	require.NoError(t, app.Build())
	return app
}

func doJSON(t *testing.T, app *iris.Application, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	return out
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{FirstName: "Test", LastName: "User", Email: email, Password: string(hashed)}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestCompany(t *testing.T, db *gorm.DB, ownerID uint, name string) *models.Company {
	t.Helper()
	company := models.Company{OwnerID: ownerID, Name: name, Sector: "IT"}
	require.NoError(t, db.Create(&company).Error)
	return &company
}

func createTestEvent(t *testing.T, db *gorm.DB, price float64, capacity int) *models.Event {
	t.Helper()
	event := models.Event{
		Title:      "Netzwerkabend",
		StartDate:  time.Now().Add(7 * 24 * time.Hour),
		EndDate:    time.Now().Add(7*24*time.Hour + 3*time.Hour),
		Price:      price,
		Currency:   "EUR",
		ChargeFree: price == 0,
		Capacity:   capacity,
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

func notificationCount(db *gorm.DB, userID uint, typ models.NotificationType) int64 {
	var count int64
	db.Model(&models.Notification{}).Where("user_id = ? AND type = ?", userID, typ).Count(&count)
	return count
}
