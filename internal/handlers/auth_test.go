package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kawasumi/task-tracker-api/internal/constants"
	"github.com/kawasumi/task-tracker-api/internal/database"
	"github.com/kawasumi/task-tracker-api/internal/dto"
	"github.com/kawasumi/task-tracker-api/internal/models"
	"github.com/kawasumi/task-tracker-api/internal/repository"
	"github.com/kawasumi/task-tracker-api/internal/services"
	"github.com/kawasumi/task-tracker-api/internal/validation"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	userHandler *UserHandler
	authService *services.AuthService
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)
	validation.Init()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Task{})
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	authService := services.NewAuthService(userRepo)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return authTestEnv{
		db:          db,
		handler:     NewAuthHandler(authService),
		userHandler: NewUserHandler(authService),
		authService: authService,
	}
}

func newAuthRouter(env authTestEnv) *gin.Engine {
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.POST("/api/auth/register", env.handler.Register)
	r.POST("/api/auth/login", env.handler.Login)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@x.com",
		"password":         "pw1234567",
		"confirm_password": "pw1234567",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "alice", response.Username)
	require.Equal(t, "alice@x.com", response.Email)
	require.False(t, response.IsAdmin)

	// Password digest must be persisted and never equal the plaintext.
	var user models.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "pw1234567", user.PasswordHash)
}

func TestAuthHandler_Register_Duplicates(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@x.com",
		"password":         "pw1234567",
		"confirm_password": "pw1234567",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Same username, fresh email
	w = postJSON(t, r, "/api/auth/register", map[string]string{
		"username":         "alice",
		"email":            "other@x.com",
		"password":         "pw1234567",
		"confirm_password": "pw1234567",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "DUPLICATE_USERNAME")

	// Fresh username, same email
	w = postJSON(t, r, "/api/auth/register", map[string]string{
		"username":         "alice2",
		"email":            "alice@x.com",
		"password":         "pw1234567",
		"confirm_password": "pw1234567",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "DUPLICATE_EMAIL")

	// No extra rows were created
	var count int64
	env.db.Model(&models.User{}).Count(&count)
	require.EqualValues(t, 1, count)
}

func TestAuthHandler_Register_PasswordMismatch(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	w := postJSON(t, r, "/api/auth/register", map[string]string{
		"username":         "alice",
		"email":            "alice@x.com",
		"password":         "pw1234567",
		"confirm_password": "different1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_ByUsernameAndEmail(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw1234567",
	})
	require.NoError(t, err)

	for _, identifier := range []string{"alice", "alice@x.com"} {
		w := postJSON(t, r, "/api/auth/login", map[string]string{
			"identifier": identifier,
			"password":   "pw1234567",
		})
		require.Equal(t, http.StatusOK, w.Code, "identifier %q", identifier)
		require.NotEmpty(t, w.Result().Cookies(), "expected session cookie to be set")
	}
}

func TestAuthHandler_Login_GenericFailureMessage(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	_, err := env.authService.Register(services.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw1234567",
	})
	require.NoError(t, err)

	wUnknown := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "nobody",
		"password":   "pw1234567",
	})
	wWrongPassword := postJSON(t, r, "/api/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "wrongpass1",
	})

	// Unknown identifier and wrong password must be indistinguishable.
	require.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	require.Equal(t, http.StatusUnauthorized, wWrongPassword.Code)
	require.JSONEq(t, wUnknown.Body.String(), wWrongPassword.Body.String())
}

func TestAuthHandler_Login_ProfileGate(t *testing.T) {
	env := setupAuthTestEnv(t)
	r := newAuthRouter(env)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw1234567",
	})
	require.NoError(t, err)

	login := func() map[string]interface{} {
		w := postJSON(t, r, "/api/auth/login", map[string]string{
			"identifier": "alice",
			"password":   "pw1234567",
		})
		require.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return response
	}

	// Fresh account: profile incomplete, gate points at the profile screen.
	require.Equal(t, constants.RedirectProfile, login()["redirect_to"])

	firstName := "Alice"
	lastName := "Smith"
	department := models.DepartmentIT
	phone := "555-0100"
	_, err = env.authService.UpdateProfile(user.ID, services.UpdateProfileInput{
		FirstName:   &firstName,
		LastName:    &lastName,
		Department:  &department,
		PhoneNumber: &phone,
	})
	require.NoError(t, err)

	// All four fields filled: a fresh login goes to the dashboard.
	require.Equal(t, constants.RedirectDashboard, login()["redirect_to"])
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "current-user",
		Email:    "current@x.com",
		Password: "pw1234567",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyUserID, user.ID)

	env.handler.GetCurrentUser(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.UserDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, user.Username, response.Username)
}

func TestUserHandler_ChangePassword(t *testing.T) {
	env := setupAuthTestEnv(t)

	user, err := env.authService.Register(services.RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		Password: "pw1234567",
	})
	require.NoError(t, err)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, user.ID)
	})
	r.PUT("/api/users/me/password", env.userHandler.ChangePassword)

	body, _ := json.Marshal(map[string]string{
		"current_password": "not-the-password",
		"new_password":     "newpass123",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/users/me/password", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "WRONG_CURRENT_PASSWORD")

	body, _ = json.Marshal(map[string]string{
		"current_password": "pw1234567",
		"new_password":     "newpass123",
	})
	req = httptest.NewRequest(http.MethodPut, "/api/users/me/password", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// The new credential authenticates, the old one does not.
	_, err = env.authService.Login(services.LoginInput{Identifier: "alice", Password: "newpass123"})
	require.NoError(t, err)
	_, err = env.authService.Login(services.LoginInput{Identifier: "alice", Password: "pw1234567"})
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
}
