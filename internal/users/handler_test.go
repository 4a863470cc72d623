package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/splitfit/internal/auth"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

var (
	testUsername     = "testuser"
	testPassword     = "testpass"
	testPasswordHash = "$2a$14$6Gmhg85si2etd3K9oB8nYu1cxfbrdmhkg6wI6OXsa88IF4L2r/L9i" // testpass
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

func TestHandler_Login(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	authService := auth.NewService(auth.DefaultTTL, redisClient)
	authService.RandStringFunc = func(s int) (string, error) {
		return "test_token", nil
	}

	repo := newRepoMock()
	user, err := repo.Add(t.Context(), testUsername, testPasswordHash)
	require.NoError(t, err)

	handler := NewHandler(repo, authService)

	redisMock.Regexp().
		ExpectSet("splitfit-session||test_token", `\{"userId":1,"createdAt":\d+\}`, 0).
		SetVal("OK")
	redisMock.ExpectSAdd("splitfit-sessions", "test_token").SetVal(1)

	loginJson, err := json.Marshal(credentialsRequest{
		Username: testUsername,
		Password: testPassword,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/a/login", strings.NewReader(string(loginJson)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token": "test_token"`)
	assert.Contains(t, rec.Body.String(), `"userId": 1`)
	assert.Equal(t, 1, user.ID)
}

func TestHandler_Login_WrongPassword(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	defer redisClient.Close()

	repo := newRepoMock()
	_, err := repo.Add(t.Context(), testUsername, testPasswordHash)
	require.NoError(t, err)

	handler := NewHandler(repo, auth.NewService(auth.DefaultTTL, redisClient))

	loginJson, err := json.Marshal(credentialsRequest{
		Username: testUsername,
		Password: "wrong-password",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/a/login", strings.NewReader(string(loginJson)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "wrong credentials")
}

func TestHandler_Login_UnknownUser(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	defer redisClient.Close()

	handler := NewHandler(newRepoMock(), auth.NewService(auth.DefaultTTL, redisClient))

	loginJson, err := json.Marshal(credentialsRequest{
		Username: "who-is-this",
		Password: testPassword,
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/a/login", strings.NewReader(string(loginJson)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Register(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	defer redisClient.Close()

	repo := newRepoMock()
	handler := NewHandler(repo, auth.NewService(auth.DefaultTTL, redisClient))

	registerJson, err := json.Marshal(credentialsRequest{
		Username: "newuser",
		Password: "long-enough-password",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/a/register", strings.NewReader(string(registerJson)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.handleRegister(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.Users, 1)
	assert.Equal(t, "newuser", repo.Users[1].Username)
	// stored hash, never the raw password
	assert.NotEqual(t, "long-enough-password", repo.Users[1].PasswordHash)
}

func TestHandler_Register_PasswordTooShort(t *testing.T) {
	redisClient, _ := redismock.NewClientMock()
	defer redisClient.Close()

	repo := newRepoMock()
	handler := NewHandler(repo, auth.NewService(auth.DefaultTTL, redisClient))

	registerJson, err := json.Marshal(credentialsRequest{
		Username: "newuser",
		Password: "short",
	})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/a/register", strings.NewReader(string(registerJson)))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.handleRegister(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.Users)
}

func TestHandler_DeleteAccount(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	defer redisClient.Close()

	authService := auth.NewService(auth.DefaultTTL, redisClient)

	repo := newRepoMock()
	user, err := repo.Add(t.Context(), testUsername, testPasswordHash)
	require.NoError(t, err)

	handler := NewHandler(repo, authService)

	sessionJson, err := json.Marshal(auth.LoginSession{
		UserID:    user.ID,
		CreatedAt: time.Now().Unix(),
	})
	require.NoError(t, err)
	redisMock.ExpectGet("splitfit-session||test_token").SetVal(string(sessionJson))
	redisMock.ExpectDel("splitfit-session||test_token").SetVal(1)
	redisMock.ExpectSRem("splitfit-sessions", "test_token").SetVal(1)

	req, err := http.NewRequest("DELETE", "/a/account", nil)
	require.NoError(t, err)
	req.Header.Set("X-SPLITFIT-TOKEN", "test_token")
	req = req.WithContext(auth.ContextWithUserID(req.Context(), user.ID))

	rec := httptest.NewRecorder()
	handler.handleDeleteAccount(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.Users)
}
