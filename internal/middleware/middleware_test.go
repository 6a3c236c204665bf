package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var alice = models.Actor{UID: "alice-id", Email: "alice@example.com", Role: models.RoleUser}

func newRouter(tokens *auth.TokenManager) *gin.Engine {
	router := gin.New()
	router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
	router.POST("/login", func(c *gin.Context) {
		if err := SaveSession(c, alice); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})

	protected := router.Group("/")
	protected.Use(RequireAuth(tokens))
	protected.GET("/me", func(c *gin.Context) {
		actor, _ := GetActor(c)
		c.JSON(http.StatusOK, actor)
	})
	protected.GET("/admin", RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireAuth_NoIdentity(t *testing.T) {
	router := newRouter(auth.NewTokenManager("secret", time.Hour))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_Session(t *testing.T) {
	router := newRouter(auth.NewTokenManager("secret", time.Hour))

	login := httptest.NewRecorder()
	router.ServeHTTP(login, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusNoContent, login.Code)
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"uid":"alice-id","email":"alice@example.com","role":"user"}`, w.Body.String())
}

func TestRequireAuth_BearerToken(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	router := newRouter(tokens)
	token, _, err := tokens.Issue(alice)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uid":"alice-id"`)
}

func TestRequireAuth_BadToken(t *testing.T) {
	router := newRouter(auth.NewTokenManager("secret", time.Hour))

	for _, header := range []string{"Bearer not-a-token", "Basic dXNlcjpwYXNz"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestRequireAdmin(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	router := newRouter(tokens)

	userToken, _, err := tokens.Issue(alice)
	require.NoError(t, err)
	adminToken, _, err := tokens.Issue(models.Actor{UID: "root", Email: "root@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)

	tests := []struct {
		token string
		want  int
	}{
		{userToken, http.StatusForbidden},
		{adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Code)
	}
}

type stubFinder struct {
	task *models.Task
	err  error
}

func (s stubFinder) GetTask(context.Context, models.Actor, string) (*models.Task, error) {
	return s.task, s.err
}

func TestRequireTaskAccess(t *testing.T) {
	task := &models.Task{ID: "task-1", Title: "Visible", OwnerID: alice.UID}

	tests := []struct {
		name   string
		finder stubFinder
		want   int
	}{
		{"found", stubFinder{task: task}, http.StatusOK},
		{"missing", stubFinder{err: apierrors.NewNotFoundError("task", "task-1")}, http.StatusNotFound},
		{"hidden", stubFinder{err: apierrors.NewAuthorizationError("view this task")}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/tasks/:id", func(c *gin.Context) {
				setActor(c, alice)
			}, RequireTaskAccess(tt.finder), func(c *gin.Context) {
				loaded, ok := GetTask(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"id": loaded.ID})
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/task-1", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

type stubAccounts struct {
	exists bool
	err    error
}

func (s stubAccounts) UserExists(context.Context, string) (bool, error) {
	return s.exists, s.err
}

func TestRequireActiveUser(t *testing.T) {
	tests := []struct {
		name     string
		accounts stubAccounts
		want     int
	}{
		{"active", stubAccounts{exists: true}, http.StatusOK},
		{"deleted", stubAccounts{exists: false}, http.StatusUnauthorized},
		{"store down", stubAccounts{err: &apierrors.UpstreamStoreError{Op: "find user", Attempts: 1, Err: context.DeadlineExceeded}}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("test-secret"))))
			router.POST("/tasks", func(c *gin.Context) {
				setActor(c, alice)
			}, RequireActiveUser(tt.accounts), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/tasks", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(constants.RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, buf.String(), generated)
	assert.Contains(t, buf.String(), `"status":200`)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(constants.RequestIDHeader, "given-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "given-id", w.Header().Get(constants.RequestIDHeader))
}
