package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "propertydeals-backend/internal/application/auth"
	"propertydeals-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthHandlers(t *testing.T) (*fiber.App, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	h := &Handlers{
		Authenticator: &authsvc.StaticOperator{Username: "operator", PasswordHash: string(hash)},
		Rdb:           rdb,
	}
	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Post("/login", h.Login)
	app.Get("/me", h.Me)
	app.Delete("/logout", h.Logout)
	return app, rdb
}

func login(t *testing.T, app *fiber.App, username, password string) *httpResponse {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	return &httpResponse{code: resp.StatusCode, body: b, cookies: resp.Header.Values("Set-Cookie")}
}

type httpResponse struct {
	code    int
	body    []byte
	cookies []string
}

func sessionCookie(t *testing.T, cookies []string) string {
	for _, c := range cookies {
		if strings.HasPrefix(c, middleware.SessionCookieName+"=") {
			return strings.SplitN(c, ";", 2)[0]
		}
	}
	t.Fatalf("no session cookie in %v", cookies)
	return ""
}

func TestLogin_MissingCredentials(t *testing.T) {
	app, _ := setupAuthHandlers(t)
	resp := login(t, app, "operator", "")
	assert.Equal(t, fiber.StatusBadRequest, resp.code)
}

func TestLogin_WrongPassword(t *testing.T) {
	app, _ := setupAuthHandlers(t)
	resp := login(t, app, "operator", "wrong")
	assert.Equal(t, fiber.StatusUnauthorized, resp.code)
}

func TestLogin_UnknownUser(t *testing.T) {
	app, _ := setupAuthHandlers(t)
	resp := login(t, app, "someone", "password123")
	assert.Equal(t, fiber.StatusUnauthorized, resp.code)
}

func TestLogin_NotConfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := &Handlers{Authenticator: &authsvc.StaticOperator{}, Rdb: rdb}
	app := fiber.New()
	app.Post("/login", h.Login)
	body, _ := json.Marshal(map[string]string{"username": "operator", "password": "x"})
	req := httptest.NewRequest("POST", "/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestLogin_MeLogout(t *testing.T) {
	app, rdb := setupAuthHandlers(t)

	resp := login(t, app, "operator", "password123")
	require.Equal(t, fiber.StatusOK, resp.code, string(resp.body))
	cookie := sessionCookie(t, resp.cookies)
	assert.Contains(t, cookie, "s:")

	members, err := rdb.SMembers(context.Background(), operatorSessionsPrefix+"operator").Result()
	require.NoError(t, err)
	assert.Len(t, members, 1)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", cookie)
	meResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, meResp.StatusCode)
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&out))
	op := out["data"].(map[string]interface{})["operator"].(map[string]interface{})
	assert.Equal(t, "operator", op["username"])
	assert.Equal(t, authsvc.RoleOperator, op["role"])

	req = httptest.NewRequest("DELETE", "/logout", nil)
	req.Header.Set("Cookie", cookie)
	outResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, outResp.StatusCode)

	exists, err := rdb.Exists(context.Background(), middleware.SessionRedisPrefix+members[0]).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Cookie", cookie)
	meResp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, meResp.StatusCode)
}

func TestMe_NoSession(t *testing.T) {
	app, _ := setupAuthHandlers(t)
	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
