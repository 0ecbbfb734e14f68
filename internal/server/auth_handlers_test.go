package server

import (
	"encoding/json"
	"net/http"
	"testing"

	"tutorhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Post("/api/auth/signup", s.Signup)
	app.Post("/api/auth/login", s.Login)
	return app
}

func TestSignup_CreatesAccountAndToken(t *testing.T) {
	s := newTestServer(t)
	app := authApp(s)

	resp := postJSON(t, app, "/api/auth/signup", fiber.Map{
		"email":        "guardian@example.com",
		"password":     "Str0ng!Passw0rd",
		"display_name": "Pat Guardian",
		"role":         "guardian",
	})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, models.RoleGuardian, body.User.Role)
	assert.False(t, body.User.IsAdmin)
}

func TestSignup_RejectsAdminRole(t *testing.T) {
	s := newTestServer(t)
	app := authApp(s)

	resp := postJSON(t, app, "/api/auth/signup", fiber.Map{
		"email":        "sneaky@example.com",
		"password":     "Str0ng!Passw0rd",
		"display_name": "Sneaky",
		"role":         "admin",
	})
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	app := authApp(s)

	payload := fiber.Map{
		"email":        "dupe@example.com",
		"password":     "Str0ng!Passw0rd",
		"display_name": "First",
		"role":         "teacher",
	}
	resp := postJSON(t, app, "/api/auth/signup", payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, app, "/api/auth/signup", payload)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLogin_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	app := authApp(s)

	resp := postJSON(t, app, "/api/auth/signup", fiber.Map{
		"email":        "teacher@example.com",
		"password":     "Str0ng!Passw0rd",
		"display_name": "Tess Teacher",
		"role":         "teacher",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "teacher@example.com",
		"password": "Str0ng!Passw0rd",
	})
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	app := authApp(s)

	resp := postJSON(t, app, "/api/auth/signup", fiber.Map{
		"email":        "teacher@example.com",
		"password":     "Str0ng!Passw0rd",
		"display_name": "Tess Teacher",
		"role":         "teacher",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "teacher@example.com",
		"password": "wrong",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin_UnknownEmail(t *testing.T) {
	s := newTestServer(t)
	app := authApp(s)

	resp := postJSON(t, app, "/api/auth/login", fiber.Map{
		"email":    "nobody@example.com",
		"password": "whatever",
	})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
