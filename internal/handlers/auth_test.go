package handlers_test

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	s := setupServer(t)

	token := s.register(t, "Alice", "alice@example.com")
	require.NotEmpty(t, token)

	w := s.do(t, "GET", "/api/auth/me", nil, token)
	require.Equal(t, 200, w.Code, w.Body.String())

	me := data(t, w)
	assert.Equal(t, "Alice", me["name"])
	assert.Equal(t, "alice@example.com", me["email"])
	assert.Equal(t, "member", me["role"])

	w = s.do(t, "POST", "/api/auth/login", gin.H{
		"email":    "Alice@Example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.NotEmpty(t, data(t, w)["token"])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := setupServer(t)

	s.register(t, "Alice", "alice@example.com")

	w := s.do(t, "POST", "/api/auth/register", gin.H{
		"name":     "Impostor",
		"email":    "alice@example.com",
		"phone":    "9876543210",
		"password": "secret123",
	}, "")

	require.Equal(t, 400, w.Code)
	assert.Equal(t, "Email already registered", decode(t, w)["message"])
}

func TestRegisterValidation(t *testing.T) {
	s := setupServer(t)

	cases := []struct {
		name    string
		payload gin.H
	}{
		{"missing name", gin.H{"email": "a@b.com", "phone": "0123456789", "password": "secret123"}},
		{"bad email", gin.H{"name": "A", "email": "nope", "phone": "0123456789", "password": "secret123"}},
		{"short password", gin.H{"name": "A", "email": "a@b.com", "phone": "0123456789", "password": "abc"}},
		{"bad phone", gin.H{"name": "A", "email": "a@b.com", "phone": "12345", "password": "secret123"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(t, "POST", "/api/auth/register", tc.payload, "")
			assert.Equal(t, 400, w.Code)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	s := setupServer(t)

	s.register(t, "Alice", "alice@example.com")

	w := s.do(t, "POST", "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")

	require.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid email or password", decode(t, w)["message"])
}

func TestMeRequiresAuth(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, "GET", "/api/auth/me", nil, "")
	assert.Equal(t, 401, w.Code)

	w = s.do(t, "GET", "/api/auth/me", nil, "not-a-jwt")
	assert.Equal(t, 401, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	s := setupServer(t)

	token := s.register(t, "Alice", "alice@example.com")

	w := s.do(t, "PUT", "/api/auth/profile", gin.H{
		"name":  "Alice Smith",
		"phone": "9876543210",
	}, token)
	require.Equal(t, 200, w.Code, w.Body.String())

	updated := data(t, w)
	assert.Equal(t, "Alice Smith", updated["name"])
	assert.Equal(t, "9876543210", updated["phone"])

	w = s.do(t, "PUT", "/api/auth/profile", gin.H{}, token)
	require.Equal(t, 400, w.Code)
	assert.Equal(t, "No valid fields to update", decode(t, w)["message"])
}

func TestUpdateProfileCannotEscalateRole(t *testing.T) {
	s := setupServer(t)

	token := s.register(t, "Alice", "alice@example.com")

	w := s.do(t, "PUT", "/api/auth/profile", gin.H{
		"name": "Still Alice",
		"role": "administrator",
	}, token)
	require.Equal(t, 200, w.Code, w.Body.String())

	assert.Equal(t, "member", data(t, w)["role"])
}

func TestChangePassword(t *testing.T) {
	s := setupServer(t)

	token := s.register(t, "Alice", "alice@example.com")

	w := s.do(t, "PUT", "/api/auth/change-password", gin.H{
		"currentPassword": "wrong",
		"newPassword":     "newsecret",
	}, token)
	require.Equal(t, 400, w.Code)
	assert.Equal(t, "Current password is incorrect", decode(t, w)["message"])

	w = s.do(t, "PUT", "/api/auth/change-password", gin.H{
		"currentPassword": "secret123",
		"newPassword":     "newsecret",
	}, token)
	require.Equal(t, 200, w.Code, w.Body.String())

	w = s.do(t, "POST", "/api/auth/login", gin.H{"email": "alice@example.com", "password": "secret123"}, "")
	assert.Equal(t, 400, w.Code)

	w = s.do(t, "POST", "/api/auth/login", gin.H{"email": "alice@example.com", "password": "newsecret"}, "")
	assert.Equal(t, 200, w.Code)
}
