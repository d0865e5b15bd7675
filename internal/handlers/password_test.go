package handlers_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helping-hands-dev/helping-hands/internal/models"
)

var resetTokenPattern = regexp.MustCompile(`/reset-password/([0-9a-f]{40})`)

func (s *testServer) requestResetToken(t *testing.T, email string) string {
	t.Helper()

	w := s.do(t, "POST", "/api/auth/forgot-password", gin.H{"email": email}, "")
	require.Equal(t, 200, w.Code, w.Body.String())

	msg, ok := s.mail.bySubject("Password Reset Request - Helping Hands")
	require.True(t, ok, "no reset email captured")

	match := resetTokenPattern.FindStringSubmatch(msg.HTML)
	require.Len(t, match, 2, "reset email carries no token link")

	return match[1]
}

func TestPasswordResetFlow(t *testing.T) {
	s := setupServer(t)

	s.register(t, "Bob", "bob@example.com")
	token := s.requestResetToken(t, "bob@example.com")

	w := s.do(t, "GET", "/api/auth/verify-reset-token/"+token, nil, "")
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, "bob@example.com", data(t, w)["email"])

	w = s.do(t, "PUT", "/api/auth/reset-password/"+token, gin.H{"password": "brand-new-pass"}, "")
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.NotEmpty(t, data(t, w)["token"])

	w = s.do(t, "POST", "/api/auth/login", gin.H{"email": "bob@example.com", "password": "secret123"}, "")
	assert.Equal(t, 400, w.Code)

	w = s.do(t, "POST", "/api/auth/login", gin.H{"email": "bob@example.com", "password": "brand-new-pass"}, "")
	assert.Equal(t, 200, w.Code)
}

func TestResetTokenSingleUse(t *testing.T) {
	s := setupServer(t)

	s.register(t, "Bob", "bob@example.com")
	token := s.requestResetToken(t, "bob@example.com")

	w := s.do(t, "PUT", "/api/auth/reset-password/"+token, gin.H{"password": "brand-new-pass"}, "")
	require.Equal(t, 200, w.Code)

	w = s.do(t, "PUT", "/api/auth/reset-password/"+token, gin.H{"password": "another-pass"}, "")
	require.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid or expired reset token", decode(t, w)["message"])
}

func TestResetTokenExpired(t *testing.T) {
	s := setupServer(t)

	s.register(t, "Bob", "bob@example.com")
	token := s.requestResetToken(t, "bob@example.com")

	err := s.db.Model(&models.User{}).
		Where("email = ?", "bob@example.com").
		Update("reset_password_expire", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)

	w := s.do(t, "PUT", "/api/auth/reset-password/"+token, gin.H{"password": "brand-new-pass"}, "")
	require.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid or expired reset token", decode(t, w)["message"])

	w = s.do(t, "GET", "/api/auth/verify-reset-token/"+token, nil, "")
	assert.Equal(t, 400, w.Code)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, "POST", "/api/auth/forgot-password", gin.H{"email": "ghost@example.com"}, "")
	require.Equal(t, 404, w.Code)
	assert.Equal(t, "No user found with that email", decode(t, w)["message"])
}

func TestForgotPasswordSendFailureClearsToken(t *testing.T) {
	s := setupServer(t)

	s.register(t, "Bob", "bob@example.com")
	s.mail.setFail(true)

	w := s.do(t, "POST", "/api/auth/forgot-password", gin.H{"email": "bob@example.com"}, "")
	require.Equal(t, 500, w.Code)
	assert.Equal(t, "Email could not be sent", decode(t, w)["message"])

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "bob@example.com").First(&user).Error)
	assert.Nil(t, user.ResetPasswordToken)
	assert.Nil(t, user.ResetPasswordExpire)
}

func TestResetPasswordBadToken(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, "PUT", "/api/auth/reset-password/deadbeef", gin.H{"password": "whatever-pass"}, "")
	require.Equal(t, 400, w.Code)
	assert.Equal(t, "Invalid or expired reset token", decode(t, w)["message"])
}
