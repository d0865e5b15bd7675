package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/auth"
	"github.com/helping-hands-dev/helping-hands/internal/config"
	"github.com/helping-hands-dev/helping-hands/internal/mailer"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/tokens"
)

type PasswordHandler struct {
	DB     *gorm.DB
	Mailer mailer.Mailer
	Config config.Config
}

func NewPasswordHandler(database *gorm.DB, mail mailer.Mailer, cfg config.Config) *PasswordHandler {
	return &PasswordHandler{DB: database, Mailer: mail, Config: cfg}
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// ForgotPassword issues a single-use reset token. Only the SHA-256 digest is
// stored; the raw token travels in the email. A failed send clears the pair
// so no usable token dangles.
func (h *PasswordHandler) ForgotPassword(ctx *gin.Context) {
	var body ForgotPasswordRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))

	var user models.User

	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No user found with that email"})
		return
	}

	resetToken, err := tokens.Generate()

	if err != nil {
		logrus.Errorf("Failed to generate reset token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	tokenHash := tokens.Hash(resetToken)
	expire := time.Now().Add(h.Config.ResetTokenTTL)

	err = h.DB.Model(&user).Updates(map[string]interface{}{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expire,
	}).Error

	if err != nil {
		logrus.Errorf("Failed to store reset token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	resetURL := h.Config.FrontendURL + "/reset-password/" + resetToken

	var sendErr error

	if h.Mailer != nil {
		sendErr = h.Mailer.Send(mailer.Message{
			To:      user.Email,
			Subject: "Password Reset Request - Helping Hands",
			HTML:    mailer.PasswordResetEmail(user.Name, resetURL),
		})
	} else {
		sendErr = errors.New("mail transport not configured")
	}

	if sendErr != nil {
		logrus.Errorf("Failed to send reset email to %s: %v", user.Email, sendErr)

		// Roll back the pair so the failed send never leaves a usable token.
		if err := h.clearResetToken(user.ID); err != nil {
			logrus.Errorf("Failed to clear reset token for user %d: %v", user.ID, err)
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Email could not be sent"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset email sent. Please check your inbox.",
	})
}

func (h *PasswordHandler) ResetPassword(ctx *gin.Context) {
	var body ResetPasswordRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	user, ok := h.findByResetToken(ctx.Param("token"))

	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired reset token"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)

	if err != nil {
		logrus.Errorf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	// Single-use: the pair is cleared in the same update that sets the
	// new credential.
	err = h.DB.Model(&user).Updates(map[string]interface{}{
		"password_hash":         string(passwordHash),
		"reset_password_token":  nil,
		"reset_password_expire": nil,
	}).Error

	if err != nil {
		logrus.Errorf("Failed to reset password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role)

	if err != nil {
		logrus.Errorf("Failed to generate JWT: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset successful",
		"data":    gin.H{"token": token},
	})
}

func (h *PasswordHandler) VerifyResetToken(ctx *gin.Context) {
	user, ok := h.findByResetToken(ctx.Param("token"))

	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid or expired reset token"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token is valid",
		"data":    gin.H{"email": user.Email},
	})
}

func (h *PasswordHandler) findByResetToken(rawToken string) (models.User, bool) {
	tokenHash := tokens.Hash(rawToken)

	var user models.User

	err := h.DB.Where("reset_password_token = ? AND reset_password_expire > ?", tokenHash, time.Now()).
		First(&user).Error

	if err != nil {
		return models.User{}, false
	}

	return user, true
}

func (h *PasswordHandler) clearResetToken(userID uint) error {
	return h.DB.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"reset_password_token":  nil,
		"reset_password_expire": nil,
	}).Error
}
