package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/utils"
)

type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(database *gorm.DB) *UserHandler {
	return &UserHandler{DB: database}
}

type AdminUpdateUserRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone" binding:"omitempty,len=10,numeric"`
	Email string `json:"email" binding:"omitempty,email"`
}

func (h *UserHandler) ListUsers(ctx *gin.Context) {
	page, limit := pagination(ctx)

	var total int64

	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		logrus.Errorf("Failed to count users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve users"})
		return
	}

	var users []models.User

	err := h.DB.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error

	if err != nil {
		logrus.Errorf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve users"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"total":   total,
		"page":    page,
		"pages":   pages(total, limit),
		"data":    users,
	})
}

func (h *UserHandler) GetUser(ctx *gin.Context) {
	targetID, ok := h.authorizeSelfOrAdmin(ctx)

	if !ok {
		return
	}

	var user models.User

	if err := h.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		} else {
			logrus.Errorf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve user"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": user})
}

// UpdateUser shares the profile allow-list; role and counters are never
// settable here, even by administrators.
func (h *UserHandler) UpdateUser(ctx *gin.Context) {
	targetID, ok := h.authorizeSelfOrAdmin(ctx)

	if !ok {
		return
	}

	var body AdminUpdateUserRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var user models.User

	if err := h.DB.First(&user, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		} else {
			logrus.Errorf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve user"})
		}
		return
	}

	updates := make(map[string]interface{})

	if body.Name != "" {
		updates["name"] = strings.TrimSpace(body.Name)
	}
	if body.Phone != "" {
		updates["phone"] = body.Phone
	}
	if body.Email != "" {
		newEmail := strings.ToLower(strings.TrimSpace(body.Email))

		if newEmail != user.Email {
			var existing models.User
			err := h.DB.Where("email = ? AND id != ?", newEmail, user.ID).First(&existing).Error
			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Email already registered"})
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logrus.Errorf("Database error when checking existing email: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
				return
			}
		}

		updates["email"] = newEmail
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No valid fields to update"})
		return
	}

	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		logrus.Errorf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update user"})
		return
	}

	if err := h.DB.First(&user, user.ID).Error; err != nil {
		logrus.Errorf("Failed to refresh user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"data":    user,
	})
}

func (h *UserHandler) DeleteUser(ctx *gin.Context) {
	var user models.User

	if err := h.DB.First(&user, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		} else {
			logrus.Errorf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve user"})
		}
		return
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		logrus.Errorf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete user"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
}

func (h *UserHandler) GetUserDonations(ctx *gin.Context) {
	targetID, ok := h.authorizeSelfOrAdmin(ctx)

	if !ok {
		return
	}

	var donations []models.Donation

	err := h.DB.Preload("Request").
		Where("user_id = ?", targetID).
		Order("created_at DESC").
		Find(&donations).Error

	if err != nil {
		logrus.Errorf("Failed to list donations for user %d: %v", targetID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donations"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(donations),
		"data":    donations,
	})
}

func (h *UserHandler) GetUserRequests(ctx *gin.Context) {
	targetID, ok := h.authorizeSelfOrAdmin(ctx)

	if !ok {
		return
	}

	var requests []models.HelpRequest

	err := h.DB.Where("user_id = ?", targetID).
		Order("created_at DESC").
		Find(&requests).Error

	if err != nil {
		logrus.Errorf("Failed to list requests for user %d: %v", targetID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve requests"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(requests),
		"data":    requests,
	})
}

func (h *UserHandler) authorizeSelfOrAdmin(ctx *gin.Context) (uint, bool) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return 0, false
	}

	targetID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user id"})
		return 0, false
	}

	if uint(targetID) != currentUser.ID && currentUser.Role != models.RoleAdministrator {
		ctx.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Not authorized to access this user"})
		return 0, false
	}

	return uint(targetID), true
}
