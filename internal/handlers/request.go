package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/config"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/types"
	"github.com/helping-hands-dev/helping-hands/internal/utils"
)

type RequestHandler struct {
	DB     *gorm.DB
	Config config.Config
}

func NewRequestHandler(database *gorm.DB, cfg config.Config) *RequestHandler {
	return &RequestHandler{DB: database, Config: cfg}
}

type LocationPayload struct {
	City  string `json:"city" binding:"required"`
	State string `json:"state" binding:"required"`
}

type CreateHelpRequestRequest struct {
	Title          string          `json:"title" binding:"required"`
	Category       string          `json:"category" binding:"required,oneof=medical education food shelter clothing other"`
	Description    string          `json:"description" binding:"required"`
	Urgency        string          `json:"urgency" binding:"omitempty,oneof=low medium high critical"`
	AmountNeeded   int64           `json:"amountNeeded" binding:"required,gt=0"`
	RequesterName  string          `json:"requesterName" binding:"required"`
	RequesterEmail string          `json:"requesterEmail" binding:"required,email"`
	RequesterPhone string          `json:"requesterPhone" binding:"required,len=10,numeric"`
	Location       LocationPayload `json:"location" binding:"required"`
}

// UpdateHelpRequestRequest is the explicit allow-list for the generic update
// path. Status, verification state and counters are deliberately absent so
// they cannot be injected through this route.
type UpdateHelpRequestRequest struct {
	Title          *string          `json:"title"`
	Category       *string          `json:"category" binding:"omitempty,oneof=medical education food shelter clothing other"`
	Description    *string          `json:"description"`
	Urgency        *string          `json:"urgency" binding:"omitempty,oneof=low medium high critical"`
	AmountNeeded   *int64           `json:"amountNeeded"`
	RequesterName  *string          `json:"requesterName"`
	RequesterEmail *string          `json:"requesterEmail" binding:"omitempty,email"`
	RequesterPhone *string          `json:"requesterPhone" binding:"omitempty,len=10,numeric"`
	Location       *LocationPayload `json:"location"`
}

type RejectRequestRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *RequestHandler) CreateRequest(ctx *gin.Context) {
	var body CreateHelpRequestRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if body.AmountNeeded < h.Config.MinRequestAmount {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fmt.Sprintf("Minimum amount is %d", h.Config.MinRequestAmount),
		})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	location, err := json.Marshal(body.Location)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid location"})
		return
	}

	request := models.HelpRequest{
		UserID:             &userID,
		Title:              body.Title,
		Category:           body.Category,
		Description:        body.Description,
		Urgency:            body.Urgency,
		AmountNeeded:       body.AmountNeeded,
		Status:             types.RequestStatusPending,
		VerificationStatus: types.VerificationUnverified,
		RequesterName:      body.RequesterName,
		RequesterEmail:     body.RequesterEmail,
		RequesterPhone:     body.RequesterPhone,
		Location:           location,
	}

	if err := h.DB.Create(&request).Error; err != nil {
		logrus.Errorf("Failed to create request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create request"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Request created successfully. It will be reviewed by our team.",
		"data":    request,
	})
}

// ListRequests is public. Without an explicit status filter only approved
// and active requests are discoverable.
func (h *RequestHandler) ListRequests(ctx *gin.Context) {
	page, limit := pagination(ctx)

	query := h.DB.Model(&models.HelpRequest{})

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?", []string{types.RequestStatusApproved, types.RequestStatusActive})
	}
	if category := ctx.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if urgency := ctx.Query("urgency"); urgency != "" {
		query = query.Where("urgency = ?", urgency)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		logrus.Errorf("Failed to count requests: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve requests"})
		return
	}

	var requests []models.HelpRequest

	err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&requests).Error

	if err != nil {
		logrus.Errorf("Failed to list requests: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve requests"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(requests),
		"total":   total,
		"page":    page,
		"pages":   pages(total, limit),
		"data":    requests,
	})
}

func (h *RequestHandler) GetRequest(ctx *gin.Context) {
	var request models.HelpRequest

	err := h.DB.Preload("User").
		Preload("Donations", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Limit(10)
		}).
		First(&request, ctx.Param("id")).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found"})
		} else {
			logrus.Errorf("Failed to fetch request: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve request"})
		}
		return
	}

	// Best-effort view counter; not part of the state machine, so a lost
	// update under concurrency is acceptable.
	if err := h.DB.Model(&request).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		logrus.Warnf("Failed to increment views for request %d: %v", request.ID, err)
	}
	request.Views++

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": request})
}

func (h *RequestHandler) GetMyRequests(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var requests []models.HelpRequest

	err = h.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error

	if err != nil {
		logrus.Errorf("Failed to list requests for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve requests"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(requests),
		"data":    requests,
	})
}

func (h *RequestHandler) UpdateRequest(ctx *gin.Context) {
	request, _, ok := h.fetchOwned(ctx, "update")

	if !ok {
		return
	}

	var body UpdateHelpRequestRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	updates := make(map[string]interface{})

	if body.Title != nil {
		updates["title"] = *body.Title
	}
	if body.Category != nil {
		updates["category"] = *body.Category
	}
	if body.Description != nil {
		updates["description"] = *body.Description
	}
	if body.Urgency != nil {
		updates["urgency"] = *body.Urgency
	}
	if body.AmountNeeded != nil {
		if *body.AmountNeeded < h.Config.MinRequestAmount {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": fmt.Sprintf("Minimum amount is %d", h.Config.MinRequestAmount),
			})
			return
		}
		updates["amount_needed"] = *body.AmountNeeded
	}
	if body.RequesterName != nil {
		updates["requester_name"] = *body.RequesterName
	}
	if body.RequesterEmail != nil {
		updates["requester_email"] = *body.RequesterEmail
	}
	if body.RequesterPhone != nil {
		updates["requester_phone"] = *body.RequesterPhone
	}
	if body.Location != nil {
		location, err := json.Marshal(body.Location)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid location"})
			return
		}
		updates["location"] = location
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No valid fields to update"})
		return
	}

	if err := h.DB.Model(&request).Updates(updates).Error; err != nil {
		logrus.Errorf("Failed to update request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update request"})
		return
	}

	if err := h.DB.First(&request, request.ID).Error; err != nil {
		logrus.Errorf("Failed to refresh request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Request updated successfully",
		"data":    request,
	})
}

// DeleteRequest soft-deletes the request. Historical donations referencing
// it are untouched; the audit trail survives the request.
func (h *RequestHandler) DeleteRequest(ctx *gin.Context) {
	request, _, ok := h.fetchOwned(ctx, "delete")

	if !ok {
		return
	}

	if err := h.DB.Delete(&request).Error; err != nil {
		logrus.Errorf("Failed to delete request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete request"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Request deleted successfully"})
}

func (h *RequestHandler) ApproveRequest(ctx *gin.Context) {
	var request models.HelpRequest

	if err := h.DB.First(&request, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found"})
		} else {
			logrus.Errorf("Failed to fetch request: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve request"})
		}
		return
	}

	err := h.DB.Model(&request).Updates(map[string]interface{}{
		"status":              types.RequestStatusApproved,
		"verification_status": types.VerificationVerified,
	}).Error

	if err != nil {
		logrus.Errorf("Failed to approve request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to approve request"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Request approved successfully",
		"data":    request,
	})
}

func (h *RequestHandler) RejectRequest(ctx *gin.Context) {
	var body RejectRequestRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Rejection reason is required"})
		return
	}

	var request models.HelpRequest

	if err := h.DB.First(&request, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found"})
		} else {
			logrus.Errorf("Failed to fetch request: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve request"})
		}
		return
	}

	err := h.DB.Model(&request).Updates(map[string]interface{}{
		"status":              types.RequestStatusRejected,
		"verification_status": types.VerificationRejected,
		"admin_notes":         body.Reason,
	}).Error

	if err != nil {
		logrus.Errorf("Failed to reject request: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to reject request"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Request rejected",
		"data":    request,
	})
}

// fetchOwned loads the request and enforces the owner-or-administrator rule
// shared by update and delete.
func (h *RequestHandler) fetchOwned(ctx *gin.Context, action string) (models.HelpRequest, uint, bool) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return models.HelpRequest{}, 0, false
	}

	var request models.HelpRequest

	if err := h.DB.First(&request, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found"})
		} else {
			logrus.Errorf("Failed to fetch request: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve request"})
		}
		return models.HelpRequest{}, 0, false
	}

	isOwner := request.UserID != nil && *request.UserID == currentUser.ID

	if !isOwner && currentUser.Role != models.RoleAdministrator {
		ctx.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Not authorized to " + action + " this request",
		})
		return models.HelpRequest{}, 0, false
	}

	return request, currentUser.ID, true
}
