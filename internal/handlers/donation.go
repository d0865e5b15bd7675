package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/config"
	"github.com/helping-hands-dev/helping-hands/internal/feed"
	"github.com/helping-hands-dev/helping-hands/internal/ledger"
	"github.com/helping-hands-dev/helping-hands/internal/mailer"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/txid"
	"github.com/helping-hands-dev/helping-hands/internal/types"
	"github.com/helping-hands-dev/helping-hands/internal/utils"
)

type DonationHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Coordinator
	Feed   *feed.Hub
	Mailer mailer.Mailer
	Config config.Config
}

func NewDonationHandler(database *gorm.DB, coordinator *ledger.Coordinator, hub *feed.Hub, mail mailer.Mailer, cfg config.Config) *DonationHandler {
	return &DonationHandler{DB: database, Ledger: coordinator, Feed: hub, Mailer: mail, Config: cfg}
}

type CreateDonationRequest struct {
	Amount        int64                  `json:"amount" binding:"required,gt=0"`
	Cause         string                 `json:"cause" binding:"required,oneof=medical education food shelter clothing elderly general"`
	PaymentMethod string                 `json:"paymentMethod" binding:"required,oneof=card upi netbanking wallet"`
	PaymentInfo   map[string]interface{} `json:"paymentInfo"`
	DonorName     string                 `json:"donorName" binding:"required"`
	DonorEmail    string                 `json:"donorEmail" binding:"required,email"`
	IsMonthly     bool                   `json:"isMonthly"`
	RequestID     *uint                  `json:"requestId"`
}

type UpdateDonationStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending completed failed"`
}

// CreateDonation is public; an optional bearer token credits the donation to
// the caller's totals. Payment is simulated, so the record lands as
// completed immediately and is handed to the consistency coordinator.
func (h *DonationHandler) CreateDonation(ctx *gin.Context) {
	var body CreateDonationRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if body.Amount < h.Config.MinDonationAmount {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fmt.Sprintf("Minimum donation amount is %d", h.Config.MinDonationAmount),
		})
		return
	}

	if body.RequestID != nil {
		var request models.HelpRequest
		if err := h.DB.First(&request, *body.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Request not found"})
			} else {
				logrus.Errorf("Failed to fetch request: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
			}
			return
		}
	}

	var userID *uint

	if currentUser, err := utils.GetCurrentUser(ctx); err == nil {
		id := currentUser.ID
		userID = &id
	}

	var paymentInfo datatypes.JSON

	if body.PaymentInfo != nil {
		raw, err := json.Marshal(body.PaymentInfo)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid payment info"})
			return
		}
		paymentInfo = raw
	}

	donation := models.Donation{
		UserID:        userID,
		RequestID:     body.RequestID,
		Amount:        body.Amount,
		Cause:         body.Cause,
		PaymentMethod: body.PaymentMethod,
		PaymentInfo:   paymentInfo,
		TransactionID: txid.New(),
		Status:        types.DonationStatusCompleted,
		IsMonthly:     body.IsMonthly,
		DonorName:     body.DonorName,
		DonorEmail:    body.DonorEmail,
	}

	if err := h.Ledger.Record(&donation); err != nil {
		logrus.Errorf("Failed to record donation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create donation"})
		return
	}

	if h.Feed != nil {
		h.Feed.Broadcast(feed.Event{
			Type:      "donation",
			Amount:    donation.Amount,
			Cause:     donation.Cause,
			DonorName: donation.DonorName,
			RequestID: donation.RequestID,
		})
	}

	if h.Mailer != nil {
		go func(d models.Donation) {
			msg := mailer.Message{
				To:      d.DonorEmail,
				Subject: "Donation Receipt - Helping Hands",
				HTML:    mailer.DonationReceiptEmail(d.DonorName, d.Amount, d.Cause, d.TransactionID, d.CreatedAt),
			}
			if err := h.Mailer.Send(msg); err != nil {
				logrus.Warnf("Failed to send donation receipt to %s: %v", d.DonorEmail, err)
			}
		}(donation)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Donation created successfully",
		"data":    donation,
	})
}

func (h *DonationHandler) ListDonations(ctx *gin.Context) {
	page, limit := pagination(ctx)

	query := h.DB.Model(&models.Donation{})

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if cause := ctx.Query("cause"); cause != "" {
		query = query.Where("cause = ?", cause)
	}
	if method := ctx.Query("paymentMethod"); method != "" {
		query = query.Where("payment_method = ?", method)
	}

	var total int64

	if err := query.Count(&total).Error; err != nil {
		logrus.Errorf("Failed to count donations: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donations"})
		return
	}

	var donations []models.Donation

	err := query.Preload("User").Preload("Request").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&donations).Error

	if err != nil {
		logrus.Errorf("Failed to list donations: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donations"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(donations),
		"total":   total,
		"page":    page,
		"pages":   pages(total, limit),
		"data":    donations,
	})
}

func (h *DonationHandler) GetDonation(ctx *gin.Context) {
	var donation models.Donation

	err := h.DB.Preload("User").Preload("Request").First(&donation, ctx.Param("id")).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Donation not found"})
		} else {
			logrus.Errorf("Failed to fetch donation: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donation"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": donation})
}

func (h *DonationHandler) GetMyDonations(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	var donations []models.Donation

	err = h.DB.Preload("Request").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&donations).Error

	if err != nil {
		logrus.Errorf("Failed to list donations for user %d: %v", userID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donations"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(donations),
		"data":    donations,
	})
}

// UpdateDonationStatus is the only mutation a donation accepts after
// creation, and it is administrator-only.
func (h *DonationHandler) UpdateDonationStatus(ctx *gin.Context) {
	var body UpdateDonationStatusRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	var donation models.Donation

	if err := h.DB.First(&donation, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Donation not found"})
		} else {
			logrus.Errorf("Failed to fetch donation: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donation"})
		}
		return
	}

	if err := h.DB.Model(&donation).Update("status", body.Status).Error; err != nil {
		logrus.Errorf("Failed to update donation status: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update donation"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Donation status updated",
		"data":    donation,
	})
}

// DeleteDonation removes the record without reversing the aggregate effects
// applied at creation. Request and donor totals keep their history.
func (h *DonationHandler) DeleteDonation(ctx *gin.Context) {
	var donation models.Donation

	if err := h.DB.First(&donation, ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Donation not found"})
		} else {
			logrus.Errorf("Failed to fetch donation: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve donation"})
		}
		return
	}

	if err := h.DB.Delete(&donation).Error; err != nil {
		logrus.Errorf("Failed to delete donation: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to delete donation"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Donation deleted successfully"})
}

func pagination(ctx *gin.Context) (page int, limit int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", "10"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	return page, limit
}

func pages(total int64, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
