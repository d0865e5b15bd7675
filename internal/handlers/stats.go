package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/cache"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/types"
)

// StatsHandler serves read-only aggregate projections. They carry no
// invariants of their own, so results are cached briefly when redis is
// configured.
type StatsHandler struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewStatsHandler(database *gorm.DB, statsCache *cache.Cache) *StatsHandler {
	return &StatsHandler{DB: database, Cache: statsCache}
}

type causeStat struct {
	Cause       string `json:"cause"`
	Count       int64  `json:"count"`
	TotalAmount int64  `json:"totalAmount"`
}

type paymentMethodStat struct {
	PaymentMethod string `json:"paymentMethod"`
	Count         int64  `json:"count"`
	TotalAmount   int64  `json:"totalAmount"`
}

type monthStat struct {
	Month       string `json:"month"`
	Count       int64  `json:"count"`
	TotalAmount int64  `json:"totalAmount"`
}

type donorStat struct {
	DonorEmail    string `json:"donorEmail"`
	Name          string `json:"name"`
	TotalDonated  int64  `json:"totalDonated"`
	DonationCount int64  `json:"donationCount"`
}

type categoryStat struct {
	Category    string `json:"category"`
	Count       int64  `json:"count"`
	TotalNeeded int64  `json:"totalNeeded"`
	TotalRaised int64  `json:"totalRaised"`
}

type bucketStat struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

type fundedRequestStat struct {
	ID           uint   `json:"id"`
	Title        string `json:"title"`
	Category     string `json:"category"`
	AmountNeeded int64  `json:"amountNeeded"`
	AmountRaised int64  `json:"amountRaised"`
	DonorsCount  int64  `json:"donorsCount"`
}

type contributorStat struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	TotalDonations int64  `json:"totalDonations"`
	TotalDonated   int64  `json:"totalDonated"`
}

func (h *StatsHandler) GetOverallStats(ctx *gin.Context) {
	var cached gin.H

	if h.Cache.Get(ctx.Request.Context(), "stats:overall", &cached) {
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": cached})
		return
	}

	var totalUsers, totalDonations, totalRequests, activeRequests, completedRequests int64

	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		h.fail(ctx, "count users", err)
		return
	}

	if err := h.DB.Model(&models.Donation{}).
		Where("status = ?", types.DonationStatusCompleted).
		Count(&totalDonations).Error; err != nil {
		h.fail(ctx, "count donations", err)
		return
	}

	var donationAgg struct {
		TotalAmount int64
		AvgDonation float64
	}

	err := h.DB.Model(&models.Donation{}).
		Select("COALESCE(SUM(amount), 0) AS total_amount, COALESCE(AVG(amount), 0) AS avg_donation").
		Where("status = ?", types.DonationStatusCompleted).
		Scan(&donationAgg).Error

	if err != nil {
		h.fail(ctx, "aggregate donations", err)
		return
	}

	if err := h.DB.Model(&models.HelpRequest{}).Count(&totalRequests).Error; err != nil {
		h.fail(ctx, "count requests", err)
		return
	}

	if err := h.DB.Model(&models.HelpRequest{}).
		Where("status IN ?", []string{types.RequestStatusApproved, types.RequestStatusActive}).
		Count(&activeRequests).Error; err != nil {
		h.fail(ctx, "count active requests", err)
		return
	}

	if err := h.DB.Model(&models.HelpRequest{}).
		Where("status = ?", types.RequestStatusCompleted).
		Count(&completedRequests).Error; err != nil {
		h.fail(ctx, "count completed requests", err)
		return
	}

	var peopleHelped int64

	err = h.DB.Model(&models.HelpRequest{}).
		Select("COALESCE(SUM(donors_count), 0)").
		Where("status IN ?", []string{types.RequestStatusActive, types.RequestStatusCompleted}).
		Scan(&peopleHelped).Error

	if err != nil {
		h.fail(ctx, "sum donors", err)
		return
	}

	data := gin.H{
		"totalUsers":        totalUsers,
		"totalDonations":    totalDonations,
		"totalAmountRaised": donationAgg.TotalAmount,
		"averageDonation":   int64(donationAgg.AvgDonation + 0.5),
		"totalRequests":     totalRequests,
		"activeRequests":    activeRequests,
		"completedRequests": completedRequests,
		"peopleHelped":      peopleHelped,
	}

	h.Cache.Set(ctx.Request.Context(), "stats:overall", data)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *StatsHandler) GetDonationStats(ctx *gin.Context) {
	var cached gin.H

	if h.Cache.Get(ctx.Request.Context(), "stats:donations", &cached) {
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": cached})
		return
	}

	completed := h.DB.Model(&models.Donation{}).Where("status = ?", types.DonationStatusCompleted)

	var byCause []causeStat

	err := completed.Session(&gorm.Session{}).
		Select("cause, COUNT(*) AS count, SUM(amount) AS total_amount").
		Group("cause").
		Order("total_amount DESC").
		Scan(&byCause).Error

	if err != nil {
		h.fail(ctx, "group by cause", err)
		return
	}

	var byPaymentMethod []paymentMethodStat

	err = completed.Session(&gorm.Session{}).
		Select("payment_method, COUNT(*) AS count, SUM(amount) AS total_amount").
		Group("payment_method").
		Scan(&byPaymentMethod).Error

	if err != nil {
		h.fail(ctx, "group by payment method", err)
		return
	}

	monthly, err := h.monthlyDonations()

	if err != nil {
		h.fail(ctx, "group by month", err)
		return
	}

	var topDonors []donorStat

	err = completed.Session(&gorm.Session{}).
		Select("donor_email, MIN(donor_name) AS name, SUM(amount) AS total_donated, COUNT(*) AS donation_count").
		Group("donor_email").
		Order("total_donated DESC").
		Limit(10).
		Scan(&topDonors).Error

	if err != nil {
		h.fail(ctx, "rank donors", err)
		return
	}

	data := gin.H{
		"byCause":          byCause,
		"byPaymentMethod":  byPaymentMethod,
		"monthlyDonations": monthly,
		"topDonors":        topDonors,
	}

	h.Cache.Set(ctx.Request.Context(), "stats:donations", data)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *StatsHandler) GetRequestStats(ctx *gin.Context) {
	var cached gin.H

	if h.Cache.Get(ctx.Request.Context(), "stats:requests", &cached) {
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": cached})
		return
	}

	var byCategory []categoryStat

	err := h.DB.Model(&models.HelpRequest{}).
		Select("category, COUNT(*) AS count, SUM(amount_needed) AS total_needed, SUM(amount_raised) AS total_raised").
		Group("category").
		Order("count DESC").
		Scan(&byCategory).Error

	if err != nil {
		h.fail(ctx, "group by category", err)
		return
	}

	byStatus, err := h.requestBuckets("status")

	if err != nil {
		h.fail(ctx, "group by status", err)
		return
	}

	byUrgency, err := h.requestBuckets("urgency")

	if err != nil {
		h.fail(ctx, "group by urgency", err)
		return
	}

	var mostFunded []fundedRequestStat

	err = h.DB.Model(&models.HelpRequest{}).
		Select("id, title, category, amount_needed, amount_raised, donors_count").
		Order("amount_raised DESC").
		Limit(10).
		Scan(&mostFunded).Error

	if err != nil {
		h.fail(ctx, "rank requests", err)
		return
	}

	data := gin.H{
		"byCategory": byCategory,
		"byStatus":   byStatus,
		"byUrgency":  byUrgency,
		"mostFunded": mostFunded,
	}

	h.Cache.Set(ctx.Request.Context(), "stats:requests", data)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *StatsHandler) GetUserStats(ctx *gin.Context) {
	var cached gin.H

	if h.Cache.Get(ctx.Request.Context(), "stats:users", &cached) {
		ctx.JSON(http.StatusOK, gin.H{"success": true, "data": cached})
		return
	}

	var totalUsers int64

	if err := h.DB.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		h.fail(ctx, "count users", err)
		return
	}

	var byRole []bucketStat

	err := h.DB.Model(&models.User{}).
		Select("role AS key, COUNT(*) AS count").
		Group("role").
		Scan(&byRole).Error

	if err != nil {
		h.fail(ctx, "group by role", err)
		return
	}

	var newUsers int64

	err = h.DB.Model(&models.User{}).
		Where("created_at >= ?", time.Now().AddDate(0, 0, -30)).
		Count(&newUsers).Error

	if err != nil {
		h.fail(ctx, "count new users", err)
		return
	}

	var topContributors []contributorStat

	err = h.DB.Model(&models.User{}).
		Select("name, email, total_donations, total_donated").
		Order("total_donated DESC").
		Limit(10).
		Scan(&topContributors).Error

	if err != nil {
		h.fail(ctx, "rank contributors", err)
		return
	}

	data := gin.H{
		"totalUsers":      totalUsers,
		"byRole":          byRole,
		"newUsers":        newUsers,
		"topContributors": topContributors,
	}

	h.Cache.Set(ctx.Request.Context(), "stats:users", data)

	ctx.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

// monthlyDonations groups the last six months in Go rather than SQL so the
// projection is not tied to one dialect's date functions.
func (h *StatsHandler) monthlyDonations() ([]monthStat, error) {
	since := time.Now().AddDate(0, -6, 0)

	var rows []struct {
		Amount    int64
		CreatedAt time.Time
	}

	err := h.DB.Model(&models.Donation{}).
		Select("amount, created_at").
		Where("status = ? AND created_at >= ?", types.DonationStatusCompleted, since).
		Find(&rows).Error

	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*monthStat)

	for _, row := range rows {
		key := row.CreatedAt.Format("2006-01")
		bucket, ok := buckets[key]
		if !ok {
			bucket = &monthStat{Month: key}
			buckets[key] = bucket
		}
		bucket.Count++
		bucket.TotalAmount += row.Amount
	}

	monthly := make([]monthStat, 0, len(buckets))
	for _, bucket := range buckets {
		monthly = append(monthly, *bucket)
	}

	sort.Slice(monthly, func(i, j int) bool { return monthly[i].Month < monthly[j].Month })

	return monthly, nil
}

func (h *StatsHandler) requestBuckets(column string) ([]bucketStat, error) {
	var buckets []bucketStat

	err := h.DB.Model(&models.HelpRequest{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Scan(&buckets).Error

	return buckets, err
}

func (h *StatsHandler) fail(ctx *gin.Context, op string, err error) {
	logrus.Errorf("Stats query failed (%s): %v", op, err)
	ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to compute statistics"})
}
