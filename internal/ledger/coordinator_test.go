package ledger

import (
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/helping-hands-dev/helping-hands/db"
	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/txid"
	"github.com/helping-hands-dev/helping-hands/internal/types"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every goroutine on the same in-memory database.
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))

	return database
}

func newDonation(amount int64, requestID, userID *uint) *models.Donation {
	return &models.Donation{
		UserID:        userID,
		RequestID:     requestID,
		Amount:        amount,
		Cause:         "medical",
		PaymentMethod: "card",
		TransactionID: txid.New(),
		Status:        types.DonationStatusCompleted,
		DonorName:     "Donor",
		DonorEmail:    "donor@example.com",
	}
}

func TestRecordUpdatesRequestAndUser(t *testing.T) {
	database := setupDB(t)
	coordinator := NewCoordinator(database)

	user := models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, database.Create(&user).Error)

	request := models.HelpRequest{
		Title: "Surgery", Category: "medical", Description: "help",
		AmountNeeded: 5000, Status: types.RequestStatusApproved,
		VerificationStatus: types.VerificationVerified,
		RequesterName:      "Alice", RequesterEmail: "alice@example.com", RequesterPhone: "0123456789",
	}
	require.NoError(t, database.Create(&request).Error)

	require.NoError(t, coordinator.Record(newDonation(1000, &request.ID, &user.ID)))

	var got models.HelpRequest
	require.NoError(t, database.First(&got, request.ID).Error)
	assert.Equal(t, int64(1000), got.AmountRaised)
	assert.Equal(t, int64(1), got.DonorsCount)
	assert.Equal(t, types.RequestStatusActive, got.Status)

	var gotUser models.User
	require.NoError(t, database.First(&gotUser, user.ID).Error)
	assert.Equal(t, int64(1), gotUser.TotalDonations)
	assert.Equal(t, int64(1000), gotUser.TotalDonated)
}

func TestRecordLeavesTerminalStatusAlone(t *testing.T) {
	database := setupDB(t)
	coordinator := NewCoordinator(database)

	request := models.HelpRequest{
		Title: "Books", Category: "education", Description: "help",
		AmountNeeded: 2000, Status: types.RequestStatusCompleted,
		RequesterName: "Bob", RequesterEmail: "bob@example.com", RequesterPhone: "0123456789",
	}
	require.NoError(t, database.Create(&request).Error)

	// Over-target donations are still accepted; no cap is enforced.
	require.NoError(t, coordinator.Record(newDonation(500, &request.ID, nil)))

	var got models.HelpRequest
	require.NoError(t, database.First(&got, request.ID).Error)
	assert.Equal(t, types.RequestStatusCompleted, got.Status)
	assert.Equal(t, int64(500), got.AmountRaised)
}

func TestRecordWithoutLinks(t *testing.T) {
	database := setupDB(t)
	coordinator := NewCoordinator(database)

	require.NoError(t, coordinator.Record(newDonation(250, nil, nil)))

	var count int64
	require.NoError(t, database.Model(&models.Donation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentDonationsDoNotLoseIncrements(t *testing.T) {
	database := setupDB(t)
	coordinator := NewCoordinator(database)

	user := models.User{Name: "Carol", Email: "carol@example.com", PasswordHash: "x", Role: models.RoleMember}
	require.NoError(t, database.Create(&user).Error)

	request := models.HelpRequest{
		Title: "Shelter", Category: "shelter", Description: "help",
		AmountNeeded: 100000, Status: types.RequestStatusApproved,
		RequesterName: "Carol", RequesterEmail: "carol@example.com", RequesterPhone: "0123456789",
	}
	require.NoError(t, database.Create(&request).Error)

	const (
		workers      = 25
		perWorker    = 4
		amount int64 = 50
	)

	var wg sync.WaitGroup
	errs := make(chan error, workers*perWorker)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				errs <- coordinator.Record(newDonation(amount, &request.ID, &user.ID))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	total := int64(workers * perWorker)

	var got models.HelpRequest
	require.NoError(t, database.First(&got, request.ID).Error)
	assert.Equal(t, amount*total, got.AmountRaised, "lost increments on amount_raised")
	assert.Equal(t, total, got.DonorsCount, "lost increments on donors_count")

	var gotUser models.User
	require.NoError(t, database.First(&gotUser, user.ID).Error)
	assert.Equal(t, total, gotUser.TotalDonations)
	assert.Equal(t, amount*total, gotUser.TotalDonated)

	var donations int64
	require.NoError(t, database.Model(&models.Donation{}).
		Where("request_id = ?", request.ID).Count(&donations).Error)
	assert.Equal(t, total, donations)
}
