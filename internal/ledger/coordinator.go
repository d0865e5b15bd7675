// Package ledger holds the consistency coordinator: the one piece of logic
// that touches donation, request and user state together.
package ledger

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/helping-hands-dev/helping-hands/internal/models"
	"github.com/helping-hands-dev/helping-hands/internal/types"
)

// Coordinator propagates a donation's effect onto the aggregates of the
// request and user it references. Every counter change is a single SQL
// expression update, so concurrent donations against the same row never
// lose increments.
type Coordinator struct {
	db *gorm.DB
}

func NewCoordinator(database *gorm.DB) *Coordinator {
	return &Coordinator{db: database}
}

// Record persists the donation and applies the linked aggregate updates.
//
// If the insert fails, nothing else runs and the error is returned. The two
// side-updates are independent and order-free. If one of them fails after the
// donation row is durable, the donation stays recorded but orphaned from its
// aggregates; that is logged and not rolled back.
func (c *Coordinator) Record(donation *models.Donation) error {
	if err := c.db.Create(donation).Error; err != nil {
		return err
	}

	if donation.RequestID != nil {
		err := c.db.Model(&models.HelpRequest{}).
			Where("id = ?", *donation.RequestID).
			Updates(map[string]interface{}{
				"amount_raised": gorm.Expr("amount_raised + ?", donation.Amount),
				"donors_count":  gorm.Expr("donors_count + 1"),
				// First donation moves an approved request to active. The
				// completed transition stays an administrative decision.
				"status": gorm.Expr(
					"CASE WHEN status = ? THEN ? ELSE status END",
					types.RequestStatusApproved, types.RequestStatusActive,
				),
			}).Error

		if err != nil {
			logrus.Errorf("Donation %s recorded but request %d aggregates were not updated: %v",
				donation.TransactionID, *donation.RequestID, err)
		}
	}

	if donation.UserID != nil {
		err := c.db.Model(&models.User{}).
			Where("id = ?", *donation.UserID).
			Updates(map[string]interface{}{
				"total_donations": gorm.Expr("total_donations + 1"),
				"total_donated":   gorm.Expr("total_donated + ?", donation.Amount),
			}).Error

		if err != nil {
			logrus.Errorf("Donation %s recorded but user %d totals were not updated: %v",
				donation.TransactionID, *donation.UserID, err)
		}
	}

	return nil
}
