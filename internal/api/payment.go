package api

import (
	"context"       // Context for Redis operations
	"net/http"      // HTTP status codes
	"os"            // Removing orphaned slips
	"path/filepath" // Slip paths
	"strconv"       // Form value parsing
	"strings"       // String manipulation
	"time"          // Log timestamps

	"tournament_system/internal/domain" // Importing domain models
	"tournament_system/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// VerifyRequest represents an admin verdict on a payment
type VerifyRequest struct {
	Status    domain.PaymentStatus `json:"status" binding:"required"` // VERIFIED or REJECTED
	AdminNote string               `json:"adminNote"`                 // Optional reason
}

// SubmitPaymentHandler accepts a slip for a pending registration.
// Multipart fields: registrationId, amount, method, slipImage (file).
func SubmitPaymentHandler(db *gorm.DB, rdb *redis.Client, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		regID, err := strconv.ParseUint(c.PostForm("registrationId"), 10, 32)
		if err != nil || regID == 0 {
			respondInvalid(c, "registrationId is required")
			return
		}
		reg, ok := loadOwnedRegistration(c, db, uint(regID))
		if !ok {
			return
		}
		// State first, so a settled registration reports InvalidState whatever was attached
		if _, err := domain.Transition(reg.Status, domain.ActionSubmitPayment); err != nil {
			respondError(c, err)
			return
		}
		fh, err := c.FormFile("slipImage")
		if err != nil {
			respondError(c, domain.ErrMissingSlip)
			return
		}
		amount, err := strconv.ParseFloat(c.PostForm("amount"), 64)
		if err != nil || amount <= 0 {
			respondInvalid(c, "amount must be a positive number")
			return
		}
		method := strings.TrimSpace(c.PostForm("method"))
		if method == "" {
			method = domain.DefaultPaymentMethod
		}
		name, err := utils.StoreImage(fh, uploadDir) // Persist the slip before touching the DB
		if err != nil {
			respondError(c, err)
			return
		}
		payment := domain.Payment{
			RegistrationID: reg.ID,                // Registration being paid
			Amount:         amount,                // Amount transferred
			Method:         method,                // Transfer method
			SlipImage:      "/uploads/" + name,    // Public slip path
			Status:         domain.PaymentPending, // Awaiting review
		}
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(forUpdate).First(&reg, reg.ID).Error; err != nil {
				return err
			}
			next, err := domain.Transition(reg.Status, domain.ActionSubmitPayment) // Re-check under lock
			if err != nil {
				return err
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}
			if err := tx.Model(&reg).Update("status", next).Error; err != nil {
				return err
			}
			reg.Status = next
			return nil
		})
		if err != nil {
			_ = os.Remove(filepath.Join(uploadDir, name)) // Drop the orphaned slip
			logrus.WithFields(logrus.Fields{
				"registration_id": reg.ID,      // Registration
				"error":           err.Error(), // Error message
			}).Error("Payment submission failed")
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"registration_id": reg.ID,                          // Registration
			"payment_id":      payment.ID,                      // New payment
			"amount":          payment.Amount,                  // Amount
			"method":          payment.Method,                  // Method
			"timestamp":       time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Payment submitted")
		_ = utils.InvalidateRegistrations(context.Background(), rdb, reg.CompetitionID) // Invalidate cached views
		payment.Registration = &reg
		respondData(c, http.StatusCreated, payment)
	}
}

// PendingPaymentsHandler lists slips awaiting review, oldest first (admin only)
func PendingPaymentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments := []domain.Payment{}
		if err := db.Preload("Registration.User").Preload("Registration.Competition").
			Where("status = ?", domain.PaymentPending).
			Order("created_at asc").
			Find(&payments).Error; err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, payments)
	}
}

// GetPaymentHandler returns a payment to the registration owner or an admin
func GetPaymentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var payment domain.Payment
		if err := db.Preload("Registration").First(&payment, id).Error; err != nil {
			respondError(c, err)
			return
		}
		userID, _ := currentUserID(c)
		if payment.Registration == nil || (payment.Registration.UserID != userID && currentRole(c) != domain.RoleAdmin) {
			respondError(c, domain.ErrForbidden)
			return
		}
		respondData(c, http.StatusOK, payment)
	}
}

// VerifyPaymentHandler settles a pending payment and drives its registration
// to approved (VERIFIED) or rejected (REJECTED) (admin only)
func VerifyPaymentHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, "status is required")
			return
		}
		action, err := req.Status.VerdictAction()
		if err != nil {
			respondInvalid(c, "status must be VERIFIED or REJECTED")
			return
		}
		var payment domain.Payment
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&payment, id).Error; err != nil {
				return err
			}
			if payment.Status != domain.PaymentPending {
				return domain.ErrInvalidState // Already reviewed
			}
			reg, err := applyVerdict(tx, payment.RegistrationID, action, req.AdminNote)
			if err != nil {
				return err
			}
			if err := tx.Clauses(forUpdate).First(&payment, id).Error; err != nil {
				return err
			}
			if payment.Status != domain.PaymentPending {
				return domain.ErrInvalidState // Already reviewed
			}
			if err := tx.Model(&payment).Updates(map[string]any{"status": req.Status, "admin_note": req.AdminNote}).Error; err != nil {
				return err
			}
			payment.Status = req.Status
			payment.AdminNote = req.AdminNote
			payment.Registration = &reg
			return nil
		})
		if err != nil {
			respondError(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		logrus.WithFields(logrus.Fields{
			"admin_id":        adminID,                         // Acting admin
			"payment_id":      payment.ID,                      // Payment
			"registration_id": payment.RegistrationID,          // Registration
			"status":          payment.Status,                  // Verdict
			"timestamp":       time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Payment reviewed")
		_ = utils.InvalidateRegistrations(context.Background(), rdb, payment.Registration.CompetitionID) // Invalidate cached views
		respondData(c, http.StatusOK, payment)
	}
}
