package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Log timestamps and TTLs

	"tournament_system/internal/domain" // Importing domain models
	"tournament_system/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// JoinRequest represents a registration request
type JoinRequest struct {
	CompetitionID uint `json:"competitionId" binding:"required"` // Target competition
	UserID        uint `json:"userId"`                           // Optional, must be the caller
}

// StatusRequest represents an admin verdict on a registration
type StatusRequest struct {
	Status string `json:"status" binding:"required"` // approved or rejected
	Note   string `json:"note"`                      // Optional reason
}

// JoinHandler registers the caller for a competition given in the body or,
// on the short route, in the path
func JoinHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		var req JoinRequest // Bind JSON request to struct
		if c.Param("id") != "" {
			// Competition taken from the path, no body needed
			if req.CompetitionID, ok = paramID(c, "id"); !ok {
				return
			}
		} else if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, "competitionId is required")
			return
		}
		// Players register themselves only
		if req.UserID != 0 && req.UserID != userID {
			respondError(c, domain.ErrForbidden)
			return
		}
		var reg domain.Registration
		// Lock the competition so capacity and uniqueness are checked atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			reg, err = joinCompetition(tx, userID, req.CompetitionID)
			return err
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":        userID,            // Player
				"competition_id": req.CompetitionID, // Competition
				"error":          err.Error(),       // Error message
			}).Warn("Join refused")
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":         userID,                          // Player
			"competition_id":  reg.CompetitionID,               // Competition
			"registration_id": reg.ID,                          // New registration
			"timestamp":       time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Registration created")
		_ = utils.InvalidateRegistrations(context.Background(), rdb, reg.CompetitionID) // Invalidate cached views
		respondData(c, http.StatusCreated, reg)
	}
}

// loadOwnedRegistration fetches a registration the caller owns, or any
// registration for an admin
func loadOwnedRegistration(c *gin.Context, db *gorm.DB, id uint) (domain.Registration, bool) {
	var reg domain.Registration
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, domain.ErrUnauthenticated)
		return reg, false
	}
	if err := db.First(&reg, id).Error; err != nil {
		respondError(c, err)
		return reg, false
	}
	if reg.UserID != userID && currentRole(c) != domain.RoleAdmin {
		respondError(c, domain.ErrForbidden)
		return reg, false
	}
	return reg, true
}

// CancelHandler withdraws a pending or waiting registration. The record is
// kept with status cancelled.
func CancelHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		reg, ok := loadOwnedRegistration(c, db, id)
		if !ok {
			return
		}
		if err := db.Transaction(func(tx *gorm.DB) error { return cancelRegistration(tx, &reg) }); err != nil {
			respondError(c, err)
			return
		}
		actorID, _ := currentUserID(c)
		logrus.WithFields(logrus.Fields{
			"actor_id":        actorID,                         // Player or admin
			"registration_id": reg.ID,                          // Cancelled registration
			"competition_id":  reg.CompetitionID,               // Competition
			"timestamp":       time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Registration cancelled")
		_ = utils.InvalidateRegistrations(context.Background(), rdb, reg.CompetitionID) // Invalidate cached views
		respondData(c, http.StatusOK, reg)
	}
}

// SetStatusHandler approves or rejects a registration (admin only)
func SetStatusHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req StatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, "status is required")
			return
		}
		action, err := domain.AdminAction(domain.Status(req.Status))
		if err != nil {
			respondInvalid(c, "status must be approved or rejected")
			return
		}
		verdict := domain.PaymentVerified // Matching verdict for any slip still under review
		if action == domain.ActionReject {
			verdict = domain.PaymentRejected
		}
		var reg domain.Registration
		err = db.Transaction(func(tx *gorm.DB) error {
			var err error
			if reg, err = applyVerdict(tx, id, action, req.Note); err != nil {
				return err
			}
			return resolvePendingPayments(tx, reg.ID, verdict, req.Note)
		})
		if err != nil {
			respondError(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		logrus.WithFields(logrus.Fields{
			"admin_id":        adminID,                         // Acting admin
			"registration_id": reg.ID,                          // Registration
			"status":          reg.Status,                      // New status
			"note":            req.Note,                        // Optional reason
			"timestamp":       time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Registration status set")
		_ = utils.InvalidateRegistrations(context.Background(), rdb, reg.CompetitionID) // Invalidate cached views
		respondData(c, http.StatusOK, reg)
	}
}

// GetRegistrationHandler returns one registration to its owner or an admin
func GetRegistrationHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		reg, ok := loadOwnedRegistration(c, db, id)
		if !ok {
			return
		}
		respondData(c, http.StatusOK, reg)
	}
}

// CompetitionRegistrationsHandler lists every registration of a competition,
// cancelled ones included, with the registered players
func CompetitionRegistrationsHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.CompetitionRegistrationsKey(id) // Cache key for this competition
		var cached []domain.Registration
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
			return
		}
		var comp domain.Competition
		if err := db.First(&comp, id).Error; err != nil {
			respondError(c, err)
			return
		}
		regs := []domain.Registration{}
		if err := db.Preload("User").Where("competition_id = ?", id).Order("created_at asc").Find(&regs).Error; err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, regs, ttl) // Cache the listing
		c.JSON(http.StatusOK, gin.H{"data": regs, "cached": false})
	}
}

// HistoryHandler lists a player's registrations with their competitions and payments
func HistoryHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, ok := paramID(c, "id")
		if !ok {
			return
		}
		userID, _ := currentUserID(c)
		if playerID != userID && currentRole(c) != domain.RoleAdmin {
			respondError(c, domain.ErrForbidden)
			return
		}
		regs := []domain.Registration{}
		if err := db.Preload("Competition").Preload("Payments").
			Where("user_id = ?", playerID).
			Order("created_at desc").
			Find(&regs).Error; err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, regs)
	}
}
