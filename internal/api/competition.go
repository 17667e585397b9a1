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

// CompetitionRequest is the editable part of a competition
type CompetitionRequest struct {
	Name        string `json:"name" binding:"required"`           // Competition name
	Date        string `json:"date"`                              // Event date
	Location    string `json:"location"`                          // Venue
	MaxPlayer   int    `json:"maxPlayer" binding:"gte=0"`         // Capacity, 0 = unbounded
	Prize       string `json:"prize"`                             // Prize pool
	Description string `json:"description"`                       // Long description
	Rules       string `json:"rules"`                             // Rule set
	Image       string `json:"image" binding:"omitempty,max=512"` // Banner image URL
}

// apply copies the request onto a competition
func (r CompetitionRequest) apply(comp *domain.Competition) {
	comp.Name = r.Name
	comp.Date = r.Date
	comp.Location = r.Location
	comp.MaxPlayer = r.MaxPlayer
	comp.Prize = r.Prize
	comp.Description = r.Description
	comp.Rules = r.Rules
	comp.Image = r.Image
}

// CompetitionResponse is a competition with its derived capacity figures
type CompetitionResponse struct {
	domain.Competition
	ApprovedCount int  `json:"approvedCount"` // Approved registrations
	IsFull        bool `json:"isFull"`        // Capacity reached
}

// newCompetitionResponse derives the capacity figures from regs
func newCompetitionResponse(comp domain.Competition, regs []domain.Registration) CompetitionResponse {
	return CompetitionResponse{
		Competition:   comp,
		ApprovedCount: domain.ApprovedCount(regs),
		IsFull:        domain.IsFull(comp, regs),
	}
}

// ListCompetitionsHandler returns every competition with capacity figures
func ListCompetitionsHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached []CompetitionResponse
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, utils.CompetitionListKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
			return
		}
		var comps []domain.Competition
		if err := db.Order("id desc").Find(&comps).Error; err != nil {
			respondError(c, err)
			return
		}
		// Approved counts for all competitions in one query
		var rows []struct {
			CompetitionID uint
			Approved      int
		}
		if err := db.Model(&domain.Registration{}).
			Select("competition_id, COUNT(*) AS approved").
			Where("status = ?", domain.StatusApproved).
			Group("competition_id").
			Scan(&rows).Error; err != nil {
			respondError(c, err)
			return
		}
		approved := make(map[uint]int, len(rows))
		for _, r := range rows {
			approved[r.CompetitionID] = r.Approved
		}
		resp := make([]CompetitionResponse, len(comps))
		for i, comp := range comps {
			n := approved[comp.ID]
			resp[i] = CompetitionResponse{
				Competition:   comp,
				ApprovedCount: n,
				IsFull:        comp.MaxPlayer > 0 && n >= comp.MaxPlayer,
			}
		}
		_ = utils.SetCache(ctx, rdb, utils.CompetitionListKey, resp, ttl) // Cache for future requests
		c.JSON(http.StatusOK, gin.H{"data": resp, "cached": false})
	}
}

// GetCompetitionHandler returns one competition with capacity figures
func GetCompetitionHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ctx := c.Request.Context()
		cacheKey := utils.CompetitionKey(id) // Cache key for this competition
		var cached CompetitionResponse
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
			return
		}
		var comp domain.Competition
		if err := db.First(&comp, id).Error; err != nil {
			respondError(c, err)
			return
		}
		var regs []domain.Registration
		if err := db.Where("competition_id = ?", id).Find(&regs).Error; err != nil {
			respondError(c, err)
			return
		}
		resp := newCompetitionResponse(comp, regs)
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, ttl) // Cache the competition
		c.JSON(http.StatusOK, gin.H{"data": resp, "cached": false})
	}
}

// CreateCompetitionHandler creates a competition (admin only)
func CreateCompetitionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CompetitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, "Name is required and maxPlayer must not be negative")
			return
		}
		var comp domain.Competition
		req.apply(&comp)
		if err := db.Create(&comp).Error; err != nil {
			respondError(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		logrus.WithFields(logrus.Fields{
			"admin_id":       adminID,                         // Acting admin
			"competition_id": comp.ID,                         // New competition
			"max_player":     comp.MaxPlayer,                  // Capacity
			"timestamp":      time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("Competition created")
		_ = utils.DeleteCache(context.Background(), rdb, utils.CompetitionListKey) // Invalidate listing
		respondData(c, http.StatusCreated, newCompetitionResponse(comp, nil))
	}
}

// UpdateCompetitionHandler replaces a competition's editable fields (admin only)
func UpdateCompetitionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req CompetitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, "Name is required and maxPlayer must not be negative")
			return
		}
		var comp domain.Competition
		if err := db.First(&comp, id).Error; err != nil {
			respondError(c, err)
			return
		}
		req.apply(&comp)
		if err := db.Save(&comp).Error; err != nil {
			respondError(c, err)
			return
		}
		var regs []domain.Registration
		if err := db.Where("competition_id = ?", id).Find(&regs).Error; err != nil {
			respondError(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		logrus.WithFields(logrus.Fields{
			"admin_id":       adminID, // Acting admin
			"competition_id": comp.ID, // Updated competition
		}).Info("Competition updated")
		_ = utils.InvalidateCompetition(context.Background(), rdb, id) // Invalidate cached views
		respondData(c, http.StatusOK, newCompetitionResponse(comp, regs))
	}
}

// DeleteCompetitionHandler removes a competition with its registrations and payments (admin only)
func DeleteCompetitionHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			var comp domain.Competition
			if err := tx.First(&comp, id).Error; err != nil {
				return err // Not found rolls back
			}
			var regIDs []uint
			if err := tx.Model(&domain.Registration{}).Where("competition_id = ?", id).Pluck("id", &regIDs).Error; err != nil {
				return err
			}
			if len(regIDs) > 0 {
				if err := tx.Where("registration_id IN ?", regIDs).Delete(&domain.Payment{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("competition_id = ?", id).Delete(&domain.Registration{}).Error; err != nil {
				return err
			}
			return tx.Delete(&comp).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}
		adminID, _ := currentUserID(c)
		logrus.WithFields(logrus.Fields{
			"admin_id":       adminID,                         // Acting admin
			"competition_id": id,                              // Deleted competition
			"timestamp":      time.Now().Format(time.RFC3339), // Current timestamp
		}).Warn("Competition deleted")
		_ = utils.InvalidateCompetition(context.Background(), rdb, id) // Invalidate cached views
		c.JSON(http.StatusOK, gin.H{"message": "Competition deleted"})
	}
}
