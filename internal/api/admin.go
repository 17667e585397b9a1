package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Time durations

	"tournament_system/internal/domain" // Importing domain models
	"tournament_system/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	domain.User
	Registrations       int64 `json:"registrations"`       // Registrations ever made
	ActiveRegistrations int64 `json:"activeRegistrations"` // Registrations still holding a slot
}

// RoleRequest changes a user's role
type RoleRequest struct {
	Role domain.Role `json:"role" binding:"required"` // Player or Admin
}

// ListUsersHandler returns all users with their registration counts
func ListUsersHandler(db *gorm.DB, rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pagination(c)
		// Create a cache key based on pagination parameters
		cacheKey := utils.AdminUsersPrefix + "page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached Page[UserAdminResponse]
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"data": cached, "cached": true})
			return
		}
		offset := (page - 1) * pageSize // Calculate offset for pagination
		var total int64                 // Total user count
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			respondError(c, err)
			return
		}
		var users []domain.User // Slice to hold users
		if err := db.Order("id asc").Offset(offset).Limit(pageSize).Find(&users).Error; err != nil {
			respondError(c, err)
			return
		}
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		// Registration counts for the whole page in one query
		var rows []struct {
			UserID uint
			Total  int64
			Active int64
		}
		if len(ids) > 0 {
			if err := db.Model(&domain.Registration{}).
				Select("user_id, COUNT(*) AS total, SUM(CASE WHEN status <> ? THEN 1 ELSE 0 END) AS active", domain.StatusCancelled).
				Where("user_id IN ?", ids).
				Group("user_id").
				Scan(&rows).Error; err != nil {
				respondError(c, err)
				return
			}
		}
		counts := make(map[uint]int, len(rows))
		for i, r := range rows {
			counts[r.UserID] = i
		}
		// Map users to response format
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = UserAdminResponse{User: u}
			if j, ok := counts[u.ID]; ok {
				resp[i].Registrations = rows[j].Total
				resp[i].ActiveRegistrations = rows[j].Active
			}
		}
		respData := newPage(resp, page, pageSize, total)
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, ttl)
		c.JSON(http.StatusOK, gin.H{"data": respData, "cached": false})
	}
}

// UserDetailResponse is a user with their registration history
type UserDetailResponse struct {
	domain.User
	History []domain.Registration `json:"history"` // Registrations, newest first
}

// GetUserHandler returns a user's profile and history (admin only)
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var user domain.User
		if err := db.First(&user, id).Error; err != nil {
			respondError(c, err)
			return
		}
		history := []domain.Registration{}
		if err := db.Preload("Competition").Where("user_id = ?", id).Order("created_at desc").Find(&history).Error; err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, UserDetailResponse{User: user, History: history})
	}
}

// SetRoleHandler promotes or demotes a user (admin only)
func SetRoleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req RoleRequest
		if err := c.ShouldBindJSON(&req); err != nil || !req.Role.Valid() {
			respondInvalid(c, "role must be Player or Admin")
			return
		}
		adminID, _ := currentUserID(c)
		if id == adminID && req.Role != domain.RoleAdmin {
			respondInvalid(c, "Admins cannot demote themselves")
			return
		}
		var user domain.User
		if err := db.First(&user, id).Error; err != nil {
			respondError(c, err)
			return
		}
		if err := db.Model(&user).Update("role", req.Role).Error; err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"admin_id":  adminID,                         // Acting admin
			"user_id":   user.ID,                         // Target user
			"role":      req.Role,                        // New role
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("User role changed")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, utils.AdminUsersPrefix) // Invalidate user listings
		respondData(c, http.StatusOK, user)
	}
}

// DeleteUserHandler removes a user with their registrations and payments (admin only)
func DeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		adminID, _ := currentUserID(c)
		if id == adminID {
			respondInvalid(c, "Admins cannot delete themselves")
			return
		}
		var competitionIDs []uint // Competitions whose cached views change
		err := db.Transaction(func(tx *gorm.DB) error {
			var user domain.User
			if err := tx.First(&user, id).Error; err != nil {
				return err
			}
			var regIDs []uint
			if err := tx.Model(&domain.Registration{}).Where("user_id = ?", id).Pluck("id", &regIDs).Error; err != nil {
				return err
			}
			if err := tx.Model(&domain.Registration{}).Where("user_id = ?", id).Distinct().Pluck("competition_id", &competitionIDs).Error; err != nil {
				return err
			}
			if len(regIDs) > 0 {
				if err := tx.Where("registration_id IN ?", regIDs).Delete(&domain.Payment{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", regIDs).Delete(&domain.Registration{}).Error; err != nil {
					return err
				}
			}
			return tx.Delete(&user).Error
		})
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"admin_id":  adminID,                         // Acting admin
			"user_id":   id,                              // Deleted user
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Warn("User deleted")
		ctx := context.Background()
		_ = utils.DeleteCachePrefix(ctx, rdb, utils.AdminUsersPrefix) // Invalidate user listings
		for _, compID := range competitionIDs {
			_ = utils.InvalidateCompetition(ctx, rdb, compID) // Invalidate affected competitions
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}

// ListRegistrationsHandler returns all registrations, with optional filtering
// by status, competition or user (admin only)
func ListRegistrationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pagination(c)
		offset := (page - 1) * pageSize           // Calculate offset for pagination
		query := db.Model(&domain.Registration{}) // Start building the query
		if s := c.Query("status"); s != "" && s != "all" {
			status, err := domain.ParseStatus(s)
			if err != nil {
				respondInvalid(c, "Unknown status "+s)
				return
			}
			query = query.Where("status = ?", status) // Filter by status
		}
		if compID := c.Query("competition_id"); compID != "" {
			query = query.Where("competition_id = ?", compID) // Filter by competition
		}
		if userID := c.Query("user_id"); userID != "" {
			query = query.Where("user_id = ?", userID) // Filter by user
		}
		query = query.Session(&gorm.Session{}) // Reusable for count and page
		var total int64                        // Total registration count
		if err := query.Count(&total).Error; err != nil {
			respondError(c, err)
			return
		}
		var regs []domain.Registration
		if err := query.Preload("User").Preload("Competition").
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&regs).Error; err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, newPage(regs, page, pageSize, total))
	}
}
