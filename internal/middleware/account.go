package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"tournament_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AccountMiddleware loads the token's account and replaces the role claim
// with the stored role. Deleted accounts are rejected like invalid tokens.
func AccountMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "code": domain.ErrUnauthenticated.Code})
			return
		}
		var user domain.User
		err := db.Select("id", "role").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Account no longer exists", "code": domain.ErrUnauthenticated.Code})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Failed to load account", "code": domain.ErrServer.Code})
			return
		}
		c.Set(RoleKey, user.Role) // Stored role wins over the claim
		c.Next()
	}
}
