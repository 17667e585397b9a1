package middleware

import (
	"net/http" // HTTP status codes

	"tournament_system/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AdminOnlyMiddleware checks the user's role from the database on each request,
// so a demotion takes effect before the token expires
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(UserIDKey) // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "code": domain.ErrUnauthenticated.Code})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// A deleted account behaves like an invalid token
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Account no longer exists", "code": domain.ErrUnauthenticated.Code})
			return
		}
		// Check if user role is admin
		if !user.IsAdmin() {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required", "code": domain.ErrForbidden.Code})
			return
		}
		c.Set(RoleKey, user.Role) // Refresh role from the database
		// If admin, proceed to the next handler
		c.Next()
	}
}
