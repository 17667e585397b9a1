package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"regexp"   // Regular expressions
	"strings"  // String manipulation
	"time"     // Log timestamps

	"tournament_system/internal/domain" // Importing domain models
	"tournament_system/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// Request and Response structs
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`       // Username must be provided
	Email    string `json:"email" binding:"required,email"`    // Valid email must be provided
	Password string `json:"password" binding:"required,min=6"` // Password of at least 6 characters
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email or username
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string      `json:"token"` // JWT token
	User  domain.User `json:"user"`  // Authenticated user
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// isValidUsername checks the username is 3-32 letters, digits or underscores
func isValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// RegisterHandler creates a Player account and signs it in
func RegisterHandler(db *gorm.DB, rdb *redis.Client, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			respondInvalid(c, "Username, valid email and a password of at least 6 characters are required")
			return
		}
		// Validate username
		if !isValidUsername(req.Username) {
			respondInvalid(c, "Username must be 3-32 letters, digits or underscores")
			return
		}
		// Hash the password and create the user
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, err)
			return
		}
		user := domain.User{
			Username: req.Username,                                  // Username as entered
			Email:    strings.ToLower(strings.TrimSpace(req.Email)), // Emails compare case-insensitively
			Password: string(hash),                                  // Hashed password
			Role:     domain.RolePlayer,                             // Self-registration is always a Player
		}
		// Reject duplicates before insert so the error is specific
		var count int64
		if err := db.Model(&domain.User{}).Where("username = ? OR email = ?", user.Username, user.Email).Count(&count).Error; err != nil {
			respondError(c, err)
			return
		}
		if count > 0 {
			c.AbortWithStatusJSON(http.StatusConflict, ErrorResponse{Message: "Username or email already exists", Code: domain.ErrConflict.Code})
			return
		}
		if err := db.Create(&user).Error; err != nil {
			respondError(c, err)
			return
		}
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret) // Sign in straight away
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":   user.ID,                         // New user ID
			"username":  user.Username,                   // Username
			"timestamp": time.Now().Format(time.RFC3339), // Current timestamp
		}).Info("User registered")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, utils.AdminUsersPrefix) // Invalidate user listings
		respondData(c, http.StatusCreated, AuthResponse{Token: token, User: user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			respondInvalid(c, "Email and password are required")
			return
		}
		login := strings.TrimSpace(req.Email)
		var user domain.User // Fetch user by email or username
		err := db.Where("email = ? OR username = ?", strings.ToLower(login), login).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials", Code: domain.ErrUnauthenticated.Code})
			return
		} else if err != nil {
			respondError(c, err)
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials", Code: domain.ErrUnauthenticated.Code})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Role, jwtSecret)
		if err != nil {
			respondError(c, err)
			return
		}
		// Return the token and the user in the response
		respondData(c, http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// MeHandler returns the authenticated user's profile
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, user)
	}
}

// ProfileRequest carries editable profile fields, sent as multipart form
// (with an optional "image" file) or JSON
type ProfileRequest struct {
	Name       *string `form:"name" json:"name" binding:"omitempty,max=255"`             // Display name
	Phone      *string `form:"phone" json:"phone" binding:"omitempty,max=10,numeric"`    // Up to 10 digits
	Bio        *string `form:"bio" json:"bio"`                                           // Short profile text
	Location   *string `form:"location" json:"location" binding:"omitempty,max=255"`     // Home region
	SocialLink *string `form:"socialLink" json:"socialLink" binding:"omitempty,max=255"` // Social profile link
	Password   *string `form:"password" json:"password" binding:"omitempty,min=6"`       // New password
}

// UpdateProfileHandler lets a user edit their own profile and avatar
func UpdateProfileHandler(db *gorm.DB, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			respondError(c, domain.ErrUnauthenticated)
			return
		}
		var req ProfileRequest
		if err := c.ShouldBind(&req); err != nil {
			respondInvalid(c, "Invalid profile: "+err.Error())
			return
		}
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			respondError(c, err)
			return
		}
		updates := map[string]any{} // Only touch provided fields
		setIf := func(col string, v *string) {
			if v != nil {
				updates[col] = strings.TrimSpace(*v)
			}
		}
		setIf("name", req.Name)
		setIf("phone", req.Phone)
		setIf("bio", req.Bio)
		setIf("location", req.Location)
		setIf("social_link", req.SocialLink)
		if req.Password != nil && *req.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				respondError(c, err)
				return
			}
			updates["password"] = string(hash)
		}
		// Optional avatar upload
		if fh, err := c.FormFile("image"); err == nil {
			name, err := utils.StoreImage(fh, uploadDir)
			if err != nil {
				respondError(c, err)
				return
			}
			updates["image"] = "/uploads/" + name
		}
		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				respondError(c, err)
				return
			}
		}
		if err := db.First(&user, userID).Error; err != nil { // Reload the stored profile
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, user)
	}
}
