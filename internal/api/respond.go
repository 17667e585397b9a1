package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"tournament_system/internal/domain"     // Domain errors
	"tournament_system/internal/middleware" // Context keys

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Message string `json:"message"` // Human readable message
	Code    string `json:"code"`    // Stable machine code
}

// statusFor maps a domain error class onto an HTTP status
func statusFor(e *domain.Error) int {
	switch e.Class() {
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err in the common error shape
func respondError(c *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = domain.ErrNotFound // Stale ID
	}
	de := domain.AsError(err)
	if de == nil {
		// Unexpected failure, log the cause and hide it from the client
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method, // HTTP method
			"path":   c.FullPath(),     // Route pattern
			"error":  err.Error(),      // Error message
		}).Error("Request failed")
		de = domain.ErrServer
	}
	c.AbortWithStatusJSON(statusFor(de), ErrorResponse{Message: de.Message, Code: de.Code})
}

// respondInvalid writes a validation error with a custom message
func respondInvalid(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: message, Code: domain.ErrValidation.Code})
}

// respondData wraps payload in the {"data": ...} envelope
func respondData(c *gin.Context, status int, payload any) {
	c.JSON(status, gin.H{"data": payload})
}

// currentUserID returns the authenticated user ID set by the JWT middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middleware.UserIDKey) // Get userID from context
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// currentRole returns the role of the authenticated user
func currentRole(c *gin.Context) domain.Role {
	role, _ := c.Get(middleware.RoleKey)
	r, _ := role.(domain.Role)
	return r
}

// paramID parses a numeric path parameter
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondInvalid(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pagination reads page and page_size query parameters
func pagination(c *gin.Context) (page, pageSize int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// Page is a paginated listing
type Page[T any] struct {
	Items      []T   `json:"items"`       // Current page of items
	Page       int   `json:"page"`        // Current page
	PageSize   int   `json:"page_size"`   // Page size
	Total      int64 `json:"total"`       // Total number of items
	TotalPages int   `json:"total_pages"` // Total pages
}

// newPage builds a Page, computing the page count
func newPage[T any](items []T, page, pageSize int, total int64) Page[T] {
	if items == nil {
		items = []T{} // Render an empty list, not null
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: (int(total) + pageSize - 1) / pageSize,
	}
}
