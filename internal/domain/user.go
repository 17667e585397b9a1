package domain

import "time"

// Role of a user account
type Role string

const (
	RolePlayer Role = "Player" // Regular competitor
	RoleAdmin  Role = "Admin"  // Moderator with access to admin routes
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleAdmin
}

// User Model
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`                     // Primary key
	Username   string    `gorm:"size:64;unique;not null" json:"username"`  // Unique username
	Email      string    `gorm:"size:255;unique;not null" json:"email"`    // Unique email, used for login
	Password   string    `gorm:"not null" json:"-"`                        // Hashed password
	Role       Role      `gorm:"size:16;default:Player;index" json:"role"` // Role: Player or Admin
	Name       string    `gorm:"size:255" json:"name,omitempty"`           // Display name
	Phone      string    `gorm:"size:32" json:"phone,omitempty"`           // Contact phone
	Bio        string    `json:"bio,omitempty"`                            // Short profile text
	Location   string    `gorm:"size:255" json:"location,omitempty"`       // Home region
	SocialLink string    `gorm:"size:255" json:"socialLink,omitempty"`     // Social profile link
	Image      string    `gorm:"size:512" json:"image,omitempty"`          // Avatar path
	CreatedAt  time.Time `json:"createdAt"`                                // Creation timestamp
	UpdatedAt  time.Time `json:"updatedAt"`                                // Last update timestamp
}

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
