package domain

import "time"

// Competition Model
type Competition struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                // Primary key
	Name        string    `gorm:"size:255;not null" json:"name"`       // Competition name
	Date        string    `gorm:"size:64" json:"date"`                 // Event date as entered by the organiser
	Location    string    `gorm:"size:255" json:"location"`            // Venue or "Online"
	MaxPlayer   int       `gorm:"not null;default:0" json:"maxPlayer"` // Capacity of approved players, 0 = unbounded
	Prize       string    `gorm:"size:255" json:"prize"`               // Prize pool description
	Description string    `json:"description"`                         // Long description
	Rules       string    `json:"rules"`                               // Rule set
	Image       string    `gorm:"size:512" json:"image"`               // Banner image URL
	CreatedAt   time.Time `json:"createdAt"`                           // Creation timestamp
	UpdatedAt   time.Time `json:"updatedAt"`                           // Last update timestamp
}
