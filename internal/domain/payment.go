package domain

import "time"

// PaymentStatus is the verification state of a submitted slip
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"  // Awaiting admin review
	PaymentVerified PaymentStatus = "VERIFIED" // Admin confirmed the transfer
	PaymentRejected PaymentStatus = "REJECTED" // Admin refused the slip
)

// DefaultPaymentMethod is used when a submission does not name one
const DefaultPaymentMethod = "promptpay"

// Payment Model
type Payment struct {
	ID             uint          `gorm:"primaryKey" json:"id"`                                       // Primary key
	RegistrationID uint          `gorm:"not null;index" json:"registrationId"`                       // Foreign key to Registration
	Registration   *Registration `gorm:"constraint:OnDelete:CASCADE;" json:"registration,omitempty"` // Owning registration
	Amount         float64       `gorm:"not null" json:"amount"`                                     // Amount transferred
	Method         string        `gorm:"size:32;not null" json:"method"`                             // Transfer method
	SlipImage      string        `gorm:"size:512;not null" json:"slipImage"`                         // Stored slip path
	Status         PaymentStatus `gorm:"size:16;not null;default:PENDING;index" json:"status"`       // Verification state
	AdminNote      string        `json:"adminNote,omitempty"`                                        // Reviewer note
	CreatedAt      time.Time     `json:"createdAt"`                                                  // Submission timestamp
	UpdatedAt      time.Time     `json:"updatedAt"`                                                  // Last review timestamp
}

// VerdictAction maps a review verdict onto the registration action it drives
func (s PaymentStatus) VerdictAction() (Action, error) {
	switch s {
	case PaymentVerified:
		return ActionApprove, nil
	case PaymentRejected:
		return ActionReject, nil
	}
	return "", ErrValidation
}
