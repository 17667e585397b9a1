package domain

import "time"

// Status of a registration. StatusNone is never stored; it stands for
// "no active registration" when evaluating transitions.
type Status string

const (
	StatusNone      Status = ""
	StatusPending   Status = "pending"   // Joined, payment not yet submitted
	StatusWaiting   Status = "waiting"   // Slip submitted, waiting for review
	StatusApproved  Status = "approved"  // Confirmed entry
	StatusRejected  Status = "rejected"  // Refused by an admin
	StatusCancelled Status = "cancelled" // Withdrawn by the player, kept for audit
)

// ParseStatus validates a stored or user supplied status
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusWaiting, StatusApproved, StatusRejected, StatusCancelled:
		return st, nil
	}
	return StatusNone, ErrValidation
}

// Active reports whether a registration in this status still holds its slot
func (s Status) Active() bool {
	return s != StatusNone && s != StatusCancelled
}

// Action is a request to move a registration along the lifecycle
type Action string

const (
	ActionJoin          Action = "join"
	ActionSubmitPayment Action = "submit_payment"
	ActionCancel        Action = "cancel"
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
)

// AdminAction maps an admin target status onto its action
func AdminAction(target Status) (Action, error) {
	switch target {
	case StatusApproved:
		return ActionApprove, nil
	case StatusRejected:
		return ActionReject, nil
	}
	return "", ErrValidation
}

// Transition applies action to a registration in state from.
//
//	none    --join-----------> pending
//	pending --submit_payment-> waiting
//	pending --cancel---------> cancelled
//	waiting --cancel---------> cancelled
//	pending --approve/reject-> approved / rejected
//	waiting --approve/reject-> approved / rejected
//
// Re-applying an admin verdict a registration already holds returns the
// same status. Everything else is ErrInvalidState, except joining while an
// active registration exists, which is ErrAlreadyRegistered.
func Transition(from Status, action Action) (Status, error) {
	switch action {
	case ActionJoin:
		if from.Active() {
			return from, ErrAlreadyRegistered
		}
		return StatusPending, nil
	case ActionSubmitPayment:
		if from == StatusPending {
			return StatusWaiting, nil
		}
	case ActionCancel:
		if from == StatusPending || from == StatusWaiting {
			return StatusCancelled, nil
		}
	case ActionApprove:
		switch from {
		case StatusPending, StatusWaiting, StatusApproved:
			return StatusApproved, nil
		}
	case ActionReject:
		switch from {
		case StatusPending, StatusWaiting, StatusRejected:
			return StatusRejected, nil
		}
	default:
		return from, ErrValidation
	}
	return from, ErrInvalidState
}

// AllowedActions lists the actions the lifecycle permits for a viewer with
// role on a registration in status s
func AllowedActions(s Status, role Role) []Action {
	candidates := []Action{ActionJoin, ActionSubmitPayment, ActionCancel}
	if role == RoleAdmin {
		candidates = append(candidates, ActionApprove, ActionReject)
	}
	var allowed []Action
	for _, a := range candidates {
		next, err := Transition(s, a)
		if err != nil || (next == s && s != StatusNone) {
			continue // illegal or a no-op
		}
		allowed = append(allowed, a)
	}
	return allowed
}

// Registration Model
type Registration struct {
	ID            uint         `gorm:"primaryKey" json:"id"`                                      // Primary key
	UserID        uint         `gorm:"not null;index:idx_reg_user_comp" json:"userId"`            // Foreign key to User
	CompetitionID uint         `gorm:"not null;index:idx_reg_user_comp" json:"competitionId"`     // Foreign key to Competition
	Status        Status       `gorm:"size:16;not null;default:pending;index" json:"status"`      // Lifecycle state
	Note          string       `json:"note,omitempty"`                                            // Admin note attached to the last verdict
	User          *User        `gorm:"constraint:OnDelete:CASCADE;" json:"user,omitempty"`        // Registered player
	Competition   *Competition `gorm:"constraint:OnDelete:CASCADE;" json:"competition,omitempty"` // Target competition
	Payments      []Payment    `gorm:"foreignKey:RegistrationID" json:"payments,omitempty"`       // Submitted slips
	CreatedAt     time.Time    `json:"createdAt"`                                                 // Join timestamp
	UpdatedAt     time.Time    `json:"updatedAt"`                                                 // Last transition timestamp
}
