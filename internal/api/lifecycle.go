package api

import (
	"errors" // Error inspection

	"tournament_system/internal/domain" // Lifecycle rules

	"gorm.io/gorm"        // GORM ORM library
	"gorm.io/gorm/clause" // Row locking
)

// forUpdate locks the selected rows until the transaction ends
var forUpdate = clause.Locking{Strength: "UPDATE"}

// lockCompetition loads a competition and its registrations, holding the
// competition row so joins and approvals on it are serialised
func lockCompetition(tx *gorm.DB, id uint) (domain.Competition, []domain.Registration, error) {
	var comp domain.Competition
	if err := tx.Clauses(forUpdate).First(&comp, id).Error; err != nil {
		return comp, nil, err
	}
	var regs []domain.Registration
	if err := tx.Where("competition_id = ?", id).Find(&regs).Error; err != nil {
		return comp, nil, err
	}
	return comp, regs, nil
}

// joinCompetition creates a pending registration for userID
func joinCompetition(tx *gorm.DB, userID, competitionID uint) (domain.Registration, error) {
	var player domain.User
	if err := tx.Select("id").First(&player, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Registration{}, domain.ErrUnauthenticated // Account deleted after the token was issued
		}
		return domain.Registration{}, err
	}
	comp, regs, err := lockCompetition(tx, competitionID)
	if err != nil {
		return domain.Registration{}, err
	}
	next, err := domain.Transition(domain.RegistrationStatus(userID, comp.ID, regs), domain.ActionJoin)
	if err != nil {
		return domain.Registration{}, err // Already registered
	}
	if domain.IsFull(comp, regs) {
		return domain.Registration{}, domain.ErrCompetitionFull
	}
	reg := domain.Registration{UserID: userID, CompetitionID: comp.ID, Status: next}
	return reg, tx.Create(&reg).Error
}

// applyVerdict moves a registration to approved or rejected. Approving a
// registration that is not yet approved requires a free slot.
func applyVerdict(tx *gorm.DB, registrationID uint, action domain.Action, note string) (domain.Registration, error) {
	var reg domain.Registration
	if err := tx.First(&reg, registrationID).Error; err != nil {
		return reg, err
	}
	comp, regs, err := lockCompetition(tx, reg.CompetitionID) // Competition first, same order as joins
	if err != nil {
		return reg, err
	}
	if err := tx.Clauses(forUpdate).First(&reg, registrationID).Error; err != nil {
		return reg, err // Reload under lock
	}
	next, err := domain.Transition(reg.Status, action)
	if err != nil {
		return reg, err
	}
	if next == domain.StatusApproved && reg.Status != domain.StatusApproved && domain.IsFull(comp, regs) {
		return reg, domain.ErrCompetitionFull
	}
	updates := map[string]any{"status": next}
	if note != "" {
		updates["note"] = note // Notes are optional metadata
	}
	if err := tx.Model(&reg).Updates(updates).Error; err != nil {
		return reg, err
	}
	reg.Status = next
	if note != "" {
		reg.Note = note
	}
	return reg, nil
}

// resolvePendingPayments closes any slip still under review for a
// registration that reached a final status outside payment review
func resolvePendingPayments(tx *gorm.DB, registrationID uint, status domain.PaymentStatus, note string) error {
	return tx.Model(&domain.Payment{}).
		Where("registration_id = ? AND status = ?", registrationID, domain.PaymentPending).
		Updates(map[string]any{"status": status, "admin_note": note}).Error
}

// cancelRegistration withdraws a pending or waiting registration
func cancelRegistration(tx *gorm.DB, reg *domain.Registration) error {
	if err := tx.Clauses(forUpdate).First(reg, reg.ID).Error; err != nil {
		return err
	}
	next, err := domain.Transition(reg.Status, domain.ActionCancel)
	if err != nil {
		return err
	}
	if err := tx.Model(reg).Update("status", next).Error; err != nil {
		return err
	}
	reg.Status = next
	return resolvePendingPayments(tx, reg.ID, domain.PaymentRejected, "registration cancelled by player")
}
