package domain

// ApprovedCount counts approved registrations
func ApprovedCount(regs []Registration) int {
	n := 0
	for _, r := range regs {
		if r.Status == StatusApproved {
			n++
		}
	}
	return n
}

// IsFull reports whether c has no room left for another approved player.
// A MaxPlayer of zero means the competition is unbounded.
func IsFull(c Competition, regs []Registration) bool {
	return c.MaxPlayer > 0 && ApprovedCount(regs) >= c.MaxPlayer
}

// CurrentRegistration finds the active registration of userID in
// competitionID among regs
func CurrentRegistration(userID, competitionID uint, regs []Registration) (Registration, bool) {
	for _, r := range regs {
		if r.UserID == userID && r.CompetitionID == competitionID && r.Status.Active() {
			return r, true
		}
	}
	return Registration{}, false
}

// RegistrationStatus is the status of the user's current registration,
// StatusNone when there is none
func RegistrationStatus(userID, competitionID uint, regs []Registration) Status {
	r, ok := CurrentRegistration(userID, competitionID, regs)
	if !ok {
		return StatusNone
	}
	return r.Status
}

// IsApproved reports whether the user's current registration is approved
func IsApproved(userID, competitionID uint, regs []Registration) bool {
	return RegistrationStatus(userID, competitionID, regs) == StatusApproved
}
