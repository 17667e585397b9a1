package client

import (
	"context"  // Request cancellation
	"fmt"      // Paths and busy keys
	"io"       // Slip content
	"net/http" // HTTP methods
	"strconv"  // Form values
	"sync"     // Guards cache and busy set

	"tournament_system/internal/domain" // Lifecycle rules and models
)

// CompetitionSummary is a competition as the server reports it
type CompetitionSummary struct {
	domain.Competition
	ApprovedCount int  `json:"approvedCount"` // Approved registrations, server side
	IsFull        bool `json:"isFull"`        // Capacity reached, server side
}

// View is everything the presentation needs to render one competition
type View struct {
	Competition    domain.Competition
	Registrations  []domain.Registration // Every registration, cancelled ones included
	Current        *domain.Registration  // The viewer's active registration, if any
	Status         domain.Status         // Status of Current, StatusNone without one
	ApprovedCount  int
	IsFull         bool
	AllowedActions []domain.Action
}

// Slip is a payment proof image to upload
type Slip struct {
	Filename string
	Content  io.Reader
}

// entry is one cached competition
type entry struct {
	competition   CompetitionSummary
	registrations []domain.Registration
	complete      bool // Registrations were fetched with a session
}

// Manager keeps a per-competition cache of server state and runs lifecycle
// actions after checking their preconditions locally. Every mutation
// invalidates the affected entry; nothing is patched in place.
type Manager struct {
	gw      *Gateway
	session *SessionStore

	mu       sync.Mutex
	cache    map[uint]*entry // By competition ID
	regIndex map[uint]uint   // Registration ID to competition ID
	busy     map[string]struct{}
}

// NewManager creates a manager over gw and its session
func NewManager(gw *Gateway) *Manager {
	return &Manager{
		gw:       gw,
		session:  gw.Session(),
		cache:    make(map[uint]*entry),
		regIndex: make(map[uint]uint),
		busy:     make(map[string]struct{}),
	}
}

// Invalidate drops the cached entry for a competition
func (m *Manager) Invalidate(competitionID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(competitionID)
}

// InvalidateAll empties the cache
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[uint]*entry)
	m.regIndex = make(map[uint]uint)
}

func (m *Manager) dropLocked(competitionID uint) {
	if e, ok := m.cache[competitionID]; ok {
		for _, r := range e.registrations {
			delete(m.regIndex, r.ID)
		}
		delete(m.cache, competitionID)
	}
}

// acquire marks key as in flight, failing with ErrBusy if it already is
func (m *Manager) acquire(key string) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.busy[key]; ok {
		return nil, ErrBusy
	}
	m.busy[key] = struct{}{}
	return func() {
		m.mu.Lock()
		delete(m.busy, key)
		m.mu.Unlock()
	}, nil
}

// load returns the cached entry for a competition, fetching it when missing
func (m *Manager) load(ctx context.Context, competitionID uint) (*entry, error) {
	signedIn := m.session.Current().Valid()
	m.mu.Lock()
	e, ok := m.cache[competitionID]
	m.mu.Unlock()
	if ok && (e.complete || !signedIn) {
		return e, nil
	}

	e = &entry{}
	if err := m.gw.Do(ctx, http.MethodGet, fmt.Sprintf("/competitions/%d", competitionID), nil, &e.competition); err != nil {
		return nil, err
	}
	if signedIn {
		path := fmt.Sprintf("/registrations/competition/%d", competitionID)
		if err := m.gw.Do(ctx, http.MethodGet, path, nil, &e.registrations); err != nil {
			return nil, err
		}
		e.complete = m.session.Current().Valid() // A 401 above would have signed us out
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(competitionID)
	m.cache[competitionID] = e
	for _, r := range e.registrations {
		m.regIndex[r.ID] = competitionID
	}
	return e, nil
}

// View returns the competition with the viewer's derived state
func (m *Manager) View(ctx context.Context, competitionID uint) (View, error) {
	e, err := m.load(ctx, competitionID)
	if err != nil {
		return View{}, err
	}
	v := View{
		Competition:   e.competition.Competition,
		Registrations: append([]domain.Registration(nil), e.registrations...),
		Status:        domain.StatusNone,
	}
	sess := m.session.Current()
	if !e.complete || !sess.Valid() {
		// Signed out: the server's counts are all we have
		v.ApprovedCount = e.competition.ApprovedCount
		v.IsFull = e.competition.IsFull
		return v, nil
	}
	v.ApprovedCount = domain.ApprovedCount(e.registrations)
	v.IsFull = domain.IsFull(v.Competition, e.registrations)

	if cur, ok := domain.CurrentRegistration(sess.User.ID, competitionID, e.registrations); ok {
		v.Current = &cur
		v.Status = cur.Status
	}
	v.AllowedActions = domain.AllowedActions(v.Status, sess.User.Role)
	if v.IsFull {
		v.AllowedActions = without(v.AllowedActions, domain.ActionJoin)
	}
	return v, nil
}

func without(actions []domain.Action, drop domain.Action) []domain.Action {
	var out []domain.Action
	for _, a := range actions {
		if a != drop {
			out = append(out, a)
		}
	}
	return out
}

// Competitions lists every competition
func (m *Manager) Competitions(ctx context.Context) ([]CompetitionSummary, error) {
	var list []CompetitionSummary
	if err := m.gw.Do(ctx, http.MethodGet, "/competitions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Join registers the signed-in user for a competition
func (m *Manager) Join(ctx context.Context, competitionID uint) (domain.Registration, error) {
	var reg domain.Registration
	sess := m.session.Current()
	if !sess.Valid() {
		return reg, domain.ErrUnauthenticated
	}
	release, err := m.acquire(fmt.Sprintf("join:%d", competitionID))
	if err != nil {
		return reg, err
	}
	defer release()

	v, err := m.View(ctx, competitionID)
	if err != nil {
		return reg, err
	}
	if _, err := domain.Transition(v.Status, domain.ActionJoin); err != nil {
		return reg, err
	}
	if v.IsFull {
		return reg, domain.ErrCompetitionFull
	}
	body := map[string]uint{"userId": sess.User.ID, "competitionId": competitionID}
	err = m.gw.Do(ctx, http.MethodPost, "/registrations", body, &reg)
	m.Invalidate(competitionID)
	return reg, err
}

// registration finds a registration in the cache, or fetches it
func (m *Manager) registration(ctx context.Context, id uint) (domain.Registration, error) {
	m.mu.Lock()
	if compID, ok := m.regIndex[id]; ok {
		if e, ok := m.cache[compID]; ok {
			for _, r := range e.registrations {
				if r.ID == id {
					m.mu.Unlock()
					return r, nil
				}
			}
		}
	}
	m.mu.Unlock()
	var reg domain.Registration
	err := m.gw.Do(ctx, http.MethodGet, fmt.Sprintf("/registrations/%d", id), nil, &reg)
	return reg, err
}

// owned loads a registration the signed-in user may act on as its owner
func (m *Manager) owned(ctx context.Context, id uint) (domain.Registration, error) {
	sess := m.session.Current()
	if !sess.Valid() {
		return domain.Registration{}, domain.ErrUnauthenticated
	}
	reg, err := m.registration(ctx, id)
	if err != nil {
		return reg, err
	}
	if reg.UserID != sess.User.ID && !sess.User.IsAdmin() {
		return reg, domain.ErrForbidden
	}
	return reg, nil
}

// Cancel withdraws a pending or waiting registration
func (m *Manager) Cancel(ctx context.Context, registrationID uint) (domain.Registration, error) {
	release, err := m.acquire(fmt.Sprintf("cancel:%d", registrationID))
	if err != nil {
		return domain.Registration{}, err
	}
	defer release()

	reg, err := m.owned(ctx, registrationID)
	if err != nil {
		return reg, err
	}
	if _, err := domain.Transition(reg.Status, domain.ActionCancel); err != nil {
		return reg, err
	}
	var out domain.Registration
	err = m.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/registrations/%d", registrationID), nil, &out)
	m.Invalidate(reg.CompetitionID)
	return out, err
}

// SubmitPayment uploads a slip for a pending registration
func (m *Manager) SubmitPayment(ctx context.Context, registrationID uint, slip Slip, amount float64, method string) (domain.Payment, error) {
	var payment domain.Payment
	release, err := m.acquire(fmt.Sprintf("pay:%d", registrationID))
	if err != nil {
		return payment, err
	}
	defer release()

	reg, err := m.owned(ctx, registrationID)
	if err != nil {
		return payment, err
	}
	if _, err := domain.Transition(reg.Status, domain.ActionSubmitPayment); err != nil {
		return payment, err
	}
	if slip.Content == nil {
		return payment, domain.ErrMissingSlip
	}
	if method == "" {
		method = domain.DefaultPaymentMethod
	}
	name := slip.Filename
	if name == "" {
		name = "slip"
	}
	fields := map[string]string{
		"registrationId": strconv.FormatUint(uint64(registrationID), 10),
		"amount":         strconv.FormatFloat(amount, 'f', -1, 64),
		"method":         method,
	}
	err = m.gw.Upload(ctx, "/payments/submit", fields, "slipImage", name, slip.Content, &payment)
	m.Invalidate(reg.CompetitionID)
	return payment, err
}

// requireAdmin fails unless the signed-in user is an admin
func (m *Manager) requireAdmin() error {
	sess := m.session.Current()
	if !sess.Valid() {
		return domain.ErrUnauthenticated
	}
	if !sess.User.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// AdminSetStatus approves or rejects a registration with an optional note
func (m *Manager) AdminSetStatus(ctx context.Context, registrationID uint, status domain.Status, note string) (domain.Registration, error) {
	var reg domain.Registration
	if err := m.requireAdmin(); err != nil {
		return reg, err
	}
	if _, err := domain.AdminAction(status); err != nil {
		return reg, err
	}
	release, err := m.acquire(fmt.Sprintf("status:%d", registrationID))
	if err != nil {
		return reg, err
	}
	defer release()

	body := map[string]string{"status": string(status), "note": note}
	err = m.gw.Do(ctx, http.MethodPut, fmt.Sprintf("/registrations/%d/status", registrationID), body, &reg)
	m.invalidateRegistration(registrationID, reg.CompetitionID)
	return reg, err
}

// PendingPayments lists slips awaiting review
func (m *Manager) PendingPayments(ctx context.Context) ([]domain.Payment, error) {
	if err := m.requireAdmin(); err != nil {
		return nil, err
	}
	var payments []domain.Payment
	if err := m.gw.Do(ctx, http.MethodGet, "/payments/pending", nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// VerifyPayment settles a pending payment as VERIFIED or REJECTED
func (m *Manager) VerifyPayment(ctx context.Context, paymentID uint, status domain.PaymentStatus, note string) (domain.Payment, error) {
	var payment domain.Payment
	if err := m.requireAdmin(); err != nil {
		return payment, err
	}
	if _, err := status.VerdictAction(); err != nil {
		return payment, err
	}
	release, err := m.acquire(fmt.Sprintf("verify:%d", paymentID))
	if err != nil {
		return payment, err
	}
	defer release()

	body := map[string]string{"status": string(status), "adminNote": note}
	err = m.gw.Do(ctx, http.MethodPatch, fmt.Sprintf("/payments/verify/%d", paymentID), body, &payment)
	if payment.Registration != nil {
		m.Invalidate(payment.Registration.CompetitionID)
	} else {
		m.InvalidateAll() // The owning competition is unknown
	}
	return payment, err
}

// History lists a player's registrations with their competitions and payments
func (m *Manager) History(ctx context.Context, playerID uint) ([]domain.Registration, error) {
	var regs []domain.Registration
	if err := m.gw.Do(ctx, http.MethodGet, fmt.Sprintf("/players/%d/history", playerID), nil, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// DeleteCompetition removes a competition with its registrations (admin)
func (m *Manager) DeleteCompetition(ctx context.Context, competitionID uint) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	err := m.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/competitions/%d", competitionID), nil, nil)
	m.Invalidate(competitionID)
	return err
}

// DeleteUser removes a user with their registrations (admin)
func (m *Manager) DeleteUser(ctx context.Context, userID uint) error {
	if err := m.requireAdmin(); err != nil {
		return err
	}
	err := m.gw.Do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", userID), nil, nil)
	m.InvalidateAll() // Registrations in any competition may be gone
	return err
}

// invalidateRegistration drops the entry holding a registration. A zero
// competitionID means the reply did not carry it.
func (m *Manager) invalidateRegistration(registrationID, competitionID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if competitionID == 0 {
		var ok bool
		if competitionID, ok = m.regIndex[registrationID]; !ok {
			return
		}
	}
	m.dropLocked(competitionID)
}
