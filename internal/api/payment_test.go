package api

import (
	"net/http"      // HTTP methods and status codes
	"os"            // Stored slip checks
	"path/filepath" // Slip paths
	"strings"       // Path trimming
	"testing"       // Testing framework

	"tournament_system/internal/domain" // Domain models

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
)

func TestSubmitPaymentValidation(t *testing.T) {
	e := newTestEnv(t)
	_, player := e.user("player", domain.RolePlayer)
	_, intruder := e.user("intruder", domain.RolePlayer)
	comp := e.competition("Cup", 0)
	reg := e.join(player, comp.ID)
	fields := map[string]string{"registrationId": itoa(reg.ID), "amount": "150"}

	w := e.upload("/api/payments/submit", player, fields, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrMissingSlip.Code, decodeError(t, w).Code)

	w = e.upload("/api/payments/submit", player, fields, []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.ErrValidation.Code, decodeError(t, w).Code)

	w = e.upload("/api/payments/submit", player, map[string]string{"registrationId": itoa(reg.ID), "amount": "-5"}, pngSlip)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.upload("/api/payments/submit", intruder, fields, pngSlip)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, domain.StatusPending, e.registration(reg.ID).Status)
}

func TestSubmitPaymentMovesToWaiting(t *testing.T) {
	e := newTestEnv(t)
	_, player := e.user("player", domain.RolePlayer)
	comp := e.competition("Cup", 0)
	reg := e.join(player, comp.ID)

	payment := e.pay(player, reg.ID)
	assert.Equal(t, domain.PaymentPending, payment.Status)
	assert.Equal(t, domain.DefaultPaymentMethod, payment.Method)
	assert.Equal(t, 150.0, payment.Amount)
	require.True(t, strings.HasPrefix(payment.SlipImage, "/uploads/"))
	_, err := os.Stat(filepath.Join(e.cfg.UploadDir, strings.TrimPrefix(payment.SlipImage, "/uploads/")))
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, e.registration(reg.ID).Status)

	// Only pending registrations accept a slip
	w := e.upload("/api/payments/submit", player, map[string]string{"registrationId": itoa(reg.ID), "amount": "150"}, pngSlip)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrInvalidState.Code, decodeError(t, w).Code)

	// Slips are served back
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, payment.SlipImage, "", nil).Code)
}

func TestVerifyPaymentApproves(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("admin", domain.RoleAdmin)
	_, player := e.user("player", domain.RolePlayer)
	comp := e.competition("Cup", 2)
	reg := e.join(player, comp.ID)
	payment := e.pay(player, reg.ID)

	w := e.do(http.MethodGet, "/api/payments/pending", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]domain.Payment](t, w)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Registration)
	require.NotNil(t, pending[0].Registration.User)
	assert.Equal(t, "player", pending[0].Registration.User.Username)
	assert.Equal(t, "Cup", pending[0].Registration.Competition.Name)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, "/api/payments/pending", player, nil).Code)

	w = e.do(http.MethodPatch, "/api/payments/verify/"+itoa(payment.ID), admin, VerifyRequest{Status: "PENDING"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPatch, "/api/payments/verify/"+itoa(payment.ID), admin, VerifyRequest{Status: domain.PaymentVerified})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[domain.Payment](t, w)
	assert.Equal(t, domain.PaymentVerified, got.Status)
	require.NotNil(t, got.Registration)
	assert.Equal(t, domain.StatusApproved, got.Registration.Status)
	assert.Equal(t, domain.StatusApproved, e.registration(reg.ID).Status)

	// Reviewed once only
	w = e.do(http.MethodPatch, "/api/payments/verify/"+itoa(payment.ID), admin, VerifyRequest{Status: domain.PaymentRejected})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.ErrInvalidState.Code, decodeError(t, w).Code)

	w = e.do(http.MethodGet, "/api/payments/pending", admin, nil)
	assert.Empty(t, decode[[]domain.Payment](t, w))

	// An approved registration cannot be cancelled
	w = e.do(http.MethodDelete, "/api/registrations/"+itoa(reg.ID), player, nil)
	assert.Equal(t, domain.ErrInvalidState.Code, decodeError(t, w).Code)
}

// An admin rejects a fake slip: the registration ends rejected with the note
// visible in the player's history, and no second slip is accepted
func TestFakeSlipRejected(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("admin", domain.RoleAdmin)
	me, player := e.user("player", domain.RolePlayer)
	comp := e.competition("Cup", 0)
	reg := e.join(player, comp.ID)
	payment := e.pay(player, reg.ID)

	w := e.do(http.MethodPatch, "/api/payments/verify/"+itoa(payment.ID), admin, VerifyRequest{Status: domain.PaymentRejected, AdminNote: "fake slip"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.PaymentRejected, decode[domain.Payment](t, w).Status)

	stored := e.registration(reg.ID)
	assert.Equal(t, domain.StatusRejected, stored.Status)
	assert.Equal(t, "fake slip", stored.Note)

	w = e.do(http.MethodGet, "/api/players/"+itoa(me.ID)+"/history", player, nil)
	history := decode[[]domain.Registration](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, domain.StatusRejected, history[0].Status)
	require.Len(t, history[0].Payments, 1)
	assert.Equal(t, "fake slip", history[0].Payments[0].AdminNote)

	w = e.upload("/api/payments/submit", player, map[string]string{"registrationId": itoa(reg.ID), "amount": "150"}, pngSlip)
	assert.Equal(t, domain.ErrInvalidState.Code, decodeError(t, w).Code)
}

func TestAdminStatusResolvesPendingPayment(t *testing.T) {
	e := newTestEnv(t)
	_, admin := e.user("admin", domain.RoleAdmin)
	_, player := e.user("player", domain.RolePlayer)
	comp := e.competition("Cup", 0)
	reg := e.join(player, comp.ID)
	payment := e.pay(player, reg.ID)

	w := e.do(http.MethodPut, "/api/registrations/"+itoa(reg.ID)+"/status", admin, StatusRequest{Status: "approved"})
	require.Equal(t, http.StatusOK, w.Code)

	var stored domain.Payment
	require.NoError(t, e.db.First(&stored, payment.ID).Error)
	assert.Equal(t, domain.PaymentVerified, stored.Status)
}

func TestCancelRejectsPendingPayment(t *testing.T) {
	e := newTestEnv(t)
	_, player := e.user("player", domain.RolePlayer)
	comp := e.competition("Cup", 0)
	reg := e.join(player, comp.ID)
	payment := e.pay(player, reg.ID)

	w := e.do(http.MethodDelete, "/api/registrations/"+itoa(reg.ID), player, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored domain.Payment
	require.NoError(t, e.db.First(&stored, payment.ID).Error)
	assert.Equal(t, domain.PaymentRejected, stored.Status)
}

func TestGetPaymentOwnership(t *testing.T) {
	e := newTestEnv(t)
	_, player := e.user("player", domain.RolePlayer)
	_, intruder := e.user("intruder", domain.RolePlayer)
	comp := e.competition("Cup", 0)
	reg := e.join(player, comp.ID)
	payment := e.pay(player, reg.ID)
	path := "/api/payments/" + itoa(payment.ID)

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, path, player, nil).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodGet, path, intruder, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/api/payments/999", player, nil).Code)
}
