package client

import (
	"context"           // Request context
	"encoding/json"     // Test server replies
	"errors"            // Error matching
	"io"                // Upload bodies
	"net/http"          // HTTP server
	"net/http/httptest" // Test server
	"strings"           // Upload content
	"testing"           // Testing framework

	"tournament_system/internal/domain" // Domain errors

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
)

func signedInStore(t *testing.T) *SessionStore {
	t.Helper()
	store := NewSessionStore("")
	require.NoError(t, store.Save(Session{User: &domain.User{ID: 1, Username: "neo"}, Token: "tok"}))
	return store
}

func TestGatewayAttachesBearerAndUnwrapsEnvelope(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/wrapped":
			_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"name": "cup"}, "cached": true})
		case "/api/raw":
			_ = json.NewEncoder(w).Encode(map[string]string{"name": "raw"})
		}
	}))
	defer srv.Close()
	gw := NewGateway(srv.URL+"/api/", signedInStore(t), srv.Client())

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, gw.Do(context.Background(), http.MethodGet, "/wrapped", nil, &out))
	assert.Equal(t, "Bearer tok", auth)
	assert.Equal(t, "cup", out.Name)

	require.NoError(t, gw.Do(context.Background(), http.MethodGet, "/raw", nil, &out))
	assert.Equal(t, "raw", out.Name)
}

func TestGatewayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/full":
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Competition is full!","code":"competition_full"}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"no such thing"}`))
		case "/boom":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}
	}))
	defer srv.Close()
	store := signedInStore(t)
	gw := NewGateway(srv.URL, store, srv.Client())
	ctx := context.Background()

	err := gw.Do(ctx, http.MethodPost, "/full", map[string]int{"competitionId": 1}, nil)
	assert.EqualError(t, err, "Competition is full!")
	assert.ErrorIs(t, err, domain.ErrCompetitionFull)
	assert.ErrorIs(t, err, domain.ErrConflict)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)

	err = gw.Do(ctx, http.MethodGet, "/missing", nil, nil)
	assert.EqualError(t, err, "no such thing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = gw.Do(ctx, http.MethodGet, "/boom", nil, nil)
	assert.EqualError(t, err, http.StatusText(http.StatusBadGateway))
	assert.ErrorIs(t, err, domain.ErrServer)

	assert.True(t, store.Current().Valid(), "only a 401 signs out")
}

func TestGatewayClearsSessionOn401(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid or expired token"}`))
	}))
	defer srv.Close()
	store := signedInStore(t)
	gw := NewGateway(srv.URL, store, srv.Client())

	err := gw.Do(context.Background(), http.MethodGet, "/users/me", nil, nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.EqualError(t, err, "Invalid or expired token")
	assert.False(t, store.Current().Valid())
}

func TestGatewayUpload(t *testing.T) {
	var fields map[string]string
	var file []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields = map[string]string{"registrationId": r.FormValue("registrationId"), "amount": r.FormValue("amount")}
		if f, _, err := r.FormFile("slipImage"); assert.NoError(t, err) {
			file, _ = io.ReadAll(f)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":9}}`))
	}))
	defer srv.Close()
	gw := NewGateway(srv.URL, signedInStore(t), srv.Client())

	var out domain.Payment
	err := gw.Upload(context.Background(), "/payments/submit", map[string]string{"registrationId": "4", "amount": "150"},
		"slipImage", "slip.png", strings.NewReader("png-bytes"), &out)
	require.NoError(t, err)
	assert.Equal(t, uint(9), out.ID)
	assert.Equal(t, map[string]string{"registrationId": "4", "amount": "150"}, fields)
	assert.Equal(t, "png-bytes", string(file))
}

func TestAPIErrorFallsBackToStatus(t *testing.T) {
	cases := map[int]*domain.Error{
		http.StatusUnauthorized:        domain.ErrUnauthenticated,
		http.StatusForbidden:           domain.ErrForbidden,
		http.StatusNotFound:            domain.ErrNotFound,
		http.StatusConflict:            domain.ErrConflict,
		http.StatusBadRequest:          domain.ErrValidation,
		http.StatusInternalServerError: domain.ErrServer,
	}
	for status, want := range cases {
		err := &APIError{Status: status, Message: "x"}
		assert.ErrorIs(t, err, want, status)
	}
	// A known code wins over the status
	assert.ErrorIs(t, &APIError{Status: http.StatusBadRequest, Code: "missing_slip"}, domain.ErrMissingSlip)
}
