package client

import (
	"bytes"          // Request bodies
	"context"        // Request cancellation
	"encoding/json"  // Wire encoding
	"fmt"            // Error wrapping
	"io"             // Body reading
	"mime/multipart" // Slip uploads
	"net/http"       // HTTP client
	"strings"        // URL joining
	"time"           // Default timeout

	"tournament_system/internal/domain" // Domain models

	"github.com/sirupsen/logrus" // Logging library
)

// DefaultTimeout bounds a single request when no client is supplied
const DefaultTimeout = 30 * time.Second

// Gateway talks to the REST API on behalf of the current session. It attaches
// the bearer token, unwraps {"data": ...} envelopes and clears the session on
// any 401. Requests are never retried.
type Gateway struct {
	baseURL string
	http    *http.Client
	session *SessionStore
}

// NewGateway creates a gateway for baseURL (for example http://localhost:4000/api)
func NewGateway(baseURL string, session *SessionStore, httpClient *http.Client) *Gateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
	}
}

// Session returns the store the gateway authenticates with
func (g *Gateway) Session() *SessionStore { return g.session }

// errorBody is the server's error shape
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// envelope is the server's success shape
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// Do sends a JSON request and decodes the response into out (may be nil)
func (g *Gateway) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return g.send(req, out)
}

// Upload sends a multipart form with one file part
func (g *Gateway) Upload(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, file); err != nil {
			return fmt.Errorf("read %s: %w", fileName, err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return g.send(req, out)
}

// send attaches the token, executes req and decodes the reply
func (g *Gateway) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if token := g.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"method":   req.Method,                 // HTTP method
		"url":      req.URL.String(),           // Request URL
		"status":   resp.StatusCode,            // Response status
		"duration": time.Since(start).String(), // Round trip
	}).Debug("API request")

	if resp.StatusCode >= http.StatusBadRequest {
		return g.failure(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		raw = env.Data // Enveloped reply
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// failure turns an error reply into an *APIError, signing out on 401
func (g *Gateway) failure(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body) // Non-JSON bodies fall back to the status text
	if body.Message == "" {
		body.Message = http.StatusText(status)
	}
	if status == http.StatusUnauthorized {
		if err := g.session.Clear(); err != nil {
			logrus.WithError(err).Warn("Failed to clear session")
		}
		if body.Code == "" {
			body.Code = domain.ErrUnauthenticated.Code
		}
	}
	return &APIError{Status: status, Code: body.Code, Message: body.Message}
}

// authReply is the body of login and register responses
type authReply struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login signs in with an email or username and stores the session
func (g *Gateway) Login(ctx context.Context, identifier, password string) (Session, error) {
	var reply authReply
	body := map[string]string{"email": identifier, "password": password}
	if err := g.Do(ctx, http.MethodPost, "/auth/login", body, &reply); err != nil {
		return Session{}, err
	}
	return g.store(reply)
}

// Register creates a Player account and stores the session
func (g *Gateway) Register(ctx context.Context, username, email, password string) (Session, error) {
	var reply authReply
	body := map[string]string{"username": username, "email": email, "password": password}
	if err := g.Do(ctx, http.MethodPost, "/auth/register", body, &reply); err != nil {
		return Session{}, err
	}
	return g.store(reply)
}

// Logout forgets the current session. Tokens are stateless, so the server is not called.
func (g *Gateway) Logout() error {
	return g.session.Clear()
}

// store saves a fresh session from an auth reply
func (g *Gateway) store(reply authReply) (Session, error) {
	user := reply.User
	sess := Session{User: &user, Token: reply.Token}
	if err := g.session.Save(sess); err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}
