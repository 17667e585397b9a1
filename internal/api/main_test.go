package api

import (
	"bytes"             // Request bodies
	"encoding/json"     // Response decoding
	"io"                // Discarded log output
	"mime/multipart"    // Slip uploads
	"net/http"          // HTTP methods
	"net/http/httptest" // Recorded responses
	"os"                // TestMain exit code
	"path/filepath"     // Temp paths
	"strconv"           // ID formatting
	"testing"           // Testing framework
	"time"              // Cache TTL

	"tournament_system/internal/config" // Configuration
	"tournament_system/internal/db"     // Schema migration
	"tournament_system/internal/domain" // Domain models
	"tournament_system/internal/utils"  // JWT generation

	"github.com/alicebob/miniredis/v2"    // In-memory Redis
	"github.com/gin-gonic/gin"            // Gin web framework
	"github.com/glebarez/sqlite"          // Pure Go SQLite driver
	"github.com/redis/go-redis/v9"        // Redis client
	"github.com/sirupsen/logrus"          // Logging library
	"github.com/stretchr/testify/require" // Assertions
	"golang.org/x/crypto/bcrypt"          // Password hashing
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // Silent SQL logging
)

const testSecret = "test-secret"

// pngSlip is the smallest payload sniffed as image/png
var pngSlip = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// testEnv is a router over a throwaway database and Redis
type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	mr     *miniredis.Miniredis
	router *gin.Engine
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	database, err := gorm.Open(sqlite.Open(filepath.Join(dir, "test.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(database))
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // SQLite allows a single writer
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret: testSecret,
		UploadDir: filepath.Join(dir, "uploads"),
		CacheTTL:  time.Minute,
	}
	return &testEnv{t: t, db: database, mr: mr, router: NewRouter(database, rdb, cfg), cfg: cfg}
}

// user inserts a user directly and returns it with a signed token
func (e *testEnv) user(username string, role domain.Role) (domain.User, string) {
	e.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(e.t, err)
	u := domain.User{Username: username, Email: username + "@example.com", Password: string(hash), Role: role}
	require.NoError(e.t, e.db.Create(&u).Error)
	token, err := utils.GenerateJWT(u.ID, u.Role, testSecret)
	require.NoError(e.t, err)
	return u, token
}

// competition inserts a competition with the given capacity
func (e *testEnv) competition(name string, maxPlayer int) domain.Competition {
	e.t.Helper()
	c := domain.Competition{Name: name, Date: "2025-12-01", Location: "Online", MaxPlayer: maxPlayer, Prize: "1000"}
	require.NoError(e.t, e.db.Create(&c).Error)
	return c
}

// do sends a JSON request through the router
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// upload posts a multipart form, with slip as "slipImage" when non-nil
func (e *testEnv) upload(path, token string, fields map[string]string, slip []byte) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, mw.WriteField(k, v))
	}
	if slip != nil {
		part, err := mw.CreateFormFile("slipImage", "slip.png")
		require.NoError(e.t, err)
		_, err = part.Write(slip)
		require.NoError(e.t, err)
	}
	require.NoError(e.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// join registers token's user for competitionID and returns the registration
func (e *testEnv) join(token string, competitionID uint) domain.Registration {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/registrations", token, JoinRequest{CompetitionID: competitionID})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Registration](e.t, w)
}

// pay submits a slip for a registration and returns the payment
func (e *testEnv) pay(token string, registrationID uint) domain.Payment {
	e.t.Helper()
	w := e.upload("/api/payments/submit", token, map[string]string{
		"registrationId": itoa(registrationID),
		"amount":         "150",
	}, pngSlip)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Payment](e.t, w)
}

// registration reads a registration straight from the database
func (e *testEnv) registration(id uint) domain.Registration {
	e.t.Helper()
	var reg domain.Registration
	require.NoError(e.t, e.db.First(&reg, id).Error)
	return reg
}

// decode unwraps the {"data": ...} envelope
func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Data
}

// decodeError reads the error body
func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

// isCached reports the "cached" flag of a cached GET
func isCached(t *testing.T, w *httptest.ResponseRecorder) bool {
	t.Helper()
	var body struct {
		Cached bool `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Cached
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
