package config

import (
	"testing" // Testing framework
	"time"    // Cache TTL

	"github.com/stretchr/testify/assert" // Assertions
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "DB_HOST", "REDIS_ADDR", "CACHE_TTL_SECONDS", "UPLOAD_DIR", "IS_PROD", "API_BASE_URL", "SESSION_FILE"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "4000", cfg.AppPort)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.False(t, cfg.IsProd)
	assert.Equal(t, "http://localhost:4000/api", cfg.APIBaseURL)
	assert.NotEmpty(t, cfg.SessionFile)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IS_PROD", "true")
	t.Setenv("SESSION_FILE", "/tmp/session.json")
	cfg := LoadConfig()
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.IsProd)
	assert.Equal(t, "/tmp/session.json", cfg.SessionFile)
}

func TestDSN(t *testing.T) {
	mysql := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "db", DBName: "tourney"}
	assert.Equal(t, "u:p@tcp(db:3306)/tourney?parseTime=true", mysql.DSN())

	pg := &Config{DBDriver: "postgres", DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "6543", DBName: "tourney"}
	assert.Equal(t, "host=db user=u password=p dbname=tourney port=6543 sslmode=disable", pg.DSN())
}
