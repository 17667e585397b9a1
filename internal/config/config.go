package config

import (
	"os"            // For environment variables
	"path/filepath" // For the default session path
	"strconv"       // For string to int conversion
	"time"          // For cache TTL

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort     string        // Application port
	DBDriver    string        // Database driver: mysql or postgres
	DBUser      string        // Database user
	DBPassword  string        // Database password
	DBHost      string        // Database host
	DBPort      string        // Database port
	DBName      string        // Database name
	JWTSecret   string        // JWT secret key
	RedisAddr   string        // Redis server address
	RedisPass   string        // Redis password
	RedisDB     int           // Redis database number
	CacheTTL    time.Duration // Lifetime of cached read responses
	UploadDir   string        // Directory for uploaded slips and images
	LogLevel    string        // Logrus level name
	IsProd      bool          // Is production environment
	APIBaseURL  string        // Base URL the CLI client talks to
	SessionFile string        // Where the CLI client persists its session
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:     envOr("APP_PORT", "4000"),                                    // Application port
		DBDriver:    envOr("DB_DRIVER", "mysql"),                                  // Database driver
		DBUser:      os.Getenv("DB_USER"),                                         // Database user
		DBPassword:  os.Getenv("DB_PASSWORD"),                                     // Database password
		DBHost:      envOr("DB_HOST", "127.0.0.1"),                                // Database host
		DBPort:      os.Getenv("DB_PORT"),                                         // Database port
		DBName:      os.Getenv("DB_NAME"),                                         // Database name
		JWTSecret:   os.Getenv("JWT_SECRET"),                                      // JWT secret key
		RedisAddr:   envOr("REDIS_ADDR", "127.0.0.1:6379"),                        // Redis server address
		RedisPass:   os.Getenv("REDIS_PASS"),                                      // Redis password
		RedisDB:     redisDB,                                                      // Redis database number
		CacheTTL:    time.Duration(envInt("CACHE_TTL_SECONDS", 60)) * time.Second, // Cache TTL
		UploadDir:   envOr("UPLOAD_DIR", "uploads"),                               // Upload directory
		LogLevel:    envOr("LOG_LEVEL", "info"),                                   // Log level
		IsProd:      os.Getenv("IS_PROD") == "true",                               // Is production environment
		APIBaseURL:  envOr("API_BASE_URL", "http://localhost:4000/api"),           // Client base URL
		SessionFile: envOr("SESSION_FILE", defaultSessionFile()),                  // Client session file
	}
}

// DSN builds the data source name for the configured driver
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		port := c.DBPort
		if port == "" {
			port = "5432"
		}
		return "host=" + c.DBHost + " user=" + c.DBUser + " password=" + c.DBPassword +
			" dbname=" + c.DBName + " port=" + port + " sslmode=disable"
	}
	port := c.DBPort
	if port == "" {
		port = "3306"
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + port + ")/" + c.DBName + "?parseTime=true"
}

// envOr returns the environment value for key or def when unset
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt parses an integer environment value, falling back to def
func envInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return def
}

func defaultSessionFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tourneyctl", "session.json")
	}
	return ".tourneyctl-session.json"
}
