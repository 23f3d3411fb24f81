package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"outreach/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type SMTPConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	FromEmail string `json:"from_email"`
	FromName  string `json:"from_name"`
	Retries   int    `json:"retries"`
}

type SMSConfig struct {
	BaseURL    string `json:"base_url"`
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"-"`
	FromNumber string `json:"from_number"`
}

type OutreachConfig struct {
	BatchLimit      int           `json:"batch_limit"`
	WorkerEnabled   bool          `json:"worker_enabled"`
	RunInterval     time.Duration `json:"run_interval"`
	DispatchTimeout time.Duration `json:"dispatch_timeout"`
	ClaimTTL        time.Duration `json:"claim_ttl"`
	MaxAttempts     int           `json:"max_attempts"`
	BackoffInitial  time.Duration `json:"backoff_initial"`
	BackoffMax      time.Duration `json:"backoff_max"`
	EnforceThrottle bool          `json:"enforce_throttle"`
	RunLockTTL      time.Duration `json:"run_lock_ttl"`
}

type Config struct {
	Environment    string         `json:"environment"`
	ServerPort     string         `json:"server_port"`
	APIEnabled     bool           `json:"api_enabled"`
	JWTSecret      string         `json:"-"`
	TokenTTL       time.Duration  `json:"token_ttl"`
	RateLimitRuns  int            `json:"rate_limit_runs"`
	CORSOrigins    []string       `json:"cors_origins"`
	SentryDSN      string         `json:"-"`
	LogLevel       string         `json:"log_level"`
	DBHost         string         `json:"db_host"`
	DBPort         string         `json:"db_port"`
	DBUser         string         `json:"db_user"`
	DBPassword     string         `json:"-"`
	DBName         string         `json:"db_name"`
	DBSSLMode      string         `json:"db_ssl_mode"`
	DBMaxIdleConns int            `json:"db_max_idle_conns"`
	DBMaxOpenConns int            `json:"db_max_open_conns"`
	Redis          RedisConfig    `json:"redis"`
	SMTP           SMTPConfig     `json:"smtp"`
	SMS            SMSConfig      `json:"sms"`
	Outreach       OutreachConfig `json:"outreach"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		APIEnabled:     getEnvAsBool("API_ENABLED", true),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       getEnvAsDuration("OPERATOR_TOKEN_TTL", 30*24*time.Hour),
		RateLimitRuns:  getEnvAsInt("RATE_LIMIT_RUNS", 5),
		CORSOrigins:    getEnvAsList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "outreach"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("SMTP_FROM_EMAIL", ""),
			FromName:  getEnv("SMTP_FROM_NAME", ""),
			Retries:   getEnvAsInt("SMTP_RETRIES", 0),
		},
		SMS: SMSConfig{
			BaseURL:    getEnv("SMS_API_BASE_URL", "https://api.twilio.com"),
			AccountSID: getEnv("SMS_ACCOUNT_SID", ""),
			AuthToken:  getEnv("SMS_AUTH_TOKEN", ""),
			FromNumber: getEnv("SMS_FROM_NUMBER", ""),
		},
		Outreach: OutreachConfig{
			BatchLimit:      getEnvAsInt("OUTREACH_BATCH_LIMIT", 100),
			WorkerEnabled:   getEnvAsBool("OUTREACH_WORKER_ENABLED", false),
			RunInterval:     getEnvAsDuration("OUTREACH_RUN_INTERVAL", 5*time.Minute),
			DispatchTimeout: getEnvAsDuration("OUTREACH_DISPATCH_TIMEOUT", 30*time.Second),
			ClaimTTL:        getEnvAsDuration("OUTREACH_CLAIM_TTL", 15*time.Minute),
			MaxAttempts:     getEnvAsInt("OUTREACH_MAX_ATTEMPTS", 0),
			BackoffInitial:  getEnvAsDuration("OUTREACH_BACKOFF_INITIAL", 0),
			BackoffMax:      getEnvAsDuration("OUTREACH_BACKOFF_MAX", 24*time.Hour),
			EnforceThrottle: getEnvAsBool("OUTREACH_ENFORCE_THROTTLE", false),
			RunLockTTL:      getEnvAsDuration("OUTREACH_RUN_LOCK_TTL", 10*time.Minute),
		},
	}

	// Validate required configurations
	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.APIEnabled && AppConfig.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when the API is enabled")
	}
	if AppConfig.Outreach.BatchLimit <= 0 {
		return fmt.Errorf("OUTREACH_BATCH_LIMIT must be positive")
	}
	if AppConfig.Environment == "production" && AppConfig.SMTP.FromEmail == "" {
		log.Println("⚠️ SMTP_FROM_EMAIL is not set, email steps will fail")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		return fallback
	}
	return value
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s (api enabled: %t)", AppConfig.ServerPort, AppConfig.APIEnabled)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Channels: email(%t), sms(%t)",
		AppConfig.SMTP.Host != "" && AppConfig.SMTP.FromEmail != "",
		AppConfig.SMS.AccountSID != "" && AppConfig.SMS.FromNumber != "")
	log.Printf("Outreach: batch=%d worker=%t interval=%s max_attempts=%d",
		AppConfig.Outreach.BatchLimit,
		AppConfig.Outreach.WorkerEnabled,
		AppConfig.Outreach.RunInterval,
		AppConfig.Outreach.MaxAttempts)
}

func migrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Sequence{},
		&models.SequenceStep{},
		&models.Template{},
		&models.Prospect{},
		&models.OutreachEvent{},
	)
}
