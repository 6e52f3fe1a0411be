package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Upload settings
	UploadDir         string
	UploadURLPrefix   string
	MaxImageBytes     int64
	MaxAvatarBytes    int64
	MaxImagesPerBuild int

	// Car data lookup
	CarDataDir string

	// Blob reconciliation
	ReconcileInterval time.Duration
	ReconcileMinAge   time.Duration

	// Email Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

func Load() *Config {
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "2525"))

	return &Config{
		Port:        getEnv("PORT", "5001"),
		DatabaseURL: getEnv("DATABASE_URL", "user:password@tcp(localhost:3306)/modsquad?charset=utf8mb4&parseTime=True&loc=Local"),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),

		UploadDir:         getEnv("UPLOAD_DIR", "public/uploads"),
		UploadURLPrefix:   getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		MaxImageBytes:     getEnvInt64("MAX_IMAGE_BYTES", 10<<20),
		MaxAvatarBytes:    getEnvInt64("MAX_AVATAR_BYTES", 5<<20),
		MaxImagesPerBuild: getEnvInt("MAX_IMAGES_PER_BUILD", 5),

		CarDataDir: getEnv("CAR_DATA_DIR", "car-data"),

		ReconcileInterval: getEnvDuration("RECONCILE_INTERVAL", 6*time.Hour),
		ReconcileMinAge:   getEnvDuration("RECONCILE_MIN_AGE", time.Hour),

		// Email settings
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     smtpPort,
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "noreply@modsquad.com"),
		FromName:     getEnv("FROM_NAME", "ModSquad"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
