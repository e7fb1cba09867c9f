package config

import (
	"net"
	"net/url"
	"os"
	"time"
)

const (
	DefaultTimeZone = "Asia/Kolkata"

	// Upload handling
	MaxUploadBytes      = 10 << 20
	MultipartMemory     = 32 << 20
	DefaultUploadDir    = "./uploads"
	UploadFilePrefix    = "billupload-"
	ScratchMaxAge       = 2 * time.Hour
	DefaultScratchSweep = "*/30 * * * *"

	// Serial numbers are <yy><sequence>, sequence padded to this width
	SerialSequenceWidth = 5

	// Import lock
	ImportLockKey = "lock:bill-import"
	ImportLockTTL = 5 * time.Minute

	// Run history kept in memory for GET /bills/import/history
	ImportHistorySize = 50

	DefaultGatewayPort = 8081
	DefaultBillingPort = 6143
)

// Env holds process configuration read from the environment (.env in local dev).
type Env struct {
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	RedisAddr  string
	UploadDir  string
}

func LoadEnv() Env {
	e := Env{
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBName:     os.Getenv("DB_NAME"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		UploadDir:  os.Getenv("UPLOAD_DIR"),
	}
	if e.UploadDir == "" {
		e.UploadDir = DefaultUploadDir
	}
	if e.DBPort == "" {
		e.DBPort = "5432"
	}
	return e
}

// DSN builds the pgx connection string.
func (e Env) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.DBUser, e.DBPassword),
		Host:     net.JoinHostPort(e.DBHost, e.DBPort),
		Path:     "/" + e.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Location returns the configured business timezone, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
