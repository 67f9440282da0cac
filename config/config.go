package config

import (
	"fmt"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config carries everything read from the environment at startup.
type Config struct {
	Port      string
	RedisAddr string
	Timezone  string

	// Shift generation triggers, local wall clock "15:04".
	MorningTriggerAt string
	EveningTriggerAt string
}

func Load() Config {
	return Config{
		Port:             getenv("PORT", "8080"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		Timezone:         getenv("TIMEZONE", "Asia/Jakarta"),
		MorningTriggerAt: getenv("MORNING_TRIGGER_AT", "06:00"),
		EveningTriggerAt: getenv("EVENING_TRIGGER_AT", "16:00"),
	}
}

// Location resolves the configured timezone, falling back to local time.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// InitDB opens the MySQL connection from DB_* environment variables.
func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			getenv("DB_USER", "root"),
			os.Getenv("DB_PASSWORD"),
			getenv("DB_HOST", "127.0.0.1"),
			getenv("DB_PORT", "3306"),
			getenv("DB_NAME", "delivery_app"),
		)
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
