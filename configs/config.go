package configs

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort      int
	JWTSecret    string
	DBHost       string
	DBPort       int
	DBUser       string
	DBPassword   string
	DBName       string
	DBNameTest   string
	RedisHost    string
	RedisPort    int
	MailHost     string
	MailPort     int
	MailUsername string
	MailPassword string
	MailSender   string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func LoadConfig() Config {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		AppPort:      getEnvInt("APP_PORT", 3004),
		JWTSecret:    getEnv("JWT_SECRET", "secret"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnvInt("DB_PORT", 5432),
		DBUser:       os.Getenv("DB_USER"),
		DBPassword:   os.Getenv("DB_PASSWORD"),
		DBName:       os.Getenv("DB_NAME"),
		DBNameTest:   os.Getenv("DB_NAME_TEST"),
		RedisHost:    getEnv("REDIS_HOST", "localhost"),
		RedisPort:    getEnvInt("REDIS_PORT", 6379),
		MailHost:     getEnv("MAIL_HOST", "smtp.gmail.com"),
		MailPort:     getEnvInt("MAIL_PORT", 587),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailSender:   getEnv("MAIL_SENDER", "noreply@mytodo.local"),
	}
}
