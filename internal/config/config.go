package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	LogLevel         string
	ServerRunAddress string
	DatabaseURI      string
	StorePath        string
	DefaultGrant     int
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	LogLevel = os.Getenv("LOG_LEVEL")
	if LogLevel == "" {
		LogLevel = "info"
	}

	ServerRunAddress = os.Getenv("SERVER_RUN_ADDRESS")
	if ServerRunAddress == "" {
		ServerRunAddress = "0.0.0.0:8080"
	}

	// When set, the Postgres key-value adapter is used instead of the
	// embedded Badger store.
	DatabaseURI = os.Getenv("DATABASE_URI")

	StorePath = os.Getenv("STORE_PATH")
	if StorePath == "" {
		StorePath = "./data/token_hub"
	}

	DefaultGrant = 10
	if raw := os.Getenv("DEFAULT_GRANT"); raw != "" {
		grant, err := strconv.Atoi(raw)
		if err != nil || grant < 0 {
			log.Println("Invalid DEFAULT_GRANT value, using default")
		} else {
			DefaultGrant = grant
		}
	}
}
