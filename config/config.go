package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Upstream AI backend.
	UpstreamURL       string `mapstructure:"UPSTREAM_URL"`
	DirectUpstreamURL string `mapstructure:"DIRECT_UPSTREAM_URL"`
	ChatTimeoutSec    int    `mapstructure:"CHAT_TIMEOUT_SEC"`
	IngestTimeoutSec  int    `mapstructure:"INGEST_TIMEOUT_SEC"`

	// Display strings.
	AgentName      string `mapstructure:"AGENT_NAME"`
	WelcomeMessage string `mapstructure:"WELCOME_MESSAGE"`

	// Conversation sessions.
	SessionTTLMin int `mapstructure:"SESSION_TTL_MIN"`

	// Admin gate.
	AdminPassphrase string `mapstructure:"ADMIN_PASSPHRASE"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisGateDB   int    `mapstructure:"REDIS_GATE_DB"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Google Cloud service account for voice transcription (optional).
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
}

var AppConfig Config

const defaultWelcome = "Namaste! Main aapka AI assistant hoon. Aap mujhse services, pricing, ya appointment ke baare mein kuch bhi pooch sakte hain!\n\nHello! I'm your AI assistant. Ask me anything about our services, pricing, or book an appointment!"

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("UPSTREAM_URL", "http://127.0.0.1:8000")
	viper.SetDefault("DIRECT_UPSTREAM_URL", "")
	viper.SetDefault("CHAT_TIMEOUT_SEC", 15)
	viper.SetDefault("INGEST_TIMEOUT_SEC", 120)
	viper.SetDefault("AGENT_NAME", "Aria")
	viper.SetDefault("WELCOME_MESSAGE", defaultWelcome)
	viper.SetDefault("SESSION_TTL_MIN", 60)
	viper.SetDefault("ADMIN_PASSPHRASE", "admin123")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_GATE_DB", 1)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ChatTimeout is the timeout for conversational upstream calls.
func ChatTimeout() time.Duration {
	return time.Duration(AppConfig.ChatTimeoutSec) * time.Second
}

// IngestTimeout is the longer timeout for large-payload ingestion calls.
func IngestTimeout() time.Duration {
	return time.Duration(AppConfig.IngestTimeoutSec) * time.Second
}

// SessionTTL is how long an idle conversation session is retained.
func SessionTTL() time.Duration {
	return time.Duration(AppConfig.SessionTTLMin) * time.Minute
}
