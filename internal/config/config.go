package config

import (
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Checkout  CheckoutConfig  `mapstructure:"checkout"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Storage   StorageConfig   `mapstructure:"storage"`
	BaseURL   string          `mapstructure:"base_url"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	ExpiryDays int    `mapstructure:"expiry_days"`
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type CheckoutConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type AssistantConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
}

func LoadConfig() *Config {
	config := &Config{}

	// Set default values
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "3090")
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "dev")
	viper.SetDefault("database.password", "devpass")
	viper.SetDefault("database.name", "wellness")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiry_days", 15)

	viper.SetDefault("smtp.host", "localhost")
	viper.SetDefault("smtp.port", 587)
	viper.SetDefault("smtp.username", "")
	viper.SetDefault("smtp.password", "")
	viper.SetDefault("smtp.from_email", "noreply@wellness.local")
	viper.SetDefault("smtp.from_name", "Wellness")

	viper.SetDefault("checkout.base_url", "http://localhost:4242")
	viper.SetDefault("checkout.api_key", "")
	viper.SetDefault("checkout.webhook_secret", "")

	viper.SetDefault("assistant.base_url", "http://localhost:8081")
	viper.SetDefault("assistant.api_key", "")
	viper.SetDefault("assistant.model", "gpt-4o-mini")

	viper.SetDefault("storage.base_path", "./data/artifacts")
	viper.SetDefault("base_url", "http://localhost:3000")

	// Read from environment variables
	viper.AutomaticEnv()

	// Override with environment variables if they exist
	if host := os.Getenv("SERVER_HOST"); host != "" {
		viper.Set("server.host", host)
	}
	if port := os.Getenv("PORT"); port != "" {
		viper.Set("server.port", port)
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		viper.Set("server.mode", mode)
	}

	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		viper.Set("database.host", dbHost)
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		viper.Set("database.port", dbPort)
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		viper.Set("database.user", dbUser)
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		viper.Set("database.password", dbPassword)
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		viper.Set("database.name", dbName)
	}
	if dbSSLMode := os.Getenv("DB_SSLMODE"); dbSSLMode != "" {
		viper.Set("database.sslmode", dbSSLMode)
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		viper.Set("redis.addr", redisAddr)
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		viper.Set("redis.password", redisPassword)
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		viper.Set("jwt.secret", jwtSecret)
	}

	if smtpHost := os.Getenv("SMTP_HOST"); smtpHost != "" {
		viper.Set("smtp.host", smtpHost)
	}
	if smtpUser := os.Getenv("SMTP_USERNAME"); smtpUser != "" {
		viper.Set("smtp.username", smtpUser)
	}
	if smtpPassword := os.Getenv("SMTP_PASSWORD"); smtpPassword != "" {
		viper.Set("smtp.password", smtpPassword)
	}
	if fromEmail := os.Getenv("FROM_EMAIL"); fromEmail != "" {
		viper.Set("smtp.from_email", fromEmail)
	}

	if checkoutURL := os.Getenv("CHECKOUT_BASE_URL"); checkoutURL != "" {
		viper.Set("checkout.base_url", checkoutURL)
	}
	if checkoutKey := os.Getenv("CHECKOUT_API_KEY"); checkoutKey != "" {
		viper.Set("checkout.api_key", checkoutKey)
	}
	if webhookSecret := os.Getenv("CHECKOUT_WEBHOOK_SECRET"); webhookSecret != "" {
		viper.Set("checkout.webhook_secret", webhookSecret)
	}

	if assistantURL := os.Getenv("ASSISTANT_BASE_URL"); assistantURL != "" {
		viper.Set("assistant.base_url", assistantURL)
	}
	if assistantKey := os.Getenv("ASSISTANT_API_KEY"); assistantKey != "" {
		viper.Set("assistant.api_key", assistantKey)
	}
	if assistantModel := os.Getenv("ASSISTANT_MODEL"); assistantModel != "" {
		viper.Set("assistant.model", assistantModel)
	}

	if storagePath := os.Getenv("STORAGE_BASE_PATH"); storagePath != "" {
		viper.Set("storage.base_path", storagePath)
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		viper.Set("base_url", baseURL)
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	return config
}

// DSN builds the postgres connection string
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.Name + " sslmode=" + c.SSLMode
}
