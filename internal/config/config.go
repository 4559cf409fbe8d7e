package config

import "os"

// Config holds all service configuration, loaded once from the
// environment in main.
type Config struct {
	Port     string
	MongoURI string
	MongoDB  string
	RedisURI string

	AdminUsername string
	AdminPassword string
	JWTSecret     string
}

// Load reads configuration from the environment with local-dev defaults
func Load() *Config {
	return &Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017/healthsurveys"),
		MongoDB:  getEnvOrDefault("MONGO_DB", "healthsurveys"),
		RedisURI: getEnvOrDefault("REDIS_URI", "localhost:6379"),

		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "password123"),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
