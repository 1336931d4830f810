package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Overpass  OverpassConfig
	Google    GoogleConfig
	OSRM      OSRMConfig
	Nominatim NominatimConfig
	OpenAI    OpenAIConfig
	Search    SearchConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
	Env  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OverpassConfig holds the POI source configuration
type OverpassConfig struct {
	BaseURL string
	Timeout time.Duration
}

// GoogleConfig holds the metered distance provider configuration.
// Either APIKey or the OAuth trio (TokenURL, ClientID, ClientSecret)
// may be set; when both are empty the provider is skipped entirely.
type GoogleConfig struct {
	APIKey       string
	TokenURL     string
	ClientID     string
	ClientSecret string
	BaseURL      string
	Timeout      time.Duration
}

// OSRMConfig holds the free distance provider configuration
type OSRMConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NominatimConfig holds geocoding configuration
type NominatimConfig struct {
	BaseURL   string
	UserAgent string
}

// OpenAIConfig holds the ranking oracle configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// SearchConfig holds the search pipeline limits
type SearchConfig struct {
	DefaultRadiusMeters   float64
	MaxRadiusMeters       float64
	MaxStoresForRoad      int
	MaxResults            int
	AlternativesThreshold int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
			Env:  getEnv("APP_ENV", "development"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Overpass: OverpassConfig{
			BaseURL: getEnv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			Timeout: getEnvAsDuration("OVERPASS_TIMEOUT", 20*time.Second),
		},
		Google: GoogleConfig{
			APIKey:       getEnv("GOOGLE_MAPS_API_KEY", ""),
			TokenURL:     getEnv("GOOGLE_OAUTH_TOKEN_URL", ""),
			ClientID:     getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_OAUTH_CLIENT_SECRET", ""),
			BaseURL:      getEnv("GOOGLE_DISTANCE_URL", "https://maps.googleapis.com/maps/api/distancematrix/json"),
			Timeout:      getEnvAsDuration("DISTANCE_TIMEOUT", 12*time.Second),
		},
		OSRM: OSRMConfig{
			BaseURL: getEnv("OSRM_URL", "https://router.project-osrm.org/table/v1/driving"),
			Timeout: getEnvAsDuration("DISTANCE_TIMEOUT", 12*time.Second),
		},
		Nominatim: NominatimConfig{
			BaseURL:   getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org/search"),
			UserAgent: getEnv("NOMINATIM_USER_AGENT", "SupplyMap/1.0 (contact via project repo)"),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		Search: SearchConfig{
			DefaultRadiusMeters:   getEnvAsFloat("SEARCH_RADIUS_M", 5000),
			MaxRadiusMeters:       getEnvAsFloat("SEARCH_MAX_RADIUS_M", 25000),
			MaxStoresForRoad:      getEnvAsInt("SEARCH_MAX_STORES_FOR_ROAD", 25),
			MaxResults:            getEnvAsInt("SEARCH_MAX_RESULTS", 10),
			AlternativesThreshold: getEnvAsInt("SEARCH_ALTERNATIVES_THRESHOLD", 2),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "supply-map-backend"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OAuthConfigured reports whether the metered provider should obtain its
// credential from the token endpoint instead of a static key.
func (c *GoogleConfig) OAuthConfigured() bool {
	return c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
