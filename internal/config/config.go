package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port              string
	Env               string
	APIUrl            string
	ReadHeaderTimeout time.Duration
	MaxUploadSize     int64

	// Artwork store
	StoreDriver   string // "postgres" | "memory"
	DatabaseURL   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	DBTablePrefix string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret        string
	JWTTokenDuration time.Duration

	// Operator account
	APIUsername     string
	APIPasswordHash string
	BcryptCost      int

	// Media S3 (any S3 compatible endpoint, GCS interop included)
	MediaS3Endpoint        string
	MediaS3Region          string
	MediaS3AccessKeyID     string
	MediaS3SecretAccessKey string
	MediaS3UsePathStyle    bool
	MediaBucket            string
	MediaPublicURL         string
	MediaPublicRead        bool

	// Local storage, used when no bucket is configured
	LocalAssetsPath string

	// Image pipeline
	ImageSizes       []int
	ImageJPEGQuality int

	// EmailJS relay
	EmailJSBaseURL         string
	EmailJSServiceID       string
	EmailJSTemplateID      string
	EmailJSFrontTemplateID string
	EmailJSPublicKey       string
	EmailJSPrivateKey      string

	// Mailchimp
	MailchimpBaseURL        string
	MailchimpPersonalAPIKey string
	MailchimpPersonalServer string
	MailchimpPersonalListID string
	MailchimpFrontAPIKey    string
	MailchimpFrontServer    string
	MailchimpFrontListID    string

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration
	UploadMaxPerDay   int

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:              getEnv("SERVER_PORT", getEnv("PORT", "8080")),
		Env:               getEnv("ENV", "development"),
		APIUrl:            getEnv("API_URL", "http://localhost:8080"),
		ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", "10s"),
		MaxUploadSize:     int64(getEnvAsInt("MAX_UPLOAD_SIZE", 5*1024*1024)),

		// Artwork store
		StoreDriver:   getEnv("STORE_DRIVER", "postgres"),
		DatabaseURL:   getEnv("DB_CONNECTIONSTRING", ""),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "artcatalog"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "artcatalog"),
		DBSSLMode:     getEnv("DB_SSL_MODE", "disable"),
		DBTablePrefix: getEnv("DB_TABLE_PREFIX", ""),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key"),
		JWTTokenDuration: getEnvAsDuration("JWT_TOKEN_DURATION", "30m"),

		// Operator account
		APIUsername:     getEnv("API_USERNAME", ""),
		APIPasswordHash: getEnv("API_PASSWORD_HASH", ""),
		BcryptCost:      getEnvAsInt("BCRYPT_COST", 10),

		// Media S3
		MediaS3Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaS3Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY_ID", ""),
		MediaS3SecretAccessKey: getEnv("MEDIA_S3_SECRET_ACCESS_KEY", ""),
		MediaS3UsePathStyle:    getEnvAsBool("MEDIA_S3_USE_PATH_STYLE", true),
		MediaBucket:            getEnv("MEDIA_S3_BUCKET", ""),
		MediaPublicURL:         strings.TrimRight(getEnv("MEDIA_PUBLIC_URL", ""), "/"),
		MediaPublicRead:        getEnvAsBool("MEDIA_PUBLIC_READ", true),

		// Local storage
		LocalAssetsPath: getEnv("LOCAL_ASSETS_PATH", "./data/assets"),

		// Image pipeline
		ImageSizes:       getEnvAsIntSlice("IMAGE_SIZES", []int{300, 800, 1600}),
		ImageJPEGQuality: getEnvAsInt("IMAGE_JPEG_QUALITY", 85),

		// EmailJS
		EmailJSBaseURL:         getEnv("EMAILJS_BASE_URL", "https://api.emailjs.com"),
		EmailJSServiceID:       getEnv("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID:      getEnv("EMAILJS_TEMPLATE_ID", ""),
		EmailJSFrontTemplateID: getEnv("EMAILJS_FRONT_TEMPLATE_ID", ""),
		EmailJSPublicKey:       getEnv("EMAILJS_PUBLIC_KEY", ""),
		EmailJSPrivateKey:      getEnv("EMAILJS_PRIVATE_KEY", ""),

		// Mailchimp
		MailchimpBaseURL:        getEnv("MAILCHIMP_BASE_URL", ""),
		MailchimpPersonalAPIKey: getEnv("MAILCHIMP_PERSONAL_API_KEY", ""),
		MailchimpPersonalServer: getEnv("MAILCHIMP_PERSONAL_DATA_SERVER", ""),
		MailchimpPersonalListID: getEnv("MAILCHIMP_PERSONAL_LIST_ID", ""),
		MailchimpFrontAPIKey:    getEnv("MAILCHIMP_FRONT_API_KEY", ""),
		MailchimpFrontServer:    getEnv("MAILCHIMP_FRONT_DATA_SERVER", ""),
		MailchimpFrontListID:    getEnv("MAILCHIMP_FRONT_LIST_ID", ""),

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),
		UploadMaxPerDay:   getEnvAsInt("UPLOAD_MAX_PER_DAY", 50),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

// UsesS3 reports whether artwork images go to a bucket instead of local disk.
func (c *Config) UsesS3() bool {
	return c.MediaBucket != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsIntSlice(key string, defaultValue []int) []int {
	parts := getEnvAsSlice(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return defaultValue
		}
		out = append(out, n)
	}
	return out
}
