package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type DB struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type MinIO struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	// PublicBaseURL is prepended to bucket/object paths when a stored
	// value is a relative storage path rather than an absolute URL.
	PublicBaseURL string
}

// Buckets fixes the object storage layout.
type Buckets struct {
	ProfileImages string
	StoryCovers   string
	StoryImages   string
	AudioStories  string
	Media         string
}

type Config struct {
	ServerPort           int
	DB                   DB
	MinIO                MinIO
	Buckets              Buckets
	JWTSecretKey         string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
	ResetTokenDuration   time.Duration
	MaxUploadSize        int64
	MaxStoryWords        int
	FeedPageSize         int
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return duration
}

func LoadDB() DB {
	return DB{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "password"),
		Name:     getEnv("DB_NAME", "talehub"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func LoadMinIO() MinIO {
	return MinIO{
		Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:     getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		SecretKey:     getEnv("MINIO_SECRET_KEY", "minioadmin"),
		UseSSL:        getEnvBool("MINIO_USE_SSL", false),
		Region:        getEnv("MINIO_REGION", "us-east-1"),
		PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", "http://localhost:9000"),
	}
}

func LoadBuckets() Buckets {
	return Buckets{
		ProfileImages: getEnv("BUCKET_PROFILE_IMAGES", "profile-images"),
		StoryCovers:   getEnv("BUCKET_STORY_COVERS", "story-covers"),
		StoryImages:   getEnv("BUCKET_STORY_IMAGES", "story-images"),
		AudioStories:  getEnv("BUCKET_AUDIO_STORIES", "audio-stories"),
		Media:         getEnv("BUCKET_MEDIA", "media"),
	}
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	return &Config{
		ServerPort:           getEnvAsInt("SERVER_PORT", 8080),
		DB:                   LoadDB(),
		MinIO:                LoadMinIO(),
		Buckets:              LoadBuckets(),
		JWTSecretKey:         getEnv("JWT_SECRET_KEY", ""),
		AccessTokenDuration:  parseDuration(getEnv("ACCESS_TOKEN_DURATION", "2h"), 2*time.Hour),
		RefreshTokenDuration: parseDuration(getEnv("REFRESH_TOKEN_DURATION", "168h"), 168*time.Hour),
		ResetTokenDuration:   parseDuration(getEnv("RESET_TOKEN_DURATION", "1h"), time.Hour),
		MaxUploadSize:        getEnvAsInt64("MAX_UPLOAD_SIZE", 10*1024*1024),
		MaxStoryWords:        getEnvAsInt("MAX_STORY_WORDS", 2000),
		FeedPageSize:         getEnvAsInt("FEED_PAGE_SIZE", 20),
	}
}
