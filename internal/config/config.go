package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Connection pool bounds for the underlying sql.DB.
	DBPoolMin int
	DBPoolMax int

	ServerPort string
	JWTSecret  string

	// Dimension every stored embedding must have.
	EmbeddingDim int

	// Capacity of the in-memory song cache.
	CacheSize int

	// Hybrid search fusion weights. Empirical constants from tuning, kept
	// configurable rather than baked into the queries.
	FTSWeight             float64
	TrigramWeight         float64
	VectorWeight          float64
	TextFTSWeight         float64
	TextTrigramWeight     float64
	AutocompleteThreshold float64
	TrigramThreshold      float64
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	env := getEnv("ENV", "development")

	var dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode string
	if env == "production" {
		dbHost = getEnv("DB_HOST", "")
		dbPort = getEnv("DB_PORT", "5432")
		dbUser = getEnv("DB_USER", "")
		dbPassword = getEnv("DB_PASSWORD", "")
		dbName = getEnv("DB_NAME", "")
		dbSSLMode = getEnv("DB_SSLMODE", "require")
	} else {
		dbHost = getEnv("DB_HOST", "localhost")
		dbPort = getEnv("DB_PORT", "5432")
		dbUser = getEnv("DB_USER", "postgres")
		dbPassword = getEnv("DB_PASSWORD", "password")
		dbName = getEnv("DB_NAME", "song_recommender")
		dbSSLMode = getEnv("DB_SSLMODE", "disable")
	}

	cfg := &Config{
		DBHost:     dbHost,
		DBPort:     dbPort,
		DBUser:     dbUser,
		DBPassword: dbPassword,
		DBName:     dbName,
		DBSSLMode:  dbSSLMode,

		DBPoolMin: getEnvInt("DB_POOL_MIN", 1),
		DBPoolMax: getEnvInt("DB_POOL_MAX", 10),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		JWTSecret:  getEnv("JWT_SECRET", "default-jwt-secret-change-in-production"),

		EmbeddingDim: getEnvInt("EMBEDDING_DIM", 512),
		CacheSize:    getEnvInt("CACHE_SIZE", 100),

		FTSWeight:             getEnvFloat("SEARCH_FTS_WEIGHT", 0.5),
		TrigramWeight:         getEnvFloat("SEARCH_TRGM_WEIGHT", 0.3),
		VectorWeight:          getEnvFloat("SEARCH_VECTOR_WEIGHT", 0.2),
		TextFTSWeight:         getEnvFloat("SEARCH_TEXT_FTS_WEIGHT", 0.6),
		TextTrigramWeight:     getEnvFloat("SEARCH_TEXT_TRGM_WEIGHT", 0.4),
		AutocompleteThreshold: getEnvFloat("AUTOCOMPLETE_THRESHOLD", 0.2),
		TrigramThreshold:      getEnvFloat("TRIGRAM_THRESHOLD", 0.1),
	}

	if cfg.DBPoolMin < 1 {
		cfg.DBPoolMin = 1
	}
	if cfg.DBPoolMax < cfg.DBPoolMin {
		cfg.DBPoolMax = cfg.DBPoolMin
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
