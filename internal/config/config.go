package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              string
	DatabaseURL       string
	DBMaxConns        int
	DBMinConns        int
	DBMaxConnLifetime time.Duration
	JWTSecret         []byte
	CORSOrigins       []string
	// Base do link público de assinatura do orçamento
	AppPublicURL      string
	RequestTimeoutSec int
	LogLevel          string
	LogFormat         string
	// WhatsApp (Twilio) para envio do link de assinatura
	TwilioAccountSid   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	// Armazenamento de logos e assinaturas (opcional)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	// Cache compartilhado de imagens; vazio usa cache em memória
	RedisURL          string
	ImageProxyURL     string
	ImageFetchTimeout time.Duration
	ImageCacheTTL     time.Duration
}

// Load lê a configuração do ambiente. Um arquivo .env no diretório atual é carregado antes, se existir.
func Load() *Config {
	_ = godotenv.Load()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if len(jwtSecret) < 32 {
		jwtSecret = "default-secret-min-32-chars-required!!"
	}
	return &Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBMaxConns:         getInt("DB_MAX_CONNS", 0),
		DBMinConns:         getInt("DB_MIN_CONNS", 0),
		DBMaxConnLifetime:  getDuration("DB_MAX_CONN_LIFETIME", 0),
		JWTSecret:          []byte(jwtSecret),
		CORSOrigins:        splitTrim(getEnv("CORS_ORIGINS", "http://localhost:5173"), ","),
		AppPublicURL:       getEnv("APP_PUBLIC_URL", "http://localhost:5173"),
		RequestTimeoutSec:  getInt("REQUEST_TIMEOUT_SEC", 30),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		TwilioAccountSid:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: os.Getenv("TWILIO_WHATSAPP_FROM"),
		MinioEndpoint:      os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:     os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:     os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:        getEnv("MINIO_BUCKET", "odonto"),
		MinioUseSSL:        getBool("MINIO_USE_SSL", false),
		RedisURL:           os.Getenv("REDIS_URL"),
		ImageProxyURL:      os.Getenv("IMAGE_PROXY_URL"),
		ImageFetchTimeout:  getDuration("IMAGE_FETCH_TIMEOUT", 5*time.Second),
		ImageCacheTTL:      getDuration("IMAGE_CACHE_TTL", 10*time.Minute),
	}
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getInt(k string, d int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return d
	}
	return n
}

func getBool(k string, d bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return d
	}
	return b
}

// getDuration aceita "5s", "2m" ou um número inteiro de segundos.
func getDuration(k string, d time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
