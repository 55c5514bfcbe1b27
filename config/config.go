package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultProxyEndpoints are the mirrors tried, in order, for remote audio.
var DefaultProxyEndpoints = []string{
	"https://inv.nadeko.net",
	"https://invidious.nerdvpn.de",
	"https://yewtu.be",
	"https://invidious.privacyredirect.com",
}

const DefaultCORSRelay = "https://corsproxy.io/?url="

type Config struct {
	Port string

	Transcriber   string // gemini | openai
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	TargetLanguage     string
	TargetScript       string
	LanguageCode       string
	UnclearPlaceholder string

	ProxyEndpoints []string
	CORSRelay      string
	FetchTimeout   time.Duration
	BodyLimit      int
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}
	return FromEnv()
}

// FromEnv builds and validates a Config from environment variables only.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:               getEnv("PORT", "3000"),
		Transcriber:        strings.ToLower(getEnv("TRANSCRIBER", "gemini")),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		OpenAIAPIKey:       os.Getenv("OPEN_AI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "whisper-1"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		TargetLanguage:     getEnv("TARGET_LANGUAGE", "Hindi"),
		TargetScript:       getEnv("TARGET_SCRIPT", "Devanagari"),
		LanguageCode:       getEnv("LANGUAGE_CODE", "hi"),
		UnclearPlaceholder: getEnv("UNCLEAR_PLACEHOLDER", "[अस्पष्ट ऑडियो]"),
		ProxyEndpoints:     getList("PROXY_ENDPOINTS", DefaultProxyEndpoints),
		CORSRelay:          getEnv("CORS_RELAY", DefaultCORSRelay),
		FetchTimeout:       getSeconds("FETCH_TIMEOUT", 45*time.Second),
		BodyLimit:          getInt("BODY_LIMIT_MB", 50) << 20,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Transcriber {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set for the gemini transcriber")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPEN_AI_API_KEY must be set for the openai transcriber")
		}
	default:
		return fmt.Errorf("unknown TRANSCRIBER %q (want gemini or openai)", c.Transcriber)
	}
	if len(c.ProxyEndpoints) == 0 {
		return fmt.Errorf("PROXY_ENDPOINTS must list at least one endpoint")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
