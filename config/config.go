// Package config loads the assistant configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every setting the assistant needs. It is built once at startup
// and passed to constructors; nothing reads the environment after Load.
type Config struct {
	// MoodleURL is the base URL of the Moodle site (without the webservice path).
	MoodleURL string
	// MoodleToken authenticates the bound assistant account against the
	// Moodle web-service endpoint and file downloads.
	MoodleToken string

	// OpenAIAPIKey authenticates chat-completion and embedding calls.
	OpenAIAPIKey string
	// OpenAIBaseURL overrides the OpenAI API base URL when set.
	OpenAIBaseURL string

	// ChatModel is the chat-completion model used for replies, intent
	// classification and activity selection.
	ChatModel string
	// EmbeddingModel is the embedding model for course content and questions.
	EmbeddingModel string
	// EmbeddingDimension, when > 0, is enforced on every returned vector.
	EmbeddingDimension int

	// Port is the webhook HTTP server port.
	Port int

	// SystemPromptPath optionally points to a file with the reply
	// instruction template; the built-in template is used when empty.
	SystemPromptPath string

	// PIDFile and LogFile are used by the background service commands.
	PIDFile string
	LogFile string
}

// Load reads configuration from a .env file (when present) and the
// environment. MOODLE_URL, TOKEN and OPENAI_API_KEY are required.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MoodleURL:        os.Getenv("MOODLE_URL"),
		MoodleToken:      os.Getenv("TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		ChatModel:        getEnv("CHAT_MODEL", "gpt-4.1"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		SystemPromptPath: os.Getenv("SYSTEM_PROMPT_PATH"),
		PIDFile:          getEnv("PID_FILE", "asistente.pid"),
		LogFile:          getEnv("LOG_FILE", "asistente.log"),
		Port:             8765,
	}

	if cfg.MoodleURL == "" {
		return Config{}, fmt.Errorf("MOODLE_URL is required")
	}
	if cfg.MoodleToken == "" {
		return Config{}, fmt.Errorf("TOKEN is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if p := os.Getenv("PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT: %w", err)
		}
		cfg.Port = port
	}

	if d := os.Getenv("EMBEDDING_DIMENSION"); d != "" {
		dim, err := strconv.Atoi(d)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EMBEDDING_DIMENSION: %w", err)
		}
		cfg.EmbeddingDimension = dim
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
