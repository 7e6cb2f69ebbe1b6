package config

import "testing"

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MOODLE_URL", "https://campus.example.edu")
	t.Setenv("TOKEN", "moodle-token")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8765 {
		t.Fatalf("unexpected default port %d", cfg.Port)
	}
	if cfg.ChatModel != "gpt-4.1" {
		t.Fatalf("unexpected default chat model %q", cfg.ChatModel)
	}
	if cfg.EmbeddingModel != "text-embedding-3-small" {
		t.Fatalf("unexpected default embedding model %q", cfg.EmbeddingModel)
	}
}

func TestLoadRequiresMoodleURL(t *testing.T) {
	setRequired(t)
	t.Setenv("MOODLE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing MOODLE_URL")
	}
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-port")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("EMBEDDING_DIMENSION", "1536")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected port override, got %d", cfg.Port)
	}
	if cfg.EmbeddingDimension != 1536 {
		t.Fatalf("expected dimension override, got %d", cfg.EmbeddingDimension)
	}
}
