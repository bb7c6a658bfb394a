package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("expected default read timeout, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Catalog.DefaultLocale != "ru" {
		t.Fatalf("expected default locale ru, got %q", cfg.Catalog.DefaultLocale)
	}
	if cfg.Catalog.DefaultCompanySlug != "default" {
		t.Fatalf("expected default company slug, got %q", cfg.Catalog.DefaultCompanySlug)
	}
}

func TestLoadEnvMapPrecedence(t *testing.T) {
	cfg, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{
		"PORT":                   "9090",
		"FIRESTORE_PROJECT_ID":   "catalog-test",
		"TASK_EVENT_TOPIC":       "task-events",
		"CATALOG_DEFAULT_LOCALE": "en",
		"SERVER_READ_TIMEOUT":    "5s",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("expected read timeout 5s, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "catalog-test" {
		t.Fatalf("expected firestore project id, got %q", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "catalog-test" {
		t.Fatalf("expected pubsub project to inherit firestore project, got %q", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.TaskEventTopic != "task-events" {
		t.Fatalf("expected task event topic, got %q", cfg.PubSub.TaskEventTopic)
	}
	if cfg.Catalog.DefaultLocale != "en" {
		t.Fatalf("expected locale en, got %q", cfg.Catalog.DefaultLocale)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	_, err := Load(WithEnvFile(""), WithoutSystemEnv(), WithEnvMap(map[string]string{"PORT": "not-a-port"}))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields := validation.Fields(); len(fields) != 1 || fields[0] != "PORT" {
		t.Fatalf("expected PORT to be flagged, got %#v", fields)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nPORT=7070\nexport CATALOG_DEFAULT_LOCALE=\"en\"\nIGNORED_LINE\n"
	if err := writeFile(path, content); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Fatalf("expected port from file, got %q", cfg.Server.Port)
	}
	if cfg.Catalog.DefaultLocale != "en" {
		t.Fatalf("expected quoted value unwrapped, got %q", cfg.Catalog.DefaultLocale)
	}
}

func TestLoadMissingEnvFileIgnored(t *testing.T) {
	if _, err := Load(WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), WithoutSystemEnv()); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
