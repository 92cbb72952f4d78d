package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, "env: local\nsite_url: https://rec.example.com/\n")
	t.Setenv("SENDGRID_API_KEY", "SG.key")
	t.Setenv("SENDGRID_FROM_EMAIL", "noreply@example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPServer.Address != "localhost:8080" {
		t.Fatalf("expected default address, got %q", cfg.HTTPServer.Address)
	}
	if cfg.ObjectStorage.BucketName != "videos" {
		t.Fatalf("expected default bucket, got %q", cfg.ObjectStorage.BucketName)
	}
	if len(cfg.Media.AllowedMimeTypes) != 3 {
		t.Fatalf("expected 3 default mime types, got %v", cfg.Media.AllowedMimeTypes)
	}
	if err := cfg.Email.Validate(); err != nil {
		t.Fatalf("expected email config to validate, got %v", err)
	}
	site, err := cfg.PublicSiteURL()
	if err != nil || site != "https://rec.example.com" {
		t.Fatalf("unexpected site url %q (%v)", site, err)
	}
	if !cfg.IsLocal() {
		t.Fatal("expected local env")
	}
}

func TestLoadFallsBackToNextPublicSiteURL(t *testing.T) {
	path := writeConfig(t, "env: production\n")
	t.Setenv("SITE_URL", "")
	t.Setenv("NEXT_PUBLIC_SITE_URL", "https://fallback.example.com")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SiteURL != "https://fallback.example.com" {
		t.Fatalf("expected fallback site url, got %q", cfg.SiteURL)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEmailValidate(t *testing.T) {
	tests := []struct {
		name  string
		email Email
		want  error
	}{
		{"no key", Email{Provider: "sendgrid", FromAddress: "a@b.c"}, ErrEmailAPIKeyMissing},
		{"no sender", Email{Provider: "sendgrid", SendGridAPIKey: "k"}, ErrEmailSenderMissing},
		{"resend uses its own key", Email{Provider: "resend", SendGridAPIKey: "k", FromAddress: "a@b.c"}, ErrEmailAPIKeyMissing},
		{"ok", Email{Provider: "resend", ResendAPIKey: "k", FromAddress: "a@b.c"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.email.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPublicSiteURLMissing(t *testing.T) {
	cfg := &Config{}
	if _, err := cfg.PublicSiteURL(); !errors.Is(err, ErrSiteURLMissing) {
		t.Fatalf("expected ErrSiteURLMissing, got %v", err)
	}
}
