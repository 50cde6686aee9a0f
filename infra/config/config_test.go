package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_ParsesEnvAndDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GROUPCHAT_API_URL", "https://example.habitica.test/")
	t.Setenv("GROUPCHAT_USER_ID", " user-1 ")
	t.Setenv("GROUPCHAT_GROUP", "guild-7")
	t.Setenv("GROUPCHAT_RENDER_WORKERS", "8")
	t.Setenv("GROUPCHAT_QUIESCENCE_MS", "")
	t.Setenv("GROUPCHAT_REQUESTS_PER_MINUTE", "0")
	t.Setenv("GROUPCHAT_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIURL != "https://example.habitica.test" {
		t.Fatalf("api url must be normalized: %q", cfg.APIURL)
	}
	if cfg.UserID != "user-1" || cfg.Group != "guild-7" {
		t.Fatalf("unexpected identity: %#v", cfg)
	}
	if cfg.RenderWorkers != 8 || cfg.Quiescence != 150*time.Millisecond || cfg.RequestsPerMinute != 0 {
		t.Fatalf("unexpected tuning: %#v", cfg)
	}
	if cfg.TokenPath != filepath.Join(home, ".config", "groupchat", "token") {
		t.Fatalf("unexpected token path %q", cfg.TokenPath)
	}
}

func TestLoad_Rejections(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non-https", env: map[string]string{"GROUPCHAT_API_URL": "http://insecure.local"}},
		{name: "relative", env: map[string]string{"GROUPCHAT_API_URL": "habitica.com"}},
		{name: "missing user", env: map[string]string{"GROUPCHAT_USER_ID": ""}},
		{name: "bad workers", env: map[string]string{"GROUPCHAT_RENDER_WORKERS": "0"}},
		{name: "bad pacing", env: map[string]string{"GROUPCHAT_REQUESTS_PER_MINUTE": "lots"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GROUPCHAT_API_URL", "")
			t.Setenv("GROUPCHAT_USER_ID", "user-1")
			t.Setenv("GROUPCHAT_RENDER_WORKERS", "")
			t.Setenv("GROUPCHAT_REQUESTS_PER_MINUTE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadDotEnv_DoesNotOverrideAndIgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("GROUPCHAT_GROUP=from-file\nGROUPCHAT_TEST_ONLY=yes\n"), 0o600); err != nil {
		t.Fatalf("write env failed: %v", err)
	}
	t.Setenv("GROUPCHAT_GROUP", "from-env")
	t.Setenv("GROUPCHAT_TEST_ONLY", "")
	os.Unsetenv("GROUPCHAT_TEST_ONLY")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("GROUPCHAT_GROUP"); got != "from-env" {
		t.Fatalf("existing env overridden: %q", got)
	}
	if got := os.Getenv("GROUPCHAT_TEST_ONLY"); got != "yes" {
		t.Fatalf("dotenv value not loaded: %q", got)
	}
}

func TestUIState_LoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state", "ui_state.json")

	st, err := LoadUIState(path)
	if err != nil {
		t.Fatalf("missing state should not error: %v", err)
	}
	if st != (UIState{}) {
		t.Fatalf("expected empty state for missing file")
	}

	want := UIState{Group: "party", LastSeenID: "m1"}
	if err := SaveUIState(path, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := LoadUIState(path)
	if err != nil {
		t.Fatalf("load after save failed: %v", err)
	}
	if got != want {
		t.Fatalf("unexpected loaded state got=%#v want=%#v", got, want)
	}

	if err := os.WriteFile(path, []byte("not-json"), 0o600); err != nil {
		t.Fatalf("write corrupt state failed: %v", err)
	}
	if _, err := LoadUIState(path); err == nil {
		t.Fatalf("expected parse error for invalid json")
	}
}
