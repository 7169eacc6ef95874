package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URI", "postgres://x")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("SESSION_IDLE", "")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("OUTLOOK_TENANT_ID", "")
	t.Setenv("GOOGLE_CLIENT_ID", "id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DatabaseURI != "postgres://x" || cfg.ListenAddr != "127.0.0.1:8080" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.RemoteTimeout != 3*time.Second {
		t.Errorf("timeout = %s", cfg.RemoteTimeout)
	}
	if cfg.SessionIdle != 12*time.Hour {
		t.Errorf("session idle = %s", cfg.SessionIdle)
	}
	if cfg.TelegramChatID != -1001 {
		t.Errorf("chat id = %d", cfg.TelegramChatID)
	}
	if cfg.Outlook.TenantID != "common" || cfg.Outlook.Enabled() {
		t.Errorf("outlook = %+v", cfg.Outlook)
	}
	if !cfg.Google.Enabled() {
		t.Error("google should be enabled")
	}
}

func TestDurationFallback(t *testing.T) {
	t.Setenv("REMOTE_TIMEOUT", "soon")
	if got := getDurationOrDefault("REMOTE_TIMEOUT", time.Minute); got != time.Minute {
		t.Errorf("got %s", got)
	}
}
