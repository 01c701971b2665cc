package config

import "testing"

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("TELOXIDE_TOKEN", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() without TELOXIDE_TOKEN should fail")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TELOXIDE_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ADMIN_CHAT_ID", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TeloxideToken != "123:abc" {
		t.Errorf("TeloxideToken = %q", cfg.TeloxideToken)
	}
	if cfg.DatabaseURL != defaultDatabaseURL {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, defaultDatabaseURL)
	}
	if cfg.AdminChatID != 0 {
		t.Errorf("AdminChatID = %d, want 0", cfg.AdminChatID)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TELOXIDE_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "/tmp/prices.db")
	t.Setenv("ADMIN_CHAT_ID", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "/tmp/prices.db" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.AdminChatID != 42 {
		t.Errorf("AdminChatID = %d, want 42", cfg.AdminChatID)
	}
}

func TestLoad_BadAdminID(t *testing.T) {
	t.Setenv("TELOXIDE_TOKEN", "123:abc")
	t.Setenv("ADMIN_CHAT_ID", "not-a-number")
	if _, err := Load(); err == nil {
		t.Fatal("Load() with unparseable ADMIN_CHAT_ID should fail")
	}
}
