package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ProtocolVersion != 4 {
		t.Errorf("default ProtocolVersion = %d, want 4", cfg.ProtocolVersion)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("default ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.DefaultMaxHour != 3 {
		t.Errorf("default DefaultMaxHour = %d, want 3", cfg.DefaultMaxHour)
	}
}

func TestLoadRespectsEnvOverrides(t *testing.T) {
	t.Setenv("MTR_PROTOCOL_VERSION", "3")
	t.Setenv("MTR_LISTEN_ADDR", ":9090")
	cfg := Load()
	if cfg.ProtocolVersion != 3 {
		t.Errorf("ProtocolVersion = %d, want 3 from env override", cfg.ProtocolVersion)
	}
	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want :9090 from env override", cfg.ListenAddr)
	}
}

func TestLoadIgnoresUnparsableInt(t *testing.T) {
	t.Setenv("MTR_DEFAULT_MAX_HOUR", "not-a-number")
	cfg := Load()
	if cfg.DefaultMaxHour != 3 {
		t.Errorf("an unparsable int override should fall back to the default, got %d", cfg.DefaultMaxHour)
	}
}
