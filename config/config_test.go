package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Serial.Device != "auto" {
		t.Errorf("expected Device=auto, got=%s", cfg.Serial.Device)
	}
	if cfg.Serial.Defaults.BaudRate != 9600 {
		t.Errorf("expected BaudRate=9600, got=%d", cfg.Serial.Defaults.BaudRate)
	}
	if cfg.Serial.Defaults.ReadTimeoutMs != 500 {
		t.Errorf("expected ReadTimeoutMs=500, got=%d", cfg.Serial.Defaults.ReadTimeoutMs)
	}
	if cfg.TickInterval() != 16*time.Millisecond {
		t.Errorf("expected 16ms tick, got=%v", cfg.TickInterval())
	}
}

func TestLoadMergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	os.WriteFile(path, []byte(`
serial:
  device: /dev/ttyACM0
  defaults:
    baud_rate: 115200
game:
  difficulty: 2
`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyACM0" {
		t.Errorf("expected device from file, got=%s", cfg.Serial.Device)
	}
	if cfg.Serial.Defaults.BaudRate != 115200 {
		t.Errorf("expected baud 115200 from file, got=%d", cfg.Serial.Defaults.BaudRate)
	}
	if cfg.Game.Difficulty != 2 {
		t.Errorf("expected difficulty 2, got=%d", cfg.Game.Difficulty)
	}
	// untouched keys keep their defaults
	if cfg.Serial.Defaults.ReadTimeoutMs != 500 {
		t.Errorf("expected default read timeout, got=%d", cfg.Serial.Defaults.ReadTimeoutMs)
	}
	if cfg.Game.TickIntervalMs != 16 {
		t.Errorf("expected default tick interval, got=%d", cfg.Game.TickIntervalMs)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	os.WriteFile(path, []byte("serial:\n  defaults:\n    read_timeout_ms: 0\n"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for zero read timeout")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BATTLELINK_DEVICE", "COM7")
	t.Setenv("BATTLELINK_BAUD_RATE", "57600")
	t.Setenv("BATTLELINK_LOG_LEVEL", "debug")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if cfg.Serial.Device != "COM7" {
		t.Errorf("expected device COM7, got=%s", cfg.Serial.Device)
	}
	if cfg.Serial.Defaults.BaudRate != 57600 {
		t.Errorf("expected baud 57600, got=%d", cfg.Serial.Defaults.BaudRate)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got=%s", cfg.Logging.Level)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bridge.yaml")
	cfg := DefaultConfig()
	cfg.Serial.Device = "/dev/ttyUSB3"
	cfg.Server.WebSocketEnabled = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Serial.Device != "/dev/ttyUSB3" {
		t.Errorf("expected device /dev/ttyUSB3, got=%s", loaded.Serial.Device)
	}
	if !loaded.Server.WebSocketEnabled {
		t.Error("expected websocket to stay enabled")
	}
}
