package planner

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDecodeConfigYAML(t *testing.T) {
	data := "amperage:\n  min: 6\n  max: 32\ntolerances:\n  late_minutes: 15\n"
	cfg, err := DecodeConfig(bytes.NewBufferString(data), "yaml")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Amperage.Min != 6 || cfg.Amperage.Max != 32 {
		t.Fatalf("unexpected range %+v", cfg.Amperage)
	}
	if cfg.Tolerances.Late() != 15*time.Minute {
		t.Fatalf("unexpected late tolerance %v", cfg.Tolerances.Late())
	}
	if cfg.Tolerances.Early() != 2*time.Hour {
		t.Fatalf("early tolerance default not applied: %v", cfg.Tolerances.Early())
	}
}

func TestDecodeConfigErrors(t *testing.T) {
	if _, err := DecodeConfig(bytes.NewBufferString(`{"amperage":{"min":10,"max":2}}`), "json"); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := DecodeConfig(bytes.NewBufferString(""), "toml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.json")
	if err := os.WriteFile(path, []byte(`{"tolerances":{"early_minutes":90}}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Amperage != DefaultAmperageRange {
		t.Fatalf("default range not applied: %+v", cfg.Amperage)
	}
	if cfg.Tolerances.Early() != 90*time.Minute {
		t.Fatalf("unexpected early tolerance %v", cfg.Tolerances.Early())
	}
}

func TestAmperageRangeValues(t *testing.T) {
	vals := DefaultAmperageRange.Values()
	if len(vals) != 12 || vals[0] != 5 || vals[11] != 16 {
		t.Fatalf("unexpected values %v", vals)
	}
	if DefaultAmperageRange.Contains(17) || !DefaultAmperageRange.Contains(5) {
		t.Fatal("contains mismatch")
	}
}

func TestDecodeConfig_ZeroToleranceIsKept(t *testing.T) {
	cfg, err := DecodeConfig(bytes.NewBufferString("tolerances:\n  late_minutes: 0\n"), "yaml")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Tolerances.Late() != 0 {
		t.Fatalf("explicit zero late tolerance replaced: %v", cfg.Tolerances.Late())
	}
	if cfg.Tolerances.Early() != 2*time.Hour {
		t.Fatalf("early tolerance default not applied: %v", cfg.Tolerances.Early())
	}
	var zero Tolerances
	if zero.Late() != 30*time.Minute {
		t.Fatalf("unset late tolerance: %v", zero.Late())
	}
}
