package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Hazem-dh/FHEarts/params"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoadConfig(t *testing.T) {
	file := writeFile(t, `
SearchBatchSize = 25
MinAge = 21
LogLevel = "debug"

[Coprocessor]
PlaintextCache = 128
`)
	cfg := params.DefaultConfig
	if err := loadConfig(file, &cfg); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.SearchBatchSize != 25 || cfg.MinAge != 21 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %v", &cfg)
	}
	if cfg.Coprocessor.PlaintextCache != 128 {
		t.Fatalf("plaintext cache mismatch: have %d, want 128", cfg.Coprocessor.PlaintextCache)
	}
	if cfg.StateCacheMB != params.DefaultConfig.StateCacheMB {
		t.Fatalf("unset field overwritten: have %d", cfg.StateCacheMB)
	}
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := writeFile(t, "MinAge = 21\nMaxAge = 99\n")
	cfg := params.DefaultConfig
	err := loadConfig(file, &cfg)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "MaxAge") {
		t.Fatalf("error does not name the field: %v", err)
	}
}

func TestDumpConfigRoundTrip(t *testing.T) {
	cfg := params.DefaultConfig
	cfg.DataDir = "/var/lib/fhearts"
	cfg.SearchBatchSize = 7
	cfg.Coprocessor.KeyFile = "/etc/fhearts/coprocessor.key"

	var buf bytes.Buffer
	if err := writeConfig(&buf, &cfg); err != nil {
		t.Fatalf("failed to dump config: %v", err)
	}
	file := writeFile(t, buf.String())

	var loaded params.Config
	if err := loadConfig(file, &loaded); err != nil {
		t.Fatalf("failed to load dumped config: %v\n%s", err, buf.String())
	}
	if loaded != cfg {
		t.Fatalf("config mismatch:\nhave %+v\nwant %+v", loaded, cfg)
	}
}

func TestFormatPhone(t *testing.T) {
	tests := []struct {
		cc, zeros, digits uint64
		want              string
	}{
		{33, 1, 612345678, "+33 0612345678"},
		{1, 0, 5551002, "+1 5551002"},
		{44, 2, 7, "+44 007"},
	}
	for _, tt := range tests {
		if have := formatPhone(tt.cc, tt.zeros, tt.digits); have != tt.want {
			t.Errorf("formatPhone(%d, %d, %d) = %q, want %q", tt.cc, tt.zeros, tt.digits, have, tt.want)
		}
	}
}
