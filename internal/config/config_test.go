package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "serverstatus.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Timeout() != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", cfg.Timeout())
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0].Name != "Login Server" {
		t.Fatalf("unexpected default targets: %+v", cfg.Targets)
	}
	if got := cfg.Targets[0].Ports; len(got) != 1 || got[0] != 6900 {
		t.Errorf("default ports = %v, want [6900]", got)
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strip.Field != "unidentifiedUFO" {
		t.Errorf("strip field = %q", cfg.Strip.Field)
	}
}

func TestLoad_OverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
timeout_seconds: 1
concurrency: 4
targets:
  - host: " 127.0.0.1 "
    ports: [6900, 6121]
links:
  url: https://example.com
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.TimeoutSeconds != 1 || cfg.Concurrency != 4 {
		t.Errorf("got timeout=%d concurrency=%d", cfg.TimeoutSeconds, cfg.Concurrency)
	}
	target := cfg.Targets[0]
	if target.Host != "127.0.0.1" {
		t.Errorf("host not trimmed: %q", target.Host)
	}
	if target.ID != "127.0.0.1" || target.Name != "127.0.0.1" {
		t.Errorf("id/name fallback: %+v", target)
	}
	if cfg.Links.TimeoutSeconds != 10 {
		t.Errorf("links timeout default = %d", cfg.Links.TimeoutSeconds)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr default = %q", cfg.Server.Addr)
	}
}

func TestLoad_NonPositiveValuesResetToDefaults(t *testing.T) {
	path := writeConfig(t, `
timeout_seconds: 0
concurrency: -3
targets:
  - id: a
    host: localhost
    ports: [1]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TimeoutSeconds != 3 || cfg.Concurrency != 1 {
		t.Errorf("got timeout=%d concurrency=%d", cfg.TimeoutSeconds, cfg.Concurrency)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := map[string]string{
		"no targets":   "targets: []\n",
		"missing host": "targets:\n  - id: a\n    ports: [80]\n",
		"no ports":     "targets:\n  - id: a\n    host: h\n",
		"port range":   "targets:\n  - id: a\n    host: h\n    ports: [70000]\n",
		"port zero":    "targets:\n  - id: a\n    host: h\n    ports: [0]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "targets: [\n"))
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestValidatePort(t *testing.T) {
	for _, p := range []int{1, 80, 65535} {
		if err := ValidatePort(p); err != nil {
			t.Errorf("ValidatePort(%d) = %v", p, err)
		}
	}
	for _, p := range []int{-1, 0, 65536} {
		if err := ValidatePort(p); err == nil {
			t.Errorf("ValidatePort(%d) expected error", p)
		}
	}
}

func TestLoad_ConvertSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
targets:
  - host: 127.0.0.1
    ports: [6900]
convert:
  output: items.json
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Convert.Input != "iteminfo.txt" || cfg.Convert.Output != "items.json" {
		t.Errorf("convert = %+v", cfg.Convert)
	}
}
