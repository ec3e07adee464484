package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupScaffoldsConfigAndDirectories(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	target := filepath.Join(home, "config.toml")

	output, err := runCommand(t, "setup", "--path", target)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if !strings.Contains(output, "Wrote sample configuration") {
		t.Fatalf("expected scaffold confirmation, got %q", output)
	}
	if !strings.Contains(output, "Warning") {
		t.Fatalf("expected credential file warnings, got %q", output)
	}

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}
	stagingDir := filepath.Join(home, ".local", "share", "reelpost", "staging")
	if info, err := os.Stat(stagingDir); err != nil || !info.IsDir() {
		t.Fatalf("staging directory not created: %v", err)
	}
}

func TestSetupDoesNotOverwriteExistingConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	target := filepath.Join(home, "config.toml")

	if err := os.WriteFile(target, []byte("staging_dir = \"ignored\"\n"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}

	output, err := runCommand(t, "setup", "--path", target)
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if !strings.Contains(output, "already exists") {
		t.Fatalf("expected overwrite refusal, got %q", output)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "ignored") {
		t.Fatal("existing config was overwritten")
	}
}
