package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveAndEnsureDBPath_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "registry.db")

	got, err := ResolveAndEnsureDBPath(target)
	if err != nil {
		t.Fatalf("ResolveAndEnsureDBPath failed: %v", err)
	}
	if got != target {
		t.Errorf("Expected %s, got %s", target, got)
	}
	if info, err := os.Stat(filepath.Dir(target)); err != nil || !info.IsDir() {
		t.Errorf("Expected directory to be created: %v", err)
	}
}

func TestResolveAndEnsureDBPath_Memory(t *testing.T) {
	got, err := ResolveAndEnsureDBPath(":memory:")
	if err != nil || got != ":memory:" {
		t.Errorf("Expected :memory: to pass through, got %q, %v", got, err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandHome("~/gifts/db")
	if err != nil {
		t.Fatalf("ExpandHome failed: %v", err)
	}
	if got != filepath.Join(home, "gifts", "db") {
		t.Errorf("Unexpected expansion %s", got)
	}
	if got, _ := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("Absolute paths must be untouched, got %s", got)
	}
}

func TestDefaultPathsMentionApp(t *testing.T) {
	if !strings.Contains(GetDefaultDBPathOnly(), "giftjourney") {
		t.Errorf("Unexpected default db path %s", GetDefaultDBPathOnly())
	}
}
