package main

import (
	"strings"
	"testing"
)

func TestSyncCmd_Help(t *testing.T) {
	out, err := runCLI(t, "sync", "--help")
	if err != nil {
		t.Fatalf("sync --help failed: %v", err)
	}
	for _, flag := range []string{"--once", "--schedule"} {
		if !strings.Contains(out, flag) {
			t.Errorf("expected help to mention %q, got: %s", flag, out)
		}
	}
}

func TestSyncCmd_OnceEmptyInventory(t *testing.T) {
	cfg := writeTestConfig(t)
	out, err := runCLI(t, "sync", "--once", "-c", cfg)
	if err != nil {
		t.Fatalf("sync --once failed: %v", err)
	}
	if !strings.Contains(out, "pushed 0 sibling(s), 0 failure(s)") {
		t.Errorf("output = %q, want empty sync summary", out)
	}
}
