package main

import (
	"testing"
	"time"
)

func TestBuildRootHasUpCommand(t *testing.T) {
	root := buildRoot()
	if root.Use != "stackrun" {
		t.Fatalf("root use = %q", root.Use)
	}
	up, _, err := root.Find([]string{"up"})
	if err != nil {
		t.Fatalf("find up: %v", err)
	}
	if up.Use != "up" {
		t.Fatalf("expected the up command, got %q", up.Use)
	}
}

func TestUpFlagDefaults(t *testing.T) {
	up := createUpCommand()
	checks := map[string]string{
		"config":           "config.yaml",
		"project-root":     ".",
		"poll-interval":    time.Second.String(),
		"shutdown-timeout": (10 * time.Second).String(),
		"listen":           "",
		"history-db":       "",
		"log-file":         "",
	}
	for name, want := range checks {
		f := up.Flags().Lookup(name)
		if f == nil {
			t.Fatalf("flag %q not registered", name)
		}
		if f.DefValue != want {
			t.Fatalf("flag %q default = %q, want %q", name, f.DefValue, want)
		}
	}
}

func TestRunUpFatalOnMissingConfig(t *testing.T) {
	code, err := runUp(&UpFlags{ConfigPath: "does-not-exist.yaml", ProjectRoot: "."})
	if err == nil {
		t.Fatal("expected a config error")
	}
	if code != 1 {
		t.Fatalf("code = %d, want 1", code)
	}
}
