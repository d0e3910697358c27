package main

import (
	"path/filepath"
	"testing"
)

func TestMappingsAssignListRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	musicDir := filepath.Join(env.cfg.Library.MusicDir, "dark_side_of_the_moon")

	out, _, err := runCLI(t, []string{"mappings", "assign", "123456", musicDir, "--artist", "Pink Floyd"}, env.configPath)
	if err != nil {
		t.Fatalf("mappings assign: %v", err)
	}
	requireContains(t, out, "Assigned 123456")
	requireContains(t, out, "Dark Side Of The Moon")

	out, _, err = runCLI(t, []string{"mappings", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("mappings list: %v", err)
	}
	requireContains(t, out, "123456")
	requireContains(t, out, "Pink Floyd")

	if _, _, err := runCLI(t, []string{"mappings", "assign", "123456", musicDir + "-2"}, env.configPath); err == nil {
		t.Fatal("expected duplicate tag assignment to fail")
	}
	if _, _, err := runCLI(t, []string{"mappings", "assign", "654321", musicDir}, env.configPath); err == nil {
		t.Fatal("expected assignment of a taken directory to fail")
	}

	out, _, err = runCLI(t, []string{"mappings", "remove", "123456"}, env.configPath)
	if err != nil {
		t.Fatalf("mappings remove: %v", err)
	}
	requireContains(t, out, "Removed mapping")

	out, _, err = runCLI(t, []string{"mappings", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("mappings list after remove: %v", err)
	}
	requireContains(t, out, "No mappings assigned yet")

	if _, _, err := runCLI(t, []string{"mappings", "remove", "123456"}, env.configPath); err == nil {
		t.Fatal("expected removal of an unassigned tag to fail")
	}
}
