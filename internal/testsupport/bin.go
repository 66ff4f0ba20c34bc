package testsupport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// WriteScript writes an executable shell script standing in for an external
// binary and returns its path. Tests using it are skipped on Windows.
func WriteScript(t testing.TB, dir, name, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a POSIX shell")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", path, err)
	}
	return path
}
