// SPDX-License-Identifier: MPL-2.0

package imagecache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestGuard(t *testing.T) (*Guard, string) {
	t.Helper()
	root := t.TempDir()
	ctx := filepath.Join(root, "automation", "clang-format")
	writeFile(t, filepath.Join(ctx, "Dockerfile"), "FROM ubuntu\n")
	writeFile(t, filepath.Join(ctx, "setup.sh"), "#!/bin/bash\n")
	return NewGuard(root, ""), ctx
}

func TestIsStaleFirstRun(t *testing.T) {
	guard, ctx := newTestGuard(t)

	stale, err := guard.IsStale(ctx)
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Error("IsStale() = false on first run, want true")
	}

	if _, err := os.Stat(guard.SentinelPath()); err != nil {
		t.Errorf("sentinel not persisted: %v", err)
	}
}

func TestIsStaleUnchangedContent(t *testing.T) {
	guard, ctx := newTestGuard(t)

	if _, err := guard.IsStale(ctx); err != nil {
		t.Fatal(err)
	}

	stale, err := guard.IsStale(ctx)
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if stale {
		t.Error("IsStale() = true for unchanged content, want false")
	}
}

func TestIsStaleAfterContentChange(t *testing.T) {
	guard, ctx := newTestGuard(t)

	if _, err := guard.IsStale(ctx); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(ctx, "Dockerfile"), "FROM debian\n")

	stale, err := guard.IsStale(ctx)
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Error("IsStale() = false after content change, want true")
	}

	// The sentinel now holds the new digest, so a third check is fresh.
	stale, err = guard.IsStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stale {
		t.Error("IsStale() = true after sentinel update, want false")
	}
}

func TestIsStaleAfterNewFile(t *testing.T) {
	guard, ctx := newTestGuard(t)

	if _, err := guard.IsStale(ctx); err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(ctx, "extra.conf"), "x=1\n")

	stale, err := guard.IsStale(ctx)
	if err != nil {
		t.Fatalf("IsStale() error = %v", err)
	}
	if !stale {
		t.Error("IsStale() = false after adding a file, want true")
	}
}

func TestIsStaleMissingDir(t *testing.T) {
	guard, _ := newTestGuard(t)

	if _, err := guard.IsStale(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("IsStale() error = nil for missing directory, want error")
	}
}

func TestCustomSentinelName(t *testing.T) {
	root := t.TempDir()
	guard := NewGuard(root, ".my-hash")

	if got := guard.SentinelPath(); got != filepath.Join(root, ".my-hash") {
		t.Errorf("SentinelPath() = %q, want custom name under root", got)
	}
}
