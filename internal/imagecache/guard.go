// SPDX-License-Identifier: MPL-2.0

// Package imagecache decides whether the formatter container image must be
// rebuilt by content-hashing its build directory.
package imagecache

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultSentinelName is the sentinel file holding the last build's digest.
const DefaultSentinelName = ".formatter-image.hash"

// Guard compares a directory's content digest against the persisted digest
// of the last image build.
type Guard struct {
	repoRoot     string
	sentinelName string
}

// NewGuard creates a Guard persisting its sentinel file at repoRoot.
// An empty sentinelName selects DefaultSentinelName.
func NewGuard(repoRoot, sentinelName string) *Guard {
	if sentinelName == "" {
		sentinelName = DefaultSentinelName
	}
	return &Guard{repoRoot: repoRoot, sentinelName: sentinelName}
}

// SentinelPath returns the path of the sentinel file.
func (g *Guard) SentinelPath() string {
	return filepath.Join(g.repoRoot, g.sentinelName)
}

// IsStale reports whether dir's contents changed since the digest was last
// persisted, overwriting the sentinel with the new digest when they did.
// A missing sentinel counts as an empty prior digest, so the first call is
// always stale. Because the check mutates persisted state, callers must not
// invoke it speculatively: a "stale" answer commits them to rebuilding.
func (g *Guard) IsStale(dir string) (bool, error) {
	digest, err := g.hashTree(dir)
	if err != nil {
		return false, fmt.Errorf("failed to hash %s: %w", dir, err)
	}

	previous, err := g.readSentinel()
	if err != nil {
		return false, err
	}

	if digest == previous {
		return false, nil
	}

	if err := os.WriteFile(g.SentinelPath(), []byte(digest+"\n"), 0o644); err != nil {
		return false, fmt.Errorf("failed to persist image digest: %w", err)
	}
	return true, nil
}

// hashTree feeds the contents of every regular file under dir into a single
// running SHA-256 digest. The walk order is deliberately left unsorted: a
// platform-dependent order can only produce a spurious rebuild, never a
// wrong "fresh" answer for changed content, and sorting would invalidate
// every sentinel written so far.
func (g *Guard) hashTree(dir string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// readSentinel returns the first line of the sentinel file, or "" when the
// file does not exist yet.
func (g *Guard) readSentinel() (string, error) {
	f, err := os.Open(g.SentinelPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read sentinel file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", scanner.Err()
}
