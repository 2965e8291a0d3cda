// SPDX-License-Identifier: MPL-2.0

// Package vcs resolves the set of files a workflow command should act on,
// either from explicit user input or from version control status.
package vcs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"nssdev/internal/issue"
)

// ChangeSet is an ordered sequence of file paths relative to the repository
// root. It is immutable once constructed.
type ChangeSet []string

// System identifies the version control system backing a checkout.
type System int

const (
	SystemNone System = iota
	SystemMercurial
	SystemGit
)

// String returns the lowercase name of the system.
func (s System) String() string {
	switch s {
	case SystemMercurial:
		return "hg"
	case SystemGit:
		return "git"
	default:
		return "none"
	}
}

// formattableSuffixes are the source/header suffixes clang-format handles.
// The filter applies only to auto-detected change sets; explicit paths are
// trusted as-is.
var formattableSuffixes = []string{".c", ".cc", ".cpp", ".h"}

// IsFormattable reports whether path ends in a recognized source or header
// suffix.
func IsFormattable(path string) bool {
	for _, suffix := range formattableSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// ExecCommandFunc is the function signature for creating exec.Cmd.
// It allows injection of mock implementations for testing.
type ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

// Resolver determines change sets for a single repository checkout.
type Resolver struct {
	repoRoot    string
	logger      *log.Logger
	execCommand ExecCommandFunc
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) ResolverOption {
	return func(r *Resolver) {
		r.execCommand = fn
	}
}

// WithLogger sets the logger used for environment-absence warnings.
func WithLogger(logger *log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver rooted at repoRoot.
func NewResolver(repoRoot string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		repoRoot:    repoRoot,
		logger:      log.Default(),
		execCommand: exec.CommandContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Detect reports which version control system backs the checkout, preferring
// Mercurial when both metadata directories are present.
func (r *Resolver) Detect() System {
	if dirExists(filepath.Join(r.repoRoot, ".hg")) {
		return SystemMercurial
	}
	if dirExists(filepath.Join(r.repoRoot, ".git")) {
		return SystemGit
	}
	return SystemNone
}

// Resolve returns the change set to act on.
//
// When explicit paths are given they are normalized to repo-root-relative
// form and returned without any suffix filtering: explicit intent is trusted.
// Otherwise the active version control system is queried for modified, added,
// copied, and unmerged files, and the result is filtered to formattable
// suffixes. A checkout without version control metadata yields an empty set
// and a warning, not an error.
func (r *Resolver) Resolve(ctx context.Context, explicit []string) (ChangeSet, error) {
	if len(explicit) > 0 {
		return r.normalize(explicit)
	}

	var (
		paths []string
		err   error
	)
	switch r.Detect() {
	case SystemMercurial:
		paths, err = r.mercurialStatus(ctx)
	case SystemGit:
		paths, err = r.gitStatus(ctx)
	default:
		r.logger.Warn("no version control metadata found, nothing to format",
			"root", r.repoRoot, "issue", issue.VCSMetadataNotFoundId)
		return ChangeSet{}, nil
	}
	if err != nil {
		return nil, err
	}

	set := make(ChangeSet, 0, len(paths))
	for _, p := range paths {
		if IsFormattable(p) {
			set = append(set, p)
		}
	}
	return set, nil
}

// normalize converts explicit input paths to repo-root-relative form.
func (r *Resolver) normalize(paths []string) (ChangeSet, error) {
	set := make(ChangeSet, 0, len(paths))
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			var err error
			abs, err = filepath.Abs(p)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve path %q: %w", p, err)
			}
		}
		rel, err := filepath.Rel(r.repoRoot, abs)
		if err != nil {
			return nil, fmt.Errorf("path %q is not inside the repository: %w", p, err)
		}
		set = append(set, filepath.ToSlash(rel))
	}
	return set, nil
}

// gitStatus queries `git status --porcelain` and keeps modified, added,
// copied, and unmerged entries. Deletions are dropped; a rename contributes
// its destination path only.
func (r *Resolver) gitStatus(ctx context.Context) ([]string, error) {
	cmd := r.execCommand(ctx, "git", "status", "--porcelain")
	cmd.Dir = r.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}
	return parseGitStatus(string(out)), nil
}

// mercurialStatus queries `hg status` for modified and added files.
func (r *Resolver) mercurialStatus(ctx context.Context) ([]string, error) {
	cmd := r.execCommand(ctx, "hg", "status", "--modified", "--added")
	cmd.Dir = r.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("hg status failed: %w", err)
	}
	return parseMercurialStatus(string(out)), nil
}

// parseGitStatus extracts included paths from porcelain v1 output.
// Entry format is "XY PATH" (or "XY ORIG -> DEST" for renames and copies).
// A path is included when either status column is M, A, C, or U.
func parseGitStatus(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code, rest := line[:2], line[3:]
		if !strings.ContainsAny(code, "MACU") {
			continue
		}
		// Renames and copies list "ORIG -> DEST"; only the destination exists.
		if idx := strings.Index(rest, " -> "); idx >= 0 {
			rest = rest[idx+len(" -> "):]
		}
		paths = append(paths, strings.TrimSpace(rest))
	}
	return paths
}

// parseMercurialStatus extracts paths from `hg status` output, where each
// line is "<code> <path>".
func parseMercurialStatus(out string) []string {
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 3 {
			continue
		}
		switch line[0] {
		case 'M', 'A':
			paths = append(paths, strings.TrimSpace(line[2:]))
		}
	}
	return paths
}

// FindRepoRoot walks upward from start looking for version control metadata
// and returns the first directory that has any. When none is found, start
// itself is returned.
func FindRepoRoot(start string) string {
	dir := start
	for {
		if dirExists(filepath.Join(dir, ".hg")) || dirExists(filepath.Join(dir, ".git")) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
