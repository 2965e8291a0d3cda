// SPDX-License-Identifier: MPL-2.0

// Package cueutil holds small helpers for working with CUE configuration
// files: size guarding and user-readable error formatting.
package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// DefaultMaxFileSize is the size cap applied to CUE files before parsing.
// Config files are tiny; anything above this is almost certainly a mistake.
const DefaultMaxFileSize int64 = 1 << 20

// CheckFileSize verifies that data does not exceed the specified maximum size.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}

// FormatError rewrites a CUE error into "<file>: <json-path>: <message>" form.
// CUE reports field paths as flat slices (["formatter", "image"]); these are
// joined into the dotted notation users expect ("formatter.image").
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrs := errors.Errors(err)
	if len(cueErrs) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	var lines []string
	for _, e := range cueErrs {
		pathStr := joinPath(errors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path inside the message; strip it.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, pathStr), ":"))
		}

		if pathStr != "" {
			lines = append(lines, pathStr+": "+msg)
		} else {
			lines = append(lines, msg)
		}
	}

	if len(lines) == 1 {
		return fmt.Errorf("%s: %s", filePath, lines[0])
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// joinPath converts a CUE error path to JSON-path notation, rendering
// numeric elements as array indices ("cmds[0].script").
func joinPath(path []string) string {
	var b strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
