// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing error context for workflow failures.
//
// ActionableError carries what operation failed, which resource was involved,
// and suggestions for fixing it. The Issue catalog holds longer markdown
// guidance pages for recurring environment problems (no container runtime,
// no version control metadata, missing coverage traces).
package issue
