// SPDX-License-Identifier: MPL-2.0

// nssdev dispatches developer workflow tasks (build, clang-format, tests,
// coverage) for the NSS checkout it runs inside.
package main

import (
	cmd "nssdev/cmd/nssdev"
)

func main() {
	cmd.Execute()
}
