// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// renderMarkdown is a seam for testing without terminal rendering.
var renderMarkdown = func(in string) (string, error) {
	return glamour.Render(in, "dark")
}

// newListCommandsCommand creates the `nssdev list-commands` command.
func newListCommandsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list-commands",
		Short: "List every available command",
		RunE: func(cmd *cobra.Command, args []string) error {
			md := commandsMarkdown(cmd.Root())
			out, err := renderMarkdown(md)
			if err != nil {
				// Plain markdown still reads fine when rendering fails.
				out = md
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// commandsMarkdown walks the command tree and builds a markdown listing.
func commandsMarkdown(root *cobra.Command) string {
	var b strings.Builder
	b.WriteString("# " + root.Name() + " commands\n\n")
	for _, sub := range root.Commands() {
		if sub.Hidden || sub.Name() == "help" {
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", sub.Name(), sub.Short)
	}
	return b.String()
}
