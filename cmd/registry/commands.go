// Package registry wires the "lockctl registry" command tree: introspection
// over the process-wide default strategy container.
package registry

import "github.com/spf13/cobra"

// Actions is the subset of Handler methods the command tree dispatches to.
type Actions interface {
	List(cmd *cobra.Command, args []string) error
}

// Command builds the "registry" command and its subcommands.
func Command(h Actions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the process-wide default strategy container",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered strategies and their registration age",
		RunE:  h.List,
	})
	return cmd
}
