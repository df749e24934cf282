// Package scenario wires the "lockctl scenario" command tree: canned
// reproductions of a handful of lock-coordination scenarios plus a
// concurrent stress run.
package scenario

import "github.com/spf13/cobra"

// Actions is the subset of Handler methods the command tree dispatches to.
type Actions interface {
	List(cmd *cobra.Command, args []string) error
	Run(cmd *cobra.Command, args []string) error
	Stress(cmd *cobra.Command, args []string) error
}

// Command builds the "scenario" command and its subcommands.
func Command(h Actions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Run canned lock-coordination scenarios against a private container",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the available scenario names",
		RunE:  h.List,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "run [name]",
		Short: "Run one scenario (s1..s6) and print each verdict",
		Args:  cobra.ExactArgs(1),
		RunE:  h.Run,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "stress",
		Short: "Issue N concurrent lock calls against one boundary",
		RunE:  h.Stress,
	})
	return cmd
}
