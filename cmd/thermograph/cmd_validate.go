package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Agrid-Dev/thermograph/internal/scenario"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Check a scenario file and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			topo, err := scenario.Build(spec)
			if err != nil {
				return err
			}
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				if err := scenario.Encode(cmd.OutOrStdout(), spec); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: ok (%d components, %d boundaries, %d edges)\n",
				args[0], len(topo.Components), len(topo.Boundaries), len(topo.Graph.Edges()))
			return nil
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "only report success or failure")
	return cmd
}
