package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List sinks reconciled by the replica",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		resp, err := c.ListSinks(cmd.Context())
		if err != nil {
			return err
		}
		if len(resp.Items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sinks reconciled")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAMESPACE\tNAME\tCONNECTOR\tPHASE\tMESSAGE\tLEADER\tOBSERVED")
		for _, s := range resp.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
				s.Namespace,
				s.Name,
				valueOrDash(s.Connector),
				valueOrDash(string(s.Report.Phase)),
				valueOrDash(s.Report.Message),
				s.Leader,
				s.ObservedAt.Format(time.RFC3339),
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func valueOrDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
