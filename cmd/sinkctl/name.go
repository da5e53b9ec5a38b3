package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apollo/influxsink/pkg/reconcile"
)

var connectorNameCmd = &cobra.Command{
	Use:   "connector-name <model> <unit>",
	Short: "Print the Kafka Connect connector name a sink registers",
	Long:  "Print the connector name derived from the model (namespace) and unit (sink name).",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), reconcile.ConnectorName(args[0], args[1]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(connectorNameCmd)
}
