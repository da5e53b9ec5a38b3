package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/apollo/influxsink/pkg/status"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <namespace>/<name>",
	Short: "Show the last pass of one sink",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace, name, ok := strings.Cut(args[0], "/")
		if !ok || namespace == "" || name == "" {
			return fmt.Errorf("expected <namespace>/<name>, got %q", args[0])
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		s, err := c.GetSink(cmd.Context(), namespace, name)
		if err != nil {
			return err
		}
		return printSink(cmd.OutOrStdout(), s, getOutput)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "text", "Output format: text, json or yaml")
}

func printSink(w io.Writer, s *status.SinkStatus, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case "text", "":
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Sink:\t%s/%s\n", s.Namespace, s.Name)
	fmt.Fprintf(tw, "Connector:\t%s\n", valueOrDash(s.Connector))
	fmt.Fprintf(tw, "Phase:\t%s\n", valueOrDash(string(s.Report.Phase)))
	fmt.Fprintf(tw, "Message:\t%s\n", valueOrDash(s.Report.Message))
	fmt.Fprintf(tw, "Leader:\t%t\n", s.Leader)
	fmt.Fprintf(tw, "Fired:\t%s\n", valueOrDash(strings.Join(s.Fired, ",")))
	fmt.Fprintf(tw, "Failed:\t%s\n", valueOrDash(strings.Join(s.Failed, ",")))
	fmt.Fprintf(tw, "Flags:\t%s\n", renderFlags(s.Flags))
	return tw.Flush()
}

func renderFlags(flags map[string]bool) string {
	set := make([]string, 0, len(flags))
	for k, v := range flags {
		if v {
			set = append(set, k)
		}
	}
	if len(set) == 0 {
		return "<none>"
	}
	sort.Strings(set)
	return strings.Join(set, ",")
}
