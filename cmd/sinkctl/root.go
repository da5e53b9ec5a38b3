package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apollo/influxsink/pkg/statusclient"
)

var (
	serverURL   string
	statusToken string
)

var rootCmd = &cobra.Command{
	Use:           "sinkctl",
	Short:         "Inspect InfluxDB sink connectors through a controller replica's status API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8082", "Controller status API address")
	rootCmd.PersistentFlags().StringVar(&statusToken, "token", os.Getenv("SINKCTL_TOKEN"), "Status API token (defaults to $SINKCTL_TOKEN)")
}

func newClient() (*statusclient.Client, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("server address cannot be empty")
	}
	return statusclient.New(serverURL, statusToken, &http.Client{Timeout: 15 * time.Second}), nil
}
