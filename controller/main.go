package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/manager"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	"github.com/apollo/influxsink/controller/reconcilers"
	"github.com/apollo/influxsink/gateway"
	"github.com/apollo/influxsink/pkg/config"
	"github.com/apollo/influxsink/pkg/connect"
	"github.com/apollo/influxsink/pkg/influxdb"
	"github.com/apollo/influxsink/pkg/log"
	"github.com/apollo/influxsink/pkg/metrics"
	"github.com/apollo/influxsink/pkg/status"
	"github.com/apollo/influxsink/pkg/version"
)

var (
	scheme = clientgoscheme.Scheme
)

func init() {
	_ = v1alpha1.AddToScheme(scheme)
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := config.Default()
	var configFile string

	goFlags := flag.NewFlagSet("zap", flag.ExitOnError)
	zapOpts := log.BindFlags(goFlags)

	cmd := &cobra.Command{
		Use:           "influxsink-controller",
		Short:         "Keeps Kafka Connect InfluxDB sink connectors in sync with InfluxDBSink objects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configFile != "" {
				if err := config.LoadWithFlags(configFile, cmd.Flags(), &opts); err != nil {
					return err
				}
			}
			if err := opts.Validate(); err != nil {
				return fmt.Errorf("invalid options: %w", err)
			}
			log.Setup(zapOpts)
			return run(ctrl.SetupSignalHandler(), opts)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML options file. Flags set on the command line override it.")
	config.BindFlags(cmd.Flags(), &opts)
	cmd.Flags().AddGoFlagSet(goFlags)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the controller version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	})

	return cmd
}

func run(ctx context.Context, opts config.Options) error {
	logger := ctrllog.Log.WithName("setup")
	logger.Info("starting controller manager", "version", version.Version, "commit", version.Commit)

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), manager.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: opts.MetricsAddr,
		},
		HealthProbeBindAddress: opts.ProbeAddr,
		LeaderElection:         opts.LeaderElect,
		LeaderElectionID:       opts.LeaderElectionID,
	})
	if err != nil {
		logger.Error(err, "unable to start manager")
		return err
	}

	metrics.Register()
	statuses := status.NewRegistry()
	httpClient := &http.Client{Timeout: opts.HTTPTimeout}

	reconciler := &reconcilers.InfluxDBSinkReconciler{
		Client:         mgr.GetClient(),
		Scheme:         mgr.GetScheme(),
		Recorder:       mgr.GetEventRecorderFor("influxsink-controller"),
		Database:       influxdb.NewClient(httpClient),
		Connectors:     connect.NewClient(httpClient),
		Statuses:       statuses,
		IsLeader:       reconcilers.ElectedFunc(mgr.Elected()),
		ConnectURL:     opts.ConnectURL,
		ConnectorClass: opts.ConnectorClass,
		ResyncPeriod:   opts.ResyncPeriod,
	}
	if err := reconciler.SetupWithManager(ctx, mgr); err != nil {
		logger.Error(err, "unable to create controller", "controller", "InfluxDBSink")
		return err
	}

	if opts.StatusAddr != "" && opts.StatusAddr != "0" {
		if err := mgr.Add(gateway.New(statuses, opts.StatusAddr, opts.StatusToken)); err != nil {
			logger.Error(err, "unable to add status gateway")
			return err
		}
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		logger.Error(err, "unable to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		logger.Error(err, "unable to set up ready check")
		return err
	}

	if err := mgr.Start(ctx); err != nil {
		logger.Error(err, "problem running manager")
		return err
	}
	return nil
}
