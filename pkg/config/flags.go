package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// BindFlags registers one flag per option, defaulting to the current values of opts.
func BindFlags(fs *pflag.FlagSet, opts *Options) {
	fs.StringVar(&opts.MetricsAddr, "metrics-bind-address", opts.MetricsAddr, "The address the metric endpoint binds to.")
	fs.StringVar(&opts.ProbeAddr, "health-probe-bind-address", opts.ProbeAddr, "The address the probe endpoint binds to.")
	fs.StringVar(&opts.StatusAddr, "status-bind-address", opts.StatusAddr, "The address the sink status API binds to. Set to 0 to disable.")
	fs.StringVar(&opts.StatusToken, "status-token", opts.StatusToken, "Token required in X-Status-Token by the status API. Empty disables authentication.")
	fs.BoolVar(&opts.LeaderElect, "leader-elect", opts.LeaderElect, "Elect a leader; only the leader registers connectors and writes status.")
	fs.StringVar(&opts.LeaderElectionID, "leader-election-id", opts.LeaderElectionID, "Name of the Lease used for leader election.")
	fs.StringVar(&opts.ConnectURL, "connect-url", opts.ConnectURL, "Kafka Connect REST URL used when the worker ConfigMap does not publish rest.url.")
	fs.StringVar(&opts.ConnectorClass, "connector-class", opts.ConnectorClass, "Connector class registered with Kafka Connect.")
	fs.DurationVar(&opts.HTTPTimeout, "http-timeout", opts.HTTPTimeout, "Timeout for InfluxDB and Kafka Connect requests.")
	fs.DurationVar(&opts.ResyncPeriod, "resync-period", opts.ResyncPeriod, "Interval after which every sink is reconciled again.")
}

// LoadWithFlags replaces opts with the file at path, then re-applies every flag
// explicitly set on fs so the command line wins over the file.
func LoadWithFlags(path string, fs *pflag.FlagSet, opts *Options) error {
	explicit := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	loaded, err := Load(path)
	if err != nil {
		return err
	}
	*opts = loaded

	for name, value := range explicit {
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("re-applying flag --%s: %w", name, err)
		}
	}
	return nil
}
