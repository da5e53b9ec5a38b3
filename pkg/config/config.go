// Package config holds the controller's process options and their YAML file form.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/apollo/influxsink/pkg/reconcile"
)

// Options configures the controller process.
type Options struct {
	MetricsAddr      string `yaml:"metricsBindAddress"`
	ProbeAddr        string `yaml:"healthProbeBindAddress"`
	StatusAddr       string `yaml:"statusBindAddress"`
	StatusToken      string `yaml:"statusToken"`
	LeaderElect      bool   `yaml:"leaderElect"`
	LeaderElectionID string `yaml:"leaderElectionID"`

	// ConnectURL is used when the worker ConfigMap does not publish rest.url.
	ConnectURL     string        `yaml:"connectURL"`
	ConnectorClass string        `yaml:"connectorClass"`
	HTTPTimeout    time.Duration `yaml:"httpTimeout"`
	ResyncPeriod   time.Duration `yaml:"resyncPeriod"`
}

// Default returns the options used when neither file nor flags set a value.
func Default() Options {
	return Options{
		MetricsAddr:      ":8080",
		ProbeAddr:        ":8081",
		StatusAddr:       ":8082",
		LeaderElect:      true,
		LeaderElectionID: "influxsink.connect.apollo.io",
		ConnectURL:       "http://kafka-connect:8083",
		ConnectorClass:   reconcile.DefaultConnectorClass,
		HTTPTimeout:      15 * time.Second,
		ResyncPeriod:     5 * time.Minute,
	}
}

// Load reads options from a YAML file on top of Default. A missing file is an error.
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading options from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, fmt.Errorf("error loading options from %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks the options for values the controller cannot run with.
func (o Options) Validate() error {
	var errs []error
	if o.LeaderElect && o.LeaderElectionID == "" {
		errs = append(errs, errors.New("leaderElectionID is required when leaderElect is enabled"))
	}
	if u, err := url.Parse(o.ConnectURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("connectURL %q must be an absolute URL", o.ConnectURL))
	}
	if o.ConnectorClass == "" {
		errs = append(errs, errors.New("connectorClass is required"))
	}
	if o.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("httpTimeout must be positive, got %s", o.HTTPTimeout))
	}
	if o.ResyncPeriod <= 0 {
		errs = append(errs, fmt.Errorf("resyncPeriod must be positive, got %s", o.ResyncPeriod))
	}
	return errors.Join(errs...)
}
