package log

import (
	"flag"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// BindFlags registers the zap flags (--zap-log-level, --zap-devel, ...) on fs.
// Development mode is the default.
func BindFlags(fs *flag.FlagSet) *zap.Options {
	opts := &zap.Options{Development: true}
	opts.BindFlags(fs)
	return opts
}

// Setup installs the controller-runtime logger. Call after flags are parsed.
func Setup(opts *zap.Options) {
	log.SetLogger(zap.New(zap.UseFlagOptions(opts)))
}
