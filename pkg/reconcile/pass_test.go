package reconcile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1alpha1 "github.com/apollo/influxsink/api/connect.apollo.io/v1alpha1"
	"github.com/apollo/influxsink/pkg/connect"
)

type dbCall struct{ name, host, port string }

type fakeDatabase struct {
	calls []dbCall
	err   error
}

func (f *fakeDatabase) EnsureDatabase(_ context.Context, name, host, port string) error {
	f.calls = append(f.calls, dbCall{name, host, port})
	return f.err
}

type fakeRegistry struct {
	connectors  map[string]map[string]string
	registers   []map[string]string
	unregisters int
	registerErr error
	removeErr   error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{connectors: map[string]map[string]string{}}
}

func (f *fakeRegistry) Register(_ context.Context, _, name string, config map[string]string) (connect.RegisterOutcome, error) {
	f.registers = append(f.registers, config)
	if f.registerErr != nil {
		return connect.RegisterFailed, f.registerErr
	}
	_, existed := f.connectors[name]
	f.connectors[name] = config
	if existed {
		return connect.AlreadyExists, nil
	}
	return connect.Registered, nil
}

func (f *fakeRegistry) Unregister(_ context.Context, _, name string) error {
	f.unregisters++
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.connectors, name)
	return nil
}

type fakeWorker struct {
	configs []map[string]string
	err     error
}

func (f *fakeWorker) SetWorkerConfig(_ context.Context, config map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.configs = append(f.configs, config)
	return nil
}

type report struct {
	blocked bool
	message string
}

type fakeReporter struct {
	reports []report
}

func (f *fakeReporter) Blocked(reason string) { f.reports = append(f.reports, report{true, reason}) }
func (f *fakeReporter) Active(message string) { f.reports = append(f.reports, report{false, message}) }
func (f *fakeReporter) last() (report, bool) {
	if len(f.reports) == 0 {
		return report{}, false
	}
	return f.reports[len(f.reports)-1], true
}

type harness struct {
	db       *fakeDatabase
	registry *fakeRegistry
	worker   *fakeWorker
	reporter *fakeReporter
	pass     *Pass
}

func newHarness() *harness {
	h := &harness{
		db:       &fakeDatabase{},
		registry: newFakeRegistry(),
		worker:   &fakeWorker{},
		reporter: &fakeReporter{},
	}
	h.pass = &Pass{
		Target:     "modelapp-influxdb",
		ConnectURL: "http://worker:8083",
		Database:   h.db,
		Connectors: h.registry,
		Worker:     h.worker,
		Reporter:   h.reporter,
		Log:        logr.Discard(),
	}
	return h
}

func metricsConfig() DesiredConfig {
	return DesiredConfig{
		Database: "metrics",
		KCQL:     "INSERT INTO m SELECT * FROM t",
		MaxTasks: "1",
		Topics:   "t1 t2",
	}
}

func readyInputs() Inputs {
	return Inputs{
		Config:   metricsConfig(),
		Endpoint: &Endpoint{Hostname: "influx", Port: "8086", Username: "u", Password: "p"},
		Worker: WorkerState{
			Ready:   true,
			Running: true,
			Topics:  StorageTopics{Config: "cfg", Offset: "off", Status: "st"},
		},
		Leader: true,
	}
}

func TestRunMetricsScenario(t *testing.T) {
	h := newHarness()
	flags := NewFlagSet(v1alpha1.ConditionConfigured)

	res := h.pass.Run(context.Background(), flags, readyInputs())

	assert.Equal(t, []RuleID{RuleReportReady, RuleStartConnector}, res.Fired)
	assert.Empty(t, res.Failed)
	assert.Equal(t, []dbCall{{"metrics", "influx", "8086"}}, h.db.calls)
	require.Len(t, h.registry.registers, 1)

	want := map[string]string{
		"connector.class":         DefaultConnectorClass,
		"tasks.max":               "1",
		"connect.influx.url":      "http://influx:8086",
		"connect.influx.db":       "metrics",
		"connect.influx.username": "u",
		"connect.influx.password": "p",
		"connect.influx.kcql":     "INSERT INTO m SELECT * FROM t",
		"topics":                  "t1,t2",
	}
	if diff := cmp.Diff(want, h.registry.registers[0]); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	last, ok := h.reporter.last()
	require.True(t, ok)
	assert.Equal(t, report{false, MsgReady}, last)
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))
	assert.False(t, flags.IsSet(v1alpha1.ConditionStopped))
}

func TestRunRegistrationIsIdempotent(t *testing.T) {
	h := newHarness()
	flags := NewFlagSet(v1alpha1.ConditionConfigured)
	ctx := context.Background()

	h.pass.Run(ctx, flags, readyInputs())
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))

	flags.Clear(v1alpha1.ConditionRunning)
	res := h.pass.Run(ctx, flags, readyInputs())

	assert.Contains(t, res.Fired, RuleStartConnector)
	assert.Len(t, h.registry.registers, 2)
	assert.Len(t, h.registry.connectors, 1)
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))

	// With running set nothing is registered again.
	h.pass.Run(ctx, flags, readyInputs())
	assert.Len(t, h.registry.registers, 2)
}

func TestRunRetriesFailedRegistration(t *testing.T) {
	h := newHarness()
	h.registry.registerErr = errors.New("connection refused")
	flags := NewFlagSet(v1alpha1.ConditionConfigured)
	ctx := context.Background()

	res := h.pass.Run(ctx, flags, readyInputs())
	assert.Equal(t, []RuleID{RuleStartConnector}, res.Failed)
	assert.False(t, flags.IsSet(v1alpha1.ConditionRunning))
	last, _ := h.reporter.last()
	assert.Equal(t, report{true, MsgRegisterFailed}, last)
	assert.Contains(t, Evaluate(flags, nil), RuleStartConnector)

	h.registry.registerErr = nil
	res = h.pass.Run(ctx, flags, readyInputs())
	assert.Empty(t, res.Failed)
	assert.Len(t, h.registry.registers, 2)
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))
}

func TestRunDatabaseFailureIsNotFatal(t *testing.T) {
	h := newHarness()
	h.db.err = errors.New("influx down")
	flags := NewFlagSet(v1alpha1.ConditionConfigured)

	res := h.pass.Run(context.Background(), flags, readyInputs())

	assert.Empty(t, res.Failed)
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))
	assert.Contains(t, h.reporter.reports, report{true, MsgDatabaseFailed})
	last, _ := h.reporter.last()
	assert.Equal(t, report{false, MsgReady}, last)
}

func TestRunConfigChangeReregisters(t *testing.T) {
	h := newHarness()
	flags := NewFlagSet(v1alpha1.ConditionConfigured)
	ctx := context.Background()
	h.pass.Run(ctx, flags, readyInputs())

	// Change arrives while the worker is down: running is cleared, nothing registered.
	in := readyInputs()
	in.Config.KCQL = "INSERT INTO m2 SELECT * FROM t"
	in.Changed = []ConfigKey{KeyKCQL}
	in.Worker.Running = false
	res := h.pass.Run(ctx, flags, in)
	assert.Equal(t, []RuleID{RuleReportReady, RuleInvalidateOnChange}, res.Fired)
	assert.False(t, flags.IsSet(v1alpha1.ConditionRunning))
	assert.Len(t, h.registry.registers, 1)

	// Next pass with every start guard satisfied picks up the new statement.
	in.Changed = nil
	in.Worker.Running = true
	h.pass.Run(ctx, flags, in)
	require.Len(t, h.registry.registers, 2)
	assert.Equal(t, "INSERT INTO m2 SELECT * FROM t", h.registry.registers[1]["connect.influx.kcql"])
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))
}

func TestRunConfigChangeAndStartInOnePass(t *testing.T) {
	h := newHarness()
	flags := NewFlagSet(v1alpha1.ConditionConfigured, v1alpha1.ConditionRunning)

	in := readyInputs()
	in.Changed = []ConfigKey{KeyTopics}
	res := h.pass.Run(context.Background(), flags, in)

	assert.Equal(t, []RuleID{RuleReportReady, RuleInvalidateOnChange, RuleStartConnector}, res.Fired)
	assert.Len(t, h.registry.registers, 1)
}

func TestRunNonLeaderNeverMutates(t *testing.T) {
	for _, endpoint := range []*Endpoint{nil, {Hostname: "influx", Port: "8086"}} {
		for _, running := range []bool{false, true} {
			h := newHarness()
			flags := NewFlagSet()
			if running {
				flags.Set(v1alpha1.ConditionRunning)
			}
			in := readyInputs()
			in.Leader = false
			in.Endpoint = endpoint
			in.Changed = []ConfigKey{KeyKCQL}

			res := h.pass.Run(context.Background(), flags, in)

			for _, id := range res.Fired {
				assert.Contains(t, []RuleID{RuleReportWaitingDependency, RuleReportWaitingConfig, RuleReportReady}, id)
			}
			assert.Empty(t, h.db.calls)
			assert.Empty(t, h.registry.registers)
			assert.Zero(t, h.registry.unregisters)
			assert.Empty(t, h.worker.configs)
			assert.Equal(t, running, flags.IsSet(v1alpha1.ConditionRunning))
		}
	}
}

func TestRunStopsOnDependencyLoss(t *testing.T) {
	var deletes atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		if deletes.Add(1) == 1 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := newHarness()
	h.pass.ConnectURL = srv.URL
	h.pass.Connectors = connect.NewClient(srv.Client())
	flags := NewFlagSet(v1alpha1.ConditionConfigured, v1alpha1.ConditionRunning)
	ctx := context.Background()

	in := readyInputs()
	in.Endpoint = nil
	res := h.pass.Run(ctx, flags, in)

	assert.Equal(t, []RuleID{RuleReportWaitingDependency, RuleStopOnDependencyLoss}, res.Fired)
	assert.EqualValues(t, 1, deletes.Load())
	assert.True(t, flags.IsSet(v1alpha1.ConditionStopped))
	assert.False(t, flags.IsSet(v1alpha1.ConditionRunning))

	h.pass.Run(ctx, flags, in)
	assert.EqualValues(t, 1, deletes.Load())

	// A 404 from an already removed connector still stops the target.
	flags = NewFlagSet(v1alpha1.ConditionRunning)
	res = h.pass.Run(ctx, flags, in)
	assert.Empty(t, res.Failed)
	assert.EqualValues(t, 2, deletes.Load())
	assert.True(t, flags.IsSet(v1alpha1.ConditionStopped))
	assert.False(t, flags.IsSet(v1alpha1.ConditionRunning))
}

func TestRunUnregisterFailureRetries(t *testing.T) {
	h := newHarness()
	h.registry.removeErr = errors.New("timeout")
	flags := NewFlagSet(v1alpha1.ConditionRunning)
	in := readyInputs()
	in.Endpoint = nil

	res := h.pass.Run(context.Background(), flags, in)

	assert.Equal(t, []RuleID{RuleStopOnDependencyLoss}, res.Failed)
	assert.True(t, flags.IsSet(v1alpha1.ConditionRunning))
	assert.False(t, flags.IsSet(v1alpha1.ConditionStopped))
	last, _ := h.reporter.last()
	assert.Equal(t, report{true, MsgUnregisterFailed}, last)
}

func TestRunStopsOnWorkerLoss(t *testing.T) {
	h := newHarness()
	flags := NewFlagSet(v1alpha1.ConditionConfigured, v1alpha1.ConditionRunning)
	in := readyInputs()
	in.Worker.Running = false

	res := h.pass.Run(context.Background(), flags, in)

	assert.Equal(t, []RuleID{RuleReportReady, RuleStopOnWorkerLoss}, res.Fired)
	assert.False(t, flags.IsSet(v1alpha1.ConditionRunning))
	assert.Zero(t, h.registry.unregisters)
}

func TestRunConfiguresWorkerOnce(t *testing.T) {
	h := newHarness()
	flags := NewFlagSet()
	in := readyInputs()
	in.Worker.Running = false

	h.pass.Run(context.Background(), flags, in)
	h.pass.Run(context.Background(), flags, in)

	require.Len(t, h.worker.configs, 1)
	cfg := h.worker.configs[0]
	assert.Equal(t, "cfg", cfg["config.storage.topic"])
	assert.Equal(t, "off", cfg["offset.storage.topic"])
	assert.Equal(t, "st", cfg["status.storage.topic"])
	assert.Equal(t, "10000", cfg["offset.flush.interval.ms"])
	assert.True(t, flags.IsSet(v1alpha1.ConditionConfigured))
}

func TestRunWorkerConfigFailureRetries(t *testing.T) {
	h := newHarness()
	h.worker.err = errors.New("conflict")
	flags := NewFlagSet()
	in := readyInputs()
	in.Worker.Running = false

	res := h.pass.Run(context.Background(), flags, in)
	assert.Equal(t, []RuleID{RuleConfigureWorker}, res.Failed)
	assert.False(t, flags.IsSet(v1alpha1.ConditionConfigured))

	h.worker.err = nil
	h.pass.Run(context.Background(), flags, in)
	assert.True(t, flags.IsSet(v1alpha1.ConditionConfigured))
}

func TestRunWaitingReports(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Inputs)
		want report
	}{
		{
			name: "dependency missing",
			edit: func(in *Inputs) { in.Endpoint = nil },
			want: report{true, MsgWaitingDependency},
		},
		{
			name: "kcql missing",
			edit: func(in *Inputs) { in.Config.KCQL = "" },
			want: report{true, MsgWaitingKCQL},
		},
		{
			name: "database missing",
			edit: func(in *Inputs) { in.Config.Database = "" },
			want: report{true, MsgWaitingDatabase},
		},
		{
			name: "both missing reports database last",
			edit: func(in *Inputs) { in.Config.KCQL, in.Config.Database = "", "" },
			want: report{true, MsgWaitingDatabase},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			in := readyInputs()
			in.Leader = false
			tt.edit(&in)
			h.pass.Run(context.Background(), NewFlagSet(), in)
			last, ok := h.reporter.last()
			require.True(t, ok)
			assert.Equal(t, tt.want, last)
		})
	}
}

// TestRunNeverSetsRunningAndStopped walks every derived-flag state reachable from a
// fresh start under every combination of inputs and action outcomes.
func TestRunNeverSetsRunningAndStopped(t *testing.T) {
	type state struct{ configured, running, stopped bool }
	toFlags := func(s state) FlagSet {
		f := NewFlagSet()
		setTo(f, v1alpha1.ConditionConfigured, s.configured)
		setTo(f, v1alpha1.ConditionRunning, s.running)
		setTo(f, v1alpha1.ConditionStopped, s.stopped)
		return f
	}
	fromFlags := func(f FlagSet) state {
		return state{
			f.IsSet(v1alpha1.ConditionConfigured),
			f.IsSet(v1alpha1.ConditionRunning),
			f.IsSet(v1alpha1.ConditionStopped),
		}
	}

	seen := map[state]bool{{}: true}
	queue := []state{{}}
	bools := []bool{false, true}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, dep := range bools {
			for _, workerRunning := range bools {
				for _, leader := range bools {
					for _, changed := range bools {
						for _, fail := range bools {
							h := newHarness()
							if fail {
								h.registry.registerErr = errors.New("fail")
								h.registry.removeErr = errors.New("fail")
								h.worker.err = errors.New("fail")
							}
							in := readyInputs()
							if !dep {
								in.Endpoint = nil
							}
							in.Worker.Running = workerRunning
							in.Leader = leader
							if changed {
								in.Changed = []ConfigKey{KeyKCQL}
							}
							f := toFlags(s)
							h.pass.Run(context.Background(), f, in)
							next := fromFlags(f)
							require.False(t, next.running && next.stopped, "from %+v", s)
							if !seen[next] {
								seen[next] = true
								queue = append(queue, next)
							}
						}
					}
				}
			}
		}
	}
	assert.True(t, seen[state{configured: true, running: true}])
	assert.True(t, seen[state{configured: true, stopped: true}])
}

func TestEvaluateMatchesRunWhenActionsSucceed(t *testing.T) {
	bools := []bool{false, true}
	for _, dep := range bools {
		for _, workerRunning := range bools {
			for _, leader := range bools {
				for _, running := range bools {
					for _, changed := range bools {
						h := newHarness()
						in := readyInputs()
						if !dep {
							in.Endpoint = nil
						}
						in.Worker.Running = workerRunning
						in.Leader = leader
						if changed {
							in.Changed = []ConfigKey{KeyMaxTasks}
						}
						f := NewFlagSet()
						setTo(f, v1alpha1.ConditionRunning, running)

						Observe(f, in)
						want := Evaluate(f, in.Changed)
						got := h.pass.Run(context.Background(), f, in)

						assert.Equal(t, want, got.Fired)
					}
				}
			}
		}
	}
}

func TestEvaluateDoesNotModifyFlags(t *testing.T) {
	f := NewFlagSet(
		v1alpha1.ConditionDependencyAvailable,
		v1alpha1.ConditionKCQLSet,
		v1alpha1.ConditionDatabaseSet,
		v1alpha1.ConditionLeadershipHeld,
		v1alpha1.ConditionWorkerRunning,
	)
	want := NewFlagSet(
		v1alpha1.ConditionDependencyAvailable,
		v1alpha1.ConditionKCQLSet,
		v1alpha1.ConditionDatabaseSet,
		v1alpha1.ConditionLeadershipHeld,
		v1alpha1.ConditionWorkerRunning,
	)

	assert.Equal(t, []RuleID{RuleStartConnector}, Evaluate(f, nil))
	assert.Equal(t, want, f)
}
