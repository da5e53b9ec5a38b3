package connect

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWorker implements the slice of the Kafka Connect REST API the client uses.
type fakeWorker struct {
	mu         sync.Mutex
	connectors map[string]map[string]string
	calls      []string
	failWith   int
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{connectors: map[string]map[string]string{}}
}

func (f *fakeWorker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)

	if f.failWith != 0 {
		http.Error(w, `{"error_code":500,"message":"worker unavailable"}`, f.failWith)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/connectors")
	switch {
	case path == "" && r.Method == http.MethodPost:
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, ok := f.connectors[req.Name]; ok {
			http.Error(w, `{"error_code":409,"message":"Connector already exists"}`, http.StatusConflict)
			return
		}
		f.connectors[req.Name] = req.Config
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(req)
	case strings.HasSuffix(path, "/config") && r.Method == http.MethodPut:
		name := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/config")
		var cfg map[string]string
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, existed := f.connectors[name]
		f.connectors[name] = cfg
		if existed {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusCreated)
		}
	case r.Method == http.MethodDelete:
		name := strings.TrimPrefix(path, "/")
		if _, ok := f.connectors[name]; !ok {
			http.Error(w, `{"error_code":404}`, http.StatusNotFound)
			return
		}
		delete(f.connectors, name)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func TestRegisterCreatesConnector(t *testing.T) {
	worker := newFakeWorker()
	srv := httptest.NewServer(worker)
	defer srv.Close()

	c := NewClient(srv.Client())
	outcome, err := c.Register(context.Background(), srv.URL, "ns-app-influxdb", map[string]string{"tasks.max": "1"})
	require.NoError(t, err)
	assert.Equal(t, Registered, outcome)
	assert.Equal(t, map[string]string{"tasks.max": "1"}, worker.connectors["ns-app-influxdb"])
}

func TestRegisterTwiceUpdatesSingleConnector(t *testing.T) {
	worker := newFakeWorker()
	srv := httptest.NewServer(worker)
	defer srv.Close()

	c := NewClient(srv.Client())
	ctx := context.Background()

	first, err := c.Register(ctx, srv.URL+"/", "target", map[string]string{"connect.influx.kcql": "a"})
	require.NoError(t, err)
	second, err := c.Register(ctx, srv.URL, "target", map[string]string{"connect.influx.kcql": "b"})
	require.NoError(t, err)

	assert.Equal(t, Registered, first)
	assert.Equal(t, AlreadyExists, second)
	assert.True(t, second.Succeeded())
	assert.Len(t, worker.connectors, 1)
	assert.Equal(t, "b", worker.connectors["target"]["connect.influx.kcql"])
	assert.Equal(t, []string{
		"POST /connectors",
		"POST /connectors",
		"PUT /connectors/target/config",
	}, worker.calls)
}

func TestRegisterFailure(t *testing.T) {
	worker := newFakeWorker()
	worker.failWith = http.StatusInternalServerError
	srv := httptest.NewServer(worker)
	defer srv.Close()

	outcome, err := NewClient(srv.Client()).Register(context.Background(), srv.URL, "target", nil)
	require.Error(t, err)
	assert.Equal(t, RegisterFailed, outcome)
	assert.False(t, outcome.Succeeded())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "worker unavailable")
}

func TestRegisterTransportFailure(t *testing.T) {
	srv := httptest.NewServer(newFakeWorker())
	srv.Close()

	outcome, err := NewClient(nil).Register(context.Background(), srv.URL, "target", nil)
	assert.Error(t, err)
	assert.Equal(t, RegisterFailed, outcome)
}

func TestUnregisterTreatsMissingAsDeleted(t *testing.T) {
	worker := newFakeWorker()
	worker.connectors["target"] = map[string]string{}
	srv := httptest.NewServer(worker)
	defer srv.Close()

	c := NewClient(srv.Client())
	require.NoError(t, c.Unregister(context.Background(), srv.URL, "target"))
	require.NoError(t, c.Unregister(context.Background(), srv.URL, "target"))
	assert.Empty(t, worker.connectors)
}

func TestUnregisterFailure(t *testing.T) {
	worker := newFakeWorker()
	worker.failWith = http.StatusServiceUnavailable
	srv := httptest.NewServer(worker)
	defer srv.Close()

	err := NewClient(srv.Client()).Unregister(context.Background(), srv.URL, "target")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestConnectorURLEscapesName(t *testing.T) {
	assert.Equal(t, "http://w:8083/connectors/a%2Fb", connectorURL("http://w:8083/", "a/b"))
}
