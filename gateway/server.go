package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/apollo/influxsink/pkg/status"
	"github.com/apollo/influxsink/pkg/version"
)

const (
	etagHeader        = "ETag"
	statusTokenHeader = "X-Status-Token"
	sinksPathPrefix   = "/v1/sinks"
)

// ListResponse is returned for GET /v1/sinks.
type ListResponse struct {
	Version string              `json:"version"`
	Items   []status.SinkStatus `json:"items"`
}

// Gateway serves this replica's view of every sink it reconciles.
// It implements manager.Runnable so it can be added to a controller-runtime Manager.
type Gateway struct {
	statuses *status.Registry
	log      logr.Logger

	addr      string
	authToken string

	server *http.Server
}

// New constructs a Gateway server instance. An empty token disables authentication.
func New(statuses *status.Registry, addr, token string) *Gateway {
	return &Gateway{
		statuses:  statuses,
		log:       ctrl.Log.WithName("gateway"),
		addr:      addr,
		authToken: strings.TrimSpace(token),
	}
}

// NeedLeaderElection is false: every replica serves its own view.
func (g *Gateway) NeedLeaderElection() bool { return false }

// Handler returns the HTTP routes.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc(sinksPathPrefix, g.handleSinks)
	mux.HandleFunc(sinksPathPrefix+"/", g.handleSinks)
	return mux
}

// Start runs the HTTP server until the context is cancelled.
func (g *Gateway) Start(ctx context.Context) error {
	g.server = &http.Server{Addr: g.addr, Handler: g.Handler(), ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		err := g.server.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = g.server.Shutdown(shutdownCtx)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	default:
	}

	return nil
}

func (g *Gateway) handleSinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !g.authorize(r) {
		g.respondErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, sinksPathPrefix), "/")
	if rest == "" {
		g.respond(w, r, ListResponse{Version: version.Version, Items: g.statuses.List()})
		return
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.NotFound(w, r)
		return
	}
	s, ok := g.statuses.Get(types.NamespacedName{Namespace: parts[0], Name: parts[1]})
	if !ok {
		g.respondErr(w, http.StatusNotFound, "sink not reconciled by this replica")
		return
	}
	g.respond(w, r, s)
}

func (g *Gateway) authorize(r *http.Request) bool {
	if g.authToken == "" {
		return true
	}
	return strings.TrimSpace(r.Header.Get(statusTokenHeader)) == g.authToken
}

// respond writes body as JSON with an ETag, honouring If-None-Match.
func (g *Gateway) respond(w http.ResponseWriter, r *http.Request, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		g.log.Error(err, "encode response", "path", r.URL.Path)
		g.respondErr(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	etag := hashBody(data)
	w.Header().Set(etagHeader, etag)
	if match := strings.TrimSpace(r.Header.Get("If-None-Match")); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (g *Gateway) respondErr(w http.ResponseWriter, status int, msg string) {
	g.log.V(1).Info("http error", "status", status, "message", msg)
	http.Error(w, msg, status)
}

func hashBody(data []byte) string {
	sum := sha256.Sum256(data)
	return "\"" + hex.EncodeToString(sum[:]) + "\""
}
