// The status server (C10): a read-only HTTP server exposing the last-published cache state,
// reread from disk on every request so it never holds the write lock. Built on the huma framework
// over stdlib net/http, the way go-utils/httpsrv wraps *http.Server for the rest of this codebase --
// Start blocks the calling goroutine, Stop shuts it down with a timeout.

package statussrv

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"framecache/auth"
	"framecache/status"
	"framecache/store"
)

const shutdownTimeout = 10 * time.Second

// Server serves /status and /index/{dir} against a namespace path, re-reading it fresh on every
// request.
type Server struct {
	namespacePath string
	authn         *auth.Authenticator
	httpServer    *http.Server
	stopped       chan struct{}
}

// New builds a server listening on addr. authn may be nil, in which case no auth is required.
func New(addr, namespacePath string, authn *auth.Authenticator) *Server {
	mux := http.NewServeMux()
	api := humago.New(mux, huma.DefaultConfig("framecache status", store.Version))

	type statusOutput struct {
		Body store.Header
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Return the namespace header of the last-published cache state",
	}, func(ctx context.Context, _ *struct{}) (*statusOutput, error) {
		ns, err := store.LoadNamespace(namespacePath)
		if err != nil {
			return nil, huma.Error500InternalServerError("reading namespace", err)
		}
		return &statusOutput{Body: ns.Header}, nil
	})

	type indexInput struct {
		Dir string `path:"dir"`
	}
	type indexOutput struct {
		Body store.Fragment
	}
	huma.Register(api, huma.Operation{
		OperationID: "get-index-entry",
		Method:      http.MethodGet,
		Path:        "/index/{dir}",
		Summary:     "Return the fragment stored for one directory",
	}, func(ctx context.Context, in *indexInput) (*indexOutput, error) {
		keyed, err := store.OpenFileKeyedStore(store.ShlvDir(namespacePath), 0644)
		if err != nil {
			return nil, huma.Error500InternalServerError("opening index store", err)
		}
		frag, ok := keyed.Get(in.Dir)
		if !ok {
			return nil, huma.Error404NotFound(fmt.Sprintf("no fragment for directory %q", in.Dir))
		}
		return &indexOutput{Body: frag}, nil
	})

	var handler http.Handler = mux
	if authn != nil {
		handler = requireAuth(authn, mux)
	}

	return &Server{
		namespacePath: namespacePath,
		authn:         authn,
		httpServer:    &http.Server{Addr: addr, Handler: handler},
		stopped:       make(chan struct{}),
	}
}

func requireAuth(authn *auth.Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || !authn.Authenticate(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="framecache"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start blocks the calling goroutine serving until Stop is called or the listener fails. Call it
// via `go srv.Start(failed)`.
func (s *Server) Start(failed func(error)) {
	status.Info(fmt.Sprintf("status server listening on %s", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		status.Error(err.Error())
		if failed != nil {
			failed(err)
		}
	}
	close(s.stopped)
}

// Stop shuts the server down gracefully, waiting for Start to return.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		status.Warning(err.Error())
	}
	<-s.stopped
}
