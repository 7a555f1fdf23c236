// Package server is the storefront client's HTTP shell: the gateway-B return
// URL lands here, and the confirmation view reads its receipt back from here.
package server

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shoplane/storefront-core/reconcile"
	"github.com/shoplane/storefront-core/session"
)

// Server routes redirect returns to per-order reconcilers. One reconciler per
// external order reference mirrors the single-shot guard's "one writer per
// page lifetime" scope: rapid duplicate deliveries of the same return URL hit
// the same guard.
type Server struct {
	router *chi.Mux
	guard  *session.Guard
	deps   reconcile.Deps

	lock        sync.Mutex
	reconcilers map[string]*reconcile.Reconciler
}

func New(guard *session.Guard, deps reconcile.Deps) (*Server, error) {
	if guard == nil {
		return nil, errors.New("[server.New] session guard is required")
	}

	s := &Server{
		router:      chi.NewRouter(),
		guard:       guard,
		deps:        deps,
		reconcilers: make(map[string]*reconcile.Reconciler),
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/checkout/return", s.handleReturn)
	s.router.Get("/checkout/receipt", s.handleReceipt)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// reconcilerFor returns the reconciler owning orderRef, creating it on first
// sight. Construction cannot fail here: deps were validated by the first call.
func (s *Server) reconcilerFor(orderRef string) (*reconcile.Reconciler, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if r, ok := s.reconcilers[orderRef]; ok {
		return r, nil
	}
	r, err := reconcile.NewReconciler(s.deps)
	if err != nil {
		return nil, errors.Wrap(err, "[Server.reconcilerFor]")
	}
	s.reconcilers[orderRef] = r
	return r, nil
}

func (s *Server) logError(r *http.Request, err error) {
	log.Err(err).Str("path", r.URL.Path).Msg("request failed")
}
