// Package server assembles the HTTP router and the gRPC health server.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	healthhandler "slack-identity-linker/internal/health/handler"
	identityhandler "slack-identity-linker/internal/identity/handler"
	"slack-identity-linker/internal/server/middleware"
)

// Deps holds the handlers and collaborators mounted on the router.
type Deps struct {
	// Tokens validates access tokens. If nil, every request is unauthenticated.
	Tokens middleware.AccessValidator
	// Health serves /readyz. If nil, readiness always reports ok.
	Health *healthhandler.Checker
	// Link serves the identity link page. If nil, the link route is not mounted.
	Link *identityhandler.LinkHandler
	Log  *zap.Logger
}

// NewRouter returns the HTTP router:
//   - GET /healthz                                      → liveness
//   - GET /readyz                                       → readiness (database ping)
//   - GET|POST /extensions/slack/link-identity/{token}/ → identity link page
func NewRouter(deps Deps) *mux.Router {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	health := deps.Health
	if health == nil {
		health = healthhandler.NewChecker(nil, log)
	}

	r := mux.NewRouter()
	r.Use(middleware.ClientIP)
	if deps.Tokens != nil {
		r.Use(middleware.Authenticate(deps.Tokens, log))
	}
	r.Use(middleware.RequestLogger(log, identityhandler.RedactPath))

	r.HandleFunc("/healthz", healthhandler.Live).Methods(http.MethodGet)
	r.HandleFunc("/readyz", health.Ready).Methods(http.MethodGet)
	if deps.Link != nil {
		deps.Link.Register(r)
	}
	return r
}
