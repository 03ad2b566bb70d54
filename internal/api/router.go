package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/theblitlabs/parity-stake/internal/api/handlers"
	"github.com/theblitlabs/parity-stake/internal/api/middleware"
	"github.com/theblitlabs/parity-stake/internal/monitoring/health"
	"github.com/theblitlabs/parity-stake/internal/session"
	"github.com/theblitlabs/parity-stake/internal/telemetry"
)

// HealthReporter is satisfied by health.HealthChecker.
type HealthReporter interface {
	Overall() health.Status
	GetAllHealth() map[string]*health.ComponentHealth
}

// Router wraps mux.Router to add more functionality
type Router struct {
	*mux.Router
	middleware []mux.MiddlewareFunc
	endpoint   string
}

// NewRouter creates and configures a new router with all dependencies
func NewRouter(
	stakingHandler *handlers.StakingHandler,
	wsHandler *handlers.WebSocketHandler,
	sessions *session.Manager,
	checker HealthReporter,
	endpoint string,
) *Router {
	r := &Router{
		Router: mux.NewRouter(),
		middleware: []mux.MiddlewareFunc{
			middleware.Logging,
			telemetry.MetricsMiddleware,
			middleware.Session(sessions),
		},
		endpoint: endpoint,
	}

	r.setup()
	r.registerRoutes(stakingHandler, wsHandler, checker)

	return r
}

// setup configures the base router with middleware and common settings
func (r *Router) setup() {
	for _, m := range r.middleware {
		r.Use(m)
	}
}

// registerRoutes registers all application routes
func (r *Router) registerRoutes(
	stakingHandler *handlers.StakingHandler,
	wsHandler *handlers.WebSocketHandler,
	checker HealthReporter,
) {
	r.HandleFunc("/", stakingHandler.Page(r.endpoint)).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler(checker)).Methods(http.MethodGet)
	r.Handle("/metrics", telemetry.MetricsHandler()).Methods(http.MethodGet)

	r.HandleFunc("/session", stakingHandler.Connect).Methods(http.MethodPost)
	r.HandleFunc("/session", stakingHandler.Disconnect).Methods(http.MethodDelete)

	api := r.PathPrefix(r.endpoint).Subrouter()
	api.HandleFunc("/dashboard", stakingHandler.Dashboard).Methods(http.MethodGet)
	api.Handle("/ws", wsHandler).Methods(http.MethodGet)

	actions := api.NewRoute().Subrouter()
	actions.Use(middleware.RequireSession)
	actions.HandleFunc("/stake", stakingHandler.Stake).Methods(http.MethodPost)
	actions.HandleFunc("/claim", stakingHandler.Claim).Methods(http.MethodPost)
	actions.HandleFunc("/unstake", stakingHandler.Unstake).Methods(http.MethodPost)
}

type healthResponse struct {
	Status     health.Status                      `json:"status"`
	Components map[string]*health.ComponentHealth `json:"components,omitempty"`
}

// healthHandler answers 503 only when a component is in ERROR.
func healthHandler(checker HealthReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{Status: health.StatusOK}
		if checker != nil {
			resp.Status = checker.Overall()
			resp.Components = checker.GetAllHealth()
		}

		status := http.StatusOK
		if resp.Status == health.StatusError {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
