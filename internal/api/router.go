// Package api exposes the thin HTTP surface the core owns: a health
// check, Prometheus metrics, and a read-only debug endpoint for
// inspecting subscriptions by monitored address. Full subscription and
// channel CRUD belongs to the external management service (spec §1) and
// is never built here.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mangekyou-labs/flare-emissary/internal/chain"
)

// SubscriptionLookup is the read-only surface the debug endpoint needs,
// satisfied by store.Store.
type SubscriptionLookup interface {
	MatchingSubscriptions(ctx context.Context, address string, eventType chain.EventType) ([]chain.Subscription, error)
}

// NewRouter wires the health check, /metrics, and the JWT-guarded debug
// endpoint onto a chi.Mux (spec §6, SPEC_FULL.md §10 domain stack).
func NewRouter(store SubscriptionLookup, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requireBearerJWT(jwtSecret))
		r.Get("/debug/subscriptions", handleDebugSubscriptions(store))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleDebugSubscriptions returns every active subscription matching
// the address and event_type query params, for ops troubleshooting
// only — never the shape a client integration should depend on.
func handleDebugSubscriptions(store SubscriptionLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		eventType := r.URL.Query().Get("event_type")
		if address == "" || eventType == "" {
			http.Error(w, "address and event_type query params are required", http.StatusBadRequest)
			return
		}

		subs, err := store.MatchingSubscriptions(r.Context(), address, chain.EventType(eventType))
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(subs)
	}
}
