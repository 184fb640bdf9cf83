package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/prodpulse/knowledgesync/assistant"
	"github.com/prodpulse/knowledgesync/errors"
	"github.com/prodpulse/knowledgesync/internal/mylog"
	"github.com/prodpulse/knowledgesync/retriever"
)

type searchRequest struct {
	TenantID string `json:"tenant_id"`
	Query    string `json:"query"`
	Limit    int    `json:"limit"`

	EntityType string `json:"entity_type"`
	Priority   string `json:"priority"`
	Status     string `json:"status"`
}

// statusOf maps domain errors onto HTTP status codes. Transient provider
// failures become 503 so callers know a retry is reasonable.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidParams), errors.Is(err, errors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrProviderTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusOf(err))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func createTenantsRouter(router *mux.Router, registry assistant.Service) {

	// Resolve (or create) the tenant's assistant.
	router.HandleFunc("/tenants/{tenantId}/assistant", func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenantId"]

		assistantID, err := registry.GetOrCreateAssistant(r.Context(), tenantID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"tenant_id":    tenantID,
			"assistant_id": assistantID,
		})
	}).Methods("GET")

	// Force a synchronous knowledge refresh.
	router.HandleFunc("/tenants/{tenantId}/sync", func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenantId"]

		if err := registry.EnsureTenantDataSynced(r.Context(), tenantID); err != nil {
			writeError(w, err)
			return
		}

		entry, _ := registry.GetCacheInfo(tenantID)
		writeJSON(w, map[string]any{
			"tenant_id":      tenantID,
			"assistant_id":   entry.AssistantID,
			"last_synced_at": entry.LastSyncedAt,
		})
	}).Methods("POST")

	router.HandleFunc("/tenants/{tenantId}/cache", func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenantId"]

		entry, ok := registry.GetCacheInfo(tenantID)
		if !ok {
			http.Error(w, "no cache entry", http.StatusNotFound)
			return
		}

		writeJSON(w, map[string]any{
			"tenant_id":      tenantID,
			"assistant_id":   entry.AssistantID,
			"last_synced_at": entry.LastSyncedAt,
		})
	}).Methods("GET")

	router.HandleFunc("/tenants/{tenantId}/cache", func(w http.ResponseWriter, r *http.Request) {
		registry.ClearCache(mux.Vars(r)["tenantId"])
		w.WriteHeader(http.StatusNoContent)
	}).Methods("DELETE")
}

func createSearchRouter(router *mux.Router, retrieverService retriever.Service) {
	router.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		filters := &retriever.Filters{
			EntityType: req.EntityType,
			Priority:   req.Priority,
			Status:     req.Status,
		}

		results, err := retrieverService.Search(r.Context(), req.Query, req.TenantID, filters, req.Limit)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, map[string]any{
			"results": results,
			"count":   len(results),
		})
	}).Methods("POST")
}

// CreateHandler builds the full HTTP surface: tenant assistant resolution,
// sync triggering, cache inspection and vector search.
func CreateHandler(registry assistant.Service, retrieverService retriever.Service, logger *mylog.Logger) (http.Handler, error) {
	router := mux.NewRouter()
	createTenantsRouter(router, registry)
	createSearchRouter(router, retrieverService)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ok"})
	}).Methods("GET")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
	)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		router.ServeHTTP(w, r.WithContext(ctx))
	})

	return cors(recovery(handler)), nil
}
