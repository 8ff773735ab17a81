// Package api exposes the HTTP surface: chat directory operations,
// message submission and the merged conversation view.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"chatledger/pkg/auth"
	"chatledger/pkg/chat"
	"chatledger/pkg/store"
	"chatledger/pkg/telemetry"
	"chatledger/pkg/utils"
)

// Handlers carries the dependencies the route handlers need.
type Handlers struct {
	Dir *chat.Directory
	Orc *chat.Orchestrator
	St  *store.Store
}

// NewRouter builds the service router with telemetry and guard
// middleware applied to the v1 surface.
func NewRouter(h *Handlers, sec auth.SecConfig) *mux.Router {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(telemetry.Middleware)
	v1.Use(auth.GuardMiddleware(sec))

	v1.HandleFunc("/chats", h.CreateChat).Methods(http.MethodPost)
	v1.HandleFunc("/chats", h.ListChats).Methods(http.MethodGet)
	v1.HandleFunc("/chats/{id}", h.GetChat).Methods(http.MethodGet)
	v1.HandleFunc("/chats/{id}", h.DeleteChat).Methods(http.MethodDelete)
	v1.HandleFunc("/chats/{id}/activate", h.ActivateChat).Methods(http.MethodPost)
	v1.HandleFunc("/active", h.ActiveChat).Methods(http.MethodGet)

	v1.HandleFunc("/chats/{id}/messages", h.AppendMessage).Methods(http.MethodPost)
	v1.HandleFunc("/chats/{id}/view", h.ChatView).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	// Swagger UI at /docs and the OpenAPI spec at /openapi.yaml
	r.PathPrefix("/docs/").Handler(httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.PathPrefix("/openapi.yaml").Handler(http.FileServer(http.Dir("./docs")))
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)

	return r
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.St == nil || !h.St.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ready"})
}
