package main

import (
	"net/http"

	"go.uber.org/zap"

	"agency-dashboard-backend/internal/analytics"
	"agency-dashboard-backend/internal/auth"
	"agency-dashboard-backend/internal/campaigns"
	"agency-dashboard-backend/internal/clients"
	"agency-dashboard-backend/internal/tasks"
)

type routes struct {
	auth      *auth.Handler
	tasks     *tasks.Handler
	campaigns *campaigns.Handler
	clients   clients.Store
	analytics analytics.Recorder
	logger    *zap.Logger
}

func newMux(mw auth.Middleware, rt routes) *http.ServeMux {
	mux := http.NewServeMux()

	admin := func(h http.HandlerFunc) http.HandlerFunc { return mw.Require(h, auth.RoleAdmin) }

	// Health endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	// ----- AUTH -----
	mux.HandleFunc("POST /auth/signup", rt.auth.Signup)
	mux.HandleFunc("POST /auth/login", rt.auth.Login)
	mux.HandleFunc("GET /auth/me", mw.Wrap(rt.auth.Me))

	mux.HandleFunc("GET /admin/signup-requests", admin(rt.auth.ListRequests))
	mux.HandleFunc("POST /admin/signup-requests/{id}/approve", admin(rt.auth.Approve))
	mux.HandleFunc("POST /admin/signup-requests/{id}/reject", admin(rt.auth.Reject))

	// ----- TASKS -----
	mux.HandleFunc("GET /tasks", mw.Wrap(rt.tasks.List))
	mux.HandleFunc("POST /tasks", mw.Wrap(rt.tasks.Create))
	mux.HandleFunc("PUT /tasks/{id}", mw.Wrap(rt.tasks.Update))
	mux.HandleFunc("DELETE /tasks/{id}", mw.Wrap(rt.tasks.Delete))
	mux.HandleFunc("PATCH /tasks/{id}/status", mw.Wrap(rt.tasks.SetStatus))
	mux.HandleFunc("POST /tasks/prioritize", mw.Wrap(rt.tasks.Prioritize))
	mux.HandleFunc("GET /users/assignable", mw.Wrap(rt.tasks.AssignableUsers))

	// ----- CAMPAIGNS -----
	mux.HandleFunc("POST /campaigns/import", mw.Wrap(rt.campaigns.Import))
	mux.HandleFunc("GET /campaigns", mw.Wrap(rt.campaigns.List))
	mux.HandleFunc("GET /campaigns/{id}", mw.Wrap(rt.campaigns.Get))
	mux.HandleFunc("DELETE /campaigns/{id}", mw.Wrap(rt.campaigns.Delete))
	mux.HandleFunc("GET /campaigns/{id}/export", mw.Wrap(rt.campaigns.Export))
	mux.HandleFunc("POST /campaigns/{id}/leads/delete", mw.Wrap(rt.campaigns.DeleteLeads))
	mux.HandleFunc("PUT /campaigns/{id}/assignee", admin(rt.campaigns.Assign))
	mux.HandleFunc("POST /campaigns/{id}/tasks", mw.Wrap(rt.campaigns.CreateTasks))

	// ----- CLIENTS -----
	mux.HandleFunc("GET /clients", admin(clients.ListClientsHandler(rt.clients, rt.logger)))
	mux.HandleFunc("POST /clients", admin(clients.CreateClientHandler(rt.clients, rt.logger)))
	mux.HandleFunc("PUT /clients/{id}", admin(clients.UpdateClientHandler(rt.clients, rt.logger)))
	mux.HandleFunc("DELETE /clients/{id}", admin(clients.DeleteClientHandler(rt.clients, rt.logger)))

	// ----- ANALYTICS -----
	mux.HandleFunc("POST /analytics/panel-opened", mw.Wrap(analytics.PanelOpenedHandler(rt.analytics)))

	return mux
}
