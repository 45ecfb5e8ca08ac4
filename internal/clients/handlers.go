package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// The handlers below sit behind an admin-only guard.

func ListClientsHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cs, err := store.List(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			logger.Error("list clients failed", zap.Error(err))
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if cs == nil {
			cs = []Client{}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(cs)
	}
}

func CreateClientHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c := Client{ID: uuid.NewString(), CreatedAt: time.Now().UTC()}
		req.apply(&c)
		if err := store.Create(r.Context(), c); err != nil {
			logger.Error("create client failed", zap.Error(err))
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(c)
	}
}

func UpdateClientHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := req.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c := Client{ID: r.PathValue("id")}
		req.apply(&c)
		updated, err := store.Update(r.Context(), c)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("update client failed", zap.String("client_id", c.ID), zap.Error(err))
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(updated)
	}
}

func DeleteClientHandler(store Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		err := store.Delete(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("delete client failed", zap.String("client_id", id), zap.Error(err))
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
