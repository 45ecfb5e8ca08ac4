package analytics

import (
	"encoding/json"
	"net/http"
)

// PanelOpenedHandler records panel_opened: a dashboard tab was shown.
func PanelOpenedHandler(rec Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Panel string `json:"panel"` // clients/marketing/developer/admin
			From  string `json:"from"`  // login/nav/deeplink/unknown
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch body.Panel {
		case "clients", "marketing", "developer", "admin":
		default:
			http.Error(w, "invalid panel", http.StatusBadRequest)
			return
		}
		if body.From == "" {
			body.From = "unknown"
		}

		Track(r, rec, uid, "panel_opened", map[string]any{
			"panel": body.Panel,
			"from":  body.From,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
