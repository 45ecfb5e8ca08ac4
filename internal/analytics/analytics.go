package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"agency-dashboard-backend/internal/db"
)

type CtxKey string

const (
	ctxUserIDKey CtxKey = "analytics_user_id"
)

// Envelope is what we store with every event.
type Envelope struct {
	UserID       string
	SessionID    string
	Platform     string
	AppVersion   string
	DeviceLocale string
	IPCountry    string
}

// FromRequest extracts event envelope fields from request.
// Backend-trustable fields only.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "web", "ios", "android":
	default:
		platform = "unknown"
	}

	locale := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if locale == "" {
		locale = strings.TrimSpace(r.Header.Get("X-Device-Locale"))
	}

	env := Envelope{
		SessionID:    strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:     platform,
		AppVersion:   strings.TrimSpace(r.Header.Get("X-App-Version")),
		DeviceLocale: locale,
	}
	if uid, ok := UserIDFromContext(r.Context()); ok {
		env.UserID = uid
	}
	return env
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxUserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxUserIDKey).(string)
	return uid, ok && uid != ""
}

// SourceEventKeyFromRequest returns the client idempotency key, if any.
// Duplicate keys are ignored on insert.
func SourceEventKeyFromRequest(r *http.Request) string {
	k := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

// Recorder persists analytics events. Implementations must not be on the
// critical path: callers ignore the returned error.
type Recorder interface {
	Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error
}

// Track records eventName for the request's envelope. userID overrides the
// context user when non-empty.
func Track(r *http.Request, rec Recorder, userID, eventName string, props map[string]any) {
	if rec == nil {
		return
	}
	env := FromRequest(r)
	if userID != "" {
		env.UserID = userID
	}
	_ = rec.Log(r.Context(), env, eventName, props, SourceEventKeyFromRequest(r))
}

// Nop discards every event.
type Nop struct{}

func (Nop) Log(context.Context, Envelope, string, any, string) error { return nil }

// Store writes events to the analytics_events table.
// Never logs sensitive raw text; caller passes sanitized props.
type Store struct {
	DB     *sql.DB
	Logger *zap.Logger
}

func (s *Store) Log(ctx context.Context, env Envelope, eventName string, props any, sourceEventKey string) error {
	if eventName == "" || env.UserID == "" {
		return nil
	}

	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal %s props: %w", eventName, err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO analytics_events (
			event_name, event_time,
			user_id, session_id,
			platform, app_version, device_locale, ip_country,
			source_event_key,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)
		ON CONFLICT (source_event_key) DO NOTHING
	`, eventName, time.Now().UTC(),
		env.UserID, db.NullIfEmpty(env.SessionID),
		env.Platform, db.NullIfEmpty(env.AppVersion), db.NullIfEmpty(env.DeviceLocale), db.NullIfEmpty(env.IPCountry),
		db.NullIfEmpty(sourceEventKey),
		string(b),
	)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("analytics insert failed", zap.String("event", eventName), zap.Error(err))
		}
		return fmt.Errorf("insert %s: %w", eventName, err)
	}
	return nil
}
