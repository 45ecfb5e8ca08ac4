package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agency-dashboard-backend/internal/analytics"
)

// SuperAdmin holds the bootstrap credentials that can log in as admin until
// another admin has been approved.
type SuperAdmin struct {
	Email    string
	Password string
}

type Handler struct {
	Users      Store
	Secret     []byte
	TokenTTL   time.Duration
	SuperAdmin SuperAdmin
	Analytics  analytics.Recorder
	Logger     *zap.Logger

	now func() time.Time
}

func NewHandler(users Store, secret []byte, ttl time.Duration, super SuperAdmin, rec analytics.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      users,
		Secret:     secret,
		TokenTTL:   ttl,
		SuperAdmin: super,
		Analytics:  rec,
		Logger:     logger,
		now:        time.Now,
	}
}

type SignupRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DesiredRole string `json:"desired_role"`
	Message     string `json:"message"`
}

// Validate normalizes the request in place and reports the first problem.
func (req *SignupRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Message = strings.TrimSpace(req.Message)

	if utf8.RuneCountInString(req.Name) < 2 {
		return errors.New("name must be at least 2 characters")
	}
	if !validEmail(req.Email) {
		return errors.New("invalid email address")
	}
	if len(req.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if _, err := ParseRole(req.DesiredRole); err != nil {
		return errors.New("desired_role must be admin, developer or marketer")
	}
	if req.Message != "" && utf8.RuneCountInString(req.Message) < 10 {
		return errors.New("message must be at least 10 characters")
	}
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// Signup: POST /auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Logger.Error("hash password failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		DesiredRole:  Role(req.DesiredRole),
		Status:       StatusPending,
		Message:      req.Message,
		RequestedAt:  h.now().UTC(),
		PasswordHash: string(hash),
	}
	if err := h.Users.Create(r.Context(), u); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		h.Logger.Error("create signup request failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	analytics.Track(r, h.Analytics, u.ID, "signup_requested", map[string]any{
		"desired_role": u.DesiredRole,
		"has_message":  u.Message != "",
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(u)
}

type loginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login: POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		http.Error(w, "email & password required", http.StatusBadRequest)
		return
	}

	if u, ok := h.bootstrapSuperAdmin(r, email, body.Password); ok {
		h.writeToken(w, u)
		return
	}

	u, err := h.Users.ByEmail(r.Context(), email)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.Logger.Error("load user failed", zap.Error(err))
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(body.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	switch u.Status {
	case StatusApproved:
		h.writeToken(w, u)
	case StatusPending:
		http.Error(w, "account request is still pending approval", http.StatusForbidden)
	case StatusRejected:
		http.Error(w, "account request was not approved", http.StatusForbidden)
	default:
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	}
}

// bootstrapSuperAdmin logs in the configured super admin while no other
// approved admin exists, creating or promoting its account.
func (h *Handler) bootstrapSuperAdmin(r *http.Request, email, password string) (User, bool) {
	sa := h.SuperAdmin
	if sa.Email == "" || sa.Password == "" || email != strings.ToLower(sa.Email) {
		return User{}, false
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(sa.Password)) != 1 {
		return User{}, false
	}

	n, err := h.Users.CountApprovedAdmins(r.Context(), email)
	if err != nil {
		h.Logger.Warn("count admins failed on super admin login", zap.Error(err))
		return User{}, false
	}
	if n > 0 {
		return User{}, false
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.Logger.Warn("hash super admin password failed", zap.Error(err))
		return User{}, false
	}
	u, err := h.Users.UpsertApprovedAdmin(r.Context(), User{
		ID:           uuid.NewString(),
		Name:         "Super Admin",
		Email:        email,
		DesiredRole:  RoleAdmin,
		Status:       StatusApproved,
		Message:      "Initial super admin account.",
		RequestedAt:  h.now().UTC(),
		PasswordHash: string(hash),
	})
	if err != nil {
		h.Logger.Warn("super admin upsert failed", zap.Error(err))
		return User{}, false
	}

	h.Logger.Info("super admin bootstrap login", zap.String("user_id", u.ID))
	return u, true
}

func (h *Handler) writeToken(w http.ResponseWriter, u User) {
	token, err := GenerateToken(h.Secret, Principal{UserID: u.ID, Role: u.DesiredRole}, h.TokenTTL)
	if err != nil {
		h.Logger.Error("sign token failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token, User: u})
}

// Me: GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	u, err := h.Users.ByID(r.Context(), p.UserID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(u)
}
