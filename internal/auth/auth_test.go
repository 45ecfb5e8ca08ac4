package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"agency-dashboard-backend/internal/analytics"
)

var testSecret = []byte("test-secret")

type memStore struct {
	mu    sync.Mutex
	users map[string]User
}

func newMemStore(users ...User) *memStore {
	s := &memStore{users: map[string]User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) Create(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memStore) ByID(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *memStore) ByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *memStore) List(_ context.Context, status Status) ([]User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []User
	for _, u := range s.users {
		if status == "" || u.Status == status {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (s *memStore) SetStatus(_ context.Context, id string, status Status) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	if u.Status != StatusPending {
		return User{}, ErrNotPending
	}
	u.Status = status
	s.users[id] = u
	return u, nil
}

func (s *memStore) CountApprovedAdmins(_ context.Context, exceptEmail string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, u := range s.users {
		if u.Status == StatusApproved && u.DesiredRole == RoleAdmin && !strings.EqualFold(u.Email, exceptEmail) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) UpsertApprovedAdmin(_ context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			existing.DesiredRole = RoleAdmin
			existing.Status = StatusApproved
			existing.PasswordHash = u.PasswordHash
			s.users[id] = existing
			return existing, nil
		}
	}
	u.DesiredRole = RoleAdmin
	u.Status = StatusApproved
	s.users[u.ID] = u
	return u, nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func newTestHandler(store Store) *Handler {
	h := NewHandler(store, testSecret, time.Hour, SuperAdmin{Email: "boss@example.com", Password: "bootstrap!"}, analytics.Nop{}, zap.NewNop())
	h.now = func() time.Time { return time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC) }
	return h
}

func postJSON(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	fn(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)))
	return w
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "developer", "marketer"} {
		r, err := ParseRole(s)
		require.NoError(t, err)
		assert.Equal(t, Role(s), r)
	}
	_, err := ParseRole("marketing")
	assert.Error(t, err)
}

func TestSignupRequest_Validate(t *testing.T) {
	valid := SignupRequest{Name: " Ada ", Email: " Ada@Example.com ", Password: "longenough", DesiredRole: "developer"}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "Ada", valid.Name)
	assert.Equal(t, "ada@example.com", valid.Email)

	cases := map[string]SignupRequest{
		"short name":    {Name: "A", Email: "a@example.com", Password: "longenough", DesiredRole: "admin"},
		"bad email":     {Name: "Ada", Email: "Ada <a@example.com>", Password: "longenough", DesiredRole: "admin"},
		"short pass":    {Name: "Ada", Email: "a@example.com", Password: "short", DesiredRole: "admin"},
		"bad role":      {Name: "Ada", Email: "a@example.com", Password: "longenough", DesiredRole: "owner"},
		"short message": {Name: "Ada", Email: "a@example.com", Password: "longenough", DesiredRole: "admin", Message: "hi"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, req.Validate())
		})
	}
}

func TestSignup(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)

	w := postJSON(t, h.Signup, SignupRequest{Name: "Ada", Email: "ada@example.com", Password: "longenough", DesiredRole: "marketer"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var u User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	assert.Equal(t, StatusPending, u.Status)
	assert.Equal(t, RoleMarketer, u.DesiredRole)
	assert.NotContains(t, w.Body.String(), "password")

	w = postJSON(t, h.Signup, SignupRequest{Name: "Ada 2", Email: "ADA@example.com", Password: "longenough", DesiredRole: "marketer"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_StatusBranches(t *testing.T) {
	store := newMemStore(
		User{ID: "u1", Email: "ok@example.com", DesiredRole: RoleDeveloper, Status: StatusApproved, PasswordHash: hashed(t, "password1")},
		User{ID: "u2", Email: "wait@example.com", DesiredRole: RoleMarketer, Status: StatusPending, PasswordHash: hashed(t, "password1")},
		User{ID: "u3", Email: "no@example.com", DesiredRole: RoleMarketer, Status: StatusRejected, PasswordHash: hashed(t, "password1")},
	)
	h := newTestHandler(store)

	w := postJSON(t, h.Login, map[string]string{"email": "OK@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	p, err := ParseToken(testSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: "u1", Role: RoleDeveloper}, p)

	w = postJSON(t, h.Login, map[string]string{"email": "ok@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Login, map[string]string{"email": "wait@example.com", "password": "password1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "pending")

	w = postJSON(t, h.Login, map[string]string{"email": "no@example.com", "password": "password1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not approved")

	w = postJSON(t, h.Login, map[string]string{"email": "ghost@example.com", "password": "password1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(t, h.Login, map[string]string{"email": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_SuperAdminBootstrap(t *testing.T) {
	store := newMemStore()
	h := newTestHandler(store)

	w := postJSON(t, h.Login, map[string]string{"email": "Boss@Example.com", "password": "bootstrap!"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, err := store.ByEmail(context.Background(), "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, u.Status)
	assert.Equal(t, RoleAdmin, u.DesiredRole)

	// a second approved admin closes the bootstrap path; the stored hash
	// still matches, so the normal flow logs the super admin in
	require.NoError(t, store.Create(context.Background(), User{ID: "a2", Email: "other@example.com", DesiredRole: RoleAdmin, Status: StatusApproved}))
	w = postJSON(t, h.Login, map[string]string{"email": "boss@example.com", "password": "bootstrap!"})
	assert.Equal(t, http.StatusOK, w.Code)

	// wrong bootstrap password never bootstraps
	fresh := newTestHandler(newMemStore())
	w = postJSON(t, fresh.Login, map[string]string{"email": "boss@example.com", "password": "guess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_SuperAdminBlockedByOtherAdmin(t *testing.T) {
	store := newMemStore(User{ID: "a1", Email: "admin@example.com", DesiredRole: RoleAdmin, Status: StatusApproved})
	h := newTestHandler(store)

	w := postJSON(t, h.Login, map[string]string{"email": "boss@example.com", "password": "bootstrap!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	_, err := store.ByEmail(context.Background(), "boss@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReview(t *testing.T) {
	store := newMemStore(
		User{ID: "u1", Email: "a@example.com", Status: StatusPending, RequestedAt: time.Unix(100, 0)},
		User{ID: "u2", Email: "b@example.com", Status: StatusPending, RequestedAt: time.Unix(200, 0)},
		User{ID: "adm", Email: "admin@example.com", DesiredRole: RoleAdmin, Status: StatusApproved, RequestedAt: time.Unix(50, 0)},
	)
	h := newTestHandler(store)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /admin/signup-requests/{id}/approve", h.Approve)
	mux.HandleFunc("POST /admin/signup-requests/{id}/reject", h.Reject)
	mux.HandleFunc("GET /admin/signup-requests", h.ListRequests)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/signup-requests/u1/approve", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/signup-requests/missing/reject", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, path := range []string{"/admin/signup-requests/adm/reject", "/admin/signup-requests/u1/reject"} {
		w = httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusConflict, w.Code, path)
	}
	adm, err := store.ByID(context.Background(), "adm")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, adm.Status)
	u1, err := store.ByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, u1.Status)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/signup-requests?status=pending", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var pending []User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "u2", pending[0].ID)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/signup-requests?status=maybe", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToken_RoundTripAndTamper(t *testing.T) {
	tok, err := GenerateToken(testSecret, Principal{UserID: "u1", Role: RoleMarketer}, time.Hour)
	require.NoError(t, err)

	p, err := ParseToken(testSecret, tok)
	require.NoError(t, err)
	assert.Equal(t, RoleMarketer, p.Role)

	_, err = ParseToken([]byte("other"), tok)
	assert.Error(t, err)

	expired, err := GenerateToken(testSecret, Principal{UserID: "u1", Role: RoleMarketer}, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, expired)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	m := New(testSecret)
	ok := func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFromContext(r.Context())
		uid, _ := analytics.UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(p.UserID + "|" + uid))
	}
	adminOnly := m.Require(ok, RoleAdmin)

	devToken, err := GenerateToken(testSecret, Principal{UserID: "dev", Role: RoleDeveloper}, time.Hour)
	require.NoError(t, err)
	adminToken, err := GenerateToken(testSecret, Principal{UserID: "adm", Role: RoleAdmin}, time.Hour)
	require.NoError(t, err)

	call := func(h http.HandlerFunc, auth string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if auth != "" {
			r.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		h(w, r)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, call(m.Wrap(ok), "").Code)
	assert.Equal(t, http.StatusUnauthorized, call(m.Wrap(ok), "Bearer garbage").Code)

	w := call(m.Wrap(ok), "Bearer "+devToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dev|dev", w.Body.String())

	assert.Equal(t, http.StatusForbidden, call(adminOnly, "Bearer "+devToken).Code)
	assert.Equal(t, http.StatusOK, call(adminOnly, "Bearer "+adminToken).Code)
}
