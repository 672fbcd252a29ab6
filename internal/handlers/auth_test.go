package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/khatriaman123/Todo/internal/auth"
	dom "github.com/khatriaman123/Todo/internal/domain"
	"github.com/khatriaman123/Todo/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

type stubUserRepo struct {
	nextID int64
	users  map[int64]dom.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{nextID: 1, users: map[int64]dom.User{}}
}

func (r *stubUserRepo) Create(_ context.Context, name, email, passwordHash string) (dom.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return dom.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := dom.User{ID: r.nextID, Name: name, Email: email, PasswordHash: passwordHash}
	r.users[u.ID] = u
	r.nextID++
	return u, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (dom.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return dom.User{}, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (dom.User, error) {
	u, ok := r.users[id]
	if !ok {
		return dom.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]dom.User, error) {
	out := make([]dom.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	u, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	r.users[id] = u
	return nil
}

func newAuthRouter(repo *stubUserRepo) (*gin.Engine, *auth.TokenManager) {
	gin.SetMode(gin.TestMode)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := service.NewUserService(repo, bcrypt.MinCost)
	h := NewAuthHandler(tokens, svc)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.GET("/auth/users", h.ListUsers)
	api.GET("/auth/user/:id", h.GetUser)
	api.POST("/auth/update-password", auth.RequireToken(tokens), h.UpdatePassword)
	return r, tokens
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := newAuthRouter(newStubUserRepo())

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "Alice", "email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User["email"] != "a@x.com" {
		t.Fatalf("unexpected user: %v", resp.User)
	}
	if _, leaked := resp.User["password"]; leaked {
		t.Fatal("register response must not include the password hash")
	}

	// Missing field -> 400.
	rec = doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"email": "b@x.com", "password": "secret1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: status = %d, want 400", rec.Code)
	}

	// Duplicate email -> 409.
	rec = doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "Alice2", "email": "a@x.com", "password": "secret2"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: status = %d, want 409", rec.Code)
	}
}

func TestLoginIssuesDecodableToken(t *testing.T) {
	r, tokens := newAuthRouter(newStubUserRepo())

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "Alice", "email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := tokens.Parse(resp.Token)
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != resp.User.ID || claims.Email != "a@x.com" {
		t.Fatalf("claims %+v do not match user %+v", claims, resp.User)
	}
}

func TestLoginFailureBodiesAreIdentical(t *testing.T) {
	r, _ := newAuthRouter(newStubUserRepo())

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "Alice", "email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	unknown := doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "nobody@x.com", "password": "secret1"})
	if unknown.Code != http.StatusNotFound {
		t.Fatalf("unknown email: status = %d, want 404", unknown.Code)
	}
	wrong := doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "a@x.com", "password": "nope"})
	if wrong.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", wrong.Code)
	}
	if unknown.Body.String() != wrong.Body.String() {
		t.Fatalf("failure bodies differ: %s vs %s", unknown.Body.String(), wrong.Body.String())
	}
}

func TestListAndGetUserScrubPassword(t *testing.T) {
	r, _ := newAuthRouter(newStubUserRepo())

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "Alice", "email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/auth/users", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list users: status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("users list leaks password field: %s", rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/auth/user/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get user: status = %d", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("user view leaks password field: %s", rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/auth/user/99", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing user: status = %d, want 404", rec.Code)
	}
}

func TestUpdatePasswordEndpoint(t *testing.T) {
	r, tokens := newAuthRouter(newStubUserRepo())

	rec := doJSON(t, r, http.MethodPost, "/api/auth/register", "",
		gin.H{"name": "Alice", "email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}
	token, err := tokens.Issue(1, "a@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// No token -> 401 before the handler runs.
	rec = doJSON(t, r, http.MethodPost, "/api/auth/update-password", "",
		gin.H{"currentPassword": "secret1", "newPassword": "secret2"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/auth/update-password", token,
		gin.H{"currentPassword": "secret1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing new password: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/auth/update-password", token,
		gin.H{"currentPassword": "secret1", "newPassword": "secret1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("same password: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/auth/update-password", token,
		gin.H{"currentPassword": "nope", "newPassword": "secret2"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/auth/update-password", token,
		gin.H{"currentPassword": "secret1", "newPassword": "secret2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update password: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Only the new password logs in now.
	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "a@x.com", "password": "secret2"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new password: status = %d", rec.Code)
	}
	rec = doJSON(t, r, http.MethodPost, "/api/auth/login", "",
		gin.H{"email": "a@x.com", "password": "secret1"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login with old password: status = %d, want 401", rec.Code)
	}
}
