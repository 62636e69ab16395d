package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabase(t *testing.T, handler http.HandlerFunc) *SupabaseProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSupabaseProvider(SupabaseOptions{
		URL:            srv.URL,
		AnonKey:        "anon",
		ServiceRoleKey: "service",
		Timeout:        time.Second,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSupabaseSignIn(t *testing.T) {
	id := uuid.New()
	p := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "segredo1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "bearer",
			"expires_in":    3600,
			"user":          map[string]string{"id": id.String(), "email": body["email"]},
		})
	})
	ctx := context.Background()

	account, session, err := p.SignIn(ctx, "Ana@Example.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "ana@example.com", account.Email)
	assert.Equal(t, "access", session.AccessToken)
	assert.Equal(t, "refresh", session.RefreshToken)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	_, _, err = p.SignIn(ctx, "ana@example.com", "errada")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSupabaseVerifyDistinguishesInvalidFromUnavailable(t *testing.T) {
	id := uuid.New()
	p := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good":
			writeJSON(w, http.StatusOK, map[string]string{"id": id.String(), "email": "ana@example.com"})
		case "Bearer down":
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"msg": "maintenance"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
		}
	})
	ctx := context.Background()

	account, err := p.Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)

	_, err = p.Verify(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Verify(ctx, "down")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSupabaseUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewSupabaseProvider(SupabaseOptions{URL: url, AnonKey: "anon", Timeout: time.Second})
	_, err := p.Verify(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSupabaseSignUp(t *testing.T) {
	id := uuid.New()
	p := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch body["email"] {
		case "existe@example.com":
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"code": 422, "error_code": "user_already_exists", "msg": "User already registered"})
		case "sessao@example.com":
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "a",
				"user":         map[string]string{"id": id.String(), "email": body["email"]},
			})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"id": id.String(), "email": body["email"]})
		}
	})
	ctx := context.Background()

	account, err := p.SignUp(ctx, "nova@example.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)

	account, err = p.SignUp(ctx, "sessao@example.com", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID, "auto-confirmed signup wraps the user in a session")

	_, err = p.SignUp(ctx, "existe@example.com", "segredo1")
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestSupabaseDeleteAccountUsesServiceRole(t *testing.T) {
	id := uuid.New()
	p := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "service", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		if r.URL.Path == "/auth/v1/admin/users/"+id.String() {
			w.WriteHeader(http.StatusOK)
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"msg": "User not found"})
	})
	ctx := context.Background()

	require.NoError(t, p.DeleteAccount(ctx, id))
	assert.ErrorIs(t, p.DeleteAccount(ctx, uuid.New()), ErrAccountNotFound)

	noKey := NewSupabaseProvider(SupabaseOptions{URL: "http://127.0.0.1:1", AnonKey: "anon"})
	assert.ErrorIs(t, noKey.DeleteAccount(ctx, id), ErrUnavailable)
}

func TestSupabaseRefreshAndSignOut(t *testing.T) {
	id := uuid.New()
	p := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["refresh_token"] != "valid" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant", "error_description": "Invalid Refresh Token"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "access-2",
				"refresh_token": "refresh-2",
				"token_type":    "bearer",
				"expires_at":    time.Now().Add(time.Hour).Unix(),
				"user":          map[string]string{"id": id.String(), "email": "ana@example.com"},
			})
		case "/auth/v1/logout":
			if r.Header.Get("Authorization") != "Bearer access-2" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	account, session, err := p.Refresh(ctx, "valid")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "refresh-2", session.RefreshToken)

	_, _, err = p.Refresh(ctx, "stale")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, _, err = p.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, p.SignOut(ctx, "access-2"))
	assert.ErrorIs(t, p.SignOut(ctx, "other"), ErrInvalidToken)
}

func TestSupabaseHonoursContextCancellation(t *testing.T) {
	p := newSupabase(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Verify(ctx, "token")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}
