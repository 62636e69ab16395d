package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gotrue "github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

type SupabaseOptions struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Timeout        time.Duration
}

// SupabaseProvider delegates credentials and sessions to Supabase Auth.
type SupabaseProvider struct {
	anon  gotrue.Client
	admin gotrue.Client
}

type gotrueError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

func NewSupabaseProvider(opts SupabaseOptions) *SupabaseProvider {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(opts.URL, "/") + "/auth/v1"
	httpClient := http.Client{Timeout: timeout}

	p := &SupabaseProvider{
		anon: gotrue.New("", opts.AnonKey).WithCustomGoTrueURL(baseURL).WithClient(httpClient),
	}
	if opts.ServiceRoleKey != "" {
		p.admin = gotrue.New("", opts.ServiceRoleKey).
			WithCustomGoTrueURL(baseURL).
			WithClient(httpClient).
			WithToken(opts.ServiceRoleKey)
	}
	return p
}

func (p *SupabaseProvider) SignUp(ctx context.Context, email, password string) (*Account, error) {
	resp, err := await(ctx, func() (*types.SignupResponse, error) {
		return p.anon.Signup(types.SignupRequest{Email: normalizeEmail(email), Password: password})
	})
	if err != nil {
		status, apiErr, err := classify("signup", err)
		if err != nil {
			return nil, err
		}
		if isAlreadyRegistered(apiErr) {
			return nil, ErrAccountExists
		}
		return nil, unexpected("signup", status, apiErr)
	}
	// The client copies the session user into User when auto-confirm is on.
	return toAccount(resp.User)
}

func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (*Account, *Session, error) {
	resp, err := await(ctx, func() (*types.TokenResponse, error) {
		return p.anon.SignInWithEmailPassword(normalizeEmail(email), password)
	})
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		status, apiErr, err := classify("sign in", err)
		if err != nil {
			return nil, nil, err
		}
		if rejected(status) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, unexpected("sign in", status, apiErr)
	}
	return toSession(&resp.Session)
}

func (p *SupabaseProvider) Refresh(ctx context.Context, refreshToken string) (*Account, *Session, error) {
	resp, err := await(ctx, func() (*types.TokenResponse, error) {
		return p.anon.RefreshToken(refreshToken)
	})
	if errors.Is(err, types.ErrInvalidTokenRequest) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		status, apiErr, err := classify("refresh", err)
		if err != nil {
			return nil, nil, err
		}
		if rejected(status) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, unexpected("refresh", status, apiErr)
	}
	return toSession(&resp.Session)
}

func (p *SupabaseProvider) Verify(ctx context.Context, accessToken string) (*Account, error) {
	resp, err := await(ctx, func() (*types.UserResponse, error) {
		return p.anon.WithToken(accessToken).GetUser()
	})
	if err != nil {
		status, apiErr, err := classify("get user", err)
		if err != nil {
			return nil, err
		}
		if rejected(status) || status == http.StatusNotFound {
			return nil, ErrInvalidToken
		}
		return nil, unexpected("get user", status, apiErr)
	}
	return toAccount(resp.User)
}

func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, p.anon.WithToken(accessToken).Logout()
	})
	if err != nil {
		status, apiErr, err := classify("logout", err)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return ErrInvalidToken
		}
		return unexpected("logout", status, apiErr)
	}
	return nil
}

// DeleteAccount uses the admin API and therefore needs the service role key.
func (p *SupabaseProvider) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if p.admin == nil {
		return fmt.Errorf("%w: service role key not configured", ErrUnavailable)
	}
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, p.admin.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: id})
	})
	if err != nil {
		status, apiErr, err := classify("delete user", err)
		if err != nil {
			return err
		}
		if status == http.StatusNotFound {
			return ErrAccountNotFound
		}
		return unexpected("delete user", status, apiErr)
	}
	return nil
}

// await runs a blocking client call and gives up when ctx ends first. The
// abandoned call still ends within the HTTP client timeout.
func await[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, unavailable("identity call", err)
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		val, err := call()
		done <- result{val, err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		return zero, unavailable("identity call", ctx.Err())
	}
}

const statusPrefix = "response status code "

// classify splits a client error into the HTTP status and GoTrue error body.
// Transport failures, cancellations and 5xx answers come back as ErrUnavailable.
func classify(op string, err error) (int, *gotrueError, error) {
	if errors.Is(err, ErrUnavailable) {
		return 0, nil, err
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, statusPrefix) {
		var netErr net.Error
		var urlErr *url.Error
		if errors.As(err, &urlErr) || errors.As(err, &netErr) {
			return 0, nil, unavailable(op, err)
		}
		return 0, nil, fmt.Errorf("identity provider %s: %w", op, err)
	}

	code, body, _ := strings.Cut(strings.TrimPrefix(msg, statusPrefix), ": ")
	status, convErr := strconv.Atoi(code)
	if convErr != nil {
		return 0, nil, fmt.Errorf("identity provider %s: %w", op, err)
	}
	if status >= http.StatusInternalServerError {
		return status, nil, fmt.Errorf("%w: %s returned status %d", ErrUnavailable, op, status)
	}

	var apiErr gotrueError
	_ = json.Unmarshal([]byte(body), &apiErr)
	return status, &apiErr, nil
}

func rejected(status int) bool {
	return status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden
}

func toAccount(u types.User) (*Account, error) {
	if u.ID == uuid.Nil {
		return nil, errors.New("identity provider returned no user")
	}
	return &Account{ID: u.ID, Email: u.Email}, nil
}

func toSession(s *types.Session) (*Account, *Session, error) {
	account, err := toAccount(s.User)
	if err != nil {
		return nil, nil, err
	}

	expiresAt := time.Unix(s.ExpiresAt, 0)
	if s.ExpiresAt == 0 {
		expiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return account, &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    s.TokenType,
		ExpiresAt:    expiresAt,
	}, nil
}

func isAlreadyRegistered(e *gotrueError) bool {
	if e == nil {
		return false
	}
	switch e.ErrorCode {
	case "user_already_exists", "email_exists":
		return true
	}
	return strings.Contains(strings.ToLower(e.text()), "already registered")
}

func unexpected(op string, status int, e *gotrueError) error {
	msg := ""
	if e != nil {
		msg = e.text()
	}
	return fmt.Errorf("identity provider %s failed with status %d: %s", op, status, msg)
}
