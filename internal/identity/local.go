package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/limpatech-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const localIssuer = "limpatech"

type LocalOptions struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// LocalProvider is a self-hosted stand-in for the hosted auth service. It
// keeps bcrypt hashes in the credentials table and session state in
// auth_sessions; access tokens are HS256 JWTs naming their session.
type LocalProvider struct {
	db            *gorm.DB
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	// compared against when the email is unknown so both failures cost one bcrypt run
	dummyHash []byte
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewLocalProvider(db *gorm.DB, opts LocalOptions) (*LocalProvider, error) {
	if opts.Secret == "" {
		return nil, errors.New("local identity provider requires a signing secret")
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	return &LocalProvider{
		db:            db,
		secret:        []byte(opts.Secret),
		accessExpiry:  opts.AccessExpiry,
		refreshExpiry: opts.RefreshExpiry,
		dummyHash:     dummy,
	}, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Account, error) {
	email = normalizeEmail(email)

	var existing int64
	if err := p.db.WithContext(ctx).Model(&models.Credential{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, unavailable("lookup credential", err)
	}
	if existing > 0 {
		return nil, ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cred := models.Credential{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.db.WithContext(ctx).Create(&cred).Error; err != nil {
		if isDuplicate(err) {
			return nil, ErrAccountExists
		}
		return nil, unavailable("create credential", err)
	}

	return &Account{ID: cred.ID, Email: cred.Email}, nil
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Account, *Session, error) {
	var cred models.Credential
	err := p.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(password))
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, unavailable("lookup credential", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := p.issueSession(ctx, &cred)
	if err != nil {
		return nil, nil, err
	}
	return &Account{ID: cred.ID, Email: cred.Email}, session, nil
}

func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Account, *Session, error) {
	db := p.db.WithContext(ctx)

	var stored models.AuthSession
	err := db.Where("token_hash = ? AND revoked = ?", hashToken(refreshToken), false).First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, unavailable("lookup session", err)
	}

	// refresh tokens are single use; a concurrent refresh that revoked it first wins
	res := db.Model(&models.AuthSession{}).
		Where("id = ? AND revoked = ?", stored.ID, false).
		Update("revoked", true)
	if res.Error != nil {
		return nil, nil, unavailable("revoke session", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil, ErrInvalidToken
	}
	if time.Now().After(stored.ExpiresAt) {
		return nil, nil, ErrInvalidToken
	}

	var cred models.Credential
	err = db.First(&cred, "id = ?", stored.AccountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidToken
	}
	if err != nil {
		return nil, nil, unavailable("lookup credential", err)
	}

	session, err := p.issueSession(ctx, &cred)
	if err != nil {
		return nil, nil, err
	}
	return &Account{ID: cred.ID, Email: cred.Email}, session, nil
}

func (p *LocalProvider) Verify(ctx context.Context, accessToken string) (*Account, error) {
	claims, err := p.parse(accessToken, jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	var stored models.AuthSession
	err = p.db.WithContext(ctx).First(&stored, "id = ? AND account_id = ?", sessionID, accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, unavailable("lookup session", err)
	}
	if stored.Revoked {
		return nil, ErrInvalidToken
	}

	return &Account{ID: accountID, Email: claims.Email}, nil
}

// SignOut revokes the session named by the token. Expired tokens are still
// accepted here so that a client can always end its session.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	claims, err := p.parse(accessToken, jwt.WithoutClaimsValidation())
	if err != nil {
		return ErrInvalidToken
	}
	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return ErrInvalidToken
	}

	err = p.db.WithContext(ctx).Model(&models.AuthSession{}).
		Where("id = ?", sessionID).
		Update("revoked", true).Error
	if err != nil {
		return unavailable("revoke session", err)
	}
	return nil
}

func (p *LocalProvider) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.AuthSession{}).Error; err != nil {
			return unavailable("delete sessions", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.Credential{})
		if result.Error != nil {
			return unavailable("delete credential", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrAccountNotFound
		}
		return nil
	})
}

func (p *LocalProvider) parse(token string, opts ...jwt.ParserOption) (*accessClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(localIssuer))

	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *LocalProvider) issueSession(ctx context.Context, cred *models.Credential) (*Session, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	refreshToken := base64.URLEncoding.EncodeToString(rawBytes)

	now := time.Now()
	stored := models.AuthSession{
		ID:        uuid.New(),
		AccountID: cred.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: now.Add(p.refreshExpiry),
	}
	if err := p.db.WithContext(ctx).Create(&stored).Error; err != nil {
		return nil, unavailable("store session", err)
	}

	expiresAt := now.Add(p.accessExpiry)
	claims := accessClaims{
		Email: cred.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        stored.ID.String(),
			Subject:   cred.ID.String(),
			Issuer:    localIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresAt:    expiresAt,
	}, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
