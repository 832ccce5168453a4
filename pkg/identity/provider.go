// Package identity registers and authenticates users and turns bearer tokens back into the
// ledger.Identity a request acts for.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"finledger/models"
	"finledger/pkg/config"
	"finledger/pkg/ledger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 6
	maxFailures    = 5
	lockFor        = 10 * time.Minute
)

// Provider is the identity provider over the users table.
type Provider struct {
	db         *gorm.DB
	secret     []byte
	issuer     string
	ttl        time.Duration
	refreshTTL time.Duration
	cost       int
	now        func() time.Time
}

// New returns a provider signing access tokens with cfg.Secret.
func New(db *gorm.DB, cfg config.JWTConfig) *Provider {
	return &Provider{
		db:         db,
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		ttl:        cfg.TTL,
		refreshTTL: cfg.RefreshTTL,
		cost:       bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	User         ledger.Identity `json:"user"`
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// Register creates a user. The email is stored lower-cased and is the login name.
func (p *Provider) Register(ctx context.Context, name, email, password string) (ledger.Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Identity{}, &ledger.ValidationError{Field: "name", Reason: "is required"}
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return ledger.Identity{}, err
	}
	hash, err := p.hash(password)
	if err != nil {
		return ledger.Identity{}, err
	}

	db := p.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return ledger.Identity{}, fmt.Errorf("check existing user: %w", err)
	}
	if count > 0 {
		return ledger.Identity{}, fail(CodeAlreadyRegistered, nil)
	}
	user := models.User{Name: name, Email: email, HashedPassword: hash}
	if err := db.Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) { // lost a race with a concurrent registration
			return ledger.Identity{}, fail(CodeAlreadyRegistered, err)
		}
		return ledger.Identity{}, fmt.Errorf("create user: %w", err)
	}
	return identityOf(user), nil
}

// Login checks the password and opens a session. Five consecutive failures lock the account
// for ten minutes.
func (p *Provider) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	db := p.db.WithContext(ctx)

	user, err := p.userBy(db, "email = ?", email)
	if err != nil {
		return Session{}, err
	}
	now := p.now().UTC()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return Session{}, fail(CodeRateLimited, nil)
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		updates := map[string]any{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailures {
			updates["failed_login_attempts"] = 0
			updates["locked_until"] = now.Add(lockFor)
		}
		if uerr := db.Model(&user).Updates(updates).Error; uerr != nil {
			return Session{}, fmt.Errorf("record failed login: %w", uerr)
		}
		return Session{}, fail(CodeWrongCredential, err)
	}

	if err := db.Model(&user).Updates(map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return Session{}, fmt.Errorf("record login: %w", err)
	}
	return p.openSession(db, user)
}

// Verify turns an access token into the identity it was issued to. The user must still exist.
func (p *Provider) Verify(ctx context.Context, token string) (ledger.Identity, error) {
	c, err := p.parseAccessToken(token)
	if err != nil {
		return ledger.Identity{}, fail(CodeInvalidToken, err)
	}
	user, err := p.userBy(p.db.WithContext(ctx), "id = ?", c.Subject)
	if err != nil {
		if IsCode(err, CodeUserNotFound) {
			return ledger.Identity{}, fail(CodeInvalidToken, err)
		}
		return ledger.Identity{}, err
	}
	return identityOf(user), nil
}

// ResetPassword replaces the password of the user with email and clears any lockout.
func (p *Provider) ResetPassword(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := p.hash(password)
	if err != nil {
		return err
	}
	db := p.db.WithContext(ctx)
	user, err := p.userBy(db, "email = ?", email)
	if err != nil {
		return err
	}
	return db.Model(&user).Updates(map[string]any{
		"hashed_password":       hash,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error
}

func (p *Provider) hash(password string) ([]byte, error) {
	if len(password) < minPasswordLen {
		return nil, fail(CodeWeakCredential, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (p *Provider) userBy(db *gorm.DB, query string, arg any) (models.User, error) {
	var user models.User
	if err := db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, fail(CodeUserNotFound, nil)
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", fail(CodeInvalidEmail, err)
	}
	if addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", fail(CodeInvalidEmail, nil)
	}
	return email, nil
}

func identityOf(u models.User) ledger.Identity {
	return ledger.Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
}
