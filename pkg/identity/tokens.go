package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"finledger/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (p *Provider) issueAccessToken(u models.User) (string, time.Time, error) {
	now := p.now()
	exp := now.Add(p.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (p *Provider) parseAccessToken(raw string) (*claims, error) {
	token, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return c, nil
}

// createRefreshToken stores the hash of a fresh random token and returns the raw token.
func (p *Provider) createRefreshToken(db *gorm.DB, userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(b)
	rt := models.RefreshToken{UserID: userID, TokenHash: hashToken(raw), ExpiresAt: p.now().UTC().Add(p.refreshTTL)}
	if err := db.Create(&rt).Error; err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

func (p *Provider) findRefreshToken(db *gorm.DB, raw string) (models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", hashToken(raw)).First(&rt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.RefreshToken{}, fail(CodeInvalidToken, nil)
		}
		return models.RefreshToken{}, fmt.Errorf("load refresh token: %w", err)
	}
	return rt, nil
}

func (p *Provider) openSession(db *gorm.DB, u models.User) (Session, error) {
	token, exp, err := p.issueAccessToken(u)
	if err != nil {
		return Session{}, err
	}
	refresh, err := p.createRefreshToken(db, u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: identityOf(u), Token: token, RefreshToken: refresh, ExpiresAt: exp}, nil
}

// Refresh exchanges a live refresh token for a new session. The presented token is revoked.
func (p *Provider) Refresh(ctx context.Context, raw string) (Session, error) {
	var s Session
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rt, err := p.findRefreshToken(tx, raw)
		if err != nil {
			return err
		}
		if rt.Revoked || p.now().After(rt.ExpiresAt) {
			return fail(CodeInvalidToken, nil)
		}
		user, err := p.userBy(tx, "id = ?", rt.UserID)
		if err != nil {
			if IsCode(err, CodeUserNotFound) {
				return fail(CodeInvalidToken, err)
			}
			return err
		}
		res := tx.Model(&models.RefreshToken{}).Where("id = ? AND revoked = ?", rt.ID, false).Update("revoked", true)
		if res.Error != nil {
			return fmt.Errorf("revoke refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fail(CodeInvalidToken, nil)
		}
		s, err = p.openSession(tx, user)
		return err
	})
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// Revoke invalidates a refresh token, as on logout.
func (p *Provider) Revoke(ctx context.Context, raw string) error {
	db := p.db.WithContext(ctx)
	rt, err := p.findRefreshToken(db, raw)
	if err != nil {
		return err
	}
	if err := db.Model(&rt).Update("revoked", true).Error; err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
