package model

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// CreateAPIToken creates a new API token for userID and returns its
// plaintext token **once**. Only a salted hash and the lookup prefix are
// persisted.
func (s *Store) CreateAPIToken(ctx context.Context, userID uint, name string, expiresAt *time.Time) (plain string, rec *APIToken, err error) {
	if _, err = s.GetUserByID(ctx, userID); err != nil {
		return "", nil, err
	}
	plain, prefix, saltHex, hash, err := makeToken()
	if err != nil {
		return "", nil, err
	}
	rec = &APIToken{
		UserID:      userID,
		TokenPrefix: prefix,
		TokenHash:   hash,
		Salt:        saltHex,
		Name:        name,
		ExpiresAt:   expiresAt,
	}
	if err = s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return "", nil, err
	}
	return plain, rec, nil
}

// ValidateAPIToken verifies an incoming raw token string.
//
// Validation steps:
//  1. Check minimum length.
//  2. Look up the token by its prefix.
//  3. Recompute and compare the salted SHA-256 hash in constant time.
//  4. Ensure the token is not disabled and not expired.
//  5. Update its "last_used_at" timestamp (best-effort; errors ignored).
func (s *Store) ValidateAPIToken(ctx context.Context, raw string) (*APIToken, error) {
	if len(raw) < 12 {
		return nil, ErrTokenInvalid
	}
	prefix := raw[:8]

	db := s.db.WithContext(ctx)
	var rec APIToken
	if err := db.Where("token_prefix = ?", prefix).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	salt, err := hex.DecodeString(rec.Salt)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(hashToken(salt, raw)), []byte(rec.TokenHash)) != 1 {
		return nil, ErrTokenInvalid
	}

	if rec.Disabled {
		return nil, ErrTokenDisabled
	}
	if rec.ExpiresAt != nil && time.Now().After(*rec.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	_ = db.Model(&APIToken{}).Where("id = ?", rec.ID).Update("last_used_at", time.Now()).Error
	return &rec, nil
}

// RevokeAPIToken disables a token. Only tokens of userID are affected.
func (s *Store) RevokeAPIToken(ctx context.Context, userID, tokenID uint) error {
	res := s.db.WithContext(ctx).Model(&APIToken{}).
		Where("id = ? AND user_id = ?", tokenID, userID).
		Update("disabled", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// ListAPITokensByUser returns a page of tokens of userID, newest first.
// cursor is an offset; the returned next cursor is empty on the last page.
func (s *Store) ListAPITokensByUser(ctx context.Context, userID uint, limit int, cursor string) ([]APIToken, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := 0
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err == nil && n >= 0 {
			offset = n
		}
	}

	var rows []APIToken
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		next = strconv.Itoa(offset + limit)
	}
	return rows, next, nil
}
