package session

import (
	"time"

	"github.com/triovision/erpauth/jwt"
)

// TokenInfo is the displayable content of a token.
type TokenInfo struct {
	UserID    string
	UserName  string
	Email     string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes token without verifying it. Opaque (non-JWT) tokens return an error.
func Inspect(token string) (TokenInfo, error) {
	claims, err := jwt.Decode(token)
	if err != nil {
		return TokenInfo{}, err
	}
	info := TokenInfo{
		UserID:   claims.UserID,
		UserName: claims.UserName,
		Email:    claims.Email,
		Issuer:   claims.Issuer,
	}
	if info.UserID == "" {
		info.UserID = claims.Subject
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
