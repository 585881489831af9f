package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/classecho/classecho/internal/model"
)

// TokenTTL is how long an issued JWT stays valid.
const TokenTTL = 24 * time.Hour

// Claims is the JWT payload: user id as subject plus the role and
// linked registry ids needed for request authorization.
type Claims struct {
	UserID    int64  `json:"uid"`
	Role      string `json:"role"`
	TeacherID int64  `json:"teacher_id,omitempty"`
	StudentID int64  `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 JWT for the user.
func IssueToken(secret []byte, user *model.User, now time.Time) (string, error) {
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	if user.TeacherID != nil {
		claims.TeacherID = *user.TeacherID
	}
	if user.StudentID != nil {
		claims.StudentID = *user.StudentID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies the signature and expiry of a JWT and returns its
// claims. Only HMAC-signed tokens are accepted.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
