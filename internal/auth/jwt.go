package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errInvalidClaims = errors.New("invalid token claims")

// Principal is the authenticated caller.
type Principal struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func GenerateToken(secret []byte, p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": p.UserID,
		"role":    string(p.Role),
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, errInvalidClaims
	}

	data, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, errInvalidClaims
	}
	uid, _ := data["user_id"].(string)
	roleStr, _ := data["role"].(string)
	role, err := ParseRole(roleStr)
	if uid == "" || err != nil {
		return Principal{}, errInvalidClaims
	}
	return Principal{UserID: uid, Role: role}, nil
}
