package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AccessUser  = "user"
	AccessAdmin = "admin"
)

var ErrInvalidSubject = errors.New("token subject is not a user id")

type Claims struct {
	UserID      string `json:"sub"`
	AccessLevel string `json:"access_level"`
	jwt.RegisteredClaims
}

type TokenConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

func DefaultTokenConfig(secret string) TokenConfig {
	return TokenConfig{
		Secret: secret,
		Expiry: 7 * 24 * time.Hour,
		Issuer: "coursehub",
	}
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID      string
	AccessLevel string
}

func (i Identity) IsAdmin() bool { return i.AccessLevel == AccessAdmin }

func CreateToken(userID, accessLevel string, cfg TokenConfig) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("missing secret")
	}
	if userID == "" {
		return "", errors.New("missing userID")
	}
	if cfg.Expiry <= 0 {
		return "", errors.New("invalid expiry")
	}
	if accessLevel == "" {
		accessLevel = AccessUser
	}

	jtiBytes := make([]byte, 16)
	if _, err := rand.Read(jtiBytes); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		UserID:      userID,
		AccessLevel: accessLevel,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.Expiry)),
			ID:        hex.EncodeToString(jtiBytes),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

func VerifyToken(tokenString string, cfg TokenConfig) (*Claims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("missing secret")
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// Decoder resolves bearer tokens into identities. Subjects must be UUIDs.
type Decoder struct {
	Config TokenConfig
}

func NewDecoder(cfg TokenConfig) Decoder { return Decoder{Config: cfg} }

func (d Decoder) Decode(token string) (Identity, error) {
	claims, err := VerifyToken(token, d.Config)
	if err != nil {
		return Identity{}, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, ErrInvalidSubject
	}
	level := claims.AccessLevel
	if level == "" {
		level = AccessUser
	}
	return Identity{UserID: id.String(), AccessLevel: level}, nil
}
