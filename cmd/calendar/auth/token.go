package auth

import (
	"calendar-backend/cmd/calendar/model"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "calendar-backend"

type Claims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CountryID *int64 `json:"country_id,omitempty"`

	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) Tokens {
	return Tokens{
		Secret: []byte(secret),
		TTL:    ttl,
		now:    time.Now,
	}
}

func (t Tokens) clock() time.Time {
	if t.now == nil {
		return time.Now().UTC()
	}
	return t.now().UTC()
}

func (t Tokens) Sign(id Identity) (token string, expiresAt time.Time, err error) {
	now := t.clock()
	expiresAt = now.Add(t.TTL)

	claims := Claims{
		Name:      id.Name,
		Email:     id.Email,
		Role:      string(id.Role),
		CountryID: id.CountryID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   strconv.FormatInt(id.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

func (t Tokens) Verify(token string) (Identity, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.Secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(t.clock))
	if err != nil {
		return Identity{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Identity{}, errors.New("invalid token")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Identity{}, errors.New("invalid token subject")
	}

	return Identity{
		ID:        userID,
		Name:      c.Name,
		Email:     c.Email,
		Role:      model.Role(c.Role),
		CountryID: c.CountryID,
	}, nil
}
