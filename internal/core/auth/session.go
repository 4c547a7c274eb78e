package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-account-service/internal/domain"
	"go-account-service/pkg/utils"
)

// Claims is the outward session payload: identity plus an authority snapshot.
// It never carries the password digest or phone. AuthTag lets callers detect
// authority drift without a store round-trip.
type Claims struct {
	UID       string   `json:"uid"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Authority []string `json:"authority"`
	AuthTag   string   `json:"auth_tag"`
	jwt.RegisteredClaims
}

// Sessioner issues and validates the signed session token carried in the
// `user` cookie. Tokens are stateless; logout is cookie clearing only.
type Sessioner struct {
	Secret     []byte
	Issuer     string
	TTL        time.Duration
	CookieName string
}

func (s *Sessioner) Issue(u *domain.User) (string, error) {
	now := time.Now()
	authority := u.Authority()
	claims := Claims{
		UID:       u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Authority: authority,
		AuthTag:   utils.HashID(domain.AuthorityString(authority)),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

func (s *Sessioner) parse(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected alg")
		}
		return s.Secret, nil
	}, jwt.WithIssuer(s.Issuer), jwt.WithLeeway(60*time.Second))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// Validate returns nil for an absent, expired or garbled token: such requests
// are simply not logged in, never an error to the caller.
func (s *Sessioner) Validate(tokenStr string) *Claims {
	if tokenStr == "" {
		return nil
	}
	c, err := s.parse(tokenStr)
	if err != nil {
		return nil
	}
	return c
}
