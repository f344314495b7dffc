package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid seat token")

// SeatClaims binds a websocket client to one session and seat.
// Seat is 0 (left), 1 (right) or -1 (both paddles from one keyboard).
type SeatClaims struct {
	SessionToken string `json:"sid"`
	Seat         int    `json:"seat"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies seat tokens with HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the given session and seat.
func (i *Issuer) Issue(sessionToken string, seat int) (string, error) {
	now := i.now()
	claims := SeatClaims{
		SessionToken: sessionToken,
		Seat:         seat,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims. Any failure, including
// expiry or a wrong signing method, is reported as ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*SeatClaims, error) {
	claims := &SeatClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.SessionToken == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseFor is Parse plus a check that the token belongs to sessionToken.
func (i *Issuer) ParseFor(tokenString, sessionToken string) (*SeatClaims, error) {
	claims, err := i.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.SessionToken != sessionToken {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
