package account

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"storefront/internal/apperr"
)

var (
	ErrTokenInvalid = apperr.New(apperr.Validation, apperr.CodeAuthTokenInvalid)
	ErrTokenExpired = apperr.New(apperr.Validation, apperr.CodeAuthTokenExpired)
)

// Claims identify a login. CustomerID is zero for seller and manager
// logins.
type Claims struct {
	UserName   string `json:"user_name"`
	Portal     string `json:"portal"`
	CustomerID uint64 `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, expireHours int) *Tokens {
	if expireHours <= 0 {
		expireHours = 24
	}
	return &Tokens{
		secret: []byte(secret),
		ttl:    time.Duration(expireHours) * time.Hour,
		now:    time.Now,
	}
}

func (t *Tokens) Issue(userName, portal string, customerID uint64) (string, error) {
	now := t.now()
	claims := Claims{
		UserName:   userName,
		Portal:     portal,
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userName,
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}
