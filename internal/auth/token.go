// Package auth issues and verifies the bearer credentials that carry a user's identity.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"cidadeemfoco/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Decode failures. Every error returned by Codec.Decode wraps exactly one of these.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Identity is the verified claim set of an authenticated user.
type Identity struct {
	UserID    uint
	Name      string
	Email     string
	Level     models.Level
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity holds the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Level.IsAdmin()
}

// claims is the JWT payload. Field names are shared with existing clients.
type claims struct {
	UserID uint         `json:"idUser"`
	Name   string       `json:"nome"`
	Email  string       `json:"email"`
	Level  models.Level `json:"level"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a single secret.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// CodecOption customises a Codec.
type CodecOption func(*Codec)

// WithIssuer sets the "iss" claim written and required by the codec.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec returns a Codec that signs with secret.
func NewCodec(secret string, opts ...CodecOption) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	c := &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a credential for identity that expires ttl from now.
// A non-positive ttl yields a credential that is already expired.
func (c *Codec) Issue(identity Identity, ttl time.Duration) (string, error) {
	now := c.now()
	cl := claims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Email:  identity.Email,
		Level:  identity.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(identity.UserID), 10),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies credential and returns the identity it carries.
func (c *Codec) Decode(credential string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}

	var cl claims
	token, err := jwt.ParseWithClaims(credential, &cl, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrMalformed
	}
	if cl.UserID == 0 || !cl.Level.Valid() {
		return nil, fmt.Errorf("%w: missing identity claims", ErrMalformed)
	}

	identity := &Identity{
		UserID: cl.UserID,
		Name:   cl.Name,
		Email:  cl.Email,
		Level:  cl.Level,
	}
	if cl.ExpiresAt != nil {
		identity.ExpiresAt = cl.ExpiresAt.Time
	}
	return identity, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
