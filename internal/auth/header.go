package auth

import (
	"errors"
	"strings"
)

var (
	// ErrNoToken is returned when the Authorization header is absent.
	ErrNoToken = errors.New("authorization header required")
	// ErrMalformedToken is returned when the header is not "Bearer <token>".
	ErrMalformedToken = errors.New("invalid authorization header format")
)

// ParseAuthorizationHeader extracts the credential from an Authorization header value.
// The header must hold exactly two space separated parts and the scheme is matched case-insensitively.
func ParseAuthorizationHeader(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrMalformedToken
	}
	return parts[1], nil
}
