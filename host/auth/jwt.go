package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v4"
	"github.com/xy-planning-network/switchyard"
)

// AuthenticateJWT verifies token was signed with the Service's key
// and returns the Principal its Claims describe.
func (s *Service) AuthenticateJWT(token string) (Principal, error) {
	claims := new(Claims)
	_, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %s", switchyard.ErrUnauthorized, err)
	}

	for _, op := range claims.Operations {
		if err := op.Valid(); err != nil {
			return Principal{}, fmt.Errorf("%w: %s", switchyard.ErrUnauthorized, err)
		}
	}

	return Principal{Subject: claims.Subject, Operations: claims.Operations, Tables: claims.Tables}, nil
}

// Sign issues a token asserting claims, signed with the Service's key.
func (s *Service) Sign(claims Claims) (string, error) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %s", switchyard.ErrUnexpected, err)
	}

	return token, nil
}
