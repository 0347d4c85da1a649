package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/xy-planning-network/switchyard"
)

// TokenParam is the query param a token may be passed in
// when an Authorization header cannot be set.
const TokenParam = "jwt"

// A Principal is who a request acts on behalf of and what it may do.
type Principal struct {
	Subject    string
	Operations []switchyard.Operation
	Tables     []string
}

// Allows asserts whether p may perform op against table.
// A Principal without Tables may act on every table.
func (p Principal) Allows(op switchyard.Operation, table string) bool {
	allowed := false
	for _, o := range p.Operations {
		if o == op {
			allowed = true
			break
		}
	}

	if !allowed || len(p.Tables) == 0 {
		return allowed
	}

	for _, t := range p.Tables {
		if t == table {
			return true
		}
	}

	return false
}

// Claims are what a switchyard JWT asserts about its bearer.
type Claims struct {
	jwt.RegisteredClaims
	Operations []switchyard.Operation `json:"ops"`
	Tables     []string               `json:"tables,omitempty"`
}

// Authenticate identifies the Principal r acts on behalf of.
//
// The token is read from the Authorization header's Bearer credentials
// or, failing that, the TokenParam query param.
// A token shaped like a JWT is checked against the Service's signing key.
// Any other token is treated as a Google OAuth access token
// when the Service is configured for Google.
func (s *Service) Authenticate(ctx context.Context, r *http.Request) (Principal, error) {
	token := bearer(r)
	if token == "" {
		token = r.URL.Query().Get(TokenParam)
	}

	if token == "" {
		return Principal{}, fmt.Errorf("%w: no credentials", switchyard.ErrUnauthorized)
	}

	if strings.Count(token, ".") == 2 {
		return s.AuthenticateJWT(token)
	}

	if s.config == nil {
		return Principal{}, fmt.Errorf("%w: token is not a jwt", switchyard.ErrUnauthorized)
	}

	return s.AuthenticateGoogle(ctx, token)
}

func bearer(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}
