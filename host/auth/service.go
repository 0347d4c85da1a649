package auth

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/xy-planning-network/switchyard"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
)

// A GoogleConfig lets Google OAuth access tokens stand in for a switchyard JWT.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string

	// Emails lists who may authenticate.
	// An entry beginning with "@" admits a whole domain.
	Emails []string

	// Endpoint overrides the base URL of Google's userinfo API.
	Endpoint string
}

// Service authenticates the bearers of tokens.
type Service struct {
	config   *oauth2.Config
	emails   []string
	endpoint string
	key      []byte
	parser   *jwt.Parser
}

// NewService constructs a *Service verifying JWTs signed with jwtKey.
// If g is not nil, Google OAuth access tokens are accepted, too.
func NewService(jwtKey string, g *GoogleConfig) (*Service, error) {
	if jwtKey == "" {
		return nil, fmt.Errorf(`%w: jwt key cannot be ""`, switchyard.ErrBadConfig)
	}

	s := &Service{
		key:    []byte(jwtKey),
		parser: &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}},
	}

	if g == nil {
		return s, nil
	}

	if g.ClientID == "" || g.ClientSecret == "" || len(g.Emails) == 0 {
		return nil, fmt.Errorf(`%w: google config cannot be ""`, switchyard.ErrBadConfig)
	}

	s.config = &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		Scopes:       []string{goauth2.UserinfoEmailScope},
		Endpoint:     google.Endpoint,
	}
	s.endpoint = g.Endpoint
	for _, e := range g.Emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			s.emails = append(s.emails, e)
		}
	}

	return s, nil
}
