package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/xy-planning-network/switchyard"
	"golang.org/x/oauth2"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// FetchUser retrieves from Google the user token was issued to.
func (s *Service) FetchUser(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error) {
	opts := []option.ClientOption{option.WithTokenSource(s.config.TokenSource(ctx, token))}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	service, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return service.Userinfo.Get().Context(ctx).Do()
}

// AuthenticateGoogle returns a Principal for the Google user accessToken was issued to.
// That user's verified email must be one the Service admits.
// Google users may perform every operation.
func (s *Service) AuthenticateGoogle(ctx context.Context, accessToken string) (Principal, error) {
	if s.config == nil {
		return Principal{}, fmt.Errorf("%w: google is not configured", switchyard.ErrUnauthorized)
	}

	user, err := s.FetchUser(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %s", switchyard.ErrUnauthorized, err)
	}

	if user.VerifiedEmail == nil || !*user.VerifiedEmail {
		return Principal{}, fmt.Errorf("%w: %s is not verified", switchyard.ErrForbidden, user.Email)
	}

	if !s.admits(user.Email) {
		return Principal{}, fmt.Errorf("%w: %s", switchyard.ErrForbidden, user.Email)
	}

	return Principal{
		Subject:    user.Email,
		Operations: []switchyard.Operation{switchyard.Delete, switchyard.Insert, switchyard.Query, switchyard.Update},
	}, nil
}

func (s *Service) admits(email string) bool {
	email = strings.ToLower(email)
	for _, e := range s.emails {
		if e == email || (strings.HasPrefix(e, "@") && strings.HasSuffix(email, e)) {
			return true
		}
	}

	return false
}
