package token

import (
	"strings"

	"golang.org/x/oauth2"
)

// Response is the body returned by the dev-login, refresh and provider
// callback endpoints.
type Response struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// OAuth2 converts the response into the in-memory credential. The expiry is
// read from the JWT when it carries one.
func (r Response) OAuth2() *oauth2.Token {
	tokenType := r.TokenType
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	t := &oauth2.Token{
		AccessToken: r.AccessToken,
		TokenType:   tokenType,
	}
	if exp, ok := UnverifiedExpiry(r.AccessToken); ok {
		t.Expiry = exp
	}
	return t
}
