package token

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials exchanges a client id and secret for an access token.
// Credentials go in an HTTP Basic Authorization header and the form body
// carries grant_type=client_credentials.
type ClientCredentials struct {
	config *clientcredentials.Config
	client *http.Client
}

// NewClientCredentials creates an exchanger for tokenURL. A nil client uses
// http.DefaultClient.
func NewClientCredentials(clientID, clientSecret, tokenURL string, client *http.Client) *ClientCredentials {
	return &ClientCredentials{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		client: client,
	}
}

// Exchange performs one token request. The returned token's Expiry is computed
// by the oauth2 package from expires_in.
func (cc *ClientCredentials) Exchange(ctx context.Context) (*oauth2.Token, error) {
	if cc.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, cc.client)
	}
	return cc.config.Token(ctx)
}
