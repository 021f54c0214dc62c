package model

import "time"

// OAuthToken is the domain representation of an OAuth 2.0 grant with an
// optional offline refresh token, as handed out by providers like Google
// Drive. The gdrive codec flattens it into the stored field map and rebuilds
// it on read.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenURI     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Expiry       *time.Time
}
