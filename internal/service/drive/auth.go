package drive

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"contribflow/internal/domain"
	"contribflow/internal/service/token"
)

// Scopes - права, запрашиваемые у учётной записи хранилища
var Scopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/drive.file",
}

// OAuthConfig - клиент Google для учётной записи хранилища
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// Authorizer проводит OAuth-согласие учётной записи хранилища и сохраняет её токены
type Authorizer struct {
	manager *token.Manager
	source  *token.StoredSource
}

func NewAuthorizer(manager *token.Manager, source *token.StoredSource) *Authorizer {
	return &Authorizer{manager: manager, source: source}
}

// AuthURL - адрес страницы согласия
func (a *Authorizer) AuthURL() string {
	return a.manager.AuthCodeURL("drive")
}

// Callback обменивает код на токены и сохраняет их для последующих вызовов Drive
func (a *Authorizer) Callback(ctx context.Context, code string) (token.Credential, error) {
	cred, err := a.manager.Exchange(ctx, code)
	if err != nil {
		return token.Credential{}, err
	}
	if cred.RefreshToken == "" {
		return token.Credential{}, fmt.Errorf("%w: provider did not return a refresh token", domain.ErrAuthentication)
	}
	if err := a.source.Save(ctx, cred); err != nil {
		return token.Credential{}, fmt.Errorf("failed to store drive credentials: %w", err)
	}
	return cred, nil
}
