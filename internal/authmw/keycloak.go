package authmw

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Nerzal/gocloak/v13"
)

// KeycloakService wraps the gocloak admin client for the external-IdP
// deployment profile: user provisioning and credential checks are
// delegated to Keycloak, token validation runs through the OIDC
// authenticator's JWKS.
type KeycloakService struct {
	Client       *gocloak.GoCloak
	Realm        string
	clientID     string
	clientSecret string

	Auth *Authenticator
}

func NewKeycloakService(baseURL, realm, clientID, clientSecret, audience string) (*KeycloakService, error) {
	client := gocloak.NewClient("http://" + baseURL)

	issuer := fmt.Sprintf("http://%s/realms/%s", baseURL, realm)
	jwksURL := fmt.Sprintf("http://%s/realms/%s/protocol/openid-connect/certs", baseURL, realm)

	auth, err := NewOIDC(jwksURL, issuer, audience)
	if err != nil {
		log.Printf("failed to instantiate the oidc authenticator: %v", err)

		return nil, err
	}

	s := &KeycloakService{
		Client:       client,
		Realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		Auth:         auth,
	}

	if err := s.selfTest(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *KeycloakService) selfTest() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	jwt, err := s.Client.LoginClient(
		ctx,
		s.clientID,
		s.clientSecret,
		s.Realm,
	)
	if err != nil {
		return fmt.Errorf("keycloak auth failed: %w", err)
	}

	// Minimal permission check (safe & cheap)
	_, err = s.Client.GetRealm(ctx, jwt.AccessToken, s.Realm)
	if err != nil {
		return fmt.Errorf("keycloak permission check failed: %w", err)
	}

	return nil
}

func (s *KeycloakService) LoginAdmin(ctx context.Context) (*gocloak.JWT, error) {
	return s.Client.LoginClient(
		ctx,
		s.clientID,
		s.clientSecret,
		s.Realm,
	)
}

func (s *KeycloakService) LoginUser(
	ctx context.Context,
	email, password string,
) (*gocloak.JWT, error) {

	return s.Client.Login(
		ctx,
		s.clientID,
		s.clientSecret,
		s.Realm,
		email,
		password,
	)
}

// ProvisionUser creates the user in the realm with a permanent password
// and returns the Keycloak user id.
func (s *KeycloakService) ProvisionUser(
	ctx context.Context,
	email, name, password string,
) (string, error) {

	jwt, err := s.LoginAdmin(ctx)
	if err != nil {
		return "", err
	}

	user := gocloak.User{
		Username: gocloak.StringP(email),
		Email:    gocloak.StringP(email),
		Enabled:  gocloak.BoolP(true),
		LastName: gocloak.StringP(name),
		Credentials: &[]gocloak.CredentialRepresentation{
			{
				Type:      gocloak.StringP("password"),
				Value:     gocloak.StringP(password),
				Temporary: gocloak.BoolP(false),
			},
		},
	}

	return s.Client.CreateUser(ctx, jwt.AccessToken, s.Realm, user)
}

func (s *KeycloakService) DeleteUser(ctx context.Context, userID string) error {
	jwt, err := s.LoginAdmin(ctx)
	if err != nil {
		return err
	}

	return s.Client.DeleteUser(ctx, jwt.AccessToken, s.Realm, userID)
}

func (s *KeycloakService) GetUserByEmail(ctx context.Context, email string) (*gocloak.User, error) {
	jwt, err := s.LoginAdmin(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.Client.GetUsers(ctx, jwt.AccessToken, s.Realm, gocloak.GetUsersParams{
		Email: gocloak.StringP(email),
		Exact: gocloak.BoolP(true),
		Max:   gocloak.IntP(2),
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	if len(users) > 1 {
		return nil, fmt.Errorf("multiple users matched email")
	}
	return users[0], nil
}
