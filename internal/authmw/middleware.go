package authmw

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"kyri56xcaesar/taskhub/internal/contract"
)

// Context keys set by the middleware for downstream handlers.
const (
	CtxUserID = "auth.uid"
	CtxEmail  = "auth.email"
	CtxName   = "auth.name"
	CtxRole   = "auth.role"
	CtxToken  = "auth.access_token"
)

// Authenticator validates bearer tokens. Local mode verifies the
// service's own HS256 tokens; OIDC mode verifies RS256 tokens against a
// JWKS endpoint (Keycloak-style external issuer).
type Authenticator struct {
	Tokens *TokenService

	Issuer   string
	Audience string
	JWKS     *keyfunc.JWKS
	Leeway   time.Duration
}

// NewLocal builds an authenticator over the local token service.
func NewLocal(tokens *TokenService) *Authenticator {
	return &Authenticator{Tokens: tokens}
}

// NewOIDC builds an authenticator over an external issuer's JWKS.
// Fetch the JWKS once at startup, not per request.
func NewOIDC(jwksURL, issuer, audience string) (*Authenticator, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:  time.Hour,
		RefreshRateLimit: time.Minute * 5,
		RefreshTimeout:   time.Second * 10,
	})
	if err != nil {
		return nil, err
	}
	return &Authenticator{
		Issuer:   issuer,
		Audience: audience,
		JWKS:     jwks,
		Leeway:   30 * time.Second,
	}, nil
}

func (a *Authenticator) parse(tokenStr string) (*Claims, error) {
	if a.JWKS == nil {
		return a.Tokens.VerifyAccess(tokenStr)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, a.JWKS.Keyfunc,
		jwt.WithIssuer(a.Issuer),
		jwt.WithAudience(a.Audience),
		jwt.WithLeeway(a.Leeway),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		return nil, contract.Errorf(contract.CodeAuth, "invalid token")
	}
	return claims, nil
}

// authenticate validates the bearer token and stores the identity in the
// gin context. Aborts the request on failure.
func (a *Authenticator) authenticate(c *gin.Context) bool {
	tokenStr, err := extractAccessToken(c)
	if err != nil {
		abortUnauthorized(c, err.Error())
		return false
	}

	claims, err := a.parse(tokenStr)
	if err != nil {
		abortUnauthorized(c, "invalid token")
		return false
	}

	c.Set(CtxToken, tokenStr)
	c.Set(CtxUserID, claims.Subject)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxName, claims.Name)
	c.Set(CtxRole, contract.SystemRole(claims.Role))

	return true
}

// Require authenticates the request and puts the identity into the gin
// context.
func (a *Authenticator) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequireSystemRole authenticates and additionally demands one of the
// given system roles.
func (a *Authenticator) RequireSystemRole(anyOf ...contract.SystemRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.authenticate(c) {
			return
		}
		role, _ := c.Get(CtxRole)
		for _, want := range anyOf {
			if role == want {
				c.Next()
				return
			}
		}
		env := contract.Fail(contract.CodeForbidden, "insufficient role")
		c.AbortWithStatusJSON(http.StatusForbidden, env)
	}
}

// Identity reads the authenticated user out of the gin context.
func Identity(c *gin.Context) (*contract.User, bool) {
	uid, ok := c.Get(CtxUserID)
	if !ok {
		return nil, false
	}
	id, ok := uid.(string)
	if !ok || id == "" {
		return nil, false
	}
	u := &contract.User{ID: id}
	if v, ok := c.Get(CtxEmail); ok {
		u.Email, _ = v.(string)
	}
	if v, ok := c.Get(CtxName); ok {
		u.Name, _ = v.(string)
	}
	if v, ok := c.Get(CtxRole); ok {
		u.Role, _ = v.(contract.SystemRole)
	}
	return u, true
}

func abortUnauthorized(c *gin.Context, msg string) {
	env := contract.Fail(contract.CodeAuth, msg)
	c.AbortWithStatusJSON(http.StatusUnauthorized, env)
}

// --- helpers ---

func extractAccessToken(c *gin.Context) (string, error) {
	// 1) Authorization: Bearer <token>
	authz := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return strings.TrimSpace(authz[7:]), nil
	}

	// 2) cookie fallback
	if cookie, err := c.Cookie("access_token"); err == nil && cookie != "" {
		return cookie, nil
	}

	return "", errors.New("missing access token")
}
