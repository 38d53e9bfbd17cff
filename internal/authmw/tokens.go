package authmw

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"kyri56xcaesar/taskhub/internal/contract"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims

	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	TokenType string `json:"typ"`
}

// TokenService signs and verifies the local HS256 token pairs.
type TokenService struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

func NewTokenService(secret []byte, issuer string) *TokenService {
	return &TokenService{
		Secret:     secret,
		Issuer:     issuer,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 72 * time.Hour,
		Leeway:     30 * time.Second,
	}
}

// IssuePair mints a fresh access+refresh pair for u. The refresh token's
// jti is returned so the caller can persist it for rotation/revocation.
func (s *TokenService) IssuePair(u *contract.User) (contract.TokenPair, string, error) {
	now := time.Now()

	access, err := s.sign(u, tokenTypeAccess, uuid.NewString(), now, s.AccessTTL)
	if err != nil {
		return contract.TokenPair{}, "", err
	}

	refreshID := uuid.NewString()
	refresh, err := s.sign(u, tokenTypeRefresh, refreshID, now, s.RefreshTTL)
	if err != nil {
		return contract.TokenPair{}, "", err
	}

	return contract.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.AccessTTL.Seconds()),
	}, refreshID, nil
}

func (s *TokenService) sign(u *contract.User, typ, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   u.ID,
			Issuer:    s.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		TokenType: typ,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

func (s *TokenService) verify(tokenStr, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(t *jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithIssuer(s.Issuer),
		jwt.WithLeeway(s.Leeway),
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, contract.Errorf(contract.CodeAuth, "invalid token")
	}
	if claims.TokenType != wantType {
		return nil, contract.Errorf(contract.CodeAuth, "wrong token type")
	}
	return claims, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, tokenTypeAccess)
}

// VerifyRefresh validates a refresh token; the caller still has to check
// the jti against the session store before rotating.
func (s *TokenService) VerifyRefresh(tokenStr string) (*Claims, error) {
	return s.verify(tokenStr, tokenTypeRefresh)
}
