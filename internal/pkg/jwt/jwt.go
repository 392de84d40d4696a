package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrMissingCompany = errors.New("company_id claim is missing or invalid")
	ErrInvalidToken   = errors.New("invalid access token")
)

// Claims identifies the actor behind a request. Tokens are issued by the
// identity service; this package only verifies them.
type Claims struct {
	UserID    string
	CompanyID string
	Role      string
}

type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
}

type JWTService struct {
	tokenAuth       *jwtauth.JWTAuth
	accessExpiresIn time.Duration
}

func NewJWTService(secretKey string, accessExpiresIn time.Duration) Service {
	return &JWTService{
		tokenAuth:       jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		accessExpiresIn: accessExpiresIn,
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateAccessToken mints a token in the identity service's format. Used
// by operational tooling and tests.
func (j *JWTService) GenerateAccessToken(claims Claims) (string, int64, error) {
	expiresAt := time.Now().Add(j.accessExpiresIn).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    claims.UserID,
		"company_id": claims.CompanyID,
		"role":       claims.Role,
		"type":       "access",
		"exp":        expiresAt,
	})
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ClaimsFromContext reads the verified token placed in ctx by jwtauth.Verifier.
func ClaimsFromContext(ctx context.Context) (Claims, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Claims{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return Claims{}, ErrMissingCompany
	}

	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)

	return Claims{UserID: userID, CompanyID: companyID, Role: role}, nil
}

// NewContext attaches a token carrying claims to ctx, as the HTTP verifier
// would. Used by background jobs and tests that call services directly.
func NewContext(ctx context.Context, claims Claims) (context.Context, error) {
	token := jwt.New()
	for k, v := range map[string]interface{}{
		"user_id":    claims.UserID,
		"company_id": claims.CompanyID,
		"role":       claims.Role,
		"type":       "access",
	} {
		if err := token.Set(k, v); err != nil {
			return nil, fmt.Errorf("failed to set claim %s: %w", k, err)
		}
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}
