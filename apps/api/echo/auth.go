package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/profile"
)

const (
	contextTokenKey   = "userToken"
	contextProfileKey = "profile"
	contextObjectKey  = "object"
)

var NowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

func (c Claims) IsAdmin() bool   { return c.Role == profile.RoleAdmin }
func (c Claims) CanAuthor() bool { return c.Role == profile.RoleTeacher || c.IsAdmin() }

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GetProfileClaims builds the claims of a fresh token for p.
// origIat carries the original issue time over token refreshes.
func GetProfileClaims(p profile.Profile, conf *core.Config, origIat ...int64) *Claims {
	now := NowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   p.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the profile Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextProfile loads the authenticated profile once per request.
// A token outliving its profile is unauthorized.
func getContextProfile(ctx echo.Context, svc *profile.Service) (profile.Profile, error) {
	if p, ok := ctx.Get(contextProfileKey).(profile.Profile); ok {
		return p, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return profile.Profile{}, err
	}
	p, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if err == profile.ErrNotFound {
			return profile.Profile{}, errUnauthorized
		}
		return profile.Profile{}, errors.Wrap(err, "finding profile by ID")
	}
	ctx.Set(contextProfileKey, p)
	return p, nil
}

func refreshToken(ctx echo.Context, svc *profile.Service, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	p, err := getContextProfile(ctx, svc)
	if err != nil {
		return "", errors.Wrap(err, "getting context profile")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(GetProfileClaims(p, conf, claims.OrigIssuedAt), conf.SecretKey)
	return token, errors.Wrap(err, "generating token")
}
