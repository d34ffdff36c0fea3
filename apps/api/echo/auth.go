package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	IsStaff      bool   `json:"is_staff,omitempty"`
}

// Auth issues and checks the API tokens.
type Auth struct {
	key        []byte
	issuer     string
	expiration time.Duration
	refresh    time.Duration
	nowFunc    func() time.Time
}

func NewAuth(conf *core.Config) *Auth {
	return &Auth{
		key:        []byte(conf.SecretKey),
		issuer:     conf.AppName,
		expiration: conf.Server.JWTExpirationDelta,
		refresh:    conf.Server.JWTRefreshExpirationDelta,
		nowFunc:    time.Now,
	}
}

// Middleware parses the bearer token into the context.
func (a *Auth) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

func (a *Auth) Claims(usr user.User, origIat ...int64) *Claims {
	now := a.nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
		Role:         usr.Role,
		IsStaff:      usr.IsStaff,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *Auth) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(a.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Token is a shortcut for GenerateToken(Claims(usr)).
func (a *Auth) Token(usr user.User) (string, error) {
	return a.GenerateToken(a.Claims(usr))
}

// Refresh issues a new token keeping the original issue time, until the refresh window closes.
func (a *Auth) Refresh(claims Claims, usr user.User) (string, error) {
	if !usr.IsActive {
		return "", errAccountDeactivated
	}
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(a.refresh)
	if a.nowFunc().After(expTime) {
		return "", errRefreshExpired
	}
	return a.GenerateToken(a.Claims(usr, claims.OrigIssuedAt))
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}
	return user.User{}, errUnauthorized
}

// userMiddleware loads the token's account into the context. Unknown and deactivated accounts are rejected.
func userMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			id, err := strconv.Atoi(claims.Subject)
			if err != nil {
				return errUnauthorized
			}
			usr, err := svc.GetByID(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errAccountDeactivated
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// staffMiddleware only lets instructors and staff through.
func staffMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return err
		}
		if !usr.IsInstructorOrStaff() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}
