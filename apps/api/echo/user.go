package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core/user"
)

type userApi struct {
	svc          user.Service
	auth         *Auth
	validate     *validator.Validate
	schoolDomain string
}

func registerUserAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	limiter *ipRateLimiter,
	svc user.Service,
	auth *Auth,
	validate *validator.Validate,
	schoolDomain string,
) {
	api := userApi{
		svc:          svc,
		auth:         auth,
		validate:     validate,
		schoolDomain: schoolDomain,
	}

	ug := g.Group("/auth")

	// un-authed endpoints
	ug.POST("/email/send-code", api.sendCode, limiter.middleware)
	ug.POST("/email/verify", api.verifyCode)
	ug.POST("/signup", api.signup)
	ug.POST("/login", api.login)
	ug.POST("/logout", api.logout)

	// authed endpoints
	ug.POST("/token-refresh", api.refreshToken, authed...)
	ug.GET("/me", api.me, authed...)
}

// Handlers

func (api *userApi) sendCode(ctx echo.Context) error {
	var data EmailRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailRequest")
	}
	res, err := api.svc.SendCode(ctx.Request().Context(), data.Email)
	if err != nil {
		return errors.Wrap(err, "sending code")
	}
	return ctx.JSON(http.StatusOK, SendCodeResponse{OK: true, SendCodeResult: res})
}

func (api *userApi) verifyCode(ctx echo.Context) error {
	var data VerifyRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VerifyRequest")
	}
	res, err := api.svc.VerifyCode(ctx.Request().Context(), data.Email, data.Code)
	if err != nil {
		return errors.Wrap(err, "verifying code")
	}
	return ctx.JSON(http.StatusOK, VerifyResponse{OK: true, VerifyResult: res})
}

func (api *userApi) signup(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.schoolDomain); err != nil {
		return err
	}

	usr, err := api.svc.Signup(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "signing up")
	}
	return ctx.JSON(http.StatusCreated, SignupResponse{OK: true, ID: usr.ID})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.Token(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{OK: true, Token: token, User: usr.Me()})
}

// logout is a no-op for bearer tokens, the client drops its token.
func (api *userApi) logout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	token, err := api.auth.Refresh(claims, usr)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{OK: true, Token: token, User: usr.Me()})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr.Me())
}

type (
	EmailRequest struct {
		Email string `json:"email"`
	}

	VerifyRequest struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	SendCodeResponse struct {
		OK bool `json:"ok"`
		user.SendCodeResult
	}

	VerifyResponse struct {
		OK bool `json:"ok"`
		user.VerifyResult
	}

	SignupResponse struct {
		OK bool `json:"ok"`
		ID int  `json:"id"`
	}

	LoginResponse struct {
		OK    bool    `json:"ok"`
		Token string  `json:"token"`
		User  user.Me `json:"user"`
	}
)
