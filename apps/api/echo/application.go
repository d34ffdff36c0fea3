package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core/application"
)

type applicationApi struct {
	svc      application.Service
	validate *validator.Validate
}

func registerApplicationAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc application.Service,
	validate *validator.Validate,
) {
	api := applicationApi{svc: svc, validate: validate}

	ag := g.Group("/applications")
	ag.GET("/my", api.my, authed...)
	ag.POST("/draft", api.saveDraft, authed...)
	ag.POST("/submit", api.submit, authed...)
	ag.GET("/questions", api.questions)
	ag.GET("/results/my", api.myResult, authed...)
	g.GET("/results/my", api.myResult, authed...)
}

// Handlers

func (api *applicationApi) my(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	mine, err := api.svc.My(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting my application")
	}
	return ctx.JSON(http.StatusOK, mine)
}

func (api *applicationApi) saveDraft(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var draft application.Draft
	if err = ctx.Bind(&draft); err != nil {
		return errors.Wrap(err, "binding to Draft")
	}
	if err = draft.Validate(api.validate); err != nil {
		return err
	}
	if err = api.svc.SaveDraft(ctx.Request().Context(), usr, draft); err != nil {
		return errors.Wrap(err, "saving draft")
	}
	return ctx.JSON(http.StatusOK, okResponse{OK: true})
}

func (api *applicationApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var form application.Form
	if err = ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to Form")
	}
	if err = form.Validate(api.validate); err != nil {
		return err
	}
	app, err := api.svc.Submit(ctx.Request().Context(), usr, form)
	if err != nil {
		return errors.Wrap(err, "submitting application")
	}
	return ctx.JSON(http.StatusOK, StatusResponse{OK: true, Status: app.Status})
}

func (api *applicationApi) questions(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Catalogue())
}

func (api *applicationApi) myResult(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.MyResult(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "building my result")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{OK: true, Result: res})
}

type (
	StatusResponse struct {
		OK     bool               `json:"ok"`
		Status application.Status `json:"status"`
	}

	ResultResponse struct {
		OK     bool                `json:"ok"`
		Result *application.Result `json:"result"`
	}
)
