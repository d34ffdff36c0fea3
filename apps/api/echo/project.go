package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core/project"
)

type projectApi struct {
	svc      project.Service
	validate *validator.Validate
	listAll  echo.HandlerFunc
}

func registerProjectAPI(
	g *echo.Group,
	authed []echo.MiddlewareFunc,
	svc project.Service,
	validate *validator.Validate,
) {
	api := &projectApi{svc: svc, validate: validate}
	staff := append(append([]echo.MiddlewareFunc{}, authed...), staffMiddleware)

	// ?all=true goes through the staff chain, the plain listing is public
	api.listAll = api.list(true)
	for i := len(staff) - 1; i >= 0; i-- {
		api.listAll = staff[i](api.listAll)
	}

	pg := g.Group("/projects")
	pg.GET("", api.query)
	pg.POST("", api.create, staff...)
	pg.GET("/:id", api.retrieve)
	pg.PATCH("/:id", api.update, staff...)
	pg.DELETE("/:id", api.delete, staff...)
}

// Handlers

func (api *projectApi) query(ctx echo.Context) error {
	if ctx.QueryParam("all") == "true" {
		return api.listAll(ctx)
	}
	return api.list(false)(ctx)
}

func (api *projectApi) list(includeHidden bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		items, err := api.svc.List(ctx.Request().Context(), project.ListFilter{IncludeHidden: includeHidden})
		if err != nil {
			return errors.Wrap(err, "listing projects")
		}
		return ctx.JSON(http.StatusOK, items)
	}
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting project")
	}
	if !p.IsVisible {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data project.Fields
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Fields")
	}
	if err = data.Validate(api.validate, true); err != nil {
		return err
	}
	p, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *projectApi) update(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	var data project.Fields
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Fields")
	}
	if err = data.Validate(api.validate, false); err != nil {
		return err
	}
	p, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) delete(ctx echo.Context) error {
	id, err := paramID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.NoContent(http.StatusNoContent)
}
