package echoapi

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/likelion-sch/recruit/core/application"
)

type okResponse struct {
	OK bool `json:"ok"`
}

// paramID reads the :id path parameter. Non numeric ids are not found.
func paramID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// queryTrack reads an optional ?track filter.
func queryTrack(ctx echo.Context) application.Track {
	return application.Track(ctx.QueryParam("track")).Upper()
}

// pageLink is the request URL moved to page, or nil when there is no such page.
func pageLink(ctx echo.Context, page int, ok bool) *string {
	if !ok {
		return nil
	}
	u := *ctx.Request().URL
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	scheme := ctx.Scheme()
	link := (&url.URL{Scheme: scheme, Host: ctx.Request().Host, Path: u.Path, RawQuery: u.RawQuery}).String()
	return &link
}
